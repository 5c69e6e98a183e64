package tools

import (
	"sync/atomic"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// staticIndex is a BundledIndex over raw bytes that counts how often it is read
type staticIndex struct {
	data  []byte
	reads atomic.Int64
}

func newStaticIndex(data []byte) *staticIndex {
	return &staticIndex{data: data}
}

func (s *staticIndex) Table() (*searchindex.Table, error) {
	s.reads.Add(1)
	return parseBundled(s.data)
}
