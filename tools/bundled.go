package tools

import (
	"embed"
	"fmt"
	"sync"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// bundledIndexFile is the search index compiled into the binary, so the
// server answers queries before the first download or without network access.
const bundledIndexFile = "data/search_index.js"

//go:embed data/search_index.js
var bundledFS embed.FS

// BundledIndex supplies the table the server falls back to when no
// downloaded search index is usable
type BundledIndex interface {
	// Table returns the parsed bundled table. Callers must not modify it.
	Table() (*searchindex.Table, error)
}

// embeddedIndex parses the compiled-in file once and shares the result
type embeddedIndex struct {
	load func() (*searchindex.Table, error)
}

// NewEmbeddedIndex returns the BundledIndex compiled into the binary
func NewEmbeddedIndex() BundledIndex {
	return &embeddedIndex{load: sync.OnceValues(func() (*searchindex.Table, error) {
		data, err := bundledFS.ReadFile(bundledIndexFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read bundled search index: %w", err)
		}
		return parseBundled(data)
	})}
}

func (e *embeddedIndex) Table() (*searchindex.Table, error) {
	return e.load()
}

// parseBundled parses a bundled index. An empty bundle is an error since
// nothing sits behind it.
func parseBundled(data []byte) (*searchindex.Table, error) {
	table, err := searchindex.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled search index: %w", err)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("bundled search index has no records")
	}
	return table, nil
}
