package tools

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// mockIndex is an in-memory stand-in for Index. It answers every search with
// the same hits and fails once closed.
type mockIndex struct {
	docCount    uint64
	hits        []fulltext.Hit
	searchError error
	closeError  error
	searches    atomic.Int64
	closed      atomic.Bool
}

func newMockIndex(docCount uint64) *mockIndex {
	return &mockIndex{docCount: docCount}
}

func (m *mockIndex) Search(ctx context.Context, text string, category searchindex.Category, size int) ([]fulltext.Hit, int, error) {
	if m.closed.Load() {
		return nil, 0, fmt.Errorf("index closed")
	}
	m.searches.Add(1)
	if m.searchError != nil {
		return nil, 0, m.searchError
	}
	hits := m.hits
	if size > 0 && len(hits) > size {
		hits = hits[:size]
	}
	return hits, len(m.hits), nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Swap(true) {
		return fmt.Errorf("already closed")
	}
	return m.closeError
}

// IsClosed returns true if the index has been closed
func (m *mockIndex) IsClosed() bool {
	return m.closed.Load()
}
