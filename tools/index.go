package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Index answers queries over the records of one table
type Index interface {
	// Search returns up to size hits for text, best first, and the number of
	// records that matched. An empty category matches every category.
	Search(ctx context.Context, text string, category searchindex.Category, size int) ([]fulltext.Hit, int, error)

	// DocCount returns the number of indexed records
	DocCount() (uint64, error)

	Close() error
}

// bleveIndex runs fulltext queries against a bleve index and decodes the
// stored fields back into records
type bleveIndex struct {
	index bleve.Index
}

// NewBleveIndex wraps an index built by fulltext.IndexTable
func NewBleveIndex(index bleve.Index) Index {
	return &bleveIndex{index: index}
}

func (b *bleveIndex) Search(ctx context.Context, text string, category searchindex.Category, size int) ([]fulltext.Hit, int, error) {
	req, err := fulltext.NewRequest(text, category, size)
	if err != nil {
		return nil, 0, err
	}
	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}
	return fulltext.HitsFromResult(result), int(result.Total), nil
}

func (b *bleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *bleveIndex) Close() error {
	return b.index.Close()
}

// tableIndex scans the table itself. It serves searches when no bleve index
// could be opened or built.
type tableIndex struct {
	table *searchindex.Table
}

func newTableIndex(table *searchindex.Table) Index {
	return &tableIndex{table: table}
}

func (s *tableIndex) Search(ctx context.Context, text string, category searchindex.Category, size int) ([]fulltext.Hit, int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, fmt.Errorf("empty query")
	}
	opts := searchindex.SearchOptions{}
	if category != "" {
		if !category.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", searchindex.ErrUnknownCategory, category)
		}
		opts.Categories = []searchindex.Category{category}
	}

	results := searchindex.Search(s.table, text, opts)
	total := len(results)
	if size > 0 && len(results) > size {
		results = results[:size]
	}

	hits := make([]fulltext.Hit, 0, len(results))
	for _, r := range results {
		doc := fulltext.NewDocument(r.Position, r.Record)
		hits = append(hits, fulltext.Hit{
			ID:         fulltext.DocumentID(r.Position),
			Position:   r.Position,
			Score:      r.Score,
			Record:     r.Record,
			Breadcrumb: doc.Breadcrumb,
			Module:     doc.Module,
			Symbol:     doc.Symbol,
			Signature:  doc.Signature,
			Keywords:   doc.Keywords,
		})
	}
	return hits, total, nil
}

func (s *tableIndex) DocCount() (uint64, error) {
	return uint64(s.table.Len()), nil
}

func (s *tableIndex) Close() error {
	return nil
}
