package fulltext

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Hit is one search result mapped back to a SearchRecord
type Hit struct {
	ID         string
	Position   int
	Score      float64
	Record     searchindex.SearchRecord
	Breadcrumb string
	Module     string
	Symbol     string
	Signature  string
	Keywords   []string
}

// NewQuery matches text against the searchable fields, optionally restricted to one category
func NewQuery(text string, category searchindex.Category) query.Query {
	fields := []string{"symbol", "title", "keywords", "text"}
	disjuncts := make([]query.Query, 0, len(fields))
	for _, field := range fields {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.SetBoost(fieldBoosts[field])
		disjuncts = append(disjuncts, mq)
	}
	q := bleve.NewDisjunctionQuery(disjuncts...)

	if category == "" {
		return q
	}
	tq := bleve.NewTermQuery(string(category))
	tq.SetField("category")
	return bleve.NewConjunctionQuery(q, tq)
}

// NewRequest builds a request returning stored fields, best score first and
// source order among equal scores
func NewRequest(text string, category searchindex.Category, size int) (*bleve.SearchRequest, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", searchindex.ErrUnknownCategory, category)
	}

	req := bleve.NewSearchRequestOptions(NewQuery(text, category), size, 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-_score", "position"})
	return req, nil
}

// HitsFromResult converts bleve hits back into records
func HitsFromResult(result *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hits = append(hits, hitFromMatch(match))
	}
	return hits
}

func hitFromMatch(match *search.DocumentMatch) Hit {
	hit := Hit{
		ID:    match.ID,
		Score: match.Score,
		Record: searchindex.SearchRecord{
			Location: stringField(match.Fields, "location"),
			Page:     stringField(match.Fields, "page"),
			Title:    stringField(match.Fields, "title"),
			Text:     stringField(match.Fields, "text"),
			Category: searchindex.Category(stringField(match.Fields, "category")),
		},
		Breadcrumb: stringField(match.Fields, "breadcrumb"),
		Module:     stringField(match.Fields, "module"),
		Symbol:     stringField(match.Fields, "symbol"),
		Signature:  stringField(match.Fields, "signature"),
	}

	if position, ok := match.Fields["position"].(float64); ok {
		hit.Position = int(position)
	}

	// a single-element slice comes back as a plain string
	switch keywords := match.Fields["keywords"].(type) {
	case string:
		hit.Keywords = []string{keywords}
	case []interface{}:
		hit.Keywords = make([]string, 0, len(keywords))
		for _, kw := range keywords {
			if s, ok := kw.(string); ok {
				hit.Keywords = append(hit.Keywords, s)
			}
		}
	}

	return hit
}

func stringField(fields map[string]interface{}, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}
