package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// SymbolInfo describes the code symbol behind a type, method or function record
type SymbolInfo struct {
	Module    string   `json:"module,omitempty"`
	Name      string   `json:"name"`
	Signature string   `json:"signature,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// SearchResult represents a search result with score
type SearchResult struct {
	Location   string      `json:"location"`
	Page       string      `json:"page"`
	Title      string      `json:"title"`
	Text       string      `json:"text"`
	Category   string      `json:"category"`
	Breadcrumb string      `json:"breadcrumb"`
	Symbol     *SymbolInfo `json:"symbol,omitempty"`
	Keywords   []string    `json:"keywords,omitempty"`
	TokenCount int         `json:"token_count"`
	Position   int         `json:"position"`
	Score      float64     `json:"score"`
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Search query, e.g. a symbol name or words from its docstring"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, capped at 20)"`
	Category   string `json:"category,omitempty" jsonschema:"Restrict results to one category: page, section, type, method or function (optional)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Source    string         `json:"source"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Force re-download and re-indexing (optional, defaults to false)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated        bool      `json:"updated"`
	LastUpdate     time.Time `json:"last_update"`
	RecordsIndexed int       `json:"records_indexed"`
	Source         string    `json:"source"`
	Message        string    `json:"message"`
}

func symbolInfo(r searchindex.SearchRecord) *SymbolInfo {
	sym, ok := searchindex.ParseSymbol(r)
	if !ok {
		return nil
	}
	return &SymbolInfo{
		Module:    sym.Module,
		Name:      sym.Name,
		Signature: sym.Signature,
		Arguments: sym.Arguments,
	}
}

func resultFromHit(hit fulltext.Hit) SearchResult {
	return SearchResult{
		Location:   hit.Record.Location,
		Page:       hit.Record.Page,
		Title:      hit.Record.Title,
		Text:       hit.Record.Text,
		Category:   string(hit.Record.Category),
		Breadcrumb: hit.Breadcrumb,
		Symbol:     symbolInfo(hit.Record),
		Keywords:   hit.Keywords,
		TokenCount: searchindex.EstimateTokens(hit.Record.Text),
		Position:   hit.Position,
		Score:      hit.Score,
	}
}

// SearchDocumentation searches the documentation's search index
func (d *DocSearch) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = d.cfg.MaxResults
	}
	if maxResults > d.cfg.MaxResultsCap {
		maxResults = d.cfg.MaxResultsCap
	}

	var category searchindex.Category
	if input.Category != "" {
		c, err := searchindex.ParseCategory(input.Category)
		if err != nil {
			return nil, SearchDocumentationOutput{}, err
		}
		category = c
	}

	resp, err := d.Search(ctx, input.Query, maxResults, category)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	results := make([]SearchResult, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, resultFromHit(hit))
	}

	output := SearchDocumentationOutput{
		Results:   results,
		Query:     input.Query,
		TotalHits: resp.Total,
		Source:    resp.Source,
	}

	return nil, output, nil
}

// RefreshDocumentationIndex re-downloads and re-indexes the search index
func (d *DocSearch) RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	result, err := d.Refresh(ctx, input.Force)
	if err != nil {
		return nil, RefreshDocumentationIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	output := RefreshDocumentationIndexOutput{
		Updated:        result.Updated,
		LastUpdate:     result.LastUpdate,
		RecordsIndexed: result.Records,
		Source:         result.Source,
	}
	if result.Updated {
		output.Message = fmt.Sprintf("Search index refreshed successfully, %d records indexed", result.Records)
	} else {
		output.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", result.LastUpdate.Format(time.RFC3339))
	}

	return nil, output, nil
}

// RegisterDocSearchTools initializes d and registers the search tools
func RegisterDocSearchTools(ctx context.Context, server *mcp.Server, d *DocSearch) error {
	// Initialize doc search synchronously
	if err := d.Initialize(ctx); err != nil {
		d.log.WithError(err).Warn("Documentation search initialization failed, will retry on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Full-text search over the documentation's search index (pages, sections and docstrings of types, methods and functions). Matches symbol names, titles and docstring text; returns the best records with breadcrumb and symbol signature.",
		},
		d.SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Re-download the published search index and rebuild the full-text index (runs only when the cache is stale unless force is set)",
		},
		d.RefreshDocumentationIndex,
	)

	return nil
}
