package tools

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Export formats
const (
	FormatJS   = "js"
	FormatJSON = "json"
)

// SymbolMatch is one record found by lookup_symbol
type SymbolMatch struct {
	Location   string      `json:"location"`
	Page       string      `json:"page"`
	Title      string      `json:"title"`
	Category   string      `json:"category"`
	Breadcrumb string      `json:"breadcrumb"`
	Summary    string      `json:"summary"`
	Text       string      `json:"text"`
	Symbol     *SymbolInfo `json:"symbol,omitempty"`
	Position   int         `json:"position"`
}

// LookupSymbolInput defines input for lookup_symbol tool
type LookupSymbolInput struct {
	Name string `json:"name" jsonschema:"Qualified name (GeometryExperiments.Ellipsoid) or bare name (Ellipsoid, case-insensitive)"`
}

// LookupSymbolOutput defines output for lookup_symbol tool
type LookupSymbolOutput struct {
	Name    string        `json:"name"`
	Exact   bool          `json:"exact"` // true when matched on the full title
	Matches []SymbolMatch `json:"matches"`
}

// PageInfo summarises one page of the documentation
type PageInfo struct {
	Name       string         `json:"name"`
	Records    int            `json:"records"`
	Categories map[string]int `json:"categories"`
}

// ListPagesInput defines input for list_pages tool
type ListPagesInput struct{}

// ListPagesOutput defines output for list_pages tool
type ListPagesOutput struct {
	Pages        []PageInfo     `json:"pages"`
	TotalRecords int            `json:"total_records"`
	Categories   map[string]int `json:"categories"`
	Source       string         `json:"source"`
}

// ExportSearchIndexInput defines input for export_search_index tool
type ExportSearchIndexInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: js (generator form, default) or json (plain {\"docs\": [...]})"`
}

// ExportSearchIndexOutput defines output for export_search_index tool
type ExportSearchIndexOutput struct {
	Format  string `json:"format"`
	Records int    `json:"records"`
	Content string `json:"content"`
}

// LookupSymbols finds records titled name; when there are none, records whose
// unqualified symbol name equals name ignoring case
func LookupSymbols(table *searchindex.Table, name string) ([]int, bool) {
	var positions []int
	for i, r := range table.Records {
		if r.Title == name {
			positions = append(positions, i)
		}
	}
	if len(positions) > 0 {
		return positions, true
	}

	for i, r := range table.Records {
		sym, ok := searchindex.ParseSymbol(r)
		if ok && strings.EqualFold(sym.Name, name) {
			positions = append(positions, i)
		}
	}
	return positions, false
}

// LookupSymbol resolves a symbol name to its records
func (d *DocSearch) LookupSymbol(ctx context.Context, req *mcp.CallToolRequest, input LookupSymbolInput) (*mcp.CallToolResult, LookupSymbolOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, LookupSymbolOutput{}, fmt.Errorf("name is required")
	}

	table, _, err := d.Table(ctx)
	if err != nil {
		return nil, LookupSymbolOutput{}, err
	}

	positions, exact := LookupSymbols(table, name)
	matches := make([]SymbolMatch, 0, len(positions))
	for _, pos := range positions {
		r := table.Records[pos]
		matches = append(matches, SymbolMatch{
			Location:   r.Location,
			Page:       r.Page,
			Title:      r.Title,
			Category:   string(r.Category),
			Breadcrumb: searchindex.Breadcrumb(r),
			Summary:    searchindex.Summary(r.Text),
			Text:       r.Text,
			Symbol:     symbolInfo(r),
			Position:   pos,
		})
	}

	return nil, LookupSymbolOutput{Name: name, Exact: exact, Matches: matches}, nil
}

func categoryCounts(counts map[searchindex.Category]int) map[string]int {
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		out[string(c)] = n
	}
	return out
}

// ListPages lists the documentation pages with their record counts
func (d *DocSearch) ListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	table, source, err := d.Table(ctx)
	if err != nil {
		return nil, ListPagesOutput{}, err
	}

	summaries := table.Pages()
	pages := make([]PageInfo, 0, len(summaries))
	for _, p := range summaries {
		pages = append(pages, PageInfo{
			Name:       p.Name,
			Records:    p.Records,
			Categories: categoryCounts(p.Categories),
		})
	}

	return nil, ListPagesOutput{
		Pages:        pages,
		TotalRecords: table.Len(),
		Categories:   categoryCounts(table.Stats()),
		Source:       source,
	}, nil
}

// ExportTable serialises table in the given format
func ExportTable(table *searchindex.Table, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "", FormatJS:
		if err := searchindex.Write(&buf, table); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := searchindex.WriteJSON(&buf, table, true); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want %s or %s)", format, FormatJS, FormatJSON)
	}
	return buf.Bytes(), nil
}

// ExportSearchIndex serialises the active table
func (d *DocSearch) ExportSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ExportSearchIndexInput) (*mcp.CallToolResult, ExportSearchIndexOutput, error) {
	format := input.Format
	if format == "" {
		format = FormatJS
	}

	table, _, err := d.Table(ctx)
	if err != nil {
		return nil, ExportSearchIndexOutput{}, err
	}

	content, err := ExportTable(table, format)
	if err != nil {
		return nil, ExportSearchIndexOutput{}, err
	}

	return nil, ExportSearchIndexOutput{
		Format:  format,
		Records: table.Len(),
		Content: string(content),
	}, nil
}

// RegisterRecordTools registers the tools that read the table directly
func RegisterRecordTools(server *mcp.Server, d *DocSearch) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lookup_symbol",
			Description: "Find the documentation records of a symbol by its qualified name (Module.Name) or bare name. Returns location, breadcrumb, signature and docstring.",
		},
		d.LookupSymbol,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pages",
			Description: "List the documentation pages in the search index with record counts per category",
		},
		d.ListPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "export_search_index",
			Description: "Serialise the active search index, either in the documentation generator's JavaScript form (js) or as plain JSON (json)",
		},
		d.ExportSearchIndex,
	)
}
