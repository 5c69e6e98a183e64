package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/tools"
)

type searchFlags struct {
	limit      int
	category   string
	substring  bool
	fulltext   bool
	jsonOutput bool
}

// searchRow is one printed result
type searchRow struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Title    string  `json:"title"`
	Location string  `json:"location"`
	Summary  string  `json:"summary"`
}

func (a *app) newSearchCmd() *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <file> <query>...",
		Short: "Search the records of a search index file",
		Long: `Search titles and docstrings, ignoring case and accents. By default every
query word must match; --substring matches the query as one phrase and
--fulltext runs the same bleve query the MCP server uses.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args[0], strings.Join(args[1:], " "), f)
		},
	}

	cmd.Flags().IntVarP(&f.limit, "limit", "n", 10, "maximum number of results (0 = all)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "only page, section, type, method or function records")
	cmd.Flags().BoolVar(&f.substring, "substring", false, "match the whole query as one substring")
	cmd.Flags().BoolVar(&f.fulltext, "fulltext", false, "use the bleve full-text index")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "output results as JSON")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, file, query string, f *searchFlags) error {
	var category searchindex.Category
	if f.category != "" {
		c, err := searchindex.ParseCategory(f.category)
		if err != nil {
			return err
		}
		category = c
	}

	table, err := a.loadTable(file)
	if err != nil {
		return err
	}

	var rows []searchRow
	if f.fulltext {
		rows, err = fulltextSearch(cmd.Context(), table, query, category, f.limit)
		if err != nil {
			return err
		}
	} else {
		opts := searchindex.SearchOptions{Limit: f.limit}
		if category != "" {
			opts.Categories = []searchindex.Category{category}
		}
		if f.substring {
			opts.Mode = searchindex.MatchSubstring
		}
		for _, r := range searchindex.Search(table, query, opts) {
			rows = append(rows, newSearchRow(r.Position, r.Score, r.Record))
		}
	}

	out := cmd.OutOrStdout()
	if f.jsonOutput {
		if rows == nil {
			rows = []searchRow{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		warn(out, "No records match %q", query)
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			itoa(r.Position),
			fmt.Sprintf("%.2f", r.Score),
			r.Category,
			r.Title,
			clip(r.Summary, 60),
		})
	}
	renderTable(out, []string{"Pos", "Score", "Category", "Title", "Summary"}, tableRows)
	return nil
}

func fulltextSearch(ctx context.Context, table *searchindex.Table, query string, category searchindex.Category, limit int) ([]searchRow, error) {
	if limit <= 0 {
		limit = table.Len()
	}

	built, err := fulltext.BuildInMemory(table)
	if err != nil {
		return nil, err
	}
	index := tools.NewBleveIndex(built)
	defer index.Close()

	hits, _, err := index.Search(ctx, query, category, limit)
	if err != nil {
		return nil, err
	}

	var rows []searchRow
	for _, hit := range hits {
		rows = append(rows, newSearchRow(hit.Position, hit.Score, hit.Record))
	}
	return rows, nil
}

func newSearchRow(position int, score float64, r searchindex.SearchRecord) searchRow {
	return searchRow{
		Position: position,
		Score:    score,
		Category: string(r.Category),
		Title:    r.Title,
		Location: r.Location,
		Summary:  searchindex.Summary(r.Text),
	}
}
