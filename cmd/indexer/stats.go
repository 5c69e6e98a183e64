package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Show record counts per category and page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd, args[0])
		},
	}
}

func (a *app) runStats(cmd *cobra.Command, file string) error {
	table, err := a.loadTable(file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	variable := table.Variable
	if variable == "" {
		variable = "(plain JSON)"
	}
	fmt.Fprintf(out, "File:     %s\n", file)
	fmt.Fprintf(out, "Variable: %s\n", variable)
	fmt.Fprintf(out, "Records:  %d (~%d tokens)\n", table.Len(), totalTokens(table))

	header(out, "Categories")
	stats := table.Stats()
	rows := make([][]string, 0, len(searchindex.Categories))
	for _, c := range searchindex.Categories {
		rows = append(rows, []string{string(c), itoa(stats[c])})
	}
	renderTable(out, []string{"Category", "Records"}, rows)

	header(out, "Pages")
	rows = rows[:0]
	for _, p := range table.Pages() {
		rows = append(rows, []string{
			p.Name,
			itoa(p.Records),
			itoa(p.Categories[searchindex.CategoryPage] + p.Categories[searchindex.CategorySection]),
			itoa(p.Records - p.Categories[searchindex.CategoryPage] - p.Categories[searchindex.CategorySection]),
		})
	}
	renderTable(out, []string{"Page", "Records", "Navigation", "Symbols"}, rows)

	if violations := searchindex.Validate(table); len(violations) > 0 {
		fmt.Fprintln(out)
		warn(out, "%d invariant violations (run validate for details)", len(violations))
	}
	return nil
}
