package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

// renderTable prints headers and rows as an aligned table
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := newTable(w)
	table.Header(headers)
	table.Bulk(rows)
	table.Render()
}

func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, "⚠ "+format+"\n", args...)
}

func fail(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}

func header(w io.Writer, title string) {
	color.New(color.Bold).Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", len([]rune(title))))
}

// clip shortens s to n runes on one line
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
