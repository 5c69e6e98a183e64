package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docsearch/documenter-mcp/tools"
)

type fileReport struct {
	File   string
	Valid  bool
	Report tools.ValidationReport
}

func (a *app) newValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check search index files against the schema and record invariants",
		Long: `Validate one or more search index files. Every record needs the five keys
and a known category; type, method and function records need a #anchor that
starts with their title. Exits non-zero when any file has a problem.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output reports as JSON")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, files []string, jsonOutput bool) error {
	reports := make([]fileReport, len(files))

	var g errgroup.Group
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			report := tools.ValidateContent(data)
			reports[i] = fileReport{File: file, Valid: report.Valid(), Report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := writeReportsJSON(out, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printReport(out, r)
		}
	}

	invalid := 0
	for _, r := range reports {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed validation", invalid, len(reports))
	}
	return nil
}

func printReport(w io.Writer, r fileReport) {
	report := r.Report
	if report.Valid() {
		success(w, "%s: %d records valid", r.File, report.Records)
		return
	}

	fail(w, "%s", r.File)
	if report.ParseError != nil {
		fmt.Fprintf(w, "  parse error: %v\n", report.ParseError)
	}
	for _, e := range report.SchemaErrors {
		fmt.Fprintf(w, "  schema %s: %s\n", e.Path, e.Message)
	}
	for _, v := range report.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}

func writeReportsJSON(w io.Writer, reports []fileReport) error {
	type jsonReport struct {
		File         string      `json:"file"`
		Valid        bool        `json:"valid"`
		Records      int         `json:"records"`
		ParseError   string      `json:"parse_error,omitempty"`
		SchemaErrors interface{} `json:"schema_errors"`
		Violations   interface{} `json:"violations"`
	}

	out := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		jr := jsonReport{
			File:         r.File,
			Valid:        r.Valid,
			Records:      r.Report.Records,
			SchemaErrors: r.Report.SchemaErrors,
			Violations:   r.Report.Violations,
		}
		if r.Report.ParseError != nil {
			jr.ParseError = r.Report.ParseError.Error()
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
