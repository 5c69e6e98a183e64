package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/tools"
)

func (a *app) newConvertCmd() *cobra.Command {
	var (
		format   string
		variable string
	)

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-serialise a search index as JavaScript or plain JSON",
		Long: `Read a search index in any accepted form (search_index.js, {"docs": [...]}
or a bare JSON array) and write it as the generator's JavaScript (js) or as
plain JSON (json). Use "-" as out to write to stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0], args[1], format, variable)
		},
	}

	cmd.Flags().StringVar(&format, "format", tools.FormatJS, "output format: js or json")
	cmd.Flags().StringVar(&variable, "var", "", "variable name for js output (default: keep the input's, else "+searchindex.DefaultVariable+")")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, in, out, format, variable string) error {
	if variable != "" && !searchindex.ValidVariable(variable) {
		return fmt.Errorf("%w: %q", searchindex.ErrInvalidVariable, variable)
	}

	table, err := a.loadTable(in)
	if err != nil {
		return err
	}
	if variable != "" {
		table.Variable = variable
	}

	if out == "-" {
		data, err := tools.ExportTable(table, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	switch format {
	case tools.FormatJS:
		err = searchindex.WriteFile(out, table)
	default:
		var data []byte
		if data, err = tools.ExportTable(table, format); err == nil {
			err = os.WriteFile(out, data, 0644)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	success(cmd.ErrOrStderr(), "Wrote %d records to %s (%s)", table.Len(), out, format)
	return nil
}
