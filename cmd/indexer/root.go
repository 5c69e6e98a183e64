package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/logging"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "indexer",
		Short: "Inspect, validate, convert and index Documenter search index files",
		Long: `indexer works on the search_index.js files Documenter.jl generates.

Example usage:
  indexer stats search_index.js                  # Records per category and page
  indexer validate search_index.js               # Schema and invariant checks
  indexer search search_index.js Ellipsoid       # Search the records
  indexer convert search_index.js out.json --format json
  indexer build search_index.js                  # Full-text index for the MCP server`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $DOCMCP_CONFIG or ~/.documenter-mcp/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		a.newBuildCmd(),
		a.newValidateCmd(),
		a.newConvertCmd(),
		a.newSearchCmd(),
		a.newStatsCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) log(component string) *logrus.Entry {
	return logging.Component(a.logger, component)
}

// loadTable loads a search index file, logging where it came from
func (a *app) loadTable(path string) (*searchindex.Table, error) {
	table, err := searchindex.Load(path)
	if err != nil {
		return nil, err
	}
	a.log("loader").WithFields(logrus.Fields{
		"file":    path,
		"records": table.Len(),
	}).Debug("Search index loaded")
	return table, nil
}
