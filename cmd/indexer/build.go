package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/tools"
)

func (a *app) newBuildCmd() *cobra.Command {
	var (
		batchSize int
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "build <search_index.js> [index-dir]",
		Short: "Build the full-text index of a search index file",
		Long: `Parse a search index file and build the bleve index the MCP server searches.

Without index-dir the index goes to <data_dir>/search/index, taking the same
lock as the server so a running server is never rebuilt underneath.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexDir := ""
			if len(args) == 2 {
				indexDir = args[1]
			}
			return a.runBuild(cmd, args[0], indexDir, batchSize, strict)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", fulltext.DefaultBatchSize, "records per bleve batch")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to index a file with invariant violations")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, file, indexDir string, batchSize int, strict bool) error {
	log := a.log("indexer")
	startTime := time.Now()

	table, err := a.loadTable(file)
	if err != nil {
		return err
	}

	if violations := searchindex.Validate(table); len(violations) > 0 {
		for _, v := range violations {
			log.Warn(v.String())
		}
		if strict {
			return fmt.Errorf("%s has %d invariant violations", file, len(violations))
		}
	}

	if indexDir == "" {
		release, err := tools.LockDataDir(cmd.Context(), a.cfg, log)
		if err != nil {
			return err
		}
		defer release()
		indexDir = tools.IndexDir(a.cfg)
	}

	if err := os.RemoveAll(indexDir); err != nil {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	log.WithField("index", indexDir).Info("Creating search index")
	index, err := fulltext.Create(indexDir)
	if err != nil {
		return err
	}

	err = fulltext.IndexTable(index, table, batchSize, func(done, total int) {
		log.Debugf("Indexed %d/%d records...", done, total)
	})
	if err != nil {
		index.Close()
		return err
	}
	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	versionPath := tools.IndexVersionPath(indexDir)
	if err := tools.WriteIndexVersion(versionPath); err != nil {
		log.WithError(err).Warn("Failed to write version file")
	}

	log.WithFields(logrus.Fields{
		"records": table.Len(),
		"elapsed": time.Since(startTime).Round(time.Millisecond),
	}).Info("Indexing complete")

	out := cmd.OutOrStdout()
	success(out, "Indexed %d records into %s", table.Len(), indexDir)
	fmt.Fprintf(out, "  Schema:  v%d (%s)\n", searchindex.IndexSchemaVersion, versionPath)
	fmt.Fprintf(out, "  Tokens:  ~%d\n", totalTokens(table))
	return nil
}

func totalTokens(table *searchindex.Table) int {
	total := 0
	for _, r := range table.Records {
		total += searchindex.EstimateTokens(r.Text)
	}
	return total
}
