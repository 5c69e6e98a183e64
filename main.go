package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/logging"
	"github.com/docsearch/documenter-mcp/tools"
)

const (
	version     = "0.3.0"
	serverName  = "documenter-mcp"
	description = "MCP server for searching Documenter.jl documentation indexes"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}

	// Log to stderr (MCP uses stdout for protocol)
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{
		"version":  version,
		"data_dir": cfg.DataDir,
	}).Infof("%s starting...", serverName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docSearch := tools.NewDocSearch(cfg, logger, tools.NewEmbeddedIndex())

	server := createMCPServer(logger)
	if err := registerTools(ctx, server, docSearch, logger); err != nil {
		logger.WithError(err).Fatal("Failed to register tools")
	}

	logger.Info("Server ready and waiting for connections")

	err = server.Run(ctx, &mcp.StdioTransport{})

	if closeErr := docSearch.Close(); closeErr != nil {
		logger.WithError(closeErr).Error("Error closing doc search")
	}
	if err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("Server error")
	}
}

// createMCPServer initializes the MCP server
func createMCPServer(logger *logrus.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	logger.Debugf("Server initialized: %s v%s (%s)", serverName, version, description)
	return server
}

// registerTools registers all MCP tools
func registerTools(ctx context.Context, server *mcp.Server, docSearch *tools.DocSearch, logger *logrus.Logger) error {
	if err := tools.RegisterDocSearchTools(ctx, server, docSearch); err != nil {
		return fmt.Errorf("failed to register doc search tools: %w", err)
	}
	tools.RegisterRecordTools(server, docSearch)
	tools.RegisterValidationTools(server, docSearch)

	logger.WithField("tools", 6).Info("All tools registered (search + refresh + lookup + pages + validation + export)")
	return nil
}
