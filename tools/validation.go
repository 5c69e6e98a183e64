package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

const (
	// ValidationGuidance keeps the model from inventing problems the validator did not report
	ValidationGuidance = "The schema errors and violations listed are the COMPLETE validation results. Only fix the problems explicitly listed; a record the validator did not mention is valid."
)

// ValidateSearchIndexInput defines input for validate_search_index tool
type ValidateSearchIndexInput struct {
	Content string `json:"content,omitempty" jsonschema:"Search index content (search_index.js, {\"docs\": [...]} or a JSON array of records)"`
	Path    string `json:"path,omitempty" jsonschema:"Path to a search index file (used when content is empty)"`
}

// ValidateSearchIndexOutput defines output for validate_search_index tool
type ValidateSearchIndexOutput struct {
	Valid        bool                      `json:"valid"`
	Source       string                    `json:"source"`
	Records      int                       `json:"records"`
	ParseError   string                    `json:"parse_error,omitempty"`
	SchemaErrors []searchindex.SchemaError `json:"schema_errors"`
	Violations   []searchindex.Violation   `json:"violations"`
	Guidance     string                    `json:"guidance"`
}

// ValidationReport is the combined result of schema and invariant checks
type ValidationReport struct {
	Records      int
	ParseError   error
	SchemaErrors []searchindex.SchemaError
	Violations   []searchindex.Violation
}

// Valid reports whether no check found a problem
func (r ValidationReport) Valid() bool {
	return r.ParseError == nil && len(r.SchemaErrors) == 0 && len(r.Violations) == 0
}

// ValidateContent checks data against the JSON schema and, when it parses,
// the table invariants. Only malformed input yields a ParseError.
func ValidateContent(data []byte) ValidationReport {
	report := ValidationReport{
		SchemaErrors: []searchindex.SchemaError{},
		Violations:   []searchindex.Violation{},
	}

	schemaErrors, err := searchindex.ValidateSchema(data)
	if err != nil {
		report.ParseError = err
		return report
	}
	if len(schemaErrors) > 0 {
		report.SchemaErrors = schemaErrors
	}

	table, err := searchindex.Parse(data)
	if err != nil {
		// Structural problems are already in the schema errors
		if len(schemaErrors) == 0 {
			report.ParseError = err
		}
		return report
	}
	report.Records = table.Len()
	if violations := searchindex.Validate(table); len(violations) > 0 {
		report.Violations = violations
	}
	return report
}

// ValidateSearchIndex validates search index content, a file, or the active table
func (d *DocSearch) ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	var (
		data   []byte
		source string
	)
	switch {
	case strings.TrimSpace(input.Content) != "":
		data, source = []byte(input.Content), "content"
	case input.Path != "":
		content, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, ValidateSearchIndexOutput{}, fmt.Errorf("failed to read %s: %w", input.Path, err)
		}
		data, source = content, input.Path
	default:
		table, tableSource, err := d.Table(ctx)
		if err != nil {
			return nil, ValidateSearchIndexOutput{}, err
		}
		content, err := searchindex.Marshal(table)
		if err != nil {
			return nil, ValidateSearchIndexOutput{}, err
		}
		data, source = content, tableSource
	}

	report := ValidateContent(data)
	output := ValidateSearchIndexOutput{
		Valid:        report.Valid(),
		Source:       source,
		Records:      report.Records,
		SchemaErrors: report.SchemaErrors,
		Violations:   report.Violations,
		Guidance:     ValidationGuidance,
	}
	if report.ParseError != nil {
		output.ParseError = report.ParseError.Error()
	}

	return nil, output, nil
}

// RegisterValidationTools registers validation tools with the MCP server
func RegisterValidationTools(server *mcp.Server, d *DocSearch) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Validate a documentation search index: JSON schema check of every record (required keys, known categories) plus cross-field checks (symbol records need a #anchor starting with their title). Validates the active index when neither content nor path is given.\n\nIMPORTANT: The output contains a 'guidance' field. Only fix the problems explicitly listed.",
		},
		d.ValidateSearchIndex,
	)
}
