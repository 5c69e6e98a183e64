package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/tools"
)

const fixture = "../../internal/searchindex/testdata/search_index.js"

// execute runs the CLI with an isolated data directory
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("DOCMCP_DATA_DIR", dataDir)
	t.Setenv("DOCMCP_CONFIG", filepath.Join(dataDir, "config.yaml"))

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search_index.js")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStats(t *testing.T) {
	out, _, err := execute(t, "stats", fixture)
	require.NoError(t, err)

	assert.Contains(t, out, "Variable: documenterSearchIndex")
	assert.Contains(t, out, "Records:  29")
	assert.Contains(t, out, "Home")
	for _, line := range []string{"type", "method", "function"} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "invariant violations")
}

func TestValidate(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		out, _, err := execute(t, "validate", fixture)
		require.NoError(t, err)
		assert.Contains(t, out, "29 records valid")
	})

	t.Run("invalid files", func(t *testing.T) {
		bad := writeFile(t, `[{"location":"","page":"Home","title":"M.T","text":"","category":"type"}]`)
		out, _, err := execute(t, "validate", fixture, bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 files failed validation")
		assert.Contains(t, out, "symbol record without location")
	})

	t.Run("json output", func(t *testing.T) {
		bad := writeFile(t, `{"docs":[{"location":"","page":"Home","title":"Home","text":"","category":"macro"}]}`)
		out, _, err := execute(t, "validate", "--json", bad)
		require.Error(t, err)

		var reports []struct {
			File         string                    `json:"file"`
			Valid        bool                      `json:"valid"`
			SchemaErrors []searchindex.SchemaError `json:"schema_errors"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &reports))
		require.Len(t, reports, 1)
		assert.False(t, reports[0].Valid)
		require.NotEmpty(t, reports[0].SchemaErrors)
		assert.Equal(t, "$.docs.0.category", reports[0].SchemaErrors[0].Path)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.js"))
		assert.Error(t, err)
	})
}

func TestConvert(t *testing.T) {
	original, err := os.ReadFile(fixture)
	require.NoError(t, err)

	t.Run("js round trip", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "copy.js")
		_, _, err := execute(t, "convert", fixture, out)
		require.NoError(t, err)

		written, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, string(original), string(written))
	})

	t.Run("json to stdout", func(t *testing.T) {
		stdout, _, err := execute(t, "convert", fixture, "-", "--format", "json")
		require.NoError(t, err)

		table, err := searchindex.Parse([]byte(stdout))
		require.NoError(t, err)
		assert.Equal(t, 29, table.Len())
		assert.Equal(t, "", table.Variable)
	})

	t.Run("json back to js", func(t *testing.T) {
		dir := t.TempDir()
		jsonPath := filepath.Join(dir, "index.json")
		jsPath := filepath.Join(dir, "index.js")
		_, _, err := execute(t, "convert", fixture, jsonPath, "--format", "json")
		require.NoError(t, err)
		_, _, err = execute(t, "convert", jsonPath, jsPath)
		require.NoError(t, err)

		written, err := os.ReadFile(jsPath)
		require.NoError(t, err)
		assert.Equal(t, string(original), string(written))
	})

	t.Run("custom variable", func(t *testing.T) {
		stdout, _, err := execute(t, "convert", fixture, "-", "--var", "idx")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stdout, `var idx = {"docs":`))
	})

	t.Run("invalid variable", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "bad.js")
		_, _, err := execute(t, "convert", fixture, out, "--var", "my index")
		require.Error(t, err)
		assert.True(t, errors.Is(err, searchindex.ErrInvalidVariable))

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid variable")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, "convert", fixture, "-", "--format", "yaml")
		assert.Error(t, err)
	})
}

func TestSearch(t *testing.T) {
	t.Run("tokens", func(t *testing.T) {
		out, _, err := execute(t, "search", fixture, "Ellipsoid", "--json")
		require.NoError(t, err)

		var rows []searchRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.NotEmpty(t, rows)
		assert.Equal(t, "GeometryExperiments.Ellipsoid", rows[0].Title)
		assert.Equal(t, 9, rows[0].Position)
	})

	t.Run("substring", func(t *testing.T) {
		out, _, err := execute(t, "search", fixture, "Horner's", "method", "--substring", "--json")
		require.NoError(t, err)

		var rows []searchRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		titles := []string{}
		for _, r := range rows {
			titles = append(titles, r.Title)
		}
		assert.Equal(t, []string{"GeometryExperiments.BezierCurve", "GeometryExperiments.Horner"}, titles)
	})

	t.Run("fulltext with category", func(t *testing.T) {
		out, _, err := execute(t, "search", fixture, "projection", "--fulltext", "-c", "function", "--json")
		require.NoError(t, err)

		var rows []searchRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.NotEmpty(t, rows)
		for _, r := range rows {
			assert.Equal(t, "function", r.Category)
		}
	})

	t.Run("table output", func(t *testing.T) {
		out, _, err := execute(t, "search", fixture, "quaternion")
		require.NoError(t, err)
		assert.Contains(t, out, "GeometryExperiments.Quaternion")
	})

	t.Run("no match", func(t *testing.T) {
		out, _, err := execute(t, "search", fixture, "zzzz")
		require.NoError(t, err)
		assert.Contains(t, out, "No records match")
	})

	t.Run("bad category", func(t *testing.T) {
		_, _, err := execute(t, "search", fixture, "mesh", "-c", "macro")
		assert.Error(t, err)
	})
}

func TestBuild(t *testing.T) {
	t.Run("explicit directory", func(t *testing.T) {
		indexDir := filepath.Join(t.TempDir(), "search", "index")
		out, _, err := execute(t, "build", fixture, indexDir, "--batch-size", "10")
		require.NoError(t, err)
		assert.Contains(t, out, "Indexed 29 records")

		version, err := os.ReadFile(tools.IndexVersionPath(indexDir))
		require.NoError(t, err)
		assert.Equal(t, "2", string(version))

		index, err := fulltext.Open(indexDir)
		require.NoError(t, err)
		defer index.Close()
		count, err := index.DocCount()
		require.NoError(t, err)
		assert.Equal(t, uint64(29), count)
	})

	t.Run("strict refuses violations", func(t *testing.T) {
		bad := writeFile(t, `[{"location":"","page":"Home","title":"M.T","text":"","category":"type"}]`)
		_, _, err := execute(t, "build", bad, filepath.Join(t.TempDir(), "index"), "--strict")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invariant violations")
	})

	t.Run("data directory", func(t *testing.T) {
		dataDir := t.TempDir()
		cmd := newRootCmd()
		var stdout bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"build", fixture})
		t.Setenv("DOCMCP_DATA_DIR", dataDir)
		t.Setenv("DOCMCP_CONFIG", filepath.Join(dataDir, "config.yaml"))

		require.NoError(t, cmd.Execute())
		assert.DirExists(t, filepath.Join(dataDir, "search", "index"))
		assert.FileExists(t, filepath.Join(dataDir, "search", ".index_version"))
		assert.FileExists(t, filepath.Join(dataDir, "search", "index.lock"))
	})
}

func TestRootRejectsBadLogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "chatty", "stats", fixture)
	assert.Error(t, err)
}
