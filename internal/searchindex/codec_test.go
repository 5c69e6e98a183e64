package searchindex_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

const fixture = "testdata/search_index.js"

func loadFixture(t *testing.T) *searchindex.Table {
	t.Helper()
	table, err := searchindex.Load(fixture)
	require.NoError(t, err)
	return table
}

func TestLoadGeneratedIndex(t *testing.T) {
	table := loadFixture(t)

	assert.Equal(t, searchindex.DefaultVariable, table.Variable)
	require.Equal(t, 29, table.Len())

	first := table.Records[0]
	assert.Equal(t, "", first.Location)
	assert.Equal(t, "Home", first.Page)
	assert.Equal(t, "Home", first.Title)
	assert.Equal(t, "CurrentModule = GeometryExperiments", first.Text)
	assert.Equal(t, searchindex.CategoryPage, first.Category)

	last := table.Records[table.Len()-1]
	assert.Equal(t, "GeometryExperiments.projection_parameter", last.Title)
	assert.Equal(t, searchindex.CategoryFunction, last.Category)
}

func TestEllipsoidRecord(t *testing.T) {
	table := loadFixture(t)

	records := table.ByTitle("GeometryExperiments.Ellipsoid")
	require.Len(t, records, 1)
	assert.Equal(t, searchindex.CategoryType, records[0].Category)
	assert.True(t, strings.HasSuffix(records[0].Location, "#GeometryExperiments.Ellipsoid"))
}

func TestEveryRecordHasLocationAndCategory(t *testing.T) {
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)

	// every record carries both keys in the raw file
	assert.Equal(t, 29, bytes.Count(data, []byte(`"location":`)))
	assert.Equal(t, 29, bytes.Count(data, []byte(`"category":`)))

	for i, r := range loadFixture(t).Records {
		assert.Truef(t, r.Category.Valid(), "record %d has category %q", i, r.Category)
		if r.Category.IsSymbol() {
			assert.NotEmptyf(t, r.Location, "record %d (%s) has no location", i, r.Title)
		}
	}
}

func TestOrderStableAcrossLoads(t *testing.T) {
	first := loadFixture(t)
	for i := 0; i < 3; i++ {
		again := loadFixture(t)
		assert.Equal(t, first.Records, again.Records)
	}
}

func TestRoundTrip(t *testing.T) {
	original, err := os.ReadFile(fixture)
	require.NoError(t, err)

	table, err := searchindex.Parse(original)
	require.NoError(t, err)

	out, err := searchindex.Marshal(table)
	require.NoError(t, err)

	t.Run("byte identical to generator output", func(t *testing.T) {
		assert.Equal(t, string(original), string(out))
	})

	t.Run("reparses to equal records", func(t *testing.T) {
		again, err := searchindex.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, table.Variable, again.Variable)
		assert.Equal(t, table.Records, again.Records)
	})

	t.Run("plain JSON reparses to equal records", func(t *testing.T) {
		for _, indent := range []bool{false, true} {
			var buf bytes.Buffer
			require.NoError(t, searchindex.WriteJSON(&buf, table, indent))
			again, err := searchindex.Parse(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, "", again.Variable)
			assert.Equal(t, table.Records, again.Records)
		}
	})
}

func TestParseAcceptedForms(t *testing.T) {
	record := `{"location":"#M.f","page":"Home","title":"M.f","text":"f(x)","category":"function"}`
	want := searchindex.SearchRecord{Location: "#M.f", Page: "Home", Title: "M.f", Text: "f(x)", Category: searchindex.CategoryFunction}

	tests := []struct {
		name     string
		input    string
		variable string
	}{
		{"generator form", "var documenterSearchIndex = {\"docs\":\n[" + record + "]\n}", "documenterSearchIndex"},
		{"trailing semicolon", "var documenterSearchIndex = {\"docs\":[" + record + "]};\n", "documenterSearchIndex"},
		{"const declaration", "const idx = {\"docs\":[" + record + "]}", "idx"},
		{"bare assignment", "window.searchIndex={\"docs\":[" + record + "]}", "window.searchIndex"},
		{"byte order mark", "\xEF\xBB\xBFvar documenterSearchIndex = {\"docs\":[" + record + "]}", "documenterSearchIndex"},
		{"bare object", "{\"docs\":[" + record + "]}", ""},
		{"bare array", "[" + record + "]", ""},
		{"extra keys ignored", "[" + strings.TrimSuffix(record, "}") + `,"score":1}]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := searchindex.Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.variable, table.Variable)
			require.Len(t, table.Records, 1)
			assert.Equal(t, want, table.Records[0])
		})
	}
}

func TestParseOptionalFields(t *testing.T) {
	table, err := searchindex.Parse([]byte(`[{"location":"#M.T","title":"M.T","category":"type"}]`))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, searchindex.SearchRecord{Location: "#M.T", Title: "M.T", Category: searchindex.CategoryType}, table.Records[0])
}

func TestParseEmptyDocs(t *testing.T) {
	table, err := searchindex.Parse([]byte(`var documenterSearchIndex = {"docs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty input", "", searchindex.ErrMalformedIndex},
		{"no payload", "var documenterSearchIndex = null", searchindex.ErrMalformedIndex},
		{"truncated", `var documenterSearchIndex = {"docs":[{"location":"","page":"Home"`, searchindex.ErrMalformedIndex},
		{"syntax error", `var documenterSearchIndex = {"docs":[{"location":,}]}`, searchindex.ErrMalformedIndex},
		{"missing docs", `{"records":[]}`, searchindex.ErrMalformedIndex},
		{"docs not an array", `{"docs":{}}`, searchindex.ErrMalformedIndex},
		{"trailing statement", `var a = {"docs":[]}; var b = 1`, searchindex.ErrMalformedIndex},
		{"not an assignment", `console.log({"docs":[]})`, searchindex.ErrMalformedIndex},
		{"missing location", `[{"page":"Home","title":"Home","text":"","category":"page"}]`, searchindex.ErrMissingField},
		{"missing category", `[{"location":"","page":"Home","title":"Home","text":""}]`, searchindex.ErrMissingField},
		{"upper-case keys", `[{"LOCATION":"#x","Title":"x","CATEGORY":"type"}]`, searchindex.ErrMissingField},
		{"null category", `[{"location":"","category":null}]`, searchindex.ErrMissingField},
		{"non-string title", `[{"location":"","title":1,"category":"page"}]`, searchindex.ErrMalformedIndex},
		{"upper-case docs", `{"DOCS":[]}`, searchindex.ErrMalformedIndex},
		{"unknown category", `[{"location":"","page":"Home","title":"Home","text":"","category":"macro"}]`, searchindex.ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searchindex.Parse([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)

			var parseErr *searchindex.ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestParseErrorLocatesRecord(t *testing.T) {
	input := `[{"location":"","category":"page"},{"location":"#x","category":"bogus"}]`
	_, err := searchindex.Parse([]byte(input))

	var parseErr *searchindex.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Record)
	assert.Contains(t, err.Error(), "record 1")
}

func TestParseErrorOffsetIsAbsolute(t *testing.T) {
	prefix := "var documenterSearchIndex = "
	input := prefix + `{"docs":[}`
	_, err := searchindex.Parse([]byte(input))

	var parseErr *searchindex.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.GreaterOrEqual(t, parseErr.Offset, int64(len(prefix)))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := searchindex.Load(filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteFile(t *testing.T) {
	table := loadFixture(t)
	path := filepath.Join(t.TempDir(), "nested", "search_index.js")

	require.NoError(t, searchindex.WriteFile(path, table))

	again, err := searchindex.Load(path)
	require.NoError(t, err)
	assert.Equal(t, table.Records, again.Records)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteKeepsHTMLCharacters(t *testing.T) {
	table := searchindex.NewTable([]searchindex.SearchRecord{
		{Location: "#M.f", Page: "Home", Title: "M.f", Text: "f(x) -> y & <z>", Category: searchindex.CategoryMethod},
	})

	out, err := searchindex.Marshal(table)
	require.NoError(t, err)
	assert.Contains(t, string(out), "f(x) -> y & <z>")
	assert.True(t, strings.HasPrefix(string(out), "var documenterSearchIndex = {\"docs\":\n["))
	assert.True(t, strings.HasSuffix(string(out), "]\n}"))
}

func TestWriteRejectsInvalidVariable(t *testing.T) {
	records := []searchindex.SearchRecord{
		{Location: "#M.f", Page: "Home", Title: "M.f", Text: "", Category: searchindex.CategoryFunction},
	}

	for _, name := range []string{"my index", "1idx", "idx;alert(1)", "a=b"} {
		t.Run(name, func(t *testing.T) {
			table := &searchindex.Table{Variable: name, Records: records}
			_, err := searchindex.Marshal(table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, searchindex.ErrInvalidVariable))
			assert.False(t, searchindex.ValidVariable(name))
		})
	}

	for _, name := range []string{"idx", "window.searchIndex", "$docs", "_idx2"} {
		t.Run(name, func(t *testing.T) {
			out, err := searchindex.Marshal(&searchindex.Table{Variable: name, Records: records})
			require.NoError(t, err)
			again, err := searchindex.Parse(out)
			require.NoError(t, err)
			assert.Equal(t, name, again.Variable)
			assert.Equal(t, records, again.Records)
		})
	}
}
