package searchindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

func TestValidateGeneratedIndex(t *testing.T) {
	assert.Empty(t, searchindex.Validate(loadFixture(t)))
}

func TestValidateViolations(t *testing.T) {
	table := searchindex.NewTable([]searchindex.SearchRecord{
		{Location: "", Page: "Home", Title: "Home", Category: searchindex.CategoryPage},
		{Location: "", Page: "Home", Title: "M.f", Category: searchindex.CategoryFunction},
		{Location: "api/", Page: "API", Title: "M.g", Category: searchindex.CategoryMethod},
		{Location: "#M.other", Page: "API", Title: "M.h", Category: searchindex.CategoryType},
		{Location: "#x", Page: "API", Title: "x", Category: searchindex.Category("macro")},
		{Location: "#sec", Page: "API", Title: "", Category: searchindex.CategorySection},
	})

	violations := searchindex.Validate(table)
	require.Len(t, violations, 5)

	records := make([]int, 0, len(violations))
	for _, v := range violations {
		records = append(records, v.Record)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, records)
	assert.Equal(t, "category", violations[3].Field)
	assert.Equal(t, "title", violations[4].Field)
	assert.Contains(t, violations[2].String(), "record 3")
}
