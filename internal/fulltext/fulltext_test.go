package fulltext_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsearch/documenter-mcp/internal/fulltext"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

func loadTable(t *testing.T) *searchindex.Table {
	t.Helper()
	table, err := searchindex.Load(filepath.Join("..", "searchindex", "testdata", "search_index.js"))
	require.NoError(t, err)
	return table
}

func TestNewDocument(t *testing.T) {
	record := searchindex.SearchRecord{
		Location: "#GeometryExperiments.projection-Tuple{Any, Any}",
		Page:     "Home",
		Title:    "GeometryExperiments.projection",
		Text:     "projection(object, x) -> x′\n\nProject x onto object.",
		Category: searchindex.CategoryMethod,
	}

	doc := fulltext.NewDocument(27, record)

	assert.Equal(t, 27, doc.Position)
	assert.Equal(t, "method", doc.Category)
	assert.Equal(t, "projection", doc.Symbol)
	assert.Equal(t, "GeometryExperiments", doc.Module)
	assert.Equal(t, "Tuple{Any, Any}", doc.Signature)
	assert.Equal(t, "Home > GeometryExperiments.projection", doc.Breadcrumb)
	assert.Contains(t, doc.Keywords, "projection")
	assert.Equal(t, "rec_00027", fulltext.DocumentID(27))
}

func TestBuildInMemoryAndSearch(t *testing.T) {
	table := loadTable(t)
	index, err := fulltext.BuildInMemory(table)
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(table.Len()), count)

	req, err := fulltext.NewRequest("Ellipsoid", "", 5)
	require.NoError(t, err)
	result, err := index.Search(req)
	require.NoError(t, err)

	hits := fulltext.HitsFromResult(result)
	require.NotEmpty(t, hits)
	assert.Equal(t, table.Records[9], hits[0].Record, "stored fields rebuild the original record")
	assert.Equal(t, 9, hits[0].Position)
	assert.Equal(t, "Ellipsoid", hits[0].Symbol)
	assert.Equal(t, "Home > GeometryExperiments.Ellipsoid", hits[0].Breadcrumb)
}

func TestSearchCategoryFilter(t *testing.T) {
	index, err := fulltext.BuildInMemory(loadTable(t))
	require.NoError(t, err)
	defer index.Close()

	req, err := fulltext.NewRequest("mesh", searchindex.CategoryType, 20)
	require.NoError(t, err)
	result, err := index.Search(req)
	require.NoError(t, err)

	hits := fulltext.HitsFromResult(result)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		assert.Equal(t, searchindex.CategoryType, hit.Record.Category, hit.Record.Title)
	}
}

func TestIndexTableReportsProgress(t *testing.T) {
	table := loadTable(t)
	index, err := fulltext.CreateInMemory()
	require.NoError(t, err)
	defer index.Close()

	var calls [][2]int
	err = fulltext.IndexTable(index, table, 10, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{10, 29}, {20, 29}, {29, 29}}, calls)
}

func TestCreateOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	index, err := fulltext.Create(path)
	require.NoError(t, err)
	require.NoError(t, fulltext.IndexTable(index, loadTable(t), 0, nil))
	require.NoError(t, index.Close())

	// creating over an existing index fails
	_, err = fulltext.Create(path)
	assert.Error(t, err)
}

func TestNewRequestRejectsBadInput(t *testing.T) {
	_, err := fulltext.NewRequest("  ", "", 10)
	assert.Error(t, err)

	_, err = fulltext.NewRequest("mesh", searchindex.Category("macro"), 10)
	assert.ErrorIs(t, err, searchindex.ErrUnknownCategory)
}
