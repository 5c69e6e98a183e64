package fulltext

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field boosts used by NewRequest
var fieldBoosts = map[string]float64{
	"symbol":   4.0,
	"title":    3.0,
	"keywords": 2.0,
	"text":     1.0,
}

// NewMapping describes how Documents are indexed: free text is analysed with
// the standard analyzer, identifiers are kept as single keyword terms.
func NewMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	ident := bleve.NewKeywordFieldMapping()
	ident.Analyzer = keyword.Name

	position := bleve.NewNumericFieldMapping()

	unindexed := bleve.NewTextFieldMapping()
	unindexed.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("symbol", text)
	doc.AddFieldMappingsAt("keywords", text)
	doc.AddFieldMappingsAt("location", ident)
	doc.AddFieldMappingsAt("page", ident)
	doc.AddFieldMappingsAt("category", ident)
	doc.AddFieldMappingsAt("module", ident)
	doc.AddFieldMappingsAt("position", position)
	doc.AddFieldMappingsAt("signature", unindexed)
	doc.AddFieldMappingsAt("breadcrumb", unindexed)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}
