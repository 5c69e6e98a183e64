package fulltext

import (
	"fmt"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Document is the bleve representation of one SearchRecord. Position keeps
// the source order so results can be sorted back into it.
type Document struct {
	Location   string   `json:"location"`
	Page       string   `json:"page"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	Position   int      `json:"position"`
	Symbol     string   `json:"symbol,omitempty"` // bare name, the standard analyzer keeps "Module.Name" as one token
	Module     string   `json:"module,omitempty"`
	Signature  string   `json:"signature,omitempty"`
	Breadcrumb string   `json:"breadcrumb"`
	Keywords   []string `json:"keywords,omitempty"`
}

// DocumentID is the bleve ID of the record at position
func DocumentID(position int) string {
	return fmt.Sprintf("rec_%05d", position)
}

// NewDocument enriches a record with its symbol, breadcrumb and keywords
func NewDocument(position int, r searchindex.SearchRecord) Document {
	doc := Document{
		Location:   r.Location,
		Page:       r.Page,
		Title:      r.Title,
		Text:       r.Text,
		Category:   string(r.Category),
		Position:   position,
		Breadcrumb: searchindex.Breadcrumb(r),
		Keywords:   searchindex.ExtractKeywords(r.Title, r.Text),
	}
	if sym, ok := searchindex.ParseSymbol(r); ok {
		doc.Symbol = sym.Name
		doc.Module = sym.Module
		doc.Signature = sym.Signature
	}
	return doc
}
