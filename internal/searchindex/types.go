package searchindex

import "fmt"

// Category tags what a record documents
type Category string

const (
	CategoryPage     Category = "page"
	CategorySection  Category = "section"
	CategoryType     Category = "type"
	CategoryMethod   Category = "method"
	CategoryFunction Category = "function"
)

// Categories lists every category in the order the generator tends to emit them
var Categories = []Category{
	CategoryPage,
	CategorySection,
	CategoryType,
	CategoryMethod,
	CategoryFunction,
}

// ParseCategory converts a raw category string, rejecting anything outside the enumeration
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryPage, CategorySection, CategoryType, CategoryMethod, CategoryFunction:
		return true
	}
	return false
}

// IsNavigational reports whether records of this category point at pages or headings
func (c Category) IsNavigational() bool {
	return c == CategoryPage || c == CategorySection
}

// IsSymbol reports whether records of this category document a code symbol
func (c Category) IsSymbol() bool {
	return c == CategoryType || c == CategoryMethod || c == CategoryFunction
}

// SearchRecord is one entry of the documentation search index.
// Field order matches the generator's output.
type SearchRecord struct {
	Location string   `json:"location"` // page-relative anchor, "" for the root page
	Page     string   `json:"page"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Table is a loaded search index: the records in source order plus the
// name of the variable they were assigned to.
type Table struct {
	Variable string
	Records  []SearchRecord
}

// NewTable creates a table bound to the default generator variable
func NewTable(records []SearchRecord) *Table {
	return &Table{Variable: DefaultVariable, Records: records}
}
