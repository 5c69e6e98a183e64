package searchindex

import (
	"fmt"
	"strings"
)

// Violation describes a record that breaks a table invariant
type Violation struct {
	Record  int    `json:"record"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("record %d: %s: %s", v.Record, v.Field, v.Message)
}

// Validate checks every record and returns all violations found.
// The root page legitimately has an empty location, so empty locations
// are only reported for symbol records.
func Validate(t *Table) []Violation {
	var violations []Violation
	add := func(i int, field, format string, args ...interface{}) {
		violations = append(violations, Violation{Record: i, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for i, r := range t.Records {
		if !r.Category.Valid() {
			add(i, "category", "unknown category %q", r.Category)
			continue
		}
		if r.Title == "" {
			add(i, "title", "empty title")
		}
		if !r.Category.IsSymbol() {
			continue
		}
		if r.Location == "" {
			add(i, "location", "symbol record without location")
			continue
		}
		anchor := Anchor(r.Location)
		if anchor == "" {
			add(i, "location", "symbol location %q has no anchor", r.Location)
			continue
		}
		if r.Title != "" && !strings.HasPrefix(anchor, r.Title) {
			add(i, "location", "anchor %q does not match title %q", anchor, r.Title)
		}
	}

	return violations
}
