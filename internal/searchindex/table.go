package searchindex

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.Records)
}

// ByCategory returns the records of category c in source order
func (t *Table) ByCategory(c Category) []SearchRecord {
	var out []SearchRecord
	for _, r := range t.Records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// ByTitle returns every record whose title is exactly title.
// Documenter emits one record per method, so a title may repeat.
func (t *Table) ByTitle(title string) []SearchRecord {
	var out []SearchRecord
	for _, r := range t.Records {
		if r.Title == title {
			out = append(out, r)
		}
	}
	return out
}

// ByLocation returns the first record pointing at location
func (t *Table) ByLocation(location string) (SearchRecord, bool) {
	for _, r := range t.Records {
		if r.Location == location {
			return r, true
		}
	}
	return SearchRecord{}, false
}

// PageSummary aggregates the records belonging to one page
type PageSummary struct {
	Name       string           `json:"name"`
	Records    int              `json:"records"`
	Categories map[Category]int `json:"categories"`
}

// Pages returns the distinct pages in first-seen order
func (t *Table) Pages() []PageSummary {
	var pages []PageSummary
	positions := make(map[string]int)
	for _, r := range t.Records {
		i, ok := positions[r.Page]
		if !ok {
			i = len(pages)
			positions[r.Page] = i
			pages = append(pages, PageSummary{Name: r.Page, Categories: make(map[Category]int)})
		}
		pages[i].Records++
		pages[i].Categories[r.Category]++
	}
	return pages
}

// Stats counts records per category
func (t *Table) Stats() map[Category]int {
	stats := make(map[Category]int, len(Categories))
	for _, r := range t.Records {
		stats[r.Category]++
	}
	return stats
}
