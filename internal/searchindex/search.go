package searchindex

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchMode selects how a query is matched against records
type MatchMode string

const (
	// MatchTokens requires every whitespace-separated query token to appear (AND)
	MatchTokens MatchMode = "tokens"
	// MatchSubstring matches the whole query as one substring
	MatchSubstring MatchMode = "substring"
)

const (
	titleWeight = 3.0
	textWeight  = 1.0
	exactBonus  = 5.0
)

// SearchOptions tunes Search
type SearchOptions struct {
	Limit      int        // 0 means no limit
	Categories []Category // empty means all categories
	Mode       MatchMode  // defaults to MatchTokens
}

// Result is one matched record
type Result struct {
	Position int          `json:"position"` // index in the table
	Record   SearchRecord `json:"record"`
	Score    float64      `json:"score"`
}

// Search matches query against record titles and texts, ignoring case and
// diacritics. Title matches outrank text matches; equal scores keep source order.
func Search(t *Table, query string, opts SearchOptions) []Result {
	folded := strings.TrimSpace(Fold(query))
	var needles []string
	if opts.Mode == MatchSubstring {
		if folded != "" {
			needles = []string{folded}
		}
	} else {
		needles = strings.Fields(folded)
	}
	if len(needles) == 0 {
		return []Result{}
	}

	allowed := make(map[Category]bool, len(opts.Categories))
	for _, c := range opts.Categories {
		allowed[c] = true
	}

	results := []Result{}
	for i, r := range t.Records {
		if len(allowed) > 0 && !allowed[r.Category] {
			continue
		}
		title := Fold(r.Title)
		text := Fold(r.Text)

		score := 0.0
		matched := true
		for _, needle := range needles {
			inTitle := strings.Contains(title, needle)
			inText := strings.Contains(text, needle)
			if !inTitle && !inText {
				matched = false
				break
			}
			if inTitle {
				score += titleWeight
			}
			if inText {
				score += textWeight
			}
		}
		if !matched {
			continue
		}
		if title == folded || bareName(title) == folded {
			score += exactBonus
		}
		results = append(results, Result{Position: i, Record: r, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// Fold lower-cases s and strips combining marks so that "Bézier" and
// "bezier" compare equal
func Fold(s string) string {
	// transformers carry state, so build a fresh chain per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// bareName drops the module qualifier: "geometryexperiments.ellipsoid" -> "ellipsoid"
func bareName(title string) string {
	if i := strings.LastIndexByte(title, '.'); i >= 0 && i < len(title)-1 {
		return title[i+1:]
	}
	return title
}
