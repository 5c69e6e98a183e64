package searchindex

import (
	"strings"
	"unicode"
)

// Symbol is the code symbol a type/method/function record documents
type Symbol struct {
	Module    string   `json:"module,omitempty"`    // "GeometryExperiments", "Base"
	Name      string   `json:"name"`                // "projection"
	Signature string   `json:"signature,omitempty"` // "Tuple{Any, Any}" for method records
	Arguments []string `json:"arguments,omitempty"` // ["Any", "Any"]
}

// Qualified returns Module.Name
func (s Symbol) Qualified() string {
	if s.Module == "" {
		return s.Name
	}
	return s.Module + "." + s.Name
}

// Anchor returns the fragment after '#' in a location, or "" if there is none
// Example: "#GeometryExperiments.Ellipsoid" -> "GeometryExperiments.Ellipsoid"
func Anchor(location string) string {
	if i := strings.IndexByte(location, '#'); i >= 0 {
		return location[i+1:]
	}
	return ""
}

// ParseSymbol extracts the symbol documented by a record. It returns false for
// navigational records.
// Example: "#GeometryExperiments.angle-Tuple{SVector, SVector}" ->
// {GeometryExperiments angle Tuple{SVector, SVector} [SVector SVector]}
func ParseSymbol(r SearchRecord) (Symbol, bool) {
	if !r.Category.IsSymbol() {
		return Symbol{}, false
	}

	anchor := Anchor(r.Location)
	qualified := r.Title
	signature := ""

	switch {
	case anchor != "" && qualified != "" && strings.HasPrefix(anchor, qualified):
		signature = strings.TrimPrefix(anchor[len(qualified):], "-")
	case anchor != "":
		// Title missing or inconsistent: the generator separates name and signature with "-Tuple{"
		if i := strings.Index(anchor, "-Tuple{"); i >= 0 {
			qualified, signature = anchor[:i], anchor[i+1:]
		} else if qualified == "" {
			qualified = anchor
		}
	}
	if qualified == "" {
		return Symbol{}, false
	}

	sym := Symbol{Name: qualified, Signature: signature}
	if i := strings.LastIndexByte(qualified, '.'); i > 0 && i < len(qualified)-1 {
		sym.Module, sym.Name = qualified[:i], qualified[i+1:]
	}
	sym.Arguments = SplitSignature(signature)
	return sym, true
}

// SplitSignature splits "Tuple{A, B{C, D}}" into its top-level argument types
func SplitSignature(signature string) []string {
	inner := strings.TrimPrefix(signature, "Tuple{")
	if inner == signature || !strings.HasSuffix(inner, "}") {
		return nil
	}
	inner = inner[:len(inner)-1]
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(inner[start:]))
}

// Breadcrumb builds "Page > Title", collapsing the two when they coincide
func Breadcrumb(r SearchRecord) string {
	switch {
	case r.Page == "":
		return r.Title
	case r.Title == "" || r.Title == r.Page:
		return r.Page
	default:
		return r.Page + " > " + r.Title
	}
}

// Summary returns the first paragraph of a docstring with the generator's
// trailing blank lines removed
func Summary(text string) string {
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			return para
		}
	}
	return ""
}

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "its": true, "into": true, "not": true,
}

// ExtractKeywords extracts key terms from title and the start of the text,
// in first-seen order
func ExtractKeywords(title, text string) []string {
	words := strings.Fields(strings.ToLower(strings.NewReplacer(".", " ", "_", " ").Replace(title)))

	preview := text
	if len(preview) > 200 {
		preview = preview[:200]
	}
	words = append(words, strings.Fields(strings.ToLower(preview))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, MaxKeywords)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == MaxKeywords {
			break
		}
	}

	return keywords
}
