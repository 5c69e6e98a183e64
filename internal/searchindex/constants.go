package searchindex

const (
	// DefaultVariable is the global the generator binds the index to
	DefaultVariable = "documenterSearchIndex"

	// MaxKeywords caps ExtractKeywords output
	MaxKeywords = 10

	// CharsPerToken is the approximation for token estimation
	CharsPerToken = 4

	// IndexSchemaVersion increments when the full-text document layout changes
	// v1: records only, v2: symbol/keywords/breadcrumb enrichment
	IndexSchemaVersion = 2
)
