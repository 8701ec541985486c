package db

// TextTerm is one full-text term. Multi-word terms match as a phrase, or
// word by word when Fuzzy is set.
type TextTerm struct {
	Text  string
	Fuzzy bool
}

// TextQuery is the input for a scored full-text search over one TEXT field.
type TextQuery struct {
	IndexName string
	Field     string
	Terms     []TextTerm
	// MatchAll requires every term (AND); otherwise any term matches (OR).
	MatchAll bool
	TopK     int
}

// TagQuery selects documents whose TAG field holds any of the values.
type TagQuery struct {
	IndexName string
	Field     string
	Values    []string
	Offset    int
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key   string
	Score float64
}
