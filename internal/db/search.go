package db

// TagFilter is an exact-match pre-filter over a TAG field. Multiple
// filters AND together.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	Filters      []TagFilter
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Filters      []TagFilter
	TopK         int
	ReturnFields []string
}

// ListQuery lists index documents matching only tag filters, without a
// text or vector component. SortBy must name a SORTABLE schema field.
type ListQuery struct {
	IndexName    string
	Filters      []TagFilter
	TopK         int
	SortBy       string
	SortDesc     bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
