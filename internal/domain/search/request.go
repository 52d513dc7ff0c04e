package search

import (
	"fmt"

	"github.com/kailas-cloud/vouchex/internal/domain/facet"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100

	// OversampleFactor is how many KNN candidates are fetched per
	// requested result before filtering and re-ranking.
	OversampleFactor = 3
)

// Filters are hard post-filters: a candidate must match every provided
// value to stay eligible, independent of score.
type Filters struct {
	Location     string
	ServiceType  string
	PriceBracket facet.Bracket
}

// IsEmpty reports whether no filter values are set.
func (f Filters) IsEmpty() bool {
	return f.Location == "" && f.ServiceType == "" && f.PriceBracket == ""
}

// Request is a validated search query.
type Request struct {
	query   string
	topK    int
	filters Filters
}

// NewRequest validates and normalizes search parameters. An empty query
// is allowed and is served as a filter-scoped listing, newest first.
func NewRequest(query string, topK int, filters Filters) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{query: query, topK: topK, filters: filters}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// Filters returns the hard post-filters.
func (r *Request) Filters() Filters { return r.filters }

// CandidateK returns the oversampled KNN fetch size.
func (r *Request) CandidateK() int { return r.topK * OversampleFactor }
