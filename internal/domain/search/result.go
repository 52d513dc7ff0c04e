package search

import "github.com/kailas-cloud/vouchex/internal/domain/voucher"

// ExcerptLength caps the raw text excerpt returned with each hit.
const ExcerptLength = 200

// Result is a single scored search hit. Scores are comparable within one
// query's result set only.
type Result struct {
	ID           string
	Name         string
	Excerpt      string
	Score        float64
	FacetScores  map[voucher.Field]float64
	Lexical      float64
	Location     string
	Region       string
	ServiceType  string
	PriceBracket string
	GeoFactor    float64
}

// Excerpt truncates raw text to the display length on a rune boundary.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= ExcerptLength {
		return text
	}
	return string(runes[:ExcerptLength]) + "…"
}
