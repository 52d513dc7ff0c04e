// Package search fetches scored voucher candidates from the FT index:
// oversampled KNN on the combined vector field plus a BM25 lexical pass.
package search

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
	voucherrepo "github.com/kailas-cloud/vouchex/internal/repository/voucher"
)

// Candidate is a raw retrieval hit before fusion scoring. It carries every
// facet vector so per-field similarity is computed in-process.
type Candidate struct {
	ID             string
	Name           string
	Content        string
	Location       string
	Region         string
	ServiceType    string
	TargetAudience string
	PriceBracket   string
	Merchant       string
	Price          int64
	Vectors        domvoucher.FieldVectors
}

// LexicalHit pairs a BM25 candidate with its raw score, so text-only
// matches can join the fusion pool even when KNN misses them.
type LexicalHit struct {
	Candidate Candidate
	Score     float64
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Repo implements candidate retrieval for the adaptive engine.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

var candidateFields = []string{
	"name", "content", "location", "region", "service_type",
	"target_audience", "price_bracket", "merchant", "price",
	voucherrepo.FieldVecContent, voucherrepo.FieldVecLocation,
	voucherrepo.FieldVecService, voucherrepo.FieldVecTarget,
	voucherrepo.FieldVecCombined,
}

var knnReturnFields = append(append([]string{}, candidateFields...), "__vector_score")

// Candidates fetches the k nearest vouchers to the query vector on the
// combined field, optionally pre-filtered by tag filters.
func (r *Repo) Candidates(
	ctx context.Context, vector []float32, k int, filters []db.TagFilter,
) ([]Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    voucherrepo.IndexName(),
		VectorField:  voucherrepo.FieldVecCombined,
		Vector:       vector,
		K:            k,
		Filters:      filters,
		ReturnFields: knnReturnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: knn: %w", domain.ErrStoreQuery, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, parseCandidate(entry))
	}
	return out, nil
}

// LexicalHits runs a BM25 pass over the weighted TEXT fields and returns
// full candidates with their raw scores. An empty slice is a valid outcome
// for queries with no textual overlap.
func (r *Repo) LexicalHits(
	ctx context.Context, query string, topK int, filters []db.TagFilter,
) ([]LexicalHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	q := &db.TextQuery{
		IndexName:    voucherrepo.IndexName(),
		Query:        query,
		Filters:      filters,
		TopK:         topK,
		ReturnFields: candidateFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: bm25: %w", domain.ErrStoreQuery, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]LexicalHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, LexicalHit{
			Candidate: parseCandidate(entry),
			Score:     entry.Score,
		})
	}
	return hits, nil
}

// Browse lists vouchers matching only the tag filters, newest first. It
// serves empty-query requests, where there is nothing to embed or match.
func (r *Repo) Browse(
	ctx context.Context, topK int, filters []db.TagFilter,
) ([]Candidate, error) {
	q := &db.ListQuery{
		IndexName:    voucherrepo.IndexName(),
		Filters:      filters,
		TopK:         topK,
		SortBy:       voucherrepo.FieldCreatedAt,
		SortDesc:     true,
		ReturnFields: candidateFields,
	}

	sr, err := r.store.SearchList(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrStoreQuery, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, parseCandidate(entry))
	}
	return out, nil
}

func parseCandidate(entry db.SearchEntry) Candidate {
	f := entry.Fields
	price, _ := strconv.ParseInt(f["price"], 10, 64)
	return Candidate{
		ID:             trimKey(entry.Key),
		Name:           f["name"],
		Content:        f["content"],
		Location:       f["location"],
		Region:         f["region"],
		ServiceType:    f["service_type"],
		TargetAudience: f["target_audience"],
		PriceBracket:   f["price_bracket"],
		Merchant:       f["merchant"],
		Price:          price,
		Vectors: domvoucher.FieldVectors{
			Content:  bytesToVector(f[voucherrepo.FieldVecContent]),
			Location: bytesToVector(f[voucherrepo.FieldVecLocation]),
			Service:  bytesToVector(f[voucherrepo.FieldVecService]),
			Target:   bytesToVector(f[voucherrepo.FieldVecTarget]),
			Combined: bytesToVector(f[voucherrepo.FieldVecCombined]),
		},
	}
}

func trimKey(key string) string {
	return strings.TrimPrefix(key, voucherrepo.KeyPrefix())
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
