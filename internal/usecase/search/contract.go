package search

import (
	"context"

	"github.com/kailas-cloud/vouchex/internal/db"
	searchrepo "github.com/kailas-cloud/vouchex/internal/repository/search"
)

// CandidateSource defines the retrieval contract for the adaptive engine.
type CandidateSource interface {
	Candidates(
		ctx context.Context, vector []float32, k int, filters []db.TagFilter,
	) ([]searchrepo.Candidate, error)

	LexicalHits(
		ctx context.Context, query string, topK int, filters []db.TagFilter,
	) ([]searchrepo.LexicalHit, error)

	Browse(
		ctx context.Context, topK int, filters []db.TagFilter,
	) ([]searchrepo.Candidate, error)
}
