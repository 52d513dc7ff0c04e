// Package search is the adaptive retrieval engine: it parses the query,
// picks per-facet weights from the detected signals, fuses vector and
// BM25 scores in-process, and applies geographic boosts.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
	"github.com/kailas-cloud/vouchex/internal/domain/facet"
	"github.com/kailas-cloud/vouchex/internal/domain/geo"
	"github.com/kailas-cloud/vouchex/internal/domain/query"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
	"github.com/kailas-cloud/vouchex/internal/domain/vector"
	"github.com/kailas-cloud/vouchex/internal/domain/voucher"
	"github.com/kailas-cloud/vouchex/internal/logger"
	"github.com/kailas-cloud/vouchex/internal/metrics"
	searchrepo "github.com/kailas-cloud/vouchex/internal/repository/search"
)

// Fusion coefficients. Semantic similarity dominates; the lexical score is
// normalized by the best BM25 hit before it contributes.
const (
	semanticWeight = 3.0
	lexicalWeight  = 2.0
)

// Geographic multipliers applied after fusion.
const (
	geoExactBoost  = 1.8
	geoNearbyScale = 0.5
	geoRegionBoost = 1.3
)

// Service executes adaptive voucher search.
type Service struct {
	source CandidateSource
	embed  domain.Embedder
	parser *query.Parser
	gaz    *geo.Gazetteer
}

// New creates a search service.
func New(source CandidateSource, embed domain.Embedder, gaz *geo.Gazetteer) *Service {
	return &Service{
		source: source,
		embed:  embed,
		parser: query.NewParser(gaz),
		gaz:    gaz,
	}
}

// Search runs the full retrieval pipeline for one request. Query embedding
// failures fail the whole search; there is no lexical-only fallback because
// a silently degraded ranking is worse than an error. Empty queries skip
// the engine entirely and list matching vouchers newest first.
func (s *Service) Search(ctx context.Context, req domsearch.Request) (results []domsearch.Result, err error) {
	comps := s.parser.Parse(req.Query())
	weights := domsearch.ForComponents(comps)

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
		metrics.SearchDuration.WithLabelValues(branchName(weights)).Observe(time.Since(start).Seconds())
	}()

	log := logger.FromContext(ctx)
	filters := tagFilters(req.Filters())

	if strings.TrimSpace(req.Query()) == "" {
		results, err = s.browse(ctx, req, filters)
		return results, err
	}

	qvec, err := s.embedQuery(ctx, req.Query(), weights)
	if err != nil {
		return nil, err
	}

	candidates, err := s.source.Candidates(ctx, qvec, req.CandidateK(), filters)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	hits, err := s.source.LexicalHits(ctx, req.Query(), req.CandidateK(), filters)
	if err != nil {
		return nil, fmt.Errorf("lexical hits: %w", err)
	}

	// Union the BM25 hits into the pool so an exact text match is still
	// rankable when KNN misses it.
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		seen[cand.ID] = true
	}
	lexical := make(map[string]float64, len(hits))
	for _, h := range hits {
		lexical[h.Candidate.ID] = h.Score
		if !seen[h.Candidate.ID] {
			seen[h.Candidate.ID] = true
			candidates = append(candidates, h.Candidate)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var gctx geo.Context
	hasGeo := false
	if comps.HasLocation() {
		gctx, hasGeo = s.gaz.BuildContext(comps.Location)
	}

	results = make([]domsearch.Result, 0, len(candidates))
	maxLex := maxScore(lexical)
	for _, cand := range candidates {
		if !matchesFilters(cand, req.Filters()) {
			continue
		}
		results = append(results, s.score(cand, qvec, weights, lexical, maxLex, gctx, hasGeo))
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > req.TopK() {
		results = results[:req.TopK()]
	}

	log.Debug("Search executed",
		zap.String("branch", branchName(weights)),
		zap.Int("candidates", len(candidates)),
		zap.Int("lexical_hits", len(hits)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// browse handles empty queries: a filter-scoped listing, newest first,
// with neutral scores. Nothing is embedded.
func (s *Service) browse(
	ctx context.Context, req domsearch.Request, filters []db.TagFilter,
) ([]domsearch.Result, error) {
	candidates, err := s.source.Browse(ctx, req.TopK(), filters)
	if err != nil {
		return nil, fmt.Errorf("browse vouchers: %w", err)
	}

	results := make([]domsearch.Result, 0, len(candidates))
	for _, cand := range candidates {
		if !matchesFilters(cand, req.Filters()) {
			continue
		}
		results = append(results, domsearch.Result{
			ID:           cand.ID,
			Name:         cand.Name,
			Excerpt:      domsearch.Excerpt(cand.Content),
			Location:     cand.Location,
			Region:       cand.Region,
			ServiceType:  cand.ServiceType,
			PriceBracket: cand.PriceBracket,
			GeoFactor:    1.0,
		})
	}
	if len(results) > req.TopK() {
		results = results[:req.TopK()]
	}

	logger.FromContext(ctx).Debug("Browse executed", zap.Int("results", len(results)))
	return results, nil
}

// Explanation is the debug view of query analysis: what was detected and
// which retrieval knobs it selected. No search is executed.
type Explanation struct {
	Components    query.Components
	Weights       domsearch.Weights
	DominantField voucher.Field
	HintPrefix    string
	GeoContext    *geo.Context
}

// Explain analyzes a query without running retrieval.
func (s *Service) Explain(queryText string) Explanation {
	comps := s.parser.Parse(queryText)
	weights := domsearch.ForComponents(comps)

	e := Explanation{
		Components:    comps,
		Weights:       weights,
		DominantField: weights.DominantField(),
		HintPrefix:    facet.QueryHintPrefix(string(weights.DominantField())),
	}
	if comps.HasLocation() {
		if gctx, ok := s.gaz.BuildContext(comps.Location); ok {
			e.GeoContext = &gctx
		}
	}
	return e
}

// embedQuery vectorizes the query, prepending the facet hint phrase when a
// non-content facet dominates the chosen weights. The hint nudges the query
// embedding toward the same subspace the facet prompts were embedded in.
func (s *Service) embedQuery(
	ctx context.Context, text string, weights domsearch.Weights,
) ([]float32, error) {
	embedder := s.embed
	if prefix := facet.QueryHintPrefix(string(weights.DominantField())); prefix != "" {
		embedder = domain.NewPrefixEmbedder(s.embed, prefix)
	}

	res, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return vector.Normalize(res.Embedding), nil
}

func (s *Service) score(
	cand searchrepo.Candidate,
	qvec []float32,
	weights domsearch.Weights,
	lexical map[string]float64,
	maxLex float64,
	gctx geo.Context,
	hasGeo bool,
) domsearch.Result {
	facetScores := make(map[voucher.Field]float64, len(voucher.Fields))
	semantic := 0.0
	for _, f := range voucher.Fields {
		v := cand.Vectors.Get(f)
		if v == nil {
			continue
		}
		sim := vector.Dot(qvec, v)
		facetScores[f] = sim
		semantic += weights.Get(f) * sim
	}

	lex := 0.0
	if maxLex > 0 {
		lex = lexical[cand.ID] / maxLex
	}

	geoFactor := 1.0
	if hasGeo {
		geoFactor = geoMultiplier(cand, gctx)
	}

	return domsearch.Result{
		ID:           cand.ID,
		Name:         cand.Name,
		Excerpt:      domsearch.Excerpt(cand.Content),
		Score:        (semanticWeight*semantic + lexicalWeight*lex) * geoFactor,
		FacetScores:  facetScores,
		Lexical:      lex,
		Location:     cand.Location,
		Region:       cand.Region,
		ServiceType:  cand.ServiceType,
		PriceBracket: cand.PriceBracket,
		GeoFactor:    geoFactor,
	}
}

// geoMultiplier boosts candidates by geographic affinity with the query:
// same city strongest, then nearby cities scaled by distance decay, then
// the same region.
func geoMultiplier(cand searchrepo.Candidate, gctx geo.Context) float64 {
	switch {
	case strings.EqualFold(cand.Location, gctx.Primary.Name):
		return geoExactBoost
	case gctx.Relevance[cand.Location] > 0:
		return 1 + gctx.Relevance[cand.Location]*geoNearbyScale
	case cand.Region != "" && strings.EqualFold(cand.Region, gctx.Primary.Region):
		return geoRegionBoost
	default:
		return 1.0
	}
}

// tagFilters maps request filters onto the index's TAG fields. They act as
// Redis-side pre-filters; matchesFilters re-checks them on the parsed hits.
func tagFilters(f domsearch.Filters) []db.TagFilter {
	var out []db.TagFilter
	if f.Location != "" {
		out = append(out, db.TagFilter{Field: "location", Value: f.Location})
	}
	if f.ServiceType != "" {
		out = append(out, db.TagFilter{Field: "service_type", Value: f.ServiceType})
	}
	if f.PriceBracket != "" {
		out = append(out, db.TagFilter{Field: "price_bracket", Value: string(f.PriceBracket)})
	}
	return out
}

func matchesFilters(cand searchrepo.Candidate, f domsearch.Filters) bool {
	if f.Location != "" && !strings.EqualFold(cand.Location, f.Location) {
		return false
	}
	if f.ServiceType != "" && !strings.EqualFold(cand.ServiceType, f.ServiceType) {
		return false
	}
	if f.PriceBracket != "" && !strings.EqualFold(cand.PriceBracket, string(f.PriceBracket)) {
		return false
	}
	return true
}

// branchName labels the chosen weight profile for metrics.
func branchName(w domsearch.Weights) string {
	switch w.DominantField() {
	case voucher.FieldLocation:
		return "location"
	case voucher.FieldService:
		return "service"
	case voucher.FieldTarget:
		return "target"
	default:
		return "base"
	}
}

func maxScore(scores map[string]float64) float64 {
	max := 0.0
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	return max
}
