package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
	"github.com/kailas-cloud/vouchex/internal/domain/geo"
	"github.com/kailas-cloud/vouchex/internal/domain/query"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
	"github.com/kailas-cloud/vouchex/internal/domain/voucher"
	"github.com/kailas-cloud/vouchex/internal/logger"
	searchrepo "github.com/kailas-cloud/vouchex/internal/repository/search"
)

// --- Mocks ---

type mockSource struct {
	candidates []searchrepo.Candidate
	candErr    error
	lexHits    []searchrepo.LexicalHit
	lexErr     error
	browse     []searchrepo.Candidate
	browseErr  error

	gotVector    []float32
	gotK         int
	gotFilters   []db.TagFilter
	browseCalled bool
}

func (m *mockSource) Candidates(
	_ context.Context, vector []float32, k int, filters []db.TagFilter,
) ([]searchrepo.Candidate, error) {
	m.gotVector = vector
	m.gotK = k
	m.gotFilters = filters
	return m.candidates, m.candErr
}

func (m *mockSource) LexicalHits(
	_ context.Context, _ string, _ int, _ []db.TagFilter,
) ([]searchrepo.LexicalHit, error) {
	return m.lexHits, m.lexErr
}

func (m *mockSource) Browse(
	_ context.Context, k int, filters []db.TagFilter,
) ([]searchrepo.Candidate, error) {
	m.browseCalled = true
	m.gotK = k
	m.gotFilters = filters
	return m.browse, m.browseErr
}

type mockEmbedder struct {
	vec     []float32
	err     error
	gotText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.gotText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

// --- Helpers ---

func newTestService(src *mockSource, emb *mockEmbedder) *Service {
	return New(src, emb, geo.NewGazetteer())
}

// axisCandidate returns a candidate whose facet vectors all point along one
// basis axis, so dot products against axis queries are exactly 0 or 1.
func axisCandidate(id, location, region string, axis int) searchrepo.Candidate {
	vec := make([]float32, 4)
	vec[axis] = 1
	return searchrepo.Candidate{
		ID:       id,
		Name:     "Voucher " + id,
		Content:  "nội dung ưu đãi " + id,
		Location: location,
		Region:   region,
		Vectors: voucher.FieldVectors{
			Content:  vec,
			Location: vec,
			Service:  vec,
			Target:   vec,
			Combined: vec,
		},
	}
}

func mustRequest(t *testing.T, q string, topK int, f domsearch.Filters) domsearch.Request {
	t.Helper()
	req, err := domsearch.NewRequest(q, topK, f)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

// --- Search ---

func TestSearch_RanksBySemanticSimilarity(t *testing.T) {
	src := &mockSource{
		candidates: []searchrepo.Candidate{
			axisCandidate("far", "", "", 1),
			axisCandidate("near", "", "", 0),
		},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi hấp dẫn", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d", len(results))
	}
	if results[0].ID != "near" || results[1].ID != "far" {
		t.Errorf("order = %s, %s", results[0].ID, results[1].ID)
	}
	// All facet vectors align with the query, weights sum to 1, no lexical
	// hits and no geo context: score is exactly the semantic coefficient.
	if math.Abs(results[0].Score-semanticWeight) > 1e-9 {
		t.Errorf("top score = %v, want %v", results[0].Score, semanticWeight)
	}
	if results[1].Score != 0 {
		t.Errorf("orthogonal score = %v, want 0", results[1].Score)
	}
}

func TestSearch_OversamplesCandidates(t *testing.T) {
	src := &mockSource{candidates: []searchrepo.Candidate{axisCandidate("a", "", "", 0)}}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	req := mustRequest(t, "khuyến mãi", 10, domsearch.Filters{})
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.gotK != req.CandidateK() {
		t.Errorf("candidate k = %d, want %d", src.gotK, req.CandidateK())
	}
}

func TestSearch_LexicalNormalizedByBestHit(t *testing.T) {
	src := &mockSource{
		candidates: []searchrepo.Candidate{
			axisCandidate("a", "", "", 0),
			axisCandidate("b", "", "", 0),
		},
		lexHits: []searchrepo.LexicalHit{
			{Candidate: axisCandidate("a", "", "", 0), Score: 4},
			{Candidate: axisCandidate("b", "", "", 0), Score: 2},
		},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byID := map[string]domsearch.Result{}
	for _, r := range results {
		byID[r.ID] = r
	}
	if byID["a"].Lexical != 1.0 {
		t.Errorf("best lexical = %v, want 1.0", byID["a"].Lexical)
	}
	if byID["b"].Lexical != 0.5 {
		t.Errorf("second lexical = %v, want 0.5", byID["b"].Lexical)
	}
	if diff := byID["a"].Score - byID["b"].Score; math.Abs(diff-lexicalWeight*0.5) > 1e-9 {
		t.Errorf("score gap = %v, want %v", diff, lexicalWeight*0.5)
	}
}

func TestSearch_LexicalOnlyHitJoinsPool(t *testing.T) {
	// An exact name match can fall outside the KNN neighborhood entirely.
	// The BM25 hit must still reach the fusion pool and outrank a
	// semantically unrelated vector neighbor.
	src := &mockSource{
		candidates: []searchrepo.Candidate{axisCandidate("unrelated", "", "", 1)},
		lexHits: []searchrepo.LexicalHit{
			{Candidate: axisCandidate("guta", "", "", 1), Score: 100.0},
		},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "Guta Cafe Buy1Get1", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	if results[0].ID != "guta" {
		t.Errorf("top hit = %s, want the text match", results[0].ID)
	}
	if results[0].Lexical != 1.0 {
		t.Errorf("text match lexical = %v, want 1.0", results[0].Lexical)
	}
}

func TestSearch_LexicalHitNotDuplicated(t *testing.T) {
	cand := axisCandidate("a", "", "", 0)
	src := &mockSource{
		candidates: []searchrepo.Candidate{cand},
		lexHits:    []searchrepo.LexicalHit{{Candidate: cand, Score: 2}},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("result count = %d, want 1", len(results))
	}
}

func TestSearch_EmptyQueryBrowses(t *testing.T) {
	src := &mockSource{
		browse: []searchrepo.Candidate{
			axisCandidate("newest", "Hà Nội", "Miền Bắc", 0),
			axisCandidate("older", "Hà Nội", "Miền Bắc", 0),
		},
	}
	emb := &mockEmbedder{err: errors.New("embedder must not be called for empty queries")}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !src.browseCalled {
		t.Fatal("expected the listing path")
	}
	if emb.gotText != "" {
		t.Errorf("embedder called with %q", emb.gotText)
	}
	if len(results) != 2 || results[0].ID != "newest" {
		t.Errorf("results = %+v", results)
	}
	if results[0].Score != 0 || results[0].GeoFactor != 1.0 {
		t.Errorf("listing results must carry neutral scores: %+v", results[0])
	}
}

func TestSearch_EmptyQueryPassesFilters(t *testing.T) {
	src := &mockSource{}
	svc := newTestService(src, &mockEmbedder{})

	filters := domsearch.Filters{ServiceType: "Restaurant"}
	if _, err := svc.Search(context.Background(), mustRequest(t, "  ", 5, filters)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.gotFilters) != 1 || src.gotFilters[0].Field != "service_type" {
		t.Errorf("tag filters = %+v", src.gotFilters)
	}
	if src.gotK != 5 {
		t.Errorf("listing k = %d, want topK", src.gotK)
	}
}

func TestSearch_EmptyQueryBrowseError(t *testing.T) {
	src := &mockSource{browseErr: domain.ErrStoreQuery}
	svc := newTestService(src, &mockEmbedder{})

	_, err := svc.Search(context.Background(), mustRequest(t, "", 10, domsearch.Filters{}))
	if !errors.Is(err, domain.ErrStoreQuery) {
		t.Fatalf("expected store query error, got %v", err)
	}
}

func TestSearch_LocationQueryAddsHintPrefix(t *testing.T) {
	src := &mockSource{}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	_, err := svc.Search(context.Background(), mustRequest(t, "ưu đãi tại Hải Phòng", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Địa điểm khu vực: ưu đãi tại Hải Phòng"
	if emb.gotText != want {
		t.Errorf("embedded text = %q, want %q", emb.gotText, want)
	}
}

func TestSearch_GeoBoosts(t *testing.T) {
	src := &mockSource{
		candidates: []searchrepo.Candidate{
			axisCandidate("exact", "Hải Phòng", "Miền Bắc", 0),
			axisCandidate("region", "Hà Nội", "Miền Bắc", 0),
			axisCandidate("elsewhere", "Đà Nẵng", "Miền Trung", 0),
		},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "ăn hải sản tại Hải Phòng", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	factors := map[string]float64{}
	for _, r := range results {
		factors[r.ID] = r.GeoFactor
	}
	if factors["exact"] != geoExactBoost {
		t.Errorf("same city factor = %v, want %v", factors["exact"], geoExactBoost)
	}
	if factors["region"] != geoRegionBoost {
		t.Errorf("same region factor = %v, want %v", factors["region"], geoRegionBoost)
	}
	if factors["elsewhere"] != 1.0 {
		t.Errorf("unrelated factor = %v, want 1.0", factors["elsewhere"])
	}
	if results[0].ID != "exact" {
		t.Errorf("top hit = %s, want exact-city match", results[0].ID)
	}
}

func TestSearch_FiltersPropagatedAndEnforced(t *testing.T) {
	keep := axisCandidate("keep", "", "", 0)
	keep.ServiceType = "Restaurant"
	drop := axisCandidate("drop", "", "", 0)
	drop.ServiceType = "Spa"

	src := &mockSource{candidates: []searchrepo.Candidate{keep, drop}}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	filters := domsearch.Filters{ServiceType: "Restaurant"}
	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, filters))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.gotFilters) != 1 || src.gotFilters[0].Field != "service_type" {
		t.Errorf("tag filters = %+v", src.gotFilters)
	}
	if len(results) != 1 || results[0].ID != "keep" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	src := &mockSource{
		candidates: []searchrepo.Candidate{
			axisCandidate("a", "", "", 0),
			axisCandidate("b", "", "", 0),
			axisCandidate("c", "", "", 0),
		},
	}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 2, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("result count = %d, want 2", len(results))
	}
}

func TestSearch_EmbedderFailureFailsSearch(t *testing.T) {
	src := &mockSource{candidates: []searchrepo.Candidate{axisCandidate("a", "", "", 0)}}
	emb := &mockEmbedder{err: domain.ErrEmbeddingProvider}
	svc := newTestService(src, emb)

	_, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, domsearch.Filters{}))
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected embedding provider error, got %v", err)
	}
}

func TestSearch_StoreFailurePropagates(t *testing.T) {
	src := &mockSource{candErr: domain.ErrStoreQuery}
	emb := &mockEmbedder{vec: []float32{1, 0, 0, 0}}
	svc := newTestService(src, emb)

	_, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, domsearch.Filters{}))
	if !errors.Is(err, domain.ErrStoreQuery) {
		t.Fatalf("expected store query error, got %v", err)
	}
}

func TestSearch_NoCandidates(t *testing.T) {
	svc := newTestService(&mockSource{}, &mockEmbedder{vec: []float32{1, 0, 0, 0}})

	results, err := svc.Search(context.Background(), mustRequest(t, "khuyến mãi", 10, domsearch.Filters{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results, got %+v", results)
	}
}

func TestSearch_LogsThroughContext(t *testing.T) {
	src := &mockSource{candidates: []searchrepo.Candidate{axisCandidate("a", "", "", 0)}}
	svc := newTestService(src, &mockEmbedder{vec: []float32{1, 0, 0, 0}})

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	if _, err := svc.Search(ctx, mustRequest(t, "khuyến mãi", 10, domsearch.Filters{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("Search executed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["branch"] != "base" {
		t.Errorf("branch field = %v, want base", fields["branch"])
	}
	if fields["results"] != int64(1) {
		t.Errorf("results field = %v, want 1", fields["results"])
	}
}

// --- Explain ---

func TestExplain_LocationQuery(t *testing.T) {
	svc := newTestService(&mockSource{}, &mockEmbedder{})

	e := svc.Explain("ưu đãi tại Hải Phòng")
	if e.Components.Location != "Hải Phòng" {
		t.Errorf("location = %q", e.Components.Location)
	}
	if e.DominantField != voucher.FieldLocation {
		t.Errorf("dominant field = %s", e.DominantField)
	}
	if e.HintPrefix == "" {
		t.Error("expected a hint prefix for a location query")
	}
	if e.GeoContext == nil {
		t.Fatal("expected a geo context")
	}
	if e.GeoContext.Primary.Name != "Hải Phòng" {
		t.Errorf("primary place = %q", e.GeoContext.Primary.Name)
	}
}

func TestExplain_ServiceIntentQuery(t *testing.T) {
	svc := newTestService(&mockSource{}, &mockEmbedder{})

	e := svc.Explain("buffet nhà hàng hải sản")
	if e.Components.Intent != query.IntentRestaurant {
		t.Errorf("intent = %s", e.Components.Intent)
	}
	if e.DominantField != voucher.FieldService {
		t.Errorf("dominant field = %s", e.DominantField)
	}
	if e.GeoContext != nil {
		t.Error("no geo context expected without a location")
	}
}

func TestExplain_NeutralQuery(t *testing.T) {
	svc := newTestService(&mockSource{}, &mockEmbedder{})

	e := svc.Explain("khuyến mãi hấp dẫn")
	if e.DominantField != voucher.FieldContent {
		t.Errorf("dominant field = %s", e.DominantField)
	}
	if e.HintPrefix != "" {
		t.Errorf("hint prefix = %q, want empty", e.HintPrefix)
	}
	if math.Abs(e.Weights.Sum()-1) > 1e-6 {
		t.Errorf("weights sum = %v", e.Weights.Sum())
	}
}
