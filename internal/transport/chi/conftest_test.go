package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
	"github.com/kailas-cloud/vouchex/internal/domain/geo"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
	answeruc "github.com/kailas-cloud/vouchex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/vouchex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/vouchex/internal/usecase/index"
	searchrepo "github.com/kailas-cloud/vouchex/internal/repository/search"
	searchuc "github.com/kailas-cloud/vouchex/internal/usecase/search"
)

// --- Mocks ---

type mockVoucherStore struct {
	upsertFn func(ctx context.Context, v *domvoucher.Voucher) (bool, error)
	deleteFn func(ctx context.Context, id string) error
	getFn    func(ctx context.Context, id string) (domvoucher.Voucher, error)
}

func (m *mockVoucherStore) Upsert(ctx context.Context, v *domvoucher.Voucher) (bool, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, v)
	}
	return true, nil
}

func (m *mockVoucherStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockVoucherStore) Get(ctx context.Context, id string) (domvoucher.Voucher, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domvoucher.Voucher{}, domain.ErrVoucherNotFound
}

type mockCandidateSource struct {
	candidates []searchrepo.Candidate
	candErr    error
	lexHits    []searchrepo.LexicalHit
	browse     []searchrepo.Candidate
}

func (m *mockCandidateSource) Candidates(
	_ context.Context, _ []float32, _ int, _ []db.TagFilter,
) ([]searchrepo.Candidate, error) {
	return m.candidates, m.candErr
}

func (m *mockCandidateSource) LexicalHits(
	_ context.Context, _ string, _ int, _ []db.TagFilter,
) ([]searchrepo.LexicalHit, error) {
	return m.lexHits, nil
}

func (m *mockCandidateSource) Browse(
	_ context.Context, _ int, _ []db.TagFilter,
) ([]searchrepo.Candidate, error) {
	return m.browse, nil
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockComposer struct {
	text string
	err  error
}

func (m *mockComposer) Compose(
	_ context.Context, _ string, _ []domsearch.Result,
) (string, error) {
	return m.text, m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Fixture ---

type fixture struct {
	store    *mockVoucherStore
	source   *mockCandidateSource
	embedder *mockEmbedder
	composer *mockComposer
	pinger   *mockPinger
}

// newTestServer assembles a Server over mocks. composer nil disables answers.
func newTestServer(t *testing.T, fx *fixture, withComposer bool) http.Handler {
	t.Helper()
	gaz := geo.NewGazetteer()

	indexSvc := indexuc.New(fx.store, fx.embedder, gaz)
	searchSvc := searchuc.New(fx.source, fx.embedder, gaz)

	var composer answeruc.Composer
	if withComposer {
		composer = fx.composer
	}
	answerSvc := answeruc.New(searchSvc, composer)
	healthSvc := healthuc.New(fx.pinger, nil)

	return NewServer(indexSvc, searchSvc, answerSvc, healthSvc, zap.NewNop()).Routes()
}

func defaultFixture() *fixture {
	return &fixture{
		store:    &mockVoucherStore{},
		source:   &mockCandidateSource{},
		embedder: &mockEmbedder{vec: []float32{1, 0, 0, 0}},
		composer: &mockComposer{text: "Gợi ý cho bạn."},
		pinger:   &mockPinger{},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func testCandidate(id string) searchrepo.Candidate {
	vec := []float32{1, 0, 0, 0}
	return searchrepo.Candidate{
		ID:       id,
		Name:     "Buffet hải sản",
		Content:  "giảm 30% buffet hải sản",
		Location: "Hải Phòng",
		Region:   "Miền Bắc",
		Vectors: domvoucher.FieldVectors{
			Content: vec, Location: vec, Service: vec, Target: vec, Combined: vec,
		},
	}
}
