package voucher

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain/facet"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testVoucher(t *testing.T) domvoucher.Voucher {
	t.Helper()
	return domvoucher.Voucher{
		ID:        "abc123def4567890",
		Name:      "Buffet hải sản cao cấp",
		RawText:   "Buffet hải sản tại Hải Phòng cho gia đình",
		Merchant:  "Golden Lotus",
		Price:     550_000,
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Facets: facet.Facets{
			Location:       "Hải Phòng",
			ServiceType:    "Restaurant",
			TargetAudience: "Family",
			Keywords:       []string{"buffet", "hải sản"},
			PriceBracket:   facet.BracketMidRange,
		},
		Region:  "North",
		Vectors: domvoucher.FieldVectors{Content: testVector(8), Combined: testVector(8)},
	}
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return vec
}
