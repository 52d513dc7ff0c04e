// Package voucher persists voucher documents as Redis hashes indexed by a
// single FT index with per-facet vector fields.
package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

// store is the consumer interface for voucher documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase voucher persistence.
type Repo struct {
	store store
}

// New creates a voucher repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the voucher FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int, cfg VectorIndexConfig) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(vectorDim, cfg)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes the full voucher document, replacing any previous version
// under the same id. Returns true if the document was created.
func (r *Repo) Upsert(ctx context.Context, v *domvoucher.Voucher) (bool, error) {
	key := voucherKey(v.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		// Full replace: drop the old hash so stale fields cannot survive.
		if err := r.store.Del(ctx, key); err != nil {
			return false, fmt.Errorf("del %s: %w", key, err)
		}
	}

	if err := r.store.HSet(ctx, key, buildHashFields(v)); err != nil {
		return false, fmt.Errorf("%w: hset %s: %w", domain.ErrStoreWrite, key, err)
	}
	return !exists, nil
}

// Get returns a voucher by id.
func (r *Repo) Get(ctx context.Context, id string) (domvoucher.Voucher, error) {
	key := voucherKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domvoucher.Voucher{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domvoucher.Voucher{}, domain.ErrVoucherNotFound
	}
	return parseHashFields(id, m), nil
}

// Delete removes a voucher.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := voucherKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrVoucherNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Count returns the number of indexed vouchers.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}
