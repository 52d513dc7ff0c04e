package index

import (
	"context"

	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

// VoucherStore persists voucher documents.
type VoucherStore interface {
	Upsert(ctx context.Context, v *domvoucher.Voucher) (created bool, err error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domvoucher.Voucher, error)
}
