package voucher

import (
	"github.com/kailas-cloud/vouchex/internal/db"
	"github.com/kailas-cloud/vouchex/internal/domain"
)

// NameTextWeight boosts BM25 hits on the voucher name over body text.
const NameTextWeight = 3

// Vector index algorithms. HNSW is the default; FLAT does brute-force
// exact search and suits small catalogs.
const (
	AlgoHNSW = "hnsw"
	AlgoFlat = "flat"
)

// VectorIndexConfig tunes the vector fields of the voucher index. M and
// EFConstruct only apply to the HNSW algorithm.
type VectorIndexConfig struct {
	Algorithm   string
	M           int
	EFConstruct int
}

// IndexName is the FT index over voucher hashes.
func IndexName() string {
	return domain.KeyPrefix + "vouchers:idx"
}

// KeyPrefix is the hash key prefix for voucher documents.
func KeyPrefix() string {
	return domain.KeyPrefix + "vouchers:"
}

func voucherKey(id string) string {
	return KeyPrefix() + id
}

// buildIndex defines the voucher FT index: weighted TEXT fields for BM25,
// TAG fields for hard filters, a sortable creation timestamp for listings,
// and one vector field per facet.
func buildIndex(vectorDim int, cfg VectorIndexConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName()).
		Prefix(KeyPrefix()).
		TextWeighted(fieldName, NameTextWeight).
		Text(fieldContent).
		Tag(fieldLocation).
		Tag(fieldRegion).
		Tag(fieldService).
		Tag(fieldTarget).
		Tag(fieldBracket).
		Tag(fieldMerchant).
		Numeric(fieldPrice).
		NumericSortable(FieldCreatedAt)

	for _, vf := range []string{
		FieldVecContent, FieldVecLocation, FieldVecService, FieldVecTarget, FieldVecCombined,
	} {
		if cfg.Algorithm == AlgoFlat {
			b = b.VectorFlat(vf, vectorDim, db.DistanceCosine)
		} else {
			b = b.VectorHNSW(vf, vectorDim, db.DistanceCosine, cfg.M, cfg.EFConstruct)
		}
	}

	return b.Build()
}
