// Package voucher holds the voucher document aggregate: the unit of
// retrieval carrying facets, per-facet embeddings, and raw text.
package voucher

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/kailas-cloud/vouchex/internal/domain/facet"
)

// Field names the embedded facets of a voucher. Combined is the weighted
// renormalized sum of the other four.
type Field string

// Embedding fields.
const (
	FieldContent  Field = "content"
	FieldLocation Field = "location"
	FieldService  Field = "service"
	FieldTarget   Field = "target"
	FieldCombined Field = "combined"
)

// Fields lists all embedding fields in canonical order.
var Fields = []Field{FieldContent, FieldLocation, FieldService, FieldTarget, FieldCombined}

// FieldVectors carries one L2-normalized embedding per field.
type FieldVectors struct {
	Content  []float32
	Location []float32
	Service  []float32
	Target   []float32
	Combined []float32
}

// Get returns the vector for a field, nil for unknown fields.
func (v FieldVectors) Get(f Field) []float32 {
	switch f {
	case FieldContent:
		return v.Content
	case FieldLocation:
		return v.Location
	case FieldService:
		return v.Service
	case FieldTarget:
		return v.Target
	case FieldCombined:
		return v.Combined
	default:
		return nil
	}
}

// Record is a raw voucher source record from the ingestion pipeline.
// Missing fields default to empty string / zero.
type Record struct {
	Name              string
	Description       string
	UsageInstructions string
	TermsOfUse        string
	Tags              string
	Location          string
	Price             int64
	Unit              string
	Merchant          string
}

// RawText concatenates the descriptive fields into the text used for the
// content embedding and lexical search.
func (r Record) RawText() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{r.Description, r.UsageInstructions, r.TermsOfUse, r.Tags} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Voucher is the indexed document. Immutable once built; re-ingestion
// replaces the whole document under the same deterministic id.
type Voucher struct {
	ID        string
	Name      string
	RawText   string
	Merchant  string
	Price     int64
	CreatedAt time.Time
	Facets    facet.Facets
	// Region is resolved from the location facet against the gazetteer;
	// empty when the location is unknown.
	Region  string
	Vectors FieldVectors
}

// DeterministicID derives a stable opaque id from name and merchant, so
// repeated ingestion of the same record is idempotent.
func DeterministicID(name, merchant string) string {
	h := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(merchant))))
	return hex.EncodeToString(h[:])[:16]
}

// FromRecord builds the voucher skeleton (id, text, facets) from a source
// record. Embeddings are attached by the indexer afterwards.
func FromRecord(rec Record, now time.Time) Voucher {
	raw := rec.RawText()
	text := raw
	if rec.Location != "" {
		// Explicit source location participates in facet extraction.
		text = rec.Location + "\n" + raw
	}
	return Voucher{
		ID:        DeterministicID(rec.Name, rec.Merchant),
		Name:      rec.Name,
		RawText:   raw,
		Merchant:  rec.Merchant,
		Price:     rec.Price,
		CreatedAt: now,
		Facets:    facet.Extract(rec.Name, text, rec.Price),
	}
}
