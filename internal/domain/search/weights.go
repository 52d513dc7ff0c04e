// Package search holds the retrieval domain model: adaptive field
// weights, validated requests, hard filters, and scored results.
package search

import (
	"github.com/kailas-cloud/vouchex/internal/domain/query"
	"github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

// CombinedFloor is the minimum weight the combined field keeps under any
// intent, so the holistic signal is never drowned out by a single facet.
const CombinedFloor = 0.2

// Weights distributes scoring mass across the embedded facet fields.
// A valid Weights always sums to 1.
type Weights struct {
	Content  float64
	Location float64
	Service  float64
	Target   float64
	Combined float64
}

// BaseWeights is the neutral distribution used when the query carries no
// dominant signal.
func BaseWeights() Weights {
	return Weights{Content: 0.3, Location: 0.2, Service: 0.2, Target: 0.1, Combined: 0.2}
}

// ForComponents derives field weights from parsed query components. The
// facet matching the strongest signal is pulled toward 0.4 while the
// combined field keeps at least CombinedFloor.
func ForComponents(c query.Components) Weights {
	switch {
	case c.HasLocation():
		return Weights{Content: 0.2, Location: 0.4, Service: 0.1, Target: 0.1, Combined: 0.2}
	case c.Intent != query.IntentGeneral && c.IntentConfidence >= 0.3:
		return Weights{Content: 0.2, Location: 0.1, Service: 0.4, Target: 0.1, Combined: 0.2}
	case c.TargetSignal != "":
		return Weights{Content: 0.2, Location: 0.1, Service: 0.1, Target: 0.4, Combined: 0.2}
	default:
		return BaseWeights()
	}
}

// Get returns the weight for a voucher embedding field.
func (w Weights) Get(f voucher.Field) float64 {
	switch f {
	case voucher.FieldContent:
		return w.Content
	case voucher.FieldLocation:
		return w.Location
	case voucher.FieldService:
		return w.Service
	case voucher.FieldTarget:
		return w.Target
	case voucher.FieldCombined:
		return w.Combined
	default:
		return 0
	}
}

// Sum returns the total mass, 1 for any distribution produced here.
func (w Weights) Sum() float64 {
	return w.Content + w.Location + w.Service + w.Target + w.Combined
}

// DominantField returns the facet field with the highest weight,
// excluding combined. Ties resolve in canonical field order.
func (w Weights) DominantField() voucher.Field {
	best := voucher.FieldContent
	bestW := w.Content
	for _, f := range []voucher.Field{voucher.FieldLocation, voucher.FieldService, voucher.FieldTarget} {
		if v := w.Get(f); v > bestW {
			best, bestW = f, v
		}
	}
	return best
}
