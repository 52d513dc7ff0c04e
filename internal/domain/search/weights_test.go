package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/vouchex/internal/domain/query"
	"github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

func assertSumsToOne(t *testing.T, w Weights) {
	t.Helper()
	if diff := math.Abs(w.Sum() - 1); diff > 1e-6 {
		t.Fatalf("weights sum to %v, want 1 (%+v)", w.Sum(), w)
	}
}

func TestBaseWeights(t *testing.T) {
	w := BaseWeights()
	assertSumsToOne(t, w)
	if w.Content != 0.3 || w.Combined != 0.2 {
		t.Errorf("unexpected base weights: %+v", w)
	}
}

func TestForComponents_AllBranchesSumToOne(t *testing.T) {
	cases := []query.Components{
		{},
		{Location: "Hải Phòng"},
		{Intent: query.IntentRestaurant, IntentConfidence: 0.5},
		{TargetSignal: "family"},
		{Location: "Hà Nội", Intent: query.IntentHotel, IntentConfidence: 0.8, TargetSignal: "couple"},
	}
	for _, c := range cases {
		assertSumsToOne(t, ForComponents(c))
	}
}

func TestForComponents_LocationDominates(t *testing.T) {
	w := ForComponents(query.Components{Location: "Đà Nẵng", Intent: query.IntentRestaurant, IntentConfidence: 0.9})
	if w.Location != 0.4 {
		t.Errorf("Location weight = %v, want 0.4", w.Location)
	}
	if w.DominantField() != voucher.FieldLocation {
		t.Errorf("DominantField = %v, want location", w.DominantField())
	}
}

func TestForComponents_ServiceIntent(t *testing.T) {
	w := ForComponents(query.Components{Intent: query.IntentBeauty, IntentConfidence: 0.4})
	if w.Service != 0.4 {
		t.Errorf("Service weight = %v, want 0.4", w.Service)
	}
	if w.DominantField() != voucher.FieldService {
		t.Errorf("DominantField = %v, want service", w.DominantField())
	}
}

func TestForComponents_WeakIntentFallsBack(t *testing.T) {
	w := ForComponents(query.Components{Intent: query.IntentRestaurant, IntentConfidence: 0.1})
	if w != BaseWeights() {
		t.Errorf("weak intent should yield base weights, got %+v", w)
	}
}

func TestForComponents_TargetSignal(t *testing.T) {
	w := ForComponents(query.Components{TargetSignal: "family"})
	if w.Target != 0.4 {
		t.Errorf("Target weight = %v, want 0.4", w.Target)
	}
}

func TestCombinedFloorHeld(t *testing.T) {
	cases := []query.Components{
		{},
		{Location: "Huế"},
		{Intent: query.IntentKids, IntentConfidence: 1},
		{TargetSignal: "business"},
	}
	for _, c := range cases {
		if w := ForComponents(c); w.Combined < CombinedFloor {
			t.Errorf("combined weight %v below floor for %+v", w.Combined, c)
		}
	}
}

func TestDominantField_Base(t *testing.T) {
	if f := BaseWeights().DominantField(); f != voucher.FieldContent {
		t.Errorf("DominantField = %v, want content", f)
	}
}
