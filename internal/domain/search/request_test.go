package search

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/vouchex/internal/domain/facet"
)

func TestNewRequest_Defaults(t *testing.T) {
	r, err := NewRequest("buffet hải sản", 0, Filters{})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.CandidateK() != DefaultTopK*OversampleFactor {
		t.Errorf("CandidateK = %d, want %d", r.CandidateK(), DefaultTopK*OversampleFactor)
	}
}

func TestNewRequest_ClampsTopK(t *testing.T) {
	r, err := NewRequest("spa", 10_000, Filters{})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if r.TopK() != MaxTopK {
		t.Errorf("TopK = %d, want %d", r.TopK(), MaxTopK)
	}
}

func TestNewRequest_EmptyQueryAllowed(t *testing.T) {
	if _, err := NewRequest("", 5, Filters{}); err != nil {
		t.Fatalf("empty query must be allowed: %v", err)
	}
}

func TestNewRequest_TooLong(t *testing.T) {
	if _, err := NewRequest(strings.Repeat("a", MaxQueryLength+1), 5, Filters{}); err == nil {
		t.Fatal("expected error for oversized query")
	}
}

func TestFiltersIsEmpty(t *testing.T) {
	if !(Filters{}).IsEmpty() {
		t.Error("zero Filters must be empty")
	}
	if (Filters{PriceBracket: facet.BracketBudget}).IsEmpty() {
		t.Error("filters with a bracket must not be empty")
	}
}

func TestExcerpt(t *testing.T) {
	short := "giảm giá 30%"
	if got := Excerpt(short); got != short {
		t.Errorf("Excerpt(short) = %q", got)
	}
	long := strings.Repeat("ă", ExcerptLength+50)
	got := Excerpt(long)
	if runes := []rune(got); len(runes) != ExcerptLength+1 {
		t.Errorf("excerpt rune length = %d, want %d", len(runes), ExcerptLength+1)
	}
}
