package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vouchex/internal/domain"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
)

// --- Mocks ---

type mockSearcher struct {
	hits []domsearch.Result
	err  error
}

func (m *mockSearcher) Search(_ context.Context, _ domsearch.Request) ([]domsearch.Result, error) {
	return m.hits, m.err
}

type mockComposer struct {
	text     string
	err      error
	calls    int
	gotHits  []domsearch.Result
	gotQuery string
}

func (m *mockComposer) Compose(
	_ context.Context, query string, hits []domsearch.Result,
) (string, error) {
	m.calls++
	m.gotQuery = query
	m.gotHits = hits
	return m.text, m.err
}

func mustRequest(t *testing.T, q string) domsearch.Request {
	t.Helper()
	req, err := domsearch.NewRequest(q, 5, domsearch.Filters{})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

// --- Tests ---

func TestAnswer_ComposesFromHits(t *testing.T) {
	hits := []domsearch.Result{{ID: "v1", Name: "Buffet hải sản"}}
	comp := &mockComposer{text: "Bạn có thể thử Buffet hải sản."}
	svc := New(&mockSearcher{hits: hits}, comp)

	ans, err := svc.Answer(context.Background(), mustRequest(t, "buffet cho gia đình"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != comp.text {
		t.Errorf("text = %q", ans.Text)
	}
	if len(ans.Hits) != 1 || ans.Hits[0].ID != "v1" {
		t.Errorf("hits = %+v", ans.Hits)
	}
	if comp.gotQuery != "buffet cho gia đình" {
		t.Errorf("composer query = %q", comp.gotQuery)
	}
}

func TestAnswer_NoComposerConfigured(t *testing.T) {
	svc := New(&mockSearcher{}, nil)

	_, err := svc.Answer(context.Background(), mustRequest(t, "buffet"))
	if !errors.Is(err, domain.ErrComposerDisabled) {
		t.Fatalf("expected ErrComposerDisabled, got %v", err)
	}
}

func TestAnswer_NoHitsSkipsComposer(t *testing.T) {
	comp := &mockComposer{text: "should not be used"}
	svc := New(&mockSearcher{}, comp)

	ans, err := svc.Answer(context.Background(), mustRequest(t, "buffet"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != NoResultsText {
		t.Errorf("text = %q", ans.Text)
	}
	if comp.calls != 0 {
		t.Errorf("composer calls = %d, want 0", comp.calls)
	}
}

func TestAnswer_SearchFailurePropagates(t *testing.T) {
	svc := New(&mockSearcher{err: domain.ErrStoreQuery}, &mockComposer{})

	_, err := svc.Answer(context.Background(), mustRequest(t, "buffet"))
	if !errors.Is(err, domain.ErrStoreQuery) {
		t.Fatalf("expected store query error, got %v", err)
	}
}

func TestAnswer_ComposerFailurePropagates(t *testing.T) {
	hits := []domsearch.Result{{ID: "v1"}}
	svc := New(&mockSearcher{hits: hits}, &mockComposer{err: errors.New("llm down")})

	_, err := svc.Answer(context.Background(), mustRequest(t, "buffet"))
	if err == nil {
		t.Fatal("expected an error")
	}
}
