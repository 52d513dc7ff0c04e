package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vouchex/internal/domain"
	"github.com/kailas-cloud/vouchex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// embeddingData mirrors one vector entry of the OpenAI-compatible response.
type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func writeEmbeddings(t *testing.T, w http.ResponseWriter, tokens int, vecs ...[]float32) {
	t.Helper()
	resp := embeddingResponse{Object: "list", Model: "test-model"}
	for i, v := range vecs {
		resp.Data = append(resp.Data, embeddingData{Object: "embedding", Embedding: v, Index: i})
	}
	resp.Usage.PromptTokens = tokens
	resp.Usage.TotalTokens = tokens
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func newTestEmbedder(serverURL string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  serverURL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		writeEmbeddings(t, w, 10, expectedVec)
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL).Embed(context.Background(), "buffet hải sản")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
	if result.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d, expected 10", result.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedRestoresInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Entries come back index-reversed on purpose.
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = []embeddingData{
			{Object: "embedding", Embedding: []float32{2, 2}, Index: 1},
			{Object: "embedding", Embedding: []float32{1, 1}, Index: 0},
		}
		resp.Usage.TotalTokens = 20
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL).BatchEmbed(
		context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}

	if len(result.Embeddings) != 2 {
		t.Fatalf("embedding count = %d", len(result.Embeddings))
	}
	if result.Embeddings[0][0] != 1 || result.Embeddings[1][0] != 2 {
		t.Errorf("order not restored: %v", result.Embeddings)
	}
}

func TestEmbedder_BatchEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(t, w, 5, []float32{0.1})
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).BatchEmbed(
		context.Background(), []string{"a", "b", "c"})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEmbedder_RetriesTransientFailureOnce(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"detail":"rate limited"}`))
			return
		}
		writeEmbeddings(t, w, 5, []float32{0.5, 0.5})
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL).Embed(context.Background(), "spa")
	if err != nil {
		t.Fatalf("Embed failed after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("request count = %d, expected 2", calls.Load())
	}
	if len(result.Embedding) != 2 {
		t.Errorf("embedding length = %d", len(result.Embedding))
	}
}

func TestEmbedder_TransientFailsAfterSingleRetry(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "spa")
	if !errors.Is(err, domain.ErrEmbeddingTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Error("transient error must unwrap to the provider sentinel")
	}
	if calls.Load() != 2 {
		t.Errorf("request count = %d, expected exactly 2", calls.Load())
	}
}

func TestEmbedder_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"malformed input"}`))
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "spa")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingTransient) {
		t.Error("a 400 must not classify as transient")
	}
	if calls.Load() != 1 {
		t.Errorf("request count = %d, expected 1", calls.Load())
	}
	if !strings.Contains(err.Error(), "malformed input") {
		t.Errorf("detail missing from error: %v", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}

	for _, tc := range tests {
		got := errors.Is(classifyStatus(tc.status), domain.ErrEmbeddingTransient)
		if got != tc.transient {
			t.Errorf("classifyStatus(%d) transient = %v, want %v", tc.status, got, tc.transient)
		}
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	if err := newTestEmbedder(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
