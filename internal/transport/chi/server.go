// Package chi is the HTTP API layer: routing, request decoding, and the
// mapping from domain sentinels to response codes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vouchex/internal/domain"
	dombatch "github.com/kailas-cloud/vouchex/internal/domain/batch"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
	answeruc "github.com/kailas-cloud/vouchex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/vouchex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/vouchex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/vouchex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the voucher API over chi.
type Server struct {
	index         *indexuc.Service
	search        *searchuc.Service
	answer        *answeruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	index *indexuc.Service,
	search *searchuc.Service,
	answer *answeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		index:  index,
		search: search,
		answer: answer,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrVoucherNotFound, http.StatusNotFound, codeVoucherNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeVoucherNotFound),
		sentinelHandler(domain.ErrEmptyRecord, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrStoreWrite, http.StatusServiceUnavailable, codeStoreError),
		sentinelHandler(domain.ErrStoreQuery, http.StatusServiceUnavailable, codeStoreError),
		sentinelHandler(domain.ErrComposerDisabled, http.StatusNotImplemented, codeAnswerDisabled),
	}
	return s
}

// Routes mounts all API routes on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/answer", s.handleAnswer)
		r.Get("/analyze-query", s.handleAnalyzeQuery)
		r.Post("/vouchers", s.handleIndexVoucher)
		r.Post("/vouchers:batch", s.handleIndexBatch)
		r.Get("/vouchers/{id}", s.handleGetVoucher)
		r.Delete("/vouchers/{id}", s.handleDeleteVoucher)
	})

	return r
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	dreq, err := domsearch.NewRequest(req.Query, req.TopK, req.Filters.toDomain())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), dreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := searchResponse{Results: make([]searchResultItem, len(results)), Total: len(results)}
	for i, res := range results {
		resp.Results[i] = searchResultToDTO(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnswer handles POST /api/v1/answer.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Query is required")
		return
	}

	dreq, err := domsearch.NewRequest(req.Query, req.TopK, req.Filters.toDomain())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ans, err := s.answer.Answer(r.Context(), dreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToDTO(ans))
}

// handleAnalyzeQuery handles GET /api/v1/analyze-query?q=...
func (s *Server) handleAnalyzeQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Query parameter q is required")
		return
	}

	writeJSON(w, http.StatusOK, explanationToDTO(s.search.Explain(q)))
}

// handleIndexVoucher handles POST /api/v1/vouchers.
func (s *Server) handleIndexVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	v, created, err := s.index.Index(r.Context(), req.toRecord())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, indexResponse{ID: v.ID, Created: created})
}

// handleIndexBatch handles POST /api/v1/vouchers:batch.
func (s *Server) handleIndexBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Vouchers) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Batch contains no vouchers")
		return
	}

	recs := make([]domvoucher.Record, len(req.Vouchers))
	for i, v := range req.Vouchers {
		recs[i] = v.toRecord()
	}

	results := s.index.IndexBatch(r.Context(), recs)

	ok, failed := dombatch.Count(results)
	resp := batchResponse{Results: make([]batchResultItem, len(results)), OK: ok, Failed: failed}
	for i, res := range results {
		resp.Results[i] = batchResultToDTO(res)
	}

	status := http.StatusOK
	if ok == 0 {
		status = http.StatusBadRequest
	} else if failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

// handleGetVoucher handles GET /api/v1/vouchers/{id}.
func (s *Server) handleGetVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.index.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voucherToDTO(v))
}

// handleDeleteVoucher handles DELETE /api/v1/vouchers/{id}.
func (s *Server) handleDeleteVoucher(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	resp := healthResponse{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, check := range report.Checks {
		resp.Checks[name] = string(check)
	}
	writeJSON(w, status, resp)
}

func batchResultToDTO(r dombatch.Result) batchResultItem {
	item := batchResultItem{ID: r.ID(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = &errorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}

func batchErrorCode(err error) errorCode {
	switch {
	case errors.Is(err, domain.ErrEmptyRecord):
		return codeValidationFailed
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return codeVectorDimMismatch
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return codeEmbeddingProvider
	case errors.Is(err, domain.ErrStoreWrite):
		return codeStoreError
	default:
		return codeInternalError
	}
}

// safeDomainMessage returns the sentinel text for known errors and hides
// internals for everything else.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrVoucherNotFound,
		domain.ErrNotFound,
		domain.ErrEmptyRecord,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProvider,
		domain.ErrStoreWrite,
		domain.ErrStoreQuery,
		domain.ErrComposerDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
