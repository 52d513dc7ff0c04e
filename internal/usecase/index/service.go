// Package index builds multi-field voucher documents: facet extraction,
// one embedding per facet, a weighted combined vector, and an idempotent
// upsert into the document store.
package index

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vouchex/internal/domain"
	dombatch "github.com/kailas-cloud/vouchex/internal/domain/batch"
	"github.com/kailas-cloud/vouchex/internal/domain/facet"
	"github.com/kailas-cloud/vouchex/internal/domain/geo"
	"github.com/kailas-cloud/vouchex/internal/domain/vector"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
	"github.com/kailas-cloud/vouchex/internal/logger"
	"github.com/kailas-cloud/vouchex/internal/metrics"
)

// Combined vector weights over the four facet embeddings. The keyword
// signal rides inside the service prompt, so its share folds into the
// service weight before renormalization.
const (
	combineContent  = 0.4
	combineLocation = 0.3
	combineService  = 0.15 + 0.05
	combineTarget   = 0.1
)

// Limits for batch ingestion.
const (
	MaxBatchSize       = 200
	DefaultConcurrency = 4
)

// Service turns raw voucher records into indexed documents.
type Service struct {
	store       VoucherStore
	embed       domain.Embedder
	gaz         *geo.Gazetteer
	concurrency int
	now         func() time.Time
}

// New creates an indexing service.
func New(store VoucherStore, embed domain.Embedder, gaz *geo.Gazetteer) *Service {
	return &Service{
		store:       store,
		embed:       embed,
		gaz:         gaz,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// WithConcurrency bounds parallel embedding during batch ingestion.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Index builds and stores one voucher document. Re-indexing the same
// name+merchant pair replaces the previous document.
func (s *Service) Index(ctx context.Context, rec domvoucher.Record) (v domvoucher.Voucher, created bool, err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.VouchersIndexedTotal.WithLabelValues(status).Inc()
	}()

	if strings.TrimSpace(rec.Name) == "" {
		return domvoucher.Voucher{}, false, domain.ErrEmptyRecord
	}

	v = domvoucher.FromRecord(rec, s.now())

	if place, ok := s.gaz.Resolve(v.Facets.Location); ok {
		v.Region = place.Region
	}

	if err = s.embedFacets(ctx, &v); err != nil {
		return domvoucher.Voucher{}, false, err
	}

	created, err = s.store.Upsert(ctx, &v)
	if err != nil {
		return domvoucher.Voucher{}, false, fmt.Errorf("upsert voucher: %w", err)
	}

	logger.FromContext(ctx).Debug("Voucher indexed",
		zap.String("voucher_id", v.ID),
		zap.Bool("created", created),
	)
	return v, created, nil
}

// embedFacets embeds the four facet texts in one provider call, normalizes
// every vector, and derives the combined vector.
func (s *Service) embedFacets(ctx context.Context, v *domvoucher.Voucher) error {
	texts := []string{
		v.Name + "\n" + v.RawText,
		facet.LocationPrompt(v.Facets.Location),
		facet.ServicePrompt(v.Facets.ServiceType, v.Facets.Keywords),
		facet.TargetPrompt(v.Facets.TargetAudience),
	}

	res, err := domain.BatchEmbedOrFallback(ctx, s.embed, texts)
	if err != nil {
		return fmt.Errorf("embed facets: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return fmt.Errorf("embed facets: got %d vectors, want %d", len(res.Embeddings), len(texts))
	}

	dim := len(res.Embeddings[0])
	for i, e := range res.Embeddings {
		if len(e) != dim {
			return fmt.Errorf("facet %d: got dim %d, want %d: %w", i, len(e), dim, domain.ErrVectorDimMismatch)
		}
	}

	v.Vectors = domvoucher.FieldVectors{
		Content:  vector.Normalize(res.Embeddings[0]),
		Location: vector.Normalize(res.Embeddings[1]),
		Service:  vector.Normalize(res.Embeddings[2]),
		Target:   vector.Normalize(res.Embeddings[3]),
	}
	v.Vectors.Combined = vector.WeightedSum(
		[][]float32{v.Vectors.Content, v.Vectors.Location, v.Vectors.Service, v.Vectors.Target},
		[]float64{combineContent, combineLocation, combineService, combineTarget},
	)
	return nil
}

// IndexBatch ingests many records with bounded concurrency. One record's
// failure never aborts the batch; results come back in submission order.
func (s *Service) IndexBatch(ctx context.Context, recs []domvoucher.Record) []dombatch.Result {
	results := make([]dombatch.Result, len(recs))

	if len(recs) > MaxBatchSize {
		for i, rec := range recs {
			results[i] = dombatch.NewError(
				recordID(rec),
				fmt.Errorf("batch size %d exceeds %d", len(recs), MaxBatchSize),
			)
		}
		return results
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, rec := range recs {
		g.Go(func() error {
			var r dombatch.Result
			if gctx.Err() != nil {
				r = dombatch.NewError(recordID(rec), gctx.Err())
			} else if v, _, err := s.Index(gctx, rec); err != nil {
				r = dombatch.NewError(recordID(rec), err)
			} else {
				r = dombatch.NewOK(v.ID)
			}
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; per-item failures live in results.
	_ = g.Wait()

	ok, failed := dombatch.Count(results)
	logger.FromContext(ctx).Info("Batch indexed",
		zap.Int("ok", ok),
		zap.Int("failed", failed),
	)
	return results
}

// Delete removes a voucher by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	return nil
}

// Get returns a stored voucher by id.
func (s *Service) Get(ctx context.Context, id string) (domvoucher.Voucher, error) {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return domvoucher.Voucher{}, fmt.Errorf("get voucher: %w", err)
	}
	return v, nil
}

func recordID(rec domvoucher.Record) string {
	if strings.TrimSpace(rec.Name) == "" {
		return ""
	}
	return domvoucher.DeterministicID(rec.Name, rec.Merchant)
}
