// Package answer grounds a natural-language reply on retrieved vouchers.
// The composer is optional: deployments without an LLM credential still get
// full search, and answer requests fail with a typed error.
package answer

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vouchex/internal/domain"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
)

// NoResultsText is returned verbatim when retrieval finds nothing. The
// composer is skipped so it cannot invent vouchers.
const NoResultsText = "Không tìm thấy ưu đãi phù hợp với yêu cầu của bạn."

// Answer pairs the composed prose with the hits it was grounded on.
type Answer struct {
	Text string
	Hits []domsearch.Result
}

// Service composes answers from search results.
type Service struct {
	search   Searcher
	composer Composer
}

// New creates an answer service. composer can be nil.
func New(search Searcher, composer Composer) *Service {
	return &Service{search: search, composer: composer}
}

// Answer retrieves vouchers for the query and composes a grounded reply.
func (s *Service) Answer(ctx context.Context, req domsearch.Request) (Answer, error) {
	if s.composer == nil {
		return Answer{}, domain.ErrComposerDisabled
	}

	hits, err := s.search.Search(ctx, req)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(hits) == 0 {
		return Answer{Text: NoResultsText}, nil
	}

	text, err := s.composer.Compose(ctx, req.Query(), hits)
	if err != nil {
		return Answer{}, fmt.Errorf("compose: %w", err)
	}
	return Answer{Text: text, Hits: hits}, nil
}
