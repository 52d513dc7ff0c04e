package answer

import (
	"context"

	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
)

// Searcher runs voucher retrieval for answer grounding.
type Searcher interface {
	Search(ctx context.Context, req domsearch.Request) ([]domsearch.Result, error)
}

// Composer generates a natural-language answer grounded on search hits.
type Composer interface {
	Compose(ctx context.Context, query string, hits []domsearch.Result) (string, error)
}
