package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVoucherNotFound signals a missing voucher document.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyRecord signals a voucher record without a name.
	ErrEmptyRecord = errors.New("voucher record has no name")

	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrEmbeddingTransient signals a retryable embedding provider failure
	// (timeout, rate limit, upstream 5xx). Unwraps to ErrEmbeddingProvider.
	ErrEmbeddingTransient = fmt.Errorf("transient: %w", ErrEmbeddingProvider)
	// ErrStoreWrite signals a document store write failure during ingestion.
	ErrStoreWrite = errors.New("store write error")
	// ErrStoreQuery signals a document store query failure during search.
	ErrStoreQuery = errors.New("store query error")
	// ErrComposerDisabled signals that no answer composer is configured.
	ErrComposerDisabled = errors.New("answer composer not configured")
)
