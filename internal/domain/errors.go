package domain

import "errors"

var (
	// ErrProductNotFound signals a missing catalog product.
	ErrProductNotFound = errors.New("product not found")
	// ErrEmbeddingNotFound signals a product without a usable embedding.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrProviderUnavailable signals that the embedding provider is not configured.
	// Permanent for the life of the process.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrProviderError signals a transient provider failure (network, quota, malformed response).
	ErrProviderError = errors.New("embedding provider error")
	// ErrProviderRejected marks a provider error that retrying cannot fix
	// (bad request, revoked or unauthorized key). It always wraps ErrProviderError.
	ErrProviderRejected = errors.New("embedding request rejected")
	// ErrInvalidVector signals a vector of the wrong dimension or an empty input.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrRankingUnavailable signals that semantic ranking cannot run (zero query vector).
	ErrRankingUnavailable = errors.New("semantic ranking unavailable")
	// ErrReindexInProgress signals that a reindex job is already running in this process.
	ErrReindexInProgress = errors.New("reindex already in progress")
	// ErrStoreUnavailable signals that the catalog or embedding store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
