package prodex

import "github.com/kailas-cloud/prodex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProductNotFound     = domain.ErrProductNotFound
	ErrEmbeddingNotFound   = domain.ErrEmbeddingNotFound
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrProviderUnavailable = domain.ErrProviderUnavailable
	ErrProviderError       = domain.ErrProviderError
	ErrRankingUnavailable  = domain.ErrRankingUnavailable
	ErrReindexInProgress   = domain.ErrReindexInProgress
	ErrStoreUnavailable    = domain.ErrStoreUnavailable
)
