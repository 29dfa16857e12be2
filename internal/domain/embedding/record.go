package embedding

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/prodex/internal/domain"
)

// Record is the stored embedding of one product. Records are replaced
// whole on reindex, never patched.
type Record struct {
	productID    string
	vector       []float32
	modelVersion string
	contentHash  string
	createdAt    time.Time
}

// NewRecord validates and creates an embedding record.
// The vector must have exactly dim components and must not be the zero vector:
// a failed generation is never persisted.
func NewRecord(
	productID string, vector []float32, dim int,
	modelVersion, contentHash string, createdAt time.Time,
) (Record, error) {
	if productID == "" {
		return Record{}, fmt.Errorf("product ID is required")
	}
	if len(vector) != dim {
		return Record{}, fmt.Errorf("expected %d dimensions, got %d: %w", dim, len(vector), domain.ErrInvalidVector)
	}
	if domain.IsZeroVector(vector) {
		return Record{}, fmt.Errorf("zero vector for %s: %w", productID, domain.ErrInvalidVector)
	}
	return Record{
		productID:    productID,
		vector:       append([]float32(nil), vector...),
		modelVersion: modelVersion,
		contentHash:  contentHash,
		createdAt:    createdAt,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(productID string, vector []float32, modelVersion, contentHash string, createdAt time.Time) Record {
	return Record{
		productID:    productID,
		vector:       vector,
		modelVersion: modelVersion,
		contentHash:  contentHash,
		createdAt:    createdAt,
	}
}

// ProductID returns the owning product identifier.
func (r *Record) ProductID() string { return r.productID }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// ModelVersion returns the model that produced the vector.
func (r *Record) ModelVersion() string { return r.modelVersion }

// ContentHash returns the hash of the text that was embedded ("" for legacy records).
func (r *Record) ContentHash() string { return r.contentHash }

// CreatedAt returns when the vector was generated.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// Dim returns the vector dimension.
func (r *Record) Dim() int { return len(r.vector) }

// StaleFor reports whether the record no longer reflects the product content.
// Content hash and model version decide; records written before hashing
// existed fall back to comparing timestamps.
func (r *Record) StaleFor(contentHash, modelVersion string, productUpdatedAt time.Time) bool {
	if modelVersion != "" && r.modelVersion != "" && r.modelVersion != modelVersion {
		return true
	}
	if r.contentHash != "" {
		return r.contentHash != contentHash
	}
	return productUpdatedAt.After(r.createdAt)
}
