package product

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxIDLength is the maximum product identifier length.
const MaxIDLength = 256

// Attributes are the descriptive fields of a catalog item.
type Attributes struct {
	Name           string
	Brand          string
	Category       string
	Subcategory    string
	Description    string
	Features       []string
	Specifications map[string]string
	Price          float64
	OriginalPrice  float64 // 0 = not discounted
	Currency       string
	Rating         float64 // 0 = unrated
	ReviewCount    int
	Availability   string
	Source         string
	SourceURL      string
	Tags           []string
}

// Product is a catalog item (immutable value object).
// The search core only reads products; the catalog owns writes.
type Product struct {
	id               string
	attrs            Attributes
	createdAt        time.Time
	updatedAt        time.Time
	embeddingUpdated time.Time
}

// New validates and creates a Product stamped with now.
// Required: id (1-256 chars, no whitespace), name, non-negative price.
func New(id string, attrs Attributes, now time.Time) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product ID is required")
	}
	if len(id) > MaxIDLength {
		return Product{}, fmt.Errorf("product ID too long (max %d)", MaxIDLength)
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return Product{}, fmt.Errorf("product ID must not contain whitespace")
	}
	if strings.TrimSpace(attrs.Name) == "" {
		return Product{}, fmt.Errorf("product name is required")
	}
	if attrs.Price < 0 {
		return Product{}, fmt.Errorf("price must be non-negative, got %g", attrs.Price)
	}
	if attrs.Rating < 0 || attrs.Rating > 5 {
		return Product{}, fmt.Errorf("rating must be between 0 and 5, got %g", attrs.Rating)
	}
	if attrs.Currency == "" {
		attrs.Currency = "USD"
	}
	if attrs.Availability == "" {
		attrs.Availability = "in_stock"
	}

	return Product{
		id:        id,
		attrs:     cloneAttributes(attrs),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct creates a Product without validation (storage hydration).
// A zero embeddingUpdated means the product was never embedded.
func Reconstruct(id string, attrs Attributes, createdAt, updatedAt, embeddingUpdated time.Time) Product {
	return Product{
		id:               id,
		attrs:            attrs,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		embeddingUpdated: embeddingUpdated,
	}
}

// ID returns the product identifier.
func (p *Product) ID() string { return p.id }

// Name returns the product name.
func (p *Product) Name() string { return p.attrs.Name }

// Brand returns the brand name.
func (p *Product) Brand() string { return p.attrs.Brand }

// Category returns the top-level category.
func (p *Product) Category() string { return p.attrs.Category }

// Description returns the free-text description.
func (p *Product) Description() string { return p.attrs.Description }

// Features returns the feature bullet list.
func (p *Product) Features() []string { return p.attrs.Features }

// Specifications returns the key/value specification map.
func (p *Product) Specifications() map[string]string { return p.attrs.Specifications }

// Price returns the current price.
func (p *Product) Price() float64 { return p.attrs.Price }

// Rating returns the average rating and whether the product has one.
func (p *Product) Rating() (float64, bool) { return p.attrs.Rating, p.attrs.Rating > 0 }

// Availability returns the stock status.
func (p *Product) Availability() string { return p.attrs.Availability }

// Source returns the originating retailer.
func (p *Product) Source() string { return p.attrs.Source }

// Attributes returns a copy of all descriptive fields.
func (p *Product) Attributes() Attributes { return cloneAttributes(p.attrs) }

// CreatedAt returns the creation time.
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last content modification time.
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// EmbeddingUpdated returns when the product was last embedded (zero = never).
func (p *Product) EmbeddingUpdated() time.Time { return p.embeddingUpdated }

// SearchableText builds the canonical text fed to the embedding model:
// name, brand, category, description, features, then "key: value"
// specifications in key order. Empty parts are skipped and the rest are
// joined with single spaces. The result is never truncated here.
func (p *Product) SearchableText() string {
	a := p.attrs
	parts := make([]string, 0, 5+len(a.Features)+len(a.Specifications))
	for _, s := range []string{a.Name, a.Brand, a.Category, a.Description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, f := range a.Features {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}

	keys := make([]string, 0, len(a.Specifications))
	for k := range a.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.TrimSpace(a.Specifications[k])
		k = strings.TrimSpace(k)
		if k == "" || v == "" {
			continue
		}
		parts = append(parts, k+": "+v)
	}

	return strings.Join(parts, " ")
}

// ContentHash is the hex SHA-256 of SearchableText. Two products with
// equal hashes produce the same embedding input.
func (p *Product) ContentHash() string {
	h := sha256.Sum256([]byte(p.SearchableText()))
	return hex.EncodeToString(h[:])
}

func cloneAttributes(a Attributes) Attributes {
	c := a
	if a.Features != nil {
		c.Features = append([]string(nil), a.Features...)
	}
	if a.Tags != nil {
		c.Tags = append([]string(nil), a.Tags...)
	}
	if a.Specifications != nil {
		c.Specifications = make(map[string]string, len(a.Specifications))
		for k, v := range a.Specifications {
			c.Specifications[k] = v
		}
	}
	return c
}
