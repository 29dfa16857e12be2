package prodex

import (
	"context"
	"fmt"
	"time"

	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
)

// ProductService manages catalog products.
type ProductService struct {
	catalog    catalogUseCase
	embeddings embeddingDeleter
	now        func() time.Time
	obs        *observer
}

// Put validates and stores a product, replacing any previous version.
// The product is embedded on the next Reindex.
func (s *ProductService) Put(ctx context.Context, p Product) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_put", start, err) }()

	prod, err := toDomainProduct(&p, s.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err = s.catalog.Save(ctx, &prod); err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// Get returns a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (_ Product, err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_get", start, err) }()

	p, err := s.catalog.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return fromDomainProduct(&p), nil
}

// Delete removes a product and its embedding.
func (s *ProductService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_delete", start, err) }()

	if err = s.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err = s.embeddings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

// Count returns the number of products in the catalog.
func (s *ProductService) Count(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_count", start, err) }()

	n, err := s.catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func toDomainProduct(p *Product, now time.Time) (domprod.Product, error) {
	return domprod.New(p.ID, domprod.Attributes{
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Description:    p.Description,
		Features:       p.Features,
		Specifications: p.Specifications,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		Currency:       p.Currency,
		Rating:         p.Rating,
		ReviewCount:    p.ReviewCount,
		Availability:   p.Availability,
		Source:         p.Source,
		SourceURL:      p.SourceURL,
		Tags:           p.Tags,
	}, now)
}

func fromDomainProduct(p *domprod.Product) Product {
	a := p.Attributes()
	return Product{
		ID:             p.ID(),
		Name:           a.Name,
		Brand:          a.Brand,
		Category:       a.Category,
		Subcategory:    a.Subcategory,
		Description:    a.Description,
		Features:       a.Features,
		Specifications: a.Specifications,
		Price:          a.Price,
		OriginalPrice:  a.OriginalPrice,
		Currency:       a.Currency,
		Rating:         a.Rating,
		ReviewCount:    a.ReviewCount,
		Availability:   a.Availability,
		Source:         a.Source,
		SourceURL:      a.SourceURL,
		Tags:           a.Tags,
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}
