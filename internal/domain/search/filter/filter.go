package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// Filter is a candidate pre-filter applied before ranking.
// Zero values are open: an empty category or zero price bound matches everything.
type Filter struct {
	category string
	brands   []string
	minPrice float64
	maxPrice float64
}

// New validates and creates a Filter.
func New(category string, brands []string, minPrice, maxPrice float64) (Filter, error) {
	if minPrice < 0 || maxPrice < 0 {
		return Filter{}, fmt.Errorf("price bounds must be non-negative")
	}
	if maxPrice > 0 && minPrice > maxPrice {
		return Filter{}, fmt.Errorf("min_price (%g) exceeds max_price (%g)", minPrice, maxPrice)
	}
	var bs []string
	for _, b := range brands {
		if b = strings.TrimSpace(b); b != "" {
			bs = append(bs, b)
		}
	}
	return Filter{
		category: strings.TrimSpace(category),
		brands:   bs,
		minPrice: minPrice,
		maxPrice: maxPrice,
	}, nil
}

// Category returns the category constraint.
func (f Filter) Category() string { return f.category }

// Brands returns the brand constraint.
func (f Filter) Brands() []string { return f.brands }

// MinPrice returns the lower price bound (0 = open).
func (f Filter) MinPrice() float64 { return f.minPrice }

// MaxPrice returns the upper price bound (0 = open).
func (f Filter) MaxPrice() float64 { return f.maxPrice }

// IsEmpty reports whether the filter accepts every product.
func (f Filter) IsEmpty() bool {
	return f.category == "" && len(f.brands) == 0 && f.minPrice == 0 && f.maxPrice == 0
}

// Merge narrows f with hints, keeping f's explicit constraints.
func (f Filter) Merge(category string, brands []string, minPrice, maxPrice float64) Filter {
	out := f
	if out.category == "" {
		out.category = category
	}
	if len(out.brands) == 0 {
		out.brands = append([]string(nil), brands...)
	}
	if out.minPrice == 0 {
		out.minPrice = minPrice
	}
	if out.maxPrice == 0 {
		out.maxPrice = maxPrice
	}
	if out.maxPrice > 0 && out.minPrice > out.maxPrice {
		out.minPrice, out.maxPrice = f.minPrice, f.maxPrice
	}
	return out
}

// Matches reports whether p satisfies every constraint.
// Category and brand compare case-insensitively.
func (f Filter) Matches(p *product.Product) bool {
	if f.category != "" && !strings.EqualFold(p.Category(), f.category) {
		return false
	}
	if len(f.brands) > 0 {
		ok := false
		for _, b := range f.brands {
			if strings.EqualFold(p.Brand(), b) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.minPrice > 0 && p.Price() < f.minPrice {
		return false
	}
	if f.maxPrice > 0 && p.Price() > f.maxPrice {
		return false
	}
	return true
}
