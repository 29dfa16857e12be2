package product

import (
	"encoding/json"
	"strconv"
	"time"

	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
)

// Hash field names of a stored product.
const (
	fieldName             = "name"
	fieldBrand            = "brand"
	fieldCategory         = "category"
	fieldSubcategory      = "subcategory"
	fieldDescription      = "description"
	fieldFeatures         = "features"
	fieldSpecifications   = "specifications"
	fieldPrice            = "price"
	fieldOriginalPrice    = "original_price"
	fieldCurrency         = "currency"
	fieldRating           = "rating"
	fieldReviewCount      = "review_count"
	fieldAvailability     = "availability"
	fieldSource           = "source"
	fieldSourceURL        = "source_url"
	fieldTags             = "tags"
	fieldCreatedAt        = "created_at"
	fieldUpdatedAt        = "updated_at"
	fieldEmbeddingUpdated = "embedding_updated"
)

// buildHashFields converts a Product into a flat map for HSET.
// List and map attributes are stored as JSON strings.
func buildHashFields(p *domprod.Product) map[string]string {
	a := p.Attributes()
	m := map[string]string{
		fieldName:         a.Name,
		fieldBrand:        a.Brand,
		fieldCategory:     a.Category,
		fieldSubcategory:  a.Subcategory,
		fieldDescription:  a.Description,
		fieldPrice:        formatFloat(a.Price),
		fieldCurrency:     a.Currency,
		fieldReviewCount:  strconv.Itoa(a.ReviewCount),
		fieldAvailability: a.Availability,
		fieldSource:       a.Source,
		fieldSourceURL:    a.SourceURL,
		fieldCreatedAt:    formatTime(p.CreatedAt()),
		fieldUpdatedAt:    formatTime(p.UpdatedAt()),
	}
	if a.OriginalPrice > 0 {
		m[fieldOriginalPrice] = formatFloat(a.OriginalPrice)
	}
	if a.Rating > 0 {
		m[fieldRating] = formatFloat(a.Rating)
	}
	if len(a.Features) > 0 {
		m[fieldFeatures] = mustJSON(a.Features)
	}
	if len(a.Specifications) > 0 {
		m[fieldSpecifications] = mustJSON(a.Specifications)
	}
	if len(a.Tags) > 0 {
		m[fieldTags] = mustJSON(a.Tags)
	}
	if t := p.EmbeddingUpdated(); !t.IsZero() {
		m[fieldEmbeddingUpdated] = formatTime(t)
	}
	return m
}

// parseHashFields converts a flat hash map back into a Product.
// Malformed optional fields degrade to their zero value.
func parseHashFields(id string, m map[string]string) domprod.Product {
	a := domprod.Attributes{
		Name:          m[fieldName],
		Brand:         m[fieldBrand],
		Category:      m[fieldCategory],
		Subcategory:   m[fieldSubcategory],
		Description:   m[fieldDescription],
		Price:         parseFloat(m[fieldPrice]),
		OriginalPrice: parseFloat(m[fieldOriginalPrice]),
		Currency:      m[fieldCurrency],
		Rating:        parseFloat(m[fieldRating]),
		Availability:  m[fieldAvailability],
		Source:        m[fieldSource],
		SourceURL:     m[fieldSourceURL],
	}
	a.ReviewCount, _ = strconv.Atoi(m[fieldReviewCount])
	_ = json.Unmarshal([]byte(m[fieldFeatures]), &a.Features)
	_ = json.Unmarshal([]byte(m[fieldSpecifications]), &a.Specifications)
	_ = json.Unmarshal([]byte(m[fieldTags]), &a.Tags)

	return domprod.Reconstruct(
		id, a,
		parseTime(m[fieldCreatedAt]),
		parseTime(m[fieldUpdatedAt]),
		parseTime(m[fieldEmbeddingUpdated]),
	)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
