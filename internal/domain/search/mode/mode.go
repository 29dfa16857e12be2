package mode

// Mode is the ranking strategy that produced a result page.
type Mode string

// Search mode constants.
const (
	// Semantic ranks by embedding similarity.
	Semantic Mode = "semantic"
	// Keyword is the degraded token-overlap path used when no query vector is available.
	Keyword Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Keyword
}
