package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
)

var (
	comparisonWords = map[string]bool{"compare": true, "comparison": true, "vs": true, "versus": true}
	discoveryWords  = map[string]bool{
		"best": true, "top": true, "recommend": true, "recommended": true,
		"cheapest": true, "greatest": true,
	}

	amount     = `\$?\s*(\d+(?:\.\d+)?)\s*(?:k\b)?`
	betweenRe  = regexp.MustCompile(`between\s+` + amount + `\s*(?:and|to|-)\s*` + amount)
	maxPriceRe = regexp.MustCompile(`(?:under|below|less than|cheaper than|up to)\s+` + amount)
	minPriceRe = regexp.MustCompile(`(?:over|above|more than|at least)\s+` + amount)
)

// Rules is the deterministic classifier used when the AI path is not
// available. It is total: any input, including empty or binary garbage,
// yields a valid Analysis with confidence 0.6 and category "general".
func Rules(query string) domanalysis.Analysis {
	lower := strings.ToLower(query)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	intent := domanalysis.Specific
	switch {
	case containsAny(words, comparisonWords) || strings.Contains(lower, "difference between"):
		intent = domanalysis.Comparison
	case containsAny(words, discoveryWords):
		intent = domanalysis.Discovery
	}

	return domanalysis.New(
		query, intent, domanalysis.GeneralCategory, nil,
		extractPriceRange(lower), domanalysis.RulesConfidence, query, domanalysis.SourceRules,
	)
}

func containsAny(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

// extractPriceRange understands "under N", "over N" and "between N and M".
// A trailing "k" multiplies by a thousand.
func extractPriceRange(lower string) *domanalysis.PriceRange {
	if m := betweenRe.FindStringSubmatchIndex(lower); m != nil {
		lo := parseAmount(lower, m[2], m[3])
		hi := parseAmount(lower, m[4], m[5])
		if lo > hi {
			lo, hi = hi, lo
		}
		return &domanalysis.PriceRange{Min: lo, Max: hi}
	}

	var pr domanalysis.PriceRange
	if m := maxPriceRe.FindStringSubmatchIndex(lower); m != nil {
		pr.Max = parseAmount(lower, m[2], m[3])
	}
	if m := minPriceRe.FindStringSubmatchIndex(lower); m != nil {
		pr.Min = parseAmount(lower, m[2], m[3])
	}
	if pr.IsEmpty() {
		return nil
	}
	return &pr
}

// parseAmount reads the number at s[start:end], scaling by 1000 when it
// is directly followed by "k".
func parseAmount(s string, start, end int) float64 {
	f, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}
	rest := strings.TrimLeft(s[end:], " ")
	if strings.HasPrefix(rest, "k") && (len(rest) == 1 || !unicode.IsLetter(rune(rest[1]))) {
		f *= 1000
	}
	return f
}
