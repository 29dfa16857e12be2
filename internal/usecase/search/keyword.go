package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/prodex/internal/domain/product"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
)

// nameWeight is the extra credit for a query token found in the product name.
const nameWeight = 0.5

// keywordRank is the degraded path used when no query vector exists: the
// share of query tokens found in a product's searchable text, with a bonus
// for tokens in the name, scaled to [0,1]. Products with no overlap are
// dropped; ties keep input order.
func keywordRank(query string, products []product.Product) []result.Result {
	qtokens := uniqueTokens(query)
	if len(qtokens) == 0 {
		return []result.Result{}
	}

	out := make([]result.Result, 0)
	for _, p := range products {
		text := tokenSet(p.SearchableText())
		name := tokenSet(p.Name())
		var hits, nameHits int
		for _, t := range qtokens {
			if text[t] {
				hits++
			}
			if name[t] {
				nameHits++
			}
		}
		if hits == 0 {
			continue
		}
		n := float64(len(qtokens))
		score := (float64(hits)/n + nameWeight*float64(nameHits)/n) / (1 + nameWeight)
		out = append(out, result.New(p, score))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokenize(s) {
		if len(t) < 2 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(s) {
		set[t] = true
	}
	return set
}
