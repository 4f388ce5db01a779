package matching

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const substringBonus = 10

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ComparableName extracts the product-name segment from a catalog title. The
// catalog encodes "L-Supplier / ProductName / ABV / Format"; the second
// segment is the name an invoice line should be compared against. Titles
// without the "/" convention are used whole.
func ComparableName(catalogTitle string) string {
	if !strings.Contains(catalogTitle, "/") {
		return catalogTitle
	}
	parts := strings.Split(catalogTitle, "/")
	if len(parts) < 2 {
		return catalogTitle
	}
	return strings.TrimSpace(parts[1])
}

// Score rates how well an invoice product name matches a catalog title.
// The base is a token-order-independent ratio in [0,100]; full substring
// containment of the invoice name adds a flat bonus, since containment is a
// stronger signal than token similarity alone ("Dark Island" inside "DEYA
// Dark Island Stout" should beat a token-shuffled near-miss).
func Score(invoiceName, catalogTitle string) int {
	comparable := ComparableName(catalogTitle)
	score := tokenSortRatio(invoiceName, comparable)
	if invoiceName != "" && strings.Contains(strings.ToLower(comparable), strings.ToLower(invoiceName)) {
		score += substringBonus
	}
	return score
}

// Similarity is the bare token-sort ratio between two plain strings, with no
// catalog-title segment handling and no substring bonus. Used for supplier
// name comparison.
func Similarity(a, b string) int {
	return tokenSortRatio(a, b)
}

// tokenSortRatio lowercases, strips punctuation, sorts tokens, and computes a
// levenshtein similarity ratio over the rejoined strings.
func tokenSortRatio(a, b string) int {
	na := sortTokens(a)
	nb := sortTokens(b)
	if na == "" && nb == "" {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(na, nb)
	lensum := len([]rune(na)) + len([]rune(nb))
	return ((lensum - dist) * 100) / lensum
}

func sortTokens(s string) string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	fields := strings.Fields(cleaned)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
