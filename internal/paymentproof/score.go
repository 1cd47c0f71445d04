package paymentproof

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Score weights sum to 1.
const (
	WeightAmount    = 0.40
	WeightCurrency  = 0.20
	WeightDate      = 0.20
	WeightRecipient = 0.10
	WeightBank      = 0.10

	// AutoVerifyThreshold is the minimum score for an auto-verify recommendation.
	AutoVerifyThreshold = 0.75

	maxPartialDeviation = 0.10
	recentDays          = 7
	staleDays           = 30
)

// AmountTolerance is the absolute difference still treated as an exact match.
var AmountTolerance = decimal.NewFromFloat(0.01)

func withinTolerance(detected, expected decimal.Decimal) bool {
	return detected.Sub(expected).Abs().LessThanOrEqual(AmountTolerance)
}

// amountScore is 1 within tolerance, falls linearly to 0 at 10% relative
// deviation and stays 0 beyond.
func amountScore(detected, expected decimal.Decimal) float64 {
	if withinTolerance(detected, expected) {
		return 1
	}
	if expected.IsZero() {
		return 0
	}
	deviation := detected.Sub(expected).Abs().Div(expected.Abs()).InexactFloat64()
	if deviation >= maxPartialDeviation {
		return 0
	}
	return 1 - deviation/maxPartialDeviation
}

// proofAgeDays counts whole days between the proof date and now, both taken
// as UTC calendar dates. Negative means the proof is dated in the future.
func proofAgeDays(date, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(day).Hours() / 24)
}

// dateScore gives full credit up to 7 days, half up to 30. Dates more than a
// day ahead of now get nothing.
func dateScore(age int) float64 {
	switch {
	case age < -1:
		return 0
	case age <= recentDays:
		return 1
	case age <= staleDays:
		return 0.5
	default:
		return 0
	}
}

func isRecent(age int) bool {
	return age >= -1 && age <= recentDays
}

// normalizeName folds case, strips diacritics and collapses whitespace and
// punctuation so "Tóko  Kopi, PT." and "toko kopi pt" compare equal.
func normalizeName(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// minTokenCoverage is the share of the longer name the shorter one must span
// for a whole-token match to count as exact.
const minTokenCoverage = 0.75

// nameSimilarity is 1 - levenshtein/maxLen over normalized names. A name whose
// tokens all appear in the other and that covers most of it, like "Toko Kopi
// Senja" against "PT Toko Kopi Senja", counts as a match.
func nameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	ra, rb := []rune(na), []rune(nb)
	if len(ra) > len(rb) {
		na, nb = nb, na
		ra, rb = rb, ra
	}
	if na == nb || tokensCovered(na, nb, len(ra), len(rb)) {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(len(rb))
}

func tokensCovered(short, long string, shortLen, longLen int) bool {
	if float64(shortLen) < minTokenCoverage*float64(longLen) {
		return false
	}
	have := map[string]bool{}
	for _, tok := range strings.Fields(long) {
		have[tok] = true
	}
	for _, tok := range strings.Fields(short) {
		if !have[tok] {
			return false
		}
	}
	return true
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
