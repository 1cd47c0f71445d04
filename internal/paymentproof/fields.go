package paymentproof

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	numberPattern       = `[0-9]{1,3}(?:[.,'][0-9]{3})+(?:[.,][0-9]{1,2})?|[0-9]+(?:[.,][0-9]{1,2})?`
	spacedNumberPattern = `[0-9]{1,3}(?:[ \x{00A0}.,'][0-9]{3})+(?:[.,][0-9]{1,2})?|[0-9]+(?:[.,][0-9]{1,2})?`
)

var (
	prefixAmountRe = regexp.MustCompile(`(?i)(\bRp\.?|\bIDR|\bUSD|\bEUR|\bGBP|\bSGD|\bMYR|\bAUD|\bJPY|\bRM|US\$|S\$|\$|€|£|¥)[ \x{00A0}]?(` + numberPattern + `)`)
	suffixAmountRe = regexp.MustCompile(`(?i)(` + spacedNumberPattern + `)[ \x{00A0}]?(IDR\b|USD\b|EUR\b|GBP\b|SGD\b|MYR\b|AUD\b|JPY\b|rupiah\b|€)`)
	labelAmountRe  = regexp.MustCompile(`(?i)\b(?:total|amount|jumlah|nominal|nilai|sebesar)\b[^0-9\n]{0,24}?(` + numberPattern + `)`)
	amountLabelRe  = regexp.MustCompile(`(?i)\b(?:(total|amount|jumlah|nominal|nilai|sebesar)|(saldo|balance|fee|biaya|admin))\b`)

	isoDateRe      = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	numericDateRe  = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4}|\d{2})\b`)
	monthNames     = `(jan(?:uari|uary)?|feb(?:ruari|ruary)?|mar(?:et|ch)?|apr(?:il)?|mei|may|jun[ie]?|jul[iy]?|agu(?:stus)?|aug(?:ust)?|sep(?:t(?:ember)?)?|okt(?:ober)?|oct(?:ober)?|nov(?:ember)?|des(?:ember)?|dec(?:ember)?)`
	dayMonthDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})[ \-]` + monthNames + `\.?[ \-](\d{4})\b`)
	monthDayDateRe = regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2}),?\s+(\d{4})\b`)

	timeRe        = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?\b`)
	recipientRe   = regexp.MustCompile(`(?im)^[ \t]*(?:nama[ \t]+penerima|penerima|kepada|recipient(?:[ \t]+name)?|beneficiary(?:[ \t]+name)?|to|ke)[ \t]*[:\-][ \t]*(.+)$`)
	recipientTail = regexp.MustCompile(`[\s\-:|/]*[0-9][0-9\s\-]*$`)
	transactionRe = regexp.MustCompile(`(?i)\b(?:transaction[ \t]*id|trx[ \t]*id|ref(?:erence)?(?:[ \t]*(?:no|number|id))?|no\.?[ \t]*ref(?:erensi)?|id[ \t]*transaksi|no\.?[ \t]*transaksi|kode[ \t]*transaksi)[ \t]*[.:#]?[ \t]*([A-Z0-9][A-Z0-9\-]{5,})`)
	orderNumberRe = regexp.MustCompile(`\b(\d{4}-\d{5})\b`)
)

var currencySymbols = map[string]string{
	"RP":     "IDR",
	"RP.":    "IDR",
	"RUPIAH": "IDR",
	"US$":    "USD",
	"$":      "USD",
	"S$":     "SGD",
	"RM":     "MYR",
	"€":      "EUR",
	"£":      "GBP",
	"¥":      "JPY",
}

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"mei": time.May, "may": time.May, "jun": time.June, "jul": time.July,
	"agu": time.August, "aug": time.August, "sep": time.September, "okt": time.October,
	"oct": time.October, "nov": time.November, "des": time.December, "dec": time.December,
}

// amountLabel classifies an amount by the nearest keyword before it on its line.
type amountLabel int

const (
	labelNone amountLabel = iota
	labelTransfer
	labelExcluded
)

// amountCandidate is one monetary value found in the text.
type amountCandidate struct {
	Amount   decimal.Decimal
	Currency string
	Pos      int
	Label    amountLabel
}

// findAmounts returns every currency-tagged or labeled amount, in text order.
func findAmounts(text string) []amountCandidate {
	seen := map[int]bool{}
	var out []amountCandidate
	add := func(pos int, raw, cur string) {
		if seen[pos] {
			return
		}
		amount, ok := parseAmount(raw)
		if !ok || !amount.IsPositive() {
			return
		}
		seen[pos] = true
		out = append(out, amountCandidate{Amount: amount, Currency: normalizeCurrency(cur), Pos: pos, Label: labelAt(text, pos)})
	}

	for _, m := range prefixAmountRe.FindAllStringSubmatchIndex(text, -1) {
		add(m[4], text[m[4]:m[5]], text[m[2]:m[3]])
	}
	for _, m := range suffixAmountRe.FindAllStringSubmatchIndex(text, -1) {
		add(m[2], text[m[2]:m[3]], text[m[4]:m[5]])
	}
	for _, m := range labelAmountRe.FindAllStringSubmatchIndex(text, -1) {
		add(m[2], text[m[2]:m[3]], "")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}

// labelAt reads the last amount keyword between the start of the line and pos.
// "Saldo akhir: Rp 150.000" is excluded, "Jumlah: Rp 15.000" is a transfer.
func labelAt(text string, pos int) amountLabel {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	matches := amountLabelRe.FindAllStringSubmatchIndex(text[start:pos], -1)
	if len(matches) == 0 {
		return labelNone
	}
	last := matches[len(matches)-1]
	if last[2] >= 0 {
		return labelTransfer
	}
	return labelExcluded
}

// pickAmount prefers transfer-labeled amounts, then unlabeled ones, and never
// picks a balance or fee. Closeness to expected only breaks ties within the
// preferred group; equal distances keep text order.
func pickAmount(candidates []amountCandidate, expected decimal.Decimal) (amountCandidate, bool) {
	for _, label := range []amountLabel{labelTransfer, labelNone} {
		var (
			best     amountCandidate
			bestDiff decimal.Decimal
			found    bool
		)
		for _, c := range candidates {
			if c.Label != label {
				continue
			}
			diff := c.Amount.Sub(expected).Abs()
			if !found || diff.LessThan(bestDiff) {
				best, bestDiff, found = c, diff, true
			}
		}
		if found {
			return best, true
		}
	}
	return amountCandidate{}, false
}

// parseAmount reads a number written with any common grouping convention:
// 1,234.56 / 1.234,56 / 1 234,56 / 150.000.
func parseAmount(raw string) (decimal.Decimal, bool) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(strings.TrimSpace(raw))
	if clean == "" {
		return decimal.Zero, false
	}
	dots := strings.Count(clean, ".")
	commas := strings.Count(clean, ",")

	switch {
	case dots > 0 && commas > 0:
		decimalSep := ","
		groupSep := "."
		if strings.LastIndex(clean, ".") > strings.LastIndex(clean, ",") {
			decimalSep, groupSep = ".", ","
		}
		clean = strings.ReplaceAll(clean, groupSep, "")
		clean = strings.Replace(clean, decimalSep, ".", 1)
	case dots+commas == 1:
		sep := "."
		if commas == 1 {
			sep = ","
		}
		idx := strings.Index(clean, sep)
		if len(clean)-idx-1 == 3 {
			clean = strings.ReplaceAll(clean, sep, "")
		} else {
			clean = strings.Replace(clean, sep, ".", 1)
		}
	case dots > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	case commas > 1:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	value, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// normalizeCurrency maps a symbol or code to its ISO 4217 code, or "".
func normalizeCurrency(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if code, ok := currencySymbols[key]; ok {
		return code
	}
	unit, err := currency.ParseISO(key)
	if err != nil {
		return ""
	}
	return unit.String()
}

type dateMatch struct {
	Date time.Time
	Pos  int
}

// findDate returns the first valid calendar date in the text.
func findDate(text string) (time.Time, bool) {
	var matches []dateMatch

	for _, m := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := buildDate(atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])); ok {
			matches = append(matches, dateMatch{d, m[0]})
		}
	}
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(text, -1) {
		day, month, year := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), expandYear(text[m[6]:m[7]])
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		if d, ok := buildDate(year, month, day); ok {
			matches = append(matches, dateMatch{d, m[0]})
		}
	}
	for _, m := range dayMonthDateRe.FindAllStringSubmatchIndex(text, -1) {
		month, ok := lookupMonth(text[m[4]:m[5]])
		if !ok {
			continue
		}
		if d, ok := buildDate(atoi(text[m[6]:m[7]]), int(month), atoi(text[m[2]:m[3]])); ok {
			matches = append(matches, dateMatch{d, m[0]})
		}
	}
	for _, m := range monthDayDateRe.FindAllStringSubmatchIndex(text, -1) {
		month, ok := lookupMonth(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if d, ok := buildDate(atoi(text[m[6]:m[7]]), int(month), atoi(text[m[4]:m[5]])); ok {
			matches = append(matches, dateMatch{d, m[0]})
		}
	}

	if len(matches) == 0 {
		return time.Time{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Pos < matches[j].Pos })
	return matches[0].Date, true
}

func buildDate(year, month, day int) (time.Time, bool) {
	if year < 2000 || year > 2100 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(raw string) int {
	year := atoi(raw)
	if len(raw) == 2 {
		year += 2000
	}
	return year
}

func lookupMonth(raw string) (time.Month, bool) {
	key := strings.ToLower(raw)
	if len(key) < 3 {
		return 0, false
	}
	month, ok := monthIndex[key[:3]]
	return month, ok
}

func atoi(raw string) int {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func findTime(text string) (string, bool) {
	m := timeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	out := pad2(m[1]) + ":" + m[2]
	if m[3] != "" {
		out += ":" + m[3]
	}
	return out, true
}

func pad2(v string) string {
	if len(v) == 1 {
		return "0" + v
	}
	return v
}

func findRecipient(text string) (string, bool) {
	m := recipientRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(recipientTail.ReplaceAllString(strings.TrimSpace(m[1]), ""))
	if name == "" {
		return "", false
	}
	return name, true
}

func findTransactionID(text string) (string, bool) {
	for _, m := range transactionRe.FindAllStringSubmatch(text, -1) {
		id := strings.ToUpper(m[1])
		if strings.ContainsAny(id, "0123456789") {
			return id, true
		}
	}
	return "", false
}

func findOrderNumber(text string) (string, bool) {
	m := orderNumberRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
