package paymentproof

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const defaultExtractTimeout = 10 * time.Second

// AnalyzerParams wires an Analyzer.
type AnalyzerParams struct {
	Logger    *logger.Logger
	Extractor TextExtractor
	Banks     *BankMatcher
	Timeout   time.Duration
	Now       func() time.Time
}

// Analyzer scores payment proofs against the order they claim to pay.
type Analyzer struct {
	logg      *logger.Logger
	extractor TextExtractor
	banks     *BankMatcher
	timeout   time.Duration
	now       func() time.Time
}

func NewAnalyzer(params AnalyzerParams) (*Analyzer, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Extractor == nil {
		return nil, fmt.Errorf("text extractor required")
	}
	banks := params.Banks
	if banks == nil {
		banks = DefaultBanks()
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{logg: params.Logger, extractor: params.Extractor, banks: banks, timeout: timeout, now: now}, nil
}

// Analyze extracts text from doc and scores it. Extraction failures and
// timeouts produce a zero-confidence analysis instead of an error.
func (a *Analyzer) Analyze(ctx context.Context, doc Document, expected Expected) Analysis {
	extraction, err := a.extract(ctx, doc)
	if err != nil {
		a.logg.Warn(a.logg.WithFields(ctx, map[string]any{
			"filename": doc.Filename,
			"error":    err.Error(),
		}), "payment proof text extraction failed")
		analysis := Analysis{}
		analysis.note("text extraction failed: %v", err)
		analysis.note("confidence 0.00, manual review required")
		return analysis
	}
	if strings.TrimSpace(extraction.Text) == "" {
		analysis := Analysis{ExtractionConfidence: extraction.Confidence}
		analysis.note("no text found in %s document", orUnknown(extraction.MimeType))
		analysis.note("confidence 0.00, manual review required")
		return analysis
	}
	analysis := a.AnalyzeText(extraction.Text, expected)
	analysis.ExtractionConfidence = extraction.Confidence
	return analysis
}

// extract runs the extractor under the analyzer timeout and gives up on it
// even if it ignores cancellation.
func (a *Analyzer) extract(ctx context.Context, doc Document) (Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		extraction Extraction
		err        error
	}
	done := make(chan result, 1)
	go func() {
		extraction, err := a.extractor.Extract(ctx, doc)
		done <- result{extraction, err}
	}()

	select {
	case res := <-done:
		return res.extraction, res.err
	case <-ctx.Done():
		return Extraction{}, fmt.Errorf("extraction timed out: %w", ctx.Err())
	}
}

// AnalyzeText extracts fields from already recognised text and scores them.
func (a *Analyzer) AnalyzeText(text string, expected Expected) Analysis {
	var analysis Analysis
	score := 0.0

	amountOK := false
	candidates := findAmounts(text)
	if picked, ok := pickAmount(candidates, expected.Amount); ok {
		amount := picked.Amount
		analysis.DetectedAmount = &amount
		s := amountScore(amount, expected.Amount)
		score += WeightAmount * s
		amountOK = withinTolerance(amount, expected.Amount)
		analysis.note("amount %s detected (expected %s, %d candidates), credit %.2f", amount.String(), expected.Amount.String(), len(candidates), s)
		if picked.Currency != "" {
			cur := picked.Currency
			analysis.DetectedCurrency = &cur
		}
	} else {
		analysis.note("no amount detected")
	}

	if analysis.DetectedCurrency == nil {
		for _, c := range candidates {
			if c.Currency != "" {
				cur := c.Currency
				analysis.DetectedCurrency = &cur
				break
			}
		}
	}
	if analysis.DetectedCurrency != nil {
		if strings.EqualFold(*analysis.DetectedCurrency, expected.Currency) {
			score += WeightCurrency
			analysis.note("currency %s matches", *analysis.DetectedCurrency)
		} else {
			analysis.note("currency %s does not match expected %s", *analysis.DetectedCurrency, expected.Currency)
		}
	} else {
		analysis.note("no currency detected")
	}

	dateOK := true
	if date, ok := findDate(text); ok {
		analysis.DetectedDate = &date
		age := proofAgeDays(date, a.now())
		s := dateScore(age)
		score += WeightDate * s
		dateOK = isRecent(age)
		switch {
		case age < -1:
			analysis.note("date %s is in the future", date.Format("2006-01-02"))
		default:
			analysis.note("date %s is %d days old, credit %.2f", date.Format("2006-01-02"), age, s)
		}
	} else {
		analysis.note("no date detected")
	}

	if clock, ok := findTime(text); ok {
		analysis.DetectedTime = &clock
	}

	if recipient, ok := findRecipient(text); ok {
		analysis.DetectedRecipient = &recipient
		if expected.Recipient != nil && strings.TrimSpace(*expected.Recipient) != "" {
			sim := nameSimilarity(recipient, *expected.Recipient)
			score += WeightRecipient * sim
			analysis.note("recipient %q similarity %.2f", recipient, sim)
		} else {
			analysis.note("recipient %q detected, no expected recipient to compare", recipient)
		}
	} else {
		analysis.note("no recipient detected")
	}

	if bank, ok := a.banks.Find(text); ok {
		analysis.DetectedBankName = &bank
		score += WeightBank
		analysis.note("bank %s recognised", bank)
	} else {
		analysis.note("no known bank found")
	}

	if id, ok := findTransactionID(text); ok {
		analysis.DetectedTransactionID = &id
	}
	otherOrder := false
	if number, ok := findOrderNumber(text); ok {
		analysis.DetectedOrderNumber = &number
		if expected.OrderNumber != "" && number != expected.OrderNumber {
			otherOrder = true
			analysis.note("proof references order %s, not %s", number, expected.OrderNumber)
		}
	}

	analysis.ConfidenceScore = clamp01(math.Round(score*10000) / 10000)
	analysis.IsAutoVerifiable = analysis.ConfidenceScore >= AutoVerifyThreshold && amountOK && dateOK && !otherOrder
	if analysis.IsAutoVerifiable {
		analysis.note("confidence %.2f, eligible for automatic verification", analysis.ConfidenceScore)
	} else {
		analysis.note("confidence %.2f, manual review required", analysis.ConfidenceScore)
	}
	return analysis
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
