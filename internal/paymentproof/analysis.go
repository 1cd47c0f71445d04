// Package paymentproof reads bank transfer receipts, scores how well they match
// the order they were uploaded for, and drives the upload flow.
package paymentproof

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Document is an uploaded proof. ContentType is a client hint; the bytes are
// sniffed regardless.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Expected holds the order facts a proof is checked against.
type Expected struct {
	Amount      decimal.Decimal
	Currency    string
	OrderNumber string
	Recipient   *string
}

// Analysis is the advisory result of analyzing one proof. It is never persisted.
type Analysis struct {
	DetectedAmount        *decimal.Decimal `json:"detectedAmount,omitempty"`
	DetectedCurrency      *string          `json:"detectedCurrency,omitempty"`
	DetectedDate          *time.Time       `json:"detectedDate,omitempty"`
	DetectedTime          *string          `json:"detectedTime,omitempty"`
	DetectedRecipient     *string          `json:"detectedRecipient,omitempty"`
	DetectedBankName      *string          `json:"detectedBankName,omitempty"`
	DetectedTransactionID *string          `json:"detectedTransactionId,omitempty"`
	DetectedOrderNumber   *string          `json:"detectedOrderNumber,omitempty"`
	ExtractionConfidence  float64          `json:"extractionConfidence"`
	ConfidenceScore       float64          `json:"confidenceScore"`
	IsAutoVerifiable      bool             `json:"isAutoVerifiable"`
	AnalysisDetails       []string         `json:"analysisDetails"`
}

func (a *Analysis) note(format string, args ...any) {
	a.AnalysisDetails = append(a.AnalysisDetails, fmt.Sprintf(format, args...))
}
