package paymentproof

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedDocument is returned for documents no extractor can read.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// Extraction is the text recovered from a document and how much the
// extractor trusts it, in [0,1].
type Extraction struct {
	Text       string
	Confidence float64
	MimeType   string
}

// TextExtractor turns a document into text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) (Extraction, error)
}

type mimeGroup string

const (
	mimeGroupText   mimeGroup = "text"
	mimeGroupImages mimeGroup = "images"
	mimeGroupPDFs   mimeGroup = "pdfs"
)

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupText:   {"text/plain", "text/csv", "text/html"},
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif", "image/tiff", "image/bmp"},
	mimeGroupPDFs:   {"application/pdf"},
}

// sniff detects the document type from its bytes.
func sniff(data []byte) (*mimetype.MIME, mimeGroup) {
	detected := mimetype.Detect(data)
	for group, types := range mimeGroupTypes {
		for _, candidate := range types {
			if detected.Is(candidate) {
				return detected, group
			}
		}
	}
	return detected, ""
}

// PlainTextExtractor reads text documents as-is.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, doc Document) (Extraction, error) {
	if !utf8.Valid(doc.Data) {
		return Extraction{}, fmt.Errorf("document is not valid UTF-8")
	}
	return Extraction{Text: string(bytes.TrimSpace(doc.Data)), Confidence: 1, MimeType: "text/plain"}, nil
}

// RoutingExtractor picks an extractor by sniffed content type. Images and
// PDFs go to OCR; when OCR is nil they are unsupported.
type RoutingExtractor struct {
	Text TextExtractor
	OCR  TextExtractor
}

// NewRoutingExtractor routes text to a PlainTextExtractor and everything
// else to ocr.
func NewRoutingExtractor(ocr TextExtractor) *RoutingExtractor {
	return &RoutingExtractor{Text: PlainTextExtractor{}, OCR: ocr}
}

func (r *RoutingExtractor) Extract(ctx context.Context, doc Document) (Extraction, error) {
	if len(doc.Data) == 0 {
		return Extraction{}, fmt.Errorf("document is empty")
	}
	detected, group := sniff(doc.Data)

	var (
		out Extraction
		err error
	)
	switch group {
	case mimeGroupText:
		out, err = r.Text.Extract(ctx, doc)
	case mimeGroupImages, mimeGroupPDFs:
		if r.OCR == nil {
			return Extraction{MimeType: detected.String()}, fmt.Errorf("%w: no OCR backend for %s", ErrUnsupportedDocument, detected.String())
		}
		out, err = r.OCR.Extract(ctx, doc)
	default:
		return Extraction{MimeType: detected.String()}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, detected.String())
	}
	out.MimeType = strings.SplitN(detected.String(), ";", 2)[0]
	return out, err
}
