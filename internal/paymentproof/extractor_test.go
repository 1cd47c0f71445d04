package paymentproof

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestRoutingExtractorReadsText(t *testing.T) {
	router := NewRoutingExtractor(nil)

	out, err := router.Extract(context.Background(), Document{Data: []byte("  Transfer Rp 10.000  \n")})
	require.NoError(t, err)
	assert.Equal(t, "Transfer Rp 10.000", out.Text)
	assert.Equal(t, 1.0, out.Confidence)
	assert.Equal(t, "text/plain", out.MimeType)
}

func TestRoutingExtractorSendsImagesToOCR(t *testing.T) {
	ocr := &stubExtractor{extraction: Extraction{Text: "Rp 10.000", Confidence: 0.8}}
	router := NewRoutingExtractor(ocr)

	out, err := router.Extract(context.Background(), Document{Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "Rp 10.000", out.Text)
	assert.Equal(t, "image/png", out.MimeType)

	out, err = router.Extract(context.Background(), Document{Data: []byte("%PDF-1.4\n%âãÏÓ\n")})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.MimeType)
}

func TestRoutingExtractorRejectsUnsupported(t *testing.T) {
	_, err := NewRoutingExtractor(nil).Extract(context.Background(), Document{Data: pngHeader})
	assert.True(t, errors.Is(err, ErrUnsupportedDocument))

	_, err = NewRoutingExtractor(&stubExtractor{}).Extract(context.Background(), Document{Data: []byte{0x00, 0x01, 0x02, 0x03, 0xff}})
	assert.True(t, errors.Is(err, ErrUnsupportedDocument))

	_, err = NewRoutingExtractor(nil).Extract(context.Background(), Document{})
	assert.Error(t, err)
}

func TestParseTesseractTSV(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t10\t20\t10\t96.5\tTransfer",
		"5\t1\t1\t1\t1\t2\t35\t10\t20\t10\t93.5\tBerhasil",
		"5\t1\t1\t1\t2\t1\t10\t30\t20\t10\t90\tRp",
		"5\t1\t1\t1\t2\t2\t35\t30\t20\t10\t88\t\"150.000\"",
	}, "\n")

	out, err := parseTesseractTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	assert.Equal(t, "Transfer Berhasil\nRp 150.000", out.Text)
	assert.InDelta(t, 0.92, out.Confidence, 1e-9)

	empty, err := parseTesseractTSV(strings.NewReader("level\tconf\n"))
	require.NoError(t, err)
	assert.Empty(t, empty.Text)
}

func TestTesseractExtractorMissingBinary(t *testing.T) {
	ocr := NewTesseractExtractor("/nonexistent/tesseract-bin", "")
	assert.Equal(t, "eng", ocr.Language)

	_, err := ocr.Extract(context.Background(), Document{Data: pngHeader})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}
