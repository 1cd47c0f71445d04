package paymentproof

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractExtractor runs the tesseract CLI and reads its TSV output.
type TesseractExtractor struct {
	Path     string
	Language string
}

// NewTesseractExtractor defaults to the binary on PATH and English.
func NewTesseractExtractor(path, language string) *TesseractExtractor {
	if strings.TrimSpace(path) == "" {
		path = "tesseract"
	}
	if strings.TrimSpace(language) == "" {
		language = "eng"
	}
	return &TesseractExtractor{Path: path, Language: language}
}

func (t *TesseractExtractor) Extract(ctx context.Context, doc Document) (Extraction, error) {
	cmd := exec.CommandContext(ctx, t.Path, "stdin", "stdout", "-l", t.Language, "tsv")
	cmd.Stdin = bytes.NewReader(doc.Data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Extraction{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Extraction{}, fmt.Errorf("tesseract exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return Extraction{}, fmt.Errorf("run tesseract: %w", err)
	}
	return parseTesseractTSV(&stdout)
}

// TSV columns: level page_num block_num par_num line_num word_num left top
// width height conf text.
const (
	tsvColumns = 12
	tsvBlock   = 2
	tsvPar     = 3
	tsvLine    = 4
	tsvConf    = 10
	tsvText    = 11
)

// parseTesseractTSV rebuilds lines from word rows and averages word confidence.
func parseTesseractTSV(r io.Reader) (Extraction, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var (
		lines    []string
		current  []string
		lastLine string
		confSum  float64
		words    int
		header   = true
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Extraction{}, fmt.Errorf("read tesseract output: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < tsvColumns {
			continue
		}
		text := strings.TrimSpace(record[tsvText])
		conf, err := strconv.ParseFloat(record[tsvConf], 64)
		if err != nil || conf < 0 || text == "" {
			continue
		}
		key := record[tsvBlock] + "/" + record[tsvPar] + "/" + record[tsvLine]
		if key != lastLine && len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
		lastLine = key
		current = append(current, text)
		confSum += conf
		words++
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	if words == 0 {
		return Extraction{}, nil
	}
	return Extraction{Text: strings.Join(lines, "\n"), Confidence: confSum / float64(words) / 100}, nil
}
