package ocr

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfText reads the embedded text layer of a PDF receipt. Scanned PDFs with
// no text layer come back empty, which downstream treats as zero items.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
