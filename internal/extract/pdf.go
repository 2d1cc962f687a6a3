package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text from a PDF on disk. It is a seam for tests
// and for swapping the PDF library; ExtractText is the production
// implementation.
type TextExtractor func(path string) (string, error)

// ExtractText reads the embedded text layer of a PDF. Scanned documents with
// no text layer yield an empty string or an error; callers treat both as a
// cue to rely on the multimodal model instead.
func ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}

	return buf.String(), nil
}
