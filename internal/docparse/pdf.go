package docparse

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF emits one chunk per page that has extractable text. The pdf
// reader panics on some malformed cross-reference tables; those come back as
// errors.
func ParsePDF(r io.ReaderAt, size int64, source string) (chunks []Chunk, err error) {
	if size == 0 {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			chunks, err = nil, fmt.Errorf("parse pdf %s failed: %v", source, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d failed: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content: text,
			Source:  source,
			Page:    i,
			Type:    TypePDF,
		})
	}
	return chunks, nil
}
