package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var ErrEmptyPDF = errors.New("rendered PDF has no pages")

// Verify parses a rendered PDF and returns its page count.
func Verify(data []byte) (pages int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	pages = reader.NumPage()
	if pages == 0 {
		return 0, ErrEmptyPDF
	}
	return pages, nil
}
