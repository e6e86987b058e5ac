package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PageCounter reads the page tree of a PDF.
type PageCounter struct{}

func NewPageCounter() *PageCounter {
	return &PageCounter{}
}

func (PageCounter) CountPages(ctx context.Context, data io.ReaderAt, size int64) (pages int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	n := reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}
