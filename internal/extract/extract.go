// Package extract converts one PDF document's bytes into a single text blob.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when every page of a document yields empty text. A
// document with nothing extractable is a hard failure, not an empty success.
var ErrNoText = errors.New("document contains no extractable text")

// document is the slice of the PDF reader the extractor needs. Tests swap
// openDocument to feed synthetic pages.
type document interface {
	pageCount() int
	pageText(i int) (string, error)
}

var openDocument = func(b []byte) (doc document, err error) {
	// The reader panics on some malformed files; keep that inside this seam.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return &pdfDocument{reader: reader}, nil
}

type pdfDocument struct {
	reader *pdf.Reader
}

func (d *pdfDocument) pageCount() int { return d.reader.NumPage() }

func (d *pdfDocument) pageText(i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", i, r)
		}
	}()

	page := d.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// Extract reads a paginated document, extracts text per page, discards pages
// with no text, and joins the rest with a blank line in page order. It is a
// pure function of the input bytes. A page that fails to render counts as
// empty; a document where every page is empty fails with ErrNoText.
func Extract(doc []byte) (string, error) {
	d, err := openDocument(doc)
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= d.pageCount(); i++ {
		text, err := d.pageText(i)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return "", ErrNoText
	}

	return strings.Join(pages, "\n\n"), nil
}
