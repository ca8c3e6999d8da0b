package service

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/go-fitz"
	pdflib "github.com/ledongthuc/pdf"
)

// pageSource is an opened PDF that can be read page by page (0-indexed).
type pageSource interface {
	NumPage() int
	Text(page int) (string, error)
	Close() error
}

type pdfEngine struct {
	name string
	open func(pdfBytes []byte) (pageSource, error)
}

var (
	fitzEngine   = pdfEngine{name: "fitz", open: openFitz}
	nativeEngine = pdfEngine{name: "native", open: openNative}
)

// fitzSource reads pages through MuPDF.
type fitzSource struct {
	doc *fitz.Document
}

func openFitz(pdfBytes []byte) (pageSource, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzSource{doc: doc}, nil
}

func (s *fitzSource) NumPage() int {
	return s.doc.NumPage()
}

func (s *fitzSource) Text(page int) (string, error) {
	return s.doc.Text(page)
}

func (s *fitzSource) Close() error {
	return s.doc.Close()
}

// recoverMalformed turns a parser panic into an error. The pure Go parser panics on damaged
// object tables instead of reporting them.
func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF: %v", r)
	}
}

// nativeSource reads pages with the pure Go parser. It is used when MuPDF rejects a file.
type nativeSource struct {
	reader   *pdflib.Reader
	numPages int
}

func openNative(pdfBytes []byte) (src pageSource, err error) {
	defer recoverMalformed(&err)

	reader, err := pdflib.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	// Walking the page tree is where broken trailers surface, so do it while still recovering.
	return &nativeSource{reader: reader, numPages: reader.NumPage()}, nil
}

func (s *nativeSource) NumPage() int {
	return s.numPages
}

func (s *nativeSource) Text(page int) (text string, err error) {
	defer recoverMalformed(&err)

	p := s.reader.Page(page + 1)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (s *nativeSource) Close() error {
	return nil
}
