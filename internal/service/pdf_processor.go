package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"newspaper-reader/internal/domain"
)

// DefaultMaxPages is the page cap applied when none is configured.
const DefaultMaxPages = 50

const defaultPageTimeout = 90 * time.Second

// PDFProcessor handles PDF text extraction. It implements domain.TextExtractor.
type PDFProcessor struct {
	engines     []pdfEngine
	maxPages    int
	pageTimeout time.Duration
	logger      domain.Logger
}

// PDFProcessorOption customizes a PDFProcessor.
type PDFProcessorOption func(*PDFProcessor)

// WithMaxPages caps the number of pages read. Zero or less reads every page.
func WithMaxPages(n int) PDFProcessorOption {
	return func(p *PDFProcessor) { p.maxPages = n }
}

// WithPageTimeout bounds the time spent on a single page.
func WithPageTimeout(d time.Duration) PDFProcessorOption {
	return func(p *PDFProcessor) {
		if d > 0 {
			p.pageTimeout = d
		}
	}
}

// WithEngine selects the primary PDF engine ("fitz" or "native"); the other one becomes the fallback.
func WithEngine(name string) PDFProcessorOption {
	return func(p *PDFProcessor) {
		if name == nativeEngine.name {
			p.engines = []pdfEngine{nativeEngine, fitzEngine}
			return
		}
		p.engines = []pdfEngine{fitzEngine, nativeEngine}
	}
}

func withEngines(engines ...pdfEngine) PDFProcessorOption {
	return func(p *PDFProcessor) { p.engines = engines }
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger, opts ...PDFProcessorOption) *PDFProcessor {
	p := &PDFProcessor{
		engines:     []pdfEngine{fitzEngine, nativeEngine},
		maxPages:    DefaultMaxPages,
		pageTimeout: defaultPageTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract reads the text layer of every page (up to the page cap), normalizes it and joins pages with a
// line break. When ctx is cancelled between pages the text read so far is returned together with an error.
func (p *PDFProcessor) Extract(ctx context.Context, pdfBytes []byte) (*domain.Extraction, error) {
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrExtractionFailed)
	}

	src, engine, err := p.open(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	// A page abandoned on timeout or cancellation may still be reading from src.
	var inflight sync.WaitGroup
	defer func() {
		go func() {
			inflight.Wait()
			_ = src.Close()
		}()
	}()

	numPages, err := pageCount(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, engine, err)
	}
	if numPages <= 0 {
		return nil, fmt.Errorf("%w: %s: document has no pages", domain.ErrExtractionFailed, engine)
	}
	limit := numPages
	if p.maxPages > 0 && limit > p.maxPages {
		limit = p.maxPages
	}

	result := &domain.Extraction{
		PageCount: numPages,
		Truncated: limit < numPages,
	}
	pages := make([]string, 0, limit)

	for pageNum := 0; pageNum < limit; pageNum++ {
		if err := ctx.Err(); err != nil {
			result.Text = strings.Join(pages, "\n")
			result.Partial = true
			return result, fmt.Errorf("%w: aborted after %d of %d pages: %w", domain.ErrExtractionFailed, pageNum, limit, err)
		}

		p.logger.Debug("PDF processing page", "page", pageNum+1, "total", limit, "engine", engine)
		text, err := p.pageText(ctx, src, pageNum, &inflight)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			result.PagesRead = pageNum + 1
			p.logger.Warn("Failed to extract text from page", "page_num", pageNum+1, "total", limit, "error", err)
			continue
		}

		result.PagesRead = pageNum + 1
		if text = NormalizePageText(text); text != "" {
			pages = append(pages, text)
		}
	}

	if err := ctx.Err(); err != nil {
		result.Text = strings.Join(pages, "\n")
		result.Partial = true
		return result, fmt.Errorf("%w: aborted: %w", domain.ErrExtractionFailed, err)
	}

	result.Text = strings.Join(pages, "\n")
	if result.Truncated {
		p.logger.Info("PDF page cap reached", "page_count", numPages, "pages_read", limit)
	}
	return result, nil
}

func (p *PDFProcessor) open(pdfBytes []byte) (pageSource, string, error) {
	var errs []error
	for _, engine := range p.engines {
		src, err := openEngine(engine, pdfBytes)
		if err == nil {
			return src, engine.name, nil
		}
		p.logger.Debug("PDF engine rejected payload", "engine", engine.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", engine.name, err))
	}
	if len(errs) == 0 {
		return nil, "", errors.New("no pdf engine configured")
	}
	return nil, "", errors.Join(errs...)
}

// openEngine keeps a panicking engine from taking the caller down with it.
func openEngine(engine pdfEngine, pdfBytes []byte) (src pageSource, err error) {
	defer recoverMalformed(&err)
	return engine.open(pdfBytes)
}

func pageCount(src pageSource) (n int, err error) {
	defer recoverMalformed(&err)
	return src.NumPage(), nil
}

// pageText runs a single page extraction bounded by the page timeout and the caller's context.
func (p *PDFProcessor) pageText(ctx context.Context, src pageSource, idx int, inflight *sync.WaitGroup) (string, error) {
	type pageResult struct {
		text string
		err  error
	}

	resultCh := make(chan pageResult, 1)
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		var res pageResult
		func() {
			defer recoverMalformed(&res.err)
			res.text, res.err = src.Text(idx)
		}()
		resultCh <- res
	}()

	timer := time.NewTimer(p.pageTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.text, res.err
	case <-timer.C:
		p.logger.Warn("PDF page extraction timeout; using empty page", "page", idx+1, "timeout_sec", int(p.pageTimeout.Seconds()))
		return "", fmt.Errorf("timeout after %v", p.pageTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
