// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textsource supplies the plain text of each page of a catalog.
// PDFs are read natively; a PDF with too little native text is treated as
// scanned and sent through an OCR container. Pre-extracted text is read
// from page_NNNN.txt directories or form-feed separated .txt files.
package textsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	defaultMinNativeChars = 50
	pageSeparator         = "\f"
)

// ErrNoText is returned for a scanned PDF when no OCR engine is configured.
var ErrNoText = errors.New("document has no text layer")

var rePageText = regexp.MustCompile(`^page_(\d+)\.txt$`)

// PageOCR extracts page texts from a scanned document.
type PageOCR interface {
	Pages(ctx context.Context, pdfPath string) ([]types.Page, error)
}

// Source reads page texts from PDFs, page-text directories and .txt files.
type Source struct {
	minNativeChars int
	ocr            PageOCR
	native         func(path string) ([]types.Page, error)
}

// New returns a Source. ocr may be nil, in which case scanned PDFs fail
// with ErrNoText.
func New(cfg types.TextSourceConfig, ocr PageOCR) *Source {
	minChars := cfg.MinNativeChars
	if minChars <= 0 {
		minChars = defaultMinNativeChars
	}
	return &Source{minNativeChars: minChars, ocr: ocr, native: pdfPages}
}

// ReadPages returns the pages of the document at path, numbered from 1.
func (s *Source) ReadPages(ctx context.Context, path string) ([]types.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return readPageDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return SplitPages(string(data)), nil
	case ".pdf":
		return s.readPDF(ctx, path)
	}
	return nil, fmt.Errorf("unsupported document type %s", path)
}

func (s *Source) readPDF(ctx context.Context, path string) ([]types.Page, error) {
	pages, err := s.native(path)
	if err != nil {
		return nil, err
	}
	if !Scanned(pages, s.minNativeChars) {
		return pages, nil
	}
	if s.ocr == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoText)
	}
	ocrPages, err := s.ocr.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", path, err)
	}
	return ocrPages, nil
}

// Scanned reports whether the pages carry fewer than minChars characters
// of text in total.
func Scanned(pages []types.Page, minChars int) bool {
	n := 0
	for _, p := range pages {
		n += utf8.RuneCountInString(strings.TrimSpace(p.Text))
		if n >= minChars {
			return false
		}
	}
	return true
}

// SplitPages splits form-feed separated text into numbered pages. A
// trailing form feed does not start an extra page.
func SplitPages(text string) []types.Page {
	text = strings.TrimSuffix(text, pageSeparator)
	if text == "" {
		return []types.Page{}
	}
	parts := strings.Split(text, pageSeparator)
	pages := make([]types.Page, len(parts))
	for i, p := range parts {
		pages[i] = types.Page{Number: i + 1, Text: p}
	}
	return pages
}

func readPageDir(dir string) ([]types.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading page directory %s: %w", dir, err)
	}
	var pages []types.Page
	for _, e := range entries {
		m := rePageText.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		pages = append(pages, types.Page{Number: n, Text: string(data)})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page_NNNN.txt files in %s", dir)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// pdfPages extracts the native text layer of every page. Pages whose text
// cannot be read are returned empty so that numbering is preserved.
func pdfPages(path string) ([]types.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]types.Page, 0, total)
	for i := 1; i <= total; i++ {
		p := types.Page{Number: i}
		page := reader.Page(i)
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				p.Text = text
			}
		}
		pages = append(pages, p)
	}
	return pages, nil
}
