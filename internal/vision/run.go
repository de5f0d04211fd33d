// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vision reads catalog pages from rendered page images with a
// vision model. Each page becomes a validated page document; the documents
// of a run are reconciled by SKU with the same engine as the text path.
package vision

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Output names written under the run directory.
const (
	PageJSONDir = "page_json"
	SummaryFile = "run_summary.json"
)

var rePageImage = regexp.MustCompile(`^page_(\d+)\.png$`)

// Backend reads one page image and returns the model's JSON object.
type Backend interface {
	ExtractPage(ctx context.Context, image []byte, page int) (map[string]any, error)
}

// PageImage is a rendered page on disk.
type PageImage struct {
	Page int
	Path string
}

// PageError records a page that failed every attempt.
type PageError struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// RunSummary is written to run_summary.json at the end of a run.
type RunSummary struct {
	RunID          string      `json:"run_id"`
	Catalog        string      `json:"catalog"`
	Cycle          string      `json:"cycle"`
	Model          string      `json:"model,omitempty"`
	PagesRendered  int         `json:"pages_total_rendered"`
	PagesOK        int         `json:"pages_ok"`
	PagesError     int         `json:"pages_error"`
	ErrorPages     []PageError `json:"error_pages"`
	SKUsMerged     int         `json:"skus_merged"`
	UnmatchedItems int         `json:"unmatched_items"`
	Conflicts      int         `json:"conflicts"`
	OutputDir      string      `json:"output_dir"`
}

// backoffBase controls the base duration for exponential backoff between
// page attempts. Tests override it.
var backoffBase = time.Second

// defaultMaxRetries is used when the config leaves MaxRetries unset.
const defaultMaxRetries = 1

// OutputDir returns the run directory for cfg, defaulting to
// output/vision/<catalog>/<cycle>.
func OutputDir(cfg types.VisionConfig) string {
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return filepath.Join("output", "vision", cfg.Catalog, cfg.Cycle)
}

// ListPages returns the page_NNNN.png images in dir ordered by page number
// and restricted to the configured range. EndPage is inclusive; MaxPages
// caps the count after the range is applied.
func ListPages(dir string, start, end, max int) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory: %w", err)
	}
	var pages []PageImage
	for _, e := range entries {
		m := rePageImage.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if n < 1 || (start > 0 && n < start) || (end > 0 && n > end) {
			continue
		}
		pages = append(pages, PageImage{Page: n, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	if max > 0 && len(pages) > max {
		pages = pages[:max]
	}
	return pages, nil
}

// Run sends every selected page image to backend, writes one page
// document per page, reconciles the successful pages and writes the merge
// outputs plus run_summary.json. A page that fails every attempt is
// written as an error document and left out of the merge. Progress is
// written to w.
func Run(ctx context.Context, backend Backend, cfg types.VisionConfig, w io.Writer) (RunSummary, error) {
	outDir := OutputDir(cfg)
	pageDir := filepath.Join(outDir, PageJSONDir)
	if err := os.MkdirAll(pageDir, 0o755); err != nil {
		return RunSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	pages, err := ListPages(cfg.ImagesDir, cfg.StartPage, cfg.EndPage, cfg.MaxPages)
	if err != nil {
		return RunSummary{}, err
	}
	if len(pages) == 0 {
		return RunSummary{}, fmt.Errorf("no page images found in %s", cfg.ImagesDir)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	summary := RunSummary{
		RunID:         uuid.NewString(),
		Catalog:       cfg.Catalog,
		Cycle:         cfg.Cycle,
		Model:         cfg.Model,
		PagesRendered: len(pages),
		ErrorPages:    []PageError{},
		OutputDir:     outDir,
	}

	var docs []types.PageDocument
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 && cfg.Sleep > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(cfg.Sleep):
			}
		}

		doc, raw, err := extractWithRetry(ctx, backend, img, maxRetries)
		jsonPath := filepath.Join(pageDir, reconcile.PageFileName(img.Page))
		if err != nil {
			doc = types.PageDocument{Page: img.Page, Items: []types.ProductEntity{}, Error: err.Error()}
			summary.ErrorPages = append(summary.ErrorPages, PageError{Page: img.Page, Error: doc.Error})
			fmt.Fprintf(w, "failed  page %d: %v\n", img.Page, err)
		} else {
			docs = append(docs, doc)
			fmt.Fprintf(w, "read    page %d (%d items)\n", img.Page, len(doc.Items))
		}
		if raw != "" {
			rawPath := filepath.Join(pageDir, fmt.Sprintf("page_%04d.raw.txt", img.Page))
			if werr := os.WriteFile(rawPath, []byte(raw), 0o644); werr != nil {
				return summary, fmt.Errorf("writing raw output: %w", werr)
			}
		}
		if err := reconcile.WriteJSON(jsonPath, doc); err != nil {
			return summary, err
		}
	}

	res := reconcile.Merge(docs, cfg.Catalog, cfg.Cycle)
	if err := reconcile.Write(outDir, res); err != nil {
		return summary, err
	}

	summary.PagesOK = len(docs)
	summary.PagesError = len(summary.ErrorPages)
	summary.SKUsMerged = len(res.BySKU)
	summary.UnmatchedItems = len(res.Unmatched)
	summary.Conflicts = len(res.Conflicts)
	if err := reconcile.WriteJSON(filepath.Join(outDir, SummaryFile), summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// extractWithRetry reads and validates one page with exponential backoff
// between attempts. The raw model output of the last attempt is returned
// when it was not JSON.
func extractWithRetry(ctx context.Context, backend Backend, img PageImage, maxRetries int) (types.PageDocument, string, error) {
	image, err := os.ReadFile(img.Path)
	if err != nil {
		return types.PageDocument{}, "", fmt.Errorf("reading page image: %w", err)
	}

	var lastErr error
	var raw string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.PageDocument{}, raw, ctx.Err()
			case <-time.After(backoff):
			}
		}

		payload, err := backend.ExtractPage(ctx, image, img.Page)
		if err != nil {
			lastErr = err
			continue
		}
		raw = ""
		if s, ok := payload[RawOutputKey].(string); ok {
			raw = s
			delete(payload, RawOutputKey)
		}
		doc, err := Validate(payload, img.Page)
		if err != nil {
			lastErr = err
			continue
		}
		return doc, raw, nil
	}
	return types.PageDocument{}, raw, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
