// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	defaultWorkers = 4
	sampleLines    = 6
	summaryYAML    = "summary.yaml"
	summaryCSV     = "summary.csv"
)

// PageReader supplies the page texts of a document.
type PageReader interface {
	ReadPages(ctx context.Context, path string) ([]types.Page, error)
}

// PageResult is the classification of one page with its signals.
type PageResult struct {
	Page         int              `json:"page" yaml:"page"`
	DetectedType types.LayoutType `json:"detected_type" yaml:"detected_type"`
	Signal       types.PageSignal `json:"signal" yaml:"signal"`
	Summary      string           `json:"summary" yaml:"summary"`
	LineCount    int              `json:"line_count" yaml:"line_count"`
	Sample       []string         `json:"sample" yaml:"sample"`
}

// DocumentResult is the classification of every page of one document.
type DocumentResult struct {
	Document   string                   `json:"document" yaml:"document"`
	TotalPages int                      `json:"total_pages" yaml:"total_pages"`
	Counts     map[types.LayoutType]int `json:"counts" yaml:"counts"`
	Pages      []PageResult             `json:"pages" yaml:"pages"`
}

// Meta returns the routing metadata for the given page, or false when the
// page was not classified.
func (r DocumentResult) Meta(page int) (types.PageMeta, bool) {
	for _, p := range r.Pages {
		if p.Page == page {
			return types.PageMeta{Page: p.Page, DetectedType: p.DetectedType}, true
		}
	}
	return types.PageMeta{}, false
}

// Document classifies all pages of one document. Pages are classified
// concurrently; the result lists them in ascending page order.
func Document(ctx context.Context, name string, pages []types.Page, workers int) (DocumentResult, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([]PageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lt, sig := Page(p.Text)
			sample := sig.Lines
			if len(sample) > sampleLines {
				sample = sample[:sampleLines]
			}
			results[i] = PageResult{
				Page:         p.Number,
				DetectedType: lt,
				Signal:       sig,
				Summary:      sig.Summary(),
				LineCount:    len(sig.Lines),
				Sample:       sample,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DocumentResult{}, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Page < results[j].Page })

	counts := make(map[types.LayoutType]int)
	for _, r := range results {
		counts[r.DetectedType]++
	}

	return DocumentResult{
		Document:   name,
		TotalPages: len(pages),
		Counts:     counts,
		Pages:      results,
	}, nil
}

// DocumentRow is the per-document line of a Summary.
type DocumentRow struct {
	Document   string                   `json:"document" yaml:"document"`
	TotalPages int                      `json:"total_pages" yaml:"total_pages"`
	Counts     map[types.LayoutType]int `json:"counts" yaml:"counts"`
}

// Summary aggregates classification counts across documents.
type Summary struct {
	TotalDocuments int                      `json:"total_documents" yaml:"total_documents"`
	GlobalCounts   map[types.LayoutType]int `json:"global_counts" yaml:"global_counts"`
	PerDocument    []DocumentRow            `json:"per_document" yaml:"per_document"`
}

// Summarize aggregates the given document results.
func Summarize(results []DocumentResult) Summary {
	s := Summary{
		TotalDocuments: len(results),
		GlobalCounts:   make(map[types.LayoutType]int),
	}
	for _, r := range results {
		for lt, n := range r.Counts {
			s.GlobalCounts[lt] += n
		}
		s.PerDocument = append(s.PerDocument, DocumentRow{
			Document:   r.Document,
			TotalPages: r.TotalPages,
			Counts:     r.Counts,
		})
	}
	return s
}

// CollectSKUs returns the union of SKU-like tokens found across documents,
// sorted numerically.
func CollectSKUs(results []DocumentResult) []string {
	seen := map[string]bool{}
	skus := []string{}
	for _, r := range results {
		for _, p := range r.Pages {
			for _, sku := range p.Signal.SKUs {
				if !seen[sku] {
					seen[sku] = true
					skus = append(skus, sku)
				}
			}
		}
	}
	types.SortSKUs(skus)
	return skus
}

// BatchSummary holds counts from a batch classification run.
type BatchSummary struct {
	Classified int
	Failed     int
	Results    []DocumentResult
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ClassifyAll reads and classifies each document, writing one YAML result
// per document plus summary.yaml and summary.csv to cfg.OutputDir. A
// document that cannot be read is reported on w and counted as failed.
func ClassifyAll(ctx context.Context, reader PageReader, paths []string, cfg types.ClassifyConfig, w io.Writer) (BatchSummary, error) {
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var summary BatchSummary
	for _, path := range paths {
		name := DocumentName(path)

		pages, err := reader.ReadPages(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		result, err := Document(ctx, name, pages, cfg.Workers)
		if err != nil {
			return summary, fmt.Errorf("classifying %s: %w", name, err)
		}

		if cfg.OutputDir != "" {
			out := filepath.Join(cfg.OutputDir, name+"_classification.yaml")
			if err := writeYAML(out, result); err != nil {
				fmt.Fprintf(w, "failed  %s: write error: %v\n", name, err)
				summary.Failed++
				continue
			}
		}

		fmt.Fprintf(w, "classified %s (%d pages)\n", name, result.TotalPages)
		summary.Classified++
		summary.Results = append(summary.Results, result)
	}

	if cfg.OutputDir != "" && len(summary.Results) > 0 {
		s := Summarize(summary.Results)
		if err := writeYAML(filepath.Join(cfg.OutputDir, summaryYAML), s); err != nil {
			return summary, err
		}
		if err := WriteSummaryCSV(filepath.Join(cfg.OutputDir, summaryCSV), s); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// WriteSummaryCSV writes one row per document with a column per layout
// type seen in any document.
func WriteSummaryCSV(path string, s Summary) error {
	var layouts []types.LayoutType
	for lt := range s.GlobalCounts {
		layouts = append(layouts, lt)
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i] < layouts[j] })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"document", "total_pages"}
	for _, lt := range layouts {
		header = append(header, string(lt))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range s.PerDocument {
		rec := []string{row.Document, strconv.Itoa(row.TotalPages)}
		for _, lt := range layouts {
			rec = append(rec, strconv.Itoa(row.Counts[lt]))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadResult reads a classification result previously written by ClassifyAll.
func LoadResult(path string) (DocumentResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("reading classification %s: %w", path, err)
	}
	var r DocumentResult
	if err := yaml.Unmarshal(data, &r); err != nil {
		return DocumentResult{}, fmt.Errorf("parsing classification %s: %w", path, err)
	}
	return r, nil
}

// DocumentName derives a document name from its path (file name without
// extension).
func DocumentName(path string) string {
	base := filepath.Base(strings.TrimRight(path, string(filepath.Separator)))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
