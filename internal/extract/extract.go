// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns classified page text into product entities.
// Each layout type has its own parsing strategy; the Router picks the
// strategy for a page and drops entities that carry neither a name nor a
// price.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/catalog-engine/internal/classify"
	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const defaultWorkers = 4

// Strategy parses the normalized lines of one page. Implementations are
// pure: the same lines and metadata always yield the same entities.
type Strategy interface {
	Parse(lines []string, meta types.PageMeta) []types.ProductEntity
}

// DefaultOverrides routes every page of the wellness catalog to its
// dedicated strategy.
var DefaultOverrides = map[string]types.LayoutType{
	"holistic": types.LayoutHolistic,
}

type override struct {
	fragment string
	layout   types.LayoutType
}

// Router dispatches pages to strategies by layout type. Layout types
// without a strategy (EMPTY, LEGAL, PROMO_BANNER, SKU_ONLY, UNKNOWN) yield
// no entities.
type Router struct {
	strategies map[types.LayoutType]Strategy
	overrides  []override
}

// NewRouter returns a Router with the built-in strategies. Overrides map a
// case-insensitive document-name fragment to the layout type used for every
// page of matching documents; nil selects DefaultOverrides.
func NewRouter(overrides map[string]types.LayoutType) *Router {
	if overrides == nil {
		overrides = DefaultOverrides
	}
	r := &Router{
		strategies: map[types.LayoutType]Strategy{
			types.LayoutProductSimple: productSimple{},
			types.LayoutTonesList:     tonesList{},
			types.LayoutCombo:         combo{},
			types.LayoutDeToA:         deToA{},
			types.LayoutHolistic:      holistic{},
			types.LayoutSequential:    sequential{},
		},
	}
	for frag, lt := range overrides {
		frag = strings.ToLower(strings.TrimSpace(frag))
		if frag == "" {
			continue
		}
		r.overrides = append(r.overrides, override{fragment: frag, layout: lt})
	}
	// Longest fragment wins when several match.
	sort.Slice(r.overrides, func(i, j int) bool {
		a, b := r.overrides[i].fragment, r.overrides[j].fragment
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return r
}

// Register installs or replaces the strategy for a layout type.
func (r *Router) Register(lt types.LayoutType, s Strategy) {
	r.strategies[lt] = s
}

// Layout returns the layout type used for a page of the given document:
// the override for the document name if one matches, otherwise detected.
func (r *Router) Layout(documentName string, detected types.LayoutType) types.LayoutType {
	name := strings.ToLower(documentName)
	for _, o := range r.overrides {
		if strings.Contains(name, o.fragment) {
			return o.layout
		}
	}
	return detected
}

// Route parses one page. Every returned entity has a SKU, a name or a
// price and is stamped with the page number and the layout type that produced it.
// It never returns nil.
func (r *Router) Route(text string, meta types.PageMeta, documentName string) []types.ProductEntity {
	lt := r.Layout(documentName, meta.DetectedType)
	s, ok := r.strategies[lt]
	if !ok {
		return []types.ProductEntity{}
	}

	meta.DetectedType = lt
	out := []types.ProductEntity{}
	for _, e := range s.Parse(textnorm.Lines(text), meta) {
		if e.SKU == "" && e.Name == "" && e.Price == nil {
			continue
		}
		e.SourcePage = meta.Page
		e.DetectedType = lt
		out = append(out, e)
	}
	return out
}

// Document extracts every page of one classified document. Pages missing
// from the classification are classified on the fly. The result holds one
// PageDocument per page that yielded entities, in ascending page order.
func Document(ctx context.Context, r *Router, cls classify.DocumentResult, pages []types.Page, workers int) (types.ParsedDocument, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	docs := make([]types.PageDocument, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, ok := cls.Meta(p.Number)
			if !ok {
				lt, _ := classify.Page(p.Text)
				meta = types.PageMeta{Page: p.Number, DetectedType: lt}
			}
			docs[i] = types.PageDocument{
				Page:  p.Number,
				Items: r.Route(p.Text, meta, cls.Document),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.ParsedDocument{}, err
	}

	out := types.ParsedDocument{Document: cls.Document, Pages: []types.PageDocument{}}
	for _, d := range docs {
		if len(d.Items) > 0 {
			out.Pages = append(out.Pages, d)
		}
	}
	sort.SliceStable(out.Pages, func(i, j int) bool { return out.Pages[i].Page < out.Pages[j].Page })
	return out, nil
}

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractAll classifies and extracts each document, writing
// <document>.json to cfg.OutputDir. Documents whose output is newer than
// the source are skipped.
func ExtractAll(ctx context.Context, reader classify.PageReader, r *Router, paths []string, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	var summary BatchSummary
	for _, path := range paths {
		name := classify.DocumentName(path)
		outPath := filepath.Join(cfg.OutputDir, name+".json")

		changed, err := hasChanged(path, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		pages, err := reader.ReadPages(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		cls, err := classify.Document(ctx, name, pages, cfg.Workers)
		if err != nil {
			return summary, fmt.Errorf("classifying %s: %w", name, err)
		}
		doc, err := Document(ctx, r, cls, pages, cfg.Workers)
		if err != nil {
			return summary, fmt.Errorf("extracting %s: %w", name, err)
		}

		if err := WriteParsed(outPath, doc); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", name, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "extracted %s (%d items)\n", name, doc.ItemCount())
		summary.Extracted++
	}

	return summary, nil
}

// WriteParsed writes a parsed document as indented JSON.
func WriteParsed(path string, doc types.ParsedDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", doc.Document, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// hasChanged reports whether the source document is newer than the output
// file. It returns true if the output does not exist.
func hasChanged(srcPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf("stat source %s: %w", srcPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}
