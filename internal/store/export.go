// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const exportLimit = 100000

// Export formats accepted by Export.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Export writes the records matching opts to the store directory as
// export.<format> and returns the path written.
func (s *Store) Export(ctx context.Context, format string, opts QueryOptions) (string, error) {
	path := filepath.Join(s.dir, "export."+format)
	var err error
	switch format {
	case FormatYAML:
		err = s.ExportYAML(ctx, opts, path)
	case FormatJSON:
		err = s.ExportJSON(ctx, opts, path)
	case FormatXLSX:
		err = s.ExportXLSX(ctx, opts, path)
	default:
		return "", fmt.Errorf("unknown export format %q (want yaml, json or xlsx)", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// ExportYAML writes the matching records to path as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the matching records to path as an indented JSON list.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	return reconcile.WriteJSON(path, records)
}

var catalogHeaders = []string{
	"SKU", "Catalog", "Cycle", "Name", "Variant", "Size", "Description",
	"Price", "Price before", "Price regular", "Price sale final",
	"Discount %", "Discount badge", "Points", "Pages", "Warnings",
}

var conflictHeaders = []string{"SKU", "Field", "First value", "New value", "Pages"}

// ExportXLSX writes a workbook with a Catalog sheet of the matching
// records and a Conflicts sheet of the conflicts for the same filters.
func (s *Store) ExportXLSX(ctx context.Context, opts QueryOptions, path string) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	conflicts, err := s.Conflicts(ctx, opts)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const catalogSheet = "Catalog"
	if err := f.SetSheetName(f.GetSheetName(0), catalogSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	writeRow(f, catalogSheet, 1, headerRow(catalogHeaders))
	for i, r := range records {
		writeRow(f, catalogSheet, i+2, []any{
			r.SKU, r.Catalog, r.Cycle, r.Name, r.Variant, r.Size, r.Description,
			floatCell(r.Price), floatCell(r.PriceBefore), floatCell(r.PriceRegular), floatCell(r.PriceSaleFinal),
			intCell(r.DiscountPercent), r.DiscountBadge, intCell(r.Points),
			joinPages(r.Trace.Pages), strings.Join(r.Warnings, "; "),
		})
	}
	_ = f.SetColWidth(catalogSheet, "A", "C", 12)
	_ = f.SetColWidth(catalogSheet, "D", "D", 40)
	_ = f.SetColWidth(catalogSheet, "G", "G", 48)

	const conflictSheet = "Conflicts"
	if _, err := f.NewSheet(conflictSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	writeRow(f, conflictSheet, 1, headerRow(conflictHeaders))
	for i, c := range conflicts {
		writeRow(f, conflictSheet, i+2, []any{
			c.SKU, c.Field, fmt.Sprint(c.FirstValue), fmt.Sprint(c.NewValue), joinPages(c.Pages),
		})
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func (s *Store) exportRecords(ctx context.Context, opts QueryOptions) ([]types.CanonicalRecord, error) {
	opts.MaxResults = exportLimit
	records, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []types.CanonicalRecord{}
	}
	return records, nil
}

func headerRow(h []string) []any {
	row := make([]any, len(h))
	for i, v := range h {
		row[i] = v
	}
	return row
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func floatCell(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func intCell(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
