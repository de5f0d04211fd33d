// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Dir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entity(sku, name string, page int, sale float64) types.ProductEntity {
	return types.ProductEntity{
		SKU:           sku,
		ProductFields: types.ProductFields{Name: name, PriceSaleFinal: types.Float(sale)},
		SourcePage:    page,
	}
}

// sampleResult merges three pages: SKU 174494 is seen twice with a
// different price, 99 and 1200 once each, plus one item without a SKU.
func sampleResult(catalog, cycle string) types.MergeResult {
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{
			entity("174494", "Perfume Kaiak Clásico", 1, 315),
			entity("1200", "Crema corporal Tododia", 1, 189),
		}},
		{Page: 2, Items: []types.ProductEntity{
			entity("99", "Jabón 100% vegetal", 2, 45),
			entity("", "Set de regalo", 2, 499),
		}},
		{Page: 3, Items: []types.ProductEntity{
			entity("174494", "Perfume Kaiak Clásico", 3, 300),
		}},
	}
	return reconcile.Merge(docs, catalog, cycle)
}

func TestIngestAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.Ingest(ctx, sampleResult("natura", "C01"), "output/merged")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Records)
	assert.Equal(t, 1, run.Unmatched)
	assert.Equal(t, 1, run.Conflicts)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{name: "all in numeric SKU order", opts: QueryOptions{}, want: []string{"99", "1200", "174494"}},
		{name: "text is case-insensitive", opts: QueryOptions{Query: "kaiak"}, want: []string{"174494"}},
		{name: "percent sign is literal", opts: QueryOptions{Query: "100%"}, want: []string{"99"}},
		{name: "sku filter", opts: QueryOptions{SKU: "1200"}, want: []string{"1200"}},
		{name: "sku substring in text", opts: QueryOptions{Query: "744"}, want: []string{"174494"}},
		{name: "other cycle", opts: QueryOptions{Cycle: "C02"}, want: nil},
		{name: "limit", opts: QueryOptions{MaxResults: 2}, want: []string{"99", "1200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.opts)
			require.NoError(t, err)
			var skus []string
			for _, r := range got {
				skus = append(skus, r.SKU)
			}
			assert.Equal(t, tt.want, skus)
		})
	}

	recs, err := s.Query(ctx, QueryOptions{SKU: "174494"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "natura", recs[0].Catalog)
	assert.Equal(t, types.Float(315), recs[0].PriceSaleFinal)
	assert.Equal(t, []int{1, 3}, recs[0].Trace.Pages)
	assert.Equal(t, []string{}, recs[0].Warnings)

	conflicts, err := s.Conflicts(ctx, QueryOptions{Catalog: "natura"})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "price_sale_final", conflicts[0].Field)
	assert.Equal(t, 315.0, conflicts[0].FirstValue)
	assert.Equal(t, 300.0, conflicts[0].NewValue)

	unmatched, err := s.Unmatched(ctx, QueryOptions{Catalog: "natura", Cycle: "C01"})
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "Set de regalo", unmatched[0].Name)
	assert.Equal(t, 2, unmatched[0].SourcePage)
}

func TestIngest_ReplacesCycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, sampleResult("natura", "C01"), "")
	require.NoError(t, err)
	_, err = s.Ingest(ctx, sampleResult("avon", "C01"), "")
	require.NoError(t, err)

	smaller := reconcile.Merge([]types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{entity("5", "Labial", 1, 80)}},
	}, "natura", "C01")
	_, err = s.Ingest(ctx, smaller, "")
	require.NoError(t, err)

	natura, err := s.Query(ctx, QueryOptions{Catalog: "natura"})
	require.NoError(t, err)
	require.Len(t, natura, 1)
	assert.Equal(t, "5", natura[0].SKU)

	avon, err := s.Query(ctx, QueryOptions{Catalog: "avon"})
	require.NoError(t, err)
	assert.Len(t, avon, 3)

	conflicts, err := s.Conflicts(ctx, QueryOptions{Catalog: "natura"})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestIngest_RequiresCycle(t *testing.T) {
	s := testStore(t)
	_, err := s.Ingest(context.Background(), sampleResult("natura", ""), "")
	assert.Error(t, err)
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.Ingest(ctx, sampleResult("natura", "C01"), "output/vision/natura/C01")
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "output/vision/natura/C01", runs[0].Source)
	assert.True(t, run.IngestedAt.Equal(runs[0].IngestedAt))
}

func TestRuns_OrderWithinOneSecond(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	stamps := []time.Time{base.Add(100 * time.Millisecond), base.Add(120 * time.Millisecond), base.Add(900 * time.Millisecond)}
	restore := now
	t.Cleanup(func() { now = restore })

	var ids []string
	for i, cycle := range []string{"C01", "C02", "C03"} {
		now = func() time.Time { return stamps[i] }
		run, err := s.Ingest(ctx, sampleResult("natura", cycle), "")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.True(t, stamps[1].Equal(runs[1].IngestedAt))
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), sampleResult("natura", "C01"), "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Query(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Ingest(ctx, sampleResult("natura", "C01"), "")
	require.NoError(t, err)

	t.Run("yaml", func(t *testing.T) {
		path, err := s.Export(ctx, FormatYAML, QueryOptions{Query: "kaiak"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(s.Dir(), "export.yaml"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []types.CanonicalRecord
		require.NoError(t, yaml.Unmarshal(data, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "174494", got[0].SKU)
		assert.Equal(t, "Perfume Kaiak Clásico", got[0].Name)
	})

	t.Run("json", func(t *testing.T) {
		path, err := s.Export(ctx, FormatJSON, QueryOptions{})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []types.CanonicalRecord
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Len(t, got, 3)
	})

	t.Run("json with no matches", func(t *testing.T) {
		path, err := s.Export(ctx, FormatJSON, QueryOptions{Cycle: "none"})
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(data))
	})

	t.Run("xlsx", func(t *testing.T) {
		path, err := s.Export(ctx, FormatXLSX, QueryOptions{Catalog: "natura"})
		require.NoError(t, err)

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Catalog", "Conflicts"}, f.GetSheetList())

		rows, err := f.GetRows("Catalog")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, catalogHeaders, rows[0])
		assert.Equal(t, "99", rows[1][0])
		assert.Equal(t, "174494", rows[3][0])
		assert.Equal(t, "315", rows[3][10])
		assert.Equal(t, "1,3", rows[3][14])

		conflicts, err := f.GetRows("Conflicts")
		require.NoError(t, err)
		require.Len(t, conflicts, 2)
		assert.Equal(t, []string{"174494", "price_sale_final", "315", "300", "1,3"}, conflicts[1])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := s.Export(ctx, "csv", QueryOptions{})
		assert.ErrorContains(t, err, "unknown export format")
	})
}
