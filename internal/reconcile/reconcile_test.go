// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

func item(sku string, f types.ProductFields) types.ProductEntity {
	return types.ProductEntity{SKU: sku, ProductFields: f}
}

func TestMerge_ConflictKeepsFirstValue(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{item("X", types.ProductFields{PriceSaleFinal: types.Float(100)})}},
		{Page: 2, Items: []types.ProductEntity{item("X", types.ProductFields{PriceSaleFinal: types.Float(120)})}},
	}

	res := Merge(docs, "natura", "c01")

	require.Contains(t, res.BySKU, "X")
	rec := res.BySKU["X"]
	assert.InDelta(t, 100.0, *rec.PriceSaleFinal, 1e-9)
	assert.Equal(t, []int{1, 2}, rec.Trace.Pages)
	assert.Equal(t, "natura", rec.Catalog)
	assert.Equal(t, "c01", rec.Cycle)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, types.ConflictRecord{
		SKU:        "X",
		Field:      "price_sale_final",
		FirstValue: 100.0,
		NewValue:   120.0,
		Pages:      []int{1, 2},
	}, res.Conflicts[0])
}

func TestMerge_FillsMissingFields(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 3, Items: []types.ProductEntity{item("123456", types.ProductFields{Name: "Crema"})}},
		{Page: 1, Items: []types.ProductEntity{item("123456", types.ProductFields{
			Name:       "Crema",
			Price:      types.Float(199),
			Points:     types.Int(12),
			ComboItems: []string{"1", "2"},
		})}},
	}

	res := Merge(docs, "c", "1")

	rec := res.BySKU["123456"]
	require.NotNil(t, rec)
	assert.Equal(t, "Crema", rec.Name)
	assert.InDelta(t, 199.0, *rec.Price, 1e-9)
	assert.Equal(t, 12, *rec.Points)
	assert.Equal(t, []string{"1", "2"}, rec.ComboItems)
	assert.Equal(t, []int{1, 3}, rec.Trace.Pages)
	assert.Empty(t, res.Conflicts)
}

func TestMerge_ZeroIsPresent(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{item("7", types.ProductFields{Price: types.Float(0)})}},
		{Page: 2, Items: []types.ProductEntity{item("7", types.ProductFields{Price: types.Float(50)})}},
	}

	res := Merge(docs, "c", "1")

	assert.InDelta(t, 0.0, *res.BySKU["7"].Price, 1e-9)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "price", res.Conflicts[0].Field)
	assert.Equal(t, 0.0, res.Conflicts[0].FirstValue)
}

func TestMerge_WarningsUnionSorted(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 2, Items: []types.ProductEntity{{SKU: "9", Warnings: []string{"b", "a"}}}},
		{Page: 2, Items: []types.ProductEntity{{SKU: "9", Warnings: []string{"c", "a"}}}},
	}

	res := Merge(docs, "c", "1")

	assert.Equal(t, []string{"a", "b", "c"}, res.BySKU["9"].Warnings)
	assert.Equal(t, []int{2}, res.BySKU["9"].Trace.Pages)
}

func TestMerge_Unmatched(t *testing.T) {
	in := types.ProductEntity{
		ProductFields: types.ProductFields{Name: "Combo/Set", ComboItems: []string{"1"}},
		SourcePage:    0,
	}
	docs := []types.PageDocument{
		{Page: 5, Items: []types.ProductEntity{in, item("  ", types.ProductFields{Name: "blank"})}},
		{Page: 6, Items: []types.ProductEntity{item("42", types.ProductFields{Name: "Jabón"})}},
	}

	res := Merge(docs, "c", "1")

	require.Len(t, res.Unmatched, 2)
	assert.Equal(t, 5, res.Unmatched[0].SourcePage)
	assert.Equal(t, 5, res.Unmatched[1].SourcePage)
	assert.Len(t, res.BySKU, 1)

	// The stored copy is independent of the input.
	docs[0].Items[0].ComboItems[0] = "changed"
	assert.Equal(t, []string{"1"}, res.Unmatched[0].ComboItems)
}

func TestMerge_Partition(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{item("1", types.ProductFields{}), item("", types.ProductFields{Name: "a"})}},
		{Page: 2, Items: []types.ProductEntity{item("1", types.ProductFields{}), item("2", types.ProductFields{})}},
		{Page: 3, Items: nil},
	}

	res := Merge(docs, "c", "1")

	assert.Len(t, res.BySKU, 2)
	assert.Len(t, res.Unmatched, 1)
	assert.Equal(t, []string{"1", "2"}, res.SKUs())
}

func TestMerge_Idempotent(t *testing.T) {
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{item("X", types.ProductFields{Name: "A", Price: types.Float(100)})}},
		{Page: 2, Items: []types.ProductEntity{item("X", types.ProductFields{Name: "B", Price: types.Float(100)})}},
	}
	assert.Equal(t, Merge(docs, "c", "1"), Merge(docs, "c", "1"))
}

func TestMerge_Empty(t *testing.T) {
	res := Merge(nil, "c", "1")
	assert.NotNil(t, res.BySKU)
	assert.NotNil(t, res.Unmatched)
	assert.NotNil(t, res.Conflicts)
	assert.Empty(t, res.BySKU)
}

func TestWriteAndReadResult(t *testing.T) {
	dir := t.TempDir()
	docs := []types.PageDocument{
		{Page: 1, Items: []types.ProductEntity{item("X", types.ProductFields{Name: "Crema & Gel", PriceSaleFinal: types.Float(100)})}},
		{Page: 2, Items: []types.ProductEntity{item("X", types.ProductFields{PriceSaleFinal: types.Float(120)}), {ProductFields: types.ProductFields{Name: "suelto"}}}},
	}
	res := Merge(docs, "natura", "c01")

	require.NoError(t, Write(dir, res))

	raw, err := os.ReadFile(filepath.Join(dir, BySKUFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "Crema & Gel"`)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"X\": {"))

	got, err := ReadResult(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, "natura", got.Catalog)
	assert.Equal(t, "c01", got.Cycle)
	assert.Equal(t, []int{1, 2}, got.BySKU["X"].Trace.Pages)
	require.Len(t, got.Unmatched, 1)
	assert.Equal(t, 2, got.Unmatched[0].SourcePage)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, 120.0, got.Conflicts[0].NewValue)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	pageDir := filepath.Join(dir, "page_json")
	require.NoError(t, os.MkdirAll(pageDir, 0o755))

	require.NoError(t, WriteJSON(filepath.Join(pageDir, PageFileName(10)), types.PageDocument{Page: 10, Items: []types.ProductEntity{item("1", types.ProductFields{})}}))
	require.NoError(t, WriteJSON(filepath.Join(pageDir, PageFileName(2)), map[string]any{"items": []any{map[string]any{"sku": "2"}}}))
	require.NoError(t, WriteJSON(filepath.Join(pageDir, PageFileName(3)), types.PageDocument{Page: 3, Items: []types.ProductEntity{}, Error: "timeout"}))
	require.NoError(t, os.WriteFile(filepath.Join(pageDir, "page_0004.raw.txt"), []byte("raw"), 0o644))

	parsed := filepath.Join(dir, "natura.json")
	require.NoError(t, WriteJSON(parsed, types.ParsedDocument{
		Document: "natura",
		Pages:    []types.PageDocument{{Page: 1, Items: []types.ProductEntity{item("3", types.ProductFields{})}}},
	}))

	var log strings.Builder
	docs, err := Load([]string{pageDir, parsed}, &log)
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, 2, docs[0].Page)
	assert.Equal(t, 10, docs[1].Page)
	assert.Equal(t, 1, docs[2].Page)
	assert.Contains(t, log.String(), "skipped page 3: timeout")

	_, err = Load([]string{filepath.Join(dir, "missing")}, &log)
	assert.Error(t, err)
}
