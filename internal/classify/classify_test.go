// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

func TestPage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.LayoutType
	}{
		{"empty", "", types.LayoutEmpty},
		{"whitespace only", " \n\t\n  ", types.LayoutEmpty},
		{
			name: "legal text without codes or prices",
			text: "Aviso COFEPRIS\nPromoción válida únicamente en México",
			want: types.LayoutLegal,
		},
		{
			name: "promo banner without sku",
			text: "MEGA OFERTA\nLos mejores regalos",
			want: types.LayoutPromoBanner,
		},
		{
			name: "combo keyword",
			text: "Kit Corporal\nIncluye crema (12345) y jabón (67890)\n$499.00",
			want: types.LayoutCombo,
		},
		{
			name: "three tone lines",
			text: "Labial Mate $249 10 pts\nRojo Pasión (111111)\nRosa Nude (222222)\nCoral (333333)",
			want: types.LayoutTonesList,
		},
		{
			name: "de to a range",
			text: "Perfume Essencial\nDe $899 A $599",
			want: types.LayoutDeToA,
		},
		{
			name: "product simple",
			text: "Crema Hidratante\n(123456) 12 pts\n$199.00",
			want: types.LayoutProductSimple,
		},
		{
			name: "sku without price",
			text: "Base Una\n(123456) Tono claro",
			want: types.LayoutSKUOnly,
		},
		{
			name: "promo tag with sku and percent falls through to product",
			text: "Oferta 30% de descuento\n(123456) Crema\n$150.00",
			want: types.LayoutProductSimple,
		},
		{
			name: "plain prose",
			text: "Cuida tu piel todos los días",
			want: types.LayoutUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Page(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPage_ToneThresholds(t *testing.T) {
	codes := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "(%d) Tono %d\n", 100001+i, i)
		}
		return b.String()
	}

	lt, sig := Page(codes(6))
	assert.Equal(t, types.LayoutTonesList, lt)
	assert.Equal(t, 0, sig.ToneLines)
	assert.Len(t, sig.SKUs, 6)

	lt, _ = Page(codes(5))
	assert.NotEqual(t, types.LayoutTonesList, lt)
	assert.Equal(t, types.LayoutSKUOnly, lt)
}

func TestPage_PriceDigitsAreNotCodes(t *testing.T) {
	// Seven amounts whose digit runs would pass for bare codes.
	text := "Crema $1299\nJabón $1450.00\nPerfume $899\nLoción 2,499.00\nShampoo $350\nGel 1.150,50\nBálsamo $420"

	lt, sig := Page(text)
	assert.Empty(t, sig.SKUs)
	assert.Less(t, len(sig.SKUs), minToneSKUs)
	assert.Len(t, sig.Prices, 7)
	assert.NotEqual(t, types.LayoutTonesList, lt)
	assert.Equal(t, types.LayoutUnknown, lt)
}

func TestSignals(t *testing.T) {
	sig := Signals("Crema Hidratante\n(123456) 12 pts\n$199.00\n(123456) repetido\n20% menos")

	assert.Equal(t, []string{"123456"}, sig.SKUs)
	assert.Equal(t, []string{"$199.00"}, sig.Prices)
	assert.Equal(t, []string{"20"}, sig.Percents)
	assert.True(t, sig.HasPoints)
	assert.False(t, sig.HasCombo)
	assert.Equal(t, 0, sig.ToneLines)
	assert.Len(t, sig.Lines, 5)
	assert.Equal(t, "skus=1; prices=1; discounts=20; points", sig.Summary())
}

func TestSKUTokens_BareFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"parenthesized preferred", "(12345) y 67890", []string{"12345"}},
		{"bare tokens when no parens", "Código 12345 y 67890", []string{"12345", "67890"}},
		{"skips dollar amounts", "$10399 y 55555", []string{"55555"}},
		{"skips decimal amounts", "199.00 y 1.299", nil},
		{"skips long numbers", "12345678", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skuTokens(tt.text))
		})
	}
}

func TestDocument_OrderAndCounts(t *testing.T) {
	pages := []types.Page{
		{Number: 3, Text: "Crema Hidratante\n(123456) 12 pts\n$199.00"},
		{Number: 1, Text: ""},
		{Number: 2, Text: "MEGA OFERTA"},
	}

	res, err := Document(context.Background(), "cat", pages, 2)
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	assert.Equal(t, 1, res.Pages[0].Page)
	assert.Equal(t, 2, res.Pages[1].Page)
	assert.Equal(t, 3, res.Pages[2].Page)
	assert.Equal(t, 1, res.Counts[types.LayoutEmpty])
	assert.Equal(t, 1, res.Counts[types.LayoutPromoBanner])
	assert.Equal(t, 1, res.Counts[types.LayoutProductSimple])

	meta, ok := res.Meta(3)
	require.True(t, ok)
	assert.Equal(t, types.LayoutProductSimple, meta.DetectedType)
	_, ok = res.Meta(9)
	assert.False(t, ok)
}

func TestCollectSKUs(t *testing.T) {
	results := []DocumentResult{
		{Pages: []PageResult{{Signal: types.PageSignal{SKUs: []string{"9001", "123456"}}}}},
		{Pages: []PageResult{{Signal: types.PageSignal{SKUs: []string{"123456", "700"}}}}},
	}
	assert.Equal(t, []string{"700", "9001", "123456"}, CollectSKUs(results))
}

type mapReader map[string][]types.Page

func (m mapReader) ReadPages(_ context.Context, path string) ([]types.Page, error) {
	pages, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no such document %s", path)
	}
	return pages, nil
}

func TestClassifyAll(t *testing.T) {
	dir := t.TempDir()
	reader := mapReader{
		"in/natura.pdf": {
			{Number: 1, Text: "Crema Hidratante\n(123456) 12 pts\n$199.00"},
			{Number: 2, Text: ""},
		},
	}
	cfg := types.ClassifyConfig{Workers: 2, OutputDir: dir}

	var log strings.Builder
	summary, err := ClassifyAll(context.Background(), reader, []string{"in/natura.pdf", "in/missing.pdf"}, cfg, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Classified)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, log.String(), "classified natura (2 pages)")
	assert.Contains(t, log.String(), "failed  missing")

	res, err := LoadResult(filepath.Join(dir, "natura_classification.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "natura", res.Document)
	assert.Equal(t, types.LayoutProductSimple, res.Pages[0].DetectedType)

	csvData, err := os.ReadFile(filepath.Join(dir, summaryCSV))
	require.NoError(t, err)
	assert.Equal(t, "document,total_pages,EMPTY,PRODUCT_SIMPLE\nnatura,2,1,1\n", string(csvData))

	_, err = os.Stat(filepath.Join(dir, summaryYAML))
	assert.NoError(t, err)
}
