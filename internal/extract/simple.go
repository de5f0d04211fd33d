// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// productSimple reads one product per anchor. The name is the nearest
// title-like line above the anchor, price and points come from the
// anchor line first and then its neighbours. Anchors with neither a name
// nor a price are skipped.
type productSimple struct{}

func (productSimple) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	anchors := findAnchors(lines)
	if len(anchors) == 0 {
		if e, ok := softProduct(lines); ok {
			return []types.ProductEntity{e}
		}
		return nil
	}

	names := make([]int, len(anchors))
	used := map[int]bool{}
	for i, a := range anchors {
		lo, _ := window(anchors, i, len(lines))
		names[i] = nameIndex(lines, lo, a.idx)
		if names[i] >= 0 {
			used[names[i]] = true
		}
	}

	var out []types.ProductEntity
	for i, a := range anchors {
		lo, hi := window(anchors, i, len(lines))
		e := types.ProductEntity{SKU: a.sku}

		if names[i] >= 0 {
			e.Name = lines[names[i]]
		} else if own := stripCodes(lines[a.idx]); looksLikeTitle(own) {
			e.Name = own
		}

		order := []int{a.idx}
		for j := a.idx + 1; j < hi; j++ {
			order = append(order, j)
		}
		for j := a.idx - 1; j >= lo; j-- {
			order = append(order, j)
		}
		e.Price, e.Points = pricePoints(lines, order)

		var desc []string
		for j := a.idx + 1; j < hi; j++ {
			if used[j] || isPriceOrPoints(lines[j]) {
				continue
			}
			desc = append(desc, lines[j])
		}
		e.Description = strings.Join(desc, " ")

		// A bare code with nothing readable around it is not a product.
		if e.Name == "" && e.Price == nil {
			continue
		}
		if e.Name == "" {
			e.Warnings = append(e.Warnings, "name not found near code")
		}
		if e.Price == nil {
			e.Warnings = append(e.Warnings, "price not found near code")
		}
		out = append(out, e)
	}
	return out
}

// nameIndex returns the line index of the nearest title above idx within
// [lo, idx), falling back to the line right above when it is not a price
// line. It returns -1 when nothing qualifies.
func nameIndex(lines []string, lo, idx int) int {
	for j := idx - 1; j >= lo; j-- {
		if looksLikeTitle(lines[j]) {
			return j
		}
	}
	if prev := idx - 1; prev >= lo && !isPriceOrPoints(lines[prev]) {
		return prev
	}
	return -1
}

// softProduct reads a page without codes as a single SKU-less product.
func softProduct(lines []string) (types.ProductEntity, bool) {
	var e types.ProductEntity
	nameAt := -1
	for i, ln := range lines {
		if looksLikeTitle(ln) {
			e.Name = ln
			nameAt = i
			break
		}
	}

	order := make([]int, len(lines))
	for i := range lines {
		order[i] = i
	}
	e.Price, e.Points = pricePoints(lines, order)

	var desc []string
	for i, ln := range lines {
		if i == nameAt || isPriceOrPoints(ln) {
			continue
		}
		desc = append(desc, ln)
	}
	e.Description = strings.Join(desc, " ")

	if e.Name == "" && e.Price == nil {
		return types.ProductEntity{}, false
	}
	e.Warnings = []string{"no product code on page"}
	return e, true
}
