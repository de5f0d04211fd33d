// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// holistic reads the one-product-per-page layout of the wellness catalog.
// The first line of three or more words without a volume unit is the
// name; further such lines form the description.
type holistic struct{}

func (holistic) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	var e types.ProductEntity
	var desc []string
	for _, ln := range lines {
		volume := reVolume.MatchString(textnorm.Fold(ln))
		if e.Price == nil && !volume {
			e.Price = firstPlausible(ln)
		}
		if volume || isPriceOrPoints(ln) || len(strings.Fields(ln)) < 3 {
			continue
		}
		if e.Name == "" {
			e.Name = stripCodes(ln)
			continue
		}
		desc = append(desc, ln)
	}
	if e.Name == "" {
		return nil
	}
	e.Description = strings.Join(desc, " ")
	if as := findAnchors(lines); len(as) > 0 {
		e.SKU = as[0].sku
	}
	return []types.ProductEntity{e}
}

func firstPlausible(line string) *float64 {
	for _, m := range rePrice.FindAllStringSubmatch(stripCodes(line), -1) {
		if v, ok := plausiblePrice(m[1]); ok {
			return &v
		}
	}
	return nil
}
