// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const defaultComboName = "Combo/Set"

var comboNameStopWords = []string{"promocion valida", "cofepris"}

// combo reads a bundle page as a single SKU-less entity listing the codes
// it contains and the highest plausible price on the page.
type combo struct{}

func (combo) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	if len(lines) == 0 {
		return nil
	}

	e := types.ProductEntity{}
	e.Name = defaultComboName
	for _, ln := range lines {
		if !containsAny(textnorm.Fold(ln), comboNameStopWords) {
			e.Name = ln
			break
		}
	}

	for _, ln := range lines {
		for _, m := range reSKU.FindAllStringSubmatch(ln, -1) {
			e.ComboItems = append(e.ComboItems, m[1])
		}
	}

	if prices := plausiblePrices(lines); len(prices) > 0 {
		e.Price = types.Float(prices[len(prices)-1])
	} else {
		e.Warnings = append(e.Warnings, "combo price not found")
	}
	return []types.ProductEntity{e}
}
