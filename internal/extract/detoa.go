// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var (
	reFrom = regexp.MustCompile(`(?i)\bde\b[:\s]*\$?\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d{2,5}(?:[.,]\d{2})?)`)
	reTo   = regexp.MustCompile(`(?i)\ba\b[:\s]*\$?\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d{2,5}(?:[.,]\d{2})?)`)
)

var deToANameStopWords = []string{"$", "%", "pts"}

// deToA reads a "De $X A $Y" price drop as one entity with price_before
// set to X and price to Y.
type deToA struct{}

func (deToA) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	if len(lines) == 0 {
		return nil
	}

	joined := strings.Join(lines, "\n")
	e := types.ProductEntity{}
	e.PriceBefore = firstAmount(reFrom, joined)
	e.Price = firstAmount(reTo, joined)

	if e.PriceBefore == nil || e.Price == nil {
		prices := plausiblePrices(lines)
		switch {
		case len(prices) >= 2:
			e.PriceBefore = types.Float(prices[len(prices)-1])
			e.Price = types.Float(prices[len(prices)-2])
		case len(prices) == 1 && e.Price == nil:
			if e.PriceBefore == nil || *e.PriceBefore != prices[0] {
				e.Price = types.Float(prices[0])
			}
		}
		e.Warnings = append(e.Warnings, "price range inferred from amounts on page")
	}

	for _, ln := range lines {
		if p := linePercent(ln); p != nil {
			e.DiscountPercent = p
			break
		}
	}

	if as := findAnchors(lines); len(as) > 0 {
		e.SKU = as[0].sku
	}

	nameAt := -1
	for i, ln := range lines {
		if !isRangeLine(ln) {
			e.Name = stripCodes(ln)
			nameAt = i
			break
		}
	}
	var desc []string
	for i, ln := range lines {
		if i == nameAt || isPriceOrPoints(ln) {
			continue
		}
		desc = append(desc, ln)
	}
	e.Description = strings.Join(desc, " ")

	return []types.ProductEntity{e}
}

func firstAmount(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if v, ok := textnorm.ParseAmount(m[1]); ok {
		return &v
	}
	return nil
}

// isRangeLine reports whether line carries a "De"/"A" amount or another
// price marker.
func isRangeLine(line string) bool {
	return reFrom.MatchString(line) || reTo.MatchString(line) ||
		containsAny(textnorm.Fold(line), deToANameStopWords)
}
