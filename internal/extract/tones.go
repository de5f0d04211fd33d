// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Markers that disqualify a line from being a tone name.
var toneStopWords = []string{"pts", "$", "%", "descuento", "oferta", "cualquiera por", "(", ")"}

// tonesList reads a page listing shade variants of one product. Price and
// points come from the header above the first code; every code becomes
// one entity named after its tone.
type tonesList struct{}

func (tonesList) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	anchors := findAnchors(lines)
	if len(anchors) == 0 {
		return nil
	}

	header := make([]string, 0, anchors[0].idx)
	for _, ln := range lines[:anchors[0].idx] {
		if s := stripCodes(ln); s != "" {
			header = append(header, s)
		}
	}
	price, points := headerPricePoints(header)

	var out []types.ProductEntity
	for _, a := range anchors {
		e := types.ProductEntity{SKU: a.sku}
		e.Name = toneName(lines, a.idx)
		e.Variant = e.Name
		e.Price = price
		e.Points = points
		if e.Name == "" {
			e.Warnings = append(e.Warnings, "tone name not found")
		}
		out = append(out, e)
	}
	return out
}

// headerPricePoints takes points from the first header line carrying them
// and the price from the last plausible amount in the header.
func headerPricePoints(header []string) (*float64, *int) {
	var price *float64
	var points *int
	for _, ln := range header {
		if points == nil {
			points = linePoints(ln)
		}
		noPoints := rePoints.ReplaceAllString(ln, " ")
		for _, m := range rePrice.FindAllStringSubmatch(noPoints, -1) {
			if v, ok := plausiblePrice(m[1]); ok {
				price = &v
			}
		}
	}
	return price, points
}

// toneName prefers the anchor line itself with its code removed, then
// looks one and two lines above.
func toneName(lines []string, idx int) string {
	if own := stripCodes(lines[idx]); isToneName(own) {
		return own
	}
	for j := idx - 1; j >= max(0, idx-2); j-- {
		if reSKU.MatchString(lines[j]) {
			break
		}
		if isToneName(lines[j]) {
			return lines[j]
		}
	}
	return ""
}

func isToneName(line string) bool {
	if line == "" {
		return false
	}
	folded := textnorm.Fold(line)
	if containsAny(folded, toneStopWords) {
		return false
	}
	for _, f := range strings.Fields(line) {
		if strings.IndexFunc(f, unicode.IsLetter) >= 0 {
			return true
		}
	}
	return false
}
