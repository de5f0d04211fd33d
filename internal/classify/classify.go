// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns a layout type to each catalog page.
// The classifier is a pure, ordered rule cascade: the first rule that
// matches decides the page, and UNKNOWN is the fallback.
package classify

import (
	"regexp"
	"strings"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Thresholds for TONES_LIST. Ambiguous multi-SKU pages are treated as
// variant listings rather than fragmented into single-SKU products.
const (
	minToneLines = 3
	minToneSKUs  = 6
)

var (
	reSKUParens = regexp.MustCompile(`\(\s*(\d{3,7})\s*\)`)
	reBareSKU   = regexp.MustCompile(`\b\d{3,7}\b`)
	rePrice     = regexp.MustCompile(`\$\s*\d[\d.,]*|\b\d{1,5}[.,]\d{2}\b`)
	rePercent   = regexp.MustCompile(`(\d{1,3})\s*%`)
	rePoints    = regexp.MustCompile(`(?i)\b\d+\s*pts\b`)
	reToneLine  = regexp.MustCompile(`\(\s*\d{3,7}\s*\)\s*$`)

	// Keyword patterns run against folded text (lower case, no accents).
	rePromoTag = regexp.MustCompile(`\b(oferta|promocion|promo|mega|super promo|super promocion|megaoferta)\b`)
	reCombo    = regexp.MustCompile(`\b(combo|set|kit|incluye|paquete)\b`)
	reLegal    = regexp.MustCompile(`\b(cofepris|aviso cofepris|promocion valida)\b`)
	reDeToA    = regexp.MustCompile(`\b(de|a)\b[:\s]*\$?\s*\d{2,5}(?:[.,]\d{2})?`)
)

// Page classifies one page of text. It is deterministic and total.
func Page(text string) (types.LayoutType, types.PageSignal) {
	sig := Signals(text)
	return decide(sig), sig
}

// Signals derives the classification signals of a page.
func Signals(text string) types.PageSignal {
	lines := textnorm.Lines(text)
	joined := strings.Join(lines, "\n")
	folded := textnorm.Fold(joined)
	noCodes := reSKUParens.ReplaceAllString(joined, " ")

	sig := types.PageSignal{
		Lines:       lines,
		SKUs:        skuTokens(joined),
		Prices:      matches(rePrice, noCodes),
		Percents:    submatches(rePercent, joined),
		HasPoints:   rePoints.MatchString(joined),
		HasPromoTag: rePromoTag.MatchString(folded),
		HasCombo:    reCombo.MatchString(folded),
		HasLegal:    reLegal.MatchString(folded),
		HasDeToA:    reDeToA.MatchString(folded),
	}
	for _, ln := range lines {
		if reToneLine.MatchString(ln) {
			sig.ToneLines++
		}
	}
	return sig
}

func decide(sig types.PageSignal) types.LayoutType {
	skuCount := len(sig.SKUs)
	hasPrices := len(sig.Prices) > 0

	switch {
	case len(sig.Lines) == 0:
		return types.LayoutEmpty
	case sig.HasLegal && skuCount == 0 && !hasPrices:
		return types.LayoutLegal
	case sig.HasPromoTag && skuCount == 0:
		return types.LayoutPromoBanner
	case sig.HasCombo:
		return types.LayoutCombo
	case sig.ToneLines >= minToneLines || skuCount >= minToneSKUs:
		return types.LayoutTonesList
	case sig.HasDeToA:
		return types.LayoutDeToA
	case skuCount >= 1 && hasPrices:
		return types.LayoutProductSimple
	case skuCount >= 1:
		return types.LayoutSKUOnly
	case sig.HasPromoTag && len(sig.Percents) > 0:
		return types.LayoutPromoBanner
	}
	return types.LayoutUnknown
}

// skuTokens returns the distinct parenthesized codes in first-seen order.
// When a page has none, bare 3-7 digit tokens that are not part of a
// price are used instead.
func skuTokens(text string) []string {
	seen := map[string]bool{}
	var skus []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			skus = append(skus, s)
		}
	}

	for _, m := range reSKUParens.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	if len(skus) > 0 {
		return skus
	}

	for _, loc := range reBareSKU.FindAllStringIndex(text, -1) {
		if partOfPrice(text, loc[0], loc[1]) {
			continue
		}
		add(text[loc[0]:loc[1]])
	}
	return skus
}

// partOfPrice reports whether text[start:end] sits inside an amount such
// as "$10399", "10.399" or "199,00".
func partOfPrice(text string, start, end int) bool {
	left := text[max(0, start-3):start]
	if strings.Contains(left, "$") {
		return true
	}
	if start > 0 && (text[start-1] == '.' || text[start-1] == ',') {
		return true
	}
	if end+1 < len(text) && (text[end] == '.' || text[end] == ',') && isDigit(text[end+1]) {
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func matches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

func submatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
