// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
)

// minPlausiblePrice filters out quantities, page numbers and points that
// happen to look like amounts.
const minPlausiblePrice = 20.0

// Window sizes around an anchor line.
const (
	linesBefore = 4
	linesAfter  = 5
)

var (
	reSKU         = regexp.MustCompile(`\(\s*(\d{3,7})\s*\)`)
	rePoints      = regexp.MustCompile(`(?i)(\d+)\s*pts`)
	rePrice       = regexp.MustCompile(`\$?\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d{2,5}(?:[.,]\d{2})?)`)
	reDollarPrice = regexp.MustCompile(`\$\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d{2,5}(?:[.,]\d{2})?)`)
	reAmountToken = regexp.MustCompile(`^(?:\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d{1,5}(?:[.,]\d{2})?)$`)
	rePointsPrice = regexp.MustCompile(`(?i)(\d+)\s*pts.*?\$?\s*(\d{2,5}(?:[.,]\d{2})?)`)
	rePercent     = regexp.MustCompile(`(\d{1,3})\s*%`)
	reVolume      = regexp.MustCompile(`\d\s*(ml|l|g|gr|kg|oz)\b|\bml\b`)
)

// Folded markers that disqualify a line from being a product title.
var titleStopWords = []string{"pts", "$", "%", "descuento", "oferta", "cualquiera por"}

// anchor is a line carrying a parenthesized product code.
type anchor struct {
	idx int
	sku string
}

func findAnchors(lines []string) []anchor {
	var out []anchor
	for i, ln := range lines {
		if m := reSKU.FindStringSubmatch(ln); m != nil {
			out = append(out, anchor{idx: i, sku: m[1]})
		}
	}
	return out
}

// window returns the [lo, hi) line range around anchors[i], clamped so
// that it never reaches into a neighbouring anchor's line.
func window(anchors []anchor, i, n int) (int, int) {
	a := anchors[i]
	lo := max(0, a.idx-linesBefore)
	if i > 0 {
		lo = max(lo, anchors[i-1].idx+1)
	}
	hi := min(n, a.idx+linesAfter)
	if i+1 < len(anchors) {
		hi = min(hi, anchors[i+1].idx)
	}
	return lo, hi
}

func stripCodes(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(reSKU.ReplaceAllString(s, " ")), " "))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// looksLikeTitle reports whether line reads like a product name: at least
// two tokens, mostly letters, and no price or promotion markers.
func looksLikeTitle(line string) bool {
	folded := textnorm.Fold(line)
	if containsAny(folded, titleStopWords) {
		return false
	}
	if len(strings.Fields(line)) < 2 {
		return false
	}
	var letters, total int
	for _, r := range line {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return total > 0 && float64(letters)/float64(total) > 0.5
}

// isPriceOrPoints reports whether line carries a price, points or percent.
func isPriceOrPoints(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "pts") || strings.Contains(lower, "$") || strings.Contains(lower, "%") {
		return true
	}
	return rePrice.MatchString(stripCodes(line))
}

func plausiblePrice(raw string) (float64, bool) {
	v, ok := textnorm.ParseAmount(raw)
	if !ok || v < minPlausiblePrice {
		return 0, false
	}
	return v, true
}

// linePrice returns the first plausible currency-marked amount on line.
func linePrice(line string) *float64 {
	for _, m := range reDollarPrice.FindAllStringSubmatch(stripCodes(line), -1) {
		if v, ok := plausiblePrice(m[1]); ok {
			return &v
		}
	}
	return nil
}

func linePoints(line string) *int {
	m := rePoints.FindStringSubmatch(stripCodes(line))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func linePercent(line string) *int {
	m := rePercent.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// pricePoints scans lines in the given order. A line holding both points
// and a price wins; otherwise each value is taken from the first line that
// has it.
func pricePoints(lines []string, order []int) (*float64, *int) {
	for _, j := range order {
		m := rePointsPrice.FindStringSubmatch(stripCodes(lines[j]))
		if m == nil {
			continue
		}
		v, ok := plausiblePrice(m[2])
		if !ok {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &v, &n
	}

	var price *float64
	var points *int
	for _, j := range order {
		if points == nil {
			points = linePoints(lines[j])
		}
		if price == nil {
			price = linePrice(lines[j])
		}
	}
	return price, points
}

// plausiblePrices returns every distinct plausible amount in lines, sorted
// ascending.
func plausiblePrices(lines []string) []float64 {
	seen := map[float64]bool{}
	var out []float64
	for _, ln := range lines {
		for _, m := range rePrice.FindAllStringSubmatch(stripCodes(ln), -1) {
			if v, ok := plausiblePrice(m[1]); ok && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Float64s(out)
	return out
}
