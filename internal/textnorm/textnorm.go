// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm holds the line and amount normalization shared by the
// classifier and the extraction strategies.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reDecimal = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// Lines splits page text into NFC-normalized, trimmed, non-blank lines with
// runs of spaces collapsed.
func Lines(text string) []string {
	text = norm.NFC.String(text)
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// Fold lower-cases s and strips combining marks so that keyword matching
// treats "PROMOCIÓN" and "promocion" alike.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// ParseAmount converts a price token such as "199", "199.00", "199,00",
// "1,299.50" or "1.299,50" to a float. The second return is false when the
// token is not a plain decimal amount (signs, exponents, Inf and NaN are
// rejected).
func ParseAmount(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" {
		return 0, false
	}

	switch {
	case strings.Contains(v, ",") && strings.Contains(v, "."):
		if strings.LastIndex(v, ",") > strings.LastIndex(v, ".") {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.ReplaceAll(v, ",", ".")
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case strings.Contains(v, ","):
		parts := strings.Split(v, ",")
		if len(parts[len(parts)-1]) == 2 {
			v = strings.ReplaceAll(v, ",", ".")
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case strings.Contains(v, "."):
		parts := strings.Split(v, ".")
		if len(parts) > 1 && len(parts[len(parts)-1]) == 3 {
			v = strings.ReplaceAll(v, ".", "")
		}
	}

	if !reDecimal.MatchString(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
