// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// LayoutType is the layout family assigned to one catalog page.
// Exactly one value is assigned per page; UNKNOWN is the fallback.
type LayoutType string

const (
	LayoutEmpty         LayoutType = "EMPTY"
	LayoutLegal         LayoutType = "LEGAL"
	LayoutPromoBanner   LayoutType = "PROMO_BANNER"
	LayoutCombo         LayoutType = "COMBO"
	LayoutTonesList     LayoutType = "TONES_LIST"
	LayoutDeToA         LayoutType = "DE_TO_A"
	LayoutProductSimple LayoutType = "PRODUCT_SIMPLE"
	LayoutSKUOnly       LayoutType = "SKU_ONLY"
	LayoutUnknown       LayoutType = "UNKNOWN"

	// Catalog-specific tags. They are never produced by the classifier;
	// the router stamps them when a document-name override applies.
	LayoutHolistic   LayoutType = "HOLISTIC"
	LayoutSequential LayoutType = "SEQUENTIAL"
)

// LayoutTypes lists the classifier's layout types in cascade order.
var LayoutTypes = []LayoutType{
	LayoutEmpty,
	LayoutLegal,
	LayoutPromoBanner,
	LayoutCombo,
	LayoutTonesList,
	LayoutDeToA,
	LayoutProductSimple,
	LayoutSKUOnly,
	LayoutUnknown,
}

// Valid reports whether t is a known layout type, including the
// catalog-specific tags.
func (t LayoutType) Valid() bool {
	switch t {
	case LayoutHolistic, LayoutSequential:
		return true
	}
	for _, lt := range LayoutTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// ParseLayoutType converts a case-insensitive name into a LayoutType.
func ParseLayoutType(s string) (LayoutType, error) {
	t := LayoutType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown layout type %q", s)
	}
	return t, nil
}

// Page is the extracted plain text of one page of a document.
// Number is 1-based.
type Page struct {
	Number int    `json:"number" yaml:"number"`
	Text   string `json:"text" yaml:"text"`
}

// PageSignal holds the signals the classifier derived from one page.
// It is computed once per page and never mutated afterwards.
type PageSignal struct {
	// Lines are the non-blank, trimmed lines of the page in order.
	Lines []string `json:"-" yaml:"-"`

	// SKUs are the distinct SKU-like tokens in first-seen order.
	SKUs []string `json:"skus_found" yaml:"skus_found"`

	// Prices are the price-like tokens as they appear in the text.
	Prices []string `json:"prices_found" yaml:"prices_found"`

	// Percents are the numeric parts of percent tokens.
	Percents []string `json:"percent_found" yaml:"percent_found"`

	HasPoints   bool `json:"points_found" yaml:"points_found"`
	HasCombo    bool `json:"combo" yaml:"combo"`
	HasLegal    bool `json:"legal" yaml:"legal"`
	HasPromoTag bool `json:"promo_tag" yaml:"promo_tag"`
	HasDeToA    bool `json:"de_to_a" yaml:"de_to_a"`

	// ToneLines counts lines that end in a parenthesized numeric code.
	ToneLines int `json:"tone_lines" yaml:"tone_lines"`
}

// Summary renders the signal as a short "skus=3; prices=2; points" string.
func (s PageSignal) Summary() string {
	var parts []string
	if len(s.SKUs) > 0 {
		parts = append(parts, fmt.Sprintf("skus=%d", len(s.SKUs)))
	}
	if len(s.Prices) > 0 {
		parts = append(parts, fmt.Sprintf("prices=%d", len(s.Prices)))
	}
	if len(s.Percents) > 0 {
		parts = append(parts, "discounts="+strings.Join(s.Percents, ","))
	}
	if s.HasPoints {
		parts = append(parts, "points")
	}
	if s.HasCombo {
		parts = append(parts, "combo")
	}
	if s.HasLegal {
		parts = append(parts, "legal")
	}
	return strings.Join(parts, "; ")
}

// PageMeta is the routing metadata for one page.
type PageMeta struct {
	Page         int        `json:"page" yaml:"page"`
	DetectedType LayoutType `json:"detected_type" yaml:"detected_type"`
}

// ProductFields holds the fields that reconciliation merges across
// sightings of the same SKU. Numeric fields are pointers so that a zero
// value is distinguishable from a missing one.
type ProductFields struct {
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Variant         string   `json:"variant,omitempty" yaml:"variant,omitempty"`
	Size            string   `json:"size,omitempty" yaml:"size,omitempty"`
	Price           *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	PriceBefore     *float64 `json:"price_before,omitempty" yaml:"price_before,omitempty"`
	PriceRegular    *float64 `json:"price_regular,omitempty" yaml:"price_regular,omitempty"`
	PriceSaleFinal  *float64 `json:"price_sale_final,omitempty" yaml:"price_sale_final,omitempty"`
	DiscountPercent *int     `json:"discount_percent,omitempty" yaml:"discount_percent,omitempty"`
	DiscountBadge   string   `json:"discount_badge,omitempty" yaml:"discount_badge,omitempty"`
	Points          *int     `json:"points,omitempty" yaml:"points,omitempty"`
	ComboItems      []string `json:"combo_items,omitempty" yaml:"combo_items,omitempty"`
	Variants        []string `json:"variants,omitempty" yaml:"variants,omitempty"`
	Notes           []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ProductEntity is one product read from one page, by a text strategy or
// by a vision call.
type ProductEntity struct {
	// SKU is the short numeric product identifier. Empty when the page
	// did not show one.
	SKU string `json:"sku,omitempty" yaml:"sku,omitempty"`

	ProductFields `yaml:",inline"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// SourcePage is the 1-based page the entity was read from.
	SourcePage int `json:"source_page" yaml:"source_page"`

	// DetectedType records which strategy produced the entity.
	DetectedType LayoutType `json:"detected_type,omitempty" yaml:"detected_type,omitempty"`
}

// PageDocument is the set of entities read from one page. It is the unit
// of input to reconciliation.
type PageDocument struct {
	Page     int             `json:"page" yaml:"page"`
	Items    []ProductEntity `json:"items" yaml:"items"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Error records why a page produced no items. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// ParsedDocument is the text-extraction output for one document: the page
// documents of every page that yielded at least one entity.
type ParsedDocument struct {
	Document string         `json:"document" yaml:"document"`
	Pages    []PageDocument `json:"pages" yaml:"pages"`
}

// ItemCount returns the number of entities across all pages.
func (d ParsedDocument) ItemCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Items)
	}
	return n
}
