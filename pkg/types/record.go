// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strconv"
)

// Trace lists the pages that contributed to a canonical record.
type Trace struct {
	// Pages is the sorted set of contributing page numbers.
	Pages []int `json:"pages" yaml:"pages"`
}

// CanonicalRecord is the reconciled record for one SKU across all pages of
// one catalog cycle. Fields only move from missing to present; a later
// sighting never overwrites an existing value.
type CanonicalRecord struct {
	SKU     string `json:"sku" yaml:"sku"`
	Catalog string `json:"catalog" yaml:"catalog"`
	Cycle   string `json:"cycle" yaml:"cycle"`

	ProductFields `yaml:",inline"`

	Trace    Trace    `json:"trace" yaml:"trace"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// ConflictRecord logs a field on which two sightings of a SKU disagreed.
// The canonical record keeps FirstValue.
type ConflictRecord struct {
	SKU        string `json:"sku" yaml:"sku"`
	Field      string `json:"field" yaml:"field"`
	FirstValue any    `json:"first_value" yaml:"first_value"`
	NewValue   any    `json:"new_value" yaml:"new_value"`
	Pages      []int  `json:"pages" yaml:"pages"`
}

// MergeResult is the output of reconciling the page documents of one
// catalog cycle. Every input item ends up in exactly one of BySKU (folded
// into a record) or Unmatched.
type MergeResult struct {
	Catalog   string                      `json:"catalog" yaml:"catalog"`
	Cycle     string                      `json:"cycle" yaml:"cycle"`
	BySKU     map[string]*CanonicalRecord `json:"by_sku" yaml:"by_sku"`
	Unmatched []ProductEntity             `json:"unmatched_items" yaml:"unmatched_items"`
	Conflicts []ConflictRecord            `json:"conflicts" yaml:"conflicts"`
}

// SKUs returns the keys of BySKU in numeric order. Non-numeric SKUs sort
// after numeric ones, lexically.
func (r MergeResult) SKUs() []string {
	skus := make([]string, 0, len(r.BySKU))
	for sku := range r.BySKU {
		skus = append(skus, sku)
	}
	SortSKUs(skus)
	return skus
}

// SortSKUs sorts SKUs numerically in place.
func SortSKUs(skus []string) {
	sort.Slice(skus, func(i, j int) bool {
		a, errA := strconv.Atoi(skus[i])
		b, errB := strconv.Atoi(skus[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return skus[i] < skus[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return skus[i] < skus[j]
	})
}
