// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile folds page documents into one canonical record per SKU.
// The first sighting of a field wins; later sightings only fill fields that
// are still missing, and disagreements are logged as conflicts instead of
// overwriting.
package reconcile

import (
	"reflect"
	"sort"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// mergeField is one field of types.ProductFields addressed by index, with
// its serialized name used in conflict records.
type mergeField struct {
	name  string
	index int
}

var mergeFields = func() []mergeField {
	t := reflect.TypeOf(types.ProductFields{})
	fields := make([]mergeField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		fields = append(fields, mergeField{name: name, index: i})
	}
	return fields
}()

// Merge reconciles docs, in order, into canonical records for the given
// catalog cycle. Items without a SKU go to Unmatched, stamped with their
// page. The result slices and map are never nil.
func Merge(docs []types.PageDocument, catalog, cycle string) types.MergeResult {
	res := types.MergeResult{
		Catalog:   catalog,
		Cycle:     cycle,
		BySKU:     map[string]*types.CanonicalRecord{},
		Unmatched: []types.ProductEntity{},
		Conflicts: []types.ConflictRecord{},
	}
	for _, doc := range docs {
		for _, item := range doc.Items {
			fold(&res, doc.Page, item)
		}
	}
	return res
}

func fold(res *types.MergeResult, page int, item types.ProductEntity) {
	sku := strings.TrimSpace(item.SKU)
	if sku == "" {
		u := cloneEntity(item)
		if page > 0 {
			u.SourcePage = page
		}
		res.Unmatched = append(res.Unmatched, u)
		return
	}

	rec, ok := res.BySKU[sku]
	if !ok {
		rec = &types.CanonicalRecord{
			SKU:           sku,
			Catalog:       res.Catalog,
			Cycle:         res.Cycle,
			ProductFields: cloneFields(item.ProductFields),
			Trace:         types.Trace{Pages: []int{}},
			Warnings:      unionSorted(nil, item.Warnings),
		}
		rec.Trace.Pages = addPage(rec.Trace.Pages, page)
		res.BySKU[sku] = rec
		return
	}

	rec.Trace.Pages = addPage(rec.Trace.Pages, page)
	rec.Warnings = unionSorted(rec.Warnings, item.Warnings)

	dst := reflect.ValueOf(&rec.ProductFields).Elem()
	src := reflect.ValueOf(item.ProductFields)
	for _, f := range mergeFields {
		old, cur := dst.Field(f.index), src.Field(f.index)
		switch {
		case missing(cur):
		case missing(old):
			old.Set(cloneValue(cur))
		case !reflect.DeepEqual(value(old), value(cur)):
			res.Conflicts = append(res.Conflicts, types.ConflictRecord{
				SKU:        sku,
				Field:      f.name,
				FirstValue: value(old),
				NewValue:   value(cur),
				Pages:      append([]int(nil), rec.Trace.Pages...),
			})
		}
	}
}

// missing reports whether v is nil, an empty string or an empty slice or
// map. Zero numbers are present.
func missing(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return false
}

// value returns the plain value behind v, dereferencing pointers.
func value(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		p := reflect.New(v.Elem().Type())
		p.Elem().Set(v.Elem())
		return p
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(s, v)
		return s
	}
	return v
}

func cloneFields(f types.ProductFields) types.ProductFields {
	var out types.ProductFields
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(f)
	for _, mf := range mergeFields {
		dst.Field(mf.index).Set(cloneValue(src.Field(mf.index)))
	}
	return out
}

func cloneEntity(e types.ProductEntity) types.ProductEntity {
	out := e
	out.ProductFields = cloneFields(e.ProductFields)
	if e.Warnings != nil {
		out.Warnings = append([]string(nil), e.Warnings...)
	}
	return out
}

func addPage(pages []int, page int) []int {
	if page <= 0 {
		return pages
	}
	i := sort.SearchInts(pages, page)
	if i < len(pages) && pages[i] == page {
		return pages
	}
	pages = append(pages, 0)
	copy(pages[i+1:], pages[i:])
	pages[i] = page
	return pages
}

// unionSorted returns the sorted set union of a and b. It never returns nil.
func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
