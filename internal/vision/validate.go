// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// ErrInvalidPayload is returned when a model payload does not describe a
// page document.
var ErrInvalidPayload = errors.New("invalid vision payload")

var (
	nullableString = map[string]any{"type": []any{"string", "null"}}
	nullableNumber = map[string]any{"type": []any{"number", "null"}}
	nullableInt    = map[string]any{"type": []any{"integer", "null"}}
	stringList     = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
)

// pageSchema describes a payload after normalization. Unknown properties
// are allowed.
var pageSchema = map[string]any{
	"type":     "object",
	"required": []any{"page", "items"},
	"properties": map[string]any{
		"page":     map[string]any{"type": "integer", "minimum": 1},
		"warnings": stringList,
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sku":              nullableString,
					"name":             nullableString,
					"description":      nullableString,
					"variant":          nullableString,
					"size":             nullableString,
					"price":            nullableNumber,
					"price_before":     nullableNumber,
					"price_regular":    nullableNumber,
					"price_sale_final": nullableNumber,
					"discount_percent": nullableInt,
					"discount_badge":   nullableString,
					"points":           nullableInt,
					"combo_items":      stringList,
					"variants":         stringList,
					"notes":            stringList,
					"warnings":         stringList,
				},
			},
		},
	},
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(pageSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("page.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("page.json")
})

// Validate stamps page onto payload, normalizes the shapes models commonly
// get wrong and checks the result against the page schema. payload is
// modified in place.
func Validate(payload map[string]any, page int) (types.PageDocument, error) {
	payload["page"] = page
	if _, ok := payload["items"]; !ok {
		payload["items"] = []any{}
	}
	normalizeList(payload, "warnings")
	if items, ok := payload["items"].([]any); ok {
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				normalizeItem(m)
			}
		}
	}

	schema, err := compiledSchema()
	if err != nil {
		return types.PageDocument{}, fmt.Errorf("compile schema: %w", err)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return types.PageDocument{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return types.PageDocument{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := schema.Validate(v); err != nil {
		return types.PageDocument{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var doc types.PageDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return types.PageDocument{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if doc.Items == nil {
		doc.Items = []types.ProductEntity{}
	}
	for i := range doc.Items {
		doc.Items[i].SourcePage = page
	}
	return doc, nil
}

// normalizeItem rewrites one item: numeric SKUs become strings, "title"
// fills a missing "name", and single strings in list fields become lists.
func normalizeItem(m map[string]any) {
	switch sku := m["sku"].(type) {
	case float64:
		if sku == math.Trunc(sku) {
			m["sku"] = strconv.FormatInt(int64(sku), 10)
		} else {
			m["sku"] = strconv.FormatFloat(sku, 'f', -1, 64)
		}
	case int:
		m["sku"] = strconv.Itoa(sku)
	case string:
		m["sku"] = strings.Trim(strings.TrimSpace(sku), "()")
	}
	if title, ok := m["title"].(string); ok {
		if name, _ := m["name"].(string); name == "" {
			m["name"] = title
		}
	}
	delete(m, "title")
	for _, key := range []string{"notes", "warnings", "combo_items", "variants"} {
		normalizeList(m, key)
	}
}

func normalizeList(m map[string]any, key string) {
	switch v := m[key].(type) {
	case nil:
		delete(m, key)
	case string:
		if strings.TrimSpace(v) == "" {
			delete(m, key)
		} else {
			m[key] = []any{v}
		}
	}
}
