// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"blank lines only", "\n  \n\t\n", []string{}},
		{"trims and collapses", "  Crema   Hidratante \r\n\n(123456)  12 pts\n", []string{"Crema Hidratante", "(123456) 12 pts"}},
		{"composes accents", "Promoción", []string{"Promoción"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lines(tt.text))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "promocion valida", Fold("PROMOCIÓN Válida"))
	assert.Equal(t, "cofepris", Fold("Cofepris"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"199", 199, true},
		{"$199.00", 199, true},
		{"199,00", 199, true},
		{"1,299.50", 1299.5, true},
		{"1.299,50", 1299.5, true},
		{"10,399", 10399, true},
		{"10.399", 10399, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Inf", 0, false},
		{"-Inf", 0, false},
		{"NaN", 0, false},
		{"1e5", 0, false},
		{"-199", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
