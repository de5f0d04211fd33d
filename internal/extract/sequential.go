// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/catalog-engine/internal/textnorm"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var reSequentialCode = regexp.MustCompile(`\((\d{5,6})\)`)

var sequentialFooters = []string{"valido hasta agotar existencias", "cofepris", "salud es belleza"}

var sequentialStopWords = []string{"$", "pts", "(", "a:"}

// parseState is the position of the sequential reader within one product
// block: name lines, description lines, the code line, then prices.
type parseState int

const (
	stateName parseState = iota
	stateDescription
	stateCode
	statePrices
)

type accumulator struct {
	name        []string
	description []string
	sku         string
	points      *int
	regular     *float64
	discounted  *float64
}

// machine walks page lines in order and emits a product once both its code
// and discounted price have been seen.
type machine struct {
	state parseState
	acc   accumulator
}

// step consumes one line. It returns the completed product, if any.
func (m *machine) step(line string) (types.ProductEntity, bool) {
	line = strings.TrimSpace(line)
	if line == "" || containsAny(textnorm.Fold(line), sequentialFooters) {
		return types.ProductEntity{}, false
	}

	if m.state == stateName {
		if isSequentialName(line, 2) {
			m.acc.name = append(m.acc.name, line)
			return types.ProductEntity{}, false
		}
		m.state = stateDescription
	}

	if m.state == stateDescription {
		if isSequentialName(line, 3) {
			m.acc.description = append(m.acc.description, line)
			return types.ProductEntity{}, false
		}
		m.state = stateCode
	}

	if m.state == stateCode {
		if c := reSequentialCode.FindStringSubmatch(line); c != nil {
			m.acc.sku = c[1]
			m.acc.points = linePoints(line)
			m.state = statePrices
		}
		return types.ProductEntity{}, false
	}

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "a:") && strings.Contains(lower, "$"):
		m.acc.discounted = amountAfterDollar(line)
	case strings.Contains(lower, "$"):
		m.acc.regular = amountAfterDollar(line)
	}

	if m.acc.sku == "" || m.acc.discounted == nil {
		return types.ProductEntity{}, false
	}
	e := m.emit()
	m.reset()
	return e, true
}

func (m *machine) emit() types.ProductEntity {
	e := types.ProductEntity{SKU: m.acc.sku}
	e.Name = strings.Join(m.acc.name, " ")
	e.Description = strings.Join(m.acc.description, " ")
	e.Points = m.acc.points
	e.Price = m.acc.discounted
	e.PriceBefore = m.acc.regular
	return e
}

func (m *machine) reset() {
	m.state = stateName
	m.acc = accumulator{}
}

func isSequentialName(line string, minTokens int) bool {
	return len(strings.Fields(line)) >= minTokens && !containsAny(strings.ToLower(line), sequentialStopWords)
}

func amountAfterDollar(line string) *float64 {
	i := strings.Index(line, "$")
	if i < 0 {
		return nil
	}
	fields := strings.Fields(line[i+1:])
	if len(fields) == 0 || !reAmountToken.MatchString(fields[0]) {
		return nil
	}
	if v, ok := textnorm.ParseAmount(fields[0]); ok {
		return &v
	}
	return nil
}

// sequential reads catalogs that print each product as a fixed run of
// name, description, code and price lines.
type sequential struct{}

func (sequential) Parse(lines []string, meta types.PageMeta) []types.ProductEntity {
	var m machine
	var out []types.ProductEntity
	for _, ln := range lines {
		if e, ok := m.step(ln); ok {
			out = append(out, e)
		}
	}
	return out
}
