// Package catalog holds the startup-loaded artifacts that describe the item universe:
// the SKU to row position mapping, the per-item embedding table and product metadata.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownIdentifier is returned when a SKU is not in the mapping.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrOutOfRange is returned when a row position is outside [0, Len()).
	ErrOutOfRange = errors.New("position out of range")
	// ErrDuplicateIdentifier is returned when a SKU occurs on more than one row.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

// Mapping is an immutable bijection between row positions and SKUs.
type Mapping struct {
	skus      []string
	positions map[string]int
}

// NewMapping builds the mapping from a row-ordered SKU list: skus[i] is at position i.
func NewMapping(skus []string) (*Mapping, error) {
	m := &Mapping{
		skus:      make([]string, len(skus)),
		positions: make(map[string]int, len(skus)),
	}
	for i, sku := range skus {
		if strings.TrimSpace(sku) == "" {
			return nil, fmt.Errorf("blank identifier at row %d", i)
		}
		if prev, ok := m.positions[sku]; ok {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateIdentifier, sku, prev, i)
		}
		m.positions[sku] = i
		m.skus[i] = sku
	}
	return m, nil
}

// Lookup returns the row position of sku and whether it exists.
func (m *Mapping) Lookup(sku string) (int, bool) {
	pos, ok := m.positions[sku]
	return pos, ok
}

// Position returns the row position of sku, or ErrUnknownIdentifier.
func (m *Mapping) Position(sku string) (int, error) {
	pos, ok := m.positions[sku]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownIdentifier, sku)
	}
	return pos, nil
}

// SKU returns the SKU at pos, or ErrOutOfRange.
func (m *Mapping) SKU(pos int) (string, error) {
	if pos < 0 || pos >= len(m.skus) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, pos, len(m.skus))
	}
	return m.skus[pos], nil
}

// Len returns the number of mapped rows.
func (m *Mapping) Len() int { return len(m.skus) }
