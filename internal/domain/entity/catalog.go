package entity

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// Product is a catalog product as served by the remote catalog.
type Product struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
	Flavors  []Flavor  `json:"flavors"`
}

// Variant is a size or presentation of a product with its own price.
// A nil Price means the catalog did not provide one.
type Variant struct {
	ID    int64            `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"-"`
}

// MarshalJSON renders the price as a plain number, or null when absent
func (v Variant) MarshalJSON() ([]byte, error) {
	type Alias Variant
	var price *json.Number
	if v.Price != nil {
		n := money.Number(*v.Price)
		price = &n
	}
	return json.Marshal(&struct {
		Alias
		Price *json.Number `json:"price"`
	}{
		Alias: Alias(v),
		Price: price,
	})
}

// UnitPrice returns the variant price, zero when absent.
func (v Variant) UnitPrice() decimal.Decimal {
	if v.Price == nil {
		return decimal.Zero
	}
	return *v.Price
}

// Flavor is an optional flavor choice of a product.
type Flavor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HasFlavors reports whether a flavor must be chosen for this product.
func (p *Product) HasFlavors() bool {
	return len(p.Flavors) > 0
}

// FindVariant looks up a variant by id.
func (p *Product) FindVariant(id int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// FindFlavor looks up a flavor by name (case-insensitive) or by numeric id.
func (p *Product) FindFlavor(ref string) (Flavor, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Flavor{}, false
	}
	for _, f := range p.Flavors {
		if strings.EqualFold(strings.TrimSpace(f.Name), ref) {
			return f, true
		}
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, f := range p.Flavors {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Flavor{}, false
}

// Clone returns a deep copy so later catalog edits do not leak into a selection.
func (p Product) Clone() Product {
	out := p
	out.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		if v.Price != nil {
			price := *v.Price
			v.Price = &price
		}
		out.Variants[i] = v
	}
	out.Flavors = append([]Flavor(nil), p.Flavors...)
	return out
}
