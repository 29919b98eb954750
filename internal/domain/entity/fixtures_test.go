package entity

import "github.com/shopspring/decimal"

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func lemonade() Product {
	return Product{
		ID:   1,
		Name: "Limonada",
		Variants: []Variant{
			{ID: 10, Name: "Chica", Price: price("25.00")},
			{ID: 11, Name: "Grande", Price: price("40.50")},
			{ID: 12, Name: "Promo"},
		},
		Flavors: []Flavor{
			{ID: 100, Name: "Fresa"},
			{ID: 101, Name: "Mango"},
		},
	}
}

func water() Product {
	return Product{
		ID:       2,
		Name:     "Agua",
		Variants: []Variant{{ID: 20, Name: "500ml", Price: price("12.00")}},
	}
}

func strPtr(s string) *string {
	return &s
}
