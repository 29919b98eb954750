package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// CartItem is one committed line of the cart. UnitPrice is the variant price
// captured when the line was committed.
type CartItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantID   int64           `json:"variant_id"`
	VariantName string          `json:"variant_name"`
	Flavor      *string         `json:"flavor"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"-"`
}

// LineTotal returns round(UnitPrice * Quantity, 2).
func (i CartItem) LineTotal() decimal.Decimal {
	return money.LineTotal(i.UnitPrice, i.Quantity)
}

// MarshalJSON renders prices as numbers and includes the derived line total
func (i CartItem) MarshalJSON() ([]byte, error) {
	type Alias CartItem
	return json.Marshal(&struct {
		Alias
		UnitPrice json.Number `json:"unit_price"`
		LineTotal json.Number `json:"line_total"`
	}{
		Alias:     Alias(i),
		UnitPrice: money.Number(i.UnitPrice),
		LineTotal: money.Number(i.LineTotal()),
	})
}

// CartLedger is the ordered list of committed lines of a terminal.
// It is not safe for concurrent use; callers hold the session lock.
type CartLedger struct {
	items []CartItem
}

// NewCartLedger creates an empty cart
func NewCartLedger() *CartLedger {
	return &CartLedger{items: []CartItem{}}
}

// Add appends a line at the end of the cart.
func (c *CartLedger) Add(item CartItem) {
	c.items = append(c.items, item)
}

// RemoveAt removes the line at a zero-based position, keeping the order of
// the others. An invalid index leaves the cart unchanged.
func (c *CartLedger) RemoveAt(index int) (CartItem, error) {
	if index < 0 || index >= len(c.items) {
		return CartItem{}, ErrCartIndexOutOfRange
	}
	removed := c.items[index]
	c.items = append(c.items[:index], c.items[index+1:]...)
	return removed, nil
}

// Total sums the line totals of the current lines.
func (c *CartLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return money.Round(total)
}

// Items returns a copy of the lines in insertion order.
func (c *CartLedger) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *CartLedger) Len() int {
	return len(c.items)
}

func (c *CartLedger) IsEmpty() bool {
	return len(c.items) == 0
}

// Clear empties the cart. Only called once a settlement is confirmed.
func (c *CartLedger) Clear() {
	c.items = []CartItem{}
}
