package entity

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/internal/domain/enum"
	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// SettlementRequest is the sale submitted to the remote sales service.
type SettlementRequest struct {
	LocationID  int64               `json:"location_id"`
	Observation *string             `json:"observation"`
	Items       []SettlementItem    `json:"items"`
	Payments    []SettlementPayment `json:"payments"`
}

// SettlementItem references the variant by id and the flavor by name.
type SettlementItem struct {
	VariantID  int64           `json:"variant_id"`
	FlavorName *string         `json:"flavor_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"-"`
}

func (i SettlementItem) MarshalJSON() ([]byte, error) {
	type Alias SettlementItem
	return json.Marshal(&struct {
		Alias
		UnitPrice json.Number `json:"unit_price"`
	}{
		Alias:     Alias(i),
		UnitPrice: money.Number(i.UnitPrice),
	})
}

// SettlementPayment carries the wire label of the payment method.
type SettlementPayment struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"-"`
	Reference *string         `json:"reference"`
}

func (p SettlementPayment) MarshalJSON() ([]byte, error) {
	type Alias SettlementPayment
	return json.Marshal(&struct {
		Alias
		Amount json.Number `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: money.Number(p.Amount),
	})
}

// Total is the sum of all payment amounts.
func (r *SettlementRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// SubmittedSale is the remote acknowledgement of a settlement.
type SubmittedSale struct {
	SaleID int64           `json:"sale_id"`
	Total  decimal.Decimal `json:"-"`
}

func (s SubmittedSale) MarshalJSON() ([]byte, error) {
	type Alias SubmittedSale
	return json.Marshal(&struct {
		Alias
		Total json.Number `json:"total"`
	}{
		Alias: Alias(s),
		Total: money.Number(s.Total),
	})
}

// ComposeSettlement builds the request for a cart with a single payment
// covering the whole cart total. The cart itself is not modified.
func ComposeSettlement(cart *CartLedger, method enum.PaymentMethod, observation string, locationID int64) (*SettlementRequest, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !method.IsValid() {
		return nil, NewValidationError("payment_method", "payment method must be one of CASH, CARD, TRANSFER, OTHER")
	}

	req := &SettlementRequest{
		LocationID: locationID,
		Items:      make([]SettlementItem, 0, cart.Len()),
	}
	if trimmed := strings.TrimSpace(observation); trimmed != "" {
		req.Observation = &trimmed
	}

	for _, line := range cart.Items() {
		item := SettlementItem{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.Flavor != nil {
			name := *line.Flavor
			item.FlavorName = &name
		}
		req.Items = append(req.Items, item)
	}

	req.Payments = []SettlementPayment{{
		Method: method.Label(),
		Amount: cart.Total(),
	}}

	return req, nil
}
