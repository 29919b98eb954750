package entity

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// PaymentMethodTotal is the accumulated amount for one payment label.
type PaymentMethodTotal struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"-"`
}

func (p PaymentMethodTotal) MarshalJSON() ([]byte, error) {
	type Alias PaymentMethodTotal
	return json.Marshal(&struct {
		Alias
		Amount json.Number `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: money.Number(p.Amount),
	})
}

// SalesSummary aggregates a set of sales.
type SalesSummary struct {
	TotalCount      int                  `json:"total_count"`
	TotalAmount     decimal.Decimal      `json:"-"`
	ByPaymentMethod []PaymentMethodTotal `json:"by_payment_method"`
}

func (s SalesSummary) MarshalJSON() ([]byte, error) {
	type Alias SalesSummary
	return json.Marshal(&struct {
		Alias
		TotalAmount json.Number `json:"total_amount"`
	}{
		Alias:       Alias(s),
		TotalAmount: money.Number(s.TotalAmount),
	})
}

// TotalAmount sums the sale totals.
func TotalAmount(sales []Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Total)
	}
	return total
}

// TotalCount returns the number of sales.
func TotalCount(sales []Sale) int {
	return len(sales)
}

// AmountByPaymentMethod accumulates payment amounts per method label as
// reported by the remote service. The result is not reconciled against the
// sale totals.
func AmountByPaymentMethod(sales []Sale) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, s := range sales {
		for _, p := range s.Payments {
			totals[p.Method] = totals[p.Method].Add(p.Amount)
		}
	}
	return totals
}

// SummarizeSales computes count, amount and per-method totals. Methods are
// listed by label for a stable output.
func SummarizeSales(sales []Sale) SalesSummary {
	byMethod := AmountByPaymentMethod(sales)

	methods := make([]string, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	out := make([]PaymentMethodTotal, 0, len(methods))
	for _, m := range methods {
		out = append(out, PaymentMethodTotal{Method: m, Amount: byMethod[m]})
	}

	return SalesSummary{
		TotalCount:      TotalCount(sales),
		TotalAmount:     TotalAmount(sales),
		ByPaymentMethod: out,
	}
}

// AmountFor returns the accumulated amount for a label, zero when absent.
func (s SalesSummary) AmountFor(method string) decimal.Decimal {
	for _, p := range s.ByPaymentMethod {
		if p.Method == method {
			return p.Amount
		}
	}
	return decimal.Zero
}
