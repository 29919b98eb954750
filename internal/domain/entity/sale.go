package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// DateLayout is the calendar date format used for sale dates and filters
const DateLayout = "2006-01-02"

var openedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Sale is a recorded sale as listed by the remote sales service. It is
// read-only inside this service.
type Sale struct {
	ID          int64           `json:"id"`
	OpenedAt    string          `json:"opened_at"`
	Total       decimal.Decimal `json:"-"`
	Status      string          `json:"status"`
	Observation *string         `json:"observation"`
	Items       []SaleItem      `json:"items"`
	Payments    []SalePayment   `json:"payments"`
}

func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		OpenedOn string      `json:"opened_on,omitempty"`
		Total    json.Number `json:"total"`
	}{
		Alias:    Alias(s),
		OpenedOn: s.OpenedOn(),
		Total:    money.Number(s.Total),
	})
}

// OpenedOn returns the calendar date written in OpenedAt (YYYY-MM-DD),
// ignoring time of day and offset, or "" when it has none.
func (s Sale) OpenedOn() string {
	date, ok := s.Date()
	if !ok {
		return ""
	}
	return date.Format(DateLayout)
}

// Date returns the calendar date written in OpenedAt. The date is taken as
// written, never shifted to another timezone.
func (s Sale) Date() (time.Time, bool) {
	raw := strings.TrimSpace(s.OpenedAt)
	if len(raw) < len(DateLayout) {
		return time.Time{}, false
	}
	date, err := time.Parse(DateLayout, raw[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// OpenedTime parses OpenedAt as a full timestamp for ordering. Unparseable
// values return the zero time.
func (s Sale) OpenedTime() time.Time {
	raw := strings.TrimSpace(s.OpenedAt)
	for _, layout := range openedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SaleItem is a line of a recorded sale.
type SaleItem struct {
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	FlavorName  *string         `json:"flavor_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"-"`
	LineTotal   decimal.Decimal `json:"-"`
}

func (i SaleItem) MarshalJSON() ([]byte, error) {
	type Alias SaleItem
	return json.Marshal(&struct {
		Alias
		UnitPrice json.Number `json:"unit_price"`
		LineTotal json.Number `json:"line_total"`
	}{
		Alias:     Alias(i),
		UnitPrice: money.Number(i.UnitPrice),
		LineTotal: money.Number(i.LineTotal),
	})
}

// SalePayment is a payment of a recorded sale. Method is kept exactly as
// the remote service reported it.
type SalePayment struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"-"`
	Reference *string         `json:"reference"`
}

func (p SalePayment) MarshalJSON() ([]byte, error) {
	type Alias SalePayment
	return json.Marshal(&struct {
		Alias
		Amount json.Number `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: money.Number(p.Amount),
	})
}

// SaleDeletion reports what the remote service removed with a sale.
type SaleDeletion struct {
	SaleID          int64  `json:"sale_id"`
	ItemsDeleted    int    `json:"items_deleted"`
	PaymentsDeleted int    `json:"payments_deleted"`
	Confirmation    string `json:"confirmation"`
}

// ConfirmationText is the message shown to the operator after a deletion.
func (d SaleDeletion) ConfirmationText() string {
	return fmt.Sprintf("Sale #%d deleted: %d %s and %d %s removed",
		d.SaleID,
		d.ItemsDeleted, plural(d.ItemsDeleted, "item", "items"),
		d.PaymentsDeleted, plural(d.PaymentsDeleted, "payment", "payments"),
	)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
