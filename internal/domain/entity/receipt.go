package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// ReceiptHeader holds the store header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ReceiptItem is one printed line.
type ReceiptItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"-"`
	Total     decimal.Decimal `json:"-"`
}

func (i ReceiptItem) MarshalJSON() ([]byte, error) {
	type Alias ReceiptItem
	return json.Marshal(&struct {
		Alias
		UnitPrice json.Number `json:"unit_price"`
		Total     json.Number `json:"total"`
	}{
		Alias:     Alias(i),
		UnitPrice: money.Number(i.UnitPrice),
		Total:     money.Number(i.Total),
	})
}

// Receipt is composed from a confirmed settlement at print time. It is not
// stored anywhere.
type Receipt struct {
	Header      ReceiptHeader   `json:"header"`
	ReceiptNo   string          `json:"receipt_no"`
	SaleID      int64           `json:"sale_id,omitempty"`
	Date        time.Time       `json:"date"`
	Operator    string          `json:"operator,omitempty"`
	PaymentType string          `json:"payment_type,omitempty"`
	Observation string          `json:"observation,omitempty"`
	Items       []ReceiptItem   `json:"items"`
	Total       decimal.Decimal `json:"-"`
}

func (r Receipt) MarshalJSON() ([]byte, error) {
	type Alias Receipt
	return json.Marshal(&struct {
		Alias
		Total json.Number `json:"total"`
	}{
		Alias: Alias(r),
		Total: money.Number(r.Total),
	})
}

// NewSettlementReceipt builds the receipt of a settled cart. Lines are named
// "Product Variant (Flavor)".
func NewSettlementReceipt(header ReceiptHeader, receiptNo string, items []CartItem, req *SettlementRequest, sale *SubmittedSale) *Receipt {
	r := &Receipt{
		Header:    header,
		ReceiptNo: receiptNo,
		Date:      time.Now(),
		Items:     make([]ReceiptItem, 0, len(items)),
	}
	if sale != nil {
		r.SaleID = sale.SaleID
	}
	if req != nil {
		r.Total = req.Total()
		if len(req.Payments) > 0 {
			r.PaymentType = req.Payments[0].Method
		}
		if req.Observation != nil {
			r.Observation = *req.Observation
		}
	}

	for _, it := range items {
		name := it.ProductName
		if it.VariantName != "" {
			name += " " + it.VariantName
		}
		if it.Flavor != nil && *it.Flavor != "" {
			name += " (" + *it.Flavor + ")"
		}
		r.Items = append(r.Items, ReceiptItem{
			Name:      name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.LineTotal(),
		})
	}

	return r
}
