package request

import (
	"bytes"
	"encoding/json"
)

// SelectProductRequest picks a product from the catalog
type SelectProductRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

// SelectFlavorRequest picks a flavor by name or id
type SelectFlavorRequest struct {
	Flavor string `json:"flavor" binding:"required"`
}

// SelectVariantRequest picks a variant of the selected product
type SelectVariantRequest struct {
	VariantID int64 `json:"variant_id" binding:"required,gt=0"`
}

// SetQuantityRequest carries the quantity exactly as typed. Numbers and
// strings are both accepted; validation happens on commit.
type SetQuantityRequest struct {
	Quantity QuantityText `json:"quantity"`
}

// SetObservationRequest sets the observation of the next settlement
type SetObservationRequest struct {
	Observation string `json:"observation" binding:"max=500"`
}

// SettleRequest settles the cart with a single payment
type SettleRequest struct {
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Observation   *string `json:"observation" binding:"omitempty,max=500"`
}

// QuantityText is raw quantity input sent as a JSON string or number.
type QuantityText string

func (q *QuantityText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuantityText(s)
		return nil
	}
	*q = QuantityText(data)
	return nil
}
