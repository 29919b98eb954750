package entity

import (
	"strconv"
	"strings"

	"github.com/sangkips/pos-terminal-api/internal/domain/enum"
)

// DefaultQuantityInput is the quantity offered after picking a product
const DefaultQuantityInput = "1"

// SelectionState is the in-progress choice of product, flavor, variant and
// quantity on a terminal. Transitions return a new value and never mutate
// the receiver.
type SelectionState struct {
	Product       *Product `json:"product"`
	Flavor        *Flavor  `json:"flavor"`
	Variant       *Variant `json:"variant"`
	QuantityInput string   `json:"quantity_input"`
}

// Stage derives the selection stage from the chosen values.
func (s SelectionState) Stage() enum.SelectionStage {
	switch {
	case s.Product == nil:
		return enum.SelectionStageNoProduct
	case s.Variant != nil && (s.Flavor != nil || !s.Product.HasFlavors()):
		return enum.SelectionStageReady
	case s.Variant != nil:
		return enum.SelectionStageVariantChosen
	case s.Flavor != nil:
		return enum.SelectionStageFlavorChosen
	default:
		return enum.SelectionStageProductChosen
	}
}

// SelectProduct starts a new selection for a product, dropping any previous
// flavor, variant and quantity.
func (s SelectionState) SelectProduct(p Product) SelectionState {
	snapshot := p.Clone()
	return SelectionState{
		Product:       &snapshot,
		QuantityInput: DefaultQuantityInput,
	}
}

// SelectFlavor picks a flavor by name or id. Flavor and variant may be
// chosen in either order.
func (s SelectionState) SelectFlavor(ref string) (SelectionState, error) {
	if s.Product == nil {
		return s, NewValidationError("product", "select a product first")
	}
	if !s.Product.HasFlavors() {
		return s, NewValidationError("flavor", "this product has no flavors")
	}
	flavor, ok := s.Product.FindFlavor(ref)
	if !ok {
		return s, NewValidationError("flavor", "flavor is not offered for this product")
	}
	next := s
	next.Flavor = &flavor
	return next, nil
}

// SelectVariant picks a variant of the selected product.
func (s SelectionState) SelectVariant(variantID int64) (SelectionState, error) {
	if s.Product == nil {
		return s, NewValidationError("product", "select a product first")
	}
	variant, ok := s.Product.FindVariant(variantID)
	if !ok {
		return s, NewValidationError("variant", "variant is not offered for this product")
	}
	next := s
	next.Variant = &variant
	return next, nil
}

// SetQuantity stores the raw quantity text. It is validated on commit.
func (s SelectionState) SetQuantity(raw string) SelectionState {
	next := s
	next.QuantityInput = raw
	return next
}

// Commit turns a complete selection into a cart line and resets the
// selection. On a validation error the returned state equals the receiver.
func (s SelectionState) Commit() (SelectionState, CartItem, error) {
	if s.Product == nil {
		return s, CartItem{}, NewValidationError("product", "select a product first")
	}
	if s.Variant == nil {
		return s, CartItem{}, NewValidationError("variant", "select a variant")
	}
	if s.Product.HasFlavors() && s.Flavor == nil {
		return s, CartItem{}, NewValidationError("flavor", "select a flavor")
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(s.QuantityInput))
	if err != nil || quantity <= 0 {
		return s, CartItem{}, NewValidationError("quantity", "quantity must be a whole number greater than zero")
	}

	item := CartItem{
		ProductID:   s.Product.ID,
		ProductName: s.Product.Name,
		VariantID:   s.Variant.ID,
		VariantName: s.Variant.Name,
		Quantity:    quantity,
		UnitPrice:   s.Variant.UnitPrice(),
	}
	if s.Flavor != nil {
		name := s.Flavor.Name
		item.Flavor = &name
	}

	return SelectionState{}, item, nil
}

// Back abandons the current selection.
func (s SelectionState) Back() SelectionState {
	return SelectionState{}
}
