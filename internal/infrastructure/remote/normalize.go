package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/pkg/money"
)

// ErrUnrecognizedShape is returned when a response body does not carry the
// expected collection or record.
var ErrUnrecognizedShape = errors.New("unrecognized response shape")

// envelope keys the sales listing may be wrapped under
var listingKeys = []string{"data", "sales", "ventas", "items", "results"}

var (
	saleIDKeys          = []string{"id", "sale_id", "saleId", "venta_id"}
	saleOpenedAtKeys    = []string{"opened_at", "openedAt", "fecha_apertura", "fecha", "created_at", "date"}
	saleTotalKeys       = []string{"total", "total_amount", "totalAmount", "monto_total"}
	saleStatusKeys      = []string{"status", "estado"}
	saleObservationKeys = []string{"observation", "observacion", "notes"}
	saleItemsKeys       = []string{"items", "detalles", "lines"}
	salePaymentsKeys    = []string{"payments", "pagos"}

	itemProductKeys   = []string{"product_name", "productName", "producto"}
	itemVariantKeys   = []string{"variant_name", "variantName", "variante"}
	itemFlavorKeys    = []string{"flavor_name", "flavorName", "flavor", "sabor"}
	itemQuantityKeys  = []string{"quantity", "cantidad"}
	itemUnitPriceKeys = []string{"unit_price", "unitPrice", "precio_unitario"}
	itemLineTotalKeys = []string{"line_total", "lineTotal", "subtotal"}

	paymentMethodKeys    = []string{"method", "payment_method", "metodo"}
	paymentAmountKeys    = []string{"amount", "monto"}
	paymentReferenceKeys = []string{"reference", "referencia"}

	nameKeys     = []string{"name", "nombre"}
	priceKeys    = []string{"price", "precio"}
	variantsKeys = []string{"variants", "variantes"}
	flavorsKeys  = []string{"flavors", "sabores"}

	itemsDeletedKeys    = []string{"items_deleted", "itemsDeleted", "deleted_items", "items"}
	paymentsDeletedKeys = []string{"payments_deleted", "paymentsDeleted", "deleted_payments", "payments"}
)

type record map[string]json.RawMessage

// pick returns the first present, non-null value among keys.
func (r record) pick(keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := r[k]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func (r record) str(keys []string) string {
	raw, ok := r.pick(keys)
	if !ok {
		return ""
	}
	return rawString(raw)
}

func (r record) optStr(keys []string) *string {
	s := strings.TrimSpace(r.str(keys))
	if s == "" {
		return nil
	}
	return &s
}

func (r record) amount(keys []string) decimal.Decimal {
	raw, _ := r.pick(keys)
	return money.CoerceRaw(raw)
}

func (r record) integer(keys []string) int {
	return int(r.amount(keys).IntPart())
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func firstByte(raw []byte) byte {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

// rawString renders a JSON string or number as text.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func parseID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// findArray locates the collection in a body that is either a bare array or
// an object carrying it under one of keys, with at most one nested envelope
// level ({"data": {"items": [...]}}).
func findArray(body []byte, keys []string, depth int) ([]json.RawMessage, bool) {
	switch firstByte(body) {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, false
		}
		return list, true
	case '{':
		var obj record
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, false
		}
		for _, k := range keys {
			raw, ok := obj[k]
			if !ok || isNull(raw) {
				continue
			}
			switch firstByte(raw) {
			case '[':
				return findArray(raw, keys, depth)
			case '{':
				if depth > 0 {
					if list, ok := findArray(raw, keys, depth-1); ok {
						return list, true
					}
				}
			}
		}
	}
	return nil, false
}

// unwrapRecord returns the object itself when it carries any of idKeys, or
// the object under "data" otherwise.
func unwrapRecord(body []byte, idKeys []string) (record, error) {
	var obj record
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	if _, ok := obj.pick(idKeys); ok {
		return obj, nil
	}
	if raw, ok := obj["data"]; ok && firstByte(raw) == '{' {
		var inner record
		if err := json.Unmarshal(raw, &inner); err == nil {
			return inner, nil
		}
	}
	return obj, nil
}

// DecodeSalesListing normalizes a sales listing body into sales. Numeric
// fields may arrive as numbers, strings or null.
func DecodeSalesListing(body []byte) ([]entity.Sale, error) {
	if isNull(body) {
		return []entity.Sale{}, nil
	}

	list, ok := findArray(body, listingKeys, 1)
	if !ok {
		return nil, fmt.Errorf("%w: sales listing", ErrUnrecognizedShape)
	}

	sales := make([]entity.Sale, 0, len(list))
	for i, raw := range list {
		sale, err := decodeSale(raw)
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", i, err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func decodeSale(raw json.RawMessage) (entity.Sale, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return entity.Sale{}, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	idRaw, ok := r.pick(saleIDKeys)
	if !ok {
		return entity.Sale{}, fmt.Errorf("%w: sale without id", ErrUnrecognizedShape)
	}
	id, ok := parseID(idRaw)
	if !ok {
		return entity.Sale{}, fmt.Errorf("%w: invalid sale id %s", ErrUnrecognizedShape, string(idRaw))
	}

	sale := entity.Sale{
		ID:          id,
		OpenedAt:    strings.TrimSpace(r.str(saleOpenedAtKeys)),
		Total:       r.amount(saleTotalKeys),
		Status:      r.str(saleStatusKeys),
		Observation: r.optStr(saleObservationKeys),
		Items:       []entity.SaleItem{},
		Payments:    []entity.SalePayment{},
	}

	if itemsRaw, ok := r.pick(saleItemsKeys); ok {
		var items []record
		if err := json.Unmarshal(itemsRaw, &items); err == nil {
			for _, it := range items {
				sale.Items = append(sale.Items, decodeSaleItem(it))
			}
		}
	}

	if paymentsRaw, ok := r.pick(salePaymentsKeys); ok {
		var payments []record
		if err := json.Unmarshal(paymentsRaw, &payments); err == nil {
			for _, p := range payments {
				sale.Payments = append(sale.Payments, entity.SalePayment{
					Method:    strings.TrimSpace(p.str(paymentMethodKeys)),
					Amount:    p.amount(paymentAmountKeys),
					Reference: p.optStr(paymentReferenceKeys),
				})
			}
		}
	}

	return sale, nil
}

func decodeSaleItem(r record) entity.SaleItem {
	item := entity.SaleItem{
		ProductName: r.str(itemProductKeys),
		VariantName: r.str(itemVariantKeys),
		FlavorName:  r.optStr(itemFlavorKeys),
		Quantity:    r.integer(itemQuantityKeys),
		UnitPrice:   r.amount(itemUnitPriceKeys),
	}
	if _, ok := r.pick(itemLineTotalKeys); ok {
		item.LineTotal = r.amount(itemLineTotalKeys)
	} else {
		item.LineTotal = money.LineTotal(item.UnitPrice, item.Quantity)
	}
	return item
}

// DecodeProduct normalizes a catalog product body, bare or under "data".
// Flavors may be objects or plain names.
func DecodeProduct(body []byte) (*entity.Product, error) {
	r, err := unwrapRecord(body, []string{"id"})
	if err != nil {
		return nil, err
	}

	idRaw, ok := r.pick([]string{"id"})
	if !ok {
		return nil, fmt.Errorf("%w: product without id", ErrUnrecognizedShape)
	}
	id, ok := parseID(idRaw)
	if !ok {
		return nil, fmt.Errorf("%w: invalid product id %s", ErrUnrecognizedShape, string(idRaw))
	}

	p := &entity.Product{
		ID:       id,
		Name:     r.str(nameKeys),
		Variants: []entity.Variant{},
		Flavors:  []entity.Flavor{},
	}

	if raw, ok := r.pick(variantsKeys); ok {
		var variants []record
		if err := json.Unmarshal(raw, &variants); err != nil {
			return nil, fmt.Errorf("%w: variants: %v", ErrUnrecognizedShape, err)
		}
		for _, v := range variants {
			vid, _ := parseID(v["id"])
			variant := entity.Variant{ID: vid, Name: v.str(nameKeys)}
			if priceRaw, ok := v.pick(priceKeys); ok {
				price := money.CoerceRaw(priceRaw)
				variant.Price = &price
			}
			p.Variants = append(p.Variants, variant)
		}
	}

	if raw, ok := r.pick(flavorsKeys); ok {
		var flavors []json.RawMessage
		if err := json.Unmarshal(raw, &flavors); err != nil {
			return nil, fmt.Errorf("%w: flavors: %v", ErrUnrecognizedShape, err)
		}
		for i, f := range flavors {
			if firstByte(f) == '{' {
				var fr record
				if err := json.Unmarshal(f, &fr); err != nil {
					continue
				}
				fid, _ := parseID(fr["id"])
				p.Flavors = append(p.Flavors, entity.Flavor{ID: fid, Name: fr.str(nameKeys)})
				continue
			}
			if name := strings.TrimSpace(rawString(f)); name != "" {
				p.Flavors = append(p.Flavors, entity.Flavor{ID: int64(i + 1), Name: name})
			}
		}
	}

	return p, nil
}

// DecodeSubmittedSale reads the acknowledgement of a settlement. A body
// without an id is still a confirmation; the id is then 0.
func DecodeSubmittedSale(body []byte, requested decimal.Decimal) *entity.SubmittedSale {
	out := &entity.SubmittedSale{Total: requested}
	if firstByte(body) != '{' {
		return out
	}
	r, err := unwrapRecord(body, saleIDKeys)
	if err != nil {
		return out
	}
	if raw, ok := r.pick(saleIDKeys); ok {
		out.SaleID, _ = parseID(raw)
	}
	if _, ok := r.pick(saleTotalKeys); ok {
		out.Total = r.amount(saleTotalKeys)
	}
	return out
}

// DecodeDeletion reads the cascaded counts of a sale deletion. An empty
// body (204) reports zero counts.
func DecodeDeletion(body []byte, saleID int64) *entity.SaleDeletion {
	out := &entity.SaleDeletion{SaleID: saleID}
	if firstByte(body) == '{' {
		if r, err := unwrapRecord(body, itemsDeletedKeys); err == nil {
			out.ItemsDeleted = r.integer(itemsDeletedKeys)
			out.PaymentsDeleted = r.integer(paymentsDeletedKeys)
		}
	}
	out.Confirmation = out.ConfirmationText()
	return out
}
