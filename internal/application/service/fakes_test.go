package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

type fakeCatalog struct {
	products map[int64]entity.Product
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[int64]entity.Product{
		1: {
			ID:   1,
			Name: "Limonada",
			Variants: []entity.Variant{
				{ID: 10, Name: "Chica", Price: price("25.00")},
				{ID: 11, Name: "Grande", Price: price("40.50")},
			},
			Flavors: []entity.Flavor{
				{ID: 100, Name: "Fresa"},
				{ID: 101, Name: "Mango"},
			},
		},
		2: {
			ID:       2,
			Name:     "Agua",
			Variants: []entity.Variant{{ID: 20, Name: "500ml", Price: price("12.00")}},
		},
	}}
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID int64) (*entity.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[productID]
	if !ok {
		return nil, &remote.RemoteError{StatusCode: 404, Message: "Producto no encontrado"}
	}
	clone := p.Clone()
	return &clone, nil
}

type fakeSales struct {
	mu        sync.Mutex
	sales     []entity.Sale
	listErr   error
	submitErr error
	deleteErr error
	submitted []*entity.SettlementRequest
	nextID    int64
}

func (s *fakeSales) ListSales(ctx context.Context) ([]entity.Sale, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sales, nil
}

func (s *fakeSales) SubmitSale(ctx context.Context, req *entity.SettlementRequest) (*entity.SubmittedSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, req)
	s.nextID++
	return &entity.SubmittedSale{SaleID: s.nextID, Total: req.Total()}, nil
}

func (s *fakeSales) DeleteSale(ctx context.Context, saleID int64) (*entity.SaleDeletion, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	for _, sale := range s.sales {
		if sale.ID == saleID {
			return &entity.SaleDeletion{
				SaleID:          saleID,
				ItemsDeleted:    len(sale.Items),
				PaymentsDeleted: len(sale.Payments),
			}, nil
		}
	}
	return nil, &remote.RemoteError{StatusCode: 404, Message: "Venta no encontrada"}
}

var errPaperOut = errors.New("paper out")

type fakeReceipts struct {
	err      error
	calls    int
	operator string
	// onPrint runs while the receipt is being printed
	onPrint func()
}

func (r *fakeReceipts) PrintSettlement(ctx context.Context, operator string, items []entity.CartItem, req *entity.SettlementRequest, sale *entity.SubmittedSale) (*entity.Receipt, error) {
	r.calls++
	r.operator = operator
	if r.onPrint != nil {
		r.onPrint()
	}
	if r.err != nil {
		return nil, r.err
	}
	return &entity.Receipt{SaleID: sale.SaleID, Operator: operator, Total: sale.Total}, nil
}
