package repository

import (
	"context"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
)

// SalesGateway is the remote service that records and lists sales.
type SalesGateway interface {
	// ListSales returns every recorded sale, already normalized.
	ListSales(ctx context.Context) ([]entity.Sale, error)
	// SubmitSale records a settlement and returns the remote acknowledgement.
	SubmitSale(ctx context.Context, req *entity.SettlementRequest) (*entity.SubmittedSale, error)
	// DeleteSale removes a sale with its items and payments.
	DeleteSale(ctx context.Context, saleID int64) (*entity.SaleDeletion, error)
}
