package repository

import (
	"context"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
)

// CatalogGateway reads products from the remote catalog.
type CatalogGateway interface {
	GetProduct(ctx context.Context, productID int64) (*entity.Product, error)
}
