package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/repository"
)

type catalogGateway struct {
	client *Client
}

// NewCatalogGateway creates the remote implementation of CatalogGateway
func NewCatalogGateway(client *Client) repository.CatalogGateway {
	return &catalogGateway{client: client}
}

func (g *catalogGateway) GetProduct(ctx context.Context, productID int64) (*entity.Product, error) {
	body, err := g.client.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil)
	if err != nil {
		return nil, err
	}
	return DecodeProduct(body)
}
