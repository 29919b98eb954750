package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/repository"
)

type salesGateway struct {
	client *Client
}

// NewSalesGateway creates the remote implementation of SalesGateway
func NewSalesGateway(client *Client) repository.SalesGateway {
	return &salesGateway{client: client}
}

func (g *salesGateway) ListSales(ctx context.Context) ([]entity.Sale, error) {
	body, err := g.client.do(ctx, http.MethodGet, "/sales", nil)
	if err != nil {
		return nil, err
	}
	return DecodeSalesListing(body)
}

func (g *salesGateway) SubmitSale(ctx context.Context, req *entity.SettlementRequest) (*entity.SubmittedSale, error) {
	body, err := g.client.do(ctx, http.MethodPost, "/sales", req)
	if err != nil {
		return nil, err
	}
	return DecodeSubmittedSale(body, req.Total()), nil
}

func (g *salesGateway) DeleteSale(ctx context.Context, saleID int64) (*entity.SaleDeletion, error) {
	body, err := g.client.do(ctx, http.MethodDelete, fmt.Sprintf("/sales/%d", saleID), nil)
	if err != nil {
		return nil, err
	}
	return DecodeDeletion(body, saleID), nil
}
