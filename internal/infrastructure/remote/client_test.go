package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: time.Second}, zap.NewNop())
}

func TestSalesGateway_ListSalesForwardsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "Bearer operator-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ventas": [{"id": 1, "total": "10"}]}`))
	})

	ctx := WithBearerToken(context.Background(), "operator-token")
	sales, err := NewSalesGateway(client).ListSales(ctx)

	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "10.00", sales[0].Total.StringFixed(2))
}

func TestSalesGateway_SubmitSaleSendsWireBody(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 99}`))
	})

	flavor := "Fresa"
	req := &entity.SettlementRequest{
		LocationID: 1,
		Items: []entity.SettlementItem{
			{VariantID: 10, FlavorName: &flavor, Quantity: 2, UnitPrice: decimal.NewFromInt(25)},
		},
		Payments: []entity.SettlementPayment{
			{Method: "EFECTIVO", Amount: decimal.NewFromInt(50)},
		},
	}

	ack, err := NewSalesGateway(client).SubmitSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(99), ack.SaleID)
	assert.Equal(t, "50.00", ack.Total.StringFixed(2))

	assert.Equal(t, float64(1), received["location_id"])
	assert.Nil(t, received["observation"])
	items := received["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Fresa", first["flavor_name"])
	assert.Equal(t, float64(25), first["unit_price"])
}

func TestClient_RemoteErrorCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "La ubicación no existe"}`))
	})

	_, err := NewSalesGateway(client).SubmitSale(context.Background(), &entity.SettlementRequest{})

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	assert.Equal(t, "La ubicación no existe", re.Message)
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := NewSalesGateway(client).ListSales(context.Background())

	assert.True(t, errors.Is(err, ErrUnavailable))
	var re *RemoteError
	assert.False(t, errors.As(err, &re))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := NewSalesGateway(client).ListSales(context.Background())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "service-token", "token_type": "bearer", "expires_in": 3600}`))
	})
	mux.HandleFunc("/products/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id": 7, "name": "Agua", "variants": [{"id": 1, "name": "500ml", "price": 12}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		ClientID:     "pos",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/oauth/token",
	}, zap.NewNop())

	ctx := WithBearerToken(context.Background(), "operator-token")
	p, err := NewCatalogGateway(client).GetProduct(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, "Agua", p.Name)
	assert.False(t, p.HasFlavors())
}

func TestSalesGateway_DeleteSale(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/sales/12", r.URL.Path)
		_, _ = w.Write([]byte(`{"items_deleted": 2, "payments_deleted": 1}`))
	})

	d, err := NewSalesGateway(client).DeleteSale(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ItemsDeleted)
	assert.Equal(t, 1, d.PaymentsDeleted)
}

func TestCatalogGateway_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Producto no encontrado"}`))
	})

	_, err := NewCatalogGateway(client).GetProduct(context.Background(), 3)
	assert.True(t, IsNotFound(err))
}
