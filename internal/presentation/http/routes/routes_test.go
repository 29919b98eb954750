package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/application/service"
	"github.com/sangkips/pos-terminal-api/internal/config"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/metrics"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-terminal-api/pkg/printer"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

const testSecret = "test-secret"

// fakeRemote emulates the remote sales service.
type fakeRemote struct {
	mu          sync.Mutex
	posts       []map[string]interface{}
	authHeaders []string
	failing     bool
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"id":1,"name":"Limonada",
			"variants":[{"id":10,"name":"Chica","price":"25.00"},{"id":11,"name":"Grande","price":40.5}],
			"flavors":[{"id":100,"name":"Fresa"},"Mango"]}}`)
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Producto no encontrado"}`)
	})
	mux.HandleFunc("/sales", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"data":[
				{"id":1,"opened_at":"2024-03-01T10:00:00Z","total":"100.00","status":"CERRADA","payments":[{"method":"EFECTIVO","amount":"100.00"}]},
				{"id":2,"fecha":"2024-03-02 09:30:00","total":50.5,"estado":"CERRADA","pagos":[{"metodo":"TARJETA","monto":"50.50"}]},
				{"id":3,"opened_at":"2024-03-03T18:00:00Z","total":"abc","payments":[]}
			]}`)
		case http.MethodPost:
			if f.failing {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"message":"Caja cerrada"}`)
				return
			}
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.posts = append(f.posts, body)
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":77}`)
		}
	})
	mux.HandleFunc("/sales/2", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items_deleted":2,"payments_deleted":1}`)
	})
	return mux
}

func (f *fakeRemote) failSubmit(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = fail
}

func (f *fakeRemote) submitted() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.posts...)
}

func (f *fakeRemote) authorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

type testServer struct {
	router   *gin.Engine
	remote   *fakeRemote
	jwt      *utils.JWTManager
	operator uuid.UUID
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fr := &fakeRemote{}
	upstream := httptest.NewServer(fr.handler())
	t.Cleanup(upstream.Close)

	client := remote.NewClient(remote.Config{BaseURL: upstream.URL, Timeout: 2 * time.Second}, zap.NewNop())
	sales := remote.NewSalesGateway(client)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	printerService := service.NewPrinterService(printer.NewNullPrinter(), "none", entity.ReceiptHeader{StoreName: "Test"}, 32, nil)
	terminalService := service.NewTerminalService(service.TerminalServiceDeps{
		Sessions:   repository.NewMemorySessionRepository(),
		Catalog:    remote.NewCatalogGateway(client),
		Sales:      sales,
		Receipts:   printerService,
		Metrics:    m,
		LocationID: 1,
	})

	cfg := &config.Config{App: config.AppConfig{Name: "pos-terminal-api"}}
	jwtManager := utils.NewJWTManager(testSecret)

	router := Setup(&Handlers{
		Terminal: handler.NewTerminalHandler(terminalService),
		Sales:    handler.NewSalesHandler(service.NewSalesReportService(sales, m, nil)),
		Printer:  handler.NewPrinterHandler(printerService),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: repository.NewMemoryIdempotencyRepository(),
		Gatherer:        registry,
	})

	s := &testServer{router: router, remote: fr, jwt: jwtManager, operator: uuid.New()}
	s.token = s.tokenWith(t, PermissionOperateTerminal, PermissionViewSales, PermissionDeleteSales, PermissionManagePrinter)
	return s
}

func (s *testServer) tokenWith(t *testing.T, permissions ...string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(s.operator, "Caja 1", []string{"cashier"}, permissions, time.Hour)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type snapshot struct {
	ID          string      `json:"id"`
	Stage       string      `json:"stage"`
	Total       json.Number `json:"total"`
	Observation *string     `json:"observation"`
	Items       []struct {
		ProductName string  `json:"product_name"`
		Flavor      *string `json:"flavor"`
		Quantity    int     `json:"quantity"`
	} `json:"items"`
}

func decodeSnapshot(t *testing.T, data json.RawMessage) snapshot {
	t.Helper()
	var snap snapshot
	require.NoError(t, json.Unmarshal(data, &snap), string(data))
	return snap
}

// openWithLine opens a session and puts 2 x Limonada Chica (Fresa) in the cart.
func (s *testServer) openWithLine(t *testing.T) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/terminal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeSnapshot(t, env.Data).ID
	base := "/api/v1/terminal/sessions/" + id

	w, _ = s.do(t, http.MethodPost, base+"/selection/product", map[string]interface{}{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPost, base+"/selection/flavor", map[string]interface{}{"flavor": "fresa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPost, base+"/selection/variant", map[string]interface{}{"variant_id": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPut, base+"/selection/quantity", map[string]interface{}{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env = s.do(t, http.MethodPost, base+"/selection/commit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap := decodeSnapshot(t, env.Data)
	require.Len(t, snap.Items, 1)
	require.Equal(t, json.Number("50.00"), snap.Total)
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	w, env := s.do(t, http.MethodPost, "/api/v1/terminal/sessions", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
}

func TestRoutesCheckPermissions(t *testing.T) {
	s := newTestServer(t)
	s.token = s.tokenWith(t, PermissionOperateTerminal)

	w, _ := s.do(t, http.MethodGet, "/api/v1/sales", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/terminal/sessions", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSettleFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.openWithLine(t)
	base := "/api/v1/terminal/sessions/" + id

	w, _ := s.do(t, http.MethodPut, base+"/observation", map[string]interface{}{"observation": "  para llevar "})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, base+"/settle", map[string]interface{}{"payment_method": "cash"}, "Idempotency-Key", "settle-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	posts := s.remote.submitted()
	require.Len(t, posts, 1)
	posted := posts[0]
	assert.Equal(t, "para llevar", posted["observation"])
	payments := posted["payments"].([]interface{})
	require.Len(t, payments, 1)
	assert.Equal(t, "EFECTIVO", payments[0].(map[string]interface{})["method"])
	items := posted["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Fresa", items[0].(map[string]interface{})["flavor_name"])
	assert.Contains(t, s.remote.authorizations(), "Bearer "+s.token)

	var result struct {
		Sale struct {
			SaleID int64 `json:"sale_id"`
		} `json:"sale"`
		Receipt struct {
			Operator string      `json:"operator"`
			Total    json.Number `json:"total"`
		} `json:"receipt"`
		Session json.RawMessage `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, int64(77), result.Sale.SaleID)
	assert.Equal(t, "Caja 1", result.Receipt.Operator)
	assert.Equal(t, json.Number("50.00"), result.Receipt.Total)
	after := decodeSnapshot(t, result.Session)
	assert.Empty(t, after.Items)
	assert.Nil(t, after.Observation)

	// same key replays the stored response without a second sale
	replay, _ := s.do(t, http.MethodPost, base+"/settle", map[string]interface{}{"payment_method": "cash"}, "Idempotency-Key", "settle-1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, w.Body.String(), replay.Body.String())
	assert.Equal(t, 1, len(s.remote.submitted()))
}

func TestSettleRemoteFailureKeepsCart(t *testing.T) {
	s := newTestServer(t)
	s.remote.failSubmit(true)
	id := s.openWithLine(t)
	base := "/api/v1/terminal/sessions/" + id

	w, env := s.do(t, http.MethodPost, base+"/settle", map[string]interface{}{"payment_method": "TARJETA", "observation": "mesa 2"}, "Idempotency-Key", "settle-2")
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	assert.Equal(t, "Caja cerrada", env.Message)

	w, env = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, env.Data)
	assert.Len(t, snap.Items, 1)
	require.NotNil(t, snap.Observation)
	assert.Equal(t, "mesa 2", *snap.Observation)

	// the failed response was not stored, so the same key can retry
	s.remote.failSubmit(false)
	w, _ = s.do(t, http.MethodPost, base+"/settle", map[string]interface{}{"payment_method": "TARJETA"}, "Idempotency-Key", "settle-2")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
}

func TestSettleRejectsUnknownPaymentMethod(t *testing.T) {
	s := newTestServer(t)
	id := s.openWithLine(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/terminal/sessions/"+id+"/settle", map[string]interface{}{"payment_method": "BITCOIN"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(env.Errors), "payment_method")
	assert.Equal(t, 0, len(s.remote.submitted()))
}

func TestCommitWithoutFlavorIsUnprocessable(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/api/v1/terminal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/terminal/sessions/" + decodeSnapshot(t, env.Data).ID

	s.do(t, http.MethodPost, base+"/selection/product", map[string]interface{}{"product_id": 1})
	s.do(t, http.MethodPost, base+"/selection/variant", map[string]interface{}{"variant_id": 11})
	w, env = s.do(t, http.MethodPost, base+"/selection/commit", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(env.Errors), `"flavor"`)
}

func TestSelectUnknownProduct(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/api/v1/terminal/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/terminal/sessions/" + decodeSnapshot(t, env.Data).ID

	w, _ = s.do(t, http.MethodPost, base+"/selection/product", map[string]interface{}{"product_id": 9})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveCartItem(t *testing.T) {
	s := newTestServer(t)
	id := s.openWithLine(t)
	base := "/api/v1/terminal/sessions/" + id

	w, _ := s.do(t, http.MethodDelete, base+"/cart/items/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodDelete, base+"/cart/items/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodDelete, base+"/cart/items/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSnapshot(t, env.Data).Items)
}

func TestSessionIsPrivateToOperator(t *testing.T) {
	s := newTestServer(t)
	id := s.openWithLine(t)

	s.operator = uuid.New()
	s.token = s.tokenWith(t, PermissionOperateTerminal)
	w, _ := s.do(t, http.MethodGet, "/api/v1/terminal/sessions/"+id, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCloseSession(t *testing.T) {
	s := newTestServer(t)
	id := s.openWithLine(t)
	base := "/api/v1/terminal/sessions/" + id

	w, _ := s.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesReport(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/sales?start_date=2024-03-02&per_page=1&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		Sales []struct {
			ID int64 `json:"id"`
		} `json:"sales"`
		Summary struct {
			TotalCount  int         `json:"total_count"`
			TotalAmount json.Number `json:"total_amount"`
		} `json:"summary"`
		Pagination struct {
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))

	// sales 3 then 2, newest first; unparseable total counts as zero
	require.Len(t, report.Sales, 1)
	assert.Equal(t, int64(2), report.Sales[0].ID)
	assert.Equal(t, 2, report.Summary.TotalCount)
	assert.Equal(t, json.Number("50.50"), report.Summary.TotalAmount)
	assert.Equal(t, 2, report.Pagination.CurrentPage)
	assert.Equal(t, 2, report.Pagination.TotalPages)
}

func TestSalesReportRejectsBadDates(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/sales?start_date=2024-03-01&end_date=03/05/2024", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(env.Errors), "end_date")
}

func TestSalesReportInvertedRangeIsEmpty(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/sales?start_date=2024-03-05&end_date=2024-03-01", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"sales":[]`)
	assert.Contains(t, string(env.Data), `"total_count":0`)
}

func TestSalesSummary(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/sales/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, string(env.Data), `"total_count":3`)
	assert.Contains(t, string(env.Data), `"total_amount":150.50`)
	assert.Contains(t, string(env.Data), `"method":"TARJETA"`)
}

func TestSalesExport(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/sales/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestDeleteSale(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodDelete, "/api/v1/sales/2", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sale #2 deleted: 2 items and 1 payment removed", env.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/v1/sales", nil)

	w, _ := s.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pos_terminal_sales_fetches_total{outcome="success"} 1`)
}
