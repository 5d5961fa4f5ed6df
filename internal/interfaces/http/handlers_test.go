package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Farmacia-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Farmacia-api/pkg/jwt"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	apiBranch    = "branch-sur"
	apiWarehouse = "wh-central"
	apiProduct   = "prod-acetaminofen"
	apiClerk     = "user-clerk"
	apiManager   = "user-manager"
	apiStocker   = "user-stocker"
	apiCustomer  = "cust-vip"
)

type api struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	st := memory.NewStore()
	st.SeedLocation(entity.StockLocation{ID: apiBranch, Name: "Sur", Kind: entity.LocationBranch})
	st.SeedLocation(entity.StockLocation{ID: apiWarehouse, Name: "Central", Kind: entity.LocationWarehouse})
	st.SeedProduct(entity.Product{ID: apiProduct, Code: "ACE-500", Price: decimal.RequireFromString("20.00"), IsAvailable: true})
	st.SeedActor(entity.Actor{ID: apiClerk, Role: "cashier", BranchID: apiBranch,
		Capabilities: []entity.Capability{entity.CapServeInStore, entity.CapRequestTransfer, entity.CapManageDelivery}})
	st.SeedActor(entity.Actor{ID: apiManager, Role: "warehouse_manager", Capabilities: []entity.Capability{entity.CapApproveTransfer}})
	st.SeedActor(entity.Actor{ID: apiStocker, Role: "stocker", Capabilities: []entity.Capability{entity.CapAdjustStock}})
	st.SeedActor(entity.Actor{ID: apiCustomer, Role: "customer", Capabilities: []entity.Capability{entity.CapEarnLoyalty}})
	st.SeedCustomer(entity.Customer{ID: apiCustomer, Name: "Ana", DiscountRate: decimal.NewFromInt(10)})
	st.SeedStock(entity.LedgerKey{LocationID: apiBranch, ProductID: apiProduct}, 10, -1)
	st.SeedStock(entity.LedgerKey{LocationID: apiWarehouse, ProductID: apiProduct}, 100, -1)

	log := logger.Nop()
	events := &memory.EventRecorder{}
	repos := st.Repos()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		OrderUC: order.NewUseCase(order.Deps{
			Tx: st, Orders: repos.Orders, Loyalty: repos.Loyalty, Users: st.Directory(), Catalog: st.Catalog(),
			Locations: st.Locations(), Customers: st.Customers(), Prescriptions: repos.Prescriptions,
			Deliveries: repos.Deliveries,
			Pricing: pricing.NewResolver(pricing.DefaultFees()), Locker: memory.NewKeyedLocker(),
			Events: events, Log: log, Timeout: 5 * time.Second,
		}),
		TransferUC: transfer.NewUseCase(transfer.Deps{
			Tx: st, Transfers: repos.Transfers, Ledger: repos.Ledger, Users: st.Directory(), Catalog: st.Catalog(),
			Locations: st.Locations(), Events: events, Log: log, Timeout: 5 * time.Second,
		}),
		LedgerUC:  ledger.NewUseCase(st, repos.Ledger, st.Directory(), events, log, 5*time.Second),
		JWTSecret: testJWTSecret,
	})
	return &api{app: app, store: st}
}

func (a *api) do(t *testing.T, method, path, userID string, body interface{}) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := pkgjwt.Generate(testJWTSecret, userID, apiBranch, "staff", testIssuer, testExpMin)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_OrdenInStore_CicloCompleto(t *testing.T) {
	a := newAPI(t)
	status, raw := a.do(t, http.MethodPost, "/api/orders", apiClerk, dto.CreateOrderRequest{
		Type: "in_store", CustomerID: apiCustomer,
		Items: []dto.OrderItemRequest{{ProductID: apiProduct, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	o := decode[dto.OrderResponse](t, raw)
	assert.Equal(t, apiBranch, o.BranchID, "la sucursal sale del token")
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(36)), "obtuvo %s", o.TotalAmount)

	status, raw = a.do(t, http.MethodPost, "/api/orders/"+o.ID+"/transitions", apiClerk, dto.TransitionOrderRequest{Status: "completed"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	for _, s := range []string{"processing", "completed"} {
		status, raw = a.do(t, http.MethodPost, "/api/orders/"+o.ID+"/transitions", apiClerk, dto.TransitionOrderRequest{Status: s})
		require.Equal(t, http.StatusOK, status, string(raw))
	}

	status, raw = a.do(t, http.MethodGet, "/api/inventory/"+apiBranch+"/"+apiProduct+"/audit", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	audit := decode[dto.AuditResponse](t, raw)
	assert.True(t, audit.Consistent)
	assert.Equal(t, int64(8), audit.Current)

	status, raw = a.do(t, http.MethodGet, "/api/customers/"+apiCustomer+"/loyalty", apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	loyalty := decode[dto.LoyaltyResponse](t, raw)
	assert.Equal(t, int64(3), loyalty.Balance)

	status, raw = a.do(t, http.MethodGet, "/api/orders/"+o.ID+"/transitions", apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]dto.TransitionResponse](t, raw), 2)
}

func TestAPI_OrdenOnlineSinDireccion_422(t *testing.T) {
	a := newAPI(t)
	status, raw := a.do(t, http.MethodPost, "/api/orders", apiClerk, dto.CreateOrderRequest{
		Type: "online", CustomerID: apiCustomer,
		Items: []dto.OrderItemRequest{{ProductID: apiProduct, Quantity: 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_OrdenInexistente_404(t *testing.T) {
	a := newAPI(t)
	status, _ := a.do(t, http.MethodGet, "/api/orders/no-existe", apiClerk, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_SinToken_401(t *testing.T) {
	a := newAPI(t)
	status, _ := a.do(t, http.MethodGet, "/api/inventory/low-stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_EntregaDomicilio_EntregarCompletaLaOrden(t *testing.T) {
	a := newAPI(t)
	status, raw := a.do(t, http.MethodPost, "/api/orders", apiClerk, dto.CreateOrderRequest{
		Type: "online", CustomerID: apiCustomer, DeliveryAddress: "Calle 10 # 4-20",
		Items: []dto.OrderItemRequest{{ProductID: apiProduct, Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	o := decode[dto.OrderResponse](t, raw)

	status, _ = a.do(t, http.MethodGet, "/api/orders/"+o.ID+"/delivery", apiClerk, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = a.do(t, http.MethodPost, "/api/orders/"+o.ID+"/transitions", apiClerk, dto.TransitionOrderRequest{Status: "processing"})
	require.Equal(t, http.StatusOK, status, string(raw))
	status, raw = a.do(t, http.MethodGet, "/api/orders/"+o.ID+"/delivery", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	d := decode[dto.DeliveryResponse](t, raw)
	assert.Equal(t, "home", d.Kind)
	assert.Equal(t, "scheduled", d.Status)

	status, raw = a.do(t, http.MethodPost, "/api/deliveries/"+d.ID+"/delivered", apiClerk, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	status, _ = a.do(t, http.MethodPost, "/api/deliveries/"+d.ID+"/status", apiStocker, dto.DeliveryStatusRequest{Status: "in_transit"})
	assert.Equal(t, http.StatusForbidden, status)
	status, raw = a.do(t, http.MethodPost, "/api/deliveries/"+d.ID+"/status", apiClerk, dto.DeliveryStatusRequest{Status: "in_transit"})
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = a.do(t, http.MethodPost, "/api/deliveries/"+d.ID+"/delivered", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	d = decode[dto.DeliveryResponse](t, raw)
	assert.Equal(t, "delivered", d.Status)
	assert.NotNil(t, d.DeliveredAt)

	status, raw = a.do(t, http.MethodGet, "/api/orders/"+o.ID, apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", decode[dto.OrderResponse](t, raw).Status)
}

func TestAPI_EntregaRecogida_Agendar(t *testing.T) {
	a := newAPI(t)
	_, raw := a.do(t, http.MethodPost, "/api/orders", apiClerk, dto.CreateOrderRequest{
		Type: "in_store", CustomerID: apiCustomer,
		Items: []dto.OrderItemRequest{{ProductID: apiProduct, Quantity: 1}},
	})
	o := decode[dto.OrderResponse](t, raw)

	at := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	status, raw := a.do(t, http.MethodPost, "/api/orders/"+o.ID+"/delivery", apiClerk, dto.ScheduleDeliveryRequest{ScheduledAt: at})
	require.Equal(t, http.StatusOK, status, string(raw))
	d := decode[dto.DeliveryResponse](t, raw)
	assert.Equal(t, "pickup", d.Kind)
	assert.Equal(t, apiBranch, d.PickupLocationID)
	assert.True(t, d.CustomerNotified)
	assert.True(t, at.Equal(d.ScheduledAt))

	status, _ = a.do(t, http.MethodPost, "/api/orders/"+o.ID+"/delivery", apiClerk, dto.ScheduleDeliveryRequest{})
	assert.Equal(t, http.StatusBadRequest, status, "sin fecha")
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados e inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_Traslado_SolicitarAprobarCompletar(t *testing.T) {
	a := newAPI(t)
	status, raw := a.do(t, http.MethodPost, "/api/transfers", apiClerk, dto.RequestTransferRequest{ProductID: apiProduct, Quantity: 30})
	require.Equal(t, http.StatusCreated, status, string(raw))
	tr := decode[dto.TransferResponse](t, raw)
	assert.Equal(t, apiWarehouse, tr.SourceWarehouseID)

	status, _ = a.do(t, http.MethodPost, "/api/transfers/"+tr.ID+"/approve", apiClerk, nil)
	assert.Equal(t, http.StatusForbidden, status, "solicitar no habilita aprobar")

	status, raw = a.do(t, http.MethodPost, "/api/transfers/"+tr.ID+"/approve", apiManager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	status, raw = a.do(t, http.MethodPost, "/api/transfers/"+tr.ID+"/complete", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "completed", decode[dto.TransferResponse](t, raw).Status)

	status, raw = a.do(t, http.MethodGet, "/api/transfers/"+tr.ID+"/movements", apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	movs := decode[[]dto.LedgerTransactionResponse](t, raw)
	require.Len(t, movs, 2)
	assert.Zero(t, movs[0].Quantity+movs[1].Quantity)
}

func TestAPI_TrasladoSinStockEnBodega_409(t *testing.T) {
	a := newAPI(t)
	_, raw := a.do(t, http.MethodPost, "/api/transfers", apiClerk, dto.RequestTransferRequest{ProductID: apiProduct, Quantity: 500, WarehouseID: apiWarehouse})
	tr := decode[dto.TransferResponse](t, raw)

	status, raw := a.do(t, http.MethodPost, "/api/transfers/"+tr.ID+"/approve", apiManager, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_WAREHOUSE_STOCK", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_Mutacion_RequiereAdjustStock(t *testing.T) {
	a := newAPI(t)
	body := dto.MutateStockRequest{LocationID: apiBranch, ProductID: apiProduct, Type: "expired", Quantity: -2}

	status, _ := a.do(t, http.MethodPost, "/api/inventory/mutations", apiClerk, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := a.do(t, http.MethodPost, "/api/inventory/mutations", apiStocker, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	tx := decode[dto.LedgerTransactionResponse](t, raw)
	assert.Equal(t, int64(8), tx.NewStock)

	status, raw = a.do(t, http.MethodPost, "/api/inventory/mutations", apiStocker,
		dto.MutateStockRequest{LocationID: apiBranch, ProductID: apiProduct, Type: "stock_out", Quantity: -50})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)

	status, _ = a.do(t, http.MethodPost, "/api/inventory/mutations", apiStocker,
		dto.MutateStockRequest{LocationID: apiBranch, ProductID: apiProduct, Type: "robo", Quantity: -1})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_LowStockEHistorialPaginado(t *testing.T) {
	a := newAPI(t)
	status, raw := a.do(t, http.MethodGet, "/api/inventory/low-stock?location_id="+apiBranch, apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	var low struct {
		Total   int                       `json:"total"`
		Entries []dto.LedgerEntryResponse `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &low))
	require.Equal(t, 1, low.Total, "10 <= punto de reorden 20")
	assert.Equal(t, apiBranch, low.Entries[0].LocationID)

	status, raw = a.do(t, http.MethodGet, "/api/inventory/"+apiWarehouse+"/"+apiProduct+"/transactions?limit=5", apiClerk, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.TransactionListResponse](t, raw)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Total)
	assert.Equal(t, 5, list.Page.Limit)
}

func TestAPI_Historial_PaginaEnLaBaseYAcotaLimit(t *testing.T) {
	a := newAPI(t)
	for i := 0; i < 3; i++ {
		status, raw := a.do(t, http.MethodPost, "/api/inventory/mutations", apiStocker,
			dto.MutateStockRequest{LocationID: apiBranch, ProductID: apiProduct, Type: "stock_in", Quantity: 1})
		require.Equal(t, http.StatusCreated, status, string(raw))
	}
	base := "/api/inventory/" + apiBranch + "/" + apiProduct + "/transactions"

	status, raw := a.do(t, http.MethodGet, base+"?limit=2&offset=1", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list := decode[dto.TransactionListResponse](t, raw)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 4, list.Page.Total, "carga inicial más tres entradas")
	assert.Equal(t, int64(10), list.Items[0].PreviousStock, "la página empieza en la segunda transacción")
	assert.Equal(t, int64(12), list.Items[1].NewStock)

	status, raw = a.do(t, http.MethodGet, base+"?limit=500&offset=-3", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list = decode[dto.TransactionListResponse](t, raw)
	assert.Equal(t, dto.MaxPageLimit, list.Page.Limit)
	assert.Equal(t, 0, list.Page.Offset)
	assert.Len(t, list.Items, 4)

	status, raw = a.do(t, http.MethodGet, base+"?offset=10", apiClerk, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list = decode[dto.TransactionListResponse](t, raw)
	assert.Empty(t, list.Items)
	assert.Equal(t, 4, list.Page.Total)
	assert.Equal(t, dto.DefaultPageLimit, list.Page.Limit)
}
