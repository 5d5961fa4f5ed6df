package transfer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	branchID    = "branch-norte"
	warehouseA  = "wh-a"
	warehouseB  = "wh-b"
	productID   = "prod-1"
	requesterID = "user-branch"
	managerID   = "user-manager"
	cashierID   = "user-cashier"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	events *memory.EventRecorder
	uc     *transfer.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	st.SeedLocation(entity.StockLocation{ID: branchID, Name: "Norte", Kind: entity.LocationBranch})
	st.SeedLocation(entity.StockLocation{ID: warehouseA, Name: "Bodega A", Kind: entity.LocationWarehouse, Capacity: 1000})
	st.SeedLocation(entity.StockLocation{ID: warehouseB, Name: "Bodega B", Kind: entity.LocationWarehouse, Capacity: 1000})
	st.SeedProduct(entity.Product{ID: productID, Code: "P-001", Price: decimal.RequireFromString("5.00"), IsAvailable: true})

	st.SeedActor(entity.Actor{ID: requesterID, Role: "branch_manager", BranchID: branchID, Capabilities: []entity.Capability{entity.CapRequestTransfer}})
	st.SeedActor(entity.Actor{ID: managerID, Role: "warehouse_manager", Capabilities: []entity.Capability{entity.CapApproveTransfer}})
	st.SeedActor(entity.Actor{ID: cashierID, Role: "cashier", BranchID: branchID, Capabilities: []entity.Capability{entity.CapServeInStore}})

	st.SeedStock(entity.LedgerKey{LocationID: warehouseA, ProductID: productID}, 100, -1)

	rec := &memory.EventRecorder{}
	repos := st.Repos()
	uc := transfer.NewUseCase(transfer.Deps{
		Tx:        st,
		Transfers: repos.Transfers,
		Ledger:    repos.Ledger,
		Users:     st.Directory(),
		Catalog:   st.Catalog(),
		Locations: st.Locations(),
		Events:    rec,
		Log:       logger.Nop(),
		Timeout:   5 * time.Second,
		Clock:     func() time.Time { return fixedNow },
	})
	return &fixture{store: st, events: rec, uc: uc}
}

func (f *fixture) stock(t *testing.T, locationID string) int64 {
	t.Helper()
	e, err := f.store.Repos().Ledger.Get(context.Background(), entity.LedgerKey{LocationID: locationID, ProductID: productID})
	require.NoError(t, err)
	if e == nil {
		return 0
	}
	return e.CurrentStock
}

func (f *fixture) request(t *testing.T, qty int64, warehouse string) *entity.InventoryTransfer {
	t.Helper()
	tr, err := f.uc.Request(context.Background(), transfer.RequestInput{
		BranchID: branchID, ProductID: productID, Quantity: qty, RequestedBy: requesterID, WarehouseID: warehouse,
	})
	require.NoError(t, err)
	return tr
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_FlujoCompleto_MueveStockBodegaASucursal(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 30, warehouseA)
	assert.Equal(t, entity.TransferPending, tr.Status)
	assert.True(t, strings.HasPrefix(tr.Number, "TRF-20250601100000-"), tr.Number)
	assert.Equal(t, int64(100), f.stock(t, warehouseA), "solicitar no toca el inventario")

	tr, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, tr.Status)
	require.NotNil(t, tr.ApprovedBy)
	assert.Equal(t, managerID, *tr.ApprovedBy)
	assert.Equal(t, int64(100), f.stock(t, warehouseA), "aprobar no toca el inventario")

	tr, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	require.NotNil(t, tr.ReceivedAt)
	assert.Equal(t, fixedNow, *tr.ReceivedAt)

	assert.Equal(t, int64(70), f.stock(t, warehouseA))
	assert.Equal(t, int64(30), f.stock(t, branchID), "la entrada de la sucursal se crea al recibir")

	movs, err := f.uc.Movements(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	byType := map[entity.TransactionType]*entity.LedgerTransaction{}
	var sum int64
	for _, m := range movs {
		byType[m.Type] = m
		sum += m.Quantity
		assert.Equal(t, tr.Number, m.Reference)
	}
	assert.Zero(t, sum, "la suma de un traslado es cero")
	require.Contains(t, byType, entity.TxTransferOut)
	require.Contains(t, byType, entity.TxTransferIn)
	assert.Equal(t, int64(-30), byType[entity.TxTransferOut].Quantity)
	assert.Equal(t, warehouseA, byType[entity.TxTransferOut].LocationID)
	assert.Equal(t, int64(30), byType[entity.TxTransferIn].Quantity)
	assert.Equal(t, int64(0), byType[entity.TxTransferIn].PreviousStock)

	names := f.events.Names()
	assert.Contains(t, names, event.NameTransferApproved)
	assert.Contains(t, names, event.NameTransferCompleted)
}

func TestTransfer_DespachoAntesDeCompletar(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 10, warehouseA)
	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)

	tr, err = f.uc.Dispatch(context.Background(), tr.ID, managerID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, tr.Status)
	require.NotNil(t, tr.DispatchedAt)

	_, err = f.uc.Cancel(context.Background(), tr.ID, managerID, "tarde")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "en tránsito ya no se cancela")

	_, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.NoError(t, err)
	assert.Equal(t, int64(90), f.stock(t, warehouseA))
	assert.Equal(t, int64(10), f.stock(t, branchID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock insuficiente
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_AprobarSinStockEnBodega(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 150, warehouseA)

	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.ErrorIs(t, err, domain.ErrInsufficientWarehouseStock)

	got, err := f.uc.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPending, got.Status)
	assert.NotContains(t, f.events.Names(), event.NameTransferApproved)
}

func TestTransfer_StockBajaEntreAprobarYCompletar(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 30, warehouseA)
	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)

	f.store.SeedStock(entity.LedgerKey{LocationID: warehouseA, ProductID: productID}, -80, -1)

	_, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.ErrorIs(t, err, domain.ErrInsufficientWarehouseStock)

	assert.Equal(t, int64(20), f.stock(t, warehouseA))
	assert.Equal(t, int64(0), f.stock(t, branchID))
	movs, err := f.uc.Movements(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)

	got, err := f.uc.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status, "sigue aprobado y se puede reintentar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Autorización y transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_SinCapacidades_Unauthorized(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Request(context.Background(), transfer.RequestInput{
		BranchID: branchID, ProductID: productID, Quantity: 5, RequestedBy: cashierID,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tr := f.request(t, 5, warehouseA)
	_, err = f.uc.Approve(context.Background(), tr.ID, requesterID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "solicitar no habilita aprobar")

	_, err = f.uc.Cancel(context.Background(), tr.ID, cashierID, "no")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.Complete(context.Background(), tr.ID, "ghost")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransfer_CompletarPendiente_Invalida(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 5, warehouseA)
	_, err := f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(100), f.stock(t, warehouseA))
}

func TestTransfer_Cancelar(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 5, warehouseA)
	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)

	tr, err = f.uc.Cancel(context.Background(), tr.ID, requesterID, "ya no se necesita")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, tr.Status)
	assert.Equal(t, "ya no se necesita", tr.CancelReason)
	require.NotNil(t, tr.CancelledBy)

	_, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.uc.Approve(context.Background(), tr.ID, managerID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(100), f.stock(t, warehouseA))
}

func TestTransfer_ErroresDeSolicitud(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   transfer.RequestInput
		want error
	}{
		{"cantidad cero", transfer.RequestInput{BranchID: branchID, ProductID: productID, RequestedBy: requesterID}, domain.ErrInvalidInput},
		{"destino es bodega", transfer.RequestInput{BranchID: warehouseB, ProductID: productID, Quantity: 1, RequestedBy: requesterID}, domain.ErrInvalidInput},
		{"origen es sucursal", transfer.RequestInput{BranchID: branchID, ProductID: productID, Quantity: 1, RequestedBy: requesterID, WarehouseID: branchID}, domain.ErrInvalidInput},
		{"producto inexistente", transfer.RequestInput{BranchID: branchID, ProductID: "x", Quantity: 1, RequestedBy: requesterID}, domain.ErrNotFound},
		{"sucursal inexistente", transfer.RequestInput{BranchID: "nope", ProductID: productID, Quantity: 1, RequestedBy: requesterID}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Request(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.uc.Get(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Selección de bodega y orden de bloqueo
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_SinBodega_EligeLaDeMayorStock(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock(entity.LedgerKey{LocationID: warehouseB, ProductID: productID}, 250, -1)

	tr := f.request(t, 10, "")
	assert.Equal(t, warehouseB, tr.SourceWarehouseID)
}

func TestTransfer_SinStockEnNingunaBodega_NotFound(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock(entity.LedgerKey{LocationID: warehouseA, ProductID: productID}, -100, -1)

	_, err := f.uc.Request(context.Background(), transfer.RequestInput{
		BranchID: branchID, ProductID: productID, Quantity: 1, RequestedBy: requesterID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_CompletarBloqueaEnOrdenAscendente(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 10, warehouseA)
	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)

	f.store.ResetLockTrace()
	_, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.NoError(t, err)

	trace := f.store.LockTrace()
	require.GreaterOrEqual(t, len(trace), 2)
	// branch-norte < wh-a: la sucursal se bloquea primero aunque el origen sea la bodega.
	assert.Equal(t, branchID, trace[0].LocationID)
	assert.Equal(t, warehouseA, trace[1].LocationID)
}

func TestTransfer_CruceDeReorden_EmiteLowStock(t *testing.T) {
	f := newFixture(t)
	tr := f.request(t, 85, warehouseA)
	_, err := f.uc.Approve(context.Background(), tr.ID, managerID)
	require.NoError(t, err)
	_, err = f.uc.Complete(context.Background(), tr.ID, requesterID)
	require.NoError(t, err)

	assert.Equal(t, int64(15), f.stock(t, warehouseA))
	var low []event.LowStockReached
	for _, ev := range f.events.Events() {
		if l, ok := ev.(event.LowStockReached); ok {
			low = append(low, l)
		}
	}
	require.Len(t, low, 1)
	assert.Equal(t, warehouseA, low[0].LocationID)
}
