package postgres_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	branchID    = "branch-centro"
	warehouseID = "wh-norte"
	clerkID     = "user-clerk"
	customerID  = "cust-1"
	prodA       = "prod-a"
	prodNew     = "prod-nuevo"
)

const seedSQL = `
INSERT INTO stock_locations (id, name, kind) VALUES
	('branch-centro', 'Centro', 'branch'),
	('wh-norte', 'Bodega Norte', 'warehouse');
INSERT INTO users (id, name, role, branch_id, capabilities) VALUES
	('user-clerk', 'Caja', 'cashier', 'branch-centro',
	 '{serve_in_store,adjust_stock,request_transfer,approve_transfer}'),
	('cust-1', 'Luis', 'customer', NULL, '{}');
INSERT INTO customers (id, name) VALUES ('cust-1', 'Luis');
INSERT INTO products (id, code, name, price) VALUES
	('prod-a', 'A-001', 'Acetaminofén', 20.00),
	('prod-nuevo', 'N-001', 'Nuevo', 5.00);
`

// Requiere un PostgreSQL real: POSTGRES_TEST_URL=postgres://... go test ./...
// Cada test corre en un schema propio que se borra al terminar.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL no definido")
	}
	ctx := context.Background()
	cfg := config.DBConfig{DatabaseURL: url, MaxConns: 20}

	admin, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	schema := "farmacia_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	pc, err := postgres.NewPoolConfig(cfg)
	require.NoError(t, err)
	pc.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile("../../../migrations/0001_pharmacy_core.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err, "aplicar migración")
	_, err = pool.Exec(ctx, seedSQL)
	require.NoError(t, err, "sembrar datos")
	return pool
}

type stack struct {
	pool      *pgxpool.Pool
	ledger    *ledger.UseCase
	orders    *order.UseCase
	transfers *transfer.UseCase
}

func newStack(t *testing.T) *stack {
	t.Helper()
	pool := newPool(t)
	tx := postgres.NewTxRunner(pool)
	reads := postgres.Repos(pool)
	users := postgres.NewUserDirectory(pool)
	catalog := postgres.NewProductCatalog(pool)
	locations := postgres.NewLocationRegistry(pool)
	events := &memory.EventRecorder{}
	log := logger.Nop()
	const timeout = 10 * time.Second

	return &stack{
		pool:   pool,
		ledger: ledger.NewUseCase(tx, reads.Ledger, users, events, log, timeout),
		orders: order.NewUseCase(order.Deps{
			Tx:            tx,
			Orders:        reads.Orders,
			Loyalty:       reads.Loyalty,
			Users:         users,
			Catalog:       catalog,
			Locations:     locations,
			Customers:     postgres.NewCustomerRepository(pool),
			Prescriptions: reads.Prescriptions,
			Deliveries:    reads.Deliveries,
			Pricing:       pricing.NewResolver(pricing.DefaultFees()),
			Locker:        memory.NewKeyedLocker(),
			Events:        events,
			Log:           log,
			Timeout:       timeout,
		}),
		transfers: transfer.NewUseCase(transfer.Deps{
			Tx:        tx,
			Transfers: reads.Transfers,
			Ledger:    reads.Ledger,
			Users:     users,
			Catalog:   catalog,
			Locations: locations,
			Events:    events,
			Log:       log,
			Timeout:   timeout,
		}),
	}
}

func (s *stack) stockIn(t *testing.T, key entity.LedgerKey, qty int64) {
	t.Helper()
	_, err := s.ledger.Mutate(context.Background(), ledger.MutateCommand{
		LocationID: key.LocationID, ProductID: key.ProductID, Delta: qty,
		Type: entity.TxStockIn, PerformedBy: clerkID, Notes: "carga inicial",
	})
	require.NoError(t, err)
}

// assertConsistent el stock actual coincide con la reproducción del log.
func (s *stack) assertConsistent(t *testing.T, key entity.LedgerKey, wantStock int64, wantTxs int) {
	t.Helper()
	rep, err := s.ledger.Audit(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, rep.Consistent, "auditoría de %s: %s", key, rep.Problem)
	assert.Equal(t, wantStock, rep.Current)
	assert.Equal(t, wantStock, rep.Replayed)
	assert.Equal(t, wantTxs, rep.Transactions)
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro mayor
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_MutateConcurrente_SinActualizacionesPerdidas(t *testing.T) {
	s := newStack(t)
	key := entity.LedgerKey{LocationID: branchID, ProductID: prodA}
	s.stockIn(t, key, 100)

	const workers = 20
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		delta := int64(3)
		typ := entity.TxStockIn
		if i%2 == 1 {
			delta, typ = -2, entity.TxStockOut
		}
		g.Go(func() error {
			_, err := s.ledger.Mutate(context.Background(), ledger.MutateCommand{
				LocationID: branchID, ProductID: prodA, Delta: delta, Type: typ, PerformedBy: clerkID,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	// 10 entradas de +3 y 10 salidas de -2.
	s.assertConsistent(t, key, 100+10*3-10*2, workers+1)
}

func TestPostgres_PrimeraCreacionConcurrente_UnaSolaEntrada(t *testing.T) {
	s := newStack(t)
	key := entity.LedgerKey{LocationID: branchID, ProductID: prodNew}

	const workers = 12
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := s.ledger.Mutate(context.Background(), ledger.MutateCommand{
				LocationID: branchID, ProductID: prodNew, Delta: 1, Type: entity.TxStockIn, PerformedBy: clerkID,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	var rows int
	err := s.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM ledger_entries WHERE location_id = $1 AND product_id = $2`,
		branchID, prodNew).Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows, "la creación concurrente no debe duplicar la entrada")
	s.assertConsistent(t, key, workers, workers)
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes y traslados sobre la misma entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_TrasladoYOrdenCompitenPorLaEntrada(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	branchKey := entity.LedgerKey{LocationID: branchID, ProductID: prodA}
	whKey := entity.LedgerKey{LocationID: warehouseID, ProductID: prodA}
	s.stockIn(t, branchKey, 10)
	s.stockIn(t, whKey, 100)

	const (
		orders    = 8
		transfers = 4
		perTrf    = 5
	)
	orderIDs := make([]string, 0, orders)
	for i := 0; i < orders; i++ {
		o, err := s.orders.CreateOrder(ctx, order.CreateOrderInput{
			Type:       entity.OrderInStore,
			CustomerID: customerID,
			BranchID:   branchID,
			CreatedBy:  clerkID,
			Items:      []order.ItemInput{{ProductID: prodA, Quantity: 1}},
		})
		require.NoError(t, err)
		_, err = s.orders.TransitionOrder(ctx, o.ID, entity.OrderProcessing, clerkID)
		require.NoError(t, err)
		orderIDs = append(orderIDs, o.ID)
	}
	transferIDs := make([]string, 0, transfers)
	for i := 0; i < transfers; i++ {
		tr, err := s.transfers.Request(ctx, transfer.RequestInput{
			BranchID: branchID, ProductID: prodA, Quantity: perTrf, RequestedBy: clerkID, WarehouseID: warehouseID,
		})
		require.NoError(t, err)
		_, err = s.transfers.Approve(ctx, tr.ID, clerkID)
		require.NoError(t, err)
		transferIDs = append(transferIDs, tr.ID)
	}

	var g errgroup.Group
	for _, id := range orderIDs {
		g.Go(func() error {
			_, err := s.orders.TransitionOrder(ctx, id, entity.OrderCompleted, clerkID)
			if err != nil {
				return fmt.Errorf("completar orden %s: %w", id, err)
			}
			return nil
		})
	}
	for _, id := range transferIDs {
		g.Go(func() error {
			_, err := s.transfers.Complete(ctx, id, clerkID)
			if err != nil {
				return fmt.Errorf("completar traslado %s: %w", id, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	s.assertConsistent(t, branchKey, 10-orders+transfers*perTrf, 1+orders+transfers)
	s.assertConsistent(t, whKey, 100-transfers*perTrf, 1+transfers)

	for _, id := range orderIDs {
		o, err := s.orders.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderCompleted, o.Status)
		assert.False(t, o.Reserved)
	}
}
