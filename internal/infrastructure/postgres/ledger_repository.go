package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo entradas (ledger_entries) y transacciones (ledger_transactions) sobre PostgreSQL.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const entryColumns = `id, location_id, product_id, current_stock, minimum_stock, reorder_point, created_at, updated_at`

func scanEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	if err := row.Scan(&e.ID, &e.LocationID, &e.ProductID, &e.CurrentStock, &e.MinimumStock,
		&e.ReorderPoint, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get obtiene la entrada sin bloquearla.
func (r *LedgerRepo) Get(ctx context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE location_id = $1 AND product_id = $2`
	e, err := scanEntry(r.q.QueryRow(ctx, query, key.LocationID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory entry: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene la entrada y bloquea la fila (SELECT FOR UPDATE).
func (r *LedgerRepo) GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE location_id = $1 AND product_id = $2 FOR UPDATE`
	e, err := scanEntry(r.q.QueryRow(ctx, query, key.LocationID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory entry for update: %w", err)
	}
	return e, nil
}

// Create inserta la entrada en cero. Si otra transacción la creó primero no falla:
// el caller vuelve a leer con GetForUpdate.
func (r *LedgerRepo) Create(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (location_id, product_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, e.ID, e.LocationID, e.ProductID, e.CurrentStock,
		e.MinimumStock, e.ReorderPoint, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory entry: %w", err)
	}
	return nil
}

// UpdateStock persiste current_stock; el CHECK (current_stock >= 0) de la tabla es la última barrera.
func (r *LedgerRepo) UpdateStock(ctx context.Context, e *entity.LedgerEntry) error {
	query := `UPDATE ledger_entries SET current_stock = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, e.ID, e.CurrentStock, e.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, e.Key())
		}
		return fmt.Errorf("update inventory entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update inventory entry %s: fila inexistente", e.ID)
	}
	return nil
}

const txColumns = `id, entry_id, location_id, product_id, type, quantity, previous_stock, new_stock,
	performed_by, reference, notes, created_at`

// CreateTransaction agrega un movimiento al log; seq (bigserial) fija el orden de commit por entrada.
func (r *LedgerRepo) CreateTransaction(ctx context.Context, tx *entity.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query, tx.ID, tx.EntryID, tx.LocationID, tx.ProductID, string(tx.Type),
		tx.Quantity, tx.PreviousStock, tx.NewStock, tx.PerformedBy, tx.Reference, tx.Notes, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListTransactions(ctx context.Context, key entity.LedgerKey) ([]*entity.LedgerTransaction, error) {
	query := `SELECT ` + txColumns + ` FROM ledger_transactions
		WHERE location_id = $1 AND product_id = $2 ORDER BY seq`
	return r.queryTransactions(ctx, query, key.LocationID, key.ProductID)
}

// ListTransactionsPage pagina en la base; el conteo y la página son dos lecturas.
func (r *LedgerRepo) ListTransactionsPage(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.LedgerTransaction, int, error) {
	var total int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM ledger_transactions WHERE location_id = $1 AND product_id = $2`,
		key.LocationID, key.ProductID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count inventory transactions: %w", err)
	}
	if total == 0 || offset >= total {
		return nil, total, nil
	}
	query := `SELECT ` + txColumns + ` FROM ledger_transactions
		WHERE location_id = $1 AND product_id = $2 ORDER BY seq LIMIT $3 OFFSET $4`
	list, err := r.queryTransactions(ctx, query, key.LocationID, key.ProductID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *LedgerRepo) ListTransactionsByReference(ctx context.Context, reference string) ([]*entity.LedgerTransaction, error) {
	query := `SELECT ` + txColumns + ` FROM ledger_transactions WHERE reference = $1 ORDER BY seq`
	return r.queryTransactions(ctx, query, reference)
}

func (r *LedgerRepo) queryTransactions(ctx context.Context, query string, args ...any) ([]*entity.LedgerTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerTransaction
	for rows.Next() {
		var tx entity.LedgerTransaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.EntryID, &tx.LocationID, &tx.ProductID, &typ, &tx.Quantity,
			&tx.PreviousStock, &tx.NewStock, &tx.PerformedBy, &tx.Reference, &tx.Notes, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		tx.Type = entity.TransactionType(typ)
		list = append(list, &tx)
	}
	return list, rows.Err()
}

// ListLowStock entradas en o bajo el punto de reorden; locationID vacío = todas.
func (r *LedgerRepo) ListLowStock(ctx context.Context, locationID string) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE current_stock <= reorder_point AND ($1 = '' OR location_id = $1)
		ORDER BY location_id, product_id`
	rows, err := r.q.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// FindSourceWarehouse bodega con más stock positivo del producto; empate por id.
func (r *LedgerRepo) FindSourceWarehouse(ctx context.Context, productID string) (string, error) {
	query := `
		SELECT e.location_id
		FROM ledger_entries e
		JOIN stock_locations l ON l.id = e.location_id
		WHERE e.product_id = $1 AND l.kind = 'warehouse' AND e.current_stock > 0
		ORDER BY e.current_stock DESC, e.location_id
		LIMIT 1`
	var id string
	err := r.q.QueryRow(ctx, query, productID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find source warehouse: %w", err)
	}
	return id, nil
}
