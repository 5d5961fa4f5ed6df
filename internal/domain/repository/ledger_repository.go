package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// LedgerRepository puerto de persistencia del libro mayor (entradas + transacciones).
// Get y GetForUpdate devuelven (nil, nil) si la entrada no existe.
type LedgerRepository interface {
	Get(ctx context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error)
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	UpdateStock(ctx context.Context, entry *entity.LedgerEntry) error
	CreateTransaction(ctx context.Context, tx *entity.LedgerTransaction) error
	// ListTransactions en orden de commit.
	ListTransactions(ctx context.Context, key entity.LedgerKey) ([]*entity.LedgerTransaction, error)
	// ListTransactionsPage una página del log en orden de commit y el total de transacciones.
	ListTransactionsPage(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.LedgerTransaction, int, error)
	ListTransactionsByReference(ctx context.Context, reference string) ([]*entity.LedgerTransaction, error)
	// ListLowStock entradas con CurrentStock <= ReorderPoint; locationID vacío = todas.
	ListLowStock(ctx context.Context, locationID string) ([]*entity.LedgerEntry, error)
	// FindSourceWarehouse bodega con más stock del producto; "" si ninguna tiene.
	FindSourceWarehouse(ctx context.Context, productID string) (string, error)
}
