package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL READ COMMITTED;
// la exclusión la dan los SELECT ... FOR UPDATE de los repositorios.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un contexto vencido en cualquier punto se reporta como domain.ErrTimeout.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return ports.TimeoutErr(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(Repos(tx)); err != nil {
		return ports.TimeoutErr(err)
	}
	if err := ctx.Err(); err != nil {
		return ports.TimeoutErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return ports.TimeoutErr(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Repos repositorios sobre q: pool para lecturas sueltas, tx dentro de Run.
func Repos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Ledger:        NewLedgerRepository(q),
		Orders:        NewOrderRepository(q),
		Transfers:     NewTransferRepository(q),
		Loyalty:       NewLoyaltyRepository(q),
		Prescriptions: NewPrescriptionRepository(q),
		Deliveries:    NewDeliveryRepository(q),
	}
}
