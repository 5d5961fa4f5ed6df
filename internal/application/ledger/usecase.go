package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// UseCase operaciones expuestas del libro mayor: ajuste manual, stock bajo, historial y auditoría.
type UseCase struct {
	tx      ports.TxRunner
	ledger  repository.LedgerRepository // lecturas fuera de transacción
	users   repository.UserDirectory
	events  ports.EventPublisher
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewUseCase construye el caso de uso. timeout <= 0 deja solo el deadline del caller.
func NewUseCase(
	tx ports.TxRunner,
	ledger repository.LedgerRepository,
	users repository.UserDirectory,
	events ports.EventPublisher,
	log *logger.Logger,
	timeout time.Duration,
) *UseCase {
	return &UseCase{
		tx:      tx,
		ledger:  ledger,
		users:   users,
		events:  events,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// MutateCommand ajuste de stock solicitado desde fuera del núcleo.
type MutateCommand struct {
	LocationID  string
	ProductID   string
	Delta       int64
	Type        entity.TransactionType
	PerformedBy string
	Notes       string
}

// Mutate aplica una mutación en su propia transacción. Requiere la capacidad adjust_stock.
func (uc *UseCase) Mutate(ctx context.Context, cmd MutateCommand) (*entity.LedgerTransaction, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.timeout)
	defer cancel()

	actor, err := uc.users.GetActor(ctx, cmd.PerformedBy)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if actor == nil || !actor.Can(entity.CapAdjustStock) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, entity.CapAdjustStock)
	}

	var res *Mutation
	err = uc.tx.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		res, err = MutateInTx(ctx, repos.Ledger, MutationInput{
			LocationID:  cmd.LocationID,
			ProductID:   cmd.ProductID,
			Delta:       cmd.Delta,
			Type:        cmd.Type,
			PerformedBy: cmd.PerformedBy,
			Notes:       cmd.Notes,
		}, uc.now())
		return err
	})
	if err != nil {
		err = ports.TimeoutErr(err)
		uc.logFailure(err).
			Str("location_id", cmd.LocationID).
			Str("product_id", cmd.ProductID).
			Int64("delta", cmd.Delta).
			Msg("mutación de stock rechazada")
		return nil, err
	}

	uc.log.Info().
		Str("location_id", cmd.LocationID).
		Str("product_id", cmd.ProductID).
		Str("type", string(cmd.Type)).
		Int64("previous_stock", res.Transaction.PreviousStock).
		Int64("new_stock", res.Transaction.NewStock).
		Msg("stock actualizado")
	uc.publish(ctx, LowStockEvents(res))
	return res.Transaction, nil
}

// LowStock entradas en o por debajo del punto de reorden; locationID vacío = todas.
func (uc *UseCase) LowStock(ctx context.Context, locationID string) ([]*entity.LedgerEntry, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.timeout)
	defer cancel()
	entries, err := uc.ledger.ListLowStock(ctx, locationID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("list low stock: %w", err))
	}
	return entries, nil
}

// History transacciones de una entrada en orden de commit.
func (uc *UseCase) History(ctx context.Context, key entity.LedgerKey) ([]*entity.LedgerTransaction, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.timeout)
	defer cancel()
	txs, err := uc.ledger.ListTransactions(ctx, key)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("list ledger transactions: %w", err))
	}
	return txs, nil
}

// HistoryPage una página del historial de la entrada y el total de transacciones.
func (uc *UseCase) HistoryPage(ctx context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.LedgerTransaction, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, fmt.Errorf("%w: paginación limit=%d offset=%d", domain.ErrInvalidInput, limit, offset)
	}
	ctx, cancel := ports.WithTimeout(ctx, uc.timeout)
	defer cancel()
	txs, total, err := uc.ledger.ListTransactionsPage(ctx, key, limit, offset)
	if err != nil {
		return nil, 0, ports.TimeoutErr(fmt.Errorf("list ledger transactions: %w", err))
	}
	return txs, total, nil
}

// Audit reconstruye el stock desde el log y lo compara con el actual.
// Lee entrada y log en la misma transacción para no mezclar instantes distintos.
func (uc *UseCase) Audit(ctx context.Context, key entity.LedgerKey) (*AuditReport, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.timeout)
	defer cancel()

	var rep *AuditReport
	err := uc.tx.Run(ctx, func(repos repository.TxRepos) error {
		entry, err := repos.Ledger.Get(ctx, key)
		if err != nil {
			return err
		}
		txs, err := repos.Ledger.ListTransactions(ctx, key)
		if err != nil {
			return err
		}
		if entry == nil && len(txs) == 0 {
			return fmt.Errorf("%w: no hay registro de inventario para %s", domain.ErrNotFound, key)
		}
		rep = buildReport(key, entry, txs)
		return nil
	})
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	if !rep.Consistent {
		uc.log.Error().Str("key", key.String()).Str("problem", rep.Problem).Msg("libro mayor inconsistente")
	}
	return rep, nil
}

// LowStockEvents eventos a emitir tras el commit para las mutaciones que cruzaron el punto de reorden.
func LowStockEvents(muts ...*Mutation) []event.Event {
	var out []event.Event
	for _, m := range muts {
		if m == nil || !m.LowStockCrossed {
			continue
		}
		out = append(out, event.LowStockReached{
			LocationID:   m.Entry.LocationID,
			ProductID:    m.Entry.ProductID,
			CurrentStock: m.Entry.CurrentStock,
			ReorderPoint: m.Entry.ReorderPoint,
			At:           m.Transaction.CreatedAt,
		})
	}
	return out
}

func (uc *UseCase) publish(ctx context.Context, evs []event.Event) {
	if len(evs) == 0 || uc.events == nil {
		return
	}
	if err := ports.PublishAll(ctx, uc.events, evs); err != nil {
		uc.log.Error().Err(err).Msg("publicar eventos de inventario")
	}
}

func (uc *UseCase) logFailure(err error) *zerolog.Event {
	if domain.IsBusiness(err) {
		return uc.log.Warn().Err(err)
	}
	return uc.log.Error().Err(err)
}
