package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// Deps dependencias del flujo de traslados.
type Deps struct {
	Tx        ports.TxRunner
	Transfers repository.TransferRepository // lecturas fuera de transacción
	Ledger    repository.LedgerRepository   // lecturas fuera de transacción
	Users     repository.UserDirectory
	Catalog   repository.ProductCatalog
	Locations repository.LocationRegistry
	Events    ports.EventPublisher
	Log       *logger.Logger
	Timeout   time.Duration
	Clock     func() time.Time
}

// UseCase traslados bodega -> sucursal: request -> approve -> (dispatch) -> complete.
type UseCase struct {
	d Deps
}

func NewUseCase(d Deps) *UseCase {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &UseCase{d: d}
}

// RequestInput solicitud de traslado. WarehouseID vacío elige la bodega con más stock.
type RequestInput struct {
	BranchID    string
	ProductID   string
	Quantity    int64
	RequestedBy string
	WarehouseID string
	Notes       string
}

// Request crea el traslado en pending; no toca el inventario.
func (uc *UseCase) Request(ctx context.Context, in RequestInput) (*entity.InventoryTransfer, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if in.Quantity <= 0 || in.BranchID == "" || in.ProductID == "" {
		return nil, fmt.Errorf("%w: sucursal, producto y cantidad positiva son obligatorios", domain.ErrInvalidInput)
	}
	if _, err := uc.authorize(ctx, in.RequestedBy, entity.CapRequestTransfer); err != nil {
		return nil, err
	}
	branch, err := uc.d.Locations.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get branch: %w", err))
	}
	if branch == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, in.BranchID)
	}
	if !branch.IsBranch() {
		return nil, fmt.Errorf("%w: el destino %s no es una sucursal", domain.ErrInvalidInput, in.BranchID)
	}
	product, err := uc.d.Catalog.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get product: %w", err))
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}

	warehouseID := in.WarehouseID
	if warehouseID == "" {
		if warehouseID, err = uc.d.Ledger.FindSourceWarehouse(ctx, in.ProductID); err != nil {
			return nil, ports.TimeoutErr(fmt.Errorf("find source warehouse: %w", err))
		}
		if warehouseID == "" {
			return nil, fmt.Errorf("%w: ninguna bodega tiene stock de %s", domain.ErrNotFound, in.ProductID)
		}
	}
	wh, err := uc.d.Locations.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get warehouse: %w", err))
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if !wh.IsWarehouse() {
		return nil, fmt.Errorf("%w: el origen %s no es una bodega", domain.ErrInvalidInput, warehouseID)
	}

	now := uc.d.Clock().UTC()
	t := &entity.InventoryTransfer{
		ID:                  uuid.New().String(),
		SourceWarehouseID:   wh.ID,
		DestinationBranchID: branch.ID,
		ProductID:           product.ID,
		Quantity:            in.Quantity,
		Status:              entity.TransferPending,
		RequestedBy:         in.RequestedBy,
		Notes:               in.Notes,
		RequestedAt:         now,
	}
	t.Number = fmt.Sprintf("TRF-%s-%s", now.Format("20060102150405"), strings.ToUpper(strings.ReplaceAll(t.ID, "-", "")[:6]))

	if err := uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		return repos.Transfers.Create(ctx, t)
	}); err != nil {
		return nil, ports.TimeoutErr(err)
	}
	uc.d.Log.Info().
		Str("transfer_id", t.ID).
		Str("transfer_number", t.Number).
		Str("warehouse_id", t.SourceWarehouseID).
		Str("branch_id", t.DestinationBranchID).
		Int64("quantity", t.Quantity).
		Msg("traslado solicitado")
	return t, nil
}

// Approve verifica bajo bloqueo que la bodega tenga stock suficiente y aprueba.
func (uc *UseCase) Approve(ctx context.Context, transferID, approverID string) (*entity.InventoryTransfer, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	approver, err := uc.authorize(ctx, approverID, entity.CapApproveTransfer)
	if err != nil {
		return nil, err
	}
	var out *entity.InventoryTransfer
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		t, err := lockTransfer(ctx, repos, transferID, entity.TransferApproved)
		if err != nil {
			return err
		}
		entries, err := ledger.LockEntries(ctx, repos.Ledger, t.SourceKey())
		if err != nil {
			return err
		}
		var available int64
		if e := entries[t.SourceKey()]; e != nil {
			available = e.CurrentStock
		}
		if available < t.Quantity {
			return fmt.Errorf("%w: bodega %s tiene %d, se requieren %d",
				domain.ErrInsufficientWarehouseStock, t.SourceWarehouseID, available, t.Quantity)
		}
		now := uc.d.Clock().UTC()
		t.Status = entity.TransferApproved
		t.ApprovedBy = &approver.ID
		t.ApprovedAt = &now
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, transferID, "aprobar traslado")
	}
	uc.d.Log.Info().Str("transfer_id", out.ID).Str("approved_by", approver.ID).Msg("traslado aprobado")
	uc.publish(ctx, event.TransferApproved{
		TransferID:     out.ID,
		TransferNumber: out.Number,
		ApprovedBy:     approver.ID,
		At:             *out.ApprovedAt,
	})
	return out, nil
}

// Dispatch approved -> in_transit; sin efecto en inventario.
func (uc *UseCase) Dispatch(ctx context.Context, transferID, actorID string) (*entity.InventoryTransfer, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if _, err := uc.authorize(ctx, actorID, entity.CapRequestTransfer, entity.CapApproveTransfer); err != nil {
		return nil, err
	}
	var out *entity.InventoryTransfer
	err := uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		t, err := lockTransfer(ctx, repos, transferID, entity.TransferInTransit)
		if err != nil {
			return err
		}
		now := uc.d.Clock().UTC()
		t.Status = entity.TransferInTransit
		t.DispatchedAt = &now
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, transferID, "despachar traslado")
	}
	uc.d.Log.Info().Str("transfer_id", out.ID).Msg("traslado en tránsito")
	return out, nil
}

// Complete mueve la cantidad de la bodega a la sucursal en una sola transacción:
// bloquea ambas entradas en orden ascendente, transfer_out en bodega, transfer_in en
// sucursal (creando la entrada si falta) y marca completed. Si la bodega ya no alcanza
// no se escribe nada y el traslado sigue approved.
func (uc *UseCase) Complete(ctx context.Context, transferID, receiverID string) (*entity.InventoryTransfer, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	receiver, err := uc.d.Users.GetActor(ctx, receiverID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if receiver == nil {
		return nil, fmt.Errorf("%w: usuario %s desconocido", domain.ErrUnauthorized, receiverID)
	}

	var (
		out  *entity.InventoryTransfer
		muts []*ledger.Mutation
	)
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		t, err := lockTransfer(ctx, repos, transferID, entity.TransferCompleted)
		if err != nil {
			return err
		}
		if _, err := ledger.LockEntries(ctx, repos.Ledger, t.SourceKey(), t.DestinationKey()); err != nil {
			return err
		}
		now := uc.d.Clock().UTC()

		outMut, err := ledger.MutateInTx(ctx, repos.Ledger, ledger.MutationInput{
			LocationID:  t.SourceWarehouseID,
			ProductID:   t.ProductID,
			Delta:       -t.Quantity,
			Type:        entity.TxTransferOut,
			PerformedBy: receiver.ID,
			Reference:   t.Number,
			Notes:       "transfer to " + t.DestinationBranchID,
		}, now)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return fmt.Errorf("%w: %v", domain.ErrInsufficientWarehouseStock, err)
			}
			return err
		}
		inMut, err := ledger.MutateInTx(ctx, repos.Ledger, ledger.MutationInput{
			LocationID:  t.DestinationBranchID,
			ProductID:   t.ProductID,
			Delta:       t.Quantity,
			Type:        entity.TxTransferIn,
			PerformedBy: receiver.ID,
			Reference:   t.Number,
			Notes:       "transfer from " + t.SourceWarehouseID,
		}, now)
		if err != nil {
			return err
		}

		t.Status = entity.TransferCompleted
		t.ReceivedBy = &receiver.ID
		t.ReceivedAt = &now
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		muts = []*ledger.Mutation{outMut, inMut}
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, transferID, "completar traslado")
	}

	uc.d.Log.Info().
		Str("transfer_id", out.ID).
		Str("warehouse_id", out.SourceWarehouseID).
		Str("branch_id", out.DestinationBranchID).
		Int64("quantity", out.Quantity).
		Int64("warehouse_stock", muts[0].Transaction.NewStock).
		Int64("branch_stock", muts[1].Transaction.NewStock).
		Msg("traslado completado")
	evs := append([]event.Event{event.TransferCompleted{
		TransferID:          out.ID,
		TransferNumber:      out.Number,
		SourceWarehouseID:   out.SourceWarehouseID,
		DestinationBranchID: out.DestinationBranchID,
		ProductID:           out.ProductID,
		Quantity:            out.Quantity,
		At:                  *out.ReceivedAt,
	}}, ledger.LowStockEvents(muts...)...)
	uc.publish(ctx, evs...)
	return out, nil
}

// Cancel pending/approved -> cancelled. El actor debe poder solicitar o aprobar traslados.
func (uc *UseCase) Cancel(ctx context.Context, transferID, actorID, reason string) (*entity.InventoryTransfer, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	actor, err := uc.authorize(ctx, actorID, entity.CapRequestTransfer, entity.CapApproveTransfer)
	if err != nil {
		return nil, err
	}
	var out *entity.InventoryTransfer
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		t, err := lockTransfer(ctx, repos, transferID, entity.TransferCancelled)
		if err != nil {
			return err
		}
		now := uc.d.Clock().UTC()
		t.Status = entity.TransferCancelled
		t.CancelledBy = &actor.ID
		t.CancelledAt = &now
		t.CancelReason = reason
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, uc.fail(err, transferID, "cancelar traslado")
	}
	uc.d.Log.Info().Str("transfer_id", out.ID).Str("reason", reason).Msg("traslado cancelado")
	return out, nil
}

// Get traslado por id.
func (uc *UseCase) Get(ctx context.Context, transferID string) (*entity.InventoryTransfer, error) {
	t, err := uc.d.Transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get transfer: %w", err))
	}
	if t == nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, transferID)
	}
	return t, nil
}

// Movements transacciones del libro mayor que referencian el traslado.
func (uc *UseCase) Movements(ctx context.Context, transferID string) ([]*entity.LedgerTransaction, error) {
	t, err := uc.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	txs, err := uc.d.Ledger.ListTransactionsByReference(ctx, t.Number)
	if err != nil {
		return nil, fmt.Errorf("list transfer movements: %w", err)
	}
	return txs, nil
}

// lockTransfer bloquea el traslado y valida que pueda pasar a next.
func lockTransfer(ctx context.Context, repos repository.TxRepos, id string, next entity.TransferStatus) (*entity.InventoryTransfer, error) {
	t, err := repos.Transfers.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	if !entity.CanTransitionTransfer(t.Status, next) {
		return nil, fmt.Errorf("%w: traslado %s -> %s", domain.ErrInvalidTransition, t.Status, next)
	}
	return t, nil
}

// authorize resuelve el actor y exige al menos una de las capacidades.
func (uc *UseCase) authorize(ctx context.Context, actorID string, caps ...entity.Capability) (*entity.Actor, error) {
	actor, err := uc.d.Users.GetActor(ctx, actorID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	for _, c := range caps {
		if actor.Can(c) {
			return actor, nil
		}
	}
	return nil, fmt.Errorf("%w: se requiere %v", domain.ErrUnauthorized, caps)
}

func (uc *UseCase) fail(err error, transferID, op string) error {
	err = ports.TimeoutErr(err)
	var ev *zerolog.Event
	if domain.IsBusiness(err) {
		ev = uc.d.Log.Warn()
	} else {
		ev = uc.d.Log.Error()
	}
	ev.Err(err).Str("transfer_id", transferID).Msg(op)
	return err
}

func (uc *UseCase) publish(ctx context.Context, evs ...event.Event) {
	if uc.d.Events == nil {
		return
	}
	if err := ports.PublishAll(ctx, uc.d.Events, evs); err != nil {
		uc.d.Log.Error().Err(err).Msg("publicar eventos de traslado")
	}
}
