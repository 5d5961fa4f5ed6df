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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados bodega -> sucursal (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, number, source_warehouse_id, destination_branch_id, product_id, quantity, status,
	requested_by, approved_by, received_by, cancelled_by, notes, cancel_reason,
	requested_at, approved_at, dispatched_at, received_at, cancelled_at`

func (r *TransferRepo) Create(ctx context.Context, t *entity.InventoryTransfer) error {
	query := `
		INSERT INTO inventory_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Number, t.SourceWarehouseID, t.DestinationBranchID, t.ProductID, t.Quantity, string(t.Status),
		t.RequestedBy, t.ApprovedBy, t.ReceivedBy, t.CancelledBy, t.Notes, t.CancelReason,
		t.RequestedAt, t.ApprovedAt, t.DispatchedAt, t.ReceivedAt, t.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, t.Number)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.InventoryTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM inventory_transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del traslado (SELECT FOR UPDATE).
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM inventory_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.InventoryTransfer, error) {
	var (
		t      entity.InventoryTransfer
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Number, &t.SourceWarehouseID, &t.DestinationBranchID, &t.ProductID, &t.Quantity, &status,
		&t.RequestedBy, &t.ApprovedBy, &t.ReceivedBy, &t.CancelledBy, &t.Notes, &t.CancelReason,
		&t.RequestedAt, &t.ApprovedAt, &t.DispatchedAt, &t.ReceivedAt, &t.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	t.Status = entity.TransferStatus(status)
	return &t, nil
}

func (r *TransferRepo) Update(ctx context.Context, t *entity.InventoryTransfer) error {
	query := `
		UPDATE inventory_transfers SET status = $2, approved_by = $3, received_by = $4, cancelled_by = $5,
			cancel_reason = $6, approved_at = $7, dispatched_at = $8, received_at = $9, cancelled_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, t.ID, string(t.Status), t.ApprovedBy, t.ReceivedBy, t.CancelledBy,
		t.CancelReason, t.ApprovedAt, t.DispatchedAt, t.ReceivedAt, t.CancelledAt)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, t.ID)
	}
	return nil
}
