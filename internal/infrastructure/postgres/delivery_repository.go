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

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// DeliveryRepo entregas de órdenes (usable con pool o tx).
type DeliveryRepo struct {
	q Querier
}

func NewDeliveryRepository(q Querier) *DeliveryRepo {
	return &DeliveryRepo{q: q}
}

const deliveryColumns = `id, order_id, kind, status, scheduled_at, address, instructions, assigned_staff,
	pickup_location_id, customer_notified, fee, delivered_at, created_at, updated_at`

func (r *DeliveryRepo) Create(ctx context.Context, d *entity.Delivery) error {
	query := `
		INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.OrderID, string(d.Kind), string(d.Status), d.ScheduledAt, d.Address, d.Instructions, d.AssignedStaff,
		d.PickupLocationID, d.CustomerNotified, d.Fee, d.DeliveredAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la orden %s ya tiene entrega", domain.ErrConflict, d.OrderID)
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*entity.Delivery, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
}

func (r *DeliveryRepo) GetByOrder(ctx context.Context, orderID string) (*entity.Delivery, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1`, orderID)
}

func (r *DeliveryRepo) GetByOrderForUpdate(ctx context.Context, orderID string) (*entity.Delivery, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1 FOR UPDATE`, orderID)
}

func (r *DeliveryRepo) get(ctx context.Context, query, arg string) (*entity.Delivery, error) {
	var (
		d            entity.Delivery
		kind, status string
	)
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.OrderID, &kind, &status, &d.ScheduledAt, &d.Address, &d.Instructions, &d.AssignedStaff,
		&d.PickupLocationID, &d.CustomerNotified, &d.Fee, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	d.Kind = entity.DeliveryKind(kind)
	d.Status = entity.DeliveryStatus(status)
	return &d, nil
}

func (r *DeliveryRepo) Update(ctx context.Context, d *entity.Delivery) error {
	query := `
		UPDATE deliveries SET status = $2, scheduled_at = $3, instructions = $4, assigned_staff = $5,
			customer_notified = $6, delivered_at = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, d.ID, string(d.Status), d.ScheduledAt, d.Instructions, d.AssignedStaff,
		d.CustomerNotified, d.DeliveredAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entrega %s", domain.ErrNotFound, d.ID)
	}
	return nil
}
