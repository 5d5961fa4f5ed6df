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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes, ítems y auditoría de transiciones (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, number, type, customer_id, branch_id, status, total_amount, discount_rate,
	created_by, served_by, prescription_id, validated_by, validation_date, delivery_address,
	delivery_instructions, notes, reserved, pharmacist_required, created_at, updated_at`

// Create inserta la orden y sus ítems. Número duplicado es ErrConflict.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Number, string(o.Type), o.CustomerID, o.BranchID, string(o.Status), o.TotalAmount, o.DiscountRate,
		o.CreatedBy, o.ServedBy, o.PrescriptionID, o.ValidatedBy, o.ValidationDate, o.DeliveryAddress,
		o.DeliveryInstructions, o.Notes, o.Reserved, o.PharmacistRequired, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden %s ya existe", domain.ErrConflict, o.Number)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range o.Items {
		if _, err := r.q.Exec(ctx, itemQuery, it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la orden (SELECT FOR UPDATE); los ítems no se bloquean.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	var (
		o           entity.Order
		typ, status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Number, &typ, &o.CustomerID, &o.BranchID, &status, &o.TotalAmount, &o.DiscountRate,
		&o.CreatedBy, &o.ServedBy, &o.PrescriptionID, &o.ValidatedBy, &o.ValidationDate, &o.DeliveryAddress,
		&o.DeliveryInstructions, &o.Notes, &o.Reserved, &o.PharmacistRequired, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Type = entity.OrderType(typ)
	o.Status = entity.OrderStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1 ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &o, nil
}

// Update persiste estado y campos mutables.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders SET status = $2, validated_by = $3, validation_date = $4, reserved = $5,
			pharmacist_required = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, o.ID, string(o.Status), o.ValidatedBy, o.ValidationDate,
		o.Reserved, o.PharmacistRequired, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: orden %s", domain.ErrNotFound, o.ID)
	}
	return nil
}

func (r *OrderRepo) AppendTransition(ctx context.Context, rec *entity.TransitionRecord) error {
	query := `
		INSERT INTO order_transitions (id, order_id, from_status, to_status, actor_id, at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, rec.ID, rec.OrderID, string(rec.From), string(rec.To), rec.ActorID, rec.At); err != nil {
		return fmt.Errorf("insert order transition: %w", err)
	}
	return nil
}

func (r *OrderRepo) ListTransitions(ctx context.Context, orderID string) ([]*entity.TransitionRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor_id, at
		FROM order_transitions WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order transitions: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransitionRecord
	for rows.Next() {
		var (
			rec      entity.TransitionRecord
			from, to string
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &from, &to, &rec.ActorID, &rec.At); err != nil {
			return nil, fmt.Errorf("scan order transition: %w", err)
		}
		rec.From, rec.To = entity.OrderStatus(from), entity.OrderStatus(to)
		list = append(list, &rec)
	}
	return list, rows.Err()
}
