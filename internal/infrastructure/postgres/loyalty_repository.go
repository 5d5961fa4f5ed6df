package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.LoyaltyRepository = (*LoyaltyRepo)(nil)

// LoyaltyRepo acumulaciones de puntos (usable con pool o tx).
type LoyaltyRepo struct {
	q Querier
}

func NewLoyaltyRepository(q Querier) *LoyaltyRepo {
	return &LoyaltyRepo{q: q}
}

func (r *LoyaltyRepo) Create(ctx context.Context, a *entity.LoyaltyAccrual) error {
	query := `
		INSERT INTO loyalty_accruals (id, customer_id, points, earned_at, expires_at, reference)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, a.ID, a.CustomerID, a.Points, a.EarnedAt, a.ExpiresAt, a.Reference); err != nil {
		return fmt.Errorf("insert loyalty accrual: %w", err)
	}
	return nil
}

func (r *LoyaltyRepo) ListByCustomer(ctx context.Context, customerID string) ([]*entity.LoyaltyAccrual, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, customer_id, points, earned_at, expires_at, reference
		FROM loyalty_accruals WHERE customer_id = $1 ORDER BY earned_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list loyalty accruals: %w", err)
	}
	defer rows.Close()
	var list []*entity.LoyaltyAccrual
	for rows.Next() {
		var a entity.LoyaltyAccrual
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Points, &a.EarnedAt, &a.ExpiresAt, &a.Reference); err != nil {
			return nil, fmt.Errorf("scan loyalty accrual: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
