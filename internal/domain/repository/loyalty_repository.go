package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

type LoyaltyRepository interface {
	Create(ctx context.Context, a *entity.LoyaltyAccrual) error
	ListByCustomer(ctx context.Context, customerID string) ([]*entity.LoyaltyAccrual, error)
}
