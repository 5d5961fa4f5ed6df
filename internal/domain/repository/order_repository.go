package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// OrderRepository puerto de persistencia de órdenes con sus ítems.
type OrderRepository interface {
	// Create inserta la orden y sus ítems.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// Update persiste estado y campos mutables; los ítems no cambian.
	Update(ctx context.Context, order *entity.Order) error
	AppendTransition(ctx context.Context, rec *entity.TransitionRecord) error
	ListTransitions(ctx context.Context, orderID string) ([]*entity.TransitionRecord, error)
}
