package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// DeliveryRepository entregas de órdenes; una por orden.
type DeliveryRepository interface {
	Create(ctx context.Context, d *entity.Delivery) error
	GetByID(ctx context.Context, id string) (*entity.Delivery, error)
	GetByOrder(ctx context.Context, orderID string) (*entity.Delivery, error)
	GetByOrderForUpdate(ctx context.Context, orderID string) (*entity.Delivery, error)
	Update(ctx context.Context, d *entity.Delivery) error
}
