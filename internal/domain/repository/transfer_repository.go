package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// TransferRepository puerto de persistencia de traslados bodega -> sucursal.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.InventoryTransfer) error
	GetByID(ctx context.Context, id string) (*entity.InventoryTransfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryTransfer, error)
	Update(ctx context.Context, t *entity.InventoryTransfer) error
}
