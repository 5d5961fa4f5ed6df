package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ProductCatalog consulta de productos (precio y si requiere fórmula).
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
