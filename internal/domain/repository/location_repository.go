package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// LocationRegistry registro de sucursales y bodegas.
type LocationRegistry interface {
	GetByID(ctx context.Context, id string) (*entity.StockLocation, error)
}
