package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// CustomerRepository consulta de clientes (tasa de descuento VIP).
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
