package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// PrescriptionRepository fórmulas médicas. Fuera de una transacción solo sirve para leer.
type PrescriptionRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Prescription, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Prescription, error)
	// MarkDispensed pasa la fórmula de validated a dispensed; ErrConflict si ya no estaba validada.
	MarkDispensed(ctx context.Context, id string, at time.Time) error
}
