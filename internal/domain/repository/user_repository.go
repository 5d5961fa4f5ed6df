package repository

import (
	"context"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// UserDirectory resuelve un id de usuario a un Actor con sus capacidades.
// El núcleo confía en esta consulta para toda autorización.
type UserDirectory interface {
	GetActor(ctx context.Context, id string) (*entity.Actor, error)
}
