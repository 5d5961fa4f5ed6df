package ports

import (
	"context"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a ella.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// EventPublisher notificador externo de eventos de dominio.
// Se invoca solo después del commit; un fallo no revierte la operación.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// OrderLocker garantiza un único escritor por orden. release libera el bloqueo.
type OrderLocker interface {
	Lock(ctx context.Context, orderID string) (release func(), err error)
}

// PublishTimeout tope para publicar los eventos de una operación ya confirmada.
const PublishTimeout = 5 * time.Second

// PublishAll publica en orden y devuelve el primer error sin detenerse.
// Usa un contexto desligado de la cancelación de ctx (conserva sus valores) y
// acotado por PublishTimeout: el deadline de la operación no aplica después del commit.
func PublishAll(ctx context.Context, pub EventPublisher, events []event.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	var first error
	for _, ev := range events {
		if err := pub.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
