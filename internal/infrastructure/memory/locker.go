package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
)

var (
	_ ports.OrderLocker    = (*KeyedLocker)(nil)
	_ ports.EventPublisher = (*EventRecorder)(nil)
)

// KeyedLocker mutex por clave dentro de un solo proceso.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: map[string]chan struct{}{}}
}

// Lock espera a que la clave quede libre o a que venza ctx.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			mine := make(chan struct{})
			l.locks[key] = mine
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(mine)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ports.TimeoutErr(ctx.Err())
		}
	}
}

// EventRecorder publicador que guarda los eventos; útil en pruebas.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
	Err    error // si no es nil, Publish lo devuelve después de registrar
}

func (r *EventRecorder) Publish(_ context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Names nombres de los eventos en orden de publicación.
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventName()
	}
	return out
}
