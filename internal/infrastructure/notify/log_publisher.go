package notify

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher deja cada evento en el log; se usa cuando no hay Pub/Sub configurado.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.log.Info().
		Str("event", ev.EventName()).
		RawJSON("payload", payload).
		Msg("evento de dominio")
	return nil
}
