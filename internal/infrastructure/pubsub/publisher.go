package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/pkg/config"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Envelope cuerpo JSON de cada mensaje.
type Envelope struct {
	Event       string          `json:"event"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// Publisher envía los eventos de dominio a un tópico de Pub/Sub.
type Publisher struct {
	client  *pubsub.Client // nil si el tópico llegó desde fuera
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
	now     func() time.Time
}

// NewClient abre el cliente del proyecto; sin archivo de credenciales usa las credenciales por defecto.
func NewClient(ctx context.Context, cfg config.PubSubConfig, opts ...option.ClientOption) (*pubsub.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub: project id requerido")
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return client, nil
}

// New publica en el tópico cfg.Topic del cliente dado. Close cierra también el cliente.
func New(client *pubsub.Client, topicID string) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("pubsub publisher: client is required")
	}
	p, err := NewWithTopic(client.Topic(topicID))
	if err != nil {
		return nil, err
	}
	p.client = client
	return p, nil
}

func NewWithTopic(topic *pubsub.Topic) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher: topic is required")
	}
	return &Publisher{topic: topic, marshal: json.Marshal, now: time.Now}, nil
}

// Publish espera la confirmación del servidor antes de volver.
func (p *Publisher) Publish(ctx context.Context, ev event.Event) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub publisher: not initialised")
	}
	payload, err := p.marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	data, err := p.marshal(Envelope{
		Event:       ev.EventName(),
		Payload:     payload,
		PublishedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": ev.EventName()},
	})
	if _, err := result.Get(ctx); err != nil {
		return ports.TimeoutErr(fmt.Errorf("publish %s: %w", ev.EventName(), err))
	}
	return nil
}

// Close vacía los mensajes pendientes del tópico.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
