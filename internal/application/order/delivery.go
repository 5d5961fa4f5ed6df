package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// ScheduleDeliveryInput agenda de una entrega. StaffID e Instructions son opcionales.
type ScheduleDeliveryInput struct {
	OrderID      string
	ActorID      string
	ScheduledAt  time.Time
	StaffID      string
	Instructions string
}

// ScheduleDelivery agenda o reprograma la entrega de una orden abierta.
// Una orden sin entrega previa y sin dirección se entrega por recogida en su sucursal.
// Solo se reprograma una entrega scheduled o failed.
func (uc *UseCase) ScheduleDelivery(ctx context.Context, in ScheduleDeliveryInput) (*entity.Delivery, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if in.OrderID == "" || in.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: orden y fecha de entrega son obligatorias", domain.ErrInvalidInput)
	}
	actor, err := uc.authorize(ctx, in.ActorID, entity.CapManageDelivery)
	if err != nil {
		return nil, err
	}
	var staff *string
	if in.StaffID != "" {
		a, err := uc.actor(ctx, in.StaffID)
		if err != nil {
			return nil, ports.TimeoutErr(err)
		}
		staff = &a.ID
	}

	release, err := uc.d.Locker.Lock(ctx, in.OrderID)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	defer release()

	var (
		d   *entity.Delivery
		now time.Time
	)
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: orden %s", domain.ErrNotFound, in.OrderID)
		}
		if o.Status.IsTerminal() {
			return fmt.Errorf("%w: la orden está %s", domain.ErrInvalidTransition, o.Status)
		}
		now = uc.d.Clock().UTC()

		d, err = repos.Deliveries.GetByOrderForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		create := d == nil
		if create {
			d = newDelivery(o, uc.d.Pricing, now)
		} else if d.Status != entity.DeliveryScheduled && d.Status != entity.DeliveryFailed {
			return fmt.Errorf("%w: la entrega está %s", domain.ErrInvalidTransition, d.Status)
		}

		d.Status = entity.DeliveryScheduled
		d.ScheduledAt = in.ScheduledAt.UTC()
		d.AssignedStaff = staff
		if in.Instructions != "" {
			d.Instructions = in.Instructions
		}
		if d.Kind == entity.DeliveryPickup {
			d.CustomerNotified = true
		}
		d.UpdatedAt = now
		if create {
			return repos.Deliveries.Create(ctx, d)
		}
		return repos.Deliveries.Update(ctx, d)
	})
	if err != nil {
		err = ports.TimeoutErr(err)
		uc.logFailure(err).Str("order_id", in.OrderID).Msg("agendar entrega")
		return nil, err
	}

	uc.d.Log.Info().
		Str("order_id", d.OrderID).
		Str("delivery_id", d.ID).
		Str("kind", string(d.Kind)).
		Time("scheduled_at", d.ScheduledAt).
		Str("actor_id", actor.ID).
		Msg("entrega agendada")
	uc.publish(ctx, []event.Event{scheduledEvent(d, now)})
	return d, nil
}

// AdvanceDelivery mueve la entrega por el grafo de su modalidad. Llegar a delivered
// completa la orden en la misma transacción; si la orden no puede completarse la
// entrega tampoco avanza.
func (uc *UseCase) AdvanceDelivery(ctx context.Context, deliveryID string, to entity.DeliveryStatus, actorID string) (*entity.Delivery, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if _, ok := entity.ParseDeliveryStatus(string(to)); !ok || to == entity.DeliveryScheduled {
		return nil, fmt.Errorf("%w: estado de entrega %q", domain.ErrInvalidInput, to)
	}
	actor, err := uc.authorize(ctx, actorID, entity.CapManageDelivery)
	if err != nil {
		return nil, err
	}
	cur, err := uc.d.Deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get delivery: %w", err))
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: entrega %s", domain.ErrNotFound, deliveryID)
	}

	release, err := uc.d.Locker.Lock(ctx, cur.OrderID)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	defer release()

	var customer *entity.Actor
	if to == entity.DeliveryDelivered {
		o, err := uc.GetOrder(ctx, cur.OrderID)
		if err != nil {
			return nil, err
		}
		if customer, err = uc.d.Users.GetActor(ctx, o.CustomerID); err != nil {
			return nil, ports.TimeoutErr(fmt.Errorf("get customer actor: %w", err))
		}
	}

	var (
		out *entity.Delivery
		evs []event.Event
	)
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, cur.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: orden %s", domain.ErrNotFound, cur.OrderID)
		}
		d, err := repos.Deliveries.GetByOrderForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if d == nil || d.ID != deliveryID {
			return fmt.Errorf("%w: entrega %s", domain.ErrNotFound, deliveryID)
		}
		if !entity.CanTransitionDelivery(d.Kind, d.Status, to) {
			return fmt.Errorf("%w: entrega %s %s -> %s", domain.ErrInvalidTransition, d.Kind, d.Status, to)
		}

		if to == entity.DeliveryDelivered {
			// completedState cierra la entrega junto con la orden.
			if _, evs, err = uc.transitionInTx(ctx, repos, o, entity.OrderCompleted, actor, customer); err != nil {
				return err
			}
			out, err = repos.Deliveries.GetByOrder(ctx, o.ID)
			return err
		}

		now := uc.d.Clock().UTC()
		from := d.Status
		d.Status = to
		d.UpdatedAt = now
		if err := repos.Deliveries.Update(ctx, d); err != nil {
			return err
		}
		evs = []event.Event{event.DeliveryStatusChanged{
			DeliveryID: d.ID,
			OrderID:    d.OrderID,
			From:       string(from),
			To:         string(to),
			ActorID:    actor.ID,
			At:         now,
		}}
		out = d
		return nil
	})
	if err != nil {
		err = ports.TimeoutErr(err)
		uc.logFailure(err).
			Str("delivery_id", deliveryID).
			Str("from", string(cur.Status)).
			Str("to", string(to)).
			Msg("avance de entrega rechazado")
		return nil, err
	}

	uc.d.Log.Info().
		Str("delivery_id", out.ID).
		Str("order_id", out.OrderID).
		Str("status", string(out.Status)).
		Str("actor_id", actor.ID).
		Msg("entrega en nuevo estado")
	uc.publish(ctx, evs)
	return out, nil
}

// MarkDelivered entrega la orden y la completa.
func (uc *UseCase) MarkDelivered(ctx context.Context, deliveryID, actorID string) (*entity.Delivery, error) {
	return uc.AdvanceDelivery(ctx, deliveryID, entity.DeliveryDelivered, actorID)
}

// GetDelivery entrega de una orden.
func (uc *UseCase) GetDelivery(ctx context.Context, orderID string) (*entity.Delivery, error) {
	d, err := uc.d.Deliveries.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get delivery: %w", err))
	}
	if d == nil {
		return nil, fmt.Errorf("%w: la orden %s no tiene entrega", domain.ErrNotFound, orderID)
	}
	return d, nil
}

// newDelivery entrega scheduled según la orden: domicilio si tiene dirección, recogida si no.
func newDelivery(o *entity.Order, prices *pricing.Resolver, now time.Time) *entity.Delivery {
	d := &entity.Delivery{
		ID:           newID(),
		OrderID:      o.ID,
		Kind:         entity.DeliveryPickup,
		Status:       entity.DeliveryScheduled,
		ScheduledAt:  now,
		Instructions: o.DeliveryInstructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if o.DeliveryAddress != "" {
		d.Kind = entity.DeliveryHome
		d.Address = o.DeliveryAddress
		d.Fee = prices.DeliveryFee(o)
	} else {
		d.PickupLocationID = o.BranchID
	}
	return d
}

func (uc *UseCase) authorize(ctx context.Context, actorID string, c entity.Capability) (*entity.Actor, error) {
	a, err := uc.d.Users.GetActor(ctx, actorID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if !a.Can(c) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, c)
	}
	return a, nil
}

func scheduledEvent(d *entity.Delivery, at time.Time) event.DeliveryScheduled {
	ev := event.DeliveryScheduled{
		DeliveryID:  d.ID,
		OrderID:     d.OrderID,
		Kind:        string(d.Kind),
		ScheduledAt: d.ScheduledAt,
		At:          at,
	}
	if d.AssignedStaff != nil {
		ev.AssignedStaff = *d.AssignedStaff
	}
	return ev
}
