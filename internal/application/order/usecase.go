package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// Deps dependencias de la máquina de estados de órdenes.
type Deps struct {
	Tx            ports.TxRunner
	Orders        repository.OrderRepository   // lecturas fuera de transacción
	Loyalty       repository.LoyaltyRepository // lecturas fuera de transacción
	Users         repository.UserDirectory
	Catalog       repository.ProductCatalog
	Locations     repository.LocationRegistry
	Customers     repository.CustomerRepository
	Prescriptions repository.PrescriptionRepository // lecturas fuera de transacción
	Deliveries    repository.DeliveryRepository     // lecturas fuera de transacción
	Pricing       *pricing.Resolver
	Locker        ports.OrderLocker
	Events        ports.EventPublisher
	Log           *logger.Logger
	Timeout       time.Duration
	Clock         func() time.Time
}

// UseCase creación de órdenes y transiciones de estado con sus efectos.
type UseCase struct {
	d Deps
}

func NewUseCase(d Deps) *UseCase {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &UseCase{d: d}
}

// TransitionOrder mueve la orden a newStatus ejecutando los hooks de salida y entrada
// dentro de una sola transacción. Si algo falla la orden conserva su estado y no se
// escribe ninguna transacción de inventario ni de puntos.
func (uc *UseCase) TransitionOrder(ctx context.Context, orderID string, newStatus entity.OrderStatus, actorID string) (*entity.TransitionRecord, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if _, ok := entity.ParseOrderStatus(string(newStatus)); !ok {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, newStatus)
	}
	actor, err := uc.d.Users.GetActor(ctx, actorID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: usuario %s desconocido", domain.ErrUnauthorized, actorID)
	}

	release, err := uc.d.Locker.Lock(ctx, orderID)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	defer release()

	current, err := uc.d.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get order: %w", err))
	}
	if current == nil {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, orderID)
	}
	// El cliente se resuelve fuera de la transacción; la elegibilidad de puntos es una capacidad.
	customer, err := uc.d.Users.GetActor(ctx, current.CustomerID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get customer actor: %w", err))
	}

	var (
		rec *entity.TransitionRecord
		evs []event.Event
	)
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: orden %s", domain.ErrNotFound, orderID)
		}
		rec, evs, err = uc.transitionInTx(ctx, repos, o, newStatus, actor, customer)
		return err
	})
	if err != nil {
		err = ports.TimeoutErr(err)
		uc.logFailure(err).
			Str("order_id", orderID).
			Str("from", string(current.Status)).
			Str("to", string(newStatus)).
			Msg("transición de orden rechazada")
		return nil, err
	}

	uc.d.Log.Info().
		Str("order_id", orderID).
		Str("from", string(rec.From)).
		Str("to", string(rec.To)).
		Str("actor_id", actor.ID).
		Msg("orden en nuevo estado")

	uc.publish(ctx, evs)
	return rec, nil
}

// transitionInTx valida la arista, corre los hooks y persiste orden y auditoría con repos.
// Devuelve el registro y los eventos a publicar tras el commit.
func (uc *UseCase) transitionInTx(
	ctx context.Context,
	repos repository.TxRepos,
	o *entity.Order,
	newStatus entity.OrderStatus,
	actor, customer *entity.Actor,
) (*entity.TransitionRecord, []event.Event, error) {
	from := o.Status
	if !entity.CanTransitionOrder(from, newStatus) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, newStatus)
	}

	now := uc.d.Clock().UTC()
	tc := &transitionCtx{
		ctx:      ctx,
		repos:    repos,
		order:    o,
		actor:    actor,
		customer: customer,
		pricing:  uc.d.Pricing,
		now:      now,
	}
	if err := stateFor(from).Exit(tc); err != nil {
		return nil, nil, err
	}
	o.Status = newStatus
	if err := stateFor(newStatus).Enter(tc); err != nil {
		return nil, nil, err
	}
	o.UpdatedAt = now
	if err := repos.Orders.Update(ctx, o); err != nil {
		return nil, nil, err
	}
	rec := &entity.TransitionRecord{
		ID:      newID(),
		OrderID: o.ID,
		From:    from,
		To:      newStatus,
		ActorID: actor.ID,
		At:      now,
	}
	if err := repos.Orders.AppendTransition(ctx, rec); err != nil {
		return nil, nil, err
	}
	evs := append([]event.Event{event.OrderStatusChanged{
		OrderID: o.ID,
		From:    string(from),
		To:      string(newStatus),
		ActorID: actor.ID,
		At:      now,
	}}, tc.events...)
	return rec, evs, nil
}

// AssignValidator asigna el farmacéutico que valida una orden con fórmula.
func (uc *UseCase) AssignValidator(ctx context.Context, orderID, pharmacistID string) (*entity.Order, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	pharmacist, err := uc.d.Users.GetActor(ctx, pharmacistID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if !pharmacist.Can(entity.CapValidatePrescription) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, entity.CapValidatePrescription)
	}

	release, err := uc.d.Locker.Lock(ctx, orderID)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	defer release()

	var out *entity.Order
	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: orden %s", domain.ErrNotFound, orderID)
		}
		if o.Type != entity.OrderPrescription {
			return fmt.Errorf("%w: solo las órdenes con fórmula llevan validador", domain.ErrInvalidInput)
		}
		if o.Status.IsTerminal() {
			return fmt.Errorf("%w: la orden está %s", domain.ErrInvalidTransition, o.Status)
		}
		now := uc.d.Clock().UTC()
		o.ValidatedBy = &pharmacist.ID
		o.ValidationDate = &now
		o.PharmacistRequired = false
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	uc.d.Log.Info().Str("order_id", orderID).Str("validated_by", pharmacist.ID).Msg("validador asignado")
	return out, nil
}

// GetOrder orden con sus ítems.
func (uc *UseCase) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := uc.d.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get order: %w", err))
	}
	if o == nil {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, orderID)
	}
	return o, nil
}

// Transitions historial de transiciones de una orden.
func (uc *UseCase) Transitions(ctx context.Context, orderID string) ([]*entity.TransitionRecord, error) {
	if _, err := uc.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	recs, err := uc.d.Orders.ListTransitions(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return recs, nil
}

// LoyaltyAccruals puntos acumulados por un cliente.
func (uc *UseCase) LoyaltyAccruals(ctx context.Context, customerID string) ([]*entity.LoyaltyAccrual, error) {
	list, err := uc.d.Loyalty.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list loyalty: %w", err)
	}
	return list, nil
}

// Quote vuelve a evaluar la política del tipo sobre una orden guardada.
func (uc *UseCase) Quote(ctx context.Context, orderID string) (*pricing.Result, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	o, err := uc.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	strategy, err := uc.d.Pricing.Resolve(o.Type)
	if err != nil {
		return nil, err
	}
	facts, err := uc.loadFacts(ctx, o)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	return strategy.Process(facts)
}

func (uc *UseCase) publish(ctx context.Context, evs []event.Event) {
	if uc.d.Events == nil || len(evs) == 0 {
		return
	}
	if err := ports.PublishAll(ctx, uc.d.Events, evs); err != nil {
		uc.d.Log.Error().Err(err).Msg("publicar eventos de orden")
	}
}

func (uc *UseCase) logFailure(err error) *zerolog.Event {
	if domain.IsBusiness(err) {
		return uc.d.Log.Warn().Err(err)
	}
	return uc.d.Log.Error().Err(err)
}
