package order

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// transitionCtx estado compartido por los hooks de una transición.
// Los eventos se acumulan aquí y se publican solo si la transacción confirma.
type transitionCtx struct {
	ctx      context.Context
	repos    repository.TxRepos
	order    *entity.Order
	actor    *entity.Actor
	customer *entity.Actor // nil si el cliente no está en el directorio
	pricing  *pricing.Resolver
	now      time.Time
	events   []event.Event
}

// orderState hooks de un estado. Exit corre antes de cambiar Status, Enter después.
type orderState interface {
	Enter(tc *transitionCtx) error
	Exit(tc *transitionCtx) error
}

var states = map[entity.OrderStatus]orderState{
	entity.OrderPending:    pendingState{},
	entity.OrderProcessing: processingState{},
	entity.OrderCompleted:  completedState{},
	entity.OrderCancelled:  cancelledState{},
}

func stateFor(s entity.OrderStatus) orderState {
	if st, ok := states[s]; ok {
		return st
	}
	return pendingState{}
}

type pendingState struct{}

func (pendingState) Enter(*transitionCtx) error { return nil }
func (pendingState) Exit(*transitionCtx) error  { return nil }

// processingState reserva informativa: no toca el libro mayor.
type processingState struct{}

func (processingState) Enter(tc *transitionCtx) error {
	tc.order.Reserved = true
	if tc.order.Type == entity.OrderPrescription && tc.order.ValidatedBy == nil {
		tc.order.PharmacistRequired = true
	}
	if tc.order.DeliveryAddress == "" {
		return nil
	}
	return openHomeDelivery(tc)
}

func (processingState) Exit(tc *transitionCtx) error {
	tc.order.Reserved = false
	return nil
}

// completedState descuenta el stock de la sucursal, dispensa la fórmula, acumula puntos
// y cierra la entrega abierta; todo o nada.
type completedState struct{}

func (completedState) Enter(tc *transitionCtx) error {
	o := tc.order
	if o.Type == entity.OrderPrescription && o.ValidatedBy == nil {
		return domain.Validation("la orden con fórmula requiere la validación de un farmacéutico")
	}
	expected, err := tc.pricing.CalculateTotal(o)
	if err != nil {
		return err
	}
	if !expected.Equal(o.TotalAmount) {
		return fmt.Errorf("%w: total guardado %s difiere del calculado %s", domain.ErrConflict, o.TotalAmount, expected)
	}
	if err := dispensePrescription(tc); err != nil {
		return err
	}

	items := append([]entity.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	keys := make([]entity.LedgerKey, len(items))
	for i, it := range items {
		keys[i] = entity.LedgerKey{LocationID: o.BranchID, ProductID: it.ProductID}
	}
	if _, err := ledger.LockEntries(tc.ctx, tc.repos.Ledger, keys...); err != nil {
		return err
	}

	muts := make([]*ledger.Mutation, 0, len(items))
	for _, it := range items {
		m, err := ledger.MutateInTx(tc.ctx, tc.repos.Ledger, ledger.MutationInput{
			LocationID:  o.BranchID,
			ProductID:   it.ProductID,
			Delta:       -it.Quantity,
			Type:        entity.TxStockOut,
			PerformedBy: tc.actor.ID,
			Reference:   o.Number,
			Notes:       "order completion",
		}, tc.now)
		if err != nil {
			return err
		}
		muts = append(muts, m)
	}

	var points int64
	if tc.customer.Can(entity.CapEarnLoyalty) {
		points = entity.LoyaltyPointsFor(o.TotalAmount)
	}
	if points > 0 {
		if err := tc.repos.Loyalty.Create(tc.ctx, &entity.LoyaltyAccrual{
			ID:         newID(),
			CustomerID: o.CustomerID,
			Points:     points,
			EarnedAt:   tc.now,
			ExpiresAt:  entity.LoyaltyExpiry(tc.now),
			Reference:  o.Number,
		}); err != nil {
			return err
		}
	}

	if err := closeDelivery(tc, entity.DeliveryDelivered); err != nil {
		return err
	}

	tc.events = append(tc.events, event.OrderCompleted{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		CustomerID:    o.CustomerID,
		BranchID:      o.BranchID,
		Total:         o.TotalAmount,
		LoyaltyPoints: points,
		At:            tc.now,
	})
	tc.events = append(tc.events, ledger.LowStockEvents(muts...)...)
	return nil
}

func (completedState) Exit(*transitionCtx) error { return nil }

// cancelledState libera la reserva; nunca hubo efecto en el libro mayor.
type cancelledState struct{}

func (cancelledState) Enter(tc *transitionCtx) error {
	tc.order.Reserved = false
	if err := closeDelivery(tc, entity.DeliveryFailed); err != nil {
		return err
	}
	tc.events = append(tc.events, event.OrderCancelled{
		OrderID:     tc.order.ID,
		OrderNumber: tc.order.Number,
		ActorID:     tc.actor.ID,
		At:          tc.now,
	})
	return nil
}

func (cancelledState) Exit(*transitionCtx) error { return nil }

// dispensePrescription una fórmula se dispensa una sola vez: la segunda orden que
// la use no puede completarse.
func dispensePrescription(tc *transitionCtx) error {
	if tc.order.PrescriptionID == nil {
		return nil
	}
	id := *tc.order.PrescriptionID
	rx, err := tc.repos.Prescriptions.GetForUpdate(tc.ctx, id)
	if err != nil {
		return err
	}
	if rx == nil {
		return fmt.Errorf("%w: fórmula %s", domain.ErrNotFound, id)
	}
	if !rx.CanDispense(tc.now) {
		return domain.Validation(fmt.Sprintf("la fórmula %s no se puede dispensar (estado %s)", rx.Number, rx.Status))
	}
	return tc.repos.Prescriptions.MarkDispensed(tc.ctx, rx.ID, tc.now)
}

// openHomeDelivery agenda el domicilio de una orden con dirección al pasar a processing.
func openHomeDelivery(tc *transitionCtx) error {
	o := tc.order
	d, err := tc.repos.Deliveries.GetByOrderForUpdate(tc.ctx, o.ID)
	if err != nil {
		return err
	}
	if d != nil {
		return nil
	}
	d = newDelivery(o, tc.pricing, tc.now)
	if err := tc.repos.Deliveries.Create(tc.ctx, d); err != nil {
		return err
	}
	tc.events = append(tc.events, scheduledEvent(d, tc.now))
	return nil
}

// closeDelivery cierra la entrega abierta de la orden, si la hay. Completar o cancelar
// la orden manda sobre el grafo de la entrega.
func closeDelivery(tc *transitionCtx, to entity.DeliveryStatus) error {
	d, err := tc.repos.Deliveries.GetByOrderForUpdate(tc.ctx, tc.order.ID)
	if err != nil {
		return err
	}
	if d == nil || !d.Status.IsOpen() {
		return nil
	}
	from := d.Status
	d.Status = to
	d.UpdatedAt = tc.now
	if to == entity.DeliveryDelivered {
		now := tc.now
		d.DeliveredAt = &now
	}
	if err := tc.repos.Deliveries.Update(tc.ctx, d); err != nil {
		return err
	}
	tc.events = append(tc.events, event.DeliveryStatusChanged{
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		From:       string(from),
		To:         string(to),
		ActorID:    tc.actor.ID,
		At:         tc.now,
	})
	return nil
}
