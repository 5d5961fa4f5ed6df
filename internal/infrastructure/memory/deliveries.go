package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var (
	_ repository.PrescriptionRepository = (*prescriptionRepo)(nil)
	_ repository.DeliveryRepository     = (*deliveryRepo)(nil)
)

type prescriptionRepo struct {
	store *Store
	tx    *state
}

func (r *prescriptionRepo) GetByID(_ context.Context, id string) (*entity.Prescription, error) {
	var out *entity.Prescription
	r.store.view(r.tx, func(st *state) {
		if rx, ok := st.rx[id]; ok {
			out = &rx
		}
	})
	return out, nil
}

func (r *prescriptionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Prescription, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	return r.GetByID(ctx, id)
}

func (r *prescriptionRepo) MarkDispensed(_ context.Context, id string, at time.Time) error {
	if r.tx == nil {
		return errReadOnly
	}
	rx, ok := r.tx.rx[id]
	if !ok {
		return fmt.Errorf("dispense prescription %s: %w", id, domain.ErrNotFound)
	}
	if rx.Status != entity.PrescriptionValidated {
		return fmt.Errorf("dispense prescription %s: %w: estado %s", id, domain.ErrConflict, rx.Status)
	}
	rx.Status = entity.PrescriptionDispensed
	rx.DispensedAt = &at
	r.tx.rx[id] = rx
	return nil
}

type deliveryRepo struct {
	store *Store
	tx    *state
}

func (r *deliveryRepo) Create(_ context.Context, d *entity.Delivery) error {
	if r.tx == nil {
		return errReadOnly
	}
	for _, other := range r.tx.deliveries {
		if other.ID == d.ID || other.OrderID == d.OrderID {
			return fmt.Errorf("create delivery: %w: la orden %s ya tiene entrega", domain.ErrConflict, d.OrderID)
		}
	}
	r.tx.deliveries[d.ID] = *d
	return nil
}

func (r *deliveryRepo) GetByID(_ context.Context, id string) (*entity.Delivery, error) {
	var out *entity.Delivery
	r.store.view(r.tx, func(st *state) {
		if d, ok := st.deliveries[id]; ok {
			out = &d
		}
	})
	return out, nil
}

func (r *deliveryRepo) GetByOrder(_ context.Context, orderID string) (*entity.Delivery, error) {
	var out *entity.Delivery
	r.store.view(r.tx, func(st *state) {
		for _, d := range st.deliveries {
			if d.OrderID == orderID {
				d := d
				out = &d
				return
			}
		}
	})
	return out, nil
}

func (r *deliveryRepo) GetByOrderForUpdate(ctx context.Context, orderID string) (*entity.Delivery, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	return r.GetByOrder(ctx, orderID)
}

func (r *deliveryRepo) Update(_ context.Context, d *entity.Delivery) error {
	if r.tx == nil {
		return errReadOnly
	}
	if _, ok := r.tx.deliveries[d.ID]; !ok {
		return fmt.Errorf("update delivery %s: %w", d.ID, domain.ErrNotFound)
	}
	r.tx.deliveries[d.ID] = *d
	return nil
}
