package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var (
	_ repository.OrderRepository    = (*orderRepo)(nil)
	_ repository.TransferRepository = (*transferRepo)(nil)
	_ repository.LoyaltyRepository  = (*loyaltyRepo)(nil)
)

type orderRepo struct {
	store *Store
	tx    *state
}

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	if r.tx == nil {
		return errReadOnly
	}
	if _, ok := r.tx.orders[o.ID]; ok {
		return fmt.Errorf("create order: %w: id duplicado", domain.ErrConflict)
	}
	for _, other := range r.tx.orders {
		if other.Number == o.Number {
			return fmt.Errorf("create order: %w: número %s duplicado", domain.ErrConflict, o.Number)
		}
	}
	r.tx.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	r.store.view(r.tx, func(st *state) {
		if o, ok := st.orders[id]; ok {
			c := cloneOrder(o)
			out = &c
		}
	})
	return out, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	return r.GetByID(ctx, id)
}

func (r *orderRepo) Update(_ context.Context, o *entity.Order) error {
	if r.tx == nil {
		return errReadOnly
	}
	cur, ok := r.tx.orders[o.ID]
	if !ok {
		return fmt.Errorf("update order %s: %w", o.ID, domain.ErrNotFound)
	}
	upd := cloneOrder(*o)
	upd.Items = cur.Items
	r.tx.orders[o.ID] = upd
	return nil
}

func (r *orderRepo) AppendTransition(ctx context.Context, rec *entity.TransitionRecord) error {
	if r.tx == nil {
		return errReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.tx.transitions = append(r.tx.transitions, *rec)
	return nil
}

func (r *orderRepo) ListTransitions(_ context.Context, orderID string) ([]*entity.TransitionRecord, error) {
	var out []*entity.TransitionRecord
	r.store.view(r.tx, func(st *state) {
		for _, t := range st.transitions {
			if t.OrderID == orderID {
				t := t
				out = append(out, &t)
			}
		}
	})
	return out, nil
}

type transferRepo struct {
	store *Store
	tx    *state
}

func (r *transferRepo) Create(_ context.Context, t *entity.InventoryTransfer) error {
	if r.tx == nil {
		return errReadOnly
	}
	if _, ok := r.tx.transfers[t.ID]; ok {
		return fmt.Errorf("create transfer: %w: id duplicado", domain.ErrConflict)
	}
	r.tx.transfers[t.ID] = *t
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.InventoryTransfer, error) {
	var out *entity.InventoryTransfer
	r.store.view(r.tx, func(st *state) {
		if t, ok := st.transfers[id]; ok {
			out = &t
		}
	})
	return out, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryTransfer, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.InventoryTransfer) error {
	if r.tx == nil {
		return errReadOnly
	}
	if _, ok := r.tx.transfers[t.ID]; !ok {
		return fmt.Errorf("update transfer %s: %w", t.ID, domain.ErrNotFound)
	}
	r.tx.transfers[t.ID] = *t
	return nil
}

type loyaltyRepo struct {
	store *Store
	tx    *state
}

func (r *loyaltyRepo) Create(_ context.Context, a *entity.LoyaltyAccrual) error {
	if r.tx == nil {
		return errReadOnly
	}
	r.tx.loyalty = append(r.tx.loyalty, *a)
	return nil
}

func (r *loyaltyRepo) ListByCustomer(_ context.Context, customerID string) ([]*entity.LoyaltyAccrual, error) {
	var out []*entity.LoyaltyAccrual
	r.store.view(r.tx, func(st *state) {
		for _, a := range st.loyalty {
			if a.CustomerID == customerID {
				a := a
				out = append(out, &a)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.Before(out[j].EarnedAt) })
	return out, nil
}
