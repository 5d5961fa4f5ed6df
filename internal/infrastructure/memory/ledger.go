package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var errReadOnly = errors.New("memory: escritura fuera de transacción")

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	store *Store
	tx    *state
}

func (r *ledgerRepo) Get(_ context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error) {
	var out *entity.LedgerEntry
	r.store.view(r.tx, func(st *state) {
		if e, ok := st.entries[key]; ok {
			out = &e
		}
	})
	return out, nil
}

func (r *ledgerRepo) GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.LedgerEntry, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.traceLock(key)
	return r.Get(ctx, key)
}

func (r *ledgerRepo) Create(_ context.Context, e *entity.LedgerEntry) error {
	if r.tx == nil {
		return errReadOnly
	}
	if _, ok := r.tx.entries[e.Key()]; ok {
		return nil
	}
	r.tx.entries[e.Key()] = *e
	return nil
}

func (r *ledgerRepo) UpdateStock(_ context.Context, e *entity.LedgerEntry) error {
	if r.tx == nil {
		return errReadOnly
	}
	cur, ok := r.tx.entries[e.Key()]
	if !ok {
		return fmt.Errorf("update ledger entry %s: no existe", e.Key())
	}
	cur.CurrentStock = e.CurrentStock
	cur.UpdatedAt = e.UpdatedAt
	r.tx.entries[e.Key()] = cur
	return nil
}

func (r *ledgerRepo) CreateTransaction(ctx context.Context, tx *entity.LedgerTransaction) error {
	if r.tx == nil {
		return errReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.tx.txs = append(r.tx.txs, *tx)
	return nil
}

func (r *ledgerRepo) ListTransactions(_ context.Context, key entity.LedgerKey) ([]*entity.LedgerTransaction, error) {
	var out []*entity.LedgerTransaction
	r.store.view(r.tx, func(st *state) {
		for i := range st.txs {
			if st.txs[i].LocationID == key.LocationID && st.txs[i].ProductID == key.ProductID {
				t := st.txs[i]
				out = append(out, &t)
			}
		}
	})
	return out, nil
}

func (r *ledgerRepo) ListTransactionsPage(_ context.Context, key entity.LedgerKey, limit, offset int) ([]*entity.LedgerTransaction, int, error) {
	var (
		out   []*entity.LedgerTransaction
		total int
	)
	r.store.view(r.tx, func(st *state) {
		for i := range st.txs {
			if st.txs[i].LocationID != key.LocationID || st.txs[i].ProductID != key.ProductID {
				continue
			}
			if total >= offset && len(out) < limit {
				t := st.txs[i]
				out = append(out, &t)
			}
			total++
		}
	})
	return out, total, nil
}

func (r *ledgerRepo) ListTransactionsByReference(_ context.Context, reference string) ([]*entity.LedgerTransaction, error) {
	var out []*entity.LedgerTransaction
	r.store.view(r.tx, func(st *state) {
		for i := range st.txs {
			if st.txs[i].Reference == reference {
				t := st.txs[i]
				out = append(out, &t)
			}
		}
	})
	return out, nil
}

func (r *ledgerRepo) ListLowStock(_ context.Context, locationID string) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	r.store.view(r.tx, func(st *state) {
		for _, e := range st.entries {
			if locationID != "" && e.LocationID != locationID {
				continue
			}
			if e.IsLowStock() {
				e := e
				out = append(out, &e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, nil
}

func (r *ledgerRepo) FindSourceWarehouse(_ context.Context, productID string) (string, error) {
	var (
		best      string
		bestStock int64
	)
	r.store.view(r.tx, func(st *state) {
		for _, e := range st.entries {
			if e.ProductID != productID || e.CurrentStock <= 0 {
				continue
			}
			if !r.store.isWarehouse(e.LocationID) {
				continue
			}
			if e.CurrentStock > bestStock || (e.CurrentStock == bestStock && e.LocationID < best) {
				best, bestStock = e.LocationID, e.CurrentStock
			}
		}
	})
	return best, nil
}
