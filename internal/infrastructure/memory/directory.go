package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var (
	_ repository.UserDirectory      = directory{}
	_ repository.ProductCatalog     = catalog{}
	_ repository.LocationRegistry   = locations{}
	_ repository.CustomerRepository = customers{}
)

// Colaboradores de solo lectura; devuelven (nil, nil) si el id no existe.

type directory struct{ s *Store }

func (s *Store) Directory() repository.UserDirectory { return directory{s} }

func (d directory) GetActor(_ context.Context, id string) (*entity.Actor, error) {
	d.s.refMu.RLock()
	defer d.s.refMu.RUnlock()
	a, ok := d.s.actors[id]
	if !ok {
		return nil, nil
	}
	a.Capabilities = append([]entity.Capability(nil), a.Capabilities...)
	return &a, nil
}

type catalog struct{ s *Store }

func (s *Store) Catalog() repository.ProductCatalog { return catalog{s} }

func (c catalog) GetByID(_ context.Context, id string) (*entity.Product, error) {
	c.s.refMu.RLock()
	defer c.s.refMu.RUnlock()
	if p, ok := c.s.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

type locations struct{ s *Store }

func (s *Store) Locations() repository.LocationRegistry { return locations{s} }

func (l locations) GetByID(_ context.Context, id string) (*entity.StockLocation, error) {
	l.s.refMu.RLock()
	defer l.s.refMu.RUnlock()
	if loc, ok := l.s.locations[id]; ok {
		return &loc, nil
	}
	return nil, nil
}

func (s *Store) isWarehouse(id string) bool {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	loc, ok := s.locations[id]
	return ok && loc.IsWarehouse()
}

type customers struct{ s *Store }

func (s *Store) Customers() repository.CustomerRepository { return customers{s} }

func (c customers) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c.s.refMu.RLock()
	defer c.s.refMu.RUnlock()
	if cu, ok := c.s.customers[id]; ok {
		return &cu, nil
	}
	return nil, nil
}

// ── Datos de arranque ─────────────────────────────────────────────────────────

func (s *Store) SeedActor(a entity.Actor) {
	s.refMu.Lock()
	s.actors[a.ID] = a
	s.refMu.Unlock()
}

func (s *Store) SeedProduct(p entity.Product) {
	s.refMu.Lock()
	s.products[p.ID] = p
	s.refMu.Unlock()
}

func (s *Store) SeedLocation(l entity.StockLocation) {
	s.refMu.Lock()
	s.locations[l.ID] = l
	s.refMu.Unlock()
}

func (s *Store) SeedCustomer(c entity.Customer) {
	s.refMu.Lock()
	s.customers[c.ID] = c
	s.refMu.Unlock()
}

// SeedPrescription registra la fórmula en el estado confirmado: dispensarla es transaccional.
func (s *Store) SeedPrescription(p entity.Prescription) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	s.dataMu.Lock()
	s.state.rx[p.ID] = p
	s.dataMu.Unlock()
}

// SeedStock suma qty a la entrada (creándola si falta) y registra la transacción
// correspondiente para que el log siga siendo reproducible.
// reorderPoint < 0 usa el valor por defecto.
func (s *Store) SeedStock(key entity.LedgerKey, qty, reorderPoint int64) {
	if reorderPoint < 0 {
		reorderPoint = entity.DefaultReorderPoint
	}
	now := time.Now().UTC()

	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	e, ok := s.state.entries[key]
	if !ok {
		e = entity.LedgerEntry{
			ID:           uuid.New().String(),
			LocationID:   key.LocationID,
			ProductID:    key.ProductID,
			MinimumStock: entity.DefaultMinimumStock,
			CreatedAt:    now,
		}
	}
	e.ReorderPoint = reorderPoint
	e.UpdatedAt = now
	prev := e.CurrentStock
	e.CurrentStock += qty
	s.state.entries[key] = e
	if qty != 0 {
		typ := entity.TxStockIn
		if qty < 0 {
			typ = entity.TxAdjustment
		}
		s.state.txs = append(s.state.txs, entity.LedgerTransaction{
			ID:            uuid.New().String(),
			EntryID:       e.ID,
			LocationID:    key.LocationID,
			ProductID:     key.ProductID,
			Type:          typ,
			Quantity:      qty,
			PreviousStock: prev,
			NewStock:      e.CurrentStock,
			PerformedBy:   "seed",
			Notes:         "carga inicial",
			CreatedAt:     now,
		})
	}
}
