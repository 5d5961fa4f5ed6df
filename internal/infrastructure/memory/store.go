// Package memory implementa los puertos de persistencia en memoria.
// Se usa en pruebas y con APP_STORE=memory para levantar la API sin PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

type state struct {
	entries     map[entity.LedgerKey]entity.LedgerEntry
	txs         []entity.LedgerTransaction // orden de commit
	orders      map[string]entity.Order
	transitions []entity.TransitionRecord
	transfers   map[string]entity.InventoryTransfer
	loyalty     []entity.LoyaltyAccrual
	rx          map[string]entity.Prescription
	deliveries  map[string]entity.Delivery
}

func newState() *state {
	return &state{
		entries:    map[entity.LedgerKey]entity.LedgerEntry{},
		orders:     map[string]entity.Order{},
		transfers:  map[string]entity.InventoryTransfer{},
		rx:         map[string]entity.Prescription{},
		deliveries: map[string]entity.Delivery{},
	}
}

func (s *state) clone() *state {
	c := &state{
		entries:     make(map[entity.LedgerKey]entity.LedgerEntry, len(s.entries)),
		txs:         append([]entity.LedgerTransaction(nil), s.txs...),
		orders:      make(map[string]entity.Order, len(s.orders)),
		transitions: append([]entity.TransitionRecord(nil), s.transitions...),
		transfers:   make(map[string]entity.InventoryTransfer, len(s.transfers)),
		loyalty:     append([]entity.LoyaltyAccrual(nil), s.loyalty...),
		rx:          make(map[string]entity.Prescription, len(s.rx)),
		deliveries:  make(map[string]entity.Delivery, len(s.deliveries)),
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	for k, v := range s.rx {
		c.rx[k] = v
	}
	for k, v := range s.deliveries {
		c.deliveries[k] = v
	}
	return c
}

// Store estado transaccional en memoria. Las unidades de trabajo se serializan
// (equivale a bloquear todas las filas) y trabajan sobre una copia que se publica
// solo en commit; un error o un contexto vencido descartan la copia.
type Store struct {
	sem    chan struct{} // una transacción a la vez
	dataMu sync.RWMutex
	state  *state

	refMu     sync.RWMutex
	actors    map[string]entity.Actor
	products  map[string]entity.Product
	locations map[string]entity.StockLocation
	customers map[string]entity.Customer

	traceMu      sync.Mutex
	lockTrace    []entity.LedgerKey
	beforeCommit func()
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		state:     newState(),
		actors:    map[string]entity.Actor{},
		products:  map[string]entity.Product{},
		locations: map[string]entity.StockLocation{},
		customers: map[string]entity.Customer{},
	}
}

// Run ejecuta fn con repositorios atados a una copia privada del estado.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return ports.TimeoutErr(err)
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ports.TimeoutErr(ctx.Err())
	}
	defer func() { <-s.sem }()

	s.dataMu.RLock()
	work := s.state.clone()
	s.dataMu.RUnlock()

	if err := fn(s.reposFor(work)); err != nil {
		return ports.TimeoutErr(err)
	}
	if hook := s.hook(); hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return ports.TimeoutErr(err)
	}

	s.dataMu.Lock()
	s.state = work
	s.dataMu.Unlock()
	return nil
}

// Repos repositorios de lectura sobre el estado confirmado. Escribir con ellos falla:
// toda escritura pasa por Run.
func (s *Store) Repos() repository.TxRepos {
	return s.reposFor(nil)
}

func (s *Store) reposFor(work *state) repository.TxRepos {
	return repository.TxRepos{
		Ledger:        &ledgerRepo{store: s, tx: work},
		Orders:        &orderRepo{store: s, tx: work},
		Transfers:     &transferRepo{store: s, tx: work},
		Loyalty:       &loyaltyRepo{store: s, tx: work},
		Prescriptions: &prescriptionRepo{store: s, tx: work},
		Deliveries:    &deliveryRepo{store: s, tx: work},
	}
}

// view ejecuta fn sobre la copia de la transacción o, si no hay, sobre el estado confirmado.
func (s *Store) view(work *state, fn func(st *state)) {
	if work != nil {
		fn(work)
		return
	}
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	fn(s.state)
}

// SetBeforeCommit instala una función que corre justo antes de confirmar (pruebas).
func (s *Store) SetBeforeCommit(fn func()) {
	s.traceMu.Lock()
	s.beforeCommit = fn
	s.traceMu.Unlock()
}

func (s *Store) hook() func() {
	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	return s.beforeCommit
}

// LockTrace claves bloqueadas con GetForUpdate, en orden de adquisición.
func (s *Store) LockTrace() []entity.LedgerKey {
	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	return append([]entity.LedgerKey(nil), s.lockTrace...)
}

func (s *Store) ResetLockTrace() {
	s.traceMu.Lock()
	s.lockTrace = nil
	s.traceMu.Unlock()
}

func (s *Store) traceLock(k entity.LedgerKey) {
	s.traceMu.Lock()
	s.lockTrace = append(s.lockTrace, k)
	s.traceMu.Unlock()
}

func cloneOrder(o entity.Order) entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	return o
}
