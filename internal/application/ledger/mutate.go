package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// MutationInput una mutación de stock sobre una entrada (ubicación, producto).
type MutationInput struct {
	LocationID  string
	ProductID   string
	Delta       int64
	Type        entity.TransactionType
	PerformedBy string
	Reference   string
	Notes       string
}

// Mutation resultado de MutateInTx.
type Mutation struct {
	Entry       *entity.LedgerEntry
	Transaction *entity.LedgerTransaction
	// LowStockCrossed la entrada pasó de estar sobre el punto de reorden a estar en él o debajo.
	LowStockCrossed bool
}

// MutateInTx aplica una mutación usando el repositorio de la transacción del caller.
// Bloquea la fila (GetForUpdate), valida que el stock no quede negativo, actualiza la
// entrada y escribe exactamente un LedgerTransaction. Si falla, el caller debe abortar
// la transacción completa.
func MutateInTx(ctx context.Context, repo repository.LedgerRepository, in MutationInput, now time.Time) (*Mutation, error) {
	if in.LocationID == "" || in.ProductID == "" {
		return nil, fmt.Errorf("%w: ubicación y producto son obligatorios", domain.ErrInvalidInput)
	}
	if !in.Type.AcceptsDelta(in.Delta) {
		return nil, fmt.Errorf("%w: cantidad %d no es válida para %s", domain.ErrInvalidInput, in.Delta, in.Type)
	}
	key := entity.LedgerKey{LocationID: in.LocationID, ProductID: in.ProductID}

	entry, err := repo.GetForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// Un registro inexistente nunca se omite en silencio al consumir.
		if in.Delta < 0 {
			return nil, fmt.Errorf("%w: no hay registro de inventario para %s", domain.ErrInsufficientStock, key)
		}
		if err := repo.Create(ctx, &entity.LedgerEntry{
			ID:           uuid.New().String(),
			LocationID:   in.LocationID,
			ProductID:    in.ProductID,
			MinimumStock: entity.DefaultMinimumStock,
			ReorderPoint: entity.DefaultReorderPoint,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return nil, err
		}
		// Releer bloqueando: otra transacción pudo crear la misma entrada primero.
		if entry, err = repo.GetForUpdate(ctx, key); err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("create ledger entry %s: fila no visible tras insertar", key)
		}
	}

	prev := entry.CurrentStock
	next := prev + in.Delta
	if next < 0 {
		return nil, fmt.Errorf("%w: %s tiene %d, se requieren %d", domain.ErrInsufficientStock, key, prev, -in.Delta)
	}
	wasLow := entry.IsLowStock()

	entry.CurrentStock = next
	entry.UpdatedAt = now
	if err := repo.UpdateStock(ctx, entry); err != nil {
		return nil, err
	}
	tx := &entity.LedgerTransaction{
		ID:            uuid.New().String(),
		EntryID:       entry.ID,
		LocationID:    in.LocationID,
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      in.Delta,
		PreviousStock: prev,
		NewStock:      next,
		PerformedBy:   in.PerformedBy,
		Reference:     in.Reference,
		Notes:         in.Notes,
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return &Mutation{Entry: entry, Transaction: tx, LowStockCrossed: !wasLow && entry.IsLowStock()}, nil
}

// LockEntries bloquea varias entradas en orden ascendente (LocationID, ProductID).
// Toda operación que toque más de una entrada debe llamarlo antes de mutar.
// Las entradas inexistentes no aparecen en el mapa.
func LockEntries(ctx context.Context, repo repository.LedgerRepository, keys ...entity.LedgerKey) (map[entity.LedgerKey]*entity.LedgerEntry, error) {
	sorted := SortKeys(keys)
	locked := make(map[entity.LedgerKey]*entity.LedgerEntry, len(sorted))
	for _, k := range sorted {
		e, err := repo.GetForUpdate(ctx, k)
		if err != nil {
			return nil, err
		}
		if e != nil {
			locked[k] = e
		}
	}
	return locked, nil
}

// SortKeys copia ordenada y sin duplicados.
func SortKeys(keys []entity.LedgerKey) []entity.LedgerKey {
	seen := make(map[entity.LedgerKey]struct{}, len(keys))
	out := make([]entity.LedgerKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
