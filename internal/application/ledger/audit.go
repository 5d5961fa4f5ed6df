package ledger

import (
	"fmt"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// AuditReport comparación entre el stock reconstruido desde el log y el stock actual.
type AuditReport struct {
	Key          entity.LedgerKey
	Transactions int
	Replayed     int64
	Current      int64
	Consistent   bool
	Problem      string
}

// Replay reconstruye el stock desde cero recorriendo las transacciones en orden de commit.
// La cadena debe cumplir prev_i == new_{i-1}, new_i == prev_i + qty_i y nunca ser negativa.
func Replay(txs []*entity.LedgerTransaction) (int64, error) {
	var stock int64
	for i, tx := range txs {
		if tx.PreviousStock != stock {
			return stock, fmt.Errorf("transacción %d (%s): previous_stock %d, se esperaba %d", i, tx.ID, tx.PreviousStock, stock)
		}
		if tx.NewStock != tx.PreviousStock+tx.Quantity {
			return stock, fmt.Errorf("transacción %d (%s): new_stock %d != %d%+d", i, tx.ID, tx.NewStock, tx.PreviousStock, tx.Quantity)
		}
		if tx.NewStock < 0 {
			return stock, fmt.Errorf("transacción %d (%s): stock negativo %d", i, tx.ID, tx.NewStock)
		}
		stock = tx.NewStock
	}
	return stock, nil
}

func buildReport(key entity.LedgerKey, entry *entity.LedgerEntry, txs []*entity.LedgerTransaction) *AuditReport {
	rep := &AuditReport{Key: key, Transactions: len(txs)}
	if entry != nil {
		rep.Current = entry.CurrentStock
	}
	replayed, err := Replay(txs)
	rep.Replayed = replayed
	switch {
	case err != nil:
		rep.Problem = err.Error()
	case replayed != rep.Current:
		rep.Problem = fmt.Sprintf("stock reconstruido %d difiere del actual %d", replayed, rep.Current)
	default:
		rep.Consistent = true
	}
	return rep
}
