package entity

import "time"

// Valores por defecto al crear una entrada de libro mayor.
const (
	DefaultMinimumStock int64 = 10
	DefaultReorderPoint int64 = 20
)

// TransactionType tipo de movimiento registrado en el libro mayor.
type TransactionType string

const (
	TxStockIn     TransactionType = "stock_in"
	TxStockOut    TransactionType = "stock_out"
	TxAdjustment  TransactionType = "adjustment"
	TxExpired     TransactionType = "expired"
	TxTransferIn  TransactionType = "transfer_in"
	TxTransferOut TransactionType = "transfer_out"
)

// ParseTransactionType valida el texto recibido desde fuera del dominio.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(s); t {
	case TxStockIn, TxStockOut, TxAdjustment, TxExpired, TxTransferIn, TxTransferOut:
		return t, true
	}
	return "", false
}

// AcceptsDelta indica si el signo de delta es coherente con el tipo.
func (t TransactionType) AcceptsDelta(delta int64) bool {
	if delta == 0 {
		return false
	}
	switch t {
	case TxStockIn, TxTransferIn:
		return delta > 0
	case TxStockOut, TxExpired, TxTransferOut:
		return delta < 0
	case TxAdjustment:
		return true
	}
	return false
}

// LedgerKey identifica una entrada por (ubicación, producto).
type LedgerKey struct {
	LocationID string
	ProductID  string
}

// Less define el orden total de adquisición de bloqueos.
func (k LedgerKey) Less(o LedgerKey) bool {
	if k.LocationID != o.LocationID {
		return k.LocationID < o.LocationID
	}
	return k.ProductID < o.ProductID
}

func (k LedgerKey) String() string { return k.LocationID + "/" + k.ProductID }

// LedgerEntry stock actual de un producto en una ubicación (sucursal o bodega).
// CurrentStock nunca es negativo y solo cambia junto con un LedgerTransaction.
type LedgerEntry struct {
	ID           string
	LocationID   string
	ProductID    string
	CurrentStock int64
	MinimumStock int64
	ReorderPoint int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (e *LedgerEntry) Key() LedgerKey {
	return LedgerKey{LocationID: e.LocationID, ProductID: e.ProductID}
}

// IsLowStock stock en o por debajo del punto de reorden.
func (e *LedgerEntry) IsLowStock() bool {
	return e.CurrentStock <= e.ReorderPoint
}

// LedgerTransaction registro inmutable de una mutación de stock.
// NewStock == PreviousStock + Quantity.
type LedgerTransaction struct {
	ID            string
	EntryID       string
	LocationID    string
	ProductID     string
	Type          TransactionType
	Quantity      int64 // con signo
	PreviousStock int64
	NewStock      int64
	PerformedBy   string
	Reference     string // número de orden o de traslado
	Notes         string
	CreatedAt     time.Time
}
