package dto

import (
	"time"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// MutateStockRequest body para POST /api/inventory/mutations.
// Quantity lleva signo: stock_in/transfer_in positivo, stock_out/expired/transfer_out negativo.
type MutateStockRequest struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	Type       string `json:"type"`
	Quantity   int64  `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// LedgerEntryResponse saldo de un producto en una ubicación.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"location_id"`
	ProductID    string    `json:"product_id"`
	CurrentStock int64     `json:"current_stock"`
	MinimumStock int64     `json:"minimum_stock"`
	ReorderPoint int64     `json:"reorder_point"`
	LowStock     bool      `json:"low_stock"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LedgerTransactionResponse un movimiento del libro mayor.
type LedgerTransactionResponse struct {
	ID            string    `json:"id"`
	LocationID    string    `json:"location_id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	PerformedBy   string    `json:"performed_by"`
	Reference     string    `json:"reference,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionListResponse historial paginado de una entrada.
type TransactionListResponse struct {
	Items []LedgerTransactionResponse `json:"items"`
	Page  PageResponse                `json:"page"`
}

// AuditResponse resultado de reproducir el historial de una entrada.
type AuditResponse struct {
	LocationID   string `json:"location_id"`
	ProductID    string `json:"product_id"`
	Transactions int    `json:"transactions"`
	Replayed     int64  `json:"replayed"`
	Current      int64  `json:"current"`
	Consistent   bool   `json:"consistent"`
	Problem      string `json:"problem,omitempty"`
}

func FromLedgerEntry(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		LocationID:   e.LocationID,
		ProductID:    e.ProductID,
		CurrentStock: e.CurrentStock,
		MinimumStock: e.MinimumStock,
		ReorderPoint: e.ReorderPoint,
		LowStock:     e.IsLowStock(),
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromLedgerTransaction(tx *entity.LedgerTransaction) LedgerTransactionResponse {
	return LedgerTransactionResponse{
		ID:            tx.ID,
		LocationID:    tx.LocationID,
		ProductID:     tx.ProductID,
		Type:          string(tx.Type),
		Quantity:      tx.Quantity,
		PreviousStock: tx.PreviousStock,
		NewStock:      tx.NewStock,
		PerformedBy:   tx.PerformedBy,
		Reference:     tx.Reference,
		Notes:         tx.Notes,
		CreatedAt:     tx.CreatedAt,
	}
}

func FromAudit(r *ledger.AuditReport) AuditResponse {
	return AuditResponse{
		LocationID:   r.Key.LocationID,
		ProductID:    r.Key.ProductID,
		Transactions: r.Transactions,
		Replayed:     r.Replayed,
		Current:      r.Current,
		Consistent:   r.Consistent,
		Problem:      r.Problem,
	}
}
