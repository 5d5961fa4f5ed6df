package dto

import (
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// RequestTransferRequest body para POST /api/transfers.
type RequestTransferRequest struct {
	BranchID    string `json:"branch_id"` // vacío = sucursal del token
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	WarehouseID string `json:"warehouse_id,omitempty"` // vacío = bodega con más stock
	Notes       string `json:"notes,omitempty"`
}

// CancelTransferRequest body para POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID                  string     `json:"id"`
	Number              string     `json:"number"`
	SourceWarehouseID   string     `json:"source_warehouse_id"`
	DestinationBranchID string     `json:"destination_branch_id"`
	ProductID           string     `json:"product_id"`
	Quantity            int64      `json:"quantity"`
	Status              string     `json:"status"`
	RequestedBy         string     `json:"requested_by"`
	ApprovedBy          *string    `json:"approved_by,omitempty"`
	ReceivedBy          *string    `json:"received_by,omitempty"`
	CancelledBy         *string    `json:"cancelled_by,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CancelReason        string     `json:"cancel_reason,omitempty"`
	RequestedAt         time.Time  `json:"requested_at"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	DispatchedAt        *time.Time `json:"dispatched_at,omitempty"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
}

func FromTransfer(t *entity.InventoryTransfer) TransferResponse {
	return TransferResponse{
		ID:                  t.ID,
		Number:              t.Number,
		SourceWarehouseID:   t.SourceWarehouseID,
		DestinationBranchID: t.DestinationBranchID,
		ProductID:           t.ProductID,
		Quantity:            t.Quantity,
		Status:              string(t.Status),
		RequestedBy:         t.RequestedBy,
		ApprovedBy:          t.ApprovedBy,
		ReceivedBy:          t.ReceivedBy,
		CancelledBy:         t.CancelledBy,
		Notes:               t.Notes,
		CancelReason:        t.CancelReason,
		RequestedAt:         t.RequestedAt,
		ApprovedAt:          t.ApprovedAt,
		DispatchedAt:        t.DispatchedAt,
		ReceivedAt:          t.ReceivedAt,
		CancelledAt:         t.CancelledAt,
	}
}
