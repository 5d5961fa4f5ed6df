package entity

import "time"

// TransferStatus estado de un traslado bodega -> sucursal.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:   {TransferApproved, TransferCancelled},
	TransferApproved:  {TransferInTransit, TransferCompleted, TransferCancelled},
	TransferInTransit: {TransferCompleted},
}

// CanTransitionTransfer solo avanza; completed y cancelled son terminales.
func CanTransitionTransfer(from, to TransferStatus) bool {
	for _, next := range transferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InventoryTransfer solicitud de traslado de un producto desde una bodega a una sucursal.
type InventoryTransfer struct {
	ID                  string
	Number              string
	SourceWarehouseID   string
	DestinationBranchID string
	ProductID           string
	Quantity            int64
	Status              TransferStatus
	RequestedBy         string
	ApprovedBy          *string
	ReceivedBy          *string
	CancelledBy         *string
	Notes               string
	CancelReason        string
	RequestedAt         time.Time
	ApprovedAt          *time.Time
	DispatchedAt        *time.Time
	ReceivedAt          *time.Time
	CancelledAt         *time.Time
}

// SourceKey entrada del libro mayor de la bodega origen.
func (t *InventoryTransfer) SourceKey() LedgerKey {
	return LedgerKey{LocationID: t.SourceWarehouseID, ProductID: t.ProductID}
}

// DestinationKey entrada del libro mayor de la sucursal destino.
func (t *InventoryTransfer) DestinationKey() LedgerKey {
	return LedgerKey{LocationID: t.DestinationBranchID, ProductID: t.ProductID}
}
