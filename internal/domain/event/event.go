package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event evento de dominio emitido después del commit.
type Event interface {
	EventName() string
}

// Nombres publicados como atributo "event" en el notificador.
const (
	NameOrderCreated       = "order.created"
	NameOrderStatusChanged = "order.status_changed"
	NameOrderCompleted     = "order.completed"
	NameOrderCancelled     = "order.cancelled"
	NameTransferApproved   = "transfer.approved"
	NameTransferCompleted  = "transfer.completed"
	NameLowStockReached    = "ledger.low_stock"
	NameDeliveryScheduled  = "delivery.scheduled"
	NameDeliveryChanged    = "delivery.status_changed"
)

type OrderCreated struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   string          `json:"order_type"`
	CustomerID  string          `json:"customer_id"`
	BranchID    string          `json:"branch_id"`
	Total       decimal.Decimal `json:"total"`
	At          time.Time       `json:"at"`
}

func (OrderCreated) EventName() string { return NameOrderCreated }

type OrderStatusChanged struct {
	OrderID string    `json:"order_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

func (OrderStatusChanged) EventName() string { return NameOrderStatusChanged }

type OrderCompleted struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    string          `json:"customer_id"`
	BranchID      string          `json:"branch_id"`
	Total         decimal.Decimal `json:"total"`
	LoyaltyPoints int64           `json:"loyalty_points"`
	At            time.Time       `json:"at"`
}

func (OrderCompleted) EventName() string { return NameOrderCompleted }

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ActorID     string    `json:"actor_id"`
	At          time.Time `json:"at"`
}

func (OrderCancelled) EventName() string { return NameOrderCancelled }

type TransferApproved struct {
	TransferID     string    `json:"transfer_id"`
	TransferNumber string    `json:"transfer_number"`
	ApprovedBy     string    `json:"approved_by"`
	At             time.Time `json:"at"`
}

func (TransferApproved) EventName() string { return NameTransferApproved }

type TransferCompleted struct {
	TransferID          string    `json:"transfer_id"`
	TransferNumber      string    `json:"transfer_number"`
	SourceWarehouseID   string    `json:"source_warehouse_id"`
	DestinationBranchID string    `json:"destination_branch_id"`
	ProductID           string    `json:"product_id"`
	Quantity            int64     `json:"quantity"`
	At                  time.Time `json:"at"`
}

func (TransferCompleted) EventName() string { return NameTransferCompleted }

// LowStockReached la entrada cruzó de arriba hacia el punto de reorden o por debajo.
type LowStockReached struct {
	LocationID   string    `json:"location_id"`
	ProductID    string    `json:"product_id"`
	CurrentStock int64     `json:"current_stock"`
	ReorderPoint int64     `json:"reorder_point"`
	At           time.Time `json:"at"`
}

func (LowStockReached) EventName() string { return NameLowStockReached }

type DeliveryScheduled struct {
	DeliveryID    string    `json:"delivery_id"`
	OrderID       string    `json:"order_id"`
	Kind          string    `json:"kind"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	AssignedStaff string    `json:"assigned_staff,omitempty"`
	At            time.Time `json:"at"`
}

func (DeliveryScheduled) EventName() string { return NameDeliveryScheduled }

type DeliveryStatusChanged struct {
	DeliveryID string    `json:"delivery_id"`
	OrderID    string    `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	At         time.Time `json:"at"`
}

func (DeliveryStatusChanged) EventName() string { return NameDeliveryChanged }
