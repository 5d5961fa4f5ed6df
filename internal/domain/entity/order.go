package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType tipo de orden; inmutable después de crearse.
type OrderType string

const (
	OrderPrescription OrderType = "prescription"
	OrderInStore      OrderType = "in_store"
	OrderOnline       OrderType = "online"
)

// ParseOrderType valida el tipo recibido por la API.
func ParseOrderType(s string) (OrderType, bool) {
	switch t := OrderType(s); t {
	case OrderPrescription, OrderInStore, OrderOnline:
		return t, true
	}
	return "", false
}

// NumberPrefix prefijo del número de orden según el tipo.
func (t OrderType) NumberPrefix() string {
	switch t {
	case OrderPrescription:
		return "PRX"
	case OrderInStore:
		return "INS"
	case OrderOnline:
		return "ONL"
	}
	return "ORD"
}

// OrderStatus estado del ciclo de vida de una orden.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus valida el estado recibido por la API.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return st, true
	}
	return "", false
}

// orderTransitions grafo de estados permitido. completed y cancelled no tienen salida.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderCancelled},
	OrderCompleted:  nil,
	OrderCancelled:  nil,
}

// CanTransitionOrder indica si from -> to es una arista del grafo.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal estado sin transiciones de salida.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order orden de cliente. Status solo cambia a través de la máquina de estados.
type Order struct {
	ID                   string
	Number               string
	Type                 OrderType
	CustomerID           string
	BranchID             string
	Status               OrderStatus
	TotalAmount          decimal.Decimal
	DiscountRate         decimal.Decimal // porcentaje VIP congelado al crear la orden
	CreatedBy            string
	ServedBy             *string
	PrescriptionID       *string
	ValidatedBy          *string
	ValidationDate       *time.Time
	DeliveryAddress      string
	DeliveryInstructions string
	Notes                string
	Reserved             bool // reserva informativa; no afecta el libro mayor
	PharmacistRequired   bool
	Items                []OrderItem
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Subtotal suma de TotalPrice de los ítems.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// OrderItem línea de una orden. TotalPrice == UnitPrice * Quantity.
type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int64
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// NewOrderItem calcula TotalPrice a partir de precio y cantidad.
func NewOrderItem(id, orderID, productID string, quantity int64, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ID:         id,
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(quantity)),
	}
}

// TransitionRecord auditoría de una transición aceptada.
type TransitionRecord struct {
	ID      string
	OrderID string
	From    OrderStatus
	To      OrderStatus
	ActorID string
	At      time.Time
}
