package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryKind modalidad de entrega de una orden.
type DeliveryKind string

const (
	DeliveryPickup DeliveryKind = "pickup" // el cliente recoge en la sucursal
	DeliveryHome   DeliveryKind = "home"   // domicilio
)

// DeliveryStatus estado de una entrega.
type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryReady     DeliveryStatus = "ready"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// ParseDeliveryStatus valida el estado recibido por la API.
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch st := DeliveryStatus(s); st {
	case DeliveryScheduled, DeliveryReady, DeliveryInTransit, DeliveryDelivered, DeliveryFailed:
		return st, true
	}
	return "", false
}

// Cada modalidad tiene su propio grafo. failed vuelve a scheduled al reprogramar;
// delivered no tiene salida.
var deliveryTransitions = map[DeliveryKind]map[DeliveryStatus][]DeliveryStatus{
	DeliveryPickup: {
		DeliveryScheduled: {DeliveryReady, DeliveryFailed},
		DeliveryReady:     {DeliveryDelivered, DeliveryFailed},
		DeliveryFailed:    {DeliveryScheduled},
	},
	DeliveryHome: {
		DeliveryScheduled: {DeliveryInTransit, DeliveryFailed},
		DeliveryInTransit: {DeliveryDelivered, DeliveryFailed},
		DeliveryFailed:    {DeliveryScheduled},
	},
}

// CanTransitionDelivery indica si from -> to es una arista del grafo de la modalidad.
func CanTransitionDelivery(kind DeliveryKind, from, to DeliveryStatus) bool {
	for _, next := range deliveryTransitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen entrega pendiente de resolverse.
func (s DeliveryStatus) IsOpen() bool {
	return s != DeliveryDelivered && s != DeliveryFailed
}

// Delivery entrega asociada a una orden (a lo sumo una por orden).
type Delivery struct {
	ID               string
	OrderID          string
	Kind             DeliveryKind
	Status           DeliveryStatus
	ScheduledAt      time.Time
	Address          string
	Instructions     string
	AssignedStaff    *string
	PickupLocationID string // solo pickup
	CustomerNotified bool   // solo pickup
	Fee              decimal.Decimal
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
