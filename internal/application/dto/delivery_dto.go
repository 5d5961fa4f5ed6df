package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// ScheduleDeliveryRequest body para POST /api/orders/:id/delivery.
type ScheduleDeliveryRequest struct {
	ScheduledAt  time.Time `json:"scheduled_at"`
	StaffID      string    `json:"assigned_staff,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
}

// DeliveryStatusRequest body para POST /api/deliveries/:id/status.
type DeliveryStatusRequest struct {
	Status string `json:"status"`
}

type DeliveryResponse struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	Kind             string          `json:"kind"`
	Status           string          `json:"status"`
	ScheduledAt      time.Time       `json:"scheduled_at"`
	Address          string          `json:"address,omitempty"`
	Instructions     string          `json:"instructions,omitempty"`
	AssignedStaff    *string         `json:"assigned_staff,omitempty"`
	PickupLocationID string          `json:"pickup_location_id,omitempty"`
	CustomerNotified bool            `json:"customer_notified"`
	Fee              decimal.Decimal `json:"fee"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func FromDelivery(d *entity.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Kind:             string(d.Kind),
		Status:           string(d.Status),
		ScheduledAt:      d.ScheduledAt,
		Address:          d.Address,
		Instructions:     d.Instructions,
		AssignedStaff:    d.AssignedStaff,
		PickupLocationID: d.PickupLocationID,
		CustomerNotified: d.CustomerNotified,
		Fee:              d.Fee,
		DeliveredAt:      d.DeliveredAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
