package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// OrderItemRequest línea pedida; el precio sale del catálogo.
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateOrderRequest body para POST /api/orders. El creador sale del token.
type CreateOrderRequest struct {
	Type                 string             `json:"type"`
	CustomerID           string             `json:"customer_id"`
	BranchID             string             `json:"branch_id"` // vacío = sucursal del token
	Items                []OrderItemRequest `json:"items"`
	ServedBy             string             `json:"served_by,omitempty"`
	PrescriptionID       string             `json:"prescription_id,omitempty"`
	ValidatedBy          string             `json:"validated_by,omitempty"`
	DeliveryAddress      string             `json:"delivery_address,omitempty"`
	DeliveryInstructions string             `json:"delivery_instructions,omitempty"`
	Notes                string             `json:"notes,omitempty"`
}

// TransitionOrderRequest body para POST /api/orders/:id/transitions.
type TransitionOrderRequest struct {
	Status string `json:"status"`
}

// OrderItemResponse salida de una línea.
type OrderItemResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID                   string              `json:"id"`
	Number               string              `json:"number"`
	Type                 string              `json:"type"`
	Status               string              `json:"status"`
	CustomerID           string              `json:"customer_id"`
	BranchID             string              `json:"branch_id"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	DiscountRate         decimal.Decimal     `json:"discount_rate"`
	CreatedBy            string              `json:"created_by"`
	ServedBy             *string             `json:"served_by,omitempty"`
	PrescriptionID       *string             `json:"prescription_id,omitempty"`
	ValidatedBy          *string             `json:"validated_by,omitempty"`
	ValidationDate       *time.Time          `json:"validation_date,omitempty"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	DeliveryInstructions string              `json:"delivery_instructions,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Reserved             bool                `json:"reserved"`
	PharmacistRequired   bool                `json:"pharmacist_required"`
	Items                []OrderItemResponse `json:"items"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// TransitionResponse registro de una transición de estado.
type TransitionResponse struct {
	ID      string    `json:"id"`
	OrderID string    `json:"order_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

// QuoteResponse total recalculado por la política de la orden.
type QuoteResponse struct {
	Type                       string          `json:"type"`
	Subtotal                   decimal.Decimal `json:"subtotal"`
	Total                      decimal.Decimal `json:"total"`
	RequiresDelivery           bool            `json:"requires_delivery"`
	RequiresPharmacistApproval bool            `json:"requires_pharmacist_approval"`
	Notes                      []string        `json:"notes,omitempty"`
}

// LoyaltyAccrualResponse puntos acumulados por una orden.
type LoyaltyAccrualResponse struct {
	ID        string    `json:"id"`
	Points    int64     `json:"points"`
	EarnedAt  time.Time `json:"earned_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Reference string    `json:"reference"`
}

// LoyaltyResponse saldo vigente y detalle de acumulaciones.
type LoyaltyResponse struct {
	CustomerID string                   `json:"customer_id"`
	Balance    int64                    `json:"balance"`
	Accruals   []LoyaltyAccrualResponse `json:"accruals"`
}

func FromOrder(o *entity.Order) OrderResponse {
	out := OrderResponse{
		ID:                   o.ID,
		Number:               o.Number,
		Type:                 string(o.Type),
		Status:               string(o.Status),
		CustomerID:           o.CustomerID,
		BranchID:             o.BranchID,
		Subtotal:             o.Subtotal(),
		TotalAmount:          o.TotalAmount,
		DiscountRate:         o.DiscountRate,
		CreatedBy:            o.CreatedBy,
		ServedBy:             o.ServedBy,
		PrescriptionID:       o.PrescriptionID,
		ValidatedBy:          o.ValidatedBy,
		ValidationDate:       o.ValidationDate,
		DeliveryAddress:      o.DeliveryAddress,
		DeliveryInstructions: o.DeliveryInstructions,
		Notes:                o.Notes,
		Reserved:             o.Reserved,
		PharmacistRequired:   o.PharmacistRequired,
		Items:                make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return out
}

func FromTransition(r *entity.TransitionRecord) TransitionResponse {
	return TransitionResponse{
		ID:      r.ID,
		OrderID: r.OrderID,
		From:    string(r.From),
		To:      string(r.To),
		ActorID: r.ActorID,
		At:      r.At,
	}
}

// FromLoyalty arma el saldo con las acumulaciones no vencidas a now.
func FromLoyalty(customerID string, accruals []*entity.LoyaltyAccrual, now time.Time) LoyaltyResponse {
	out := LoyaltyResponse{CustomerID: customerID, Accruals: make([]LoyaltyAccrualResponse, 0, len(accruals))}
	for _, a := range accruals {
		if now.Before(a.ExpiresAt) {
			out.Balance += a.Points
		}
		out.Accruals = append(out.Accruals, LoyaltyAccrualResponse{
			ID:        a.ID,
			Points:    a.Points,
			EarnedAt:  a.EarnedAt,
			ExpiresAt: a.ExpiresAt,
			Reference: a.Reference,
		})
	}
	return out
}
