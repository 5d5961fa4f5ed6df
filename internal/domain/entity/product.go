package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un ítem del catálogo. Code (product_code) es inmutable.
type Product struct {
	ID                   string
	Code                 string
	Name                 string
	Price                decimal.Decimal // precio unitario de venta
	RequiresPrescription bool
	IsAvailable          bool
	CreatedAt            time.Time
}
