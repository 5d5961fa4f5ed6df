package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer cliente de la farmacia. DiscountRate > 0 lo marca como VIP.
type Customer struct {
	ID              string
	Name            string
	Email           string
	MembershipLevel string
	DiscountRate    decimal.Decimal // porcentaje, p.ej. 10 = 10%
	CreatedAt       time.Time
}

func (c *Customer) IsVIP() bool {
	return c != nil && c.DiscountRate.IsPositive()
}
