package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Regla de acumulación: 1 punto por cada 10 unidades de moneda, vigencia de 365 días.
const (
	LoyaltyPointValue   = 10
	LoyaltyValidityDays = 365
)

// LoyaltyAccrual puntos ganados por un cliente al completar una orden.
type LoyaltyAccrual struct {
	ID         string
	CustomerID string
	Points     int64
	EarnedAt   time.Time
	ExpiresAt  time.Time
	Reference  string // número de la orden que los generó
}

// LoyaltyPointsFor floor(total / 10); nunca negativo.
func LoyaltyPointsFor(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Div(decimal.NewFromInt(LoyaltyPointValue)).Floor().IntPart()
}

// LoyaltyExpiry fecha de vencimiento a partir de la fecha de ganancia.
func LoyaltyExpiry(earnedAt time.Time) time.Time {
	return earnedAt.AddDate(0, 0, LoyaltyValidityDays)
}
