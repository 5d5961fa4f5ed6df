package entity

import "time"

// PrescriptionStatus estado de una fórmula médica.
type PrescriptionStatus string

const (
	PrescriptionSubmitted PrescriptionStatus = "submitted"
	PrescriptionValidated PrescriptionStatus = "validated"
	PrescriptionDispensed PrescriptionStatus = "dispensed"
	PrescriptionRejected  PrescriptionStatus = "rejected"
	PrescriptionExpired   PrescriptionStatus = "expired"
)

// Prescription fórmula médica de un cliente. Otro componente la registra y valida;
// aquí solo se dispensa, una vez, al completar la orden que la usa.
type Prescription struct {
	ID          string
	Number      string
	CustomerID  string
	Status      PrescriptionStatus
	ValidatedBy *string
	ValidatedAt *time.Time
	DispensedAt *time.Time
	IssueDate   time.Time
	ExpiryDate  time.Time
}

// IsValidated validada por un farmacéutico y vigente en now.
func (p *Prescription) IsValidated(now time.Time) bool {
	if p == nil || p.Status != PrescriptionValidated || p.ValidatedBy == nil {
		return false
	}
	return now.Before(p.ExpiryDate)
}

// CanDispense validada, vigente y sin dispensar.
func (p *Prescription) CanDispense(now time.Time) bool {
	return p.IsValidated(now) && p.DispensedAt == nil
}
