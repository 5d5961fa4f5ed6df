package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.PrescriptionRepository = (*PrescriptionRepo)(nil)

// PrescriptionRepo fórmulas médicas. El registro y la validación viven en otro servicio;
// aquí solo se leen y se marcan como dispensadas.
type PrescriptionRepo struct {
	q Querier
}

func NewPrescriptionRepository(q Querier) *PrescriptionRepo {
	return &PrescriptionRepo{q: q}
}

const prescriptionColumns = `id, number, customer_id, status, validated_by, validated_at, dispensed_at, issue_date, expiry_date`

func (r *PrescriptionRepo) GetByID(ctx context.Context, id string) (*entity.Prescription, error) {
	return r.get(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id)
}

// GetForUpdate bloquea la fórmula hasta el fin de la transacción.
func (r *PrescriptionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Prescription, error) {
	return r.get(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1 FOR UPDATE`, id)
}

func (r *PrescriptionRepo) get(ctx context.Context, query, id string) (*entity.Prescription, error) {
	var (
		p      entity.Prescription
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Number, &p.CustomerID, &status,
		&p.ValidatedBy, &p.ValidatedAt, &p.DispensedAt, &p.IssueDate, &p.ExpiryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	p.Status = entity.PrescriptionStatus(status)
	return &p, nil
}

// MarkDispensed validated -> dispensed en una sola sentencia condicionada.
func (r *PrescriptionRepo) MarkDispensed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE prescriptions SET status = 'dispensed', dispensed_at = $2
		WHERE id = $1 AND status = 'validated'`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("dispense prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la fórmula %s no está validada", domain.ErrConflict, id)
	}
	return nil
}
