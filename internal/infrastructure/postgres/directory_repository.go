package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// Colaboradores de solo lectura. Devuelven (nil, nil) cuando el id no existe.

var (
	_ repository.UserDirectory      = (*UserDirectory)(nil)
	_ repository.ProductCatalog     = (*ProductCatalog)(nil)
	_ repository.LocationRegistry   = (*LocationRegistry)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
)

// UserDirectory resuelve actores y sus capacidades (users.capabilities text[]).
type UserDirectory struct {
	q Querier
}

func NewUserDirectory(q Querier) *UserDirectory {
	return &UserDirectory{q: q}
}

func (r *UserDirectory) GetActor(ctx context.Context, id string) (*entity.Actor, error) {
	query := `
		SELECT id, name, role, COALESCE(branch_id, ''), capabilities
		FROM users WHERE id = $1 AND active`
	var (
		a    entity.Actor
		caps []string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Role, &a.BranchID, &caps)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get actor: %w", err)
	}
	a.Capabilities = make([]entity.Capability, 0, len(caps))
	for _, c := range caps {
		a.Capabilities = append(a.Capabilities, entity.Capability(c))
	}
	return &a, nil
}

// ProductCatalog lectura del catálogo de productos.
type ProductCatalog struct {
	q Querier
}

func NewProductCatalog(q Querier) *ProductCatalog {
	return &ProductCatalog{q: q}
}

func (r *ProductCatalog) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, code, name, price, requires_prescription, is_available, created_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Code, &p.Name, &p.Price,
		&p.RequiresPrescription, &p.IsAvailable, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// LocationRegistry sucursales y bodegas.
type LocationRegistry struct {
	q Querier
}

func NewLocationRegistry(q Querier) *LocationRegistry {
	return &LocationRegistry{q: q}
}

func (r *LocationRegistry) GetByID(ctx context.Context, id string) (*entity.StockLocation, error) {
	query := `
		SELECT id, name, kind, address, capacity, created_at, updated_at
		FROM stock_locations WHERE id = $1`
	var (
		l    entity.StockLocation
		kind string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &kind, &l.Address, &l.Capacity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	l.Kind = entity.LocationKind(kind)
	return &l, nil
}

// CustomerRepo lectura de clientes con su descuento de membresía.
type CustomerRepo struct {
	q Querier
}

func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `
		SELECT id, name, email, membership_level, discount_rate, created_at
		FROM customers WHERE id = $1`
	var c entity.Customer
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.MembershipLevel, &c.DiscountRate, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
