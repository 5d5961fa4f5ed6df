package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

// ItemInput línea pedida; el precio sale del catálogo.
type ItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateOrderInput datos para crear una orden. Los ids opcionales van vacíos si no aplican.
type CreateOrderInput struct {
	Type                 entity.OrderType
	CustomerID           string
	BranchID             string
	CreatedBy            string
	Items                []ItemInput
	ServedBy             string
	PrescriptionID       string
	ValidatedBy          string
	DeliveryAddress      string
	DeliveryInstructions string
	Notes                string
}

// CreateOrder resuelve colaboradores, evalúa la política del tipo y guarda la orden en
// pending con TotalAmount = CalculateTotal.
func (uc *UseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	ctx, cancel := ports.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	if _, ok := entity.ParseOrderType(string(in.Type)); !ok {
		return nil, fmt.Errorf("%w: tipo de orden %q", domain.ErrInvalidInput, in.Type)
	}
	if in.CustomerID == "" || in.BranchID == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: cliente, sucursal e ítems son obligatorios", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: ítem con producto o cantidad inválidos", domain.ErrInvalidInput)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("%w: producto %s repetido", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}

	creator, err := uc.d.Users.GetActor(ctx, in.CreatedBy)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get actor: %w", err))
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: usuario %s desconocido", domain.ErrUnauthorized, in.CreatedBy)
	}
	customer, err := uc.d.Customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get customer: %w", err))
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.CustomerID)
	}
	branch, err := uc.d.Locations.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("get branch: %w", err))
	}
	if branch == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, in.BranchID)
	}
	if !branch.IsBranch() {
		return nil, fmt.Errorf("%w: %s no es una sucursal", domain.ErrInvalidInput, in.BranchID)
	}

	now := uc.d.Clock().UTC()
	o := &entity.Order{
		ID:                   newID(),
		Type:                 in.Type,
		CustomerID:           customer.ID,
		BranchID:             branch.ID,
		Status:               entity.OrderPending,
		DiscountRate:         customer.DiscountRate,
		CreatedBy:            creator.ID,
		DeliveryAddress:      strings.TrimSpace(in.DeliveryAddress),
		DeliveryInstructions: in.DeliveryInstructions,
		Notes:                in.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	o.Number = newNumber(in.Type.NumberPrefix(), o)

	for _, it := range in.Items {
		p, err := uc.d.Catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, ports.TimeoutErr(fmt.Errorf("get product: %w", err))
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		if !p.IsAvailable {
			return nil, domain.Validation(fmt.Sprintf("el producto %s no está disponible", p.Code))
		}
		o.Items = append(o.Items, entity.NewOrderItem(newID(), o.ID, p.ID, it.Quantity, p.Price))
	}

	servedBy := in.ServedBy
	if servedBy == "" && in.Type == entity.OrderInStore && creator.Can(entity.CapServeInStore) {
		servedBy = creator.ID
	}
	if servedBy != "" {
		o.ServedBy = &servedBy
	}
	if in.PrescriptionID != "" {
		o.PrescriptionID = &in.PrescriptionID
	}
	if in.ValidatedBy != "" {
		o.ValidatedBy = &in.ValidatedBy
		o.ValidationDate = &now
	}

	strategy, err := uc.d.Pricing.Resolve(o.Type)
	if err != nil {
		return nil, err
	}
	facts, err := uc.loadFacts(ctx, o)
	if err != nil {
		return nil, ports.TimeoutErr(err)
	}
	facts.Now = now
	if _, err := strategy.Process(facts); err != nil {
		uc.d.Log.Warn().Err(err).Str("order_type", string(o.Type)).Msg("orden rechazada por la política")
		return nil, err
	}
	o.TotalAmount = strategy.CalculateTotal(o)

	err = uc.d.Tx.Run(ctx, func(repos repository.TxRepos) error {
		return repos.Orders.Create(ctx, o)
	})
	if err != nil {
		err = ports.TimeoutErr(err)
		uc.logFailure(err).Str("order_number", o.Number).Msg("crear orden")
		return nil, err
	}

	uc.d.Log.Info().
		Str("order_id", o.ID).
		Str("order_number", o.Number).
		Str("order_type", string(o.Type)).
		Str("total", o.TotalAmount.StringFixed(2)).
		Msg("orden creada")
	uc.publish(ctx, []event.Event{event.OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OrderType:   string(o.Type),
		CustomerID:  o.CustomerID,
		BranchID:    o.BranchID,
		Total:       o.TotalAmount,
		At:          now,
	}})
	return o, nil
}

// loadFacts carga productos, fórmula y actores que la política necesita.
// Un id referenciado que no existe es ErrNotFound.
func (uc *UseCase) loadFacts(ctx context.Context, o *entity.Order) (pricing.Facts, error) {
	f := pricing.Facts{
		Order:    o,
		Products: make(map[string]*entity.Product, len(o.Items)),
		Now:      uc.d.Clock().UTC(),
	}
	for _, it := range o.Items {
		p, err := uc.d.Catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			return f, fmt.Errorf("get product: %w", err)
		}
		f.Products[it.ProductID] = p
	}

	if o.PrescriptionID != nil {
		rx, err := uc.d.Prescriptions.GetByID(ctx, *o.PrescriptionID)
		if err != nil {
			return f, fmt.Errorf("get prescription: %w", err)
		}
		if rx == nil {
			return f, fmt.Errorf("%w: fórmula %s", domain.ErrNotFound, *o.PrescriptionID)
		}
		if rx.CustomerID != "" && rx.CustomerID != o.CustomerID {
			return f, domain.Validation("la fórmula pertenece a otro cliente")
		}
		f.Prescription = rx
		if rx.ValidatedBy != nil {
			if f.PrescriptionValidator, err = uc.actor(ctx, *rx.ValidatedBy); err != nil {
				return f, err
			}
		}
	}
	if o.ValidatedBy != nil {
		a, err := uc.actor(ctx, *o.ValidatedBy)
		if err != nil {
			return f, err
		}
		f.OrderValidator = a
	}
	if o.ServedBy != nil {
		a, err := uc.actor(ctx, *o.ServedBy)
		if err != nil {
			return f, err
		}
		f.Server = a
	}
	return f, nil
}

func (uc *UseCase) actor(ctx context.Context, id string) (*entity.Actor, error) {
	a, err := uc.d.Users.GetActor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: usuario %s", domain.ErrNotFound, id)
	}
	return a, nil
}

func newID() string { return uuid.New().String() }

// newNumber PRX|INS|ONL-<aaaammddhhmmss>-<sufijo>.
func newNumber(prefix string, o *entity.Order) string {
	suffix := strings.ToUpper(strings.ReplaceAll(o.ID, "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, o.CreatedAt.Format("20060102150405"), suffix)
}
