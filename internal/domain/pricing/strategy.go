package pricing

import (
	"fmt"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Facts datos ya resueltos que necesita una política para evaluar una orden.
// El resolver no consulta colaboradores; quien llama los carga antes.
type Facts struct {
	Order                 *entity.Order
	Products              map[string]*entity.Product // por ProductID
	Prescription          *entity.Prescription
	PrescriptionValidator *entity.Actor // quien validó la fórmula
	OrderValidator        *entity.Actor // farmacéutico asignado a la orden, si hay
	Server                *entity.Actor // quien atiende en mostrador
	Now                   time.Time
}

// Result resultado de Process: totales y requisitos posteriores.
type Result struct {
	Type                       entity.OrderType
	Subtotal                   decimal.Decimal
	Total                      decimal.Decimal
	RequiresDelivery           bool
	RequiresPharmacistApproval bool
	Notes                      []string
}

// Strategy política de precio y validación para un tipo de orden.
type Strategy interface {
	Type() entity.OrderType
	Validate(f Facts) error
	CalculateTotal(o *entity.Order) decimal.Decimal
	Process(f Facts) (*Result, error)
}

// Fees valores configurables de las políticas.
type Fees struct {
	ConsultationFee       decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal // el envío es gratis si el subtotal lo supera
}

// DefaultFees 25.00 de consulta, 15.00 de envío, envío gratis por encima de 100.00.
func DefaultFees() Fees {
	return Fees{
		ConsultationFee:       decimal.NewFromInt(25),
		DeliveryFee:           decimal.NewFromInt(15),
		FreeDeliveryThreshold: decimal.NewFromInt(100),
	}
}

// Resolver tabla tipo de orden -> política.
type Resolver struct {
	strategies map[entity.OrderType]Strategy
}

// NewResolver registra las tres políticas con las tarifas dadas.
func NewResolver(fees Fees) *Resolver {
	r := &Resolver{strategies: make(map[entity.OrderType]Strategy, 3)}
	for _, s := range []Strategy{
		&prescriptionStrategy{fees: fees},
		&inStoreStrategy{},
		&onlineStrategy{fees: fees},
	} {
		r.strategies[s.Type()] = s
	}
	return r
}

// Resolve devuelve la política del tipo; ErrInvalidInput si el tipo no existe.
func (r *Resolver) Resolve(t entity.OrderType) (Strategy, error) {
	s, ok := r.strategies[t]
	if !ok {
		return nil, fmt.Errorf("%w: tipo de orden %q", domain.ErrInvalidInput, t)
	}
	return s, nil
}

// CalculateTotal atajo para resolver y calcular en un paso.
func (r *Resolver) CalculateTotal(o *entity.Order) (decimal.Decimal, error) {
	s, err := r.Resolve(o.Type)
	if err != nil {
		return decimal.Zero, err
	}
	return s.CalculateTotal(o), nil
}

// DeliveryFee envío incluido en el total de la orden; solo los pedidos en línea lo cobran.
func (r *Resolver) DeliveryFee(o *entity.Order) decimal.Decimal {
	s, ok := r.strategies[o.Type].(*onlineStrategy)
	if !ok {
		return decimal.Zero
	}
	return round(s.deliveryFee(o.Subtotal()))
}

func round(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// process comparte el esqueleto Validate -> Result entre las políticas.
func process(s Strategy, f Facts) (*Result, error) {
	if f.Order == nil {
		return nil, domain.Validation("orden vacía")
	}
	if err := s.Validate(f); err != nil {
		return nil, err
	}
	return &Result{
		Type:     s.Type(),
		Subtotal: round(f.Order.Subtotal()),
		Total:    s.CalculateTotal(f.Order),
	}, nil
}

func validateItems(o *entity.Order) error {
	if len(o.Items) == 0 {
		return domain.Validation("la orden no tiene ítems")
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return domain.Validation(fmt.Sprintf("cantidad inválida para el producto %s", it.ProductID))
		}
	}
	return nil
}
