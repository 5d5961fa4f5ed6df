package pricing

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ── Fórmula médica ────────────────────────────────────────────────────────────

type prescriptionStrategy struct {
	fees Fees
}

func (s *prescriptionStrategy) Type() entity.OrderType { return entity.OrderPrescription }

func (s *prescriptionStrategy) Validate(f Facts) error {
	if err := validateItems(f.Order); err != nil {
		return err
	}
	if f.Order.PrescriptionID == nil || f.Prescription == nil {
		return domain.Validation("la orden requiere una fórmula médica vinculada")
	}
	if !f.Prescription.IsValidated(f.Now) {
		return domain.Validation("la fórmula médica no está validada o está vencida")
	}
	if !f.PrescriptionValidator.Can(entity.CapValidatePrescription) {
		return domain.Validation("quien validó la fórmula no puede validar fórmulas")
	}
	if f.Order.ValidatedBy != nil && !f.OrderValidator.Can(entity.CapValidatePrescription) {
		return domain.Validation("el validador asignado no puede validar fórmulas")
	}
	for _, it := range f.Order.Items {
		p := f.Products[it.ProductID]
		if p == nil || !p.RequiresPrescription {
			return domain.Validation(fmt.Sprintf("el producto %s no requiere fórmula médica", it.ProductID))
		}
	}
	return nil
}

// CalculateTotal subtotal + tarifa de consulta.
func (s *prescriptionStrategy) CalculateTotal(o *entity.Order) decimal.Decimal {
	return round(o.Subtotal().Add(s.fees.ConsultationFee))
}

func (s *prescriptionStrategy) Process(f Facts) (*Result, error) {
	res, err := process(s, f)
	if err != nil {
		return nil, err
	}
	if f.Order.ValidatedBy == nil {
		res.RequiresPharmacistApproval = true
		res.Notes = append(res.Notes, "requiere aprobación de un farmacéutico")
	}
	if f.Order.DeliveryAddress != "" {
		res.RequiresDelivery = true
	}
	return res, nil
}

// ── Venta en mostrador ────────────────────────────────────────────────────────

type inStoreStrategy struct{}

func (s *inStoreStrategy) Type() entity.OrderType { return entity.OrderInStore }

func (s *inStoreStrategy) Validate(f Facts) error {
	if err := validateItems(f.Order); err != nil {
		return err
	}
	if f.Order.ServedBy == nil || f.Server == nil {
		return domain.Validation("la venta en mostrador requiere un vendedor asignado")
	}
	if !f.Server.Can(entity.CapServeInStore) {
		return domain.Validation("el vendedor asignado no puede atender en mostrador")
	}
	return nil
}

// CalculateTotal subtotal con el descuento VIP congelado en la orden.
func (s *inStoreStrategy) CalculateTotal(o *entity.Order) decimal.Decimal {
	total := o.Subtotal()
	if o.DiscountRate.IsPositive() {
		total = total.Mul(decimal.NewFromInt(1).Sub(o.DiscountRate.Div(hundred)))
	}
	return round(total)
}

func (s *inStoreStrategy) Process(f Facts) (*Result, error) {
	res, err := process(s, f)
	if err != nil {
		return nil, err
	}
	if f.Order.DiscountRate.IsPositive() {
		res.Notes = append(res.Notes, "descuento VIP del "+f.Order.DiscountRate.String()+"%")
	}
	return res, nil
}

// ── Pedido en línea ───────────────────────────────────────────────────────────

type onlineStrategy struct {
	fees Fees
}

func (s *onlineStrategy) Type() entity.OrderType { return entity.OrderOnline }

func (s *onlineStrategy) Validate(f Facts) error {
	if err := validateItems(f.Order); err != nil {
		return err
	}
	if strings.TrimSpace(f.Order.DeliveryAddress) == "" {
		return domain.Validation("el pedido en línea requiere dirección de entrega")
	}
	for _, it := range f.Order.Items {
		p := f.Products[it.ProductID]
		if p == nil || !p.RequiresPrescription {
			continue
		}
		if f.Order.PrescriptionID == nil || !f.Prescription.IsValidated(f.Now) {
			return domain.Validation(fmt.Sprintf("el producto %s requiere una fórmula médica validada", it.ProductID))
		}
	}
	return nil
}

// CalculateTotal subtotal + envío; envío gratis si el subtotal supera el umbral.
func (s *onlineStrategy) CalculateTotal(o *entity.Order) decimal.Decimal {
	subtotal := o.Subtotal()
	return round(subtotal.Add(s.deliveryFee(subtotal)))
}

func (s *onlineStrategy) deliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(s.fees.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return s.fees.DeliveryFee
}

func (s *onlineStrategy) Process(f Facts) (*Result, error) {
	res, err := process(s, f)
	if err != nil {
		return nil, err
	}
	res.RequiresDelivery = true
	if f.Order.PrescriptionID != nil {
		res.RequiresPharmacistApproval = f.Order.ValidatedBy == nil
	}
	if res.Total.Equal(res.Subtotal) {
		res.Notes = append(res.Notes, "envío gratis")
	}
	return res, nil
}
