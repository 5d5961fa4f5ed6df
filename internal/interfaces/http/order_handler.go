package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// OrderHandler ciclo de vida de órdenes (protegido).
type OrderHandler struct {
	uc *order.UseCase
}

func NewOrderHandler(uc *order.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden
// @Description  Evalúa la política del tipo (prescription, in_store, online) y guarda la orden en pending.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Orden"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	branchID := in.BranchID
	if branchID == "" {
		branchID = GetBranchID(c)
	}
	items := make([]order.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.uc.CreateOrder(c.UserContext(), order.CreateOrderInput{
		Type:                 entity.OrderType(in.Type),
		CustomerID:           in.CustomerID,
		BranchID:             branchID,
		CreatedBy:            GetUserID(c),
		Items:                items,
		ServedBy:             in.ServedBy,
		PrescriptionID:       in.PrescriptionID,
		ValidatedBy:          in.ValidatedBy,
		DeliveryAddress:      in.DeliveryAddress,
		DeliveryInstructions: in.DeliveryInstructions,
		Notes:                in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(o))
}

// GetByID godoc
// @Summary      Obtener orden
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.uc.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(o))
}

// Transition godoc
// @Summary      Cambiar estado de la orden
// @Description  pending -> processing|cancelled, processing -> completed|cancelled.
// @Description  Completar descuenta el stock de la sucursal y acumula puntos en una sola transacción.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la orden"
// @Param        body  body  dto.TransitionOrderRequest  true  "Estado destino"
// @Success      200   {object}  dto.TransitionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/transitions [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, err := h.uc.TransitionOrder(c.UserContext(), c.Params("id"), entity.OrderStatus(in.Status), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransition(rec))
}

// Transitions godoc
// @Summary      Historial de estados
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {array}   dto.TransitionResponse
// @Router       /api/orders/{id}/transitions [get]
func (h *OrderHandler) Transitions(c *fiber.Ctx) error {
	recs, err := h.uc.Transitions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.TransitionResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, dto.FromTransition(r))
	}
	return c.JSON(out)
}

// AssignValidator godoc
// @Summary      Validar orden con fórmula
// @Description  El usuario del token queda como farmacéutico validador; requiere validate_prescription.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/validation [post]
func (h *OrderHandler) AssignValidator(c *fiber.Ctx) error {
	o, err := h.uc.AssignValidator(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(o))
}

// Quote godoc
// @Summary      Recalcular total
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.QuoteResponse
// @Router       /api/orders/{id}/quote [get]
func (h *OrderHandler) Quote(c *fiber.Ctx) error {
	res, err := h.uc.Quote(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.QuoteResponse{
		Type:                       string(res.Type),
		Subtotal:                   res.Subtotal,
		Total:                      res.Total,
		RequiresDelivery:           res.RequiresDelivery,
		RequiresPharmacistApproval: res.RequiresPharmacistApproval,
		Notes:                      res.Notes,
	})
}

// Loyalty godoc
// @Summary      Puntos de fidelización del cliente
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del cliente"
// @Success      200  {object}  dto.LoyaltyResponse
// @Router       /api/customers/{id}/loyalty [get]
func (h *OrderHandler) Loyalty(c *fiber.Ctx) error {
	customerID := c.Params("id")
	accruals, err := h.uc.LoyaltyAccruals(c.UserContext(), customerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromLoyalty(customerID, accruals, time.Now()))
}
