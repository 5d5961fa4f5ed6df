package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// DeliveryHandler entregas de órdenes: recogida en sucursal o domicilio (protegido).
type DeliveryHandler struct {
	uc *order.UseCase
}

func NewDeliveryHandler(uc *order.UseCase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

// Schedule godoc
// @Summary      Agendar entrega
// @Description  Crea o reprograma la entrega de la orden; requiere manage_delivery.
// @Description  Sin dirección de entrega la orden se recoge en su sucursal.
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la orden"
// @Param        body  body  dto.ScheduleDeliveryRequest  true  "Fecha, responsable e indicaciones"
// @Success      200   {object}  dto.DeliveryResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/delivery [post]
func (h *DeliveryHandler) Schedule(c *fiber.Ctx) error {
	var in dto.ScheduleDeliveryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	d, err := h.uc.ScheduleDelivery(c.UserContext(), order.ScheduleDeliveryInput{
		OrderID:      c.Params("id"),
		ActorID:      GetUserID(c),
		ScheduledAt:  in.ScheduledAt,
		StaffID:      in.StaffID,
		Instructions: in.Instructions,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDelivery(d))
}

// GetByOrder godoc
// @Summary      Entrega de una orden
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.DeliveryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/delivery [get]
func (h *DeliveryHandler) GetByOrder(c *fiber.Ctx) error {
	d, err := h.uc.GetDelivery(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDelivery(d))
}

// Advance godoc
// @Summary      Avanzar entrega
// @Description  ready|in_transit|failed según la modalidad; delivered completa la orden.
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la entrega"
// @Param        body  body  dto.DeliveryStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.DeliveryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/status [post]
func (h *DeliveryHandler) Advance(c *fiber.Ctx) error {
	var in dto.DeliveryStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	d, err := h.uc.AdvanceDelivery(c.UserContext(), c.Params("id"), entity.DeliveryStatus(in.Status), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDelivery(d))
}

// Delivered godoc
// @Summary      Marcar entregada
// @Description  Entrega y completa la orden en una sola transacción.
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la entrega"
// @Success      200  {object}  dto.DeliveryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/delivered [post]
func (h *DeliveryHandler) Delivered(c *fiber.Ctx) error {
	d, err := h.uc.MarkDelivered(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDelivery(d))
}
