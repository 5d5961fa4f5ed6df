package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
)

// errorStatus traduce errores de dominio a status HTTP y código de respuesta.
// El orden importa: ErrInsufficientWarehouseStock antes de ErrInsufficientStock.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInsufficientWarehouseStock, fiber.StatusConflict, "INSUFFICIENT_WAREHOUSE_STOCK"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrValidationFailed, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{domain.ErrTimeout, fiber.StatusGatewayTimeout, "TIMEOUT"},
}

// writeError responde con el status del primer error de dominio que coincida; el resto es 500.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			msg := err.Error()
			if reason := domain.ValidationReason(err); reason != "" {
				msg = reason
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
