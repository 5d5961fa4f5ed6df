package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
)

// TransferHandler traslados bodega -> sucursal (protegido).
type TransferHandler struct {
	uc *transfer.UseCase
}

func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Request godoc
// @Summary      Solicitar traslado
// @Description  Sin warehouse_id se elige la bodega con más stock del producto.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RequestTransferRequest  true  "Traslado"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Request(c *fiber.Ctx) error {
	var in dto.RequestTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	branchID := in.BranchID
	if branchID == "" {
		branchID = GetBranchID(c)
	}
	t, err := h.uc.Request(c.UserContext(), transfer.RequestInput{
		BranchID:    branchID,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		RequestedBy: GetUserID(c),
		WarehouseID: in.WarehouseID,
		Notes:       in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTransfer(t))
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Approve godoc
// @Summary      Aprobar traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_WAREHOUSE_STOCK o INVALID_TRANSITION"
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	t, err := h.uc.Approve(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Dispatch godoc
// @Summary      Despachar traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Router       /api/transfers/{id}/dispatch [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	t, err := h.uc.Dispatch(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Complete godoc
// @Summary      Recibir traslado
// @Description  Mueve la cantidad de la bodega a la sucursal en una sola transacción.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *fiber.Ctx) error {
	t, err := h.uc.Complete(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del traslado"
// @Param        body  body  dto.CancelTransferRequest  false "Motivo"
// @Success      200   {object}  dto.TransferResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	t, err := h.uc.Cancel(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTransfer(t))
}

// Movements godoc
// @Summary      Movimientos del libro mayor del traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {array}   dto.LedgerTransactionResponse
// @Router       /api/transfers/{id}/movements [get]
func (h *TransferHandler) Movements(c *fiber.Ctx) error {
	txs, err := h.uc.Movements(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, dto.FromLedgerTransaction(tx))
	}
	return c.JSON(out)
}
