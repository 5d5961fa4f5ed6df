package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// InventoryHandler libro mayor: ajustes, stock bajo, historial y auditoría (protegido).
type InventoryHandler struct {
	uc *ledger.UseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.UseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Mutate godoc
// @Summary      Registrar movimiento de inventario
// @Description  Ajuste manual; requiere la capacidad adjust_stock. El signo de quantity debe
// @Description  coincidir con el tipo (stock_in positivo, stock_out/expired negativo).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MutateStockRequest  true  "location_id, product_id, type, quantity"
// @Success      201   {object}  dto.LedgerTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/mutations [post]
func (h *InventoryHandler) Mutate(c *fiber.Ctx) error {
	var in dto.MutateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	typ, ok := entity.ParseTransactionType(in.Type)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de movimiento inválido"})
	}
	tx, err := h.uc.Mutate(c.UserContext(), ledger.MutateCommand{
		LocationID:  in.LocationID,
		ProductID:   in.ProductID,
		Delta:       in.Quantity,
		Type:        typ,
		PerformedBy: GetUserID(c),
		Notes:       in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLedgerTransaction(tx))
}

// LowStock godoc
// @Summary      Entradas en o bajo el punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	entries, err := h.uc.LowStock(c.UserContext(), c.Query("location_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromLedgerEntry(e))
	}
	return c.JSON(fiber.Map{
		"total":   len(out),
		"entries": out,
	})
}

// History godoc
// @Summary      Historial de una entrada
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  path   string  true   "Ubicación"
// @Param        product_id   path   string  true   "Producto"
// @Param        limit        query  int     false  "Máximo 100"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TransactionListResponse
// @Router       /api/inventory/{location_id}/{product_id}/transactions [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	var req dto.PageRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page := req.Clamp()
	txs, total, err := h.uc.HistoryPage(c.UserContext(), ledgerKey(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LedgerTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, dto.FromLedgerTransaction(tx))
	}
	return c.JSON(dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// Audit godoc
// @Summary      Auditar una entrada
// @Description  Reproduce el historial desde cero y lo compara con el stock actual.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  path  string  true  "Ubicación"
// @Param        product_id   path  string  true  "Producto"
// @Success      200  {object}  dto.AuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{location_id}/{product_id}/audit [get]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	rep, err := h.uc.Audit(c.UserContext(), ledgerKey(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAudit(rep))
}

func ledgerKey(c *fiber.Ctx) entity.LedgerKey {
	return entity.LedgerKey{LocationID: c.Params("location_id"), ProductID: c.Params("product_id")}
}
