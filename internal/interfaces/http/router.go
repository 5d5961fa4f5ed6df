package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrderUC    *order.UseCase
	TransferUC *transfer.UseCase
	LedgerUC   *ledger.UseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Post("/", orderHandler.Create)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/transitions", orderHandler.Transition)
	orders.Get("/:id/transitions", orderHandler.Transitions)
	orders.Post("/:id/validation", orderHandler.AssignValidator)
	orders.Get("/:id/quote", orderHandler.Quote)

	// Deliveries
	deliveryHandler := NewDeliveryHandler(deps.OrderUC)
	orders.Post("/:id/delivery", deliveryHandler.Schedule)
	orders.Get("/:id/delivery", deliveryHandler.GetByOrder)
	deliveries := api.Group("/deliveries")
	deliveries.Post("/:id/status", deliveryHandler.Advance)
	deliveries.Post("/:id/delivered", deliveryHandler.Delivered)

	// Customers (fidelización)
	api.Get("/customers/:id/loyalty", orderHandler.Loyalty)

	// Transfers
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Request)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/dispatch", transferHandler.Dispatch)
	transfers.Post("/:id/complete", transferHandler.Complete)
	transfers.Post("/:id/cancel", transferHandler.Cancel)
	transfers.Get("/:id/movements", transferHandler.Movements)

	// Inventory ledger
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LedgerUC)
	inv.Post("/mutations", inventoryHandler.Mutate)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/:location_id/:product_id/transactions", inventoryHandler.History)
	inv.Get("/:location_id/:product_id/audit", inventoryHandler.Audit)
}
