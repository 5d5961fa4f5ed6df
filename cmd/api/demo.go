package main

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	pkgjwt "github.com/jhoicas/Farmacia-api/pkg/jwt"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// seedDemo carga una sucursal, una bodega y un actor por rol para probar la API
// con APP_STORE=memory. Los tokens de cada actor se escriben en el log.
func seedDemo(st *memory.Store, cfg *config.Config, log *logger.Logger) {
	const (
		branch    = "branch-centro"
		warehouse = "wh-principal"
	)
	st.SeedLocation(entity.StockLocation{ID: branch, Name: "Sucursal Centro", Kind: entity.LocationBranch})
	st.SeedLocation(entity.StockLocation{ID: warehouse, Name: "Bodega Principal", Kind: entity.LocationWarehouse, Capacity: 10000})

	products := []entity.Product{
		{ID: "prod-acetaminofen", Code: "ACE-500", Name: "Acetaminofén 500mg", Price: decimal.RequireFromString("8.50"), IsAvailable: true},
		{ID: "prod-amoxicilina", Code: "AMX-500", Name: "Amoxicilina 500mg", Price: decimal.RequireFromString("22.00"), RequiresPrescription: true, IsAvailable: true},
		{ID: "prod-loratadina", Code: "LOR-10", Name: "Loratadina 10mg", Price: decimal.RequireFromString("12.75"), IsAvailable: true},
	}
	for _, p := range products {
		st.SeedProduct(p)
		st.SeedStock(entity.LedgerKey{LocationID: branch, ProductID: p.ID}, 25, -1)
		st.SeedStock(entity.LedgerKey{LocationID: warehouse, ProductID: p.ID}, 500, -1)
	}

	actors := []entity.Actor{
		{ID: "user-farmaceuta", Name: "Farmaceuta", Role: "pharmacist", BranchID: branch,
			Capabilities: []entity.Capability{entity.CapValidatePrescription, entity.CapServeInStore}},
		{ID: "user-cajero", Name: "Cajero", Role: "cashier", BranchID: branch,
			Capabilities: []entity.Capability{entity.CapServeInStore, entity.CapRequestTransfer, entity.CapManageDelivery}},
		{ID: "user-bodega", Name: "Jefe de bodega", Role: "warehouse_manager",
			Capabilities: []entity.Capability{entity.CapApproveTransfer, entity.CapAdjustStock}},
		{ID: "cust-demo", Name: "Cliente VIP", Role: "customer",
			Capabilities: []entity.Capability{entity.CapEarnLoyalty}},
	}
	for _, a := range actors {
		st.SeedActor(a)
	}
	st.SeedCustomer(entity.Customer{ID: "cust-demo", Name: "Cliente VIP", MembershipLevel: "gold", DiscountRate: decimal.NewFromInt(10)})

	for _, a := range actors {
		tok, err := pkgjwt.Generate(cfg.JWT.Secret, a.ID, a.BranchID, a.Role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			log.Warn().Err(err).Str("user_id", a.ID).Msg("token demo")
			continue
		}
		log.Info().Str("user_id", a.ID).Str("role", a.Role).Str("token", tok).Msg("actor demo")
	}
}
