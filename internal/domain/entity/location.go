package entity

import "time"

// LocationKind distingue sucursales de bodegas.
type LocationKind string

const (
	LocationBranch    LocationKind = "branch"
	LocationWarehouse LocationKind = "warehouse"
)

// StockLocation representa una sucursal o una bodega donde se lleva inventario.
// Capacity solo aplica a bodegas.
type StockLocation struct {
	ID        string
	Name      string
	Kind      LocationKind
	Address   string
	Capacity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *StockLocation) IsBranch() bool    { return l != nil && l.Kind == LocationBranch }
func (l *StockLocation) IsWarehouse() bool { return l != nil && l.Kind == LocationWarehouse }
