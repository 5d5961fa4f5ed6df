package entity

// Capability permiso puntual que el directorio de usuarios otorga a un actor.
// El núcleo decide solo por capacidades, nunca por el nombre del rol.
type Capability string

const (
	CapValidatePrescription Capability = "validate_prescription"
	CapApproveTransfer      Capability = "approve_transfer"
	CapRequestTransfer      Capability = "request_transfer"
	CapServeInStore         Capability = "serve_in_store"
	CapEarnLoyalty          Capability = "earn_loyalty"
	CapAdjustStock          Capability = "adjust_stock"
	CapManageDelivery       Capability = "manage_delivery"
)

// Actor usuario resuelto por el directorio (personal o cliente).
type Actor struct {
	ID           string
	Name         string
	Role         string // informativo: pharmacist, branch_manager, warehouse_manager, customer...
	BranchID     string
	Capabilities []Capability
}

// Can indica si el actor tiene la capacidad.
func (a *Actor) Can(c Capability) bool {
	if a == nil {
		return false
	}
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
