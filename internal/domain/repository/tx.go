package repository

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Ledger        LedgerRepository
	Orders        OrderRepository
	Transfers     TransferRepository
	Loyalty       LoyaltyRepository
	Prescriptions PrescriptionRepository
	Deliveries    DeliveryRepository
}
