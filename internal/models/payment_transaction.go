package models

// PaymentTransaction is one ledger movement for a payment. Rows are
// append-only; a payment's net position is derived by folding its
// transactions.
type PaymentTransaction struct {
	BaseModel

	PaymentID       string            `gorm:"type:uuid;not null;index" json:"payment_id"`
	TransactionType TransactionType   `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Amount          float64           `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status          TransactionStatus `gorm:"type:varchar(50);not null" json:"status"`
	Description     string            `gorm:"type:varchar(500)" json:"description"`
}
