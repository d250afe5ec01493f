package models

// Payment is the root ledger record for one logical payment request.
// The unique index on IdempotencyKey is what guarantees at-most-one payment
// per key; concurrent creates race at the database, not in application code.
type Payment struct {
	BaseModel

	UserID        string          `gorm:"type:varchar(100);not null;index" json:"user_id"`
	OrderID       string          `gorm:"type:varchar(100);not null;index" json:"order_id"`
	OrderType     OrderType       `gorm:"type:varchar(50);not null" json:"order_type"`
	Amount        float64         `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status        PaymentStatus   `gorm:"type:varchar(50);not null" json:"status"`
	Provider      PaymentProvider `gorm:"type:varchar(50);not null" json:"provider"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(50);not null" json:"payment_method"`

	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"idempotency_key"`

	// AttemptSeq is bumped atomically by the store for each new attempt so
	// concurrent retries never hand out the same attempt number.
	AttemptSeq int `gorm:"not null;default:0" json:"attempt_seq"`

	// Beneficiary fields, required for P2P, BILL_PAYMENT and DONATION orders
	BeneficiaryID      string `gorm:"type:varchar(100)" json:"beneficiary_id,omitempty"`
	BeneficiaryName    string `gorm:"type:varchar(200)" json:"beneficiary_name,omitempty"`
	BeneficiaryType    string `gorm:"type:varchar(50)" json:"beneficiary_type,omitempty"`
	BeneficiaryAccount string `gorm:"type:varchar(256)" json:"beneficiary_account,omitempty"`

	// Relationships
	Attempts     []PaymentAttempt     `gorm:"foreignKey:PaymentID" json:"attempts,omitempty"`
	Transactions []PaymentTransaction `gorm:"foreignKey:PaymentID" json:"transactions,omitempty"`
	Refunds      []Refund             `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"`
}

// Refundable reports whether the payment is in a state a refund may start from
func (p *Payment) Refundable() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusProcessing
}
