package models

// Refund records one refund request against a payment. Partial refunds are
// allowed; the sum of SUCCESS refund amounts may never exceed the payment
// amount.
type Refund struct {
	BaseModel

	PaymentID        string       `gorm:"type:uuid;not null;index" json:"payment_id"`
	Amount           float64      `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status           RefundStatus `gorm:"type:varchar(50);not null" json:"status"`
	Reason           string       `gorm:"type:varchar(500)" json:"reason"`
	ProviderRefundID string       `gorm:"type:varchar(255)" json:"provider_refund_id,omitempty"`
}
