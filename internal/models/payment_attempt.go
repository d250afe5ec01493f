package models

import "encoding/json"

// PaymentAttempt records one provider-call cycle for a payment.
// RequestPayload is a masked snapshot of the initiation request: the raw card
// number, CVV and expiry must never reach this row. Once the status leaves
// INITIATED the row is immutable except for attaching the response payload.
type PaymentAttempt struct {
	BaseModel

	PaymentID       string          `gorm:"type:uuid;not null;index" json:"payment_id"`
	Provider        PaymentProvider `gorm:"type:varchar(50);not null" json:"provider"`
	AttemptNo       int             `gorm:"not null" json:"attempt_no"`
	Status          AttemptStatus   `gorm:"type:varchar(50);not null" json:"status"`
	RequestPayload  json.RawMessage `gorm:"type:jsonb" json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `gorm:"type:jsonb" json:"response_payload,omitempty"`
}
