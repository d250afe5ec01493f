package models

import "encoding/json"

// ProviderCallback stores raw reconciliation notifications received from a
// provider. Kept verbatim so disputed settlements can be replayed later.
type ProviderCallback struct {
	BaseModel

	PaymentID string          `gorm:"type:uuid;not null;index" json:"payment_id"`
	Provider  PaymentProvider `gorm:"type:varchar(50);not null" json:"provider"`
	Metadata  json.RawMessage `gorm:"type:jsonb" json:"metadata"`
}
