// internal/models/market.go
package models

import (
	"github.com/google/uuid"
)

// MarketEvent is the durable audit trail of the marketplace. Rows are written
// inside the same transaction as the state change they describe.
type MarketEvent struct {
	BaseModel
	Type    EventType  `json:"type" gorm:"type:varchar(40);not null;index"`
	ActorID *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	Payload JSONB      `json:"payload" gorm:"type:jsonb"`
}

// Setting is a persisted admin-tunable value (subscription price, pause flags).
type Setting struct {
	BaseModel
	Key         string `json:"key" gorm:"uniqueIndex;size:100;not null"`
	Value       JSONB  `json:"value" gorm:"type:jsonb"`
	Description string `json:"description" gorm:"type:text"`
}

// Well-known setting keys.
const (
	SettingSubscriptionPrice = "subscription_price"
	SettingPausePrefix       = "paused."
)
