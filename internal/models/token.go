// internal/models/token.go
package models

import (
	"github.com/google/uuid"
)

// RegistryCustodyID is the system account holding subscription payments until
// the admin withdraws them.
var RegistryCustodyID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// PaymentToken is an entry in the admin-curated allow-list of fungible tokens.
type PaymentToken struct {
	Symbol   string `json:"symbol" gorm:"primaryKey;size:20"`
	Name     string `json:"name" gorm:"size:100"`
	Decimals int    `json:"decimals" gorm:"default:6"`
	Enabled  bool   `json:"enabled" gorm:"default:true"`
}

// TokenBalance is one holder's balance of one token, in smallest units.
type TokenBalance struct {
	BaseModel
	HolderID uuid.UUID `json:"holder_id" gorm:"type:uuid;not null;uniqueIndex:idx_token_balances_holder_token"`
	Token    string    `json:"token" gorm:"size:20;not null;uniqueIndex:idx_token_balances_holder_token"`
	Amount   int64     `json:"amount" gorm:"not null;default:0"`
}

// TopUp records a Stripe payment intent that credits a token balance once it
// succeeds.
type TopUp struct {
	BaseModel
	UserID          uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Token           string    `json:"token" gorm:"size:20;not null"`
	Amount          int64     `json:"amount" gorm:"not null"`
	PaymentIntentID string    `json:"payment_intent_id" gorm:"size:255;uniqueIndex"`
	Credited        bool      `json:"credited" gorm:"default:false"`
}
