// internal/models/subscription.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the per-identity entitlement record. It is created on first
// purchase and never physically deleted: renewals overwrite the term, admin
// cancellation zeroes EndTime and sets IsCancelled.
type Subscription struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	IsSubscribed bool      `json:"is_subscribed" gorm:"default:false"`
	IsCancelled  bool      `json:"is_cancelled" gorm:"default:false"`
	PaymentToken string    `json:"payment_token" gorm:"size:20"`
	PricePaid    int64     `json:"price_paid"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ActiveAt reports whether the subscription grants entitlement at t.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s.IsSubscribed && !s.IsCancelled && !t.After(s.EndTime)
}

// PremiumFlag is an admin-granted entitlement override, independent of any
// subscription term.
type PremiumFlag struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Enabled bool      `json:"enabled" gorm:"default:false"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
