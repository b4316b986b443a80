// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. IDs are generated in BeforeCreate so the same
// models run against postgres and the sqlite test database.
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeCreator UserType = "creator"
	UserTypeBuyer   UserType = "buyer"
	UserTypeAdmin   UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type RecipeStatus string

const (
	RecipeStatusActive RecipeStatus = "active"
	RecipeStatusBurned RecipeStatus = "burned"
)

type EventType string

const (
	EventSubscriptionPurchased   EventType = "SubscriptionPurchased"
	EventSubscriptionCancelled   EventType = "SubscriptionCancelled"
	EventSubscriptionPriceUpdate EventType = "SubscriptionPriceUpdated"
	EventTokenWithdrawn          EventType = "TokenWithdrawn"
	EventRecipeListed            EventType = "RecipeListed"
	EventRecipeCancelled         EventType = "RecipeCancelled"
	EventRecipeSold              EventType = "RecipeSold"
)
