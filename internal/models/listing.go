// internal/models/listing.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is an open offer to sell one recipe at a fixed price. Existence of
// the row is the listing's active state, so deletes are hard deletes: no
// gorm.DeletedAt here.
type Listing struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RecipeID     uuid.UUID `json:"recipe_id" gorm:"type:uuid;uniqueIndex;not null"`
	SellerID     uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	Price        int64     `json:"price" gorm:"not null"`
	PaymentToken string    `json:"payment_token" gorm:"size:20;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Recipe Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	Seller User   `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Sale records a completed settlement.
type Sale struct {
	BaseModel
	RecipeID          uuid.UUID `json:"recipe_id" gorm:"type:uuid;not null;index"`
	BuyerID           uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID          uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	Price             int64     `json:"price" gorm:"not null"`
	PaymentToken      string    `json:"payment_token" gorm:"size:20;not null"`
	RoyaltyReceiverID uuid.UUID `json:"royalty_receiver_id" gorm:"type:uuid"`
	RoyaltyAmount     int64     `json:"royalty_amount"`

	Recipe Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	Buyer  User   `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller User   `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}
