// internal/models/recipe.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Recipe is a uniquely-owned digital asset. The royalty term (receiver +
// basis points) is fixed at mint time and only ever read afterwards.
type Recipe struct {
	BaseModel
	CreatorID         uuid.UUID      `json:"creator_id" gorm:"type:uuid;not null;index"`
	OwnerID           uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title             string         `json:"title" gorm:"size:255;not null"`
	Description       string         `json:"description" gorm:"type:text"`
	Category          string         `json:"category" gorm:"size:100;index"`
	Images            pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags              pq.StringArray `json:"tags" gorm:"type:text[]"`
	Metadata          JSONB          `json:"metadata" gorm:"type:jsonb"`
	Status            RecipeStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	RoyaltyReceiverID uuid.UUID      `json:"royalty_receiver_id" gorm:"type:uuid;not null"`
	RoyaltyBps        int64          `json:"royalty_bps" gorm:"not null;default:0"`

	// MarketApproved grants the marketplace transfer authority over this
	// asset only. It is cleared on every ownership transfer.
	MarketApproved bool `json:"market_approved" gorm:"default:false"`

	Creator User `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Owner   User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// RoyaltyAmount computes the royalty cut of salePrice in smallest units.
func (r *Recipe) RoyaltyAmount(salePrice int64) int64 {
	return salePrice * r.RoyaltyBps / 10000
}

// OperatorApproval grants the marketplace transfer authority over every asset
// an owner holds, the operator-for-all counterpart of Recipe.MarketApproved.
type OperatorApproval struct {
	BaseModel
	OwnerID  uuid.UUID `json:"owner_id" gorm:"type:uuid;uniqueIndex;not null"`
	Approved bool      `json:"approved" gorm:"default:false"`
}
