// internal/services/events.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/models"
)

// writeEvent appends to the durable audit trail inside the caller's
// transaction, so an event exists iff the state change committed.
func writeEvent(tx *gorm.DB, eventType models.EventType, actorID uuid.UUID, payload models.JSONB) error {
	event := &models.MarketEvent{
		Type:    eventType,
		Payload: payload,
	}
	if actorID != uuid.Nil {
		event.ActorID = &actorID
	}
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to write %s event: %w", eventType, err)
	}
	return nil
}
