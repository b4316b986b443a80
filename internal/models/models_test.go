// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := Subscription{
		IsSubscribed: true,
		StartTime:    now,
		EndTime:      now.Add(365 * 24 * time.Hour),
	}

	assert.True(t, sub.ActiveAt(now))
	assert.True(t, sub.ActiveAt(sub.EndTime), "the end instant itself is still covered")
	assert.False(t, sub.ActiveAt(sub.EndTime.Add(time.Second)))

	cancelled := sub
	cancelled.IsCancelled = true
	cancelled.EndTime = time.Time{}
	assert.False(t, cancelled.ActiveAt(now))

	never := Subscription{}
	assert.False(t, never.ActiveAt(now))
}

func TestRecipeRoyaltyAmount(t *testing.T) {
	recipe := Recipe{RoyaltyBps: 500}

	assert.Equal(t, int64(500), recipe.RoyaltyAmount(10_000))
	assert.Equal(t, int64(0), recipe.RoyaltyAmount(0))
	// Integer division floors, never rounds up.
	assert.Equal(t, int64(0), recipe.RoyaltyAmount(19))
	assert.Equal(t, int64(4), recipe.RoyaltyAmount(99))

	flat := Recipe{RoyaltyBps: 0}
	assert.Equal(t, int64(0), flat.RoyaltyAmount(10_000))
}
