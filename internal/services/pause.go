// internal/services/pause.go
package services

import (
	"sync"

	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/models"
)

// Component names for the pause circuit breaker.
const (
	ComponentSubscriptions = "subscriptions"
	ComponentListings      = "listings"
	ComponentSettlement    = "settlement"
)

// PauseRegistry is the admin-controlled circuit breaker. Mutating entry
// points call Check before doing anything; pure reads never consult it.
// Flags are cached in memory and persisted so they survive restarts.
type PauseRegistry struct {
	db     *gorm.DB
	mu     sync.RWMutex
	paused map[string]bool
}

func NewPauseRegistry(db *gorm.DB) *PauseRegistry {
	p := &PauseRegistry{
		db:     db,
		paused: make(map[string]bool),
	}
	p.load()
	return p
}

func (p *PauseRegistry) load() {
	var settings []models.Setting
	if err := p.db.Where("key LIKE ?", models.SettingPausePrefix+"%").Find(&settings).Error; err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range settings {
		if v, ok := s.Value["value"].(bool); ok {
			p.paused[s.Key[len(models.SettingPausePrefix):]] = v
		}
	}
}

func (p *PauseRegistry) Check(component string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.paused[component] {
		return apperrors.ErrPaused
	}
	return nil
}

func (p *PauseRegistry) IsPaused(component string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused[component]
}

func (p *PauseRegistry) SetPaused(component string, paused bool) error {
	key := models.SettingPausePrefix + component

	var setting models.Setting
	err := p.db.Where("key = ?", key).First(&setting).Error
	if err == gorm.ErrRecordNotFound {
		setting = models.Setting{
			Key:         key,
			Value:       models.JSONB{"value": paused},
			Description: "Circuit breaker for the " + component + " component",
		}
		err = p.db.Create(&setting).Error
	} else if err == nil {
		setting.Value = models.JSONB{"value": paused}
		err = p.db.Save(&setting).Error
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.paused[component] = paused
	p.mu.Unlock()
	return nil
}
