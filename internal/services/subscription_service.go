// internal/services/subscription_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
)

// SubscriptionService is the entitlement registry: it owns subscription
// records and premium flags, and exposes the entitlement predicate every
// other component consults.
type SubscriptionService struct {
	db     *gorm.DB
	config *config.Config
	tokens *TokenService
	pause  *PauseRegistry

	// now is swappable for tests.
	now func() time.Time
}

type PurchaseSubscriptionRequest struct {
	PaymentToken string `json:"payment_token" validate:"required"`
}

func NewSubscriptionService(db *gorm.DB, cfg *config.Config, tokens *TokenService, pause *PauseRegistry) *SubscriptionService {
	return &SubscriptionService{
		db:     db,
		config: cfg,
		tokens: tokens,
		pause:  pause,
		now:    time.Now,
	}
}

// Purchase starts a new fixed-length subscription term. A new purchase is
// permitted only when no term exists, the previous term was cancelled, or the
// previous term has expired.
func (s *SubscriptionService) Purchase(userID uuid.UUID, req *PurchaseSubscriptionRequest) (*models.Subscription, error) {
	if err := s.pause.Check(ComponentSubscriptions); err != nil {
		return nil, err
	}

	allowed, err := s.tokens.IsAllowListed(s.db, req.PaymentToken)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrInvalidToken
	}

	price, err := s.CurrentPrice()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var subscription models.Subscription

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("user_id = ?", userID).
			First(&subscription).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to read subscription: %w", err)
		}

		if err == nil && subscription.ActiveAt(now) {
			return apperrors.ErrSubscriptionActive
		}

		// Debit the subscriber before touching the record; the transaction
		// boundary makes the whole purchase all-or-nothing.
		if err := s.tokens.Transfer(tx, userID, models.RegistryCustodyID, req.PaymentToken, price); err != nil {
			return err
		}

		start := now
		end := now.Add(time.Duration(s.config.Marketplace.SubscriptionTermDays) * 24 * time.Hour)

		subscription.UserID = userID
		subscription.StartTime = start
		subscription.EndTime = end
		subscription.IsSubscribed = true
		subscription.IsCancelled = false
		subscription.PaymentToken = req.PaymentToken
		subscription.PricePaid = price

		if err := tx.Save(&subscription).Error; err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}

		return writeEvent(tx, models.EventSubscriptionPurchased, userID, models.JSONB{
			"identity": userID.String(),
			"start":    start.Unix(),
			"end":      end.Unix(),
			"token":    req.PaymentToken,
			"price":    price,
		})
	})

	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"end":     subscription.EndTime,
		"token":   req.PaymentToken,
	}).Info("Subscription purchased")

	return &subscription, nil
}

// Cancel administratively terminates a subscription. Entitlement is revoked
// immediately: the zeroed end time plus the cancelled flag is the terminal
// fully-expired state.
func (s *SubscriptionService) Cancel(adminID, userID uuid.UUID) error {
	if err := s.pause.Check(ComponentSubscriptions); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var subscription models.Subscription
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("user_id = ?", userID).
			First(&subscription).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotSubscribed
		}
		if err != nil {
			return fmt.Errorf("failed to read subscription: %w", err)
		}

		if subscription.IsCancelled {
			return apperrors.ErrAlreadyCancelled
		}

		now := s.now()
		updates := map[string]interface{}{
			"end_time":     time.Time{},
			"is_cancelled": true,
		}
		if err := tx.Model(&subscription).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}

		return writeEvent(tx, models.EventSubscriptionCancelled, adminID, models.JSONB{
			"identity": userID.String(),
			"time":     now.Unix(),
		})
	})
}

// SetPremium unconditionally sets the entitlement override flag.
func (s *SubscriptionService) SetPremium(userID uuid.UUID, enabled bool) error {
	if err := s.pause.Check(ComponentSubscriptions); err != nil {
		return err
	}

	var flag models.PremiumFlag
	err := s.db.Where("user_id = ?", userID).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		flag = models.PremiumFlag{UserID: userID, Enabled: enabled}
		return s.db.Create(&flag).Error
	}
	if err != nil {
		return fmt.Errorf("failed to read premium flag: %w", err)
	}

	return s.db.Model(&flag).UpdateColumn("enabled", enabled).Error
}

// SetPrice updates the price charged on the next purchase. Active terms are
// unaffected.
func (s *SubscriptionService) SetPrice(adminID uuid.UUID, newPrice int64) error {
	if err := s.pause.Check(ComponentSubscriptions); err != nil {
		return err
	}

	if newPrice <= 0 {
		return apperrors.ErrInvalidPrice
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var setting models.Setting
		if err := tx.Where("key = ?", models.SettingSubscriptionPrice).First(&setting).Error; err != nil {
			return fmt.Errorf("failed to read price setting: %w", err)
		}

		oldPrice := settingInt64(setting.Value)
		setting.Value = models.JSONB{"value": newPrice}
		if err := tx.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update price setting: %w", err)
		}

		// The price applies uniformly to every allow-listed payment token.
		return writeEvent(tx, models.EventSubscriptionPriceUpdate, adminID, models.JSONB{
			"tokens": s.config.Marketplace.PaymentTokens,
			"old":    oldPrice,
			"new":    newPrice,
		})
	})
}

// Withdraw moves the registry's custodied balance of token to the
// administrative beneficiary.
func (s *SubscriptionService) Withdraw(adminID uuid.UUID, token string) (int64, error) {
	if err := s.pause.Check(ComponentSubscriptions); err != nil {
		return 0, err
	}

	var amount int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.tokens.Balance(tx, models.RegistryCustodyID, token)
		if err != nil {
			return err
		}
		if balance == 0 {
			return apperrors.ErrNothingToWithdraw
		}

		if err := s.tokens.Transfer(tx, models.RegistryCustodyID, adminID, token, balance); err != nil {
			return err
		}

		amount = balance
		return writeEvent(tx, models.EventTokenWithdrawn, adminID, models.JSONB{
			"token":  token,
			"amount": balance,
			"to":     adminID.String(),
		})
	})

	if err != nil {
		return 0, err
	}
	return amount, nil
}

// IsEntitled is the entitlement gate: a premium flag or a live un-cancelled
// subscription grants entitlement. Pure read, safe to call from any other
// component. Callers inside a transaction pass their handle; nil falls back
// to the service's own connection.
func (s *SubscriptionService) IsEntitled(db *gorm.DB, userID uuid.UUID) (bool, error) {
	if db == nil {
		db = s.db
	}

	var flag models.PremiumFlag
	err := db.Where("user_id = ? AND enabled = ?", userID, true).First(&flag).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to read premium flag: %w", err)
	}

	var subscription models.Subscription
	err = db.Where("user_id = ?", userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read subscription: %w", err)
	}

	return subscription.ActiveAt(s.now()), nil
}

// GetSubscription returns the subscription record for an identity, if any.
func (s *SubscriptionService) GetSubscription(userID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.Where("user_id = ?", userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotSubscribed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	return &subscription, nil
}

// CurrentPrice reads the admin-set subscription price.
func (s *SubscriptionService) CurrentPrice() (int64, error) {
	var setting models.Setting
	err := s.db.Where("key = ?", models.SettingSubscriptionPrice).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.config.Marketplace.SubscriptionPrice, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read price setting: %w", err)
	}
	return settingInt64(setting.Value), nil
}

func settingInt64(value models.JSONB) int64 {
	switch v := value["value"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
