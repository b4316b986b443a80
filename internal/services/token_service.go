// internal/services/token_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
)

// TokenService is the fungible-payment collaborator: it owns per-holder token
// balances and the admin-curated allow-list, and moves value between holders.
// Transfers always run against the caller's transaction handle so the whole
// settlement either commits or rolls back as one unit.
type TokenService struct {
	db     *gorm.DB
	config *config.Config
}

type TopUpRequest struct {
	Token  string `json:"token" validate:"required"`
	Amount int64  `json:"amount" validate:"required,min=1"`
}

type TopUpIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

func NewTokenService(db *gorm.DB, config *config.Config) *TokenService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &TokenService{
		db:     db,
		config: config,
	}
}

// IsAllowListed reports whether symbol is an enabled payment token.
func (s *TokenService) IsAllowListed(db *gorm.DB, symbol string) (bool, error) {
	var count int64
	if err := db.Model(&models.PaymentToken{}).
		Where("symbol = ? AND enabled = ?", symbol, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check token allow-list: %w", err)
	}
	return count > 0, nil
}

// Balance returns holder's balance of token in smallest units.
func (s *TokenService) Balance(db *gorm.DB, holderID uuid.UUID, token string) (int64, error) {
	var balance models.TokenBalance
	err := db.Where("holder_id = ? AND token = ?", holderID, token).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance.Amount, nil
}

// BalanceOf is the handler-facing read against the service's own connection.
func (s *TokenService) BalanceOf(holderID uuid.UUID, token string) (int64, error) {
	return s.Balance(s.db, holderID, token)
}

// Transfer moves amount of token from one holder to another inside tx. Any
// failure is fatal to the caller's whole operation.
func (s *TokenService) Transfer(tx *gorm.DB, fromID, toID uuid.UUID, token string, amount int64) error {
	if amount <= 0 {
		return apperrors.ErrInvalidPrice
	}

	if err := s.debit(tx, fromID, token, amount); err != nil {
		return err
	}

	return s.credit(tx, toID, token, amount)
}

func (s *TokenService) debit(tx *gorm.DB, holderID uuid.UUID, token string, amount int64) error {
	var balance models.TokenBalance
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("holder_id = ? AND token = ?", holderID, token).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrInsufficientBalance
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	if balance.Amount < amount {
		return apperrors.ErrInsufficientBalance
	}

	if err := tx.Model(&balance).
		UpdateColumn("amount", gorm.Expr("amount - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	return nil
}

func (s *TokenService) credit(tx *gorm.DB, holderID uuid.UUID, token string, amount int64) error {
	var balance models.TokenBalance
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("holder_id = ? AND token = ?", holderID, token).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.TokenBalance{
			HolderID: holderID,
			Token:    token,
			Amount:   amount,
		}
		if err := tx.Create(&balance).Error; err != nil {
			return fmt.Errorf("failed to create balance: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	if err := tx.Model(&balance).
		UpdateColumn("amount", gorm.Expr("amount + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	return nil
}

// Mint credits freshly issued units to a holder. Used by the top-up flow and
// by tests to fund accounts.
func (s *TokenService) Mint(tx *gorm.DB, holderID uuid.UUID, token string, amount int64) error {
	if amount <= 0 {
		return apperrors.ErrInvalidPrice
	}
	return s.credit(tx, holderID, token, amount)
}

// CreateTopUp opens a Stripe payment intent that, once confirmed, credits the
// user's balance of the requested token.
func (s *TokenService) CreateTopUp(userID uuid.UUID, req *TopUpRequest) (*TopUpIntentResponse, error) {
	allowed, err := s.IsAllowListed(s.db, req.Token)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrUnsupportedToken
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String("usd"),
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("token", req.Token)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPaymentTransferFailed, "failed to create payment intent (%v)", err)
	}

	topUp := &models.TopUp{
		UserID:          userID,
		Token:           req.Token,
		Amount:          req.Amount,
		PaymentIntentID: pi.ID,
	}
	if err := s.db.Create(topUp).Error; err != nil {
		return nil, fmt.Errorf("failed to record top-up: %w", err)
	}

	return &TopUpIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmTopUp credits the balance once the Stripe payment succeeded. The
// credit happens at most once per payment intent.
func (s *TokenService) ConfirmTopUp(paymentIntentID string) error {
	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPaymentTransferFailed, "failed to get payment intent (%v)", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return apperrors.ErrPaymentTransferFailed
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var topUp models.TopUp
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("payment_intent_id = ?", paymentIntentID).
			First(&topUp).Error; err != nil {
			return fmt.Errorf("top-up not found: %w", err)
		}

		if topUp.Credited {
			return nil
		}

		if err := s.credit(tx, topUp.UserID, topUp.Token, topUp.Amount); err != nil {
			return err
		}

		if err := tx.Model(&topUp).UpdateColumn("credited", true).Error; err != nil {
			return fmt.Errorf("failed to mark top-up credited: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"user_id": topUp.UserID,
			"token":   topUp.Token,
			"amount":  topUp.Amount,
		}).Info("Top-up credited")

		return nil
	})
}
