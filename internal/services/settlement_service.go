// internal/services/settlement_service.go
package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
	"github.com/forkchain/recipe-market/internal/utils"
)

// SettlementService executes purchases against the listing book. A buy is one
// indivisible unit: royalty split, seller payment, asset transfer, and listing
// removal either all commit or none do.
type SettlementService struct {
	db      *gorm.DB
	config  *config.Config
	tokens  *TokenService
	recipes *RecipeService
	pause   *PauseRegistry

	// inFlight guards each asset against a second buy entering while one is
	// executing. The listing row is also deleted before any transfer, so the
	// lock is a second line of defense, not the only one.
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

type BuyRequest struct {
	RecipeID uuid.UUID `json:"recipe_id" validate:"required"`
	// ExpectedPrice is the price the buyer saw when quoting. The buy fails if
	// the listing price moved in between.
	ExpectedPrice int64 `json:"expected_price" validate:"required"`
}

func NewSettlementService(db *gorm.DB, cfg *config.Config, tokens *TokenService, recipes *RecipeService, pause *PauseRegistry) *SettlementService {
	return &SettlementService{
		db:       db,
		config:   cfg,
		tokens:   tokens,
		recipes:  recipes,
		pause:    pause,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

func (s *SettlementService) lockAsset(recipeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inFlight[recipeID]; held {
		return apperrors.ErrSettlementInFlight
	}
	s.inFlight[recipeID] = struct{}{}
	return nil
}

func (s *SettlementService) unlockAsset(recipeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, recipeID)
}

// Buy settles a purchase. Buyers need no entitlement; only sellers are gated
// at listing time. The listing is deleted before any transfer so the asset
// cannot be bought twice; a transfer failure rolls the whole transaction back,
// which restores the listing's pre-call state.
func (s *SettlementService) Buy(buyerID uuid.UUID, req *BuyRequest) (*models.Sale, error) {
	if err := s.pause.Check(ComponentSettlement); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.lockAsset(req.RecipeID); err != nil {
		return nil, err
	}
	defer s.unlockAsset(req.RecipeID)

	var sale *models.Sale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("recipe_id = ?", req.RecipeID).
			First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotListed
		}
		if err != nil {
			return fmt.Errorf("failed to read listing: %w", err)
		}

		if listing.Price != req.ExpectedPrice {
			return apperrors.ErrPriceChanged
		}

		var recipe models.Recipe
		if err := tx.First(&recipe, req.RecipeID).Error; err != nil {
			return fmt.Errorf("failed to read recipe: %w", err)
		}

		royaltyReceiver, royaltyAmount := s.recipes.RoyaltyInfo(&recipe, listing.Price)
		if royaltyAmount > listing.Price {
			return apperrors.ErrRoyaltyExceedsPrice
		}

		// Delete the listing before any transfer. This ordering is the core
		// correctness device: the listing cannot be bought twice even if a
		// downstream step calls back into the engine.
		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		if royaltyAmount > 0 {
			if err := s.tokens.Transfer(tx, buyerID, royaltyReceiver, listing.PaymentToken, royaltyAmount); err != nil {
				return err
			}
		}

		sellerAmount := listing.Price - royaltyAmount
		if sellerAmount > 0 {
			if err := s.tokens.Transfer(tx, buyerID, listing.SellerID, listing.PaymentToken, sellerAmount); err != nil {
				return err
			}
		}

		if err := s.recipes.SafeTransferFrom(tx, listing.SellerID, buyerID, req.RecipeID); err != nil {
			return err
		}

		sale = &models.Sale{
			RecipeID:          req.RecipeID,
			BuyerID:           buyerID,
			SellerID:          listing.SellerID,
			Price:             listing.Price,
			PaymentToken:      listing.PaymentToken,
			RoyaltyReceiverID: royaltyReceiver,
			RoyaltyAmount:     royaltyAmount,
		}
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}

		return writeEvent(tx, models.EventRecipeSold, buyerID, models.JSONB{
			"recipe_id": req.RecipeID.String(),
			"buyer":     buyerID.String(),
			"seller":    listing.SellerID.String(),
			"price":     listing.Price,
			"token":     listing.PaymentToken,
			"royalty":   royaltyAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"recipe_id": req.RecipeID,
		"buyer_id":  buyerID,
		"seller_id": sale.SellerID,
		"price":     sale.Price,
		"royalty":   sale.RoyaltyAmount,
	}).Info("Recipe sold")

	return sale, nil
}

// GetSaleHistory lists settlements where the user was buyer or seller.
func (s *SettlementService) GetSaleHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Sale, int64, error) {
	query := s.db.Model(&models.Sale{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Preload("Recipe")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	allowedSortFields := []string{"created_at", "price"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sales: %w", err)
	}

	return sales, total, nil
}

// GetEvents pages through the durable audit trail.
func (s *SettlementService) GetEvents(eventType string, params utils.PaginationParams) ([]models.MarketEvent, int64, error) {
	query := s.db.Model(&models.MarketEvent{})
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var events []models.MarketEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, total, nil
}
