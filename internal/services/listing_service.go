// internal/services/listing_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
	"github.com/forkchain/recipe-market/internal/utils"
)

// ListingService is the listing book: it owns the recipe-id → active-listing
// mapping and enforces single-active-listing and authorization-to-list.
type ListingService struct {
	db            *gorm.DB
	config        *config.Config
	subscriptions *SubscriptionService
	recipes       *RecipeService
	pause         *PauseRegistry
}

type ListRecipeRequest struct {
	RecipeID     uuid.UUID `json:"recipe_id" validate:"required"`
	Price        int64     `json:"price"`
	PaymentToken string    `json:"payment_token" validate:"required"`
}

type BatchListRequest struct {
	RecipeIDs    []uuid.UUID `json:"recipe_ids" validate:"required,min=1"`
	Price        int64       `json:"price"`
	PaymentToken string      `json:"payment_token" validate:"required"`
}

// BatchListOutcome reports what happened to one asset in a batch. The default
// behavior is skip-and-continue; callers that care can introspect Reason.
type BatchListOutcome struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	Listed   bool      `json:"listed"`
	Reason   string    `json:"reason,omitempty"`
}

type UpdateListingRequest struct {
	Price        int64  `json:"price"`
	PaymentToken string `json:"payment_token" validate:"required"`
}

type ListingSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID `json:"seller_id,omitempty"`
	Token    string     `json:"token,omitempty"`
	PriceMin *int64     `json:"price_min,omitempty"`
	PriceMax *int64     `json:"price_max,omitempty"`
}

func NewListingService(db *gorm.DB, cfg *config.Config, subscriptions *SubscriptionService, recipes *RecipeService, pause *PauseRegistry) *ListingService {
	return &ListingService{
		db:            db,
		config:        cfg,
		subscriptions: subscriptions,
		recipes:       recipes,
		pause:         pause,
	}
}

// List creates the single active listing for a recipe. Sellers must be
// entitled; the checks run in a fixed order so callers see stable errors.
func (s *ListingService) List(sellerID uuid.UUID, req *ListRecipeRequest) (*models.Listing, error) {
	if err := s.pause.Check(ComponentListings); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	entitled, err := s.subscriptions.IsEntitled(s.db, sellerID)
	if err != nil {
		return nil, err
	}
	if !entitled {
		return nil, apperrors.ErrNotEntitled
	}

	var listing *models.Listing
	err = s.db.Transaction(func(tx *gorm.DB) error {
		recipe, err := s.loadRecipe(tx, req.RecipeID)
		if err != nil {
			return err
		}

		if err := s.checkListable(tx, recipe, sellerID, req.Price, req.PaymentToken); err != nil {
			return err
		}

		listing = &models.Listing{
			RecipeID:     req.RecipeID,
			SellerID:     sellerID,
			Price:        req.Price,
			PaymentToken: req.PaymentToken,
		}
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}

		return writeEvent(tx, models.EventRecipeListed, sellerID, models.JSONB{
			"recipe_id": req.RecipeID.String(),
			"seller":    sellerID.String(),
			"price":     req.Price,
			"token":     req.PaymentToken,
		})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"recipe_id": req.RecipeID,
		"seller_id": sellerID,
		"price":     req.Price,
	}).Info("Recipe listed")

	return listing, nil
}

// BatchList lists many recipes at one shared price and token. Shared checks
// (entitlement, price, token, batch size) run once and fail the whole call;
// per-asset failures are skipped silently with no undo of entries already
// written.
func (s *ListingService) BatchList(sellerID uuid.UUID, req *BatchListRequest) ([]BatchListOutcome, error) {
	if err := s.pause.Check(ComponentListings); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if len(req.RecipeIDs) > s.config.Marketplace.MaxBatchSize {
		return nil, apperrors.ErrBatchTooLarge
	}

	if req.Price <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}

	allowed, err := s.tokenAllowed(s.db, req.PaymentToken)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrUnsupportedToken
	}

	entitled, err := s.subscriptions.IsEntitled(s.db, sellerID)
	if err != nil {
		return nil, err
	}
	if !entitled {
		return nil, apperrors.ErrNotEntitled
	}

	outcomes := make([]BatchListOutcome, 0, len(req.RecipeIDs))
	for _, recipeID := range req.RecipeIDs {
		outcome := BatchListOutcome{RecipeID: recipeID}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			recipe, err := s.loadRecipe(tx, recipeID)
			if err != nil {
				return err
			}

			if err := s.checkListable(tx, recipe, sellerID, req.Price, req.PaymentToken); err != nil {
				return err
			}

			listing := &models.Listing{
				RecipeID:     recipeID,
				SellerID:     sellerID,
				Price:        req.Price,
				PaymentToken: req.PaymentToken,
			}
			if err := tx.Create(listing).Error; err != nil {
				return fmt.Errorf("failed to create listing: %w", err)
			}

			return writeEvent(tx, models.EventRecipeListed, sellerID, models.JSONB{
				"recipe_id": recipeID.String(),
				"seller":    sellerID.String(),
				"price":     req.Price,
				"token":     req.PaymentToken,
			})
		})
		if err != nil {
			// Skip and continue; the per-item outcome carries the reason.
			outcome.Reason = apperrors.CodeOf(err)
		} else {
			outcome.Listed = true
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// Cancel removes the active listing for a recipe.
func (s *ListingService) Cancel(sellerID, recipeID uuid.UUID) error {
	if err := s.pause.Check(ComponentListings); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("recipe_id = ?", recipeID).
			First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotListed
		}
		if err != nil {
			return fmt.Errorf("failed to read listing: %w", err)
		}

		owner, err := s.recipes.OwnerOf(tx, recipeID)
		if err != nil {
			return err
		}
		if owner != sellerID {
			return apperrors.ErrNotOwner
		}

		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		return writeEvent(tx, models.EventRecipeCancelled, sellerID, models.JSONB{
			"recipe_id": recipeID.String(),
			"seller":    sellerID.String(),
		})
	})
}

// Update mutates price and token of the existing listing in place. The
// listing slot is unchanged; a fresh listed event carries the new terms.
func (s *ListingService) Update(sellerID, recipeID uuid.UUID, req *UpdateListingRequest) (*models.Listing, error) {
	if err := s.pause.Check(ComponentListings); err != nil {
		return nil, err
	}

	var listing models.Listing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("recipe_id = ?", recipeID).
			First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotListed
		}
		if err != nil {
			return fmt.Errorf("failed to read listing: %w", err)
		}

		owner, err := s.recipes.OwnerOf(tx, recipeID)
		if err != nil {
			return err
		}
		if owner != sellerID {
			return apperrors.ErrNotOwner
		}

		if req.Price <= 0 {
			return apperrors.ErrInvalidPrice
		}

		allowed, err := s.tokenAllowed(tx, req.PaymentToken)
		if err != nil {
			return err
		}
		if !allowed {
			return apperrors.ErrUnsupportedToken
		}

		updates := map[string]interface{}{
			"price":         req.Price,
			"payment_token": req.PaymentToken,
		}
		if err := tx.Model(&listing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update listing: %w", err)
		}

		return writeEvent(tx, models.EventRecipeListed, sellerID, models.JSONB{
			"recipe_id": recipeID.String(),
			"seller":    sellerID.String(),
			"price":     req.Price,
			"token":     req.PaymentToken,
		})
	})
	if err != nil {
		return nil, err
	}

	return &listing, nil
}

// GetListing returns the active listing for a recipe, if any. Pure read.
func (s *ListingService) GetListing(recipeID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Preload("Recipe").Preload("Seller").
		Where("recipe_id = ?", recipeID).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotListed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	return &listing, nil
}

// SearchListings browses active listings with pagination.
func (s *ListingService) SearchListings(params ListingSearchParams) ([]models.Listing, int64, error) {
	query := s.db.Model(&models.Listing{}).Preload("Recipe").Preload("Seller")

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if params.Token != "" {
		query = query.Where("payment_token = ?", params.Token)
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return listings, total, nil
}

// loadRecipe reads a recipe for listing checks; a missing asset surfaces as
// NotOwner since the caller cannot own what does not exist.
func (s *ListingService) loadRecipe(tx *gorm.DB, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := tx.First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotOwner
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return &recipe, nil
}

// checkListable runs the per-asset listing preconditions in a fixed order:
// ownership, price, token, single-listing, approval, royalty bound.
func (s *ListingService) checkListable(tx *gorm.DB, recipe *models.Recipe, sellerID uuid.UUID, price int64, token string) error {
	if recipe.OwnerID != sellerID {
		return apperrors.ErrNotOwner
	}

	if price <= 0 {
		return apperrors.ErrInvalidPrice
	}

	allowed, err := s.tokenAllowed(tx, token)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrUnsupportedToken
	}

	var count int64
	if err := tx.Model(&models.Listing{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing listing: %w", err)
	}
	if count > 0 {
		return apperrors.ErrAlreadyListed
	}

	approved, err := s.recipes.IsMarketApproved(tx, recipe)
	if err != nil {
		return err
	}
	if !approved {
		return apperrors.ErrNotApproved
	}

	if recipe.RoyaltyAmount(price) > price {
		return apperrors.ErrRoyaltyExceedsPrice
	}

	return nil
}

func (s *ListingService) tokenAllowed(db *gorm.DB, symbol string) (bool, error) {
	var count int64
	if err := db.Model(&models.PaymentToken{}).
		Where("symbol = ? AND enabled = ?", symbol, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check token allow-list: %w", err)
	}
	return count > 0, nil
}
