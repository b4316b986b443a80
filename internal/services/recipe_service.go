// internal/services/recipe_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
	"github.com/forkchain/recipe-market/internal/utils"
)

// RecipeService is the asset-ownership registry: minting, ownership reads,
// marketplace approvals, transfers, and royalty terms.
type RecipeService struct {
	db            *gorm.DB
	config        *config.Config
	subscriptions *SubscriptionService
}

type MintRecipeRequest struct {
	Title           string                 `json:"title" validate:"required,min=3,max=255"`
	Description     string                 `json:"description" validate:"required,min=10"`
	Category        string                 `json:"category" validate:"required"`
	Copies          int                    `json:"copies" validate:"required"`
	RoyaltyReceiver uuid.UUID              `json:"royalty_receiver" validate:"required"`
	RoyaltyBps      int64                  `json:"royalty_bps" validate:"min=0"`
	Images          []string               `json:"images,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

type RecipeSearchParams struct {
	utils.PaginationParams
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatorID *uuid.UUID `json:"creator_id,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

func NewRecipeService(db *gorm.DB, cfg *config.Config, subscriptions *SubscriptionService) *RecipeService {
	return &RecipeService{
		db:            db,
		config:        cfg,
		subscriptions: subscriptions,
	}
}

// Mint creates up to MaxMintCopies unique recipe assets sharing one metadata
// set and royalty term. Minting is gated on entitlement.
func (s *RecipeService) Mint(creatorID uuid.UUID, req *MintRecipeRequest) ([]models.Recipe, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.Copies < 1 || req.Copies > s.config.Marketplace.MaxMintCopies {
		return nil, apperrors.ErrCopiesOutOfRange
	}

	if req.RoyaltyBps < 0 || req.RoyaltyBps > s.config.Marketplace.MaxRoyaltyBps {
		return nil, apperrors.ErrRoyaltyTooHigh
	}

	if req.RoyaltyReceiver == uuid.Nil {
		return nil, apperrors.ErrInvalidIdentity
	}

	entitled, err := s.subscriptions.IsEntitled(s.db, creatorID)
	if err != nil {
		return nil, err
	}
	if !entitled {
		return nil, apperrors.ErrNotEntitled
	}

	recipes := make([]models.Recipe, 0, req.Copies)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < req.Copies; i++ {
			recipe := models.Recipe{
				CreatorID:         creatorID,
				OwnerID:           creatorID,
				Title:             req.Title,
				Description:       req.Description,
				Category:          req.Category,
				Images:            req.Images,
				Tags:              req.Tags,
				Metadata:          models.JSONB(req.Metadata),
				Status:            models.RecipeStatusActive,
				RoyaltyReceiverID: req.RoyaltyReceiver,
				RoyaltyBps:        req.RoyaltyBps,
			}
			if err := tx.Create(&recipe).Error; err != nil {
				return fmt.Errorf("failed to mint recipe: %w", err)
			}
			recipes = append(recipes, recipe)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"creator_id": creatorID,
		"copies":     req.Copies,
		"title":      req.Title,
	}).Info("Recipes minted")

	return recipes, nil
}

// OwnerOf returns the current owner of a recipe.
func (s *RecipeService) OwnerOf(db *gorm.DB, recipeID uuid.UUID) (uuid.UUID, error) {
	var recipe models.Recipe
	err := db.Select("owner_id").Where("id = ?", recipeID).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, apperrors.ErrNotOwner
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return recipe.OwnerID, nil
}

// GetRecipe loads a recipe with its owner and creator.
func (s *RecipeService) GetRecipe(recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Preload("Creator").Preload("Owner").First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("recipe not found")
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &recipe, nil
}

// IsMarketApproved reports whether the marketplace holds transfer authority
// over the recipe, either per-asset or operator-for-all.
func (s *RecipeService) IsMarketApproved(db *gorm.DB, recipe *models.Recipe) (bool, error) {
	if recipe.MarketApproved {
		return true, nil
	}

	var approval models.OperatorApproval
	err := db.Where("owner_id = ? AND approved = ?", recipe.OwnerID, true).First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read operator approval: %w", err)
	}
	return true, nil
}

// Approve grants or revokes the marketplace's transfer authority over one
// recipe. Only the current owner may call it.
func (s *RecipeService) Approve(ownerID, recipeID uuid.UUID, approved bool) error {
	var recipe models.Recipe
	err := s.db.First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New("recipe not found")
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	if recipe.OwnerID != ownerID {
		return apperrors.ErrNotOwner
	}

	return s.db.Model(&recipe).UpdateColumn("market_approved", approved).Error
}

// SetApprovalForAll grants or revokes marketplace transfer authority over
// every asset the owner holds.
func (s *RecipeService) SetApprovalForAll(ownerID uuid.UUID, approved bool) error {
	var approval models.OperatorApproval
	err := s.db.Where("owner_id = ?", ownerID).First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		approval = models.OperatorApproval{OwnerID: ownerID, Approved: approved}
		return s.db.Create(&approval).Error
	}
	if err != nil {
		return fmt.Errorf("failed to read operator approval: %w", err)
	}

	return s.db.Model(&approval).UpdateColumn("approved", approved).Error
}

// SafeTransferFrom moves ownership inside the caller's transaction. The
// per-asset approval is cleared on transfer so a new owner starts clean.
func (s *RecipeService) SafeTransferFrom(tx *gorm.DB, fromID, toID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	err := tx.Set("gorm:query_option", "FOR UPDATE").First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrAssetTransferFailed
	}
	if err != nil {
		return fmt.Errorf("failed to read recipe: %w", err)
	}

	if recipe.OwnerID != fromID {
		return apperrors.ErrAssetTransferFailed
	}

	updates := map[string]interface{}{
		"owner_id":        toID,
		"market_approved": false,
	}
	if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrAssetTransferFailed, "failed to transfer recipe (%v)", err)
	}
	return nil
}

// RoyaltyInfo returns the royalty receiver and amount for a sale price.
func (s *RecipeService) RoyaltyInfo(recipe *models.Recipe, salePrice int64) (uuid.UUID, int64) {
	return recipe.RoyaltyReceiverID, recipe.RoyaltyAmount(salePrice)
}

// SearchRecipes lists recipes with pagination and filters.
func (s *RecipeService) SearchRecipes(params RecipeSearchParams) ([]models.Recipe, int64, error) {
	query := s.db.Model(&models.Recipe{}).
		Where("status = ?", models.RecipeStatusActive).
		Preload("Creator").Preload("Owner")

	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}

	if params.CreatorID != nil {
		query = query.Where("creator_id = ?", *params.CreatorID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pq.Array(params.Tags))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "category"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch recipes: %w", err)
	}

	return recipes, total, nil
}

// AttachImages appends uploaded image URLs to a recipe.
func (s *RecipeService) AttachImages(ownerID, recipeID uuid.UUID, urls []string) error {
	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("recipe not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if recipe.OwnerID != ownerID {
		return apperrors.ErrNotOwner
	}

	recipe.Images = append(recipe.Images, urls...)
	return s.db.Model(&recipe).UpdateColumn("images", recipe.Images).Error
}
