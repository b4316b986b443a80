// internal/services/recipe_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/models"
)

type RecipeServiceSuite struct {
	marketSuite
}

func (s *RecipeServiceSuite) mintRequest(copies int, bps int64, receiver uuid.UUID) *MintRecipeRequest {
	return &MintRecipeRequest{
		Title:           "Sourdough Country Loaf",
		Description:     "Three day cold ferment with a stiff levain.",
		Category:        "bread",
		Copies:          copies,
		RoyaltyReceiver: receiver,
		RoyaltyBps:      bps,
	}
}

func (s *RecipeServiceSuite) TestMintCreatesUniqueAssets() {
	creator := s.createUser("creator")
	s.grantPremium(creator.ID)

	recipes, err := s.recipes.Mint(creator.ID, s.mintRequest(3, 500, creator.ID))
	s.Require().NoError(err)
	s.Require().Len(recipes, 3)

	seen := make(map[uuid.UUID]bool)
	for _, r := range recipes {
		s.False(seen[r.ID])
		seen[r.ID] = true
		s.Equal(creator.ID, r.OwnerID)
		s.Equal(creator.ID, r.CreatorID)
		s.Equal(int64(500), r.RoyaltyBps)
		s.False(r.MarketApproved)
	}
}

func (s *RecipeServiceSuite) TestMintIsGatedOnEntitlement() {
	creator := s.createUser("creator")

	_, err := s.recipes.Mint(creator.ID, s.mintRequest(1, 0, creator.ID))
	s.ErrorIs(err, apperrors.ErrNotEntitled)
}

func (s *RecipeServiceSuite) TestMintBounds() {
	creator := s.createUser("creator")
	s.grantPremium(creator.ID)

	_, err := s.recipes.Mint(creator.ID, s.mintRequest(101, 0, creator.ID))
	s.ErrorIs(err, apperrors.ErrCopiesOutOfRange)

	_, err = s.recipes.Mint(creator.ID, s.mintRequest(1, 1_001, creator.ID))
	s.ErrorIs(err, apperrors.ErrRoyaltyTooHigh)

	// 100 copies at the 1000 bps cap is the last permitted configuration.
	recipes, err := s.recipes.Mint(creator.ID, s.mintRequest(100, 1_000, creator.ID))
	s.Require().NoError(err)
	s.Len(recipes, 100)
}

func (s *RecipeServiceSuite) TestApprovalLifecycle() {
	owner := s.createUser("owner")
	stranger := s.createUser("stranger")
	recipe := s.createRecipe(owner.ID, owner.ID, 0, false)

	s.ErrorIs(s.recipes.Approve(stranger.ID, recipe.ID, true), apperrors.ErrNotOwner)

	s.Require().NoError(s.recipes.Approve(owner.ID, recipe.ID, true))
	var got models.Recipe
	s.Require().NoError(s.db.First(&got, recipe.ID).Error)
	s.True(got.MarketApproved)

	approved, err := s.recipes.IsMarketApproved(s.db, &got)
	s.Require().NoError(err)
	s.True(approved)
}

func (s *RecipeServiceSuite) TestTransferChecksOwnershipAndClearsApproval() {
	owner := s.createUser("owner")
	buyer := s.createUser("buyer")
	recipe := s.createRecipe(owner.ID, owner.ID, 0, true)

	err := s.recipes.SafeTransferFrom(s.db, buyer.ID, owner.ID, recipe.ID)
	s.ErrorIs(err, apperrors.ErrAssetTransferFailed)

	s.Require().NoError(s.recipes.SafeTransferFrom(s.db, owner.ID, buyer.ID, recipe.ID))

	got, err := s.recipes.OwnerOf(s.db, recipe.ID)
	s.Require().NoError(err)
	s.Equal(buyer.ID, got)

	var after models.Recipe
	s.Require().NoError(s.db.First(&after, recipe.ID).Error)
	s.False(after.MarketApproved)
}

func (s *RecipeServiceSuite) TestRoyaltyInfo() {
	owner := s.createUser("owner")
	receiver := s.createUser("receiver")
	recipe := s.createRecipe(owner.ID, receiver.ID, 250, false)

	who, amount := s.recipes.RoyaltyInfo(recipe, 10_000)
	s.Equal(receiver.ID, who)
	s.Equal(int64(250), amount)

	// Integer division floors sub-unit royalties to zero.
	_, amount = s.recipes.RoyaltyInfo(recipe, 39)
	s.Equal(int64(0), amount)
}

func TestRecipeServiceSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceSuite))
}
