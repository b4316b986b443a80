// internal/services/listing_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/models"
)

type ListingServiceSuite struct {
	marketSuite
}

func (s *ListingServiceSuite) TestListCreatesSingleListing() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 500, true)

	listing, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)
	s.Equal(recipe.ID, listing.RecipeID)
	s.Equal(int64(10_000), listing.Price)
	s.Equal(int64(1), s.countEvents(models.EventRecipeListed))

	got, err := s.listings.GetListing(recipe.ID)
	s.Require().NoError(err)
	s.Equal(listing.ID, got.ID)

	// One active listing per asset.
	_, err = s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        12_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrAlreadyListed)
}

func (s *ListingServiceSuite) TestListRequiresEntitlement() {
	seller := s.createUser("seller")
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrNotEntitled)
}

func (s *ListingServiceSuite) TestListRequiresOwnership() {
	owner := s.createUser("owner")
	stranger := s.createUser("stranger")
	s.grantPremium(stranger.ID)
	recipe := s.createRecipe(owner.ID, owner.ID, 0, true)

	_, err := s.listings.List(stranger.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrNotOwner)
}

func (s *ListingServiceSuite) TestListRequiresMarketApproval() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, false)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrNotApproved)

	// Operator-for-all approval satisfies the same check.
	s.Require().NoError(s.recipes.SetApprovalForAll(seller.ID, true))
	_, err = s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.NoError(err)
}

func (s *ListingServiceSuite) TestListValidatesPriceAndToken() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        0,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrInvalidPrice)

	_, err = s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "DOGE",
	})
	s.ErrorIs(err, apperrors.ErrUnsupportedToken)
}

func (s *ListingServiceSuite) TestListRejectsRoyaltyAbovePrice() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	// Royalty terms above the mint-time cap can only exist on rows written
	// outside minting; the listing check still rejects them.
	recipe := s.createRecipe(seller.ID, seller.ID, 20_000, true)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        100,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrRoyaltyExceedsPrice)
}

func (s *ListingServiceSuite) TestCancelThenRelist() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.listings.Cancel(seller.ID, recipe.ID))
	s.Equal(int64(1), s.countEvents(models.EventRecipeCancelled))

	_, err = s.listings.GetListing(recipe.ID)
	s.ErrorIs(err, apperrors.ErrNotListed)

	// The slot is free again.
	_, err = s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        15_000,
		PaymentToken: "USDC",
	})
	s.NoError(err)
}

func (s *ListingServiceSuite) TestCancelAuthorization() {
	seller := s.createUser("seller")
	stranger := s.createUser("stranger")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	s.ErrorIs(s.listings.Cancel(seller.ID, recipe.ID), apperrors.ErrNotListed)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)

	s.ErrorIs(s.listings.Cancel(stranger.ID, recipe.ID), apperrors.ErrNotOwner)
}

func (s *ListingServiceSuite) TestUpdateListingInPlace() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	_, err := s.listings.Update(seller.ID, recipe.ID, &UpdateListingRequest{
		Price:        20_000,
		PaymentToken: "USDT",
	})
	s.ErrorIs(err, apperrors.ErrNotListed)

	_, err = s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)

	_, err = s.listings.Update(seller.ID, recipe.ID, &UpdateListingRequest{
		Price:        20_000,
		PaymentToken: "USDT",
	})
	s.Require().NoError(err)

	got, err := s.listings.GetListing(recipe.ID)
	s.Require().NoError(err)
	s.Equal(int64(20_000), got.Price)
	s.Equal("USDT", got.PaymentToken)
	// The listing event fires again with the new terms.
	s.Equal(int64(2), s.countEvents(models.EventRecipeListed))
}

func (s *ListingServiceSuite) TestBatchListSkipsIneligibleEntries() {
	seller := s.createUser("seller")
	other := s.createUser("other")
	s.grantPremium(seller.ID)

	good := s.createRecipe(seller.ID, seller.ID, 0, true)
	taken := s.createRecipe(seller.ID, seller.ID, 0, true)
	foreign := s.createRecipe(other.ID, other.ID, 0, true)

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     taken.ID,
		Price:        5_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)

	outcomes, err := s.listings.BatchList(seller.ID, &BatchListRequest{
		RecipeIDs:    []uuid.UUID{good.ID, taken.ID, foreign.ID},
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)
	s.Require().Len(outcomes, 3)

	s.True(outcomes[0].Listed)
	s.Empty(outcomes[0].Reason)

	s.False(outcomes[1].Listed)
	s.Equal("ALREADY_LISTED", outcomes[1].Reason)

	s.False(outcomes[2].Listed)
	s.Equal("NOT_OWNER", outcomes[2].Reason)

	// The good entry survives its failed neighbors.
	got, err := s.listings.GetListing(good.ID)
	s.Require().NoError(err)
	s.Equal(int64(10_000), got.Price)
}

func (s *ListingServiceSuite) TestBatchListSharedChecks() {
	seller := s.createUser("seller")
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)

	oversized := make([]uuid.UUID, s.cfg.Marketplace.MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = uuid.New()
	}
	_, err := s.listings.BatchList(seller.ID, &BatchListRequest{
		RecipeIDs:    oversized,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrBatchTooLarge)

	_, err = s.listings.BatchList(seller.ID, &BatchListRequest{
		RecipeIDs:    []uuid.UUID{recipe.ID},
		Price:        0,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrInvalidPrice)

	_, err = s.listings.BatchList(seller.ID, &BatchListRequest{
		RecipeIDs:    []uuid.UUID{recipe.ID},
		Price:        10_000,
		PaymentToken: "DOGE",
	})
	s.ErrorIs(err, apperrors.ErrUnsupportedToken)

	_, err = s.listings.BatchList(seller.ID, &BatchListRequest{
		RecipeIDs:    []uuid.UUID{recipe.ID},
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrNotEntitled)
}

func (s *ListingServiceSuite) TestPauseBlocksListing() {
	seller := s.createUser("seller")
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, seller.ID, 0, true)
	s.Require().NoError(s.pause.SetPaused(ComponentListings, true))

	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        10_000,
		PaymentToken: "USDC",
	})
	s.ErrorIs(err, apperrors.ErrPaused)
	s.ErrorIs(s.listings.Cancel(seller.ID, recipe.ID), apperrors.ErrPaused)
}

func TestListingServiceSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceSuite))
}
