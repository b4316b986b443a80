// internal/services/settlement_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/forkchain/recipe-market/internal/apperrors"
	"github.com/forkchain/recipe-market/internal/models"
	"github.com/forkchain/recipe-market/internal/utils"
)

type SettlementServiceSuite struct {
	marketSuite
}

// listForSale sets up an entitled seller with an approved, listed asset.
func (s *SettlementServiceSuite) listForSale(seller, receiver *models.User, royaltyBps, price int64) *models.Recipe {
	s.grantPremium(seller.ID)
	recipe := s.createRecipe(seller.ID, receiver.ID, royaltyBps, true)
	_, err := s.listings.List(seller.ID, &ListRecipeRequest{
		RecipeID:     recipe.ID,
		Price:        price,
		PaymentToken: "USDC",
	})
	s.Require().NoError(err)
	return recipe
}

func (s *SettlementServiceSuite) TestBuySplitsRoyaltyAndTransfersAsset() {
	seller := s.createUser("seller")
	receiver := s.createUser("receiver")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, receiver, 500, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)

	// Buyers need no entitlement: only listing is gated.
	sale, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.Require().NoError(err)

	s.Equal(int64(500), sale.RoyaltyAmount)
	s.Equal(receiver.ID, sale.RoyaltyReceiverID)
	s.Equal(seller.ID, sale.SellerID)

	s.Equal(int64(0), s.balance(buyer.ID, "USDC"))
	s.Equal(int64(500), s.balance(receiver.ID, "USDC"))
	s.Equal(int64(9_500), s.balance(seller.ID, "USDC"))

	owner, err := s.recipes.OwnerOf(s.db, recipe.ID)
	s.Require().NoError(err)
	s.Equal(buyer.ID, owner)

	// The per-asset approval does not survive the transfer.
	var got models.Recipe
	s.Require().NoError(s.db.First(&got, recipe.ID).Error)
	s.False(got.MarketApproved)

	_, err = s.listings.GetListing(recipe.ID)
	s.ErrorIs(err, apperrors.ErrNotListed)
	s.Equal(int64(1), s.countEvents(models.EventRecipeSold))

	// The listing is consumed; the same asset cannot be bought twice.
	s.fund(buyer.ID, "USDC", 10_000)
	_, err = s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.ErrorIs(err, apperrors.ErrNotListed)
}

func (s *SettlementServiceSuite) TestBuyWithZeroRoyalty() {
	seller := s.createUser("seller")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, seller, 0, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)

	sale, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.Require().NoError(err)
	s.Equal(int64(0), sale.RoyaltyAmount)
	s.Equal(int64(10_000), s.balance(seller.ID, "USDC"))
}

func (s *SettlementServiceSuite) TestBuyFailsWhenPriceMoved() {
	seller := s.createUser("seller")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, seller, 0, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)

	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 9_999,
	})
	s.ErrorIs(err, apperrors.ErrPriceChanged)

	// Nothing moved.
	s.Equal(int64(10_000), s.balance(buyer.ID, "USDC"))
	_, err = s.listings.GetListing(recipe.ID)
	s.NoError(err)
}

func (s *SettlementServiceSuite) TestBuyRollsBackOnInsufficientFunds() {
	seller := s.createUser("seller")
	receiver := s.createUser("receiver")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, receiver, 500, 10_000)
	s.fund(buyer.ID, "USDC", 600)

	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)

	// The rollback restores the listing and leaves balances untouched, even
	// though the royalty leg alone would have been payable.
	_, err = s.listings.GetListing(recipe.ID)
	s.NoError(err)
	s.Equal(int64(600), s.balance(buyer.ID, "USDC"))
	s.Equal(int64(0), s.balance(receiver.ID, "USDC"))

	owner, err := s.recipes.OwnerOf(s.db, recipe.ID)
	s.Require().NoError(err)
	s.Equal(seller.ID, owner)
	s.Equal(int64(0), s.countEvents(models.EventRecipeSold))
}

func (s *SettlementServiceSuite) TestBuyUnlistedAsset() {
	buyer := s.createUser("buyer")
	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      uuid.New(),
		ExpectedPrice: 100,
	})
	s.ErrorIs(err, apperrors.ErrNotListed)
}

func (s *SettlementServiceSuite) TestConcurrentBuyOnSameAssetRejected() {
	seller := s.createUser("seller")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, seller, 0, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)

	s.Require().NoError(s.settlement.lockAsset(recipe.ID))
	defer s.settlement.unlockAsset(recipe.ID)

	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.ErrorIs(err, apperrors.ErrSettlementInFlight)
}

func (s *SettlementServiceSuite) TestPauseBlocksBuys() {
	seller := s.createUser("seller")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, seller, 0, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)
	s.Require().NoError(s.pause.SetPaused(ComponentSettlement, true))

	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.ErrorIs(err, apperrors.ErrPaused)
}

func (s *SettlementServiceSuite) TestSaleHistoryAndEvents() {
	seller := s.createUser("seller")
	buyer := s.createUser("buyer")
	recipe := s.listForSale(seller, seller, 0, 10_000)
	s.fund(buyer.ID, "USDC", 10_000)

	_, err := s.settlement.Buy(buyer.ID, &BuyRequest{
		RecipeID:      recipe.ID,
		ExpectedPrice: 10_000,
	})
	s.Require().NoError(err)

	params := utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}

	sales, total, err := s.settlement.GetSaleHistory(buyer.ID, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(sales, 1)
	s.Equal(recipe.ID, sales[0].RecipeID)

	// The seller sees the same settlement.
	_, total, err = s.settlement.GetSaleHistory(seller.ID, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	events, total, err := s.settlement.GetEvents(string(models.EventRecipeSold), params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(events, 1)
	s.Equal(recipe.ID.String(), events[0].Payload["recipe_id"])
}

func TestSettlementServiceSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceSuite))
}
