// internal/services/suite_test.go
package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/database"
	"github.com/forkchain/recipe-market/internal/models"
)

// marketSuite is the shared fixture for the service suites: a fresh in-memory
// database per test, seeded like a production boot, with a frozen clock.
type marketSuite struct {
	suite.Suite
	db            *gorm.DB
	cfg           *config.Config
	pause         *PauseRegistry
	tokens        *TokenService
	subscriptions *SubscriptionService
	recipes       *RecipeService
	listings      *ListingService
	settlement    *SettlementService
	now           time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Marketplace: config.MarketplaceConfig{
			SubscriptionPrice:    199_000_000,
			SubscriptionTermDays: 365,
			PaymentTokens:        []string{"USDC", "USDT"},
			MaxBatchSize:         300,
			MaxRoyaltyBps:        1000,
			MaxMintCopies:        100,
		},
	}
}

func (s *marketSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	s.cfg = testConfig()
	s.Require().NoError(database.RunMigrations(db))
	s.Require().NoError(database.SeedInitialData(db, s.cfg))

	s.db = db
	s.pause = NewPauseRegistry(db)
	s.tokens = NewTokenService(db, s.cfg)
	s.subscriptions = NewSubscriptionService(db, s.cfg, s.tokens, s.pause)
	s.recipes = NewRecipeService(db, s.cfg, s.subscriptions)
	s.listings = NewListingService(db, s.cfg, s.subscriptions, s.recipes, s.pause)
	s.settlement = NewSettlementService(db, s.cfg, s.tokens, s.recipes, s.pause)

	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.subscriptions.now = func() time.Time { return s.now }
}

func (s *marketSuite) createUser(username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		UserType: models.UserTypeCreator,
		Status:   models.UserStatusActive,
	}
	s.Require().NoError(user.SetPassword("TestPass123!"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *marketSuite) fund(holderID uuid.UUID, token string, amount int64) {
	s.Require().NoError(s.tokens.Mint(s.db, holderID, token, amount))
}

func (s *marketSuite) balance(holderID uuid.UUID, token string) int64 {
	amount, err := s.tokens.Balance(s.db, holderID, token)
	s.Require().NoError(err)
	return amount
}

func (s *marketSuite) grantPremium(userID uuid.UUID) {
	s.Require().NoError(s.subscriptions.SetPremium(userID, true))
}

// createRecipe writes an asset row directly so listing and settlement tests
// can control ownership and royalty terms without going through minting.
func (s *marketSuite) createRecipe(ownerID, receiverID uuid.UUID, royaltyBps int64, approved bool) *models.Recipe {
	recipe := &models.Recipe{
		CreatorID:         ownerID,
		OwnerID:           ownerID,
		Title:             "Twelve Hour Brisket",
		Description:       "Slow smoked over oak with a coffee rub.",
		Category:          "bbq",
		Status:            models.RecipeStatusActive,
		RoyaltyReceiverID: receiverID,
		RoyaltyBps:        royaltyBps,
		MarketApproved:    approved,
	}
	s.Require().NoError(s.db.Create(recipe).Error)
	return recipe
}

func (s *marketSuite) countEvents(eventType models.EventType) int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.MarketEvent{}).
		Where("type = ?", eventType).Count(&count).Error)
	return count
}
