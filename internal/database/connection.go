// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.PremiumFlag{},
		&models.Recipe{},
		&models.OperatorApproval{},
		&models.Listing{},
		&models.Sale{},
		&models.PaymentToken{},
		&models.TokenBalance{},
		&models.TopUp{},
		&models.MarketEvent{},
		&models.Setting{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Subscription indexes
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_end_time ON subscriptions(end_time)",
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_cancelled ON subscriptions(is_cancelled)",

		// Recipe indexes
		"CREATE INDEX IF NOT EXISTS idx_recipes_owner ON recipes(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_recipes_category_status ON recipes(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at DESC)",

		// Listing indexes
		"CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id)",
		"CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price)",
		"CREATE INDEX IF NOT EXISTS idx_listings_token ON listings(payment_token)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_recipe ON sales(recipe_id)",
		"CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at DESC)",

		// Event indexes
		"CREATE INDEX IF NOT EXISTS idx_market_events_type_created ON market_events(type, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@recipemarket.io",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Seed the payment-token allow-list
	for _, symbol := range cfg.Marketplace.PaymentTokens {
		var count int64
		db.Model(&models.PaymentToken{}).Where("symbol = ?", symbol).Count(&count)
		if count == 0 {
			token := &models.PaymentToken{
				Symbol:   symbol,
				Name:     symbol,
				Decimals: 6,
				Enabled:  true,
			}
			if err := db.Create(token).Error; err != nil {
				return fmt.Errorf("failed to seed payment token %s: %w", symbol, err)
			}
		}
	}

	// Seed the subscription price setting
	var priceCount int64
	db.Model(&models.Setting{}).Where("key = ?", models.SettingSubscriptionPrice).Count(&priceCount)
	if priceCount == 0 {
		setting := &models.Setting{
			Key:         models.SettingSubscriptionPrice,
			Value:       models.JSONB{"value": cfg.Marketplace.SubscriptionPrice},
			Description: "Price charged on the next subscription purchase",
		}
		if err := db.Create(setting).Error; err != nil {
			return fmt.Errorf("failed to seed subscription price: %w", err)
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
