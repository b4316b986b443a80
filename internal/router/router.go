// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/config"
	"github.com/forkchain/recipe-market/internal/handlers"
	"github.com/forkchain/recipe-market/internal/middleware"
	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	pauseRegistry := services.NewPauseRegistry(db)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	tokenService := services.NewTokenService(db, cfg)
	subscriptionService := services.NewSubscriptionService(db, cfg, tokenService, pauseRegistry)
	recipeService := services.NewRecipeService(db, cfg, subscriptionService)
	listingService := services.NewListingService(db, cfg, subscriptionService, recipeService, pauseRegistry)
	settlementService := services.NewSettlementService(db, cfg, tokenService, recipeService, pauseRegistry)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, storageService)
	listingHandler := handlers.NewListingHandler(listingService)
	marketHandler := handlers.NewMarketHandler(settlementService, tokenService)
	adminHandler := handlers.NewAdminHandler(pauseRegistry)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Subscription routes
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.GET("/price", subscriptionHandler.GetPrice)

			protected := subscriptions.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/purchase", subscriptionHandler.Purchase)
				protected.GET("/me", subscriptionHandler.GetMySubscription)
			}
		}

		// Entitlement check (public)
		v1.GET("/entitlements/:id", subscriptionHandler.CheckEntitlement)

		// Recipe routes
		recipes := v1.Group("/recipes")
		{
			recipes.GET("", middleware.OptionalAuth(), recipeHandler.GetRecipes)
			recipes.GET("/:id", middleware.OptionalAuth(), recipeHandler.GetRecipe)

			protected := recipes.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", recipeHandler.MintRecipes)
				protected.PUT("/approve-all", recipeHandler.SetApprovalForAll)
				protected.PUT("/:id/approve", recipeHandler.Approve)
				protected.POST("/:id/images", middleware.UploadRateLimit(), recipeHandler.UploadImages)
			}
		}

		// Listing routes
		listings := v1.Group("/listings")
		{
			listings.GET("", middleware.OptionalAuth(), listingHandler.GetListings)
			listings.GET("/:recipe_id", middleware.OptionalAuth(), listingHandler.GetListing)

			protected := listings.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", listingHandler.List)
				protected.POST("/batch", listingHandler.BatchList)
				protected.PUT("/:recipe_id", listingHandler.Update)
				protected.DELETE("/:recipe_id", listingHandler.Cancel)
			}
		}

		// Market routes
		market := v1.Group("/market")
		{
			market.GET("/events", marketHandler.GetEvents)

			protected := market.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/buy", middleware.SettlementRateLimit(), marketHandler.Buy)
				protected.GET("/history", marketHandler.GetSaleHistory)
			}
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("/balance/:token", marketHandler.GetBalance)
			wallet.POST("/topup", marketHandler.CreateTopUp)
			wallet.POST("/topup/confirm", marketHandler.ConfirmTopUp)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminSubscriptions := admin.Group("/subscriptions")
			{
				adminSubscriptions.PUT("/price", subscriptionHandler.SetPrice)
				adminSubscriptions.PUT("/:id/cancel", subscriptionHandler.Cancel)
				adminSubscriptions.PUT("/:id/premium", subscriptionHandler.SetPremium)
				adminSubscriptions.POST("/withdraw/:token", subscriptionHandler.Withdraw)
			}

			adminPause := admin.Group("/pause")
			{
				adminPause.GET("", adminHandler.GetPauseStatus)
				adminPause.PUT("/:component", adminHandler.SetPaused)
			}
		}
	}

	return r
}
