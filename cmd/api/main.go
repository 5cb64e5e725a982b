package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"reckon/internal/config"
	"reckon/internal/database"
	"reckon/internal/handlers"
	"reckon/internal/logger"
	"reckon/internal/middleware"
	"reckon/internal/services"
	"reckon/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Load the import rule table
	rules, err := config.LoadRules(appConfig.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load import rules: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	balanceService := services.NewBalanceService(db, accountService)
	overrideService := services.NewOverrideService(db, accountService)
	ledgerService := services.NewLedgerService(db)
	importService, err := services.NewImportService(db, rules, accountService, balanceService)
	if err != nil {
		return fmt.Errorf("failed to build import pipeline: %w", err)
	}

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, balanceService)
	overrideHandler := handlers.NewOverrideHandler(overrideService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	importHandler := handlers.NewImportHandler(importService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.GET("/:id/balance", accountHandler.GetBalanceAt)
	accounts.PUT("/:id/balance", accountHandler.UpdateBalance)
	accounts.GET("/:id/balance/history", accountHandler.GetBalanceHistory)
	accounts.GET("/:id/balance/compare", accountHandler.CompareBalance)
	accounts.POST("/:id/balance/recalculate", accountHandler.RecalculateBalance)
	accounts.POST("/:id/overrides", overrideHandler.SetOverride)
	accounts.GET("/:id/overrides", overrideHandler.ListOverrides)

	// Override routes
	overrides := v1.Group("/overrides")
	overrides.DELETE("/:id", overrideHandler.DeleteOverride)

	// Ledger entry routes
	entries := v1.Group("/entries")
	entries.GET("", ledgerHandler.ListEntries)
	entries.GET("/:id", ledgerHandler.GetEntry)
	entries.PATCH("/:id/transfer", ledgerHandler.SetTransferFlag)

	// Import routes
	imports := v1.Group("/imports")
	imports.POST("", importHandler.ImportFile)
	imports.POST("/reclassify", importHandler.Reclassify)

	log.Infof("Starting reckon server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
