package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "studio-recon/docs"
	"studio-recon/internal/config"
	"studio-recon/internal/engine"
	"studio-recon/internal/handler"
	"studio-recon/internal/middleware"
	"studio-recon/internal/repository"
	"studio-recon/pkg/logger"
)

// @title Studio Reconciliation API
// @version 1.0
// @description API for reconciling studio booking exports against payment-provider settlements, with keyword-based revenue categorization and an operator review workflow for unseen items.

// @contact.name API Support
// @contact.email support@studio-recon.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Studio Reconciliation Service")

	store, cleanup, err := openStore(cfg)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to open storage")
	}
	defer cleanup()

	eng := engine.New(store, cfg.App.ReconcilableChannels, cfg.App.DenyList)

	reconHandler := handler.NewReconciliationHandler(eng)
	sessionHandler := handler.NewSessionHandler(store)
	productHandler := handler.NewProductHandler(store, eng)
	rulesHandler := handler.NewRulesHandler(store)

	router := setupRouter(reconHandler, sessionHandler, productHandler, rulesHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

// openStore builds the configured storage backend. The memory store carries
// no durability and is meant for local evaluation only.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.App.Storage == "memory" {
		logger.GetLogger().Warn("Using in-memory storage, pending runs will not survive restarts")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	store := repository.NewPostgresStore(db)
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.GetLogger().Info("Database connection established")
	return store, func() { db.Close() }, nil
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(
	reconHandler *handler.ReconciliationHandler,
	sessionHandler *handler.SessionHandler,
	productHandler *handler.ProductHandler,
	rulesHandler *handler.RulesHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/reconcile", reconHandler.Reconcile)

		pending := v1.Group("/pending")
		{
			pending.GET("", reconHandler.ListPending)
			pending.GET("/:id", reconHandler.GetPending)
			pending.POST("/:id/resume", reconHandler.Resume)
			pending.DELETE("/:id", reconHandler.DiscardPending)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.GET("/:id/comparisons", sessionHandler.GetComparisons)
			sessions.GET("/:id/export", sessionHandler.ExportComparisons)
			sessions.GET("/:id/categories", sessionHandler.GetCategorySummaries)
			sessions.GET("/:id/categories/:category/items", sessionHandler.GetCategoryItems)
			sessions.GET("/:id/channels", sessionHandler.GetChannelSummaries)
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.POST("", productHandler.ClassifyProducts)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		rules := v1.Group("/rules")
		{
			rules.GET("", rulesHandler.GetRules)
			rules.PUT("", rulesHandler.SaveRules)
			rules.DELETE("", rulesHandler.ResetRules)
		}
	}

	return router
}
