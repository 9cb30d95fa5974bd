// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/config"
	"github.com/tracelink/provenance-backend/internal/handlers"
	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/middleware"
	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize the ledger core
	eventService := services.NewEventService(db)
	core := services.NewLedger(db, ledger.SystemClock(), eventService, nil)

	// Initialize services
	roleService := services.NewRoleService(core)
	settingsService := services.NewSettingsService(core, roleService)

	// The persisted transition mode wins over the environment default.
	if settingsService.StrictTransitionsEnabled(cfg.Ledger.StrictTransitions) {
		core.SetTransitions(ledger.StrictTransitions{})
	}

	bankService := services.NewBankService(core, roleService)

	var transferrer services.ValueTransferrer = bankService
	if cfg.Payment.Provider == "stripe" {
		transferrer = services.NewStripeTransferrer(cfg)
	}

	breakerService := services.NewBreakerService(core, roleService)
	if err := breakerService.LoadFromSettings(); err != nil {
		return nil, err
	}

	productService := services.NewProductService(core, roleService, cfg.Ledger.OriginLocation, cfg.Ledger.RecallLocation)
	checkpointService := services.NewCheckpointService(core, roleService)
	ownershipService := services.NewOwnershipService(core, roleService)
	escrowService := services.NewEscrowService(core, roleService, transferrer)
	authService := services.NewAuthService(db, cfg, roleService)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, checkpointService, ownershipService)
	escrowHandler := handlers.NewEscrowHandler(escrowService, bankService)
	eventHandler := handlers.NewEventHandler(eventService)
	documentHandler := handlers.NewDocumentHandler(storageService)
	adminHandler := handlers.NewAdminHandler(db, roleService, breakerService, bankService, settingsService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.APIRateLimit(cfg.Server.RateLimit))
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"halted": breakerService.Halted(),
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.LoginRateLimit(cfg.Server.RateLimit))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			// Read operations stay available while the ledger is halted
			products.GET("/:id", productHandler.Get)
			products.GET("/:id/verify", productHandler.Verify)
			products.GET("/:id/checkpoints", productHandler.ListCheckpoints)
			products.GET("/:id/owners", productHandler.ListOwners)
			products.GET("/:id/escrow", escrowHandler.Get)

			// Mutating operations
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", productHandler.Register)
				protected.POST("/:id/checkpoints", productHandler.AddCheckpoint)
				protected.POST("/:id/transfer", productHandler.Transfer)
				protected.POST("/:id/recall", productHandler.Recall)
				protected.POST("/:id/escrow", escrowHandler.Escrow)
				protected.POST("/:id/escrow/release", escrowHandler.Release)
			}
		}

		// Event feed
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.List)
		}

		// Account routes
		accounts := v1.Group("/accounts")
		accounts.Use(middleware.AuthRequired())
		{
			accounts.GET("/balance", escrowHandler.Balance)
		}

		// Document storage
		documents := v1.Group("/documents")
		documents.Use(middleware.AuthRequired())
		{
			documents.POST("", middleware.DocumentRateLimit(cfg.Server.RateLimit), documentHandler.Upload)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(roleService))
		{
			admin.POST("/roles/grant", adminHandler.GrantRole)
			admin.POST("/roles/revoke", adminHandler.RevokeRole)
			admin.POST("/pause", adminHandler.Pause)
			admin.POST("/unpause", adminHandler.Unpause)
			admin.POST("/accounts/:id/deposit", adminHandler.Deposit)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSetting)
		}
	}

	return r, nil
}
