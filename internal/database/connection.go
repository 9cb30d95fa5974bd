// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tracelink/provenance-backend/internal/config"
	"github.com/tracelink/provenance-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
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
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
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

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Principal{},
		&models.RoleGrant{},
		&models.Product{},
		&models.Checkpoint{},
		&models.OwnershipEntry{},
		&models.EscrowPayment{},
		&models.Account{},
		&models.Setting{},
		&models.AuditLog{},
		&models.LedgerEvent{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Principal indexes
		"CREATE INDEX IF NOT EXISTS idx_principals_email ON principals(email)",
		"CREATE INDEX IF NOT EXISTS idx_principals_username ON principals(username)",

		// Checkpoint indexes
		"CREATE INDEX IF NOT EXISTS idx_checkpoints_product ON checkpoints(product_id, seq)",
		"CREATE INDEX IF NOT EXISTS idx_checkpoints_recorded_at ON checkpoints(recorded_at DESC)",

		// Ownership indexes
		"CREATE INDEX IF NOT EXISTS idx_ownership_entries_product ON ownership_entries(product_id, seq)",

		// Event and audit indexes
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_product ON ledger_events(product_id, emitted_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_principal_action ON audit_logs(principal_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_settings_category_key ON settings(category, key)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	// Create default admin principal with the admin role
	var adminCount int64
	db.Model(&models.RoleGrant{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.Principal{
			Username: "admin",
			Email:    "admin@provenance-ledger.local",
			Status:   models.PrincipalStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin principal: %w", err)
		}

		grant := &models.RoleGrant{
			PrincipalID: admin.ID,
			Role:        models.RoleAdmin,
			GrantedBy:   admin.ID,
		}
		if err := db.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to grant admin role: %w", err)
		}

		logrus.Info("Default admin principal created")
	}

	// Create default ledger settings
	defaultSettings := []models.Setting{
		{
			Category:    "ledger",
			Key:         "halted",
			Value:       models.JSONB{"value": false},
			DataType:    "boolean",
			Description: "Circuit breaker flag suspending all mutating operations",
		},
		{
			Category:    "ledger",
			Key:         "strict_transitions",
			Value:       models.JSONB{"value": false},
			DataType:    "boolean",
			Description: "Enforce forward-only lifecycle state transitions",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.Setting{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			if err := db.Create(&setting).Error; err != nil {
				logrus.WithError(err).Warnf("Failed to create setting %s.%s", setting.Category, setting.Key)
			}
		}
	}

	logrus.Info("Initial data seeding completed")
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
