package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/steepline/steepline/internal/config"
	"github.com/steepline/steepline/internal/runs"
	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/users"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open establishes the configured database connection and performs schema
// migrations. PostgreSQL is the production store; sqlite is kept for local
// development.
func Open(cfg config.AppConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBDriver {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)
		dialector = postgres.Open(dsn)

	case "sqlite":
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("database path is required for the sqlite driver")
		}
		dialector = sqlite.Open(cfg.DBPath)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxConns := cfg.DBMaxOpenConns
	if maxConns <= 0 {
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxIdle(maxConns))

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", cfg.DBDriver))
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
// Users migrate first so the spot and run foreign keys can bind.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&spots.Spot{},
		&runs.Run{},
		&migrationRecord{},
	)
}

func maxIdle(maxOpen int) int {
	idle := maxOpen / 2
	if idle < 1 {
		return 1
	}
	return idle
}
