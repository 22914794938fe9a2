package database

import (
	"errors"
	"time"

	"github.com/steepline/steepline/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillPublicProfile = "2026-05-20_backfill_public_profile"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillPublicProfile, apply: backfillPublicProfile},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows created before the visibility column existed defaulted to NULL;
// the leaderboard treats those riders as opted in.
func backfillPublicProfile(db *gorm.DB) error {
	return db.Model(&users.User{}).
		Where("is_public_profile IS NULL").
		Update("is_public_profile", true).Error
}
