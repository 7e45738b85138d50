package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studentdash/internal/config"
	"studentdash/internal/model"
)

// Open connects to the configured database and migrates the students table.
func Open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	return OpenDSN(cfg.DBDriver, cfg.DSN(), log)
}

// OpenDSN opens driver ("sqlite" or "postgres") at dsn.
func OpenDSN(driver, dsn string, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	// Each sqlite connection to ":memory:" is its own database.
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.StudentRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate students: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Database ready")
	return db, nil
}
