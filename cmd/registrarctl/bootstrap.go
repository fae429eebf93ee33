package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/db"
	"github.com/doodlesbykumbi/registrar/pkg/logger"
	"github.com/doodlesbykumbi/registrar/pkg/model"
)

// loadConfig loads and validates the configuration, and applies the
// settings that are process-wide.
func loadConfig() (*config.RegistrarConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model.SetPasswordCost(cfg.BcryptCost)
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg, nil
}

func newLogger(cfg *config.RegistrarConfig) zerolog.Logger {
	return logger.New(os.Stdout, cfg.Level())
}

// openDatabase connects to the configured database. Postgres schemas are
// managed by the versioned migrations unless migrate is false; SQLite
// schemas are created from the models.
func openDatabase(cfg *config.RegistrarConfig, migrate bool) (*gorm.DB, error) {
	if cfg.DatabaseDriver == db.DriverPostgres && migrate {
		if err := runMigrations(); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	database, err := db.Connect(db.Config{
		Driver: cfg.DatabaseDriver,
		Debug:  cfg.Level() == zerolog.DebugLevel,
	})
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == db.DriverSQLite {
		if err := db.AutoMigrate(database); err != nil {
			return nil, err
		}
	}
	return database, nil
}
