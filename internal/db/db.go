package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"companion-booking-backend/config"
	"companion-booking-backend/internal/model"
)

// Models lists every table managed by AutoMigrate, parents first.
var Models = []any{
	&model.Manager{},
	&model.ScheduleWindow{},
	&model.Reservation{},
	&model.ReservationStatusLog{},
	&model.PushSubscription{},
}

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, cfg); err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.Driver).Msg("database initialization complete")
	return db, nil
}

// Open connects to the configured database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	return db, nil
}

// Migrate creates or updates every table and, on postgres, the CHECK constraints.
func Migrate(db *gorm.DB, cfg *config.DatabaseConfig) error {
	log.Info().Msg("running database migrations")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableConstraints && db.Dialector.Name() == "postgres" {
		log.Info().Msg("applying check constraints")
		if err := applyConstraintDDL(db); err != nil {
			log.Warn().Err(err).Msg("failed to apply some check constraints, continuing without them")
		}
	}
	return nil
}

func applyConstraintDDL(db *gorm.DB) error {
	constraints := []struct{ table, name, check string }{
		{"manager_schedule_windows", "manager_schedule_windows_time_order", "start_time < end_time"},
		{"reservations", "reservations_price_non_negative", "price >= 0"},
		{"reservations", "reservations_hours_range", "estimated_hours BETWEEN 1 AND 12"},
		{"reservations", "reservations_manager_status", "manager_id IS NULL OR status IN ('confirmed','in_progress','completed')"},
	}

	for _, c := range constraints {
		ddl := fmt.Sprintf(
			"DO $$ BEGIN "+
				"IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN "+
				"ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s); "+
				"END IF; END $$;",
			c.name, c.table, c.name, c.check)
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", c.name, err)
		}
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}
