package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/core/datamodel"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// sqlxDriverName maps the configured driver to the name sqlx uses to pick bind vars.
func sqlxDriverName(driver string) string {
	if driver == internal.DriverSQLite {
		return "sqlite3"
	}
	return "pgx"
}

// initDB opens the gorm connection for cfg and wraps the same pool for sqlx readers.
func initDB(cfg internal.DatabaseConfig, logger *slog.Logger) (*gorm.DB, *sqlx.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverSQLite:
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if cfg.Driver == internal.DriverSQLite {
		// a file-backed sqlite database allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected", "driver", cfg.Driver)
	return db, sqlx.NewDb(sqlDB, sqlxDriverName(cfg.Driver)), nil
}

// autoMigrate creates the schema from the gorm models. Used for sqlite, which the goose
// migrations (postgres dialect) do not target.
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(datamodel.All()...)
}
