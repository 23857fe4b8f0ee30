package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/fardiff/pkg/config"
	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/telemetry"
)

// DBType represents the database type.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
	DBTypeMySQL    DBType = "mysql"
)

// Dialector builds the GORM dialector for cfg.
func Dialector(cfg *config.HistoryConfig) (gorm.Dialector, error) {
	switch DBType(cfg.Type) {
	case DBTypeSQLite, "":
		return sqlite.Open(cfg.Path), nil
	case DBTypePostgres, DBType("postgresql"):
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, port, cfg.User, cfg.Password, cfg.Database,
		)
		return postgres.Open(dsn), nil
	case DBTypeMySQL:
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Database,
		)
		return mysql.Open(dsn), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigError, "unsupported database type: %s", cfg.Type)
	}
}

// NewGormDB opens the history database described by cfg.
func NewGormDB(cfg *config.HistoryConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector, cfg.MaxConns)
}

// Open opens a database with the given dialector and configures its pool.
func Open(dialector gorm.Dialector, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to open database", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to enable telemetry", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get underlying sql.DB", err)
	}

	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns((maxConns + 1) / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to ping database", err)
	}
	return db, nil
}

// Close closes the database behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewRunRepositoryFromConfig opens the database, migrates it and returns
// the repository together with a close function.
func NewRunRepositoryFromConfig(ctx context.Context, cfg *config.HistoryConfig) (*GormRunRepository, func() error, error) {
	db, err := NewGormDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := NewGormRunRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		Close(db)
		return nil, nil, err
	}
	return repo, func() error { return Close(db) }, nil
}
