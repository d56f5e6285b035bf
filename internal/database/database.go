package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// New opens the database configured by cfg. Driver errors are translated
// into gorm sentinel errors (gorm.ErrDuplicatedKey and friends) so services
// can react to constraint violations without knowing the engine.
func New(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		log.Info("connecting to database", "driver", cfg.DBDriver, "host", cfg.DBHost, "port", cfg.DBPort, "user", cfg.DBUser)
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		log.Info("connecting to database", "driver", cfg.DBDriver, "path", cfg.SQLitePath)
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Info("successfully connected to database")
	return db, nil
}

// Open wraps gorm.Open with the settings every connection in this service uses
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return db, nil
}

// SQLiteDSN enables foreign keys, which sqlite leaves off by default
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}
