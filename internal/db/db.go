package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "github.com/sujalbistaa/shadowspace/internal/log"
)

// Open initializes and returns a GORM database connection from a URL of the
// form postgres://... or sqlite://<path>.
func Open(databaseURL string) (*gorm.DB, error) {
	logg := applog.WithComponent("db")

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"):
		dialector = postgres.Open(strings.TrimPrefix(databaseURL, "postgres://"))
		logg.Info().Msg("connecting to postgres")
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		logg.Info().Str("dsn", dsn).Msg("connecting to sqlite")
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // be quiet by default
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	logg.Info().Msg("database connection established")
	return db, nil
}
