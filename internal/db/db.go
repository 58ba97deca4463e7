package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"wardwatch/internal/config"
	"wardwatch/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open connects to the database named by cfg.DSN. DSNs prefixed with
// "sqlite:" use the embedded SQLite driver (development and tests); anything
// else goes to postgres.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		// Surface unique violations as gorm.ErrDuplicatedKey on both drivers.
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var (
		dialector gorm.Dialector
		isSQLite  bool
	)
	if path, ok := strings.CutPrefix(cfg.DSN, sqlitePrefix); ok {
		dialector = sqlite.Open(path)
		isSQLite = true
	} else {
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if isSQLite {
		// One writer; also keeps ":memory:" databases alive between queries.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}

	slog.Info("database connection established", "component", "db", "sqlite", isSQLite)
	return db, nil
}

// Migrate creates or updates the schema, including the unique indexes the
// vote ledger and read-state tracker rely on.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Ward{},
		&models.User{},
		&models.Resident{},
		&models.CommunityLeader{},
		&models.IssueReport{},
		&models.Vote{},
		&models.IssueChatRead{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("database migration completed", "component", "db")
	return nil
}
