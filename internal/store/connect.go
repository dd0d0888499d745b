package store

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a GORM connection using the configured driver ("mysql" or
// "sqlite"). sqlite is the default for local runs and tests; mysql is the
// production backend.
func Connect(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var db *gorm.DB
	var err error
	switch driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("store: connect (%s): %w", driver, err)
	}
	return db, nil
}

// AutoMigrate creates or updates the beatmapsets and sync_state tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&BeatmapSetRow{}, &SyncState{}); err != nil {
		return fmt.Errorf("store: auto-migrate: %w", err)
	}
	return nil
}
