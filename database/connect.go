package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/QuickRoll12/quickroll-backend/models"
)

// Store is the gorm-backed implementation of the fraud/device history
// store, the audit log and the session report sink. gorm's sqlite driver
// is not safe for concurrent writers, so a mutex guards every call.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

// OpenStore opens (or creates) the fraud database and migrates its tables.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open fraud database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.DeviceHistory{},
		&models.SuspiciousUser{},
		&models.RedemptionAudit{},
		&models.SessionReport{},
	); err != nil {
		return nil, fmt.Errorf("migrate fraud database: %w", err)
	}
	return &Store{db: db}, nil
}

// ProfileDB reads student profiles from the institute roster database.
type ProfileDB struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenProfileDB opens the read-only roster database.
func OpenProfileDB(path string) (*ProfileDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	return &ProfileDB{db: db}, nil
}
