package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"arb_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists top-of-book quotes to SQLite. It backs the spread
// series warmup at startup and accumulates live quotes for later restarts.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance. An empty path resolves
// to the OS user config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.Quote{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "ArbGo", "data", "quotes.db"), nil
}

// SaveQuote persists one top-of-book observation.
func (s *Storage) SaveQuote(q *domain.Quote) error {
	return s.db.Create(q).Error
}

// FetchOne returns the quotes recorded for a venue at a unix second.
// An empty slice means nothing was recorded at that instant.
func (s *Storage) FetchOne(venueID string, timestamp int64) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := s.db.
		Where("venue_id = ? AND timestamp = ?", venueID, timestamp).
		Find(&quotes).Error
	return quotes, err
}

// Prune deletes quotes older than the given unix second, keeping the file
// from growing without bound.
func (s *Storage) Prune(olderThan int64) error {
	return s.db.Where("timestamp < ?", olderThan).Delete(&domain.Quote{}).Error
}
