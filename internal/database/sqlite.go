package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/notebin/notebin/backend/internal/notes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open establishes the SQLite connection and performs schema migrations.
// TranslateError is required: the notes service distinguishes duplicate-key
// failures from other storage errors when resolving slug conflicts.
func Open(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&notes.Note{}, &notes.NoteVersion{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
