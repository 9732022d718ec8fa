package notes

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notebin_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Note{}, &NoteVersion{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func newTestService(t *testing.T, clock func() time.Time) (*Service, *gorm.DB) {
	t.Helper()

	db := newTestDatabase(t)

	if clock == nil {
		clock = func() time.Time { return time.Unix(1700000600, 0).UTC() }
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("failed to construct notes service: %v", err)
	}

	return service, db
}

func mustSlug(t *testing.T, value string) Slug {
	t.Helper()
	slug, err := NewSlug(value)
	if err != nil {
		t.Fatalf("unexpected slug error: %v", err)
	}
	return slug
}

func seedNote(t *testing.T, db *gorm.DB, note Note) Note {
	t.Helper()
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	return note
}
