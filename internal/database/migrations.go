package database

import (
	"errors"
	"time"

	"github.com/notebin/notebin/backend/internal/notes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationClearOrphanedNoteVersions = "2026-06-18_clear_orphaned_note_versions"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationClearOrphanedNoteVersions, apply: clearOrphanedNoteVersions},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Note deletion does not cascade to note_versions, so rows swept or reaped
// before this release left their version chains behind. Remove them once.
func clearOrphanedNoteVersions(db *gorm.DB) error {
	return db.
		Where("note_id NOT IN (?)", db.Model(&notes.Note{}).Select("id")).
		Delete(&notes.NoteVersion{}).Error
}
