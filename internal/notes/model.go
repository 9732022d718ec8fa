package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxSlugLength = 190

var (
	// ErrInvalidSlug indicates that a short url is empty or exceeds storage bounds.
	ErrInvalidSlug = errors.New("notes: invalid short url")
	// ErrNoteNotFound indicates that no live note exists for the requested slug.
	ErrNoteNotFound = errors.New("notes: note not found")
	// ErrSlugTaken indicates that a live note already owns the requested slug.
	ErrSlugTaken = errors.New("notes: short url already taken")
)

// Slug represents a validated human-chosen short url.
type Slug string

// NewSlug validates raw input and returns a Slug.
func NewSlug(rawInput string) (Slug, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if len(trimmed) > maxSlugLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidSlug, maxSlugLength)
	}
	return Slug(trimmed), nil
}

// String returns the underlying short url value.
func (s Slug) String() string {
	return string(s)
}

// Note models a stored note addressed by its short url. ParentID is a
// self-reference establishing a thread; it is persisted as supplied and is
// not validated against an existing note.
type Note struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement"`
	ShortURL  string     `gorm:"column:short_url;size:190;not null;uniqueIndex:idx_notes_short_url"`
	Content   string     `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;index:idx_notes_created_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index:idx_notes_expires_at"`
	ParentID  *uint      `gorm:"column:parent_id;index:idx_notes_parent_id"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// NoteVersion captures the content of a note as it was immediately before
// one update. Versions per note start at 1 and increase without gaps; the
// composite unique index is the authoritative guard against two updates
// claiming the same version number.
type NoteVersion struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	NoteID    uint      `gorm:"column:note_id;not null;uniqueIndex:idx_note_versions_note_version,priority:1"`
	Version   int       `gorm:"column:version;not null;uniqueIndex:idx_note_versions_note_version,priority:2"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (NoteVersion) TableName() string {
	return "note_versions"
}

// CreateRequest describes the decoded input for creating a note. ExpiresAt
// carries the raw RFC3339 string supplied by the client; values that do not
// parse are treated as "no expiry".
type CreateRequest struct {
	Slug      Slug
	Content   string
	ExpiresAt string
	ParentID  *uint
}
