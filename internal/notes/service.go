package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError carries an operation.reason code alongside the wrapped cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew        = "notes.service.new"
	opCreate            = "notes.create"
	opGet               = "notes.get"
	opListRecent        = "notes.list_recent"
	opCheckAvailability = "notes.check_availability"
	opUpdate            = "notes.update"
	opListChildren      = "notes.list_children"
	opListVersions      = "notes.list_versions"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// DefaultRecentLimit bounds ListRecent when the caller supplies no limit.
const DefaultRecentLimit = 10

const defaultReaperMaxAge = time.Hour

type ServiceConfig struct {
	Database     *gorm.DB
	Clock        func() time.Time
	Logger       *zap.Logger
	ReaperMaxAge time.Duration
}

type Service struct {
	db           *gorm.DB
	clock        func() time.Time
	logger       *zap.Logger
	reaperMaxAge time.Duration
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	maxAge := cfg.ReaperMaxAge
	if maxAge <= 0 {
		maxAge = defaultReaperMaxAge
	}

	return &Service{
		db:           cfg.Database,
		clock:        clock,
		logger:       logger,
		reaperMaxAge: maxAge,
	}, nil
}

// Create stores a new note under the requested slug. The lookup ahead of the
// insert is a fast-path rejection only; the unique index on short_url is the
// authoritative uniqueness check, and a duplicate-key failure from the insert
// is surfaced as ErrSlugTaken exactly like a pre-check hit.
func (s *Service) Create(ctx context.Context, request CreateRequest) (Note, error) {
	if s.db == nil {
		s.logError(opCreate, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opCreate, "missing_database", errMissingDatabase)
	}

	s.reapStale(ctx)

	var existing Note
	err := s.db.WithContext(ctx).
		Where("short_url = ?", request.Slug.String()).
		Take(&existing).Error
	if err == nil {
		return Note{}, newServiceError(opCreate, "slug_taken", ErrSlugTaken)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(opCreate, "slug_lookup_failed", err, zap.String("short_url", request.Slug.String()))
		return Note{}, newServiceError(opCreate, "slug_lookup_failed", err)
	}

	note := Note{
		ShortURL:  request.Slug.String(),
		Content:   request.Content,
		CreatedAt: s.clock().UTC(),
		ExpiresAt: s.parseExpiry(request.ExpiresAt),
		ParentID:  request.ParentID,
	}

	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent create won the race between the lookup and the insert.
			return Note{}, newServiceError(opCreate, "slug_taken", ErrSlugTaken)
		}
		s.logError(opCreate, "note_insert_failed", err, zap.String("short_url", request.Slug.String()))
		return Note{}, newServiceError(opCreate, "note_insert_failed", err)
	}

	return note, nil
}

// Get returns the live note stored under the slug.
func (s *Service) Get(ctx context.Context, slug Slug) (Note, error) {
	if s.db == nil {
		s.logError(opGet, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opGet, "missing_database", errMissingDatabase)
	}

	var note Note
	err := s.db.WithContext(ctx).
		Where("short_url = ?", slug.String()).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, newServiceError(opGet, "not_found", ErrNoteNotFound)
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.String("short_url", slug.String()))
		return Note{}, newServiceError(opGet, "query_failed", err)
	}

	return note, nil
}

// ListRecent returns the most recently created notes, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Note, error) {
	if s.db == nil {
		s.logError(opListRecent, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListRecent, "missing_database", errMissingDatabase)
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var notes []Note
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error; err != nil {
		s.logError(opListRecent, "query_failed", err, zap.Int("limit", limit))
		return nil, newServiceError(opListRecent, "query_failed", err)
	}

	return notes, nil
}

// CheckAvailability reports whether no live note currently owns the slug.
func (s *Service) CheckAvailability(ctx context.Context, slug Slug) (bool, error) {
	if s.db == nil {
		s.logError(opCheckAvailability, "missing_database", errMissingDatabase)
		return false, newServiceError(opCheckAvailability, "missing_database", errMissingDatabase)
	}

	var existing Note
	err := s.db.WithContext(ctx).
		Where("short_url = ?", slug.String()).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		s.logError(opCheckAvailability, "query_failed", err, zap.String("short_url", slug.String()))
		return false, newServiceError(opCheckAvailability, "query_failed", err)
	}

	return false, nil
}

// Update overwrites the note's content, snapshotting the previous content as
// the next version first. The whole sequence runs in one transaction with the
// note row locked, so two concurrent updates cannot allocate the same version
// number; the unique index on (note_id, version) backs that up at the store.
func (s *Service) Update(ctx context.Context, slug Slug, newContent string) (Note, error) {
	if s.db == nil {
		s.logError(opUpdate, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opUpdate, "missing_database", errMissingDatabase)
	}

	var updated Note
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note Note
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("short_url = ?", slug.String()).
			Take(&note).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newServiceError(opUpdate, "not_found", ErrNoteNotFound)
		}
		if err != nil {
			s.logError(opUpdate, "note_select_failed", err, zap.String("short_url", slug.String()))
			return newServiceError(opUpdate, "note_select_failed", err)
		}

		var latestVersion int
		if err := tx.Model(&NoteVersion{}).
			Where("note_id = ?", note.ID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latestVersion).Error; err != nil {
			s.logError(opUpdate, "version_scan_failed", err, zap.Uint("note_id", note.ID))
			return newServiceError(opUpdate, "version_scan_failed", err)
		}

		snapshot := NoteVersion{
			NoteID:    note.ID,
			Version:   latestVersion + 1,
			Content:   note.Content,
			CreatedAt: s.clock().UTC(),
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			s.logError(opUpdate, "version_insert_failed", err,
				zap.Uint("note_id", note.ID),
				zap.Int("version", snapshot.Version))
			return newServiceError(opUpdate, "version_insert_failed", err)
		}

		if err := tx.Model(&Note{}).
			Where("id = ?", note.ID).
			Update("content", newContent).Error; err != nil {
			s.logError(opUpdate, "note_update_failed", err, zap.Uint("note_id", note.ID))
			return newServiceError(opUpdate, "note_update_failed", err)
		}

		note.Content = newContent
		updated = note
		return nil
	})
	if txErr != nil {
		return Note{}, txErr
	}

	return updated, nil
}

// ListChildren returns all notes threaded under the parent id, oldest first.
// An empty result is not an error; the parent itself need not exist.
func (s *Service) ListChildren(ctx context.Context, parentID uint) ([]Note, error) {
	if s.db == nil {
		s.logError(opListChildren, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListChildren, "missing_database", errMissingDatabase)
	}

	var children []Note
	if err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&children).Error; err != nil {
		s.logError(opListChildren, "query_failed", err, zap.Uint("parent_id", parentID))
		return nil, newServiceError(opListChildren, "query_failed", err)
	}

	return children, nil
}

// ListVersions returns the note's version chain in ascending version order.
func (s *Service) ListVersions(ctx context.Context, slug Slug) ([]NoteVersion, error) {
	if s.db == nil {
		s.logError(opListVersions, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListVersions, "missing_database", errMissingDatabase)
	}

	note, err := s.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, newServiceError(opListVersions, "not_found", ErrNoteNotFound)
		}
		return nil, err
	}

	var versions []NoteVersion
	if err := s.db.WithContext(ctx).
		Where("note_id = ?", note.ID).
		Order("version ASC").
		Find(&versions).Error; err != nil {
		s.logError(opListVersions, "query_failed", err, zap.Uint("note_id", note.ID))
		return nil, newServiceError(opListVersions, "query_failed", err)
	}

	return versions, nil
}

// parseExpiry interprets the client-supplied expiry string. Malformed values
// mean the note never expires; that is the established contract, not an error.
func (s *Service) parseExpiry(rawValue string) *time.Time {
	if rawValue == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, rawValue)
	if err != nil {
		s.loggerOrDefault().Debug("ignoring unparsable expiry",
			zap.String("expires_at", rawValue),
			zap.Error(err))
		return nil
	}
	expiry := parsed.UTC()
	return &expiry
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notes service error", attrs...)
}
