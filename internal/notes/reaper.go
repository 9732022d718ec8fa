package notes

import (
	"context"

	"go.uber.org/zap"
)

const opReapStale = "notes.reap_stale"

// reapStale is the legacy create-triggered cleanup: every note whose
// created_at is older than the configured maximum age is deleted, whether or
// not it carries an explicit expiry. It runs before each insert and its
// failure never blocks the create; errors are logged and swallowed.
func (s *Service) reapStale(ctx context.Context) {
	cutoff := s.clock().UTC().Add(-s.reaperMaxAge)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Note{})
	if result.Error != nil {
		s.logError(opReapStale, "delete_failed", result.Error, zap.Time("cutoff", cutoff))
		return
	}

	if result.RowsAffected > 0 {
		s.loggerOrDefault().Info("stale notes reaped",
			zap.Int64("deleted", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
}
