package notes

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opSweeperNew = "notes.sweeper.new"
	opSweep      = "notes.sweep_expired"

	defaultSweepInterval      = 10 * time.Second
	defaultSweepRetryInterval = 60 * time.Second
)

type SweeperConfig struct {
	Database      *gorm.DB
	Clock         func() time.Time
	Logger        *zap.Logger
	Interval      time.Duration
	RetryInterval time.Duration
}

// Sweeper deletes notes whose explicit expiry has passed. It runs as one
// long-lived background task sharing the service's database handle; notes
// with no expiry are never touched by it.
type Sweeper struct {
	db            *gorm.DB
	clock         func() time.Time
	logger        *zap.Logger
	interval      time.Duration
	retryInterval time.Duration
}

func NewSweeper(cfg SweeperConfig) (*Sweeper, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opSweeperNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultSweepRetryInterval
	}

	return &Sweeper{
		db:            cfg.Database,
		clock:         clock,
		logger:        logger,
		interval:      interval,
		retryInterval: retryInterval,
	}, nil
}

// Run executes sweeps on the configured interval until the context is
// cancelled. A failed sweep backs off for the retry interval and the loop
// continues; no failure terminates it.
func (w *Sweeper) Run(ctx context.Context) {
	w.logger.Info("expiry sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("retry_interval", w.retryInterval))

	wait := w.interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry sweeper stopped")
			return
		case <-timer.C:
		}

		if err := w.SweepOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("expiry sweeper stopped")
				return
			}
			wait = w.retryInterval
			w.logger.Warn("sweep failed, backing off",
				zap.Duration("retry_in", wait),
				zap.Error(err))
		} else {
			wait = w.interval
		}
		timer.Reset(wait)
	}
}

// SweepOnce deletes every note whose expires_at is set and strictly in the
// past. Deleting zero rows is a success.
func (w *Sweeper) SweepOnce(ctx context.Context) error {
	now := w.clock().UTC()

	result := w.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&Note{})
	if result.Error != nil {
		w.logger.Error("notes sweep error",
			zap.String("operation", opSweep),
			zap.String("reason", "delete_failed"),
			zap.Error(result.Error))
		return newServiceError(opSweep, "delete_failed", result.Error)
	}

	if result.RowsAffected > 0 {
		w.logger.Info("expired notes swept",
			zap.Int64("deleted", result.RowsAffected),
			zap.Time("sweep_time", now))
	}

	return nil
}
