package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"blinkchat/internal/observability"
	"blinkchat/internal/repositories"
	"blinkchat/internal/telemetry"
)

// FileStore is the slice of the attachment store the sweeper needs.
type FileStore interface {
	Delete(ref string) error
}

// Sweeper periodically evicts messages older than the retention window along
// with their attachment files. It runs for the lifetime of the process and
// never blocks ingestion or replay.
type Sweeper struct {
	repo      repositories.MessageRepository
	files     FileStore
	retention time.Duration
	interval  time.Duration
	emitter   *telemetry.AuditEmitter
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a Sweeper.
func New(repo repositories.MessageRepository, files FileStore, retention, interval time.Duration, emitter *telemetry.AuditEmitter, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:      repo,
		files:     files,
		retention: retention,
		interval:  interval,
		emitter:   emitter,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps once per interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one eviction pass. A failed attachment delete is logged and
// does not stop the rest of the batch; a failed pass does not stop future
// ticks.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep delete failed", zap.Error(err))
		return
	}
	if len(deleted) == 0 {
		return
	}

	failures := 0
	for _, msg := range deleted {
		if msg.Image == "" {
			continue
		}
		if err := s.files.Delete(msg.Image); err != nil {
			failures++
			observability.IncAttachmentSweepFailure()
			s.logger.Warn("attachment delete failed", zap.String("ref", msg.Image), zap.Error(err))
		}
	}

	observability.AddMessagesSwept(len(deleted))
	s.logger.Info("sweep completed",
		zap.Int("messages", len(deleted)),
		zap.Int("attachment_failures", failures),
		zap.Time("cutoff", cutoff),
	)
	s.emitter.Emit(ctx, "sweep_completed", map[string]any{
		"messages":            len(deleted),
		"attachment_failures": failures,
		"cutoff":              cutoff.Format(time.RFC3339),
	})
}
