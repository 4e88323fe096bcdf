package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

// SeenCastRepository is a durable CastDeduplicator. Ids older than the
// retention window are pruned, which bounds the table and means a very old
// post could trigger again after a restart.
type SeenCastRepository struct {
	repo      *Repository
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

var _ ports.CastDeduplicator = (*SeenCastRepository)(nil)

func NewSeenCastRepository(logger *slog.Logger, repo *Repository, retention time.Duration) *SeenCastRepository {
	return &SeenCastRepository{
		repo:      repo,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

func (s *SeenCastRepository) MarkSeen(ctx context.Context, id string) (bool, error) {
	res, err := s.repo.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_casts (id, first_seen) VALUES (?, ?)`,
		id, s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark cast %s seen: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n == 1, nil
}

// Count returns the number of remembered ids.
func (s *SeenCastRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.repo.db.QueryRowContext(ctx, `SELECT count(*) FROM seen_casts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count seen casts: %w", err)
	}
	return n, nil
}

// Prune deletes ids first seen before the retention window.
func (s *SeenCastRepository) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.retention)
	res, err := s.repo.db.ExecContext(ctx, `DELETE FROM seen_casts WHERE first_seen < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune seen casts: %w", err)
	}
	return res.RowsAffected()
}

// RunJanitor prunes on every interval until ctx is cancelled.
func (s *SeenCastRepository) RunJanitor(ctx context.Context, interval time.Duration) error {
	if s.retention <= 0 {
		<-ctx.Done()
		return nil
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s.logger.Info("seen cast janitor started", "interval", interval, "retention", s.retention)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Prune(ctx)
			if err != nil {
				s.logger.Error("seen cast prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("pruned seen casts", "count", n)
			}
		}
	}
}
