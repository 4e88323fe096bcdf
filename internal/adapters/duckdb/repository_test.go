package duckdb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), filepath.Join(t.TempDir(), "openclaw.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeenCastRepository_MarkSeen(t *testing.T) {
	ctx := context.Background()
	seen := NewSeenCastRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), newTestRepo(t), 0)

	fresh, err := seen.MarkSeen(ctx, "0xcast1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = seen.MarkSeen(ctx, "0xcast1")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = seen.MarkSeen(ctx, "0xcast2")
	require.NoError(t, err)
	assert.True(t, fresh)

	n, err := seen.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeenCastRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "openclaw.duckdb")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := NewRepository(ctx, path)
	require.NoError(t, err)
	_, err = NewSeenCastRepository(logger, repo, 0).MarkSeen(ctx, "0xcast1")
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	fresh, err := NewSeenCastRepository(logger, repo, 0).MarkSeen(ctx, "0xcast1")
	require.NoError(t, err)
	assert.False(t, fresh, "ids must persist across restarts")
}

func TestSeenCastRepository_Prune(t *testing.T) {
	ctx := context.Background()
	seen := NewSeenCastRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), newTestRepo(t), 24*time.Hour)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seen.now = func() time.Time { return base }
	_, err := seen.MarkSeen(ctx, "old")
	require.NoError(t, err)

	seen.now = func() time.Time { return base.Add(23 * time.Hour) }
	_, err = seen.MarkSeen(ctx, "recent")
	require.NoError(t, err)

	seen.now = func() time.Time { return base.Add(25 * time.Hour) }
	n, err := seen.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fresh, err := seen.MarkSeen(ctx, "recent")
	require.NoError(t, err)
	assert.False(t, fresh)
}
