package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moby/sys/atomicwriter"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

// queueEntry is the on-disk shape of one operator command. Timestamps are unix
// seconds as floats so files written by the dashboard stay compatible.
type queueEntry struct {
	ID         string        `json:"id,omitempty"`
	Type       string        `json:"type"`
	Params     domain.Params `json:"params"`
	Timestamp  float64       `json:"timestamp"`
	Executed   bool          `json:"executed"`
	ExecutedAt *float64      `json:"executed_at,omitempty"`
}

// CommandQueue is a JSON-array file of operator commands. Every mutation reads
// and rewrites the whole file; the rewrite is atomic (temp file + rename) and
// serialized within the process, but concurrent writers in other processes can
// still lose updates.
type CommandQueue struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
	now    func() time.Time
}

var _ ports.CommandQueue = (*CommandQueue)(nil)

func NewCommandQueue(logger *slog.Logger, path string) *CommandQueue {
	return &CommandQueue{
		logger: logger,
		path:   path,
		now:    time.Now,
	}
}

// Path returns the backing file.
func (q *CommandQueue) Path() string { return q.path }

// ClaimNextUnexecuted marks the first pending entry as executed, persists the
// store and only then returns the command. Entries whose type cannot be parsed
// are marked executed and skipped.
func (q *CommandQueue) ClaimNextUnexecuted(ctx context.Context) (domain.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			q.logger.Warn("command queue unreadable, treating as empty", "path", q.path, "error", err)
		}
		return domain.Command{}, false
	}

	var (
		claimed domain.Command
		found   bool
		dirty   bool
	)
	now := q.now()
	stamp := unixSeconds(now)

	for i := range entries {
		if entries[i].Executed {
			continue
		}
		entries[i].Executed = true
		entries[i].ExecutedAt = &stamp
		dirty = true

		kind, err := domain.ParseCommandKind(entries[i].Type)
		if err != nil {
			q.logger.Warn("dropping queued command with unknown type", "index", i, "type", entries[i].Type)
			continue
		}

		claimed = domain.Command{
			ID:        domain.CommandID(entries[i].ID),
			Kind:      kind,
			Params:    entries[i].Params.Clone(),
			Source:    domain.SourceLocalQueue,
			Timestamp: fromUnixSeconds(entries[i].Timestamp),
			Executed:  true,
		}
		found = true
		break
	}

	if !dirty {
		return domain.Command{}, false
	}
	if err := q.save(entries); err != nil {
		q.logger.Error("failed to persist claimed command", "path", q.path, "error", err)
		return domain.Command{}, false
	}
	if found {
		q.logger.Info("claimed local command", "id", claimed.ID, "type", claimed.Kind)
	}
	return claimed, found
}

// Enqueue appends a pending command. Unlike claiming, an unreadable store is an
// error here: rewriting it would destroy whatever the operator has in it.
func (q *CommandQueue) Enqueue(ctx context.Context, kind domain.CommandKind, params domain.Params) (domain.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.Command{}, fmt.Errorf("failed to read command queue: %w", err)
	}

	if params == nil {
		params = domain.Params{}
	}
	now := q.now()
	entry := queueEntry{
		ID:        uuid.New().String(),
		Type:      string(kind),
		Params:    params.Clone(),
		Timestamp: unixSeconds(now),
	}
	entries = append(entries, entry)

	if err := q.save(entries); err != nil {
		return domain.Command{}, fmt.Errorf("failed to write command queue: %w", err)
	}

	q.logger.Info("command queued", "id", entry.ID, "type", kind)
	return domain.Command{
		ID:        domain.CommandID(entry.ID),
		Kind:      kind,
		Params:    entry.Params.Clone(),
		Source:    domain.SourceLocalQueue,
		Timestamp: fromUnixSeconds(entry.Timestamp),
	}, nil
}

// List returns every entry in file order. Entries with unknown types are
// returned with their raw type string.
func (q *CommandQueue) List(ctx context.Context) ([]domain.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Command{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read command queue: %w", err)
	}

	out := make([]domain.Command, 0, len(entries))
	for _, e := range entries {
		kind, err := domain.ParseCommandKind(e.Type)
		if err != nil {
			kind = domain.CommandKind(e.Type)
		}
		out = append(out, domain.Command{
			ID:        domain.CommandID(e.ID),
			Kind:      kind,
			Params:    e.Params,
			Source:    domain.SourceLocalQueue,
			Timestamp: fromUnixSeconds(e.Timestamp),
			Executed:  e.Executed,
		})
	}
	return out, nil
}

func (q *CommandQueue) load() ([]queueEntry, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []queueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("malformed command queue: %w", err)
	}
	return entries, nil
}

func (q *CommandQueue) save(entries []queueEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return atomicwriter.WriteFile(q.path, data, 0o644)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(s float64) time.Time {
	if s <= 0 {
		return time.Time{}
	}
	sec := int64(s)
	nsec := int64((s - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
