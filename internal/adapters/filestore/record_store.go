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

	"github.com/moby/sys/atomicwriter"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

// RecordStore keeps deployment records as a JSON array (deployments.json), the
// same file the dashboard reads.
type RecordStore struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
}

var _ ports.RecordStore = (*RecordStore)(nil)

func NewRecordStore(logger *slog.Logger, path string) *RecordStore {
	return &RecordStore{logger: logger, path: path}
}

// Path returns the backing file.
func (s *RecordStore) Path() string { return s.path }

// Append adds rec at the end of the log. A corrupt file is left untouched and
// reported as ErrRecordStoreCorrupt.
func (s *RecordStore) Append(ctx context.Context, rec domain.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deployment records: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write deployment records: %w", err)
	}

	s.logger.Info("deployment record saved", "path", s.path, "deployment_number", rec.Sequence)
	return nil
}

// List returns all records in write order. A missing file is an empty log.
func (s *RecordStore) List(ctx context.Context) ([]domain.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.DeploymentRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.DeploymentRecord{}
	}
	return records, nil
}

func (s *RecordStore) load() ([]domain.DeploymentRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []domain.DeploymentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecordStoreCorrupt, err)
	}
	return records, nil
}
