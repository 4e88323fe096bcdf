package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockTokenDeployer struct {
	mock.Mock
}

func (m *MockTokenDeployer) DeployToken(ctx context.Context, name, symbol string, supply int64) (domain.Deployment, error) {
	args := m.Called(ctx, name, symbol, supply)
	return args.Get(0).(domain.Deployment), args.Error(1)
}

type MockNFTDeployer struct {
	mock.Mock
}

func (m *MockNFTDeployer) DeployNFT(ctx context.Context, name, symbol string) (domain.Deployment, error) {
	args := m.Called(ctx, name, symbol)
	return args.Get(0).(domain.Deployment), args.Error(1)
}

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) Post(ctx context.Context, text, imageRef string) domain.PostResult {
	args := m.Called(ctx, text, imageRef)
	return args.Get(0).(domain.PostResult)
}

type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockReputationSink struct {
	mock.Mock
}

func (m *MockReputationSink) SubmitReputation(ctx context.Context, taskKind string, metadata map[string]any) (bool, error) {
	args := m.Called(ctx, taskKind, metadata)
	return args.Bool(0), args.Error(1)
}

type staticLinker struct{}

func (staticLinker) ExplorerURL(txID string) string { return "https://basescan.org/tx/" + txID }

// memRecords is a RecordStore that keeps records in memory.
type memRecords struct {
	mu      sync.Mutex
	records []domain.DeploymentRecord
	err     error
}

func (m *memRecords) Append(_ context.Context, rec domain.DeploymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memRecords) List(context.Context) ([]domain.DeploymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DeploymentRecord(nil), m.records...), nil
}

// memQueue is a CommandQueue over a slice.
type memQueue struct {
	mu       sync.Mutex
	commands []domain.Command
	claims   int
}

func (q *memQueue) ClaimNextUnexecuted(context.Context) (domain.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.claims++
	for i := range q.commands {
		if !q.commands[i].Executed {
			q.commands[i].Executed = true
			return q.commands[i], true
		}
	}
	return domain.Command{}, false
}

func (q *memQueue) Enqueue(_ context.Context, kind domain.CommandKind, params domain.Params) (domain.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmd := domain.Command{Kind: kind, Params: params, Source: domain.SourceLocalQueue}
	q.commands = append(q.commands, cmd)
	return cmd, nil
}

func (q *memQueue) List(context.Context) ([]domain.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Command(nil), q.commands...), nil
}

// recordingHandler remembers every command it is handed.
type recordingHandler struct {
	mu      sync.Mutex
	handled []domain.Command
	result  bool
}

func (h *recordingHandler) Handle(_ context.Context, cmd domain.Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, cmd)
	return h.result
}

func (h *recordingHandler) commands() []domain.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Command(nil), h.handled...)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedRand always picks index n (clamped).
type fixedRand struct{ n int }

func (r fixedRand) IntN(max int) int {
	if r.n >= max {
		return max - 1
	}
	return r.n
}
