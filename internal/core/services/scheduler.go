package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const (
	DefaultDeployInterval = 20 * time.Minute
	DefaultIdleSleep      = 5 * time.Second
)

// CyclePhase is the scheduler's state machine position.
type CyclePhase string

const (
	PhaseIdle        CyclePhase = "idle"
	PhaseDispatching CyclePhase = "dispatching"
)

// CommandPoller yields at most one command per call.
type CommandPoller interface {
	Poll(ctx context.Context) (domain.Command, bool)
}

// CommandHandler executes a command.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.Command) bool
}

// SchedulerConfig tunes the loop timing.
type SchedulerConfig struct {
	DeployInterval time.Duration
	IdleSleep      time.Duration
}

// CycleScheduler is the agent's main loop. Local commands beat remote ones,
// and both beat the default deploy timer, which only fires on a tick where
// neither source had anything.
type CycleScheduler struct {
	logger  *slog.Logger
	queue   ports.CommandQueue
	feed    CommandPoller
	handler CommandHandler
	state   *StateTracker
	cfg     SchedulerConfig
	wake    <-chan struct{}
	phase   atomic.Value
	now     func() time.Time
}

func NewCycleScheduler(logger *slog.Logger, cfg SchedulerConfig, queue ports.CommandQueue, feed CommandPoller, handler CommandHandler, state *StateTracker) *CycleScheduler {
	if cfg.DeployInterval <= 0 {
		cfg.DeployInterval = DefaultDeployInterval
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = DefaultIdleSleep
	}
	s := &CycleScheduler{
		logger:  logger,
		queue:   queue,
		feed:    feed,
		handler: handler,
		state:   state,
		cfg:     cfg,
		now:     time.Now,
	}
	s.phase.Store(PhaseIdle)
	return s
}

// WithWake lets a file watcher cut the idle sleep short.
func (s *CycleScheduler) WithWake(ch <-chan struct{}) *CycleScheduler {
	s.wake = ch
	return s
}

// Phase reports whether a command is being dispatched right now.
func (s *CycleScheduler) Phase() CyclePhase {
	return s.phase.Load().(CyclePhase)
}

// Run blocks until ctx is cancelled. After a dispatch it ticks again at once to
// drain pending commands; otherwise it sleeps for the idle period.
func (s *CycleScheduler) Run(ctx context.Context) error {
	s.logger.Info("cycle scheduler started", "deploy_interval", s.cfg.DeployInterval, "idle_sleep", s.cfg.IdleSleep)

	idle := time.NewTimer(s.cfg.IdleSleep)
	defer idle.Stop()

	for {
		if ctx.Err() != nil {
			s.logger.Info("cycle scheduler stopped")
			return nil
		}
		if s.Tick(ctx) {
			continue
		}

		idle.Reset(s.cfg.IdleSleep)
		select {
		case <-ctx.Done():
			s.logger.Info("cycle scheduler stopped")
			return nil
		case <-s.wake:
			s.logger.Debug("command store changed, waking scheduler")
		case <-idle.C:
		}
	}
}

// Tick runs one pass of the state machine and reports whether anything was
// dispatched.
func (s *CycleScheduler) Tick(ctx context.Context) bool {
	if cmd, ok := s.nextCommand(ctx); ok {
		s.dispatch(ctx, cmd)
		return true
	}

	if !s.defaultDue() {
		return false
	}
	now := s.now()
	s.state.MarkDefaultAttempt(now)
	s.dispatch(ctx, domain.Command{
		Kind:      domain.KindDeploy,
		Params:    domain.Params{},
		Source:    domain.SourceDefaultTimer,
		Timestamp: now,
	})
	return true
}

// RunOnce dispatches a single default deployment regardless of timers.
func (s *CycleScheduler) RunOnce(ctx context.Context) bool {
	now := s.now()
	s.state.MarkDefaultAttempt(now)
	return s.dispatch(ctx, domain.Command{
		Kind:      domain.KindDeploy,
		Params:    domain.Params{},
		Source:    domain.SourceDefaultTimer,
		Timestamp: now,
	})
}

func (s *CycleScheduler) nextCommand(ctx context.Context) (domain.Command, bool) {
	if s.queue != nil {
		if cmd, ok := s.queue.ClaimNextUnexecuted(ctx); ok {
			return cmd, true
		}
	}
	if s.feed != nil {
		return s.feed.Poll(ctx)
	}
	return domain.Command{}, false
}

// defaultDue measures the interval from the later of the last deployment and
// the last default attempt, so a failing deployer is not retried every tick.
func (s *CycleScheduler) defaultDue() bool {
	last := s.state.LastDeployment()
	if attempt := s.state.LastDefaultAttempt(); attempt.After(last) {
		last = attempt
	}
	return last.IsZero() || s.now().Sub(last) >= s.cfg.DeployInterval
}

func (s *CycleScheduler) dispatch(ctx context.Context, cmd domain.Command) bool {
	s.phase.Store(PhaseDispatching)
	defer s.phase.Store(PhaseIdle)
	return s.handler.Handle(ctx, cmd)
}
