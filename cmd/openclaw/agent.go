package main

import (
	"context"
	"time"

	"github.com/manthysbr/openclaw/internal/adapters/filestore"
	"github.com/manthysbr/openclaw/internal/adapters/providers"
	"github.com/manthysbr/openclaw/internal/core/ports"
	"github.com/manthysbr/openclaw/internal/core/services"
)

// agent is the fully wired runtime: stores, collaborators and the scheduler
// that drives them.
type agent struct {
	queue     *filestore.CommandQueue
	records   *filestore.RecordStore
	state     *services.StateTracker
	bus       *services.EventBus
	dedup     *providers.Dedup
	scheduler *services.CycleScheduler
}

func (a *app) buildAgent(ctx context.Context) (*agent, error) {
	cfg := a.cfg
	logger := a.logger

	collab, err := providers.Build(logger, cfg)
	if err != nil {
		return nil, err
	}
	dedup, err := providers.BuildDedup(ctx, logger, cfg.Dedup)
	if err != nil {
		return nil, err
	}

	queue := filestore.NewCommandQueue(logger.With("component", "command_queue"), cfg.Storage.CommandsPath)
	records := filestore.NewRecordStore(logger.With("component", "record_store"), cfg.Storage.DeploymentsPath)
	state := services.NewStateTracker(time.Now())
	bus := services.NewEventBus(logger.With("component", "eventbus"))

	engager := services.NewEngager(logger.With("component", "engager"), collab.Social, collab.Images, state, bus, cfg.Agent.EngagementInterval)

	// Without an API key the feed has nothing to read; a nil fetcher disables it.
	var fetcher ports.FeedFetcher
	if collab.Social.Configured() {
		fetcher = collab.Social
	} else {
		logger.Warn("farcaster api key not set, remote commands disabled")
	}
	feed := services.NewRemoteCommandFeed(logger.With("component", "remote_feed"), services.FeedConfig{
		AccountID:    cfg.Farcaster.FID,
		PostLimit:    cfg.Farcaster.PostLimit,
		PollInterval: cfg.Agent.PollInterval,
	}, fetcher, dedup, engager, state)

	dispatcher := services.NewDispatcher(logger.With("component", "dispatcher"), services.DispatcherDeps{
		Tokens:     collab.Tokens,
		NFTs:       collab.NFTs,
		Explorer:   collab.Explorer,
		Poster:     collab.Social,
		Images:     collab.Images,
		Reputation: collab.Reputation,
		Records:    records,
		State:      state,
		Bus:        bus,
	}, cfg.Agent.BatchDelay)

	scheduler := services.NewCycleScheduler(logger.With("component", "scheduler"), services.SchedulerConfig{
		DeployInterval: cfg.Agent.DeployInterval,
		IdleSleep:      cfg.Agent.IdleSleep,
	}, queue, feed, dispatcher, state)

	return &agent{
		queue:     queue,
		records:   records,
		state:     state,
		bus:       bus,
		dedup:     dedup,
		scheduler: scheduler,
	}, nil
}

func (ag *agent) Close() error {
	if ag.dedup != nil && ag.dedup.Close != nil {
		return ag.dedup.Close()
	}
	return nil
}
