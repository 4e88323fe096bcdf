package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/openclaw/internal/adapters/filestore"
	"github.com/manthysbr/openclaw/pkg/kernel"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop and the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func newOnceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Deploy a single default token and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ag, err := a.buildAgent(ctx)
			if err != nil {
				return err
			}
			defer ag.Close()

			if !ag.scheduler.RunOnce(ctx) {
				return errors.New("deployment failed")
			}
			a.logger.Info("single deployment complete", "uptime", ag.state.Uptime(time.Now()))
			return nil
		},
	}
}

func (a *app) run(ctx context.Context) error {
	logger := a.logger
	cfg := a.cfg

	ag, err := a.buildAgent(ctx)
	if err != nil {
		return err
	}
	defer ag.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Command file watcher, waking the scheduler on operator edits
	if cfg.Agent.WatchCommands {
		watcher, err := filestore.NewWatcher(logger.With("component", "watcher"), ag.queue.Path())
		if err != nil {
			logger.Warn("command file watcher unavailable, falling back to idle polling", "error", err)
		} else {
			ag.scheduler.WithWake(watcher.Changes())
			g.Go(func() error {
				return watcher.Run(gCtx)
			})
		}
	}

	// 2. Dedup maintenance
	if ag.dedup.Janitor != nil {
		g.Go(func() error {
			return ag.dedup.Janitor(gCtx)
		})
	}

	// 3. Scheduler loop
	g.Go(func() error {
		return ag.scheduler.Run(gCtx)
	})

	// 4. HTTP API
	if cfg.Server.Enabled {
		apiServer, err := kernel.NewServer(logger.With("component", "api"), kernel.Deps{
			Queue:        ag.queue,
			Records:      ag.records,
			State:        ag.state,
			Phase:        ag.scheduler,
			EventBus:     ag.bus,
			MetadataPath: cfg.Reputation.MetadataPath,
		})
		if err != nil {
			return err
		}

		c := cors.New(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		})
		httpServer := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: c.Handler(apiServer.Handler()),
		}

		g.Go(func() error {
			logger.Info("starting api server", "addr", cfg.Server.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("shutting down api server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	logger.Info("openclaw agent started",
		"queue", cfg.Storage.CommandsPath,
		"records", cfg.Storage.DeploymentsPath,
		"dedup", cfg.Dedup.Backend,
		"chain", cfg.Chain.Mode,
	)
	return g.Wait()
}
