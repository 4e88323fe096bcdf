package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/openclaw/internal/adapters/chain"
	"github.com/manthysbr/openclaw/internal/adapters/duckdb"
	"github.com/manthysbr/openclaw/internal/adapters/imagegen"
	"github.com/manthysbr/openclaw/internal/adapters/neynar"
	"github.com/manthysbr/openclaw/internal/adapters/redisdedup"
	"github.com/manthysbr/openclaw/internal/adapters/reputation"
	"github.com/manthysbr/openclaw/internal/config"
	"github.com/manthysbr/openclaw/internal/core/ports"
	"github.com/manthysbr/openclaw/internal/core/services"
)

// Collaborators are the external services the dispatcher and feed drive.
type Collaborators struct {
	Tokens     ports.TokenDeployer
	NFTs       ports.NFTDeployer
	Explorer   ports.ExplorerLinker
	Social     *neynar.Client
	Images     ports.ImageGenerator
	Reputation ports.ReputationSink
}

// Build creates the collaborators from configuration. It hides the choice
// between real and local/simulated implementations from callers.
func Build(logger *slog.Logger, cfg *config.Config) (*Collaborators, error) {
	deployer, err := buildDeployer(logger, cfg.Chain)
	if err != nil {
		return nil, err
	}
	images, err := buildImageGenerator(logger, cfg.Image)
	if err != nil {
		return nil, err
	}
	rep, err := buildReputation(logger, cfg.Reputation)
	if err != nil {
		return nil, err
	}

	return &Collaborators{
		Tokens:   deployer,
		NFTs:     deployer,
		Explorer: chain.NewExplorer(cfg.Chain.ChainID),
		Social: neynar.NewClient(logger.With("component", "neynar"), neynar.Config{
			BaseURL:           cfg.Farcaster.BaseURL,
			APIKey:            cfg.Farcaster.APIKey,
			SignerUUID:        cfg.Farcaster.SignerUUID,
			RequestsPerSecond: cfg.Farcaster.RequestsPerSecond,
		}),
		Images:     images,
		Reputation: rep,
	}, nil
}

type deployer interface {
	ports.TokenDeployer
	ports.NFTDeployer
}

func buildDeployer(logger *slog.Logger, cfg config.ChainConfig) (deployer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "simulated":
		logger.Warn("chain mode is simulated, deployments will not reach the network")
		return chain.NewSimulatedDeployer(logger.With("component", "chain")), nil
	case "relay":
		if strings.TrimSpace(cfg.RelayURL) == "" {
			return nil, fmt.Errorf("chain relay_url is required when mode=relay")
		}
		return chain.NewRelayDeployer(logger.With("component", "chain"), cfg.RelayURL, cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported chain mode: %s", cfg.Mode)
	}
}

func buildImageGenerator(logger *slog.Logger, cfg config.ImageConfig) (ports.ImageGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "none":
		return nil, nil
	case "", "pollinations":
		return imagegen.NewPollinationsGenerator(cfg.BaseURL), nil
	case "openai":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("image base_url is required when mode=openai")
		}
		// Pollinations never fails for a non-empty prompt, so it backs up the API.
		return imagegen.NewFallback(logger.With("component", "imagegen"),
			imagegen.NewOpenAIGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model),
			imagegen.NewPollinationsGenerator(""),
		), nil
	default:
		return nil, fmt.Errorf("unsupported image provider mode: %s", cfg.Mode)
	}
}

func buildReputation(logger *slog.Logger, cfg config.ReputationConfig) (ports.ReputationSink, error) {
	if !cfg.Enabled {
		return reputation.Disabled{}, nil
	}
	agentID := strings.TrimSpace(cfg.AgentID)
	if agentID == "" && cfg.MetadataPath != "" {
		md, err := reputation.LoadMetadata(cfg.MetadataPath)
		if err != nil {
			return nil, err
		}
		agentID = md.AgentID
	}
	if agentID == "" {
		logger.Warn("reputation enabled but agent is not registered, proofs will be skipped")
	}
	return reputation.NewRelaySink(logger.With("component", "reputation"), cfg.URL, cfg.APIKey, agentID, cfg.ProofDir), nil
}

// Dedup is the configured cast deduplicator plus its lifecycle hooks.
type Dedup struct {
	ports.CastDeduplicator
	// Janitor runs background maintenance until ctx is done. Nil when the
	// backend needs none.
	Janitor func(ctx context.Context) error
	Close   func() error
}

// BuildDedup opens the seen-cast backend named by cfg.Backend.
func BuildDedup(ctx context.Context, logger *slog.Logger, cfg config.DedupConfig) (*Dedup, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return &Dedup{CastDeduplicator: services.NewMemoryDeduplicator(), Close: func() error { return nil }}, nil
	case "duckdb":
		repo, err := duckdb.NewRepository(ctx, cfg.DuckDBPath)
		if err != nil {
			return nil, err
		}
		seen := duckdb.NewSeenCastRepository(logger.With("component", "duckdb"), repo, cfg.Retention)
		return &Dedup{
			CastDeduplicator: seen,
			Janitor:          func(ctx context.Context) error { return seen.RunJanitor(ctx, cfg.PruneInterval) },
			Close:            repo.Close,
		}, nil
	case "redis":
		client := redisdedup.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		d := redisdedup.New(client, cfg.RedisKeyPrefix, cfg.Retention)
		if err := d.Ping(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return &Dedup{CastDeduplicator: d, Close: client.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported dedup backend: %s", cfg.Backend)
	}
}
