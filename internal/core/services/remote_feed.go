package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultPostLimit    = 10
)

// FeedConfig selects the monitored account. An empty AccountID disables the feed.
type FeedConfig struct {
	AccountID    string
	PostLimit    int
	PollInterval time.Duration
}

// RemoteCommandFeed turns social posts into commands.
type RemoteCommandFeed struct {
	logger  *slog.Logger
	cfg     FeedConfig
	fetcher ports.FeedFetcher
	dedup   ports.CastDeduplicator
	engager *Engager
	state   *StateTracker
	now     func() time.Time
}

func NewRemoteCommandFeed(logger *slog.Logger, cfg FeedConfig, fetcher ports.FeedFetcher, dedup ports.CastDeduplicator, engager *Engager, state *StateTracker) *RemoteCommandFeed {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = DefaultPostLimit
	}
	return &RemoteCommandFeed{
		logger:  logger,
		cfg:     cfg,
		fetcher: fetcher,
		dedup:   dedup,
		engager: engager,
		state:   state,
		now:     time.Now,
	}
}

// Poll returns the first new command in the account's posts followed by its
// mentions. Calls within the poll interval of the previous one return nothing
// without touching the network. Every new post id is marked seen whether or not
// it parses; posts after the first match are marked seen without being parsed,
// so they can never trigger later.
func (f *RemoteCommandFeed) Poll(ctx context.Context) (domain.Command, bool) {
	if f.fetcher == nil || f.cfg.AccountID == "" {
		return domain.Command{}, false
	}

	now := f.now()
	if last := f.state.LastRemotePoll(); !last.IsZero() && now.Sub(last) < f.cfg.PollInterval {
		return domain.Command{}, false
	}
	f.state.MarkRemotePoll(now)

	var (
		found domain.Command
		ok    bool
	)
	for _, post := range f.fetch(ctx) {
		if post.ID == "" {
			continue
		}
		fresh, err := f.dedup.MarkSeen(ctx, post.ID)
		if err != nil {
			f.logger.Warn("dedup lookup failed, skipping post", "post_id", post.ID, "error", err)
			continue
		}
		if !fresh || ok {
			continue
		}
		if cmd, matched := ParseCastCommand(post); matched {
			cmd.Timestamp = now
			found, ok = cmd, true
			f.logger.Info("remote command received", "post_id", post.ID, "command", cmd.Kind, "author", post.AuthorHandle)
		}
	}
	if ok {
		return found, true
	}

	if f.engager != nil {
		f.engager.MaybeEngage(ctx)
	}
	return domain.Command{}, false
}

func (f *RemoteCommandFeed) fetch(ctx context.Context) []domain.RemotePost {
	var posts []domain.RemotePost

	own, err := f.fetcher.FetchAccountPosts(ctx, f.cfg.AccountID, f.cfg.PostLimit)
	if err != nil {
		f.logger.Warn("failed to fetch account posts", "account", f.cfg.AccountID, "error", err)
	} else {
		posts = append(posts, own...)
	}

	mentions, err := f.fetcher.FetchMentions(ctx, f.cfg.AccountID)
	if err != nil {
		f.logger.Warn("failed to fetch mentions", "account", f.cfg.AccountID, "error", err)
	} else {
		posts = append(posts, mentions...)
	}
	return posts
}
