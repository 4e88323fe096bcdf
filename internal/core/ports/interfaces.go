package ports

import (
	"context"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

// TokenDeployer abstracts ERC-20 contract creation (signing, broadcast, receipt wait).
type TokenDeployer interface {
	DeployToken(ctx context.Context, name, symbol string, supply int64) (domain.Deployment, error)
}

// NFTDeployer abstracts ERC-721 collection creation.
type NFTDeployer interface {
	DeployNFT(ctx context.Context, name, symbol string) (domain.Deployment, error)
}

// ExplorerLinker turns a transaction id into a block explorer URL.
type ExplorerLinker interface {
	ExplorerURL(txID string) string
}

// SocialPoster publishes a message. It reports failure in the result, never panics
// or returns an error.
type SocialPoster interface {
	Post(ctx context.Context, text string, imageRef string) domain.PostResult
}

// FeedFetcher reads posts from the social graph.
type FeedFetcher interface {
	// FetchAccountPosts returns the account's own recent posts, newest first.
	FetchAccountPosts(ctx context.Context, accountID string, limit int) ([]domain.RemotePost, error)

	// FetchMentions returns recent public posts mentioning the account.
	FetchMentions(ctx context.Context, accountID string) ([]domain.RemotePost, error)
}

// ImageGenerator returns an image reference (usually a URL) for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ReputationSink records proof of completed work with an on-chain registry.
type ReputationSink interface {
	SubmitReputation(ctx context.Context, taskKind string, metadata map[string]any) (bool, error)
}

// CommandQueue is the operator-facing local queue.
type CommandQueue interface {
	// ClaimNextUnexecuted marks the first pending entry executed, persists, and
	// returns it. Missing or malformed storage yields false.
	ClaimNextUnexecuted(ctx context.Context) (domain.Command, bool)

	Enqueue(ctx context.Context, kind domain.CommandKind, params domain.Params) (domain.Command, error)

	List(ctx context.Context) ([]domain.Command, error)
}

// RecordStore is the append-only deployment log.
type RecordStore interface {
	Append(ctx context.Context, rec domain.DeploymentRecord) error
	List(ctx context.Context) ([]domain.DeploymentRecord, error)
}

// CastDeduplicator remembers remote post ids.
type CastDeduplicator interface {
	// MarkSeen inserts id and reports whether it was new. Once an id has been
	// inserted, every later call returns false.
	MarkSeen(ctx context.Context, id string) (bool, error)
}
