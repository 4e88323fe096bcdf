package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

type stubFetcher struct {
	own, mentions []domain.RemotePost
	err           error
	calls         int
}

func (s *stubFetcher) FetchAccountPosts(_ context.Context, _ string, _ int) ([]domain.RemotePost, error) {
	s.calls++
	return s.own, s.err
}

func (s *stubFetcher) FetchMentions(context.Context, string) ([]domain.RemotePost, error) {
	return s.mentions, s.err
}

func newTestFeed(fetcher *stubFetcher, engager *Engager, clock *fakeClock) (*RemoteCommandFeed, *MemoryDeduplicator, *StateTracker) {
	state := NewStateTracker(clock.Now())
	if engager != nil {
		engager.state = state
	}
	dedup := NewMemoryDeduplicator()
	feed := NewRemoteCommandFeed(testLogger(), FeedConfig{AccountID: "1234"}, fetcher, dedup, engager, state)
	feed.now = clock.Now
	return feed, dedup, state
}

func TestRemoteCommandFeed_FirstMatchWins(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	fetcher := &stubFetcher{
		own: []domain.RemotePost{
			{ID: "p1", Text: "gm frens"},
			{ID: "p2", Text: "!nft Lobsters LOB"},
		},
		mentions: []domain.RemotePost{
			{ID: "m1", Text: "@openclaw !deploy NovaToken NVT", AuthorHandle: "alice"},
			{ID: "m2", Text: "just chatting"},
		},
	}
	feed, dedup, _ := newTestFeed(fetcher, nil, clock)

	cmd, ok := feed.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, domain.KindDeployNFT, cmd.Kind)
	assert.Equal(t, "Lobsters", cmd.Params.Get(domain.ParamName))
	assert.Equal(t, clock.Now(), cmd.Timestamp)

	// The rest of the batch is marked seen without being dispatched.
	assert.Equal(t, 4, dedup.Len())

	clock.Advance(2 * time.Minute)
	_, ok = feed.Poll(context.Background())
	assert.False(t, ok, "m1 was seen in the first poll and must not trigger")
}

func TestRemoteCommandFeed_DedupMonotonic(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	fetcher := &stubFetcher{own: []domain.RemotePost{{ID: "p1", Text: "!deploy NovaToken NVT"}}}
	feed, _, _ := newTestFeed(fetcher, nil, clock)

	_, ok := feed.Poll(context.Background())
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
		_, ok = feed.Poll(context.Background())
		assert.False(t, ok)
	}
}

func TestRemoteCommandFeed_RateLimited(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	fetcher := &stubFetcher{err: errors.New("neynar down")}
	feed, _, state := newTestFeed(fetcher, nil, clock)

	_, ok := feed.Poll(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, clock.Now(), state.LastRemotePoll())

	clock.Advance(30 * time.Second)
	_, ok = feed.Poll(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, fetcher.calls, "failed poll must still respect the gate")

	clock.Advance(30 * time.Second)
	feed.Poll(context.Background())
	assert.Equal(t, 2, fetcher.calls)
}

func TestRemoteCommandFeed_DisabledWithoutAccount(t *testing.T) {
	fetcher := &stubFetcher{own: []domain.RemotePost{{ID: "p1", Text: "!deploy"}}}
	state := NewStateTracker(time.Now())
	feed := NewRemoteCommandFeed(testLogger(), FeedConfig{}, fetcher, NewMemoryDeduplicator(), nil, state)

	_, ok := feed.Poll(context.Background())
	assert.False(t, ok)
	assert.Zero(t, fetcher.calls)
}

func TestRemoteCommandFeed_EngagementWhenIdle(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)

	poster := new(MockPoster)
	poster.On("Post", mock.Anything, mock.AnythingOfType("string"), "https://img.example/lobster.png").
		Return(domain.PostResult{Platform: "farcaster", Status: domain.PostSuccess}).Once()
	images := new(MockImageGenerator)
	images.On("GenerateImage", mock.Anything, engagementImagePrompt).Return("https://img.example/lobster.png", nil).Once()

	engager := NewEngager(testLogger(), poster, images, nil, nil, 0)
	engager.now = clock.Now
	engager.rng = fixedRand{n: 0}
	feed, _, state := newTestFeed(&stubFetcher{}, engager, clock)

	// Too soon after start.
	feed.Poll(context.Background())
	poster.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)

	clock.Advance(DefaultEngagementInterval)
	_, ok := feed.Poll(context.Background())
	assert.False(t, ok, "engagement never yields a command")
	assert.Equal(t, clock.Now(), state.LastEngagement())

	// Next due poll within the engagement interval does not post again.
	clock.Advance(time.Minute)
	feed.Poll(context.Background())

	poster.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestEngager_PostsWithoutImageWhenNoneGenerated(t *testing.T) {
	emptyRef := new(MockImageGenerator)
	emptyRef.On("GenerateImage", mock.Anything, engagementImagePrompt).Return("", nil).Once()
	failing := new(MockImageGenerator)
	failing.On("GenerateImage", mock.Anything, engagementImagePrompt).Return("", errors.New("quota exceeded")).Once()

	tests := []struct {
		name   string
		images *MockImageGenerator
	}{
		{"images disabled", nil},
		{"empty reference", emptyRef},
		{"generator error", failing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
			poster := new(MockPoster)
			poster.On("Post", mock.Anything, mock.AnythingOfType("string"), "").
				Return(domain.PostResult{Platform: "farcaster", Status: domain.PostSuccess}).Once()

			var engager *Engager
			if tt.images == nil {
				engager = NewEngager(testLogger(), poster, nil, nil, nil, 0)
			} else {
				engager = NewEngager(testLogger(), poster, tt.images, nil, nil, 0)
			}
			engager.now = clock.Now
			engager.state = NewStateTracker(clock.Now())

			clock.Advance(time.Hour)
			assert.True(t, engager.MaybeEngage(context.Background()))

			poster.AssertExpectations(t)
			if tt.images != nil {
				tt.images.AssertExpectations(t)
			}
		})
	}
}

type failingDedup struct{}

func (failingDedup) MarkSeen(context.Context, string) (bool, error) {
	return false, errors.New("redis unavailable")
}

func TestRemoteCommandFeed_DedupErrorSkipsPost(t *testing.T) {
	clock := newFakeClock(time.Now())
	state := NewStateTracker(clock.Now())
	fetcher := &stubFetcher{own: []domain.RemotePost{{ID: "p1", Text: "!deploy NovaToken NVT"}}}
	feed := NewRemoteCommandFeed(testLogger(), FeedConfig{AccountID: "1"}, fetcher, failingDedup{}, nil, state)
	feed.now = clock.Now

	_, ok := feed.Poll(context.Background())
	assert.False(t, ok)
}
