package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const DefaultEngagementInterval = 45 * time.Minute

// Engager posts the periodic promotional message.
type Engager struct {
	logger   *slog.Logger
	poster   ports.SocialPoster
	images   ports.ImageGenerator
	state    *StateTracker
	bus      *EventBus
	rng      randSource
	interval time.Duration
	now      func() time.Time
}

func NewEngager(logger *slog.Logger, poster ports.SocialPoster, images ports.ImageGenerator, state *StateTracker, bus *EventBus, interval time.Duration) *Engager {
	if interval <= 0 {
		interval = DefaultEngagementInterval
	}
	if poster == nil {
		poster = nopPoster{}
	}
	return &Engager{
		logger:   logger,
		poster:   poster,
		images:   images,
		state:    state,
		bus:      bus,
		rng:      newRand(),
		interval: interval,
		now:      time.Now,
	}
}

// MaybeEngage posts when the engagement interval has elapsed. The timestamp
// advances whether or not the post succeeds, so a broken poster is retried only
// on the next interval.
func (e *Engager) MaybeEngage(ctx context.Context) bool {
	now := e.now()
	if now.Sub(e.state.LastEngagement()) < e.interval {
		return false
	}
	e.state.MarkEngagement(now)

	text := engagementMessages[e.rng.IntN(len(engagementMessages))]
	var imageRef string
	if image := generateImage(ctx, e.logger, e.images, engagementImagePrompt); image.Status == domain.OutcomeSucceeded {
		imageRef = image.Detail
	}

	res := e.poster.Post(ctx, text, imageRef)
	e.logger.Info("autonomous engagement posted", "platform", res.Platform, "status", res.Status, "detail", res.Detail)
	e.bus.PublishJSON(TopicSocial, EventTypeEngagement, res)
	return res.OK()
}

// generateImage runs a best-effort image generation. On success the image
// reference is in Detail.
func generateImage(ctx context.Context, logger *slog.Logger, images ports.ImageGenerator, prompt string) domain.Outcome {
	if images == nil {
		return domain.Skipped("image generation disabled")
	}
	ref, err := images.GenerateImage(ctx, prompt)
	if err != nil {
		logger.Warn("image generation failed", "error", err)
		return domain.Failed(err)
	}
	if ref == "" {
		return domain.Skipped("empty image reference")
	}
	return domain.Succeeded(ref)
}
