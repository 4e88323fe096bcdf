package imagegen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

// Fallback tries each generator in order and returns the first image.
type Fallback struct {
	logger     *slog.Logger
	generators []ports.ImageGenerator
}

func NewFallback(logger *slog.Logger, generators ...ports.ImageGenerator) *Fallback {
	return &Fallback{logger: logger, generators: generators}
}

func (f *Fallback) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for i, g := range f.generators {
		ref, err := g.GenerateImage(ctx, prompt)
		if err == nil {
			return ref, nil
		}
		f.logger.Warn("image generator failed, trying next", "index", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no image generators configured")
	}
	return "", errors.Join(errs...)
}
