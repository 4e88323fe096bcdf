package imagegen

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

const DefaultPollinationsURL = "https://pollinations.ai"

// PollinationsGenerator builds an on-the-fly image URL. Pollinations renders
// the image when the URL is first fetched, so no request is made here.
type PollinationsGenerator struct {
	baseURL string
}

var _ ports.ImageGenerator = (*PollinationsGenerator)(nil)

func NewPollinationsGenerator(baseURL string) *PollinationsGenerator {
	if baseURL == "" {
		baseURL = DefaultPollinationsURL
	}
	return &PollinationsGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *PollinationsGenerator) GenerateImage(_ context.Context, prompt string) (string, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(prompt, "$", ""))
	if clean == "" {
		return "", errors.New("empty image prompt")
	}
	q := url.Values{}
	q.Set("width", "1024")
	q.Set("height", "1024")
	q.Set("nologo", "true")
	q.Set("enhance", "true")
	return g.baseURL + "/p/" + url.PathEscape(clean) + "?" + q.Encode(), nil
}
