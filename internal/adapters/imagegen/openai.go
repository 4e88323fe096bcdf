package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

// OpenAIGenerator calls an OpenAI-compatible image API.
// Expected endpoint: POST {baseURL}/images/generations
// Expected response: {"data":[{"url":"https://..."}]}
type OpenAIGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ ports.ImageGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = "gpt-image-1"
	}
	return &OpenAIGenerator{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

func (g *OpenAIGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(imageRequest{Model: g.model, Prompt: prompt, Size: "1024x1024"})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call image API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("image API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode image API response: %w", err)
	}
	if len(result.Data) == 0 || strings.TrimSpace(result.Data[0].URL) == "" {
		return "", errors.New("image API returned no image URL")
	}
	return result.Data[0].URL, nil
}
