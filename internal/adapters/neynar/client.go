package neynar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.neynar.com"
	Platform       = "farcaster"
)

// Config holds the Neynar credentials. RequestsPerSecond throttles every call
// made through one client, posts and fetches alike.
type Config struct {
	BaseURL           string
	APIKey            string
	SignerUUID        string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client posts casts and reads feeds through the Neynar v2 API.
type Client struct {
	logger     *slog.Logger
	http       *http.Client
	baseURL    string
	apiKey     string
	signerUUID string
	limiter    *rate.Limiter
}

var (
	_ ports.SocialPoster = (*Client)(nil)
	_ ports.FeedFetcher  = (*Client)(nil)
)

func NewClient(logger *slog.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		logger:     logger,
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		signerUUID: cfg.SignerUUID,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type castEmbed struct {
	URL string `json:"url"`
}

type castRequest struct {
	SignerUUID string      `json:"signer_uuid"`
	Text       string      `json:"text"`
	Embeds     []castEmbed `json:"embeds,omitempty"`
}

type castResponse struct {
	Success bool `json:"success"`
	Cast    struct {
		Hash string `json:"hash"`
	} `json:"cast"`
}

// Post publishes a cast. Without an API key or signer it reports skipped.
func (c *Client) Post(ctx context.Context, text, imageRef string) domain.PostResult {
	if c.apiKey == "" || c.signerUUID == "" {
		return domain.PostResult{Platform: Platform, Status: domain.PostSkipped, Detail: "no_api_key"}
	}

	payload := castRequest{SignerUUID: c.signerUUID, Text: text}
	if imageRef != "" {
		payload.Embeds = []castEmbed{{URL: imageRef}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Errorf("failed to marshal cast: %w", err))
	}

	var out castResponse
	if err := c.do(ctx, http.MethodPost, "/v2/farcaster/cast", nil, body, &out); err != nil {
		c.logger.Error("failed to post cast", "error", err)
		return errorResult(err)
	}
	return domain.PostResult{Platform: Platform, Status: domain.PostSuccess, Detail: out.Cast.Hash}
}

type apiCast struct {
	Hash   string `json:"hash"`
	Text   string `json:"text"`
	Author struct {
		FID      int64  `json:"fid"`
		Username string `json:"username"`
	} `json:"author"`
}

func (a apiCast) toPost() domain.RemotePost {
	return domain.RemotePost{ID: a.Hash, Text: a.Text, AuthorHandle: a.Author.Username}
}

// FetchAccountPosts returns the account's recent casts, newest first.
func (c *Client) FetchAccountPosts(ctx context.Context, accountID string, limit int) ([]domain.RemotePost, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("neynar: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("fid", accountID)
	q.Set("limit", strconv.Itoa(limit))

	var out struct {
		Casts []apiCast `json:"casts"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/farcaster/feed/user/casts", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch casts for fid %s: %w", accountID, err)
	}

	posts := make([]domain.RemotePost, 0, len(out.Casts))
	for _, cast := range out.Casts {
		posts = append(posts, cast.toPost())
	}
	return posts, nil
}

// FetchMentions returns recent casts that mention the account.
func (c *Client) FetchMentions(ctx context.Context, accountID string) ([]domain.RemotePost, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("neynar: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("fid", accountID)
	q.Set("type", "mentions")

	var out struct {
		Notifications []struct {
			Type string   `json:"type"`
			Cast *apiCast `json:"cast"`
		} `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/farcaster/notifications", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch mentions for fid %s: %w", accountID, err)
	}

	var posts []domain.RemotePost
	for _, n := range out.Notifications {
		if n.Cast == nil || (n.Type != "" && n.Type != "mention") {
			continue
		}
		posts = append(posts, n.Cast.toPost())
	}
	return posts, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api_key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call neynar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("neynar returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode neynar response: %w", err)
	}
	return nil
}

func errorResult(err error) domain.PostResult {
	return domain.PostResult{Platform: Platform, Status: domain.PostError, Detail: err.Error()}
}
