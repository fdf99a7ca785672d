package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/varsilias/energy-advisor/internal/keys"
	"google.golang.org/genai"
)

// ErrNoAPIKey is returned before any call is attempted when no key is configured.
var ErrNoAPIKey = errors.New("gemini: api key is required")

// Request is a single-turn, non-streaming generation.
type Request struct {
	Model           string
	Prompt          string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// Client talks to the Gemini API. It holds no SDK client: credentials are
// resolved and a fresh genai.Client is built on every Generate call, so a key
// selected after startup takes effect on the next request.
type Client struct {
	log   *slog.Logger
	creds keys.CredentialSource
	http  genai.HTTPOptions
}

type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.http.BaseURL = url }
}

func NewClient(log *slog.Logger, creds keys.CredentialSource, opts ...Option) *Client {
	c := &Client{log: log, creds: creds}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends req via models.generateContent and returns the response text.
// An empty text is returned as-is; deciding whether that is an error is left
// to the caller.
func (c *Client) Generate(ctx context.Context, req Request) (string, time.Duration, error) {
	if req.Model == "" {
		return "", 0, errors.New("gemini: empty model name")
	}
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("gemini credentials: %w", err)
	}
	if key == "" {
		return "", 0, ErrNoAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: c.http,
	})
	if err != nil {
		return "", 0, fmt.Errorf("gemini client: %w", err)
	}

	temp, topP, topK := req.Temperature, req.TopP, req.TopK
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	start := time.Now()
	res, err := gc.Models.GenerateContent(ctx, req.Model, contents, cfg)
	latency := time.Since(start)
	if err != nil {
		return "", latency, err
	}

	c.log.Debug("gemini generate", "model", req.Model, "latency_ms", latency.Milliseconds(), "candidates", len(res.Candidates))
	return res.Text(), latency, nil
}
