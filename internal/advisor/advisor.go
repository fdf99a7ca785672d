// Package advisor turns one user description of a home into one advisory
// reply from the model.
package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/varsilias/energy-advisor/internal/gemini"
	"github.com/varsilias/energy-advisor/internal/keys"
	"github.com/varsilias/energy-advisor/internal/logging"
)

// Decoding parameters. These are fixed for the product and not exposed as
// configuration.
const (
	Model           = "gemini-3-pro-preview"
	Temperature     = 0.7
	TopP            = 0.95
	TopK            = 64
	MaxOutputTokens = 2048
)

// Generator performs the outbound completion call.
type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, time.Duration, error)
}

type Client struct {
	log       *slog.Logger
	gen       Generator
	selector  keys.Selector
	reference string
}

// New builds a Client. selector may be nil when the host offers no key
// selection.
func New(log *slog.Logger, gen Generator, reference string, selector keys.Selector) *Client {
	return &Client{log: log, gen: gen, selector: selector, reference: reference}
}

// Advise returns the model's reply to userText verbatim. Every failure is an
// *Error whose message is ready to show to the user.
func (c *Client) Advise(ctx context.Context, userText string) (string, error) {
	c.ensureKey(ctx)

	text, latency, err := c.gen.Generate(ctx, gemini.Request{
		Model:           Model,
		Prompt:          BuildPrompt(c.reference, userText),
		Temperature:     Temperature,
		TopP:            TopP,
		TopK:            TopK,
		MaxOutputTokens: MaxOutputTokens,
	})
	if err != nil {
		return "", c.classify(ctx, err)
	}
	if strings.TrimSpace(text) == "" {
		logging.FromContext(ctx, c.log).Error("advisory call returned no text", "latency_ms", latency.Milliseconds())
		return "", &Error{Kind: KindEmptyResponse, Err: ErrNoContent}
	}

	logging.FromContext(ctx, c.log).Info("advisory reply", "latency_ms", latency.Milliseconds(), "chars", len(text))
	return text, nil
}

// ensureKey opens the key selector when none is selected and carries on
// without waiting for the user, assuming the key will be in place by the time
// the request reads credentials.
func (c *Client) ensureKey(ctx context.Context) {
	if c.selector == nil {
		return
	}
	ok, err := c.selector.HasSelectedKey(ctx)
	if err != nil {
		logging.FromContext(ctx, c.log).Warn("key selection query failed", "err", err)
		return
	}
	if ok {
		return
	}
	logging.FromContext(ctx, c.log).Info("no api key selected; opening key selection")
	if err := c.selector.OpenSelectKey(ctx); err != nil {
		logging.FromContext(ctx, c.log).Warn("open key selection", "err", err)
	}
}

func (c *Client) classify(ctx context.Context, err error) *Error {
	log := logging.FromContext(ctx, c.log)
	msg := err.Error()
	log.Error("advisory call failed", "err", msg)

	if msg == "" {
		return &Error{Kind: KindUnknown, Err: err}
	}
	if strings.Contains(msg, credentialMarker) && c.selector != nil {
		log.Info("api key might be invalid or not selected; prompting for a key")
		if serr := c.selector.OpenSelectKey(ctx); serr != nil {
			log.Warn("open key selection", "err", serr)
		}
		return &Error{Kind: KindCredential, Err: err}
	}
	return &Error{Kind: KindCall, Err: err}
}
