// Package llm wraps the Gemini API behind a small generation interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/metrics"
)

// ErrNoModels is returned when the client has an empty model chain.
var ErrNoModels = errors.New("no language models configured")

// Request is one generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	// JSON asks the model for application/json output.
	JSON   bool
	Schema *genai.Schema
}

// Generator produces text for a request. Implementations own retry and fallback.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelCaller performs a single call against one named model.
type ModelCaller func(ctx context.Context, model string, req Request) (string, error)

// Client tries each model in order, restarting the chain after a short pause
// when a model reports overload.
type Client struct {
	call    ModelCaller
	models  []string
	retries int
	backoff time.Duration
	timeout time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSleep replaces the pause used between overload retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithTimeout bounds each individual model call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a Gemini-backed client from configuration.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	caller := func(ctx context.Context, model string, req Request) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), generationConfig(req))
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	return NewClientWithCaller(caller, cfg.ModelChain, cfg.LLMRetries, cfg.LLMRetryWait, logger,
		WithTimeout(cfg.LLMTimeout)), nil
}

// NewClientWithCaller builds a client over any ModelCaller.
func NewClientWithCaller(call ModelCaller, models []string, retries int, backoff time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		call:    call,
		models:  models,
		retries: retries,
		backoff: backoff,
		sleep:   sleepContext,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func generationConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
		cfg.Temperature = genai.Ptr[float32](0.1)
	}
	return cfg
}

// Generate runs the request through the model chain.
// Overload restarts the chain from the first model, at most c.retries times.
// Any other failure moves on to the next model.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.models) == 0 {
		return "", ErrNoModels
	}

	var lastErr error
	retriesLeft := c.retries

chain:
	for {
		for _, model := range c.models {
			text, err := c.callModel(ctx, model, req)
			if err == nil {
				return text, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			if IsOverloaded(err) && retriesLeft > 0 {
				retriesLeft--
				c.logger.Warn("Model overloaded, retrying chain",
					zap.String("model", model),
					zap.Int("retries_left", retriesLeft),
				)
				if err := c.sleep(ctx, c.backoff); err != nil {
					return "", err
				}
				continue chain
			}

			c.logger.Warn("Model failed, trying next",
				zap.String("model", model),
				zap.Error(err),
			)
		}
		break
	}

	c.logger.Error("All models failed", zap.Error(lastErr))
	return "", fmt.Errorf("language model unavailable: %w", lastErr)
}

func (c *Client) callModel(ctx context.Context, model string, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.call(ctx, model, req)
	metrics.LLMRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "error"
		if IsOverloaded(err) {
			reason = "overloaded"
		}
		metrics.LLMFailures.WithLabelValues(model, reason).Inc()
	}
	return text, err
}

// IsOverloaded reports whether the error is a transient capacity failure.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusServiceUnavailable || apiErr.Status == "UNAVAILABLE" {
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") || strings.Contains(msg, "UNAVAILABLE")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
