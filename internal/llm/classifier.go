package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brieflyhq/briefly/internal/common"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
)

// Classifier implements the service.Classifier interface using LLM APIs.
type Classifier struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewClassifier creates a new LLM-based classifier.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Classify runs the persona prompt for one message and returns the model's
// raw text with code fences stripped. The text is not validated here; the
// normalizer guarantees a usable result whatever comes back.
func (c *Classifier) Classify(ctx context.Context, msg model.Message, profile *model.PersonaProfile, opts service.ClassifyOptions) (string, error) {
	prompt := buildClassifyPrompt(msg, profile, opts.AttachmentAnalysis)

	var raw string
	err := common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		resp, err := c.client.Complete(ctx, classifySystemPrompt, prompt)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		raw = resp
		return nil
	}, c.retryOpts)

	if err != nil {
		c.logger.Error("classification failed",
			"message_id", msg.ID,
			"error", err)
		return "", err
	}

	c.logger.Debug("message classified",
		"message_id", msg.ID,
		"response_bytes", len(raw))

	return cleanMarkdownWrapper(raw), nil
}

// DraftReply generates a reply draft for the message in the user's voice.
func (c *Classifier) DraftReply(ctx context.Context, msg model.Message, profile *model.PersonaProfile) (string, error) {
	prompt := buildDraftPrompt(msg, profile)

	var raw string
	err := common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		resp, err := c.client.Complete(ctx, draftSystemPrompt, prompt)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		raw = resp
		return nil
	}, c.retryOpts)

	if err != nil {
		return "", fmt.Errorf("failed to draft reply: %w", err)
	}

	return cleanMarkdownWrapper(raw), nil
}

// Close releases the rate limiter's refill goroutine.
func (c *Classifier) Close() {
	c.rateLimiter.Close()
}
