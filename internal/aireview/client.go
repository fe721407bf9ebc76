// Package aireview sends the snippet to an OpenAI-compatible completion
// endpoint with a fixed review checklist and returns its free-text feedback.
// The stage is strictly best-effort: exhausted retries degrade to a
// presentation-ready message, never an error out of the review pipeline.
package aireview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// BusyMessage is surfaced when the endpoint stayed rate-limited through every
// retry.
const BusyMessage = "AI review service busy — try again later"

// systemPrompt is the fixed checklist the endpoint reviews against.
const systemPrompt = `You are a senior code reviewer. Review the submitted Python snippet against this checklist:
1. Correctness bugs and likely runtime errors.
2. Security issues (injection, secrets, unsafe eval/exec).
3. Readability and naming.
4. Error handling and edge cases.
5. Performance concerns, if any.
Reply with concise, actionable feedback grouped by checklist item. Skip items with nothing to report.`

// Client calls the completion endpoint with retry and client-side rate
// limiting. It satisfies schemas.CompletionClient.
type Client struct {
	api        *openai.Client
	model      string
	maxRetries uint
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient builds a Client from configuration. The API key is required.
func NewClient(cfg config.AIConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		logger:     logger.Named("aireview"),
	}, nil
}

// Complete sends the prompts and returns the feedback text. Rate-limited
// responses retry with exponential backoff up to the configured attempt
// bound; transient server errors retry on a short fixed interval; anything
// else fails immediately.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	policy := newRetryPolicy()

	var feedback string
	operation := func() error {
		start := time.Now()
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			return c.classify(err, policy)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("completion endpoint returned no choices"))
		}
		c.logger.Info("AI review complete",
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
		feedback = resp.Choices[0].Message.Content
		return nil
	}

	bounded := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), callCtx)
	if err := backoff.Retry(operation, bounded); err != nil {
		return "", err
	}
	return feedback, nil
}

// serverErrRetryInterval is the fixed delay between attempts after a
// transient 5xx response. Rate limiting instead backs off exponentially.
const serverErrRetryInterval = 2 * time.Second

// retryPolicy picks the next delay by error class: exponential for rate
// limits and network failures, a short fixed interval for server errors.
// classify flips useFixed before each retry decision.
type retryPolicy struct {
	exp      *backoff.ExponentialBackOff
	useFixed bool
}

func newRetryPolicy() *retryPolicy {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.MaxInterval = 30 * time.Second
	return &retryPolicy{exp: exp}
}

func (p *retryPolicy) NextBackOff() time.Duration {
	if p.useFixed {
		return serverErrRetryInterval
	}
	return p.exp.NextBackOff()
}

func (p *retryPolicy) Reset() {
	p.useFixed = false
	p.exp.Reset()
}

// classify maps an API error to a retry decision: 429 retries on the
// exponential schedule, 5xx retries on the short fixed interval, everything
// else is permanent.
func (c *Client) classify(err error, policy *retryPolicy) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		// Network-level failure; worth retrying.
		policy.useFixed = false
		c.logger.Warn("network error during AI review, retrying", zap.Error(err))
		return err
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		policy.useFixed = false
		c.logger.Warn("AI review rate limited, backing off")
		return err
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		policy.useFixed = true
		c.logger.Warn("AI review transient server error, retrying",
			zap.Int("status", apiErr.HTTPStatusCode))
		return err
	default:
		return backoff.Permanent(fmt.Errorf("completion endpoint error: %w", err))
	}
}

// Reviewer runs the AI review stage against a CompletionClient, consulting
// the TTL cache first.
type Reviewer struct {
	client schemas.CompletionClient
	cache  *Cache
	logger *zap.Logger
}

// NewReviewer wires a completion client with a response cache.
func NewReviewer(client schemas.CompletionClient, cache *Cache, logger *zap.Logger) *Reviewer {
	return &Reviewer{client: client, cache: cache, logger: logger.Named("aireview")}
}

// Review produces the AIReviewResult for the snippet. Failures are folded
// into the result's Err field; Review itself never fails.
func (r *Reviewer) Review(ctx context.Context, source, language string) *schemas.AIReviewResult {
	feedback, cached, err := r.cache.GetOrFill(ctx, source, language, func(ctx context.Context) (string, error) {
		prompt := fmt.Sprintf("Language: %s\n\n```%s\n%s\n```", language, language, source)
		return r.client.Complete(ctx, systemPrompt, prompt)
	})
	if err != nil {
		r.logger.Warn("AI review unavailable", zap.Error(err))
		return &schemas.AIReviewResult{Err: BusyMessage}
	}
	return &schemas.AIReviewResult{Feedback: feedback, Cached: cached}
}
