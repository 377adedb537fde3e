package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptforge/promptforge/utils"
)

const (
	// DefaultMaxRetries is the attempt budget for moderation-flagged calls.
	DefaultMaxRetries = 2
	// moderationBackoff is the fixed wait between attempts. Moderation
	// flakiness clears quickly, so there is no exponential growth.
	moderationBackoff = time.Second
)

// Caller wraps a single chat-completion call with retry on content-moderation
// rejections. Any other failure propagates on the first occurrence: auth,
// rate-limit and schema errors are not transient and retrying them only
// delays the diagnosis.
type Caller struct {
	client  Client
	limiter *rate.Limiter
	logger  utils.Logger
	backoff time.Duration
	sleep   func(time.Duration)
}

type CallerOption func(*Caller)

// WithRateLimiter throttles attempts through the given limiter.
func WithRateLimiter(limiter *rate.Limiter) CallerOption {
	return func(c *Caller) {
		c.limiter = limiter
	}
}

func WithLogger(logger utils.Logger) CallerOption {
	return func(c *Caller) {
		c.logger = logger
	}
}

// WithModerationBackoff overrides the wait between moderation retries.
func WithModerationBackoff(d time.Duration) CallerOption {
	return func(c *Caller) {
		c.backoff = d
	}
}

func NewCaller(client Client, opts ...CallerOption) *Caller {
	c := &Caller{
		client:  client,
		logger:  utils.NewLogger(utils.LogLevelWarn),
		backoff: moderationBackoff,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs the completion and returns the response text. When the
// provider rejects the request as unsafe content, the call is retried up to
// maxRetries attempts with a fixed backoff; exhausting the budget returns
// blocked=true with a nil error, so the caller can score the example instead
// of aborting the batch. maxRetries <= 0 uses DefaultMaxRetries.
func (c *Caller) Call(ctx context.Context, req ChatRequest, maxRetries int) (text string, blocked bool, err error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", false, err
			}
		}

		resp, err := c.client.Complete(ctx, req)
		if err == nil {
			return resp.Content, false, nil
		}

		if Classify(err) != ErrorKindModeration {
			return "", false, err
		}

		c.logger.Warn("call blocked by content filter",
			"model", req.Model, "attempt", attempt+1, "max_retries", maxRetries)

		if attempt < maxRetries-1 {
			c.sleep(c.backoff)
			continue
		}
	}

	c.logger.Error("call failed after retry budget exhausted, skipping", "model", req.Model)
	return "", true, nil
}
