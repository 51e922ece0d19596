package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/models"
)

// InvokerState is the phase of one outbound backend request.
type InvokerState int

const (
	StateIdle InvokerState = iota
	StateSending
	StateSuccess
	StateRateLimited
	StateFailed
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 2 * time.Second

	busyNotice = "server is busy, waiting for a slot…"
)

// RetryingInvoker wraps one outbound request to the reasoning backend with
// bounded exponential backoff on rate-limit signals. Only rate limiting is
// retried; any other failure propagates immediately so the caller can render
// a failure message and leave the user's message in place for resend.
type RetryingInvoker struct {
	model        models.Agent
	conversation *Conversation
	maxAttempts  int
	baseBackoff  time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger

	state InvokerState
}

func NewRetryingInvoker(model models.Agent, conversation *Conversation, logger *slog.Logger) *RetryingInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingInvoker{
		model:        model,
		conversation: conversation,
		maxAttempts:  defaultMaxAttempts,
		baseBackoff:  defaultBaseBackoff,
		sleep:        sleepContext,
		logger:       logger,
		state:        StateIdle,
	}
}

// WithRetryPolicy overrides the attempt bound and base backoff.
func (r *RetryingInvoker) WithRetryPolicy(maxAttempts int, baseBackoff time.Duration) *RetryingInvoker {
	if maxAttempts > 0 {
		r.maxAttempts = maxAttempts
	}
	if baseBackoff > 0 {
		r.baseBackoff = baseBackoff
	}
	return r
}

// State returns the machine's current phase.
func (r *RetryingInvoker) State() InvokerState {
	return r.state
}

// Invoke sends the request, retrying rate-limited attempts with exponential
// backoff. A transient busy notice is appended to the conversation on the
// first retry only, and removed once the request completes either way.
func (r *RetryingInvoker) Invoke(ctx context.Context, req models.Request) (*models.Response, error) {
	defer r.conversation.PruneStatus()

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		r.state = StateSending
		resp, err := r.model.Generate(ctx, req)
		if err == nil {
			r.state = StateSuccess
			return resp, nil
		}
		if !fault.Is(err, fault.KindRateLimited) {
			r.state = StateFailed
			return nil, err
		}

		r.state = StateRateLimited
		if attempt == r.maxAttempts-1 {
			r.state = StateFailed
			return nil, err
		}
		if attempt == 0 {
			r.conversation.Append(RoleStatus, busyNotice)
		}

		delay := backoffDelay(r.baseBackoff, attempt)
		r.logger.Info("backend rate limited, backing off",
			"attempt", attempt+1, "delay", delay)
		if err := r.sleep(ctx, delay); err != nil {
			r.state = StateFailed
			return nil, err
		}
	}
	r.state = StateFailed
	return nil, fault.RateLimited("backend rate limited after %d attempts", r.maxAttempts)
}

// backoffDelay is the pure delay schedule: base × 2^attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << attempt
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
