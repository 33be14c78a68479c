package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/movi-agent/server/internal/agent/model"
	logx "github.com/movi-agent/server/pkg/logger"
)

// RetryPolicy bounds how often and how fast a tool call is retried.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy retries once after a short backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   2,
		BaseDelay:     time.Second,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2,
	}
}

// PolicyFromConfig builds a RetryPolicy from environment configuration.
func PolicyFromConfig(cfg model.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelaySecs > 0 {
		p.BaseDelay = time.Duration(cfg.BaseDelaySecs * float64(time.Second))
	}
	if cfg.MaxDelaySecs > 0 {
		p.MaxDelay = time.Duration(cfg.MaxDelaySecs * float64(time.Second))
	}
	if cfg.BackoffFactor > 0 {
		p.BackoffFactor = cfg.BackoffFactor
	}
	return p
}

// Outcome is the aggregate result of an execution attempt series.
type Outcome struct {
	Success  bool
	Result   *model.ToolResult
	Err      string
	Attempts int
	Duration time.Duration
}

// Executor runs tools under the retry policy. Faults and tool-reported
// failures are retried with exponential backoff; parameter errors are
// reported immediately.
type Executor struct {
	policy RetryPolicy
}

func NewExecutor(policy RetryPolicy) *Executor {
	return &Executor{policy: policy}
}

func (e *Executor) delay(attempt int) time.Duration {
	d := float64(e.policy.BaseDelay) * math.Pow(e.policy.BackoffFactor, float64(attempt-1))
	if d > float64(e.policy.MaxDelay) {
		d = float64(e.policy.MaxDelay)
	}
	return time.Duration(d)
}

// Execute runs the tool until it succeeds or attempts run out. The
// backoff sleep respects context cancellation.
func (e *Executor) Execute(ctx context.Context, tool Tool, params map[string]any) Outcome {
	start := time.Now()
	var lastResult *model.ToolResult
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		result, err := tool.Run(ctx, params)

		if err == nil && result != nil && result.Success {
			return Outcome{
				Success:  true,
				Result:   result,
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		if errors.Is(err, ErrBadParams) {
			return Outcome{
				Result:   result,
				Err:      fmt.Sprintf("parameter mismatch calling %s: %v", tool.Name(), err),
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		lastResult, lastErr = result, err
		if attempt < e.policy.MaxAttempts {
			wait := e.delay(attempt)
			logx.Warn().
				Str("tool", string(tool.Name())).
				Int("attempt", attempt).
				Dur("backoff", wait).
				Err(err).
				Msg("tool attempt failed, retrying")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return Outcome{
					Result:   lastResult,
					Err:      fmt.Sprintf("execution of %s cancelled: %v", tool.Name(), ctx.Err()),
					Attempts: attempt,
					Duration: time.Since(start),
				}
			}
		}
	}

	out := Outcome{
		Result:   lastResult,
		Attempts: e.policy.MaxAttempts,
		Duration: time.Since(start),
	}
	switch {
	case lastErr != nil:
		out.Err = fmt.Sprintf("tool %s failed after %d attempts: %v", tool.Name(), e.policy.MaxAttempts, lastErr)
	case lastResult != nil && lastResult.Error != "":
		out.Err = fmt.Sprintf("tool %s failed after %d attempts: %s", tool.Name(), e.policy.MaxAttempts, lastResult.Error)
	default:
		out.Err = fmt.Sprintf("tool %s failed after %d attempts", tool.Name(), e.policy.MaxAttempts)
	}
	return out
}
