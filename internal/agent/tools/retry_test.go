package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movi-agent/server/internal/agent/model"
)

// scriptedTool returns its queued responses in order; the last one repeats.
type scriptedTool struct {
	name  Name
	runs  int
	steps []func() (*model.ToolResult, error)
}

func (t *scriptedTool) Name() Name { return t.name }

func (t *scriptedTool) Run(context.Context, map[string]any) (*model.ToolResult, error) {
	i := t.runs
	if i >= len(t.steps) {
		i = len(t.steps) - 1
	}
	t.runs++
	return t.steps[i]()
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   attempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	tool := &scriptedTool{name: "demo", steps: []func() (*model.ToolResult, error){
		func() (*model.ToolResult, error) { return &model.ToolResult{Success: true, Message: "ok"}, nil },
	}}

	out := NewExecutor(fastPolicy(2)).Execute(context.Background(), tool, nil)
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "ok", out.Result.Message)
}

func TestExecuteRetriesFaults(t *testing.T) {
	tool := &scriptedTool{name: "demo", steps: []func() (*model.ToolResult, error){
		func() (*model.ToolResult, error) { return nil, fmt.Errorf("transient") },
		func() (*model.ToolResult, error) { return &model.ToolResult{Success: true}, nil },
	}}

	out := NewExecutor(fastPolicy(2)).Execute(context.Background(), tool, nil)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Attempts)
}

func TestExecuteRetriesBusinessFailures(t *testing.T) {
	tool := &scriptedTool{name: "demo", steps: []func() (*model.ToolResult, error){
		func() (*model.ToolResult, error) {
			return &model.ToolResult{Success: false, Error: "still locked"}, nil
		},
	}}

	out := NewExecutor(fastPolicy(2)).Execute(context.Background(), tool, nil)
	assert.False(t, out.Success)
	assert.Equal(t, 2, out.Attempts)
	assert.Contains(t, out.Err, "failed after 2 attempts")
	assert.Contains(t, out.Err, "still locked")
}

func TestExecuteNeverRetriesBadParams(t *testing.T) {
	tool := &scriptedTool{name: "demo", steps: []func() (*model.ToolResult, error){
		func() (*model.ToolResult, error) { return nil, fmt.Errorf("%w: missing trip_id", ErrBadParams) },
	}}

	out := NewExecutor(fastPolicy(3)).Execute(context.Background(), tool, nil)
	assert.False(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, tool.runs)
	assert.Contains(t, out.Err, "parameter mismatch")
}

func TestExecuteRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tool := &scriptedTool{name: "demo", steps: []func() (*model.ToolResult, error){
		func() (*model.ToolResult, error) {
			cancel()
			return nil, errors.New("transient")
		},
	}}

	policy := fastPolicy(2)
	policy.BaseDelay = time.Minute
	policy.MaxDelay = time.Minute

	start := time.Now()
	out := NewExecutor(policy).Execute(ctx, tool, nil)
	require.Less(t, time.Since(start), time.Second)
	assert.False(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Contains(t, out.Err, "cancelled")
}

func TestBackoffDelayIsCapped(t *testing.T) {
	e := NewExecutor(RetryPolicy{
		MaxAttempts:   5,
		BaseDelay:     time.Second,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2,
	})

	assert.Equal(t, time.Second, e.delay(1))
	assert.Equal(t, 2*time.Second, e.delay(2))
	assert.Equal(t, 3*time.Second, e.delay(3)) // capped
	assert.Equal(t, 3*time.Second, e.delay(4))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(model.RetryConfig{
		MaxAttempts:   4,
		BaseDelaySecs: 0.5,
		MaxDelaySecs:  2,
		BackoffFactor: 3,
	})
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 2*time.Second, p.MaxDelay)
	assert.Equal(t, float64(3), p.BackoffFactor)

	// Zero values keep the defaults.
	p = PolicyFromConfig(model.RetryConfig{})
	assert.Equal(t, DefaultRetryPolicy(), p)
}
