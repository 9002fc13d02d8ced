package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/luminar-ai/luminar-go/types"
)

func fastPolicy(maxRetries int) *Policy {
	return &Policy{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
		Retryable:    types.IsRetryable,
	}
}

func TestRetryer_FirstCallSucceeds(t *testing.T) {
	r := New(fastPolicy(3), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_TransientThenSuccess(t *testing.T) {
	r := New(fastPolicy(3), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return types.NewError(types.ErrUpstreamError, "502")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls, "two transient failures then success")
}

func TestRetryer_PermanentErrorNotRetried(t *testing.T) {
	r := New(fastPolicy(5), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.ErrUnauthorized, "bad key")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors must fail fast")
	assert.True(t, types.IsCode(err, types.ErrUnauthorized))
}

func TestRetryer_Exhaustion(t *testing.T) {
	r := New(fastPolicy(2), zap.NewNop())

	calls := 0
	transient := types.NewError(types.ErrUpstreamError, "still down")
	err := r.Do(context.Background(), func() error {
		calls++
		return transient
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls, "initial call plus two retries")
	assert.True(t, errors.Is(err, transient))
}

func TestRetryer_ContextCanceledDuringBackoff(t *testing.T) {
	policy := fastPolicy(5)
	policy.InitialDelay = 200 * time.Millisecond
	r := New(policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		return types.NewError(types.ErrUpstreamError, "down")
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryer_BackoffDelaysGrow(t *testing.T) {
	policy := fastPolicy(3)
	var delays []time.Duration
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}
	r := New(policy, zap.NewNop())

	_ = r.Do(context.Background(), func() error {
		return types.NewError(types.ErrUpstreamError, "down")
	})

	assert.Len(t, delays, 3)
	assert.Equal(t, 5*time.Millisecond, delays[0])
	assert.Equal(t, 10*time.Millisecond, delays[1])
	assert.Equal(t, 20*time.Millisecond, delays[2])
}

// Delays without jitter are non-decreasing and never exceed MaxDelay,
// for any policy shape.
func TestRetryer_DelayBoundsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		policy := &Policy{
			MaxRetries:   rapid.IntRange(1, 8).Draw(rt, "maxRetries"),
			InitialDelay: time.Duration(rapid.Int64Range(1, int64(time.Millisecond)).Draw(rt, "initial")),
			MaxDelay:     time.Duration(rapid.Int64Range(int64(time.Millisecond), int64(time.Second)).Draw(rt, "max")),
			Multiplier:   rapid.Float64Range(1.0, 4.0).Draw(rt, "multiplier"),
			Jitter:       false,
		}
		r := New(policy, zap.NewNop()).(*backoffRetryer)

		prev := time.Duration(0)
		for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
			d := r.delayFor(attempt)
			if d < prev {
				rt.Fatalf("delay shrank: attempt %d gave %v after %v", attempt, d, prev)
			}
			if d > r.policy.MaxDelay && d > r.policy.InitialDelay {
				rt.Fatalf("delay %v exceeded ceiling %v", d, r.policy.MaxDelay)
			}
			prev = d
		}
	})
}
