package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type manualClock struct {
	current time.Time
}

func (c *manualClock) now() time.Time { return c.current }

func (c *manualClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *manualClock) {
	clock := &manualClock{current: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}
	breaker := NewCircuitBreaker("telegram", cfg, quietLogger())
	breaker.now = clock.now
	breaker.lastStateChange = clock.current
	return breaker, clock
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	breaker := NewCircuitBreaker("defaults", CircuitBreakerConfig{}, quietLogger())

	assert.Equal(t, 5, breaker.config.FailureThreshold)
	assert.Equal(t, 1, breaker.config.SuccessThreshold)
	assert.Equal(t, 60*time.Second, breaker.config.Timeout)
	assert.Equal(t, 1, breaker.config.MaxRequests)
	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Minute})
	boom := errors.New("boom")
	ctx := context.Background()

	assert.ErrorIs(t, breaker.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.Equal(t, Closed, breaker.State())
	assert.ErrorIs(t, breaker.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.Equal(t, Open, breaker.State())

	called := false
	err := breaker.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := breaker.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.RejectedRequests)
	assert.Equal(t, int64(1), stats.StateChanges)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()
	fail := func(context.Context) error { return errors.New("fail") }
	ok := func(context.Context) error { return nil }

	_ = breaker.Execute(ctx, fail)
	require.NoError(t, breaker.Execute(ctx, ok))
	_ = breaker.Execute(ctx, fail)

	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	breaker, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	_ = breaker.Execute(ctx, func(context.Context) error { return errors.New("down") })
	require.Equal(t, Open, breaker.State())

	clock.advance(30 * time.Second)
	assert.ErrorIs(t, breaker.Execute(ctx, func(context.Context) error { return nil }), ErrCircuitOpen)

	clock.advance(31 * time.Second)
	require.NoError(t, breaker.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()
	fail := func(context.Context) error { return errors.New("down") }

	for i := 0; i < 3; i++ {
		_ = breaker.Execute(ctx, fail)
	}
	require.Equal(t, Open, breaker.State())

	clock.advance(2 * time.Minute)
	_ = breaker.Execute(ctx, fail)
	assert.Equal(t, Open, breaker.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = breaker.Execute(context.Background(), func(context.Context) error { return errors.New("x") })
	require.Equal(t, Open, breaker.State())

	breaker.Reset()
	assert.Equal(t, Closed, breaker.State())
	assert.Equal(t, "closed", breaker.State().String())
}
