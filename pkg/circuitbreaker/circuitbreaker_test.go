package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock, cfg *Config) *circuitBreaker {
	return newCircuitBreaker(cfg, clock.now)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, &Config{FailureThreshold: 2, RecoveryTimeout: time.Second, SuccessThreshold: 1})

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, Closed, cb.State())

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, &Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 2})

	_ = cb.Call(func() error { return errBoom })
	require.Equal(t, Open, cb.State())

	clock.t = clock.t.Add(2 * time.Second)

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, HalfOpen, cb.State())

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, &Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 1})

	_ = cb.Call(func() error { return errBoom })
	clock.t = clock.t.Add(2 * time.Second)

	_ = cb.Call(func() error { return errBoom })
	assert.Equal(t, Open, cb.State())
	assert.Equal(t, clock.t.Add(time.Second), cb.Metrics().NextAttempt)
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("not found")
	cb := NewCircuitBreaker(&Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		IsFailure:        func(err error) bool { return !errors.Is(err, ignored) },
	})

	assert.ErrorIs(t, cb.Call(func() error { return ignored }), ignored)
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_StateChangeHookAndReset(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(&Config{
		Name:             "storage",
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		OnStateChange: func(name string, from, to CircuitState) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = cb.Call(func() error { return errBoom })
	cb.Reset()

	assert.Equal(t, []string{"storage:closed->open", "storage:open->closed"}, transitions)
	assert.Equal(t, "storage", cb.Metrics().Name)
	assert.Equal(t, 0, cb.Metrics().FailureCount)
}
