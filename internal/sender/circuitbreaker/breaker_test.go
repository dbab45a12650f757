package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StaysClosedBelowMinimumVolume(t *testing.T) {
	cb := New(Config{Name: "t", Window: time.Minute, ErrorThresholdPct: 50, MinimumVolume: 10, OpenTimeout: time.Second})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAboveErrorThreshold(t *testing.T) {
	cb := New(Config{Name: "t", Window: time.Minute, ErrorThresholdPct: 50, MinimumVolume: 4, OpenTimeout: time.Second})

	_ = cb.Execute(context.Background(), func() error { return nil })
	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(Config{Name: "t", Window: time.Minute, ErrorThresholdPct: 50, MinimumVolume: 2, OpenTimeout: 10 * time.Millisecond})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	cb := New(Config{Name: "t", Window: time.Minute, ErrorThresholdPct: 50, MinimumVolume: 2, OpenTimeout: 10 * time.Millisecond})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errors.New("still broken") })
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestRegistry_PerEndpointIsolation(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get("endpoint-a")
	b := reg.Get("endpoint-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, reg.Get("endpoint-a"))
}
