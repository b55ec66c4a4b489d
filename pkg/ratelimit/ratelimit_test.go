package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_UnderLimit(t *testing.T) {
	l := New(Config{Max: 5, Window: time.Minute})
	now := time.Now()

	for i := range 5 {
		res := l.Allow("10.0.0.1", now)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 5, res.Limit)
		assert.Equal(t, 4-i, res.Remaining)
	}
}

func TestAllow_OverLimit(t *testing.T) {
	l := New(Config{Max: 2, Window: time.Minute})
	now := time.Now()

	require.True(t, l.Allow("U1", now).Allowed)
	require.True(t, l.Allow("U1", now).Allowed)

	res := l.Allow("U1", now)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestAllow_Refill(t *testing.T) {
	l := New(Config{Max: 2, Window: time.Minute})
	now := time.Now()

	require.True(t, l.Allow("U1", now).Allowed)
	require.True(t, l.Allow("U1", now).Allowed)
	require.False(t, l.Allow("U1", now).Allowed)

	// One token refills every Window/Max.
	assert.True(t, l.Allow("U1", now.Add(31*time.Second)).Allowed)
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := New(Config{Max: 1, Window: time.Minute})
	now := time.Now()

	assert.True(t, l.Allow("a", now).Allowed)
	assert.True(t, l.Allow("b", now).Allowed)
	assert.False(t, l.Allow("a", now).Allowed)
	assert.Equal(t, 2, l.Keys())
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, 1, l.cfg.Max)
	assert.Equal(t, time.Minute, l.cfg.Window)
}
