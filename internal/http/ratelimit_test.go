package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberRateLimiter_PerKeyBuckets(t *testing.T) {
	l := NewSubscriberRateLimiter(0.001, 2)

	assert.True(t, l.Allow("233241234567"))
	assert.True(t, l.Allow("233241234567"))
	assert.False(t, l.Allow("233241234567"))
	assert.True(t, l.Allow("233201234567"))
}

func TestSubscriberRateLimiter_ForgetsIdleSubscribers(t *testing.T) {
	l := NewSubscriberRateLimiter(0.001, 1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("233241234567"))
	assert.False(t, l.Allow("233241234567"))
	assert.True(t, l.Allow("233201234567"))

	now = now.Add(5 * time.Minute)
	assert.True(t, l.Allow("233241234567"))
	assert.Len(t, l.visitors, 1)
}
