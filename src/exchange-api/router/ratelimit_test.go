package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRateLimiter(t *testing.T) {
	t.Run("Buckets are per user", func(t *testing.T) {
		limiter := NewUserRateLimiter(0.001, 1)

		assert.True(t, limiter.Allow(1))
		assert.False(t, limiter.Allow(1))
		assert.True(t, limiter.Allow(2))
		assert.Equal(t, 2, limiter.Tracked())
	})

	t.Run("Idle buckets expire", func(t *testing.T) {
		limiter := newUserRateLimiter(0.001, 1, 20*time.Millisecond)

		for id := uint(1); id <= 50; id++ {
			limiter.Allow(id)
		}
		require.Equal(t, 50, limiter.Tracked())

		require.Eventually(t, func() bool {
			return limiter.Tracked() == 0
		}, time.Second, 10*time.Millisecond)
	})
}
