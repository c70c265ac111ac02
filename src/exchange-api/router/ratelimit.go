package router

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LimiterIdleTTL is how long a user's bucket survives without a request.
var LimiterIdleTTL = 10 * time.Minute

// UserRateLimiter hands out one token bucket per user id. Idle buckets expire.
type UserRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

// NewUserRateLimiter keeps each bucket at least until it would have refilled,
// so expiry never hands a user extra tokens.
func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	ttl := LimiterIdleTTL
	if perSecond > 0 {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}

	return newUserRateLimiter(perSecond, burst, ttl)
}

func newUserRateLimiter(perSecond float64, burst int, idleTTL time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.New(idleTTL, idleTTL),
	}
}

func (l *UserRateLimiter) Allow(userID uint) bool {
	key := strconv.FormatUint(uint64(userID), 10)

	l.mu.Lock()
	var limiter *rate.Limiter
	if cached, found := l.limiters.Get(key); found {
		limiter = cached.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	l.limiters.Set(key, limiter, cache.DefaultExpiration)
	l.mu.Unlock()

	return limiter.Allow()
}

// Tracked returns the number of users holding a live bucket.
func (l *UserRateLimiter) Tracked() int {
	return l.limiters.ItemCount()
}
