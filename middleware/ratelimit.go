package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxIdleVisitors bounds how many per-key limiters are kept before idle ones are pruned
const maxIdleVisitors = 10000

type visitor struct {
	limiter  *rate.Limiter
	history  []time.Time
	lastSeen time.Time
}

// RateLimiter throttles per key. By default each key is a token bucket with
// `burst` requests refilled evenly across `period`. A sliding limiter instead
// counts the requests seen in the trailing period, so no window of that length
// ever holds more than `burst` of them.
type RateLimiter struct {
	scope    string
	limit    rate.Limit
	burst    int
	period   time.Duration
	sliding  bool
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter allows `requests` per `period` for every key.
// A non-positive budget yields nil, which RateLimitMiddleware treats as unlimited.
func NewRateLimiter(scope string, requests int, period time.Duration) *RateLimiter {
	if requests <= 0 || period <= 0 {
		return nil
	}
	return &RateLimiter{
		scope:    scope,
		limit:    rate.Every(period / time.Duration(requests)),
		burst:    requests,
		period:   period,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// NewSlidingWindowLimiter allows at most `requests` per key in any trailing
// `period`. Used for budgets that must hold over every window, such as login.
func NewSlidingWindowLimiter(scope string, requests int, period time.Duration) *RateLimiter {
	l := NewRateLimiter(scope, requests, period)
	if l != nil {
		l.sliding = true
	}
	return l
}

// Allow consumes one request from key's budget
func (l *RateLimiter) Allow(key string) bool {
	ok, _ := l.take(key)
	return ok
}

// take reports whether key may proceed and, if not, how long until it may.
func (l *RateLimiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= maxIdleVisitors {
			l.prune(now)
		}
		v = &visitor{}
		if !l.sliding {
			v.limiter = rate.NewLimiter(l.limit, l.burst)
		}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if !l.sliding {
		if v.limiter.AllowN(now, 1) {
			return true, 0
		}
		return false, l.period / time.Duration(l.burst)
	}

	cutoff := now.Add(-l.period)
	kept := v.history[:0]
	for _, at := range v.history {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	v.history = kept
	if len(v.history) >= l.burst {
		return false, v.history[0].Sub(cutoff)
	}
	v.history = append(v.history, now)
	return true, 0
}

// prune drops keys idle for a full period; their budgets are full again anyway
func (l *RateLimiter) prune(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.period {
			delete(l.visitors, k)
		}
	}
}

// KeyFunc derives the throttling key from a request
type KeyFunc func(c *gin.Context) string

// ClientIPKey throttles per client address
func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// AccountKey throttles per authenticated account, falling back to client IP
func AccountKey(c *gin.Context) string {
	if id := AccountID(c); id != 0 {
		return "account:" + strconv.FormatInt(id, 10)
	}
	return ClientIPKey(c)
}

// RateLimitMiddleware rejects requests over budget with 429
func RateLimitMiddleware(limiter *RateLimiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if ok, wait := limiter.take(key(c)); !ok {
			rateLimitedTotal.WithLabelValues(limiter.scope).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Request was throttled"})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds rounds up to whole seconds, never below one
func retryAfterSeconds(wait time.Duration) int {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
