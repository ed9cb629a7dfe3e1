package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/fitrank/fitrank-api/pkg/metrics"
)

// limiterIdleTTL is how long an unused bucket is kept before eviction.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanos of the last use
}

// limiterStore holds one token bucket per client key. Buckets idle for longer
// than idle are dropped, so the map stays bounded by the active client set.
type limiterStore struct {
	m         sync.Map // map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	idle := limiterIdleTTL
	// an evicted bucket must already have refilled completely
	if rps > 0 {
		if full := time.Duration(float64(burst) / rps * float64(time.Second)); full > idle {
			idle = full
		}
	}
	return &limiterStore{rps: rps, burst: burst, idle: idle, now: time.Now}
}

// get returns (and lazily creates) a token-bucket limiter for the given key
func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now()
	s.sweep(now)
	if v, ok := s.m.Load(key); ok {
		e := v.(*limiterEntry)
		e.seen.Store(now.UnixNano())
		return e.lim
	}
	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
	e.seen.Store(now.UnixNano())
	v, _ := s.m.LoadOrStore(key, e)
	return v.(*limiterEntry).lim
}

// sweep evicts idle buckets, at most once per idle period.
func (s *limiterStore) sweep(now time.Time) {
	last := s.lastSweep.Load()
	if now.UnixNano()-last < int64(s.idle) || !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-s.idle).UnixNano()
	s.m.Range(func(k, v interface{}) bool {
		if v.(*limiterEntry).seen.Load() < cutoff {
			s.m.Delete(k)
		}
		return true
	})
}

// clientKey prefers the authenticated user id, otherwise the client IP.
func clientKey(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	return func(c *gin.Context) {
		if !store.get(clientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
