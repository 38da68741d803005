package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

const (
	// CleanupInterval is how often idle buckets are swept.
	CleanupInterval = 10 * time.Minute
	// LimiterTTL is the minimum idle time before a bucket is dropped.
	LimiterTTL = time.Hour
	// limiterTTLMultiplier scales the refill time of a full burst; a bucket
	// idle that long has refilled and is safe to recreate from scratch.
	limiterTTLMultiplier = 10
)

type timedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*timedLimiter
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time

	cleanupMu sync.Mutex
	stop      chan struct{}
	done      sync.WaitGroup
}

// NewRateLimiter allows rps requests per second per caller, with bursts.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	ttl := LimiterTTL
	if rps > 0 {
		refill := time.Duration(float64(burst) / rps * float64(time.Second))
		if refill*limiterTTLMultiplier > ttl {
			ttl = refill * limiterTTLMultiplier
		}
	}
	return &RateLimiter{
		limiters: make(map[string]*timedLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	tl, ok := l.limiters[key]
	if !ok {
		tl = &timedLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = tl
	}
	tl.lastSeen = l.now()
	return tl.limiter
}

// CleanupStale drops every bucket not used within the TTL before now and
// returns how many were removed.
func (l *RateLimiter) CleanupStale(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.ttl)
	removed := 0
	for key, tl := range l.limiters {
		if tl.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Start sweeps idle buckets every CleanupInterval until Stop. Calling it
// twice is a no-op.
func (l *RateLimiter) Start() {
	l.cleanupMu.Lock()
	defer l.cleanupMu.Unlock()

	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	ticker := time.NewTicker(CleanupInterval)

	l.done.Add(1)
	go func(stop <-chan struct{}) {
		defer l.done.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.CleanupStale(l.now())
			case <-stop:
				return
			}
		}
	}(l.stop)
}

// Stop ends the sweep started by Start and waits for it to exit.
func (l *RateLimiter) Stop() {
	l.cleanupMu.Lock()
	defer l.cleanupMu.Unlock()

	if l.stop == nil {
		return
	}
	close(l.stop)
	l.done.Wait()
	l.stop = nil
}

// Middleware keys on the authenticated user, or the client IP before login.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := c.GetInt64(UserIDKey); userID != 0 {
			key = "user:" + strconv.FormatInt(userID, 10)
		}

		lim := l.limiter(key)
		if !lim.Allow() {
			// Work out the wait without consuming a token.
			reservation := lim.Reserve()
			retryAfter := int(math.Ceil(reservation.Delay().Seconds()))
			reservation.Cancel()
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.Result{Error: "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
