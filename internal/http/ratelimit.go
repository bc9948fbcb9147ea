package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tunedeck/internal/auth"
)

// RateLimiter is a fixed-window request counter keyed by client address.
// It backs the coarse IP throttle on the login endpoint, independent of the
// per-account lockout.
type RateLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	clock     auth.Clock
	hits      map[string]*windowHits
	lastSweep time.Time
}

type windowHits struct {
	start time.Time
	count int
}

func NewRateLimiter(max int, window time.Duration, clock auth.Clock) *RateLimiter {
	if clock == nil {
		clock = auth.SystemClock()
	}
	return &RateLimiter{
		max:       max,
		window:    window,
		clock:     clock,
		hits:      make(map[string]*windowHits),
		lastSweep: clock.Now(),
	}
}

// Allow records a hit for key and reports whether it fits in the current
// window.
func (l *RateLimiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Keys are client-chosen, so expired windows are swept out rather than
	// left to accumulate.
	if now.Sub(l.lastSweep) >= l.window {
		for k, h := range l.hits {
			if now.Sub(h.start) >= l.window {
				delete(l.hits, k)
			}
		}
		l.lastSweep = now
	}

	h, ok := l.hits[key]
	if !ok || now.Sub(h.start) >= l.window {
		l.hits[key] = &windowHits{start: now, count: 1}
		return true
	}

	h.count++
	return h.count <= l.max
}

// Middleware rejects requests over the limit with 403, matching the behavior
// of the login throttle this replaces.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Too many login attempts, try again later.",
			})
			return
		}
		c.Next()
	}
}
