package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"inventorycam/internal/logger"
)

const (
	// idleTimeout is how long a client bucket survives without requests.
	idleTimeout = 10 * time.Minute
	// cleanupInterval bounds how often idle buckets are swept.
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer than
// idleTimeout are dropped.
type RateLimiter struct {
	bucket      map[string]*visitor
	rate        rate.Limit
	burstSize   int
	mutex       sync.Mutex
	lastCleanup time.Time
	now         func() time.Time
	logger      *logger.Logger
}

// NewRateLimiter creates a limiter allowing reqRate requests per second with the
// given burst. A non-positive rate disables limiting.
func NewRateLimiter(reqRate float64, burstSize int, logger *logger.Logger) *RateLimiter {
	limit := rate.Limit(reqRate)
	if reqRate <= 0 {
		limit = rate.Inf
	}
	if burstSize <= 0 {
		burstSize = 1
	}
	return &RateLimiter{
		bucket:    make(map[string]*visitor),
		rate:      limit,
		burstSize: burstSize,
		now:       time.Now,
		logger:    logger,
	}
}

// GetLimiterFrom returns the bucket for ip, creating it on first use.
func (l *RateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) >= cleanupInterval {
		l.evictIdle(now)
	}

	v, exist := l.bucket[ip]
	if !exist {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burstSize)}
		l.bucket[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.bucket)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for ip, v := range l.bucket {
		if now.Sub(v.lastSeen) > idleTimeout {
			delete(l.bucket, ip)
		}
	}
	l.lastCleanup = now
}

// Limit wraps next and answers 429 when the client exceeds its bucket.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.GetLimiterFrom(ip).Allow() {
			l.logger.Warning("Too many requests for IP %s", ip)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
