package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/cache"
)

// Limiter decides whether a client key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for the per-IP rate limit middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter Limiter
	Enabled bool
}

// RateLimitIP limits requests per client IP. Limiter errors fail open.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			result, err := cfg.Limiter.Allow(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				apperror.Write(w, apperror.New(apperror.CodeTooManyRequests, "too many requests, retry later").Envelope())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's client address without the port.
// chi's RealIP middleware has already applied X-Forwarded-For/X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter keeps a token bucket per key in process memory. It backs the
// rate limit middleware when Redis is not configured.
type LocalLimiter struct {
	rate            rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*ipLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLocalLimiter creates a limiter allowing ratePerMinute requests per key
// with the given burst and starts its cleanup loop.
func NewLocalLimiter(ratePerMinute, burst int, cleanupInterval time.Duration) *LocalLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	l := &LocalLimiter{
		rate:            rate.Limit(float64(ratePerMinute) / 60.0),
		burst:           burst,
		cleanupInterval: cleanupInterval,
		limiters:        make(map[string]*ipLimiter),
		stopCh:          make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow consumes a token for key.
func (l *LocalLimiter) Allow(_ context.Context, key string) (*cache.RateLimitResult, error) {
	now := time.Now()

	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now
	l.mu.Unlock()

	res := entry.limiter.ReserveN(now, 1)
	if !res.OK() {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: time.Minute}, nil
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		return &cache.RateLimitResult{Allowed: false, RetryAfter: delay, ResetAt: now.Add(delay)}, nil
	}
	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: int64(entry.limiter.TokensAt(now)),
		ResetAt:   now,
	}, nil
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Stop ends the cleanup loop.
func (l *LocalLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *LocalLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops keys idle for more than two cleanup intervals.
func (l *LocalLimiter) cleanup(now time.Time) {
	ttl := l.cleanupInterval * 2

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(l.limiters, key)
		}
	}
}
