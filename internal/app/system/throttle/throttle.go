// Package throttle limits request rates per client IP with token buckets.
package throttle

import (
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused bucket is kept before it is dropped.
const idleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*entry
	every     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
	logger    *zap.Logger
}

// New allows perMinute requests per IP with the given burst.
// perMinute <= 0 disables limiting.
func New(perMinute, burst int, logger *zap.Logger) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*entry),
		burst:   burst,
		now:     time.Now,
		logger:  logger,
	}
	if perMinute > 0 {
		l.every = rate.Every(time.Minute / time.Duration(perMinute))
		if l.burst <= 0 {
			l.burst = perMinute
		}
	}
	return l
}

// Allow reports whether a request from ip may proceed now.
func (l *Limiter) Allow(ip string) bool {
	if l.every == 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	e, ok := l.buckets[ip]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	for ip, e := range l.buckets {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := network.ClientIP(r)
		if !l.Allow(ip) {
			l.logger.Warn("request throttled",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "60")
			jsonutil.WriteError(w, apperr.New(apperr.TooManyRequests, "Too many requests, please try again later"), false)
			return
		}
		next.ServeHTTP(w, r)
	})
}
