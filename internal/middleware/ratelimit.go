package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter: token bucket на каждый ключ (адрес клиента).
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newRateLimiter(perMinute int, idle time.Duration) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     idle,
	}
}

func (r *rateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	e, ok := r.limiters[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = e
	}
	e.seen = now
	for k, v := range r.limiters {
		if now.Sub(v.seen) > r.idle {
			delete(r.limiters, k)
		}
	}
	return e.lim.AllowN(now, 1)
}

// RateLimit ограничивает число запросов с одного адреса в минуту. 429 при превышении.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 600
	}
	rl := newRateLimiter(perMinute, 10*time.Minute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !rl.allow(host) {
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
