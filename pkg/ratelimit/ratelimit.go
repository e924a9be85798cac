package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a simple fixed-window counter keyed by client IP
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window // per-IP windows
	max     int                // requests per window
	per     time.Duration      // window size
}

type window struct {
	start time.Time
	left  int // remaining requests
}

// New creates a new IP-based limiter allowing max requests per window
func New(max int, per time.Duration) *Limiter {
	return &Limiter{windows: map[string]*window{}, max: max, per: per}
}

// Middleware enforces the rate limit before calling the next handler
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, _ := net.SplitHostPort(req.RemoteAddr)

		l.mu.Lock()
		win := l.windows[ip]
		if win == nil || time.Since(win.start) > l.per {
			win = &window{start: time.Now(), left: l.max}
			l.windows[ip] = win
			l.prune()
		}

		if win.left <= 0 {
			l.mu.Unlock()
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}

		win.left--
		l.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}

// prune drops expired windows so the map doesn't grow with one-off clients.
// Callers hold l.mu.
func (l *Limiter) prune() {
	if len(l.windows) < 1024 {
		return
	}
	for ip, win := range l.windows {
		if time.Since(win.start) > l.per {
			delete(l.windows, ip)
		}
	}
}
