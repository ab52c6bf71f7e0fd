// Package ratelimiter provides a fixed-window request limiter keyed by
// client IP, used globally and, with a tighter window, on the login and
// register routes.
package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, windowSize time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  windowSize,
	}
	go rl.janitor()
	return rl
}

// janitor drops windows that have fully elapsed so the map doesn't grow
// with one entry per IP ever seen.
func (rl *FixedWindowRateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	for now := range ticker.C {
		rl.mu.Lock()
		for ip, w := range rl.clients {
			if now.Sub(w.start) >= rl.window {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether a request from ip fits in its current window, and
// if not, how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[ip] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	return false, rl.window - now.Sub(w.start)
}
