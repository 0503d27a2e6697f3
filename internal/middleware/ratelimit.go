// Package middleware holds the HTTP middleware wrapping the fleet API.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RateLimitMiddleware limits requests per client IP over a sliding window.
type RateLimitMiddleware struct {
	requests map[string][]time.Time // IP -> request times
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// allow records a request from clientIP unless maxRequests were already seen
// within window.
func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	timestamps := m.requests[clientIP]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

// Sweep drops clients with no request inside window. Returns how many were dropped.
func (m *RateLimitMiddleware) Sweep(window time.Duration) int {
	windowStart := m.now().Add(-window)
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for ip, timestamps := range m.requests {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(windowStart) {
			delete(m.requests, ip)
			dropped++
		}
	}
	return dropped
}

// RateLimit applies rate limiting based on IP address. /health and /metrics are
// never limited.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOperational(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			clientIP := getClientIP(r)
			if !m.allow(clientIP, maxRequests, window) {
				log.WithFields(log.Fields{"client_ip": clientIP, "path": r.URL.Path}).Warn("Rate limit exceeded")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isOperational(path string) bool {
	return path == "/health" || path == "/metrics"
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
