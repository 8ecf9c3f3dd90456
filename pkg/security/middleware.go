// Package security guards the local API surface: CORS for the desktop
// shell's origins, per-client rate limiting, and an optional loopback-only
// rule for sidecar deployments that must never serve remote peers.
package security

import (
	"net"
	"net/http"
	"strings"

	"worldmonitor/pkg/logger"
)

// SecConfig configures the request guard middleware.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	LoopbackOnly   bool
	// RateLimit enables the limiter; zero-valued RPS/Burst fall back to
	// permissive local defaults.
	RateLimit bool
}

// GuardMiddleware wraps a handler with CORS handling, the loopback rule,
// and rate limiting keyed by remote IP.
func GuardMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			// CORS preflight
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			ip := clientIP(r)
			if cfg.LoopbackOnly && !loopback(ip) {
				logger.Warn("request_blocked", "reason", "not_loopback", "ip", ip, "path", r.URL.Path)
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			if cfg.RateLimit && !limiters.Allow(ip) {
				logger.Warn("request_blocked", "reason", "rate_limited", "ip", ip, "path", r.URL.Path)
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func loopback(ip string) bool {
	p := net.ParseIP(ip)
	return p != nil && p.IsLoopback()
}
