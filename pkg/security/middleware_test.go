package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okBackend() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func do(t *testing.T, cfg SecConfig, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	GuardMiddleware(cfg)(okBackend()).ServeHTTP(rec, req)
	return rec
}

func TestPassThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	rec := do(t, SecConfig{}, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	req.Header.Set("Origin", "https://monitor.example.com")

	rec := do(t, SecConfig{AllowedOrigins: []string{"https://monitor.example.com"}}, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://monitor.example.com" {
		t.Fatalf("allow-origin %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatal("missing Vary: Origin")
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	req.Header.Set("Origin", "https://evil.example.com")

	rec := do(t, SecConfig{AllowedOrigins: []string{"https://monitor.example.com"}}, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: unknown origin is not blocked, only unacknowledged", rec.Code)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/summarize", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	req.Header.Set("Origin", "https://monitor.example.com")

	rec := do(t, SecConfig{AllowedOrigins: []string{"*"}}, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight reached the backend: %q", rec.Body.String())
	}
}

func TestLoopbackOnly(t *testing.T) {
	cfg := SecConfig{LoopbackOnly: true}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "127.0.0.1:51234"
	if rec := do(t, cfg, req); rec.Code != http.StatusOK {
		t.Fatalf("loopback peer blocked: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "[::1]:51234"
	if rec := do(t, cfg, req); rec.Code != http.StatusOK {
		t.Fatalf("v6 loopback peer blocked: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "192.168.1.50:51234"
	if rec := do(t, cfg, req); rec.Code != http.StatusForbidden {
		t.Fatalf("remote peer admitted: %d", rec.Code)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	cfg := SecConfig{RateLimit: true, RPS: 1, Burst: 2}
	mw := GuardMiddleware(cfg)(okBackend())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("127.0.0.1:1") != http.StatusOK || send("127.0.0.1:1") != http.StatusOK {
		t.Fatal("burst requests blocked")
	}
	if send("127.0.0.1:1") != http.StatusTooManyRequests {
		t.Fatal("over-burst request admitted")
	}
	// a different client gets its own bucket
	if send("10.0.0.2:1") != http.StatusOK {
		t.Fatal("second client inherited first client's exhausted bucket")
	}
}

func TestOriginAllowedWildcard(t *testing.T) {
	if !originAllowed("https://anything.example", []string{"*"}) {
		t.Fatal("wildcard did not match")
	}
	if originAllowed("https://x.example", nil) {
		t.Fatal("empty allowlist matched")
	}
	if !originAllowed("HTTPS://Monitor.Example.COM", []string{"https://monitor.example.com"}) {
		t.Fatal("origin match must be case-insensitive")
	}
}
