package units

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"worldmonitor/pkg/httpx"
)

// BuiltinConfig carries process facts the built-in units report or use.
type BuiltinConfig struct {
	Version  string
	Mode     string
	Started  time.Time
	CacheTTL time.Duration
}

// RegisterBuiltins registers the handler units that ship with the server.
// Names follow the handler-root convention: the unit's path relative to the
// root with the extension stripped, so bracketed names declare dynamic and
// catch-all routes.
func RegisterBuiltins(r *Registry, cfg BuiltinConfig) {
	r.Register("status", func() (httpx.HandlerFunc, error) {
		return statusUnit(cfg), nil
	})
	r.Register("summarize", func() (httpx.HandlerFunc, error) {
		return summarizeUnit(), nil
	})
	r.Register("market/[symbol]", func() (httpx.HandlerFunc, error) {
		return marketUnit(cfg.CacheTTL), nil
	})
	r.Register("news/[[...path]]", func() (httpx.HandlerFunc, error) {
		return newsUnit(cfg.CacheTTL), nil
	})
}

func statusUnit(cfg BuiltinConfig) httpx.HandlerFunc {
	return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
		return jsonResponse(http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"version":        cfg.Version,
			"mode":           cfg.Mode,
			"uptime_seconds": int64(time.Since(cfg.Started).Seconds()),
		})
	}
}

// jsonResponse builds a normalized single-chunk JSON response.
func jsonResponse(status int, v interface{}) (*httpx.Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &httpx.Response{Status: status, Header: h, Body: httpx.BytesBody(b)}, nil
}
