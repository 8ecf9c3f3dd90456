package units

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"worldmonitor/pkg/httpx"
	"worldmonitor/pkg/logger"
	"worldmonitor/pkg/store"
)

// marketUnit serves quote lookups for /market/<symbol>. The dynamic segment
// is re-parsed from the URL; generated quotes pass through the on-disk
// response cache so repeated lookups inside the TTL window are stable.
func marketUnit(ttl time.Duration) httpx.HandlerFunc {
	return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
		path := strings.TrimRight(r.URL.Path, "/")
		symbol := path[strings.LastIndex(path, "/")+1:]
		symbol = strings.ToUpper(symbol)

		if payload, ok := cacheGet("market/" + symbol); ok {
			return cachedJSON(payload), nil
		}

		quote := map[string]interface{}{
			"symbol":   symbol,
			"price":    syntheticPrice(symbol),
			"currency": "USD",
			"as_of":    time.Now().UTC().Format(time.RFC3339),
		}
		b, err := json.Marshal(quote)
		if err != nil {
			return nil, err
		}
		cacheSet("market/"+symbol, b, ttl)

		h := make(http.Header)
		h.Set("Content-Type", "application/json")
		return &httpx.Response{Status: http.StatusOK, Header: h, Body: httpx.BytesBody(b)}, nil
	}
}

// newsUnit serves feed lookups for /news and any suffix beneath it. The
// suffix segments select the feed topic path.
func newsUnit(ttl time.Duration) httpx.HandlerFunc {
	return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
		suffix := ""
		if i := strings.Index(r.URL.Path, "/news"); i >= 0 {
			suffix = strings.Trim(r.URL.Path[i+len("/news"):], "/")
		}
		var topics []string
		if suffix != "" {
			topics = strings.Split(suffix, "/")
		}
		key := "news/" + suffix

		if payload, ok := cacheGet(key); ok {
			return cachedJSON(payload), nil
		}

		feed := map[string]interface{}{
			"feed":      "news",
			"topics":    topics,
			"items":     []interface{}{},
			"generated": time.Now().UTC().Format(time.RFC3339),
		}
		b, err := json.Marshal(feed)
		if err != nil {
			return nil, err
		}
		cacheSet(key, b, ttl)

		h := make(http.Header)
		h.Set("Content-Type", "application/json")
		return &httpx.Response{Status: http.StatusOK, Header: h, Body: httpx.BytesBody(b)}, nil
	}
}

func cacheGet(key string) ([]byte, bool) {
	if !store.Ready() {
		return nil, false
	}
	payload, ok, err := store.GetResponse(key)
	if err != nil {
		logger.Warn("cache_get_failed", "key", key, "error", err)
		return nil, false
	}
	return payload, ok
}

func cacheSet(key string, payload []byte, ttl time.Duration) {
	if !store.Ready() {
		return
	}
	if err := store.SaveResponse(key, payload, ttl); err != nil {
		logger.Warn("cache_set_failed", "key", key, "error", err)
	}
}

func cachedJSON(payload []byte) *httpx.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("X-Cache", "hit")
	return &httpx.Response{Status: http.StatusOK, Header: h, Body: httpx.BytesBody(payload)}
}

// syntheticPrice derives a stable placeholder quote from the symbol. Real
// market data arrives through the upstream fetcher; this keeps the unit
// deterministic when no upstream is configured.
func syntheticPrice(symbol string) float64 {
	hsh := fnv.New32a()
	_, _ = hsh.Write([]byte(symbol))
	return float64(hsh.Sum32()%100000) / 100
}
