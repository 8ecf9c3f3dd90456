// Package telemetry records request metrics for the local server and
// exposes them on /metrics in Prometheus format.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/valyala/fasthttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worldmonitor",
		Name:      "http_requests_total",
		Help:      "Requests handled, by surface and status code.",
	}, []string{"surface", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worldmonitor",
		Name:      "http_request_duration_seconds",
		Help:      "Request latency, by surface.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"surface"})
)

// statusRecorder captures the status code written downstream while keeping
// Flusher visible so streamed responses are not buffered by the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records count and latency for every request on the named
// surface ("api", "static", "ops").
func Middleware(surface string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		requestsTotal.WithLabelValues(surface, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(surface).Observe(time.Since(start).Seconds())
	})
}

// FastHTTPMiddleware records the same metrics for a surface served on the
// fasthttp transport.
func FastHTTPMiddleware(surface string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		requestsTotal.WithLabelValues(surface, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		requestDuration.WithLabelValues(surface).Observe(time.Since(start).Seconds())
	}
}
