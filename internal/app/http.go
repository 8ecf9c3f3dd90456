package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"worldmonitor/pkg/httpx"
	"worldmonitor/pkg/security"
	"worldmonitor/pkg/static"
	"worldmonitor/pkg/store"
	"worldmonitor/pkg/telemetry"
	"worldmonitor/pkg/utils"
)

// buildHandler assembles the outer HTTP surface: ops endpoints, the API
// dispatcher behind the request/response adapters, and the SPA fallback as
// the trailing catch-all.
func (a *App) buildHandler() http.Handler {
	cfg := a.eff.Config
	opts := httpx.Options{
		DefaultHost: a.eff.Addr,
		MaxBodySize: cfg.API.MaxBodySize.Int64(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler)
	r.HandleFunc("/readyz", a.readyzHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	apiHandler := telemetry.Middleware("api", httpx.NetHTTPAdapter(a.dispatcher.Handle, opts))
	r.PathPrefix(cfg.API.Prefix + "/").Handler(apiHandler)
	r.Path(cfg.API.Prefix).Handler(apiHandler)

	spa := static.New(cfg.Static.Root, cfg.Static.Index, cfg.Static.AssetsPrefix)
	r.PathPrefix("/").Handler(telemetry.Middleware("static", spa))

	return security.GuardMiddleware(a.secConfig())(r)
}

// secConfig derives the guard policy from the effective config. Both
// transport engines build their guard from this one value.
func (a *App) secConfig() security.SecConfig {
	cfg := a.eff.Config
	return security.SecConfig{
		AllowedOrigins: cfg.Security.CORS.AllowedOrigins,
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
		LoopbackOnly:   cfg.Security.LoopbackOnly,
		RateLimit:      cfg.Security.RateLimit.RPS > 0,
	}
}

// healthzHandler handles the /healthz liveness endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyzHandler handles the /readyz endpoint.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if a.table.Len() == 0 {
		utils.JSONError(w, http.StatusServiceUnavailable, "no routes")
		return
	}
	status := map[string]string{"status": "ok", "version": a.version}
	if !store.Ready() {
		// degraded but serving
		status["cache"] = "unavailable"
	}
	_ = utils.JSONWrite(w, http.StatusOK, status)
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	cfg := a.eff.Config
	errCh := make(chan error, 1)

	if cfg.Server.Engine == "fasthttp" {
		go func() { errCh <- a.serveFastHTTP() }()
		return errCh
	}

	a.srv = &http.Server{Addr: a.eff.Addr, Handler: a.buildHandler()}
	go func() {
		cert := cfg.Server.TLS.CertFile
		key := cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}

// buildFastHandler assembles the fasthttp rendition of the surface: the
// API goes through the fasthttp adapter natively behind the same guard and
// telemetry as the net/http engine, everything else through the net/http
// handler via the adaptor (which is already guarded inside buildHandler).
func (a *App) buildFastHandler() fasthttp.RequestHandler {
	cfg := a.eff.Config
	opts := httpx.Options{
		DefaultHost: a.eff.Addr,
		MaxBodySize: cfg.API.MaxBodySize.Int64(),
	}
	guard := security.GuardFastHTTP(a.secConfig())
	api := guard(telemetry.FastHTTPMiddleware("api", httpx.FastHTTPAdapter(a.dispatcher.Handle, opts)))
	rest := fasthttpadaptor.NewFastHTTPHandler(a.buildHandler())

	return func(ctx *fasthttp.RequestCtx) {
		p := string(ctx.Path())
		if p == cfg.API.Prefix || strings.HasPrefix(p, cfg.API.Prefix+"/") {
			api(ctx)
			return
		}
		rest(ctx)
	}
}

func (a *App) serveFastHTTP() error {
	a.fsrv = &fasthttp.Server{Handler: a.buildFastHandler()}
	return a.fsrv.ListenAndServe(a.eff.Addr)
}
