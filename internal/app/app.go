// Package app wires the server components together and owns their
// lifecycle: config validation, cache store, route discovery, unit
// registration, and the HTTP front end.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"worldmonitor/internal/retention"
	"worldmonitor/pkg/banner"
	"worldmonitor/pkg/config"
	"worldmonitor/pkg/dispatch"
	"worldmonitor/pkg/logger"
	"worldmonitor/pkg/routes"
	"worldmonitor/pkg/store"
	"worldmonitor/pkg/units"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string
	started   time.Time

	table      *routes.Table
	dispatcher *dispatch.Dispatcher

	srv  *http.Server
	fsrv *fasthttp.Server
}

// New initializes resources that do not require a running context: the
// response cache, the unit registry, and the route table. It does not
// start the HTTP server; call Run to start it and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	// the cache is auxiliary: a broken cache degrades units to uncached
	// operation, it does not keep the server from starting
	if err := store.Open(cfg.Cache.Path); err != nil {
		logger.Error("cache_unavailable", "path", cfg.Cache.Path, "error", err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		started:   time.Now(),
	}

	reg := units.NewRegistry()
	units.RegisterBuiltins(reg, units.BuiltinConfig{
		Version:  version,
		Mode:     cfg.Mode,
		Started:  a.started,
		CacheTTL: cfg.Cache.TTL.Duration(),
	})

	// discover routes from the bundled unit tree; when no tree ships with
	// this deployment the registered unit names define the table
	a.table = routes.Build(cfg.API.HandlerRoot, routes.Options{
		Prefix:  cfg.API.Prefix,
		DataDir: cfg.API.DataDir,
	})
	if a.table.Len() == 0 {
		logger.Info("unit_tree_empty", "root", cfg.API.HandlerRoot, "msg", "building route table from registered units")
		a.table = routes.FromNames(reg.Names(), cfg.API.Prefix)
	}

	a.dispatcher = dispatch.New(a.table, units.NewLoader(reg))
	return a, nil
}

// Run starts the cache sweeper and the HTTP server, and blocks until ctx
// is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	stopSweep, err := retention.Start(ctx, a.eff.Config.Retention)
	if err != nil {
		return err
	}
	defer stopSweep()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.stop()
		return nil
	case err := <-errCh:
		a.stop()
		return err
	}
}

func (a *App) stop() {
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.srv != nil {
		_ = a.srv.Shutdown(sctx)
	}
	if a.fsrv != nil {
		_ = a.fsrv.ShutdownWithContext(sctx)
	}
	_ = store.Close()
}

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr, a.table.Len())
}
