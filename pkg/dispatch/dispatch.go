// Package dispatch selects the route for an API request, resolves its
// handler unit, and converts every failure mode into a structured JSON
// error response. A per-request failure never terminates the process.
package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"worldmonitor/pkg/httpx"
	"worldmonitor/pkg/logger"
	"worldmonitor/pkg/routes"
	"worldmonitor/pkg/units"
)

// Dispatcher routes normalized API requests to handler units.
type Dispatcher struct {
	table  *routes.Table
	loader *units.Loader
}

func New(table *routes.Table, loader *units.Loader) *Dispatcher {
	return &Dispatcher{table: table, loader: loader}
}

// Handle implements httpx.HandlerFunc. Selection is strict priority:
// exact entry, then pattern entries in discovery order, else 404. Exactly
// one rule fires per request.
func (d *Dispatcher) Handle(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
	entry, ok := d.table.Lookup(r.URL.Path)
	if !ok {
		// expected case, not an error
		logger.Debug("route_miss", "path", r.URL.Path)
		return errorResponse(http.StatusNotFound, "Not found"), nil
	}

	h, err := d.loader.Resolve(entry.HandlerID)
	if err != nil {
		logger.Error("unit_resolve_failed", "path", r.URL.Path, "unit", entry.HandlerID, "error", err)
		return errorResponse(http.StatusInternalServerError, "Internal server error"), nil
	}

	resp, err := invoke(ctx, h, r)
	if err != nil || resp == nil {
		logger.Error("unit_failed", "path", r.URL.Path, "unit", entry.HandlerID, "error", err)
		return errorResponse(http.StatusInternalServerError, "Internal server error"), nil
	}
	return resp, nil
}

// invoke calls the unit with panic containment; a panicking unit is a
// handler execution failure, not a process crash.
func invoke(ctx context.Context, h httpx.HandlerFunc, r *httpx.Request) (resp *httpx.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("unit panic: %v", rec)
		}
	}()
	return h(ctx, r)
}

func errorResponse(status int, msg string) *httpx.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &httpx.Response{
		Status: status,
		Header: h,
		Body:   httpx.BytesBody([]byte(`{"error":"` + msg + `"}`)),
	}
}
