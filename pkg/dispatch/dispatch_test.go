package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"worldmonitor/pkg/httpx"
	"worldmonitor/pkg/routes"
	"worldmonitor/pkg/units"
)

func newRequest(t *testing.T, method, rawurl string) *httpx.Request {
	t.Helper()
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &httpx.Request{Method: method, URL: u, Header: make(http.Header)}
}

func drain(t *testing.T, r *httpx.Response) []byte {
	t.Helper()
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	var out []byte
	for {
		chunk, err := r.Body.Next()
		out = append(out, chunk...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
	}
}

func okUnit(tag string) units.Factory {
	return func() (httpx.HandlerFunc, error) {
		return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
			h := make(http.Header)
			h.Set("Content-Type", "application/json")
			return &httpx.Response{
				Status: http.StatusOK,
				Header: h,
				Body:   httpx.BytesBody([]byte(`{"unit":"` + tag + `"}`)),
			}, nil
		}, nil
	}
}

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	reg := units.NewRegistry()
	reg.Register("status", okUnit("status"))
	reg.Register("market/[symbol]", okUnit("market"))
	reg.Register("news/[[...path]]", okUnit("news"))
	reg.Register("broken", func() (httpx.HandlerFunc, error) {
		return nil, errors.New("malformed unit")
	})
	reg.Register("failing", func() (httpx.HandlerFunc, error) {
		return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
			return nil, errors.New("boom")
		}, nil
	})
	reg.Register("panicking", func() (httpx.HandlerFunc, error) {
		return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
			panic("unit exploded")
		}, nil
	})

	table := routes.FromNames(reg.Names(), "/api")
	return New(table, units.NewLoader(reg))
}

func TestDispatchByKind(t *testing.T) {
	d := testDispatcher(t)
	cases := []struct {
		path string
		unit string
	}{
		{"/api/status", "status"},
		{"/api/market/NVDA", "market"},
		{"/api/news", "news"},
		{"/api/news/world/energy", "news"},
	}
	for _, c := range cases {
		resp, err := d.Handle(context.Background(), newRequest(t, http.MethodGet, "http://localhost"+c.path))
		if err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		if resp.Status != http.StatusOK {
			t.Fatalf("%s: status %d", c.path, resp.Status)
		}
		var body map[string]string
		if err := json.Unmarshal(drain(t, resp), &body); err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		if body["unit"] != c.unit {
			t.Fatalf("%s: dispatched to %q, want %q", c.path, body["unit"], c.unit)
		}
	}
}

func TestDispatchNotFound(t *testing.T) {
	d := testDispatcher(t)
	resp, err := d.Handle(context.Background(), newRequest(t, http.MethodGet, "http://localhost/api/nope"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.Status)
	}
	if got := string(drain(t, resp)); got != `{"error":"Not found"}` {
		t.Fatalf("body %q", got)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type %q", ct)
	}
}

func TestDispatchFailuresBecome500(t *testing.T) {
	d := testDispatcher(t)
	for _, p := range []string{"/api/broken", "/api/failing", "/api/panicking"} {
		resp, err := d.Handle(context.Background(), newRequest(t, http.MethodGet, "http://localhost"+p))
		if err != nil {
			t.Fatalf("%s: dispatcher must swallow unit failures, got %v", p, err)
		}
		if resp.Status != http.StatusInternalServerError {
			t.Fatalf("%s: status %d, want 500", p, resp.Status)
		}
		if got := string(drain(t, resp)); got != `{"error":"Internal server error"}` {
			t.Fatalf("%s: body %q", p, got)
		}
	}
}

func TestExactPrecedenceOverPattern(t *testing.T) {
	reg := units.NewRegistry()
	reg.Register("market/[symbol]", okUnit("pattern"))
	reg.Register("market/summary", okUnit("exact"))
	d := New(routes.FromNames(reg.Names(), "/api"), units.NewLoader(reg))

	resp, err := d.Handle(context.Background(), newRequest(t, http.MethodGet, "http://localhost/api/market/summary"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(drain(t, resp), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["unit"] != "exact" {
		t.Fatalf("pattern shadowed an exact route: %q", body["unit"])
	}
}
