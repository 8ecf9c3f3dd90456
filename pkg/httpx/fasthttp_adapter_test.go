package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"
)

func fastCtx(method, uri string, body []byte) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return &ctx
}

func TestFromFastHTTPReconstructsURL(t *testing.T) {
	ctx := fastCtx(http.MethodGet, "/api/market/NVDA?fresh=1", nil)
	ctx.Request.SetHost("localhost:46123")

	req, err := FromFastHTTP(ctx, Options{})
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}
	if got := req.URL.String(); got != "http://localhost:46123/api/market/NVDA?fresh=1" {
		t.Fatalf("url %q", got)
	}
	if req.Method != http.MethodGet {
		t.Fatalf("method %q", req.Method)
	}
	if req.Body != nil {
		t.Fatalf("GET must not carry a body")
	}
}

func TestFromFastHTTPForwardedHeaders(t *testing.T) {
	ctx := fastCtx(http.MethodGet, "/api/status", nil)
	ctx.Request.SetHost("127.0.0.1:46123")
	ctx.Request.Header.Set("X-Forwarded-Proto", "https")
	ctx.Request.Header.Set("X-Forwarded-Host", "monitor.example.com")

	req, err := FromFastHTTP(ctx, Options{})
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}
	if got := req.URL.String(); got != "https://monitor.example.com/api/status" {
		t.Fatalf("url %q", got)
	}
}

func TestFromFastHTTPBuffersBody(t *testing.T) {
	ctx := fastCtx(http.MethodPost, "/api/summarize", []byte("hello"))
	ctx.Request.SetHost("localhost")

	req, err := FromFastHTTP(ctx, Options{MaxBodySize: 64})
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}
	if string(req.Body) != "hello" {
		t.Fatalf("body %q", req.Body)
	}

	// the normalized body is a copy, not a view of fasthttp's buffer
	ctx.Request.SetBody([]byte("XXXXX"))
	if string(req.Body) != "hello" {
		t.Fatal("body aliases the transport buffer")
	}
}

func TestFastHTTPAdapterClosesBodyOnHandlerError(t *testing.T) {
	closed := false
	h := func(ctx context.Context, r *Request) (*Response, error) {
		body := FuncBody(
			func() ([]byte, error) { return nil, io.EOF },
			func() error { closed = true; return nil },
		)
		return &Response{Header: make(http.Header), Body: body}, errors.New("late failure")
	}

	rctx := fastCtx(http.MethodGet, "/api/x", nil)
	rctx.Request.SetHost("localhost")
	FastHTTPAdapter(h, Options{})(rctx)

	if rctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("status %d", rctx.Response.StatusCode())
	}
	if !closed {
		t.Fatal("discarded response body not closed")
	}
}

func TestFromFastHTTPBodyCap(t *testing.T) {
	ctx := fastCtx(http.MethodPost, "/api/summarize", make([]byte, 100))
	ctx.Request.SetHost("localhost")

	if _, err := FromFastHTTP(ctx, Options{MaxBodySize: 10}); err == nil {
		t.Fatal("oversized body must be rejected")
	}
}
