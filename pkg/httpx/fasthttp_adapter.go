package httpx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/valyala/fasthttp"

	"worldmonitor/pkg/logger"
)

// FastHTTPAdapter adapts an httpx.HandlerFunc into a fasthttp.RequestHandler.
// It creates a request context with cancellation and streams the response
// body through fasthttp's stream writer so chunk boundaries survive.
func FastHTTPAdapter(h HandlerFunc, opts Options) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		cctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req, err := FromFastHTTP(ctx, opts)
		if err != nil {
			logger.Warn("request_adapt_failed", "path", string(ctx.Path()), "error", err)
			ctx.Response.Header.Set("Content-Type", "application/json")
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			ctx.SetBodyString(`{"error":"Bad request"}`)
			return
		}

		resp, err := h(cctx, req)
		if err != nil || resp == nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			logger.Error("handler_failed", "path", string(ctx.Path()), "error", err)
			ctx.Response.Header.Set("Content-Type", "application/json")
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString(`{"error":"Internal server error"}`)
			return
		}
		WriteFastHTTP(ctx, resp)
	}
}

// FromFastHTTP converts a fasthttp request context into the normalized
// form. fasthttp buffers bodies itself, so the cap is applied to the
// already-materialized bytes.
func FromFastHTTP(ctx *fasthttp.RequestCtx, opts Options) (*Request, error) {
	hdr := make(http.Header)
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		hdr.Add(string(k), string(v))
	})

	u, err := AbsoluteURL(
		string(ctx.RequestURI()),
		hdr.Get("X-Forwarded-Proto"),
		hdr.Get("X-Forwarded-Host"),
		string(ctx.Host()),
		opts.DefaultHost,
	)
	if err != nil {
		return nil, fmt.Errorf("reconstruct url: %w", err)
	}

	method := string(ctx.Method())
	var body []byte
	if HasBody(method) {
		b := ctx.PostBody()
		if opts.MaxBodySize > 0 && int64(len(b)) > opts.MaxBodySize {
			return nil, fmt.Errorf("body exceeds %d bytes", opts.MaxBodySize)
		}
		if len(b) > 0 {
			body = append([]byte(nil), b...)
		}
	}

	return &Request{
		Method:     method,
		URL:        u,
		Header:     hdr,
		Body:       body,
		RemoteAddr: ctx.RemoteAddr().String(),
		Raw:        ctx,
	}, nil
}

// WriteFastHTTP streams a normalized response into a fasthttp response.
// The body is drained inside the stream writer, one flush per chunk, and
// closed when the stream ends or fails.
func WriteFastHTTP(ctx *fasthttp.RequestCtx, resp *Response) {
	for k, vals := range resp.Header {
		for _, v := range vals {
			ctx.Response.Header.Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = fasthttp.StatusOK
	}
	ctx.SetStatusCode(status)

	if resp.Body == nil {
		return
	}
	body := resp.Body
	ctx.Response.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() { _ = body.Close() }()
		for {
			chunk, err := body.Next()
			if len(chunk) > 0 {
				if _, werr := w.Write(chunk); werr != nil {
					return
				}
				if ferr := w.Flush(); ferr != nil {
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					logger.Warn("response_stream_failed", "error", err)
				}
				return
			}
		}
	})
}
