package httpx

import (
	"fmt"
	"io"
	"net/http"

	"worldmonitor/pkg/logger"
)

// NetHTTPAdapter adapts an httpx.HandlerFunc into a standard net/http
// handler. The inbound request is normalized per Options (absolute URL,
// buffered body); the handler's response is streamed to the connection
// chunk by chunk.
func NetHTTPAdapter(h HandlerFunc, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := FromNetHTTP(r, opts)
		if err != nil {
			logger.Warn("request_adapt_failed", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Bad request"}`))
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil || resp == nil {
			// the contract allows a response alongside an error; its body
			// still has to be released
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			logger.Error("handler_failed", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
			return
		}
		if err := WriteNetHTTP(w, resp); err != nil {
			// headers are already on the wire at this point; best effort
			logger.Warn("response_stream_failed", "path", r.URL.Path, "error", err)
		}
	})
}

// FromNetHTTP converts a net/http request into the normalized form. The
// body is fully read into memory for body-carrying methods, bounded by
// opts.MaxBodySize when set.
func FromNetHTTP(r *http.Request, opts Options) (*Request, error) {
	u, err := AbsoluteURL(
		r.URL.RequestURI(),
		r.Header.Get("X-Forwarded-Proto"),
		r.Header.Get("X-Forwarded-Host"),
		r.Host,
		opts.DefaultHost,
	)
	if err != nil {
		return nil, fmt.Errorf("reconstruct url: %w", err)
	}

	var body []byte
	if HasBody(r.Method) && r.Body != nil {
		rd := io.Reader(r.Body)
		if opts.MaxBodySize > 0 {
			rd = io.LimitReader(r.Body, opts.MaxBodySize+1)
		}
		body, err = io.ReadAll(rd)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if opts.MaxBodySize > 0 && int64(len(body)) > opts.MaxBodySize {
			return nil, fmt.Errorf("body exceeds %d bytes", opts.MaxBodySize)
		}
	}

	return &Request{
		Method:     r.Method,
		URL:        u,
		Header:     r.Header.Clone(),
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		Raw:        r,
	}, nil
}

// WriteNetHTTP streams a normalized response to a net/http connection.
// Status and headers are copied verbatim, then the body is drained chunk by
// chunk, flushing after each write so the client observes the handler's
// chunk boundaries. The body is closed on every exit path.
func WriteNetHTTP(w http.ResponseWriter, resp *Response) error {
	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.Body == nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	flusher, _ := w.(http.Flusher)
	for {
		chunk, err := resp.Body.Next()
		if len(chunk) > 0 {
			if _, werr := w.Write(chunk); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
