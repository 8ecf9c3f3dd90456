package httpx

import (
	"context"
	"net/http"
	"net/url"
)

// Request is the normalized request representation handed to handler units.
// The URL is absolute: scheme and host are reconstructed from forwarding
// headers (or the bound address) so units behind a reverse proxy see the
// client-visible origin. Body is fully buffered before dispatch; it is nil
// for methods that conventionally carry no payload.
type Request struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	Body       []byte
	RemoteAddr string
	// Raw holds the underlying transport-specific request object
	// (e.g. *http.Request or *fasthttp.RequestCtx) for escape hatches.
	Raw interface{}
}

// Response is the normalized response produced by handler units. Header
// values are copied to the transport verbatim. Body, when non-nil, is a
// finite single-pass chunk sequence drained exactly once by the adapter.
type Response struct {
	Status int
	Header http.Header
	Body   ChunkReader
}

// HandlerFunc is the handler-unit call contract used across adapters:
// exactly one normalized request in, exactly one normalized response (or an
// error) out.
type HandlerFunc func(ctx context.Context, r *Request) (*Response, error)

// Options tunes how adapters normalize inbound requests.
type Options struct {
	// DefaultHost is the bound address used for URL reconstruction when no
	// host information is present on the request.
	DefaultHost string
	// MaxBodySize caps the buffered request body in bytes. Zero means no cap.
	MaxBodySize int64
}

// HasBody reports whether the method conventionally carries a request
// payload. Read-only fetches are dispatched without buffering.
func HasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// AbsoluteURL reconstructs the client-visible URL for an inbound request.
// Priority: forwarded proto, forwarded host, transport host, bound address.
func AbsoluteURL(requestURI, forwardedProto, forwardedHost, host, defaultHost string) (*url.URL, error) {
	scheme := forwardedProto
	if scheme == "" {
		scheme = "http"
	}
	h := forwardedHost
	if h == "" {
		h = host
	}
	if h == "" {
		h = defaultHost
	}
	return url.Parse(scheme + "://" + h + requestURI)
}
