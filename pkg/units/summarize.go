package units

import (
	"context"
	"io"
	"net/http"
	"strings"

	"worldmonitor/pkg/httpx"
)

// summarizeUnit consumes the buffered request body and streams back a
// naive extractive summary, one chunk per paragraph. The incremental
// output is the point: long inputs start producing bytes before the whole
// summary exists, which exercises the response streaming contract the
// real summarization unit relies on.
func summarizeUnit() httpx.HandlerFunc {
	return func(ctx context.Context, r *httpx.Request) (*httpx.Response, error) {
		if r.Method != http.MethodPost {
			h := make(http.Header)
			h.Set("Content-Type", "application/json")
			h.Set("Allow", "POST")
			return &httpx.Response{
				Status: http.StatusMethodNotAllowed,
				Header: h,
				Body:   httpx.BytesBody([]byte(`{"error":"method not allowed"}`)),
			}, nil
		}
		text := strings.TrimSpace(string(r.Body))
		if text == "" {
			h := make(http.Header)
			h.Set("Content-Type", "application/json")
			return &httpx.Response{
				Status: http.StatusBadRequest,
				Header: h,
				Body:   httpx.BytesBody([]byte(`{"error":"empty body"}`)),
			}, nil
		}

		paras := splitParagraphs(text)
		i := 0
		body := httpx.FuncBody(func() ([]byte, error) {
			if i >= len(paras) {
				return nil, io.EOF
			}
			line := firstSentence(paras[i])
			i++
			return []byte(line + "\n"), nil
		}, nil)

		h := make(http.Header)
		h.Set("Content-Type", "text/plain; charset=utf-8")
		return &httpx.Response{Status: http.StatusOK, Header: h, Body: body}, nil
	}
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstSentence returns the paragraph up to the first sentence terminator.
func firstSentence(p string) string {
	for i, c := range p {
		if c == '.' || c == '!' || c == '?' {
			return strings.TrimSpace(p[:i+1])
		}
	}
	return strings.TrimSpace(p)
}
