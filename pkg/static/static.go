// Package static serves the bundled single-page application from a content
// root. Unknown paths fall back to the root index document so the client
// application can perform its own routing; content-addressed assets get an
// immutable one-year cache directive.
package static

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"worldmonitor/pkg/logger"
)

const immutableCache = "public, max-age=31536000, immutable"

// fixed extension table; unknown extensions are served as opaque binary
var mimeTypes = map[string]string{
	".html":        "text/html; charset=utf-8",
	".htm":         "text/html; charset=utf-8",
	".js":          "application/javascript; charset=utf-8",
	".mjs":         "application/javascript; charset=utf-8",
	".css":         "text/css; charset=utf-8",
	".json":        "application/json",
	".map":         "application/json",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".ico":         "image/x-icon",
	".txt":         "text/plain; charset=utf-8",
	".xml":         "application/xml",
	".wasm":        "application/wasm",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".webmanifest": "application/manifest+json",
}

// Server resolves request paths under a content root.
type Server struct {
	root         string
	index        string
	assetsPrefix string
}

// New returns a static server for the given content root. index is the SPA
// document substituted for directories and unknown paths; assetsPrefix
// marks the content-addressed subtree that may be cached forever.
func New(root, index, assetsPrefix string) *Server {
	if index == "" {
		index = "index.html"
	}
	if assetsPrefix == "" {
		assetsPrefix = "/assets/"
	}
	return &Server{root: root, index: index, assetsPrefix: assetsPrefix}
}

// ServeHTTP serves the resolved file, or the root index document when the
// path does not resolve to a real file (single-page-app convention).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.TryServe(r.URL.Path, w) {
		return
	}
	// fall back to the SPA document; the client router takes it from here
	if s.serveFile(filepath.Join(s.root, s.index), ".html", false, w) {
		return
	}
	logger.Warn("spa_index_missing", "root", s.root, "index", s.index)
	http.Error(w, "not found", http.StatusNotFound)
}

// TryServe resolves pathname under the content root and serves it when a
// real file exists there. Traversal sequences and repeated separators are
// neutralized before resolution. Returns whether a real file was served.
func (s *Server) TryServe(pathname string, w http.ResponseWriter) bool {
	clean := path.Clean("/" + pathname)
	full := filepath.Join(s.root, filepath.FromSlash(clean))

	fi, err := os.Stat(full)
	if err != nil {
		return false
	}
	if fi.IsDir() {
		full = filepath.Join(full, s.index)
		if _, err := os.Stat(full); err != nil {
			return false
		}
		clean = clean + "/" + s.index
	}

	immutable := strings.HasPrefix(clean, s.assetsPrefix)
	return s.serveFile(full, strings.ToLower(filepath.Ext(full)), immutable, w)
}

func (s *Server) serveFile(full, ext string, immutable bool, w http.ResponseWriter) bool {
	f, err := os.Open(full)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}

	ct, ok := mimeTypes[ext]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	if immutable {
		// content-addressed filenames make indefinite caching safe
		w.Header().Set("Cache-Control", immutableCache)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
	return true
}
