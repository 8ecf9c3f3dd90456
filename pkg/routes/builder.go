package routes

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"worldmonitor/pkg/logger"
)

// Options tunes route discovery.
type Options struct {
	// Prefix is the URL prefix the unit tree is mounted under, e.g. "/api".
	Prefix string
	// DataDir names a subdirectory holding bundled data, skipped entirely.
	DataDir string
}

// dependency directories never contain handler units
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
}

// unit file extensions stripped when deriving the handler id
var unitExts = map[string]struct{}{
	".mjs": {}, ".js": {}, ".cjs": {}, ".ts": {},
}

// Build scans the handler-unit tree rooted at dir once and compiles the
// dispatch table. Discovery order is lexicographic by full discovered path
// so the table is identical across platforms and filesystems. A missing or
// unreadable root yields an empty table, never an error.
func Build(dir string, opts Options) *Table {
	var rels []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			// unreadable subtree is treated as empty
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return fs.SkipDir
			}
			if _, ok := skipDirs[name]; ok {
				return fs.SkipDir
			}
			if opts.DataDir != "" && name == opts.DataDir {
				return fs.SkipDir
			}
			return nil
		}
		if !routeFile(name) {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return nil
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		logger.Warn("route_scan_failed", "dir", dir, "error", err)
	}
	sort.Strings(rels)

	names := make([]string, 0, len(rels))
	for _, rel := range rels {
		names = append(names, stripUnitExt(rel))
	}
	return FromNames(names, opts.Prefix)
}

// FromNames compiles a table from handler-unit names (paths relative to the
// handler root, extension stripped). It is used both by Build and by
// deployments with no on-disk unit tree, where the registered unit names
// define the routes directly.
func FromNames(names []string, prefix string) *Table {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	t := &Table{exact: make(map[string]*Entry)}
	for _, n := range sorted {
		e := classify(n, prefix)
		if e == nil {
			continue
		}
		if e.Kind == Exact {
			if _, dup := t.exact[e.Prefix]; dup {
				logger.Warn("route_duplicate", "path", e.Prefix, "unit", e.HandlerID)
				continue
			}
			t.exact[e.Prefix] = e
			continue
		}
		if prev := shadowedBy(t.patterns, e); prev != nil {
			logger.Warn("route_shadowed",
				"unit", e.HandlerID, "kind", e.Kind.String(),
				"by", prev.HandlerID, "by_kind", prev.Kind.String())
		}
		t.patterns = append(t.patterns, e)
	}

	logger.Info("route_table_built",
		"exact", len(t.exact), "patterns", len(t.patterns))
	return t
}

// shadowedBy reports the first earlier pattern rule that would always win
// over e under first-match-wins scanning. Overlap is not fatal; declaration
// order decides, but the startup warning keeps a silently dead route from
// going unnoticed.
func shadowedBy(patterns []*Entry, e *Entry) *Entry {
	for _, p := range patterns {
		if p.Pattern.String() == e.Pattern.String() {
			return p
		}
		if p.Kind == CatchAll && (e.Prefix == p.Prefix || strings.HasPrefix(e.Prefix, p.Prefix+"/")) {
			return p
		}
	}
	return nil
}

// routeFile reports whether a basename names a handler unit. Hidden and
// private-prefixed files, test units, and non-unit file types never become
// routes.
func routeFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	if strings.Contains(name, ".test.") || strings.Contains(name, "_test.") {
		return false
	}
	_, ok := unitExts[filepath.Ext(name)]
	return ok
}

func stripUnitExt(rel string) string {
	ext := filepath.Ext(rel)
	if _, ok := unitExts[ext]; ok {
		return strings.TrimSuffix(rel, ext)
	}
	return rel
}
