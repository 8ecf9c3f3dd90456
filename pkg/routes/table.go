// Package routes builds and queries the immutable dispatch table mapping
// URL shapes to handler-unit identifiers. A directory tree of unit files
// implicitly defines the routes: static segments, single bracketed segments
// for one dynamic path element, and bracket-ellipsis segments for catch-all
// suffix matching.
package routes

import (
	"regexp"
	"strings"
)

// Kind classifies how a route entry matches a request path.
type Kind int

const (
	// Exact matches one specific literal path only.
	Exact Kind = iota
	// Parameterized matches a fixed prefix plus exactly one extra segment.
	Parameterized
	// CatchAll matches a fixed prefix plus any suffix, including none.
	CatchAll
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Parameterized:
		return "parameterized"
	case CatchAll:
		return "catchall"
	}
	return "unknown"
}

// Entry is one immutable route rule. Pattern is nil for Exact entries.
type Entry struct {
	Kind      Kind
	Prefix    string // declared prefix; for Exact the full literal path
	Param     string // recorded parameter name, informational only
	Pattern   *regexp.Regexp
	HandlerID string // unit path relative to the handler root, extension stripped
}

// Table is built once at startup and queried for every API request. Exact
// entries are keyed by literal path; pattern entries are scanned in
// discovery order, first match wins.
type Table struct {
	exact    map[string]*Entry
	patterns []*Entry
}

// Lookup selects the entry for a request path. Exact match always takes
// precedence; pattern rules are tried in discovery order.
func (t *Table) Lookup(pathname string) (*Entry, bool) {
	if t == nil {
		return nil, false
	}
	if e, ok := t.exact[pathname]; ok {
		return e, true
	}
	for _, e := range t.patterns {
		if e.Pattern.MatchString(pathname) {
			return e, true
		}
	}
	return nil, false
}

// Len returns the total number of route entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.exact) + len(t.patterns)
}

// Entries returns all entries, exact first, in a copied slice.
func (t *Table) Entries() []*Entry {
	if t == nil {
		return nil
	}
	out := make([]*Entry, 0, t.Len())
	for _, e := range t.exact {
		out = append(out, e)
	}
	out = append(out, t.patterns...)
	return out
}

var (
	catchAllRe = regexp.MustCompile(`^\[{1,2}\.\.\.([^\[\]]+)\]{1,2}$`)
	paramRe    = regexp.MustCompile(`^\[([^\[\].]+)\]$`)
)

// classify derives a route entry from a unit path relative to the handler
// root (extension already stripped) mounted under apiPrefix. Returns nil
// when the name is empty.
func classify(rel, apiPrefix string) *Entry {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return nil
	}
	dir := ""
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		dir = rel[:i]
		base = rel[i+1:]
	}
	prefix := apiPrefix
	if dir != "" {
		prefix += "/" + dir
	}

	if m := catchAllRe.FindStringSubmatch(base); m != nil {
		return &Entry{
			Kind:      CatchAll,
			Prefix:    prefix,
			Param:     m[1],
			Pattern:   regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "(/.*)?$"),
			HandlerID: rel,
		}
	}
	if m := paramRe.FindStringSubmatch(base); m != nil {
		return &Entry{
			Kind:      Parameterized,
			Prefix:    prefix,
			Param:     m[1],
			Pattern:   regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "/[^/]+$"),
			HandlerID: rel,
		}
	}
	return &Entry{
		Kind:      Exact,
		Prefix:    prefix + "/" + base,
		HandlerID: rel,
	}
}
