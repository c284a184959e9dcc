// Package routefs is the synthetic-filesystem route engine: it resolves
// filesystem-style operation requests against registered path patterns
// and executes the matching handler with filesystem-protocol-correct
// semantics, while the data behind each path is fetched live from an
// external source that can be slow, hang, or change between calls.
//
// The pieces, leaves first: Pattern (structural path matching with
// variable capture), Table (most-specific-first route resolution),
// ContentOps (a read/write accessor pair turned into a full operation
// set over a cached byte buffer), HandleCache (the open-handle table),
// and Dispatcher/Server (request decode, timeout enforcement, response
// framing over newline-delimited JSON).
package routefs

import (
	"context"
	"sort"
)

// HandlerFunc executes one filesystem operation against a resolved
// request. It returns the success fields of the response, or an error
// (an Errno for a deliberate failure code, anything else for a defect
// that the dispatcher reduces to EIO).
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Route pairs a path pattern with its operation handlers, keyed by
// operation name ("getattr", "open", "read", ...). Routes are built
// once at startup and never mutated afterward; to change the route set,
// build a new Table and swap it into the dispatcher wholesale.
type Route struct {
	Pattern *Pattern
	Ops     map[string]HandlerFunc
}

// NewRoute parses the pattern and pairs it with the given handlers.
func NewRoute(pattern string, ops map[string]HandlerFunc) (*Route, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Route{Pattern: p, Ops: ops}, nil
}

// Table is an immutable, resolution-ready route set. Registration
// (NewTable) is a distinct phase from resolution: the routes are sorted
// by specificity exactly once, so Resolve never re-sorts.
type Table struct {
	routes []*Route
}

// NewTable builds a table from the given routes, ordered ascending by
// variable count so that a literal path always beats a same-shaped
// pattern with variables. The sort is stable: among equally specific
// candidates, registration order breaks the tie.
func NewTable(routes ...*Route) *Table {
	t := &Table{routes: make([]*Route, len(routes))}
	copy(t.routes, routes)
	sort.SliceStable(t.routes, func(i, j int) bool {
		return t.routes[i].Pattern.VarCount() < t.routes[j].Pattern.VarCount()
	})
	return t
}

// Resolve returns the most specific route matching the path, with its
// variable bindings, or ENOENT if no route matches.
func (t *Table) Resolve(concrete string) (*Route, Bindings, error) {
	for _, r := range t.routes {
		if bindings, ok := r.Pattern.Match(concrete); ok {
			return r, bindings, nil
		}
	}
	return nil, nil, ENOENT
}

// Len returns the number of registered routes.
func (t *Table) Len() int { return len(t.routes) }
