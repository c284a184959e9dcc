// Package docfs defines the route set that exposes a docstore as a
// synthetic filesystem: a JSON index, per-document content and title
// files, directory listings, a last-focused symlink and a control file.
package docfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/livefs/livefs/internal/docstore"
	"github.com/livefs/livefs/internal/routefs"
)

// Routes builds the document routes over the store. Content-backed
// files share the given handle cache.
func Routes(store *docstore.Store, cache *routefs.HandleCache) []*routefs.Route {
	return []*routefs.Route{
		route("/", dirOps(func(ctx context.Context, req *routefs.Request) ([]string, error) {
			return []string{"docs", "docs.json", "ctl"}, nil
		})),

		route("/docs.json", routefs.ContentOps(cache, indexRead(store), nil)),

		route("/docs", dirOps(func(ctx context.Context, req *routefs.Request) ([]string, error) {
			return []string{"by-id", "last-focused"}, nil
		})),

		route("/docs/by-id", dirOps(func(ctx context.Context, req *routefs.Request) ([]string, error) {
			docs := store.List()
			names := make([]string, len(docs))
			for i, doc := range docs {
				names[i] = doc.ID
			}
			return names, nil
		})),

		route("/docs/by-id/:id", dirOps(func(ctx context.Context, req *routefs.Request) ([]string, error) {
			if _, ok := store.Get(req.Bindings["id"]); !ok {
				return nil, routefs.ENOENT
			}
			return []string{"content.txt", "title.txt"}, nil
		})),

		route("/docs/by-id/:id/content.txt", routefs.ContentOps(cache,
			fieldRead(store, func(doc docstore.Document) string { return doc.Body }),
			fieldWrite(store.SetBody),
		)),

		route("/docs/by-id/:id/title.txt", routefs.ContentOps(cache,
			fieldRead(store, func(doc docstore.Document) string { return doc.Title + "\n" }),
			fieldWrite(func(id, contents string) bool {
				return store.SetTitle(id, strings.TrimRight(contents, "\n"))
			}),
		)),

		route("/docs/last-focused", linkOps(func(ctx context.Context, req *routefs.Request) (string, error) {
			id, ok := store.LastFocused()
			if !ok {
				return "", routefs.ENOENT
			}
			return "by-id/" + id, nil
		})),

		route("/ctl", ctlOps(store, cache)),
	}
}

func route(pattern string, ops map[string]routefs.HandlerFunc) *routefs.Route {
	r, err := routefs.NewRoute(pattern, ops)
	if err != nil {
		panic(err) // patterns above are static
	}
	return r
}

// indexRead exposes the whole store as a JSON index.
func indexRead(store *docstore.Store) routefs.ReadFunc {
	return func(ctx context.Context, req *routefs.Request) (string, bool, error) {
		out, err := store.IndexJSON()
		if err != nil {
			return "", false, err
		}
		return out, true, nil
	}
}

// fieldRead reads one field of the document named by the :id binding.
func fieldRead(store *docstore.Store, field func(docstore.Document) string) routefs.ReadFunc {
	return func(ctx context.Context, req *routefs.Request) (string, bool, error) {
		doc, ok := store.Get(req.Bindings["id"])
		if !ok {
			return "", false, nil
		}
		return field(doc), true, nil
	}
}

// fieldWrite stores the full new contents into the document named by
// the :id binding.
func fieldWrite(set func(id, contents string) bool) routefs.WriteFunc {
	return func(ctx context.Context, req *routefs.Request, contents string) error {
		if !set(req.Bindings["id"], contents) {
			return routefs.ENOENT
		}
		return nil
	}
}

// dirOps builds the operation set for a listing-only directory.
func dirOps(entries func(ctx context.Context, req *routefs.Request) ([]string, error)) map[string]routefs.HandlerFunc {
	return map[string]routefs.HandlerFunc{
		"getattr": func(ctx context.Context, req *routefs.Request) (*routefs.Response, error) {
			if _, err := entries(ctx, req); err != nil {
				return nil, err
			}
			return &routefs.Response{Attr: &routefs.Attr{Mode: routefs.ModeDir | 0o555, Nlink: 2}}, nil
		},
		"readdir": func(ctx context.Context, req *routefs.Request) (*routefs.Response, error) {
			names, err := entries(ctx, req)
			if err != nil {
				return nil, err
			}
			return &routefs.Response{Entries: names}, nil
		},
	}
}

// linkOps builds the operation set for a symlink.
func linkOps(target func(ctx context.Context, req *routefs.Request) (string, error)) map[string]routefs.HandlerFunc {
	return map[string]routefs.HandlerFunc{
		"getattr": func(ctx context.Context, req *routefs.Request) (*routefs.Response, error) {
			to, err := target(ctx, req)
			if err != nil {
				return nil, err
			}
			return &routefs.Response{Attr: &routefs.Attr{Mode: routefs.ModeSymlink | 0o777, Nlink: 1, Size: int64(len(to))}}, nil
		},
		"readlink": func(ctx context.Context, req *routefs.Request) (*routefs.Response, error) {
			to, err := target(ctx, req)
			if err != nil {
				return nil, err
			}
			return &routefs.Response{Target: to}, nil
		},
	}
}

// ctlOps is the write-only control file: "new <title>" creates a
// document, "remove <id>" deletes one. Reads yield a usage banner. The
// getattr handler is overridden with a constant cheap stat so kernel
// probing never renders the banner.
func ctlOps(store *docstore.Store, cache *routefs.HandleCache) map[string]routefs.HandlerFunc {
	read := func(ctx context.Context, req *routefs.Request) (string, bool, error) {
		return "commands: new <title> | remove <id>\n", true, nil
	}
	write := func(ctx context.Context, req *routefs.Request, contents string) error {
		for _, line := range strings.Split(contents, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "commands:") {
				continue
			}
			if err := runCommand(store, line); err != nil {
				return err
			}
		}
		return nil
	}

	ops := routefs.ContentOps(cache, read, write)
	ops["getattr"] = func(ctx context.Context, req *routefs.Request) (*routefs.Response, error) {
		return &routefs.Response{Attr: &routefs.Attr{Mode: routefs.ModeRegular | 0o644, Nlink: 1}}, nil
	}
	return ops
}

func runCommand(store *docstore.Store, line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "new":
		if rest == "" {
			return fmt.Errorf("new: missing title")
		}
		store.Create(rest)
		return nil
	case "remove":
		if !store.Remove(strings.TrimSpace(rest)) {
			return routefs.ENOENT
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}
