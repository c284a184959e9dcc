package docfs

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/livefs/livefs/internal/docstore"
	"github.com/livefs/livefs/internal/routefs"
)

func newFixture(t *testing.T) (*docstore.Store, *routefs.Dispatcher) {
	t.Helper()
	store := docstore.NewStore()
	cache := routefs.NewHandleCache()
	table := routefs.NewTable(Routes(store, cache)...)
	return store, routefs.NewDispatcher(table, 0, nil)
}

func call(t *testing.T, d *routefs.Dispatcher, format string, args ...any) gjson.Result {
	t.Helper()
	raw := fmt.Sprintf(format, args...)
	resp := gjson.ParseBytes(d.Dispatch(context.Background(), []byte(raw)))
	if !resp.Get("id").Exists() {
		t.Fatalf("malformed response for %s: %s", raw, resp.Raw)
	}
	return resp
}

func ok(t *testing.T, resp gjson.Result) gjson.Result {
	t.Helper()
	if resp.Get("error").Exists() {
		t.Fatalf("unexpected error response: %s", resp.Raw)
	}
	return resp
}

func TestIndexRoute(t *testing.T) {
	store, d := newFixture(t)
	store.Create("alpha")

	resp := ok(t, call(t, d, `{"id":1,"op":"getattr","path":"/docs.json"}`))
	if got := resp.Get("st_mode").Uint(); got != uint64(routefs.ModeRegular|0o444) {
		t.Errorf("st_mode = %o, want read-only regular file", got)
	}

	fh := ok(t, call(t, d, `{"id":2,"op":"open","path":"/docs.json"}`)).Get("fh").Uint()
	read := ok(t, call(t, d, `{"id":3,"op":"read","path":"/docs.json","fh":%d,"offset":0,"size":65536}`, fh))
	data, err := base64.StdEncoding.DecodeString(read.Get("buf").String())
	if err != nil {
		t.Fatalf("decoding buf: %v", err)
	}
	index := gjson.ParseBytes(data)
	if len(index.Array()) != 1 || index.Get("0.title").String() != "alpha" {
		t.Errorf("index = %s", data)
	}
	ok(t, call(t, d, `{"id":4,"op":"release","path":"/docs.json","fh":%d}`, fh))
}

func TestContentRouteReadWrite(t *testing.T) {
	store, d := newFixture(t)
	doc := store.Create("alpha")
	store.SetBody(doc.ID, "old body")

	fh := ok(t, call(t, d, `{"id":1,"op":"open","path":"/docs/by-id/%s/content.txt"}`, doc.ID)).Get("fh").Uint()

	buf := base64.StdEncoding.EncodeToString([]byte("new body"))
	write := ok(t, call(t, d, `{"id":2,"op":"write","path":"/docs/by-id/%s/content.txt","fh":%d,"offset":0,"buf":%q}`, doc.ID, fh, buf))
	if write.Get("size").Int() != 8 {
		t.Errorf("write size = %d, want 8", write.Get("size").Int())
	}

	got, _ := store.Get(doc.ID)
	if got.Body != "new body" {
		t.Errorf("store body = %q, want %q", got.Body, "new body")
	}
}

func TestContentRouteMissingDoc(t *testing.T) {
	_, d := newFixture(t)
	resp := call(t, d, `{"id":1,"op":"open","path":"/docs/by-id/999/content.txt"}`)
	if got := resp.Get("error").String(); got != "ENOENT" {
		t.Errorf("error = %q, want ENOENT", got)
	}
}

func TestTitleRouteTrimsNewline(t *testing.T) {
	store, d := newFixture(t)
	doc := store.Create("alpha")

	fh := ok(t, call(t, d, `{"id":1,"op":"open","path":"/docs/by-id/%s/title.txt"}`, doc.ID)).Get("fh").Uint()
	ok(t, call(t, d, `{"id":2,"op":"truncate","path":"/docs/by-id/%s/title.txt","size":0}`, doc.ID))

	buf := base64.StdEncoding.EncodeToString([]byte("beta\n"))
	ok(t, call(t, d, `{"id":3,"op":"write","path":"/docs/by-id/%s/title.txt","fh":%d,"offset":0,"buf":%q}`, doc.ID, fh, buf))

	got, _ := store.Get(doc.ID)
	if got.Title != "beta" {
		t.Errorf("title = %q, want %q", got.Title, "beta")
	}
}

func TestDirectoryRoutes(t *testing.T) {
	store, d := newFixture(t)
	a := store.Create("a")
	b := store.Create("b")

	resp := ok(t, call(t, d, `{"id":1,"op":"readdir","path":"/docs/by-id"}`))
	var names []string
	for _, e := range resp.Get("entries").Array() {
		names = append(names, e.String())
	}
	if diff := cmp.Diff([]string{a.ID, b.ID}, names); diff != "" {
		t.Errorf("readdir /docs/by-id mismatch (-want +got):\n%s", diff)
	}

	resp = ok(t, call(t, d, `{"id":2,"op":"getattr","path":"/docs/by-id/%s"}`, a.ID))
	if resp.Get("st_mode").Uint()&uint64(routefs.ModeDir) == 0 {
		t.Errorf("st_mode = %o, want directory bit", resp.Get("st_mode").Uint())
	}

	resp = call(t, d, `{"id":3,"op":"readdir","path":"/docs/by-id/999"}`)
	if got := resp.Get("error").String(); got != "ENOENT" {
		t.Errorf("readdir of missing doc: error = %q, want ENOENT", got)
	}

	resp = ok(t, call(t, d, `{"id":4,"op":"readdir","path":"/"}`))
	if len(resp.Get("entries").Array()) != 3 {
		t.Errorf("root entries = %s", resp.Get("entries").Raw)
	}
}

func TestLastFocusedLink(t *testing.T) {
	store, d := newFixture(t)

	resp := call(t, d, `{"id":1,"op":"readlink","path":"/docs/last-focused"}`)
	if got := resp.Get("error").String(); got != "ENOENT" {
		t.Errorf("readlink with no focus: error = %q, want ENOENT", got)
	}

	doc := store.Create("a")
	resp = ok(t, call(t, d, `{"id":2,"op":"readlink","path":"/docs/last-focused"}`))
	if got := resp.Get("target").String(); got != "by-id/"+doc.ID {
		t.Errorf("target = %q, want %q", got, "by-id/"+doc.ID)
	}

	resp = ok(t, call(t, d, `{"id":3,"op":"getattr","path":"/docs/last-focused"}`))
	if resp.Get("st_mode").Uint()&uint64(routefs.ModeSymlink) != uint64(routefs.ModeSymlink) {
		t.Errorf("st_mode = %o, want symlink bits", resp.Get("st_mode").Uint())
	}
}

func TestCtlCommands(t *testing.T) {
	store, d := newFixture(t)

	// Cheap stat: constant, zero size, no banner rendering.
	resp := ok(t, call(t, d, `{"id":1,"op":"getattr","path":"/ctl"}`))
	if resp.Get("st_size").Int() != 0 {
		t.Errorf("ctl st_size = %d, want 0", resp.Get("st_size").Int())
	}

	fh := ok(t, call(t, d, `{"id":2,"op":"open","path":"/ctl"}`)).Get("fh").Uint()
	ok(t, call(t, d, `{"id":3,"op":"truncate","path":"/ctl","size":0}`))

	buf := base64.StdEncoding.EncodeToString([]byte("new my note\n"))
	ok(t, call(t, d, `{"id":4,"op":"write","path":"/ctl","fh":%d,"offset":0,"buf":%q}`, fh, buf))

	docs := store.List()
	if len(docs) != 1 || docs[0].Title != "my note" {
		t.Fatalf("docs after ctl new = %+v", docs)
	}

	// Remove through a fresh handle.
	fh2 := ok(t, call(t, d, `{"id":5,"op":"open","path":"/ctl"}`)).Get("fh").Uint()
	ok(t, call(t, d, `{"id":6,"op":"truncate","path":"/ctl","size":0}`))
	buf = base64.StdEncoding.EncodeToString([]byte("remove " + docs[0].ID + "\n"))
	ok(t, call(t, d, `{"id":7,"op":"write","path":"/ctl","fh":%d,"offset":0,"buf":%q}`, fh2, buf))

	if len(store.List()) != 0 {
		t.Errorf("docs after ctl remove = %+v", store.List())
	}

	// Unknown commands fail as EIO.
	buf = base64.StdEncoding.EncodeToString([]byte("explode\n"))
	resp = call(t, d, `{"id":8,"op":"write","path":"/ctl","fh":%d,"offset":0,"buf":%q}`, fh2, buf)
	if got := resp.Get("error").String(); got != "EIO" {
		t.Errorf("unknown ctl command: error = %q, want EIO", got)
	}
}
