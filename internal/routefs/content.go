package routefs

import "context"

// ReadFunc fetches the full current contents of a conceptual file. The
// bool result reports whether the file exists at all; a false return
// maps to ENOENT. The accessor may suspend on a slow external source -
// the dispatcher's timeout, not the accessor, bounds the request.
type ReadFunc func(ctx context.Context, req *Request) (string, bool, error)

// WriteFunc replaces the full contents of a conceptual file. It always
// receives the entire intended final contents, never a partial patch;
// routes needing incremental writes override the "write" handler
// instead of supplying a WriteFunc.
type WriteFunc func(ctx context.Context, req *Request, contents string) error

// ContentOps turns a (read, write) accessor pair into a complete
// operation set with standard single-blob file semantics: getattr
// re-fetches on every call, open fetches once into a new handle, read
// and write work against the handle's cached buffer, truncate
// re-fetches and invalidates every handle on the path, release drops
// the handle.
//
// write may be nil for a read-only file; the write and truncate
// handlers then fail with EPERM and getattr reports mode 0444.
//
// Every entry of the returned map may be replaced individually by the
// route author, e.g. to give an expensive source a cheap getattr.
func ContentOps(cache *HandleCache, read ReadFunc, write WriteFunc) map[string]HandlerFunc {
	ops := map[string]HandlerFunc{}

	ops["getattr"] = func(ctx context.Context, req *Request) (*Response, error) {
		contents, ok, err := read(ctx, req)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ENOENT
		}
		mode := ModeRegular | 0o444
		if write != nil {
			mode = ModeRegular | 0o644
		}
		return &Response{Attr: &Attr{Mode: mode, Nlink: 1, Size: int64(len(contents))}}, nil
	}

	ops["open"] = func(ctx context.Context, req *Request) (*Response, error) {
		// The single point where the data source is consulted per file
		// session; read and write never re-fetch.
		contents, ok, err := read(ctx, req)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ENOENT
		}
		fh := cache.Open(req.Path, []byte(contents))
		return &Response{FH: &fh}, nil
	}

	ops["read"] = func(ctx context.Context, req *Request) (*Response, error) {
		buf, err := cache.Buffer(req.FH)
		if err != nil {
			return nil, err
		}
		if req.Offset >= int64(len(buf)) {
			return &Response{Buf: []byte{}}, nil
		}
		end := req.Offset + req.Size
		if end > int64(len(buf)) {
			end = int64(len(buf))
		}
		return &Response{Buf: buf[req.Offset:end]}, nil
	}

	ops["write"] = func(ctx context.Context, req *Request) (*Response, error) {
		if write == nil {
			return nil, EPERM
		}
		buf, err := cache.Buffer(req.FH)
		if err != nil {
			return nil, err
		}
		end := req.Offset + int64(len(req.Buf))
		if end > int64(len(buf)) {
			grown := make([]byte, end)
			copy(grown, buf) // zero-fills any gap past the old length
			buf = grown
		}
		copy(buf[req.Offset:], req.Buf)
		if err := cache.Set(req.FH, buf); err != nil {
			return nil, err
		}
		// The accessor gets the entire buffer, not the written slice:
		// whole-resource replacement is the default contract.
		if err := write(ctx, req, string(buf)); err != nil {
			return nil, err
		}
		n := len(req.Buf)
		return &Response{Count: &n}, nil
	}

	ops["release"] = func(ctx context.Context, req *Request) (*Response, error) {
		if err := cache.Release(req.FH); err != nil {
			return nil, err
		}
		return &Response{}, nil
	}

	ops["truncate"] = func(ctx context.Context, req *Request) (*Response, error) {
		if write == nil {
			return nil, EPERM
		}
		// Re-fetch rather than trusting any one handle's cache, so a
		// truncate against a stale handle still starts from the
		// source's current contents. If the source changed since a
		// concurrent reader opened, the bases diverge; that ambiguity
		// is inherited from the contract, not resolved here.
		contents, ok, err := read(ctx, req)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ENOENT
		}
		buf := resize([]byte(contents), req.Size)
		cache.SetAllForPath(req.Path, buf)
		if err := write(ctx, req, string(buf)); err != nil {
			return nil, err
		}
		return &Response{}, nil
	}

	return ops
}

// resize shrinks by dropping trailing bytes or grows by zero-padding.
func resize(buf []byte, size int64) []byte {
	if size <= int64(len(buf)) {
		return buf[:size]
	}
	grown := make([]byte, size)
	copy(grown, buf)
	return grown
}
