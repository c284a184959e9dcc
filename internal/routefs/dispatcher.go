package routefs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds how long a handler may run before the request
// is answered with ETIMEDOUT.
const DefaultTimeout = 1 * time.Second

// Dispatcher resolves decoded requests to route handlers and turns
// their results into framed responses. Each request is handled
// independently; no cross-request ordering is guaranteed.
type Dispatcher struct {
	table   atomic.Pointer[Table]
	timeout time.Duration
	log     *slog.Logger
}

// NewDispatcher creates a dispatcher over the given route table. A
// zero timeout means DefaultTimeout.
func NewDispatcher(table *Table, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{timeout: timeout, log: logger}
	d.table.Store(table)
	return d
}

// SetTable hot-replaces the route set wholesale. In-flight requests
// keep the table they resolved against.
func (d *Dispatcher) SetTable(table *Table) {
	d.table.Store(table)
}

// Dispatch executes one request and returns exactly one framed
// response: either the handler's success fields or an errno. If the
// handler outlives the timeout, the ETIMEDOUT response wins and the
// handler's eventual result is discarded; the underlying work is left
// to finish on its own rather than being cancelled mid-flight.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) []byte {
	req, err := DecodeRequest(raw)
	if err != nil {
		d.log.Warn("undecodable request", "err", err)
		return EncodeError(req.ID, req.Op, EIO)
	}

	if IsSidecarPath(req.Path) {
		return EncodeError(req.ID, req.Op, ENOTSUP)
	}

	route, bindings, err := d.table.Load().Resolve(req.Path)
	if err != nil {
		return EncodeError(req.ID, req.Op, AsErrno(err))
	}
	req.Bindings = bindings

	handler, ok := route.Ops[req.Op]
	if !ok {
		return EncodeError(req.ID, req.Op, ENOTSUP)
	}

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1) // buffered: a late handler must not leak
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("handler panic", "op", req.Op, "path", req.Path, "panic", r)
				done <- result{nil, EIO}
			}
		}()
		resp, err := handler(ctx, req)
		done <- result{resp, err}
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			d.log.Debug("request failed", "id", req.ID, "op", req.Op, "path", req.Path, "err", res.err)
			return EncodeError(req.ID, req.Op, AsErrno(res.err))
		}
		return EncodeResponse(req.ID, req.Op, res.resp)
	case <-timer.C:
		d.log.Warn("request timed out", "id", req.ID, "op", req.Op, "path", req.Path, "timeout", d.timeout)
		return EncodeError(req.ID, req.Op, ETIMEDOUT)
	case <-ctx.Done():
		return EncodeError(req.ID, req.Op, EINTR)
	}
}
