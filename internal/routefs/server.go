package routefs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
)

// MaxMessageSize is the largest accepted wire envelope. Base64 inflates
// binary payloads by a third, so this comfortably fits the 128KiB
// writes kernels like to issue.
const MaxMessageSize = 1 << 20

// Server speaks newline-delimited JSON envelopes over a reliable,
// ordered byte stream. Each request is dispatched on its own goroutine:
// a handler suspended on a slow data source never blocks the server
// from accepting and starting later requests on the same connection.
type Server struct {
	dispatcher *Dispatcher
	log        *slog.Logger
}

// NewServer creates a server around the dispatcher.
func NewServer(d *Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dispatcher: d, log: logger}
}

// Serve accepts connections until the listener closes or the context
// is cancelled. A failed connection ends that connection only.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error("accept failed", "err", err)
			continue
		}
		go func() {
			defer conn.Close()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn runs the request loop over one bidirectional stream until
// it reaches EOF or fails. It returns after all in-flight requests
// have been answered.
func (s *Server) ServeConn(ctx context.Context, rw io.ReadWriter) {
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 64*1024), MaxMessageSize)

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)
	defer wg.Wait()

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.dispatcher.Dispatch(ctx, line)
			writeMu.Lock()
			defer writeMu.Unlock()
			if _, err := rw.Write(append(resp, '\n')); err != nil {
				s.log.Error("write failed", "err", err)
			}
		}()
	}
	if err := scanner.Err(); err != nil {
		s.log.Error("read failed", "err", err)
	}
}
