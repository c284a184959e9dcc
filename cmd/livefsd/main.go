// livefsd serves live application state as a synthetic filesystem.
//
// A host process speaking the kernel filesystem protocol (FUSE or
// similar) forwards each operation as one newline-delimited JSON
// envelope and relays the response back to the kernel.
//
// Serve over TCP:
//
//	livefsd -addr :7077
//
// Or over stdin/stdout when the host spawns livefsd directly:
//
//	livefsd -stdio
//
// Poke at it by hand:
//
//	echo '{"id":1,"op":"getattr","path":"/docs.json"}' | livefsd -stdio
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/livefs/livefs/internal/config"
	"github.com/livefs/livefs/internal/docfs"
	"github.com/livefs/livefs/internal/docstore"
	"github.com/livefs/livefs/internal/routefs"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "TCP address to listen on (overrides config)")
	timeout := flag.Duration("timeout", 0, "Per-request timeout (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	stdio := flag.Bool("stdio", false, "Serve a single session over stdin/stdout instead of TCP")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", "err", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *timeout > 0 {
		cfg.Timeout = config.Duration(*timeout)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg.LogLevel)

	store := docstore.NewStore()
	cache := routefs.NewHandleCache()
	table := routefs.NewTable(docfs.Routes(store, cache)...)
	dispatcher := routefs.NewDispatcher(table, time.Duration(cfg.Timeout), logger)
	server := routefs.NewServer(dispatcher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *stdio {
		// The host owns the pipe; EOF on stdin ends the session.
		server.ServeConn(ctx, stdioPipe{})
		return
	}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatal("listen failed", "addr", cfg.Listen, "err", err)
	}
	logger.Info("livefsd listening", "addr", listener.Addr().String(), "timeout", time.Duration(cfg.Timeout))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
		listener.Close()
	}()

	if err := server.Serve(ctx, listener); err != nil && ctx.Err() == nil {
		log.Fatal("server error", "err", err)
	}
}

// newLogger builds an slog.Logger over a charmbracelet handler. Logs
// go to stderr: in stdio mode the protocol owns stdout.
func newLogger(level string) *slog.Logger {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           parsed,
		ReportTimestamp: true,
		Prefix:          "livefsd",
	})
	return slog.New(handler)
}

// stdioPipe joins stdin and stdout into the bidirectional stream the
// server expects.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

var _ io.ReadWriter = stdioPipe{}
