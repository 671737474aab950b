package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"

	"goftpd/config"
	ferrors "goftpd/internal/errors"
	"goftpd/internal/lockout"
	"goftpd/internal/metrics"
	"goftpd/internal/retry"
	"goftpd/internal/session"
	"goftpd/internal/transport"
	"goftpd/util"
)

// pruneInterval is how often expired lockout entries are dropped.
const pruneInterval = time.Minute

// ListenMode accepts control connections and runs a Session on each
// one until the context is cancelled.
type ListenMode struct {
	Address      string
	MetricsAddr  string // empty disables the Prometheus endpoint
	Source       *config.Source
	Interpreters session.InterpreterFactory
	Tracker      *lockout.Ledger
	Metrics      *metrics.Collector
	Logger       *util.Logger
	Backoff      *retry.Backoff
	Transport    transport.Listener

	// bound receives the listener address once accepting starts.
	// Tests use it to avoid guessing ports.
	bound chan net.Addr

	nextID   atomic.Uint64
	sessions *registry
}

// Run listens on Address and serves sessions until ctx is cancelled,
// then stops every live session and returns.
func (m *ListenMode) Run(ctx context.Context) error {
	if m.Transport == nil {
		m.Transport = &transport.TCPListener{}
	}
	ln, err := m.Transport.Listen(ctx, m.Address)
	if err != nil {
		return ferrors.Wrap("listen", m.Address, err)
	}
	if m.sessions == nil {
		m.sessions = newRegistry()
	}
	if m.Backoff == nil {
		m.Backoff = retry.AcceptBackoff()
	}

	m.Logger.Info("listening on %s", ln.Addr())
	if m.bound != nil {
		m.bound <- ln.Addr()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Shut the listener down when the context expires.
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error { return m.acceptLoop(gctx, ln) })
	g.Go(func() error { return m.pruneLockouts(gctx) })
	if m.MetricsAddr != "" {
		g.Go(func() error { return m.serveMetrics(gctx) })
	}

	err = g.Wait()
	if util.IsHarmless(err) {
		err = nil
	}

	n := m.sessions.Len()
	m.sessions.StopAll()
	m.Logger.Info("server stopped (%d sessions closed)", n)
	return err
}

// ── Accept loop ──────────────────────────────────────────────────────

func (m *ListenMode) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		var conn net.Conn
		err := m.Backoff.Do(ctx, func(attempt int) error {
			c, err := ln.Accept()
			if err == nil {
				conn = c
				return nil
			}
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			nerr := ferrors.Wrap("accept", ln.Addr().String(), err)
			if !ferrors.IsRetryable(nerr) {
				return retry.Permanent(nerr)
			}
			m.Logger.Warn("%v (attempt %d)", nerr, attempt)
			m.Metrics.RecordError(nerr.Error())
			return nerr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		m.serve(conn)
	}
}

func (m *ListenMode) serve(conn net.Conn) {
	cfg := m.Source.Current()
	enc, err := session.LookupEncoding(cfg.Encoding)
	if err != nil {
		m.Logger.Warn("encoding %q: %v; using utf-8", cfg.Encoding, err)
		enc = unicode.UTF8
	}

	id := m.nextID.Add(1)
	m.Logger.Verbose("connection %d from %s", id, conn.RemoteAddr())

	s := session.New(id, session.Options{
		Settings:       m.sessionSettings,
		NewInterpreter: m.Interpreters,
		Notifier:       session.NotifierFunc(m.notify),
		Logger:         m.Logger,
		Metrics:        m.Metrics,
		OnClosed:       m.sessions.Remove,
	})
	m.sessions.Add(s)

	var tracker lockout.Tracker
	if m.Tracker != nil {
		tracker = m.Tracker
	}
	s.Start(conn, enc, tracker)
}

func (m *ListenMode) sessionSettings() session.Settings {
	cfg := m.Source.Current()
	return session.Settings{IdleTimeout: cfg.IdleTimeout, BufferSize: cfg.BufferSize}
}

func (m *ListenMode) notify(id uint64, message string) {
	m.Logger.With("session", id).Info("%s", message)
}

// ── Supporting services ──────────────────────────────────────────────

func (m *ListenMode) pruneLockouts(ctx context.Context) error {
	if m.Tracker == nil {
		return nil
	}
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := m.Tracker.Prune(); n > 0 {
				m.Logger.Debug("pruned %d lockout entries", n)
			}
		}
	}
}

func (m *ListenMode) serveMetrics(ctx context.Context) error {
	srv := &http.Server{
		Addr:              m.MetricsAddr,
		Handler:           m.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	m.Logger.Info("metrics on http://%s/metrics", m.MetricsAddr)

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
