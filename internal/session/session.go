// Package session runs the control connection of a single client.
//
// A Session owns one connection and two workers.  The reader receives
// bytes, frames them into command lines and hands each line to the
// command interpreter in arrival order.  The watchdog watches the
// activity clock and ends the session once the client has been idle
// longer than the configured limit, unless a data transfer is running.
//
// Stop cancels both workers, waits for the reader to finish and
// releases the connection.  The owner learns about the end of a
// session exactly once, through Options.OnClosed.
package session

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"goftpd/internal/lockout"
	"goftpd/internal/metrics"
	"goftpd/util"
)

// Interpreter executes command lines for one session.
type Interpreter interface {
	// Process executes a single command line.  Returning
	// errors.ErrSessionEnd or errors.ErrUserBlocked ends the session.
	Process(line string) error

	// DataTransferActive reports whether a data-channel transfer is in
	// progress.  The idle policy never fires while it returns true.
	DataTransferActive() bool
}

// Greeter is implemented by interpreters that send a banner before the
// first command is read.
type Greeter interface {
	Greet() error
}

// InterpreterFactory builds the interpreter for a freshly started
// session.  Replies are written to conn using enc.
type InterpreterFactory func(id uint64, conn net.Conn, enc encoding.Encoding, tracker lockout.Tracker) Interpreter

// Notifier receives human-readable notices about a session.
type Notifier interface {
	Notify(id uint64, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id uint64, message string)

func (f NotifierFunc) Notify(id uint64, message string) { f(id, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(uint64, string) {}

// Settings are the tunables a session reads once, at Start.
type Settings struct {
	// IdleTimeout is how long a client may stay silent.  Zero disables
	// the idle policy.
	IdleTimeout time.Duration

	// BufferSize is the receive buffer size in bytes.
	BufferSize int
}

// Options configure a Session.
type Options struct {
	// Settings is consulted once when the session starts, so a config
	// reload affects new sessions only.
	Settings       func() Settings
	NewInterpreter InterpreterFactory
	Notifier       Notifier
	Logger         *util.Logger
	Metrics        *metrics.Collector

	// OnClosed runs exactly once, after both workers have exited and
	// the connection has been closed.
	OnClosed func(*Session)
}

// noticeWriteTimeout bounds the write of the idle notice so a stalled
// peer cannot hold the watchdog.
const noticeWriteTimeout = 5 * time.Second

// defaultIdleTimeout applies when Options.Settings is nil.
const defaultIdleTimeout = 300 * time.Second

// aLongTimeAgo is a deadline that fails any pending Read or Write at
// once.
var aLongTimeAgo = time.Unix(1, 0)

// Session is one client control connection.
type Session struct {
	id     uint64
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool

	// Set by Start before the workers run, read-only afterwards.
	conn        net.Conn
	remote      string
	enc         encoding.Encoding
	interp      Interpreter
	idleTimeout time.Duration
	bufSize     int
	logger      *util.Logger
	clock       *activityClock
	unblockRead func() bool

	closeOnce    sync.Once
	readerDone   chan struct{}
	watchdogDone chan struct{}
	done         chan struct{}
}

// New creates a Session with the given identifier.  The session does
// nothing until Start is called.
func New(id uint64, opts Options) *Session {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = util.NewLogger(int(util.LogQuiet))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:           id,
		opts:         opts,
		ctx:          ctx,
		cancel:       cancel,
		readerDone:   make(chan struct{}),
		watchdogDone: make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start binds the session to conn and launches the reader and the
// watchdog.  A nil enc selects UTF-8.  Start panics if called twice.
func (s *Session) Start(conn net.Conn, enc encoding.Encoding, tracker lockout.Tracker) {
	if s.opts.NewInterpreter == nil {
		panic("session: Options.NewInterpreter is nil")
	}
	if enc == nil {
		enc = unicode.UTF8
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		panic("session: Start called twice")
	}

	settings := Settings{IdleTimeout: defaultIdleTimeout, BufferSize: util.DefaultBufSize}
	if s.opts.Settings != nil {
		settings = s.opts.Settings()
	}
	if settings.BufferSize <= 0 {
		settings.BufferSize = util.DefaultBufSize
	}

	s.conn = conn
	s.remote = remoteOf(conn)
	s.enc = enc
	s.idleTimeout = settings.IdleTimeout
	s.bufSize = settings.BufferSize
	s.logger = s.opts.Logger.With("session", s.id, "remote", s.remote)
	s.clock = newActivityClock(time.Now())
	s.interp = s.opts.NewInterpreter(s.id, conn, enc, tracker)
	s.unblockRead = context.AfterFunc(s.ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	s.started = true

	s.opts.Metrics.SessionOpened()
	s.logger.Verbose("session started (idle timeout %s, buffer %d bytes)", s.idleTimeout, s.bufSize)

	go s.readLoop()
	go s.watchdog()
}

// Stop cancels the session and blocks until the reader has exited,
// then closes the connection.  Stop may be called any number of times
// from any goroutine, including from inside OnClosed.
func (s *Session) Stop() {
	s.cancel()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}

	<-s.readerDone
	s.closeConn()
}

// Done is closed after OnClosed has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// ID returns the identifier given to New.
func (s *Session) ID() uint64 { return s.id }

// RemoteAddr returns the peer address, or "" before Start.
func (s *Session) RemoteAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// IdleTimeout returns the idle limit resolved at Start.
func (s *Session) IdleTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleTimeout
}

// Encoding returns the character set chosen at Start.
func (s *Session) Encoding() encoding.Encoding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc
}

func (s *Session) stopping() bool { return s.ctx.Err() != nil }

func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		s.unblockRead()
		if err := util.CloseQuietly(s.conn); err != nil {
			s.logger.Debug("close: %v", err)
		}
	})
}

// finish runs on the reader's way out.  The order matters: the socket
// is released before the watchdog is woken, and OnClosed only runs once
// the watchdog is gone.
func (s *Session) finish() {
	s.cancel()
	s.opts.Notifier.Notify(s.id, "Connection closed")
	s.closeConn()
	s.clock.terminate()
	close(s.readerDone)

	<-s.watchdogDone

	s.opts.Metrics.SessionClosed()
	s.logger.Verbose("session closed")
	if s.opts.OnClosed != nil {
		s.opts.OnClosed(s)
	}
	close(s.done)
}

func remoteOf(conn net.Conn) string {
	if conn == nil {
		return ""
	}
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
