// Package lockout keeps failed-login bookkeeping per remote host and
// decides when a host is blocked.
//
// Sessions receive a Tracker at start and hand it to their command
// interpreter; the tracker itself is shared by every session of a
// server.
package lockout

import (
	"sync"
	"time"
)

// Tracker is the lockout collaborator seen by command interpreters.
type Tracker interface {
	// Fail records a failed login for key and reports whether key is
	// now blocked.
	Fail(key string) bool
	// Succeed clears the failure history for key.
	Succeed(key string)
	// Blocked reports whether key is currently locked out.
	Blocked(key string) bool
}

// Config tunes a Ledger.
type Config struct {
	// MaxFailures within Window before a key is blocked (default 5).
	MaxFailures int
	// Window is the span over which failures are counted (default 10m).
	Window time.Duration
	// Duration is how long a key stays blocked (default 15m).
	Duration time.Duration
}

type entry struct {
	failures     int
	firstFailure time.Time
	blockedUntil time.Time
}

// Ledger is the in-memory Tracker.  All methods are safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration
	block   time.Duration
	now     func() time.Time
}

var _ Tracker = (*Ledger)(nil)

// New creates a Ledger from cfg, filling in defaults.
func New(cfg Config) *Ledger {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 15 * time.Minute
	}
	return &Ledger{
		entries: make(map[string]*entry),
		max:     cfg.MaxFailures,
		window:  cfg.Window,
		block:   cfg.Duration,
		now:     time.Now,
	}
}

// Fail implements [Tracker].
func (l *Ledger) Fail(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if ok && now.Before(e.blockedUntil) {
		return true
	}
	if !ok || now.Sub(e.firstFailure) > l.window {
		e = &entry{firstFailure: now}
		l.entries[key] = e
	}

	e.failures++
	if e.failures >= l.max {
		e.blockedUntil = now.Add(l.block)
		return true
	}
	return false
}

// Succeed implements [Tracker].
func (l *Ledger) Succeed(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Blocked implements [Tracker].
func (l *Ledger) Blocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return false
	}
	return l.now().Before(e.blockedUntil)
}

// Prune drops entries whose window and block have both expired and
// returns how many were removed.
func (l *Ledger) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for k, e := range l.entries {
		if now.Sub(e.firstFailure) > l.window && !now.Before(e.blockedUntil) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
