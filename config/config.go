// Package config defines the runtime configuration for goftpd and the
// layers it is assembled from: defaults, a config file, environment
// variables and command-line flags.
package config

import (
	"fmt"
	"maps"
	"net"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	ferrors "goftpd/internal/errors"
)

// Config holds every tuneable of the server.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	Listen      string // control-connection address
	MetricsAddr string // Prometheus endpoint; empty disables it

	// ── Session ──────────────────────────────────────────────────────
	IdleTimeout time.Duration
	BufferSize  int
	Encoding    string

	// ── Login lockout ────────────────────────────────────────────────
	MaxLoginFailures int
	FailureWindow    time.Duration
	LockoutDuration  time.Duration

	// ── Accounts ─────────────────────────────────────────────────────
	Users map[string]string // user name → bcrypt hash

	// ── Output ───────────────────────────────────────────────────────
	Verbose   int
	LogFile   string
	LogFormat string

	ConfigFile string
	DryRun     bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Listen:           DefaultListen,
		IdleTimeout:      DefaultIdleTimeout,
		BufferSize:       DefaultBufferSize,
		Encoding:         DefaultEncoding,
		MaxLoginFailures: DefaultMaxLoginFailures,
		FailureWindow:    DefaultFailureWindow,
		LockoutDuration:  DefaultLockoutDuration,
		Users:            map[string]string{},
		Verbose:          DefaultVerbose,
		LogFormat:        DefaultLogFormat,
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Users = maps.Clone(c.Users)
	if out.Users == nil {
		out.Users = map[string]string{}
	}
	return &out
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// The returned error is a *errors.ConfigError naming the flag.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return &ferrors.ConfigError{
			Field:   "listen",
			Message: "address is required",
			Hint:    "use host:port, for example :2121",
		}
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return &ferrors.ConfigError{
			Field:   "listen",
			Value:   c.Listen,
			Message: err.Error(),
			Hint:    "use host:port, for example 0.0.0.0:2121",
		}
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return &ferrors.ConfigError{Field: "metrics-addr", Value: c.MetricsAddr, Message: err.Error()}
		}
	}
	if c.IdleTimeout < time.Second {
		return &ferrors.ConfigError{
			Field:   "idle-timeout",
			Value:   int(c.IdleTimeout / time.Second),
			Message: "must be at least one second",
			Hint:    "use a number of seconds such as 300",
		}
	}
	if c.BufferSize < MinBufferSize {
		return &ferrors.ConfigError{
			Field:   "buffer-size",
			Value:   c.BufferSize,
			Message: fmt.Sprintf("must be at least %d bytes", MinBufferSize),
		}
	}
	if _, err := htmlindex.Get(c.Encoding); c.Encoding != "" && err != nil {
		return &ferrors.ConfigError{
			Field:   "encoding",
			Value:   c.Encoding,
			Message: "unknown character set",
			Hint:    "try utf-8, latin1 or windows-1251",
		}
	}
	if c.MaxLoginFailures < 1 {
		return &ferrors.ConfigError{Field: "max-failures", Value: c.MaxLoginFailures, Message: "must be positive"}
	}
	if c.LockoutDuration <= 0 {
		return &ferrors.ConfigError{Field: "lockout", Value: int(c.LockoutDuration / time.Second), Message: "must be positive"}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return &ferrors.ConfigError{
			Field:   "log-format",
			Value:   c.LogFormat,
			Message: "unsupported format",
			Hint:    "use console or json",
		}
	}
	for name, hash := range c.Users {
		if !strings.HasPrefix(hash, "$2") {
			return &ferrors.ConfigError{
				Field:   "users." + name,
				Message: "password must be a bcrypt hash",
				Hint:    "generate one with: goftpd passwd",
			}
		}
	}
	return nil
}
