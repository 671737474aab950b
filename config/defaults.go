package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultListen is the control-connection listen address.
	DefaultListen = ":2121"

	// DefaultIdleTimeout is how long a client may stay silent before the
	// server says goodbye.
	DefaultIdleTimeout = 300 * time.Second

	// DefaultBufferSize is the per-session receive buffer (64 KiB).
	DefaultBufferSize = 64 * 1024

	// DefaultEncoding is the control-channel character set.
	DefaultEncoding = "utf-8"

	// DefaultMaxLoginFailures is how many bad passwords a host may send
	// inside DefaultFailureWindow before it is locked out.
	DefaultMaxLoginFailures = 5

	// DefaultFailureWindow is the period over which failures add up.
	DefaultFailureWindow = 10 * time.Minute

	// DefaultLockoutDuration is how long a locked-out host stays blocked.
	DefaultLockoutDuration = 15 * time.Minute

	// DefaultLogFormat selects zap's console encoder.
	DefaultLogFormat = "console"

	// DefaultVerbose prints info and warnings.
	DefaultVerbose = 1

	// DefaultGracePeriod is how long shutdown waits for the metrics
	// server to drain.
	DefaultGracePeriod = 5 * time.Second

	// MinBufferSize keeps a single command line from being split
	// across every read.
	MinBufferSize = 512
)
