package core

import (
	"context"
	"fmt"
	"sort"

	"goftpd/config"
	"goftpd/internal/command"
	"goftpd/internal/lockout"
	"goftpd/internal/metrics"
	"goftpd/internal/session"
	"goftpd/internal/transport"
	"goftpd/util"
)

// Build constructs the appropriate Mode from the configuration served
// by src.  This is the single dispatch point between the CLI and the
// server.
func Build(src *config.Source, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	cfg := src.Current()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DryRun {
		return &CheckMode{Config: cfg, Logger: logger}, nil
	}
	return buildListen(src, logger, m), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildListen(src *config.Source, logger *util.Logger, m *metrics.Collector) *ListenMode {
	cfg := src.Current()
	if m == nil {
		m = metrics.New()
	}

	tracker := lockout.New(lockout.Config{
		MaxFailures: cfg.MaxLoginFailures,
		Window:      cfg.FailureWindow,
		Duration:    cfg.LockoutDuration,
	})

	return &ListenMode{
		Address:     cfg.Listen,
		MetricsAddr: cfg.MetricsAddr,
		Source:      src,
		Interpreters: command.Factory(command.Options{
			Accounts: func() command.Accounts { return command.Users(src.Current().Users) },
			Metrics:  m,
			Logger:   logger,
		}),
		Tracker:   tracker,
		Metrics:   m,
		Logger:    logger,
		Transport: &transport.TCPListener{NoDelay: true},
	}
}

// CheckMode validates the configuration and reports what a real run
// would use, without opening any socket.
type CheckMode struct {
	Config *config.Config
	Logger *util.Logger
}

// Run prints the effective configuration.
func (c *CheckMode) Run(context.Context) error {
	if _, err := session.LookupEncoding(c.Config.Encoding); err != nil {
		return fmt.Errorf("encoding %q: %w", c.Config.Encoding, err)
	}

	users := make([]string, 0, len(c.Config.Users))
	for name := range c.Config.Users {
		users = append(users, name)
	}
	sort.Strings(users)

	c.Logger.Info("configuration OK")
	c.Logger.Info("  listen        %s", c.Config.Listen)
	c.Logger.Info("  idle timeout  %s", c.Config.IdleTimeout)
	c.Logger.Info("  buffer size   %d bytes", c.Config.BufferSize)
	c.Logger.Info("  encoding      %s", c.Config.Encoding)
	c.Logger.Info("  lockout       %d failures in %s → %s", c.Config.MaxLoginFailures,
		c.Config.FailureWindow, c.Config.LockoutDuration)
	if c.Config.MetricsAddr != "" {
		c.Logger.Info("  metrics       %s", c.Config.MetricsAddr)
	}
	c.Logger.Info("  users         %v", users)
	return nil
}
