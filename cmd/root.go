// Package cmd wires up the CLI flags and dispatches to the server core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"goftpd/config"
	"goftpd/internal/core"
	"goftpd/internal/metrics"
	"goftpd/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X goftpd/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flagValues holds raw flag input.  Only flags the user actually set
// are applied on top of file and environment settings.
type flagValues struct {
	listen      string
	metricsAddr string
	idleTimeout int
	bufferSize  int
	encoding    string
	maxFailures int
	lockout     int
	logFile     string
	logFormat   string
	configFile  string
	verbose     int
	dryRun      bool
}

// Execute parses args and runs goftpd.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) > 0 && args[0] == "passwd" {
		return runPasswd(args[1:], stdin, stdout)
	}

	var fv flagValues
	fs := flag.NewFlagSet("goftpd", flag.ContinueOnError)

	// ── listener ─────────────────────────────────────────────────
	fs.StringVarP(&fv.listen, "listen", "l", config.DefaultListen, "Control connection address")
	fs.StringVar(&fv.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	// ── session ──────────────────────────────────────────────────
	fs.IntVarP(&fv.idleTimeout, "idle-timeout", "t", int(config.DefaultIdleTimeout/time.Second), "Idle timeout in seconds")
	fs.IntVar(&fv.bufferSize, "buffer-size", config.DefaultBufferSize, "Receive buffer size in bytes")
	fs.StringVarP(&fv.encoding, "encoding", "E", config.DefaultEncoding, "Control channel character set")

	// ── lockout ──────────────────────────────────────────────────
	fs.IntVar(&fv.maxFailures, "max-failures", config.DefaultMaxLoginFailures, "Failed logins before a host is locked out")
	fs.IntVar(&fv.lockout, "lockout", int(config.DefaultLockoutDuration/time.Second), "Lockout duration in seconds")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&fv.logFile, "log-file", "", "Also write logs to this file (rotated)")
	fs.StringVar(&fv.logFormat, "log-format", config.DefaultLogFormat, "Log format: console or json")
	fs.CountVarP(&fv.verbose, "verbose", "v", "Increase verbosity (repeatable)")

	fs.StringVarP(&fv.configFile, "config", "c", "", "Config file (YAML, TOML or JSON)")
	fs.BoolVar(&fv.dryRun, "dry-run", false, "Validate configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "goftpd %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	load := func() (*config.Config, error) { return loadConfig(fs, &fv) }
	cfg, err := load()
	if err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLoggerWithOptions(util.LogOptions{
		Verbosity: cfg.Verbose,
		Format:    cfg.LogFormat,
		File:      cfg.LogFile,
	})
	defer logger.Sync() //nolint:errcheck

	src := config.NewSource(cfg, load)
	if cfg.ConfigFile != "" && !cfg.DryRun {
		watchConfig(src, logger)
	}

	mode, err := core.Build(src, logger, metrics.New())
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// loadConfig assembles the configuration: defaults, then the config
// file, then environment variables, then explicitly set flags.
func loadConfig(fs *flag.FlagSet, fv *flagValues) (*config.Config, error) {
	cfg := config.Default()

	path := os.Getenv("GOFTPD_CONFIG")
	if fs.Changed("config") {
		path = fv.configFile
	}
	if path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	config.LoadFromEnv(cfg)
	cfg.ConfigFile = path

	if fs.Changed("listen") {
		cfg.Listen = fv.listen
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = fv.metricsAddr
	}
	if fs.Changed("idle-timeout") {
		cfg.IdleTimeout = time.Duration(fv.idleTimeout) * time.Second
	}
	if fs.Changed("buffer-size") {
		cfg.BufferSize = fv.bufferSize
	}
	if fs.Changed("encoding") {
		cfg.Encoding = fv.encoding
	}
	if fs.Changed("max-failures") {
		cfg.MaxLoginFailures = fv.maxFailures
	}
	if fs.Changed("lockout") {
		cfg.LockoutDuration = time.Duration(fv.lockout) * time.Second
	}
	if fs.Changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if fs.Changed("verbose") {
		cfg.Verbose = fv.verbose
	}
	if fv.dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}

func watchConfig(src *config.Source, logger *util.Logger) {
	src.OnError(func(err error) {
		logger.Error("config reload rejected: %v", err)
	})
	src.OnChange(func(old, cur *config.Config) {
		logger.Info("configuration reloaded from %s", cur.ConfigFile)
		if old.Listen != cur.Listen || old.MetricsAddr != cur.MetricsAddr {
			logger.Warn("listen addresses changed; restart to apply")
		}
	})
	src.Watch(src.Current().ConfigFile)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `goftpd – control-connection server v%s

Usage:
  goftpd [options]                     Serve
  goftpd passwd [user]                 Print a bcrypt hash for the users table

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  GOFTPD_LISTEN, GOFTPD_IDLE_TIMEOUT, GOFTPD_BUFFER_SIZE, GOFTPD_ENCODING,
  GOFTPD_MAX_FAILURES, GOFTPD_LOCKOUT, GOFTPD_METRICS_ADDR, GOFTPD_LOG_FILE,
  GOFTPD_LOG_FORMAT, GOFTPD_VERBOSE, GOFTPD_CONFIG, GOFTPD_DRY_RUN

Examples:
  goftpd -l :21 -t 600                 Listen on port 21, 10 minute idle limit
  goftpd -c /etc/goftpd.yaml -vv       Load users from a file, verbose logs
  goftpd --metrics-addr :9121          Expose Prometheus metrics
  goftpd -c goftpd.yaml --dry-run      Check a config file
`)
}
