package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GOFTPD_ prefix.  Durations are whole
// seconds.  Boolean values accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GOFTPD_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("GOFTPD_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := envInt("GOFTPD_IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = secondsDuration(v)
	}
	if v := envInt("GOFTPD_BUFFER_SIZE"); v > 0 {
		cfg.BufferSize = v
	}
	if v := os.Getenv("GOFTPD_ENCODING"); v != "" {
		cfg.Encoding = v
	}

	if v := envInt("GOFTPD_MAX_FAILURES"); v > 0 {
		cfg.MaxLoginFailures = v
	}
	if v := envInt("GOFTPD_LOCKOUT"); v > 0 {
		cfg.LockoutDuration = secondsDuration(v)
	}

	if v := os.Getenv("GOFTPD_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("GOFTPD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := envInt("GOFTPD_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("GOFTPD_CONFIG"); v != "" {
		cfg.ConfigFile = v
	}
	if envBool("GOFTPD_DRY_RUN") {
		cfg.DryRun = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
