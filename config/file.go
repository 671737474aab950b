package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config file keys.  The file may be YAML, TOML or JSON; viper picks
// the parser from the extension.
const (
	keyListen        = "listen"
	keyMetricsAddr   = "metrics_addr"
	keyIdleTimeout   = "idle_timeout"
	keyBufferSize    = "buffer_size"
	keyEncoding      = "encoding"
	keyMaxFailures   = "max_login_failures"
	keyFailureWindow = "failure_window"
	keyLockout       = "lockout_duration"
	keyUsers         = "users"
	keyLogFile       = "log_file"
	keyLogFormat     = "log_format"
	keyVerbose       = "verbose"
)

// LoadFile reads path and overlays every key it sets onto cfg.
func LoadFile(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return apply(v, cfg)
}

func apply(v *viper.Viper, cfg *Config) error {
	if v.IsSet(keyListen) {
		cfg.Listen = v.GetString(keyListen)
	}
	if v.IsSet(keyMetricsAddr) {
		cfg.MetricsAddr = v.GetString(keyMetricsAddr)
	}
	if v.IsSet(keyBufferSize) {
		cfg.BufferSize = v.GetInt(keyBufferSize)
	}
	if v.IsSet(keyEncoding) {
		cfg.Encoding = v.GetString(keyEncoding)
	}
	if v.IsSet(keyMaxFailures) {
		cfg.MaxLoginFailures = v.GetInt(keyMaxFailures)
	}
	if v.IsSet(keyLogFile) {
		cfg.LogFile = v.GetString(keyLogFile)
	}
	if v.IsSet(keyLogFormat) {
		cfg.LogFormat = v.GetString(keyLogFormat)
	}
	if v.IsSet(keyVerbose) {
		cfg.Verbose = v.GetInt(keyVerbose)
	}
	if v.IsSet(keyUsers) {
		cfg.Users = v.GetStringMapString(keyUsers)
	}

	for key, dst := range map[string]*time.Duration{
		keyIdleTimeout:   &cfg.IdleTimeout,
		keyFailureWindow: &cfg.FailureWindow,
		keyLockout:       &cfg.LockoutDuration,
	} {
		if !v.IsSet(key) {
			continue
		}
		d, err := parseDuration(v.Get(key))
		if err != nil {
			return fmt.Errorf("config file: %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// parseDuration accepts a bare number of seconds or a Go duration
// string such as "5m".
func parseDuration(raw interface{}) (time.Duration, error) {
	switch x := raw.(type) {
	case int:
		return secondsDuration(x), nil
	case int64:
		return secondsDuration(int(x)), nil
	case float64:
		return time.Duration(x * float64(time.Second)), nil
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return secondsDuration(n), nil
		}
		return time.ParseDuration(x)
	default:
		return 0, fmt.Errorf("unsupported duration %v", raw)
	}
}
