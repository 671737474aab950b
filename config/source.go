package config

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Source serves the current Config and rebuilds it when the config
// file changes.  Readers call Current and never see a half-applied
// reload.
type Source struct {
	build func() (*Config, error)
	cur   atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(old, cur *Config)
	onError   func(error)
}

// NewSource returns a Source serving cfg.  build reassembles the full
// configuration (file, env, flags) on reload.
func NewSource(cfg *Config, build func() (*Config, error)) *Source {
	s := &Source{build: build, onError: func(error) {}}
	s.cur.Store(cfg)
	return s
}

// Current returns the active configuration.  Callers must not modify
// it.
func (s *Source) Current() *Config { return s.cur.Load() }

// OnChange registers fn to run after every successful reload.
func (s *Source) OnChange(fn func(old, cur *Config)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// OnError registers fn to receive reload failures.  The previous
// configuration stays active after a failure.
func (s *Source) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Reload rebuilds and validates the configuration and swaps it in.
func (s *Source) Reload() error {
	if s.build == nil {
		return nil
	}
	next, err := s.build()
	if err == nil {
		err = next.Validate()
	}

	s.mu.Lock()
	onError := s.onError
	listeners := append([]func(old, cur *Config)(nil), s.listeners...)
	s.mu.Unlock()

	if err != nil {
		onError(err)
		return err
	}
	old := s.cur.Swap(next)
	for _, fn := range listeners {
		fn(old, next)
	}
	return nil
}

// Watch reloads whenever the file at path is written.  The watch lasts
// for the life of the process.
func (s *Source) Watch(path string) {
	v := viper.New()
	v.SetConfigFile(path)
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
			_ = s.Reload()
		}
	})
	v.WatchConfig()
}
