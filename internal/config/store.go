package config

import (
	"log/slog"
	"sync/atomic"
)

// Store holds the current file configuration and can be swapped at runtime.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore returns a store seeded with cfg.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.current.Store(&cfg)
	return s
}

// Load returns the current configuration.
func (s *Store) Load() Config {
	return *s.current.Load()
}

// Reload re-reads path. On failure the previous configuration stays active.
func (s *Store) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}

	old := s.Load()
	s.current.Store(&cfg)
	if old.Server.Port != cfg.Server.Port {
		slog.Warn("server.port changed; restart to apply", "old", old.Server.Port, "new", cfg.Server.Port)
	}
	return nil
}
