package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chatbridge/internal/config"
)

// ConfigService holds the current settings snapshot. An update builds a new
// snapshot and persists it; jobs already running keep the one they started
// with.
type ConfigService struct {
	mu      sync.RWMutex
	current config.Config
	logger  *slog.Logger
}

func NewConfigService(cfg config.Config, logger *slog.Logger) *ConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigService{current: cfg, logger: logger}
}

// Get returns the current snapshot.
func (s *ConfigService) Get(_ context.Context) config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies overrides (keyed by setting name, e.g. TARGET_USER_ID),
// validates the result, writes it to the env file and makes it current.
func (s *ConfigService) Update(_ context.Context, overrides map[string]string) (config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.With(overrides)
	if err != nil {
		return s.current, err
	}
	if err := next.ValidateAll(); err != nil {
		return s.current, err
	}

	envFile := next.EnvFile
	if envFile == "" {
		envFile = config.DefaultEnvFile
		next.EnvFile = envFile
	}
	if err := config.Save(envFile, next); err != nil {
		return s.current, fmt.Errorf("failed to save settings: %w", err)
	}

	s.current = next
	s.logger.Info("Settings saved", "file", envFile, "keys", len(overrides))
	return next, nil
}
