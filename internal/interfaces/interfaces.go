package interfaces

import (
	"context"

	"chatbridge/internal/config"
	"chatbridge/internal/jobs"
	"chatbridge/internal/logstream"
)

// This file defines the interfaces the API layer depends on. The service
// package provides the implementations; tests use the mocks package.

// JobService starts pipelines in the background and reports on them.
type JobService interface {
	Start(ctx context.Context, kind string) (jobs.Snapshot, error)
	Get(ctx context.Context, id string) (jobs.Snapshot, error)
	Logs(ctx context.Context, id string) (*logstream.Queue, error)
}

// ConfigService reads and updates the application settings.
type ConfigService interface {
	Get(ctx context.Context) config.Config
	Update(ctx context.Context, overrides map[string]string) (config.Config, error)
}
