package service

import (
	"context"
	"fmt"
	"log/slog"

	"chatbridge/internal/config"
	"chatbridge/internal/jobs"
	"chatbridge/internal/logstream"
)

// JobService starts pipelines as background jobs using the settings current at
// start time.
type JobService struct {
	runner  *jobs.Runner
	configs *ConfigService
	deps    Dependencies
}

func NewJobService(runner *jobs.Runner, configs *ConfigService, deps Dependencies) *JobService {
	return &JobService{runner: runner, configs: configs, deps: deps.withDefaults()}
}

// Start launches the pipeline named by kind. Unknown kinds fail with
// ErrValidation and a busy runner with ErrConflict.
func (s *JobService) Start(ctx context.Context, kind string) (jobs.Snapshot, error) {
	k, err := jobs.ParseKind(kind)
	if err != nil {
		return jobs.Snapshot{}, err
	}
	return s.runner.Start(k, JobFunc(k, s.configs.Get(ctx), s.deps))
}

func (s *JobService) Get(_ context.Context, id string) (jobs.Snapshot, error) {
	return s.runner.Get(id)
}

func (s *JobService) Logs(_ context.Context, id string) (*logstream.Queue, error) {
	return s.runner.Logs(id)
}

// JobFunc binds a pipeline to one settings snapshot.
func JobFunc(kind jobs.Kind, cfg config.Config, deps Dependencies) jobs.Func {
	return func(ctx context.Context, logger *slog.Logger) (jobs.Outcome, error) {
		switch kind {
		case jobs.KindConversations:
			res, err := NewConversationMigrator(cfg, deps, logger).Run(ctx)
			return jobs.Outcome{Result: res}, err
		case jobs.KindPresets:
			res, err := NewPresetExporter(cfg, deps, logger).Run(ctx)
			return jobs.Outcome{Result: res}, err
		case jobs.KindBackup:
			report, err := NewBackupService(cfg, deps, logger).Run(ctx)
			if report == nil {
				return jobs.Outcome{}, err
			}
			return jobs.Outcome{Detail: report}, err
		default:
			return jobs.Outcome{}, fmt.Errorf("unsupported job kind %q", kind)
		}
	}
}
