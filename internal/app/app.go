package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatbridge/internal/api"
	"chatbridge/internal/config"
	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/jobs"
	"chatbridge/internal/service"
)

const shutdownTimeout = 15 * time.Second

type options struct {
	envFile  string
	logLevel string
}

// Run executes the command line and returns the process exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Execute(ctx, os.Args[1:], service.DefaultDependencies(), os.Stdout)
}

// Execute runs the chatbridge command tree with args. Fatal errors, such as
// bad configuration or an unreachable database, yield exit code 1; runs that
// merely skipped or failed individual records yield 0.
func Execute(ctx context.Context, args []string, deps service.Dependencies, out io.Writer) int {
	cmd := NewRootCmd(deps, out)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree. deps is shared by every pipeline.
func NewRootCmd(deps service.Dependencies, out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "chatbridge",
		Short:         "Migrate LibreChat conversations and presets to Open WebUI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "Settings file to read and update")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR); overrides LOG_LEVEL")

	root.AddCommand(
		newMigrateCmd(opts, deps, out),
		newPresetsCmd(opts, deps, out),
		newBackupCmd(opts, deps, out),
		newServeCmd(opts, deps, out),
		newConfigCmd(opts, out),
	)
	return root
}

// bootstrap loads the settings and installs the logger.
func bootstrap(opts *options, out io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return config.Config{}, nil, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := setupLogger(level, out)
	logConfigSource(cfg, opts.envFile)

	if cfg.EnvFile == "" {
		cfg.EnvFile = opts.envFile
	}
	return cfg, logger, nil
}

func newMigrateCmd(opts *options, deps service.Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Copy every LibreChat conversation into the Open WebUI database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts, out)
			if err != nil {
				return err
			}
			res, err := service.NewConversationMigrator(cfg, deps, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d conversations (%d skipped, %d failed).\n", res.Migrated, res.Skipped, res.Failed)
			return nil
		},
	}
}

func newPresetsCmd(opts *options, deps service.Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "Export LibreChat presets as Open WebUI model files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts, out)
			if err != nil {
				return err
			}
			res, err := service.NewPresetExporter(cfg, deps, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d presets to %s (%d failed).\n", res.Migrated, cfg.OutputDir, res.Failed)
			return nil
		},
	}
}

func newBackupCmd(opts *options, deps service.Dependencies, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up a docker-compose LibreChat installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts, out)
			if err != nil {
				return err
			}
			report, err := service.NewBackupService(cfg, deps, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (completed: %s; skipped: %s).\n",
				report.Dir, strings.Join(report.Completed, ", "), strings.Join(report.Skipped, ", "))
			return nil
		},
	}
}

func newServeCmd(opts *options, deps service.Dependencies, out io.Writer) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for editing settings and running jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts, out)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.AppPort = port
			}
			if err := cfg.ValidateAll(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, deps, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on; overrides APP_PORT")
	return cmd
}

// NewServer wires the HTTP API. The returned runner must be shut down after
// the server stops.
func NewServer(ctx context.Context, cfg config.Config, deps service.Dependencies, logger *slog.Logger) (*http.Server, *jobs.Runner) {
	runner := jobs.NewRunner(ctx, jobs.Options{
		Handler: logger.Handler(),
		Level:   parseLevel(cfg.LogLevel),
	})
	configs := service.NewConfigService(cfg, logger)
	jobService := service.NewJobService(runner, configs, deps)

	router := api.NewRouter(api.NewSettingsHandler(configs), api.NewJobHandler(jobService))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}
	return server, runner
}

func serve(ctx context.Context, cfg config.Config, deps service.Dependencies, logger *slog.Logger) error {
	server, runner := NewServer(ctx, cfg, deps, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.AppPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = runner.Shutdown(context.Background())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Running job did not stop in time", "error", err)
	}
	return nil
}

func newConfigCmd(opts *options, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			values := cfg.Values()
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%v\n", k, values[k])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Validate settings and save them to the env file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := make(map[string]string, len(args))
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok || strings.TrimSpace(key) == "" {
					return fmt.Errorf("%w: expected KEY=VALUE, got %q", app_errors.ErrValidation, arg)
				}
				overrides[key] = value
			}

			cfg, logger, err := bootstrap(opts, out)
			if err != nil {
				return err
			}
			if _, err := service.NewConfigService(cfg, logger).Update(cmd.Context(), overrides); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d settings to %s.\n", len(overrides), cfg.EnvFile)
			return nil
		},
	})
	return cmd
}

func logConfigSource(cfg config.Config, requested string) {
	if cfg.EnvFile != "" {
		slog.Info("Successfully loaded configuration from file.", "file", cfg.EnvFile)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.", "file", requested)
	}
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogger(logLevel string, out io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))
	slog.SetDefault(logger)
	return logger
}
