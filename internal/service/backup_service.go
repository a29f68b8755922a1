package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chatbridge/internal/config"
	app_errors "chatbridge/internal/errors"
)

const (
	backupTimestampLayout = "20060102_150405"
	vectorDBService       = "vectordb"
	composeOverrideFile   = "docker-compose.override.yml"
	libreChatConfigFile   = "librechat.yaml"
)

// Lines of the LibreChat .env starting with one of these keys are left out of
// the backup copy.
var sensitiveEnvKeys = []string{"OPENAI_API_KEY", "MEILI_MASTER_KEY", "JWT_SECRET", "SECRET", "PASSWORD"}

// Top-level librechat.yaml keys removed from the backup copy.
var sensitiveConfigKeys = []string{"supportedIds", "jwtSecret"}

// BackupReport describes where a backup went and which parts it holds.
type BackupReport struct {
	Dir       string   `json:"dir"`
	Completed []string `json:"completed"`
	Skipped   []string `json:"skipped"`
}

// BackupService snapshots a docker-compose LibreChat installation: the MongoDB
// database, the pgvector database, sanitized config files and logs.
type BackupService struct {
	cfg    config.Config
	deps   Dependencies
	logger *slog.Logger
}

func NewBackupService(cfg config.Config, deps Dependencies, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{cfg: cfg, deps: deps.withDefaults(), logger: logger}
}

// Run creates <LIBRECHAT_DOCKER_PATH>/backups/<timestamp> and fills it. A part
// whose container or file does not exist is skipped; a failing command aborts
// the backup.
func (b *BackupService) Run(ctx context.Context) (*BackupReport, error) {
	if err := b.cfg.Validate(config.FlowBackup); err != nil {
		b.logger.Error("Aborting backup", "error", err)
		return nil, err
	}

	base := b.cfg.LibreChatDockerPath
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		err = fmt.Errorf("%w: LIBRECHAT_DOCKER_PATH %q is not a directory", app_errors.ErrConfiguration, base)
		b.logger.Error("Aborting backup", "error", err)
		return nil, err
	}

	report := &BackupReport{
		Dir: filepath.Join(base, "backups", b.deps.Now().Format(backupTimestampLayout)),
	}
	for _, sub := range []string{"", "pgvector_dump", "configs"} {
		if err := os.MkdirAll(filepath.Join(report.Dir, sub), 0750); err != nil {
			return nil, fmt.Errorf("create backup directory: %w", err)
		}
	}
	b.logger.Info("Starting backup", "dir", report.Dir)

	if b.cfg.BackupUseSudo {
		if _, err := b.run(ctx, "echo", "Testing sudo access..."); err != nil {
			b.logger.Error("sudo is not available", "error", err)
			return report, fmt.Errorf("test sudo access: %w", err)
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, string) (bool, error)
	}{
		{"mongodb", b.backupMongo},
		{"pgvector", b.backupPostgres},
		{"configs", b.backupConfigs},
		{"logs", b.backupLogs},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		done, err := step.fn(ctx, report.Dir)
		if err != nil {
			b.logger.Error("Backup step failed", "step", step.name, "error", err)
			return report, fmt.Errorf("backup %s: %w", step.name, err)
		}
		if done {
			report.Completed = append(report.Completed, step.name)
		} else {
			report.Skipped = append(report.Skipped, step.name)
		}
	}

	b.logger.Info("Backup completed successfully", "dir", report.Dir,
		"completed", report.Completed, "skipped", report.Skipped)
	return report, nil
}

func (b *BackupService) backupMongo(ctx context.Context, dir string) (bool, error) {
	b.logger.Info("Backing up MongoDB...")
	id, err := b.containerID(ctx, b.cfg.MongoContainer)
	if err != nil {
		return false, err
	}
	if id == "" {
		b.logger.Warn("MongoDB container not found", "container", b.cfg.MongoContainer)
		return false, nil
	}

	if _, err := b.run(ctx, "docker", "exec", id,
		"mongodump", "--db", b.cfg.MongoDBName, "--out", "/tmp/mongo_dump"); err != nil {
		return false, err
	}
	if _, err := b.run(ctx, "docker", "cp", id+":/tmp/mongo_dump", filepath.Join(dir, "mongo_dump")); err != nil {
		return false, err
	}
	return true, nil
}

func (b *BackupService) backupPostgres(ctx context.Context, dir string) (bool, error) {
	b.logger.Info("Backing up PostgreSQL...")
	composePath := filepath.Join(b.cfg.LibreChatDockerPath, composeOverrideFile)
	data, err := os.ReadFile(composePath)
	if errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("No compose override file, skipping PostgreSQL", "file", composePath)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	env, err := vectorDBEnvironment(data)
	if err != nil {
		return false, err
	}
	if env == nil {
		b.logger.Warn("Compose override has no vectordb service, skipping PostgreSQL")
		return false, nil
	}

	id, err := b.containerID(ctx, vectorDBService)
	if err != nil {
		return false, err
	}
	if id == "" {
		b.logger.Warn("PostgreSQL container not found", "container", vectorDBService)
		return false, nil
	}

	if _, err := b.run(ctx, "docker", "exec", "-e", "PGPASSWORD="+env["POSTGRES_PASSWORD"],
		id, "pg_dump", "-U", env["POSTGRES_USER"], "-d", env["POSTGRES_DB"], "-f", "/tmp/pgvector_dump.sql"); err != nil {
		return false, err
	}
	if _, err := b.run(ctx, "docker", "cp", id+":/tmp/pgvector_dump.sql",
		filepath.Join(dir, "pgvector_dump", "pgvector_dump.sql")); err != nil {
		return false, err
	}
	return true, nil
}

func (b *BackupService) backupConfigs(ctx context.Context, dir string) (bool, error) {
	b.logger.Info("Backing up config files...")
	base := b.cfg.LibreChatDockerPath
	dst := filepath.Join(dir, "configs")
	copied := false

	envData, err := os.ReadFile(filepath.Join(base, ".env"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		b.logger.Warn("LibreChat .env not found, not backed up")
	case err != nil:
		return false, err
	default:
		if err := os.WriteFile(filepath.Join(dst, ".env"), SanitizeEnv(envData), 0600); err != nil {
			return false, err
		}
		copied = true
	}

	composePath := filepath.Join(base, composeOverrideFile)
	if _, err := os.Stat(composePath); err == nil {
		if _, err := b.run(ctx, "cp", composePath, dst+string(filepath.Separator)); err != nil {
			return false, err
		}
		copied = true
	}

	yamlData, err := os.ReadFile(filepath.Join(base, libreChatConfigFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		b.logger.Warn("librechat.yaml not found, not backed up")
	case err != nil:
		return false, err
	default:
		clean, err := SanitizeLibreChatConfig(yamlData)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(filepath.Join(dst, libreChatConfigFile), clean, 0600); err != nil {
			return false, err
		}
		copied = true
	}
	return copied, nil
}

func (b *BackupService) backupLogs(ctx context.Context, dir string) (bool, error) {
	b.logger.Info("Backing up logs...")
	logs := filepath.Join(b.cfg.LibreChatDockerPath, "logs")
	if info, err := os.Stat(logs); err != nil || !info.IsDir() {
		b.logger.Warn("LibreChat logs directory not found", "dir", logs)
		return false, nil
	}
	if _, err := b.run(ctx, "cp", "-r", logs, filepath.Join(dir, "logs")); err != nil {
		return false, err
	}
	return true, nil
}

// containerID returns the first running container whose name matches, or ""
// when none does.
func (b *BackupService) containerID(ctx context.Context, name string) (string, error) {
	out, err := b.run(ctx, "docker", "ps", "--filter", "name="+name, "--format", "{{.ID}}")
	if err != nil {
		return "", err
	}
	id, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(id), nil
}

func (b *BackupService) run(ctx context.Context, name string, args ...string) (string, error) {
	if b.cfg.BackupUseSudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}
	b.logger.Debug("Running command", "command", name, "args", args)
	return b.deps.Commands.Run(ctx, name, args...)
}

// SanitizeEnv drops every line that assigns one of the sensitive keys.
func SanitizeEnv(data []byte) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if hasSensitiveKey(line) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func hasSensitiveKey(line string) bool {
	for _, key := range sensitiveEnvKeys {
		if strings.HasPrefix(line, key+"=") {
			return true
		}
	}
	return false
}

// SanitizeLibreChatConfig removes secrets from a librechat.yaml document.
func SanitizeLibreChatConfig(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", libreChatConfigFile, err)
	}
	for _, key := range sensitiveConfigKeys {
		delete(doc, key)
	}
	return yaml.Marshal(doc)
}

type composeOverride struct {
	Services map[string]struct {
		Environment any `yaml:"environment"`
	} `yaml:"services"`
}

// vectorDBEnvironment returns the environment of the vectordb service, which
// compose allows as a KEY=VALUE list or as a mapping. It returns nil if the
// service is not declared.
func vectorDBEnvironment(data []byte) (map[string]string, error) {
	var compose composeOverride
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return nil, fmt.Errorf("parse %s: %w", composeOverrideFile, err)
	}
	svc, ok := compose.Services[vectorDBService]
	if !ok {
		return nil, nil
	}

	env := make(map[string]string)
	switch v := svc.Environment.(type) {
	case nil:
	case []any:
		for _, item := range v {
			k, val, _ := strings.Cut(fmt.Sprint(item), "=")
			env[k] = val
		}
	case map[string]any:
		for k, val := range v {
			env[k] = fmt.Sprint(val)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected environment format %T in %s", app_errors.ErrConfiguration, v, composeOverrideFile)
	}
	return env, nil
}
