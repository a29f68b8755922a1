package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	app_errors "chatbridge/internal/errors"
)

// Placeholder values shipped in the example .env file. A setting that still
// contains one of them is treated as missing.
const (
	UserIDPlaceholder     = "your_open_webui_user_id"
	SQLitePathPlaceholder = "path/to/your/webui.db"
)

// DefaultEnvFile is the file settings are read from and persisted to.
const DefaultEnvFile = ".env"

// Config is an immutable snapshot of the application settings. It is built once
// by Load and passed explicitly to every component that needs it.
type Config struct {
	MongoURI            string `mapstructure:"MONGO_URI" json:"mongo_uri" validate:"configured"`
	MongoDBName         string `mapstructure:"MONGO_DB_NAME" json:"mongo_db_name" validate:"configured"`
	TargetUserID        string `mapstructure:"TARGET_USER_ID" json:"target_user_id" validate:"configured"`
	TargetUserName      string `mapstructure:"TARGET_USER_NAME" json:"target_user_name"`
	TargetUserEmail     string `mapstructure:"TARGET_USER_EMAIL" json:"target_user_email"`
	SQLiteDBPath        string `mapstructure:"SQLITE_DB_PATH" json:"sqlite_db_path" validate:"configured"`
	TargetCreateSchema  bool   `mapstructure:"TARGET_CREATE_SCHEMA" json:"target_create_schema"`
	OutputDir           string `mapstructure:"OUTPUT_DIR" json:"output_dir" validate:"configured"`
	LibreChatDockerPath string `mapstructure:"LIBRECHAT_DOCKER_PATH" json:"librechat_docker_path" validate:"configured"`
	MongoContainer      string `mapstructure:"MONGO_CONTAINER" json:"mongo_container" validate:"configured"`
	BackupUseSudo       bool   `mapstructure:"BACKUP_USE_SUDO" json:"backup_use_sudo"`
	CommitEvery         int    `mapstructure:"COMMIT_EVERY" json:"commit_every" validate:"gte=1"`
	AppPort             int    `mapstructure:"APP_PORT" json:"app_port" validate:"gte=1,lte=65535"`
	LogLevel            string `mapstructure:"LOG_LEVEL" json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// EnvFile is the file this snapshot was loaded from, if any.
	EnvFile string `mapstructure:"-" json:"-"`
}

// Flow names the pipelines whose required settings differ.
type Flow string

const (
	FlowConversations Flow = "conversations"
	FlowPresets       Flow = "presets"
	FlowBackup        Flow = "backup"
)

// requiredFields lists, per flow, the struct fields that must be configured.
var requiredFields = map[Flow][]string{
	FlowConversations: {"MongoURI", "MongoDBName", "TargetUserID", "SQLiteDBPath", "CommitEvery"},
	FlowPresets:       {"MongoURI", "MongoDBName", "TargetUserID", "OutputDir"},
	FlowBackup:        {"MongoDBName", "LibreChatDockerPath", "MongoContainer"},
}

func newViper(envFile string) *viper.Viper {
	v := viper.New()
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/")
	v.SetDefault("MONGO_DB_NAME", "LibreChat")
	v.SetDefault("TARGET_USER_ID", "")
	v.SetDefault("TARGET_USER_NAME", "<your_name>")
	v.SetDefault("TARGET_USER_EMAIL", "<your_email>")
	v.SetDefault("SQLITE_DB_PATH", "")
	v.SetDefault("TARGET_CREATE_SCHEMA", false)
	v.SetDefault("OUTPUT_DIR", "open_webui_presets")
	v.SetDefault("LIBRECHAT_DOCKER_PATH", "")
	v.SetDefault("MONGO_CONTAINER", "mongo")
	v.SetDefault("BACKUP_USE_SUDO", true)
	v.SetDefault("COMMIT_EVERY", 50)
	v.SetDefault("APP_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "INFO")

	if envFile == "" {
		envFile = DefaultEnvFile
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads settings from envFile (".env" when empty), environment variables
// and defaults, in increasing order of precedence for the first two.
func Load(envFile string) (Config, error) {
	v := newViper(envFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode configuration: %w", err)
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		cfg.EnvFile = v.ConfigFileUsed()
	}
	return cfg, nil
}

// Save persists the editable settings of cfg to envFile as KEY=VALUE lines.
func Save(envFile string, cfg Config) error {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if dir := filepath.Dir(envFile); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("env")
	for key, value := range cfg.Values() {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(envFile); err != nil {
		return fmt.Errorf("write %s: %w", envFile, err)
	}
	return nil
}

// Values returns the settings keyed by their environment variable names.
func (c Config) Values() map[string]any {
	return map[string]any{
		"MONGO_URI":             c.MongoURI,
		"MONGO_DB_NAME":         c.MongoDBName,
		"TARGET_USER_ID":        c.TargetUserID,
		"TARGET_USER_NAME":      c.TargetUserName,
		"TARGET_USER_EMAIL":     c.TargetUserEmail,
		"SQLITE_DB_PATH":        c.SQLiteDBPath,
		"TARGET_CREATE_SCHEMA":  c.TargetCreateSchema,
		"OUTPUT_DIR":            c.OutputDir,
		"LIBRECHAT_DOCKER_PATH": c.LibreChatDockerPath,
		"MONGO_CONTAINER":       c.MongoContainer,
		"BACKUP_USE_SUDO":       c.BackupUseSudo,
		"COMMIT_EVERY":          c.CommitEvery,
		"APP_PORT":              c.AppPort,
		"LOG_LEVEL":             c.LogLevel,
	}
}

// With returns a copy of c with the given KEY=VALUE overrides applied.
func (c Config) With(overrides map[string]string) (Config, error) {
	v := viper.New()
	for key, value := range c.Values() {
		v.Set(key, value)
	}
	for key, value := range overrides {
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, ok := c.Values()[key]; !ok {
			return Config{}, fmt.Errorf("%w: unknown setting %q", app_errors.ErrValidation, key)
		}
		v.Set(key, value)
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return Config{}, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}
	out.EnvFile = c.EnvFile
	return out, nil
}

// Validate checks the settings a flow needs. Missing or placeholder values
// produce an error wrapping ErrConfiguration.
func (c Config) Validate(flow Flow) error {
	fields, ok := requiredFields[flow]
	if !ok {
		return fmt.Errorf("%w: unknown flow %q", app_errors.ErrConfiguration, flow)
	}
	if err := validate().StructPartial(c, fields...); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateAll checks every validated setting regardless of flow.
func (c Config) ValidateAll() error {
	if err := validate().StructPartial(c, "AppPort", "LogLevel", "CommitEvery"); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", app_errors.ErrConfiguration, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "configured" {
			msgs = append(msgs, fmt.Sprintf("%s is not set", envName(fe.StructField())))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", envName(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrConfiguration, strings.Join(msgs, "; "))
}

func envName(field string) string {
	names := map[string]string{
		"MongoURI":            "MONGO_URI",
		"MongoDBName":         "MONGO_DB_NAME",
		"TargetUserID":        "TARGET_USER_ID",
		"SQLiteDBPath":        "SQLITE_DB_PATH",
		"OutputDir":           "OUTPUT_DIR",
		"LibreChatDockerPath": "LIBRECHAT_DOCKER_PATH",
		"MongoContainer":      "MONGO_CONTAINER",
		"CommitEvery":         "COMMIT_EVERY",
		"AppPort":             "APP_PORT",
		"LogLevel":            "LOG_LEVEL",
	}
	if name, ok := names[field]; ok {
		return name
	}
	return field
}
