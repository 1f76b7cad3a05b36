package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName   = "smarttodo"
	envPrefix = "SMARTTODO"
)

const (
	BackendLocal    = "local"
	BackendCalendar = "calendar"
	BackendNone     = "none"
)

type Config struct {
	DBPath      string         `mapstructure:"db_path"`
	SessionPath string         `mapstructure:"session_path"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	SessionTTL  time.Duration  `mapstructure:"session_ttl"`
	Notify      NotifyConfig   `mapstructure:"notify"`
	Calendar    CalendarConfig `mapstructure:"calendar"`
	Log         LogConfig      `mapstructure:"log"`
}

type NotifyConfig struct {
	Backend         string `mapstructure:"backend"`
	SchedulerBuffer int    `mapstructure:"scheduler_buffer"`
}

type CalendarConfig struct {
	ID              string `mapstructure:"id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Dir is the per-user directory holding the database, session and tokens.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, appName)
	}
	return "." + appName
}

func Default() Config {
	dir := Dir()
	return Config{
		DBPath:      filepath.Join(dir, "todos.db"),
		SessionPath: filepath.Join(dir, "session.jwt"),
		JWTSecret:   "",
		SessionTTL:  30 * 24 * time.Hour,
		Notify: NotifyConfig{
			Backend:         BackendLocal,
			SchedulerBuffer: 64,
		},
		Calendar: CalendarConfig{
			ID:              "primary",
			CredentialsFile: filepath.Join(dir, "credentials.json"),
			TokenFile:       filepath.Join(dir, "token.json"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load layers defaults, the YAML file at path (or the default location when
// path is empty) and SMARTTODO_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(Dir(), "config.yaml")
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Notify.Backend {
	case BackendLocal, BackendCalendar, BackendNone:
	default:
		return fmt.Errorf("config: unknown notify backend %q", c.Notify.Backend)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db_path is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: session_ttl must be positive")
	}
	if c.Notify.SchedulerBuffer <= 0 {
		return errors.New("config: notify.scheduler_buffer must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("session_path", cfg.SessionPath)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("session_ttl", cfg.SessionTTL)
	v.SetDefault("notify.backend", cfg.Notify.Backend)
	v.SetDefault("notify.scheduler_buffer", cfg.Notify.SchedulerBuffer)
	v.SetDefault("calendar.id", cfg.Calendar.ID)
	v.SetDefault("calendar.credentials_file", cfg.Calendar.CredentialsFile)
	v.SetDefault("calendar.token_file", cfg.Calendar.TokenFile)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
