package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StorageConfig locates the guest-mode slot database.
type StorageConfig struct {
	// Path is the SQLite file holding the local slots.
	Path string `mapstructure:"path" yaml:"path"`

	// Slot is the name of the slot the guest collection is stored under.
	Slot string `mapstructure:"slot" yaml:"slot"`
}

// RemoteConfig points the authenticated backend at a task service.
type RemoteConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DisplayConfig holds the initial view settings.
type DisplayConfig struct {
	DefaultSort      string `mapstructure:"default_sort" yaml:"default_sort"`
	DefaultDirection string `mapstructure:"default_direction" yaml:"default_direction"`
}

// ServerConfig configures the bundled reference task service.
type ServerConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	Driver      string `mapstructure:"driver" yaml:"driver"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	TokenTTLMin int    `mapstructure:"token_ttl_min" yaml:"token_ttl_min"`
}

// LogConfig controls the slog level.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultSlotName is the slot the guest collection lives in.
const DefaultSlotName = "todoflow_tasks"

// ConfigDir returns ~/.config/todoflow, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "todoflow")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/todoflow/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Storage: StorageConfig{
			Path: filepath.Join(dir, "local.db"),
			Slot: DefaultSlotName,
		},
		Remote: RemoteConfig{
			BaseURL:    "http://localhost:54321",
			TimeoutSec: 15,
		},
		Display: DisplayConfig{
			DefaultSort:      string(SortCreatedAt),
			DefaultDirection: string(SortDesc),
		},
		Server: ServerConfig{
			Addr:        ":54321",
			Driver:      "sqlite",
			DSN:         filepath.Join(dir, "server.db"),
			TokenTTLMin: 60,
		},
		Log: LogConfig{Level: "info"},
	}
}

// setDefaults mirrors defaultAppConfig into v so that env overrides and
// partially filled files resolve every key.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.slot", d.Storage.Slot)
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.api_key", d.Remote.APIKey)
	v.SetDefault("remote.timeout_sec", d.Remote.TimeoutSec)
	v.SetDefault("display.default_sort", d.Display.DefaultSort)
	v.SetDefault("display.default_direction", d.Display.DefaultDirection)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.driver", d.Server.Driver)
	v.SetDefault("server.dsn", d.Server.DSN)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.token_ttl_min", d.Server.TokenTTLMin)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values can be overridden by TODOFLOW_* environment variables
// (e.g. TODOFLOW_REMOTE_BASE_URL). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODOFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Storage.Slot == "" {
		cfg.Storage.Slot = DefaultSlotName
	}
	if cfg.Remote.TimeoutSec <= 0 {
		cfg.Remote.TimeoutSec = 15
	}
	if cfg.Server.TokenTTLMin <= 0 {
		cfg.Server.TokenTTLMin = 60
	}

	return cfg, nil
}

// DefaultQuery builds the initial view query from the display settings.
func (c *AppConfig) DefaultQuery() Query {
	q := DefaultQuery()
	q.Sort = SortKey(c.Display.DefaultSort)
	q.Dir = SortDir(c.Display.DefaultDirection)
	return q.Normalized()
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("remote", cfg.Remote)
	v.Set("display", cfg.Display)
	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
