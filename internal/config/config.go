package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	APIBaseURL string        `yaml:"api_base_url"`
	StatsPath  string        `yaml:"stats_path"`
	Timeout    time.Duration `yaml:"timeout"`
	Storage    StorageConfig `yaml:"storage"`
	Log        LogConfig     `yaml:"log"`
	Nudge      NudgeConfig   `yaml:"nudge"`
	DevServer  DevServer     `yaml:"devserver"`
}

type StorageConfig struct {
	// Backend is one of bolt, keyring or memory.
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type NudgeConfig struct {
	ResendAPIKey string        `yaml:"resend_api_key"`
	Email        string        `yaml:"email"`
	From         string        `yaml:"from"`
	Window       time.Duration `yaml:"window"`
}

type DevServer struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

func defaults() *Config {
	return &Config{
		APIBaseURL: "http://127.0.0.1:5000",
		StatsPath:  "/stats/me",
		Timeout:    15 * time.Second,
		Storage: StorageConfig{
			Backend: "bolt",
			Path:    "habits.db",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Nudge: NudgeConfig{
			From:   "onboarding@resend.dev",
			Window: 4 * time.Hour,
		},
		DevServer: DevServer{
			Addr:      ":5000",
			JWTSecret: "dev-secret-change-me",
		},
	}
}

// Load reads the YAML file named by HABITS_CONFIG (config.yaml when unset)
// on top of the defaults, then applies environment overrides. A missing file
// is only an error when HABITS_CONFIG names it explicitly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path, explicit := os.LookupEnv("HABITS_CONFIG")
	if !explicit || path == "" {
		path = defaultConfigPath
		explicit = false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = getenv("HABITS_API_BASE", cfg.APIBaseURL)
	cfg.Storage.Backend = getenv("HABITS_STORAGE", cfg.Storage.Backend)
	cfg.Storage.Path = getenv("HABITS_DB_PATH", cfg.Storage.Path)
	cfg.Log.Level = getenv("HABITS_LOG_LEVEL", cfg.Log.Level)
	cfg.Nudge.ResendAPIKey = getenv("HABITS_RESEND_API_KEY", cfg.Nudge.ResendAPIKey)
	cfg.Nudge.Email = getenv("HABITS_NOTIFY_EMAIL", cfg.Nudge.Email)
	cfg.DevServer.JWTSecret = getenv("HABITS_JWT_SECRET", cfg.DevServer.JWTSecret)
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	switch c.Storage.Backend {
	case "bolt":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the bolt backend")
		}
	case "keyring", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
