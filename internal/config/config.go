package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Curriculum struct {
		CacheTTL string `yaml:"cacheTTL"`
	} `yaml:"curriculum"`
	Progress struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"progress"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies COURSEWARE_* environment
// overrides. A missing file yields the environment-only configuration.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr(&cfg.Server.Port, "COURSEWARE_SERVER_PORT")
	envStr(&cfg.Postgres.URL, "COURSEWARE_POSTGRES_URL")
	envStr(&cfg.Redis.Addr, "COURSEWARE_REDIS_ADDR")
	envStr(&cfg.Redis.Password, "COURSEWARE_REDIS_PASSWORD")
	envInt(&cfg.Redis.DB, "COURSEWARE_REDIS_DB")
	envStr(&cfg.Curriculum.CacheTTL, "COURSEWARE_CURRICULUM_CACHE_TTL")
	envStr(&cfg.Progress.Debounce, "COURSEWARE_PROGRESS_DEBOUNCE")
	envStr(&cfg.Auth.JWTSecret, "COURSEWARE_AUTH_JWT_SECRET")
	envStr(&cfg.Log.Level, "COURSEWARE_LOG_LEVEL")
	envStr(&cfg.Log.Format, "COURSEWARE_LOG_FORMAT")
	envStr(&cfg.Log.File, "COURSEWARE_LOG_FILE")
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
