// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreOxiDB  = "oxidb"
	StoreSQLite = "sqlite"
)

type Config struct {
	HTTPAddr    string        `yaml:"addr"`
	Store       string        `yaml:"store"`
	SQLitePath  string        `yaml:"sqlitePath"`
	OxiDBHost   string        `yaml:"oxidbHost"`
	OxiDBPort   int           `yaml:"oxidbPort"`
	PoolSize    int           `yaml:"poolSize"`
	JWTSecret   string        `yaml:"jwtSecret"`
	TokenTTL    time.Duration `yaml:"tokenTTL"`
	AdminUser   string        `yaml:"adminUser"`
	AdminPass   string        `yaml:"adminPass"`
	GelfAddr    string        `yaml:"gelfAddr"`
	LogLevel    string        `yaml:"logLevel"`
	SessionTTL  time.Duration `yaml:"sessionTTL"`
	MaxSessions int           `yaml:"maxSessions"`
	MaxUploadMB int           `yaml:"maxUploadMB"`
	SeedFile    string        `yaml:"seedFile"`
}

func defaults() *Config {
	return &Config{
		HTTPAddr:    ":8080",
		Store:       StoreOxiDB,
		SQLitePath:  "data/oxienroll.db",
		OxiDBHost:   "127.0.0.1",
		OxiDBPort:   4444,
		PoolSize:    3,
		JWTSecret:   "oxienroll-dev-secret-change-me",
		TokenTTL:    12 * time.Hour,
		AdminUser:   "admin",
		AdminPass:   "admin123",
		LogLevel:    "info",
		SessionTTL:  2 * time.Hour,
		MaxSessions: 10000,
		MaxUploadMB: 25,
	}
}

// Load reads path when it is non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getEnv("OXIENROLL_ADDR", cfg.HTTPAddr)
	cfg.Store = getEnv("OXIENROLL_STORE", cfg.Store)
	cfg.SQLitePath = getEnv("OXIENROLL_SQLITE_PATH", cfg.SQLitePath)
	cfg.OxiDBHost = getEnv("OXIDB_HOST", cfg.OxiDBHost)
	cfg.OxiDBPort = getEnvInt("OXIDB_PORT", cfg.OxiDBPort)
	cfg.PoolSize = getEnvInt("OXIENROLL_POOL_SIZE", cfg.PoolSize)
	cfg.JWTSecret = getEnv("OXIENROLL_JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("OXIENROLL_TOKEN_TTL", cfg.TokenTTL)
	cfg.AdminUser = getEnv("OXIENROLL_ADMIN_USER", cfg.AdminUser)
	cfg.AdminPass = getEnv("OXIENROLL_ADMIN_PASS", cfg.AdminPass)
	cfg.GelfAddr = getEnv("OXIENROLL_GELF_ADDR", cfg.GelfAddr)
	cfg.LogLevel = getEnv("OXIENROLL_LOG_LEVEL", cfg.LogLevel)
	cfg.SessionTTL = getEnvDuration("OXIENROLL_SESSION_TTL", cfg.SessionTTL)
	cfg.MaxSessions = getEnvInt("OXIENROLL_MAX_SESSIONS", cfg.MaxSessions)
	cfg.MaxUploadMB = getEnvInt("OXIENROLL_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.SeedFile = getEnv("OXIENROLL_SEED_FILE", cfg.SeedFile)

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.Store != StoreOxiDB && c.Store != StoreSQLite {
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreOxiDB, StoreSQLite, c.Store))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is empty"))
	}
	if c.TokenTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("token and session TTLs must be positive"))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, errors.New("max sessions must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
