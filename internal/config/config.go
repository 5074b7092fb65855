// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	SecretKey       []byte // 32 bytes, or nil when unset.
	PollConcurrency int
	LogLevel        slog.Level

	// Seed options, used only while no options have been saved through the
	// options surface.
	Endpoint    string
	Email       string
	Password    string
	RefreshTime int
}

// HasSeedOptions returns true when GERRITWATCH_ENDPOINT is set. Used by the
// composition root to decide whether to store initial options on first start.
func (c *Config) HasSeedOptions() bool {
	return c.Endpoint != ""
}

// SeedOptions returns the environment-provided options.
func (c *Config) SeedOptions() model.Options {
	return model.Options{
		RefreshTime: c.RefreshTime,
		Endpoint:    c.Endpoint,
		Credentials: model.Credentials{Email: c.Email, Password: c.Password},
	}
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: GERRITWATCH_LISTEN_ADDR (127.0.0.1:8080),
// GERRITWATCH_DB_PATH (gerritwatch.db), GERRITWATCH_POLL_CONCURRENCY (4),
// GERRITWATCH_LOG_LEVEL (info), GERRITWATCH_REFRESH_TIME (30).
// GERRITWATCH_SECRET_KEY, when set, must be 64 hex characters (32 bytes).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("GERRITWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "gerritwatch.db"
	if v, ok := os.LookupEnv("GERRITWATCH_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v := os.Getenv("GERRITWATCH_SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("GERRITWATCH_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("GERRITWATCH_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	concurrency, err := positiveInt("GERRITWATCH_POLL_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	refreshTime, err := positiveInt("GERRITWATCH_REFRESH_TIME", model.DefaultRefreshTime)
	if err != nil {
		return nil, err
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GERRITWATCH_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("GERRITWATCH_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		SecretKey:       secretKey,
		PollConcurrency: concurrency,
		LogLevel:        logLevel,
		Endpoint:        strings.TrimSpace(os.Getenv("GERRITWATCH_ENDPOINT")),
		Email:           os.Getenv("GERRITWATCH_EMAIL"),
		Password:        os.Getenv("GERRITWATCH_PASSWORD"),
		RefreshTime:     refreshTime,
	}, nil
}

// positiveInt reads an optional positive integer variable.
func positiveInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
