package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAddr            = "PERMAUTHZ_ADDR"
	envPolicy          = "PERMAUTHZ_POLICY"
	envTokenHeader     = "PERMAUTHZ_TOKEN_HEADER"
	envLogLevel        = "PERMAUTHZ_LOG_LEVEL"
	envReadTimeout     = "PERMAUTHZ_READ_TIMEOUT"
	envWriteTimeout    = "PERMAUTHZ_WRITE_TIMEOUT"
	envShutdownTimeout = "PERMAUTHZ_SHUTDOWN_TIMEOUT"
)

const (
	defaultAddr            = ":8080"
	defaultPolicy          = "policy.yaml"
	defaultTokenHeader     = "TOKEN"
	defaultLogLevel        = "info"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr            string
	PolicyPath      string
	TokenHeader     string
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoadEnvFile loads path into the process environment without
// overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv(envAddr, defaultAddr),
		PolicyPath:  getEnv(envPolicy, defaultPolicy),
		TokenHeader: getEnv(envTokenHeader, defaultTokenHeader),
		LogLevel:    getEnv(envLogLevel, defaultLogLevel),
	}

	var errs []error
	for _, d := range []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{envReadTimeout, defaultReadTimeout, &cfg.ReadTimeout},
		{envWriteTimeout, defaultWriteTimeout, &cfg.WriteTimeout},
		{envShutdownTimeout, defaultShutdownTimeout, &cfg.ShutdownTimeout},
	} {
		value, err := getDurationEnv(d.key, d.fallback)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*d.dst = value
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New(envAddr + " must be set")
	}
	if c.PolicyPath == "" {
		return errors.New(envPolicy + " must be set")
	}
	if c.TokenHeader == "" {
		return errors.New(envTokenHeader + " must be set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, t := range []struct {
		key   string
		value time.Duration
	}{
		{envReadTimeout, c.ReadTimeout},
		{envWriteTimeout, c.WriteTimeout},
		{envShutdownTimeout, c.ShutdownTimeout},
	} {
		if t.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", t.key, t.value)
		}
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("%s: unknown log level %q", envLogLevel, name)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// getDurationEnv returns fallback only when key is unset or blank; a
// value that is set but unusable is an error.
func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, value)
	}
	return d, nil
}
