// Package config reads the service settings from the environment.
// Callers load .env first; values already in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	day = 24 * time.Hour

	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"
)

var ErrMissingSecret = errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required in production")

type Config struct {
	Env  string
	Port string

	AccessSecret  string
	RefreshSecret string
	// DevSecrets is set when the insecure development fallbacks are in use.
	DevSecrets bool

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration

	AccessCookieMaxAge  time.Duration
	RefreshCookieMaxAge time.Duration
	SessionCookieMaxAge time.Duration

	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	BcryptCost      int

	RateWindow    time.Duration
	APIRateLimit  int
	AuthRateLimit int
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// ConfigFromEnv builds Config from environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Env:  strings.ToLower(getenv("APP_ENV", EnvDevelopment)),
		Port: getenv("PORT", "5000"),
	}

	var err error
	if cfg.AccessTTL, err = durationEnv("ACCESS_TOKEN_EXPIRES_IN", day); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = durationEnv("REFRESH_TOKEN_EXPIRES_IN", 7*day); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_EXPIRES_IN", day); err != nil {
		return Config{}, err
	}
	if cfg.AccessCookieMaxAge, err = durationEnv("ACCESS_COOKIE_MAX_AGE", cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshCookieMaxAge, err = durationEnv("REFRESH_COOKIE_MAX_AGE", cfg.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionCookieMaxAge, err = durationEnv("SESSION_COOKIE_MAX_AGE", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	cfg.BcryptCost = 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("config: BCRYPT_COST %q out of range", v)
		}
		cfg.BcryptCost = n
	}

	cfg.AccessSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	cfg.RefreshSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		if cfg.IsProduction() {
			return Config{}, ErrMissingSecret
		}
		if cfg.AccessSecret == "" {
			cfg.AccessSecret = devAccessSecret
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = devRefreshSecret
		}
		cfg.DevSecrets = true
	}

	cfg.RateWindow = 15 * time.Minute
	if cfg.IsProduction() {
		cfg.APIRateLimit, cfg.AuthRateLimit = 100, 5
		cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	} else {
		cfg.APIRateLimit, cfg.AuthRateLimit = 1000, 50
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5000"}
		if extra := splitList(os.Getenv("ALLOWED_ORIGINS")); len(extra) > 0 {
			cfg.AllowedOrigins = extra
		}
	}
	return cfg, nil
}

// ParseDuration accepts Go durations ("15m"), whole days ("7d") and bare seconds ("3600").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * day, nil
	}
	return time.ParseDuration(s)
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
