package utilities

import (
	"fmt"
	"os"
	"strconv"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string
	Dev   bool
	// File enables a daily-rotated log file next to stdout, e.g. "logs/auth.log".
	File       string
	MaxAgeDays int
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() Config {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	maxAge := 7
	if v, err := strconv.Atoi(os.Getenv("LOG_MAX_AGE_DAYS")); err == nil && v > 0 {
		maxAge = v
	}
	return Config{Level: lvl, Dev: dev, File: os.Getenv("LOG_FILE"), MaxAgeDays: maxAge}
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev && cfg.File == "" {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)
	if cfg.File != "" {
		rl, err := newRotatingWriter(cfg.File, cfg.MaxAgeDays)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rl), lvl)
		core = zapcore.NewTee(core, fileCore)
	}
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

// newRotatingWriter rotates daily; path is used as the symlink to the current file.
func newRotatingWriter(path string, maxAgeDays int) (*rotatelogs.RotateLogs, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = 7
	}
	rl, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("rotatelogs: %w", err)
	}
	return rl, nil
}
