package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logDirMode = 0o700

type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// File, when set, receives the log instead of stderr. "stderr" and
	// "stdout" name the standard streams.
	File string
}

func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil

	if path := strings.TrimSpace(cfg.File); path != "" {
		if path != "stderr" && path != "stdout" {
			if err := os.MkdirAll(filepath.Dir(path), logDirMode); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		config.OutputPaths = []string{path}
		config.ErrorOutputPaths = []string{path}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func ParseLevel(raw string) (zapcore.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return zapcore.InfoLevel, nil
	}

	switch trimmed {
	case "debug", "info", "warn", "error":
		level, err := zapcore.ParseLevel(trimmed)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("parse log level: %w", err)
		}
		return level, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level %q (use debug, info, warn or error)", raw)
	}
}
