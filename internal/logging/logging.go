// Package logging builds the application zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/planner/internal/model"
)

// New returns a JSON logger writing to cfg.File at cfg.Level. When
// alsoStderr is set, a console encoder mirrors entries to stderr; the TUI
// leaves it off because it owns the terminal. An empty File with
// alsoStderr off discards everything.
func New(cfg model.LogConfig, alsoStderr bool) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var (
		cores   []zapcore.Core
		closers []func()
	)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closers = append(closers, func() { _ = f.Close() })

		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), level))
	}

	if alsoStderr {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		for _, c := range closers {
			c()
		}
	}
	return logger, cleanup, nil
}
