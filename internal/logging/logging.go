// Package logging builds the pipeline's two-sink logger: a human-readable
// console stream and a size-rotated file, so ingestion history survives
// process restarts up to the configured retention.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger sinks.
type Options struct {
	// Level is the minimum level for both sinks ("debug", "info",
	// "warn", "error"). Info when empty.
	Level string

	// File is the rotated log file path. Empty disables the file sink.
	File string

	// MaxSizeMB is the size a log file may reach before rotation.
	MaxSizeMB int

	// MaxBackups is how many rotated files are kept; the oldest is
	// dropped once the count is exceeded.
	MaxBackups int
}

// New builds the logger. The console core writes human-readable lines to
// stderr; the file core writes JSON records through a size-bounded rotator.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			level,
		),
	}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 1
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    maxSize,
				MaxBackups: maxBackups,
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
