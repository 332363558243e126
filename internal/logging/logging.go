// Package logging builds the zap logger shared by the CLI, the engine and
// the batch pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// FileConfig controls log file rotation. Zero fields take the defaults.
type FileConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns the rotation settings used when none are given.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
}

// Options configure New.
type Options struct {
	Verbose    bool   // console at debug level instead of warn
	FilePath   string // optional JSON log file, rotated by lumberjack
	FileConfig *FileConfig
}

// New returns a logger writing human-readable lines to stderr and, when
// FilePath is set, JSON lines to a rotating file. The file always
// receives debug-level entries.
func New(opts Options) (*zap.Logger, error) {
	consoleLevel := zapcore.WarnLevel
	if opts.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		consoleLevel,
	)

	if opts.FilePath == "" {
		return zap.New(console), nil
	}

	if dir := filepath.Dir(opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	cfg := DefaultFileConfig()
	if opts.FileConfig != nil {
		cfg = withDefaults(*opts.FileConfig)
	}
	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		NewFileWriter(opts.FilePath, cfg),
		zapcore.DebugLevel,
	)
	return zap.New(zapcore.NewTee(console, file), zap.AddCaller()), nil
}

// NewFileWriter returns a WriteSyncer that rotates path according to cfg.
func NewFileWriter(path string, cfg FileConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}

func withDefaults(cfg FileConfig) FileConfig {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}
	return cfg
}
