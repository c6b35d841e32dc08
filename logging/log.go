// Package logging wraps go.uber.org/zap so every engine constructor takes
// an explicit *Logger rather than reaching for a package-level global.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// A Level is a logging priority. Higher levels are more important.
type Level int8

// Logging levels, matching zap core internals.
const (
	DebugLevel Level = -1
	InfoLevel  Level = 0
	WarnLevel  Level = 1
	ErrorLevel Level = 2
	PanicLevel Level = 4
	FatalLevel Level = 5
)

func (l Level) zapLevel() zapcore.Level {
	return zapcore.Level(l)
}

// ParseLevel parses a level name as it would appear in config/toml.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "panic":
		return PanicLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case PanicLevel:
		return "panic"
	case FatalLevel:
		return "fatal"
	default:
		return "unknown"
	}
}

// Logger is a named, level-adjustable structured logger.
type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

// New builds a Logger around the given zap config.
func New(cfg *zap.Config) *Logger {
	built, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("logging: invalid zap config: %v", err))
	}
	return &Logger{Logger: built, config: cfg}
}

// NewLoggerFromConfig builds the default production or development logger
// depending on Config.Environment ("dev" enables console output; anything
// else gets JSON output). Both use Config.Level.
func NewLoggerFromConfig(cfg Config) *Logger {
	var zcfg zap.Config
	if cfg.Environment == "dev" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	return New(&zcfg)
}

func (log *Logger) clone() *Logger {
	c := *log.config
	newLogger, err := c.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: newLogger, config: &c, name: log.name}
}

// GetLevel returns the logger's current level.
func (log *Logger) GetLevel() Level {
	return Level(log.config.Level.Level())
}

// SetLevel adjusts the logger's level in place; all loggers sharing the
// same underlying atomic level (e.g. Named children) observe the change.
func (log *Logger) SetLevel(level Level) {
	log.config.Level.SetLevel(level.zapLevel())
}

// Named returns a child logger scoped under name, dotted onto any
// existing name (matching the teacher's Named-chain convention, e.g.
// "execution.nonce").
func (log *Logger) Named(name string) *Logger {
	c := log.clone()
	newName := name
	if log.name != "" {
		newName = log.name + "." + name
	}
	return &Logger{Logger: c.Logger.Named(newName), config: c.config, name: newName}
}

// With attaches structured fields to every subsequent log line.
func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.clone()
	return &Logger{Logger: c.Logger.With(fields...), config: c.config, name: log.name}
}

// AtExit flushes buffered log entries; call via defer from main().
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}
