package logger

import (
	"fmt"
	"strings"

	"github.com/bnema/browserfarm-cli/internal/ports"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ZapLogger adapts a sugared zap logger to ports.Logger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New builds a logger writing to stderr. format is "text" or "json".
func New(level, format string) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case FormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &ZapLogger{logger: logger.Sugar()}, nil
}

// NewFromCore wraps an existing core, mostly for tests.
func NewFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core).Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) With(keysAndValues ...any) ports.Logger {
	return &ZapLogger{logger: l.logger.With(keysAndValues...)}
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func (l *ZapLogger) Sync() {
	_ = l.logger.Sync()
}

func Nop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}
