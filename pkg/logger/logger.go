package logger

import (
	"fmt"

	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Debugf(template string, args ...interface{})
	With(args ...interface{}) Logger
	Sync() error
}

type ZapLogger struct {
	*zap.SugaredLogger
}

func New(cfg config.Logger) (ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return ZapLogger{}, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	l, err := zcfg.Build()
	if err != nil {
		return ZapLogger{}, fmt.Errorf("build logger error: %w", err)
	}

	return ZapLogger{l.Sugar()}, nil
}

// Nop discards everything. Used by tests and tools that do not need output.
func Nop() ZapLogger {
	return ZapLogger{zap.NewNop().Sugar()}
}

func (zl ZapLogger) With(args ...interface{}) Logger {
	return ZapLogger{zl.SugaredLogger.With(args...)}
}
