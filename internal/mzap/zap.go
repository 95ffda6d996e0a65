// Package mzap provides the zap-backed implementation of mlog.Logger.
package mzap

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// ZapLogger wraps a zap.SugaredLogger to satisfy mlog.Logger.
type ZapLogger struct {
	Logger *zap.SugaredLogger
}

// InitializeLogger builds a ZapLogger configured from ENV_NAME/LOG_LEVEL,
// mirroring the teacher's mzap.InitializeLogger.
func InitializeLogger() mlog.Logger {
	var cfg zap.Config

	if os.Getenv("ENV_NAME") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if val, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var lvl zapcore.Level
		if err := lvl.Set(val); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	return &ZapLogger{Logger: logger.Sugar()}
}

func (l *ZapLogger) Info(args ...any)                  { l.Logger.Info(args...) }
func (l *ZapLogger) Infof(format string, args ...any)  { l.Logger.Infof(format, args...) }
func (l *ZapLogger) Error(args ...any)                 { l.Logger.Error(args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.Logger.Errorf(format, args...) }
func (l *ZapLogger) Warn(args ...any)                  { l.Logger.Warn(args...) }
func (l *ZapLogger) Warnf(format string, args ...any)  { l.Logger.Warnf(format, args...) }
func (l *ZapLogger) Debug(args ...any)                 { l.Logger.Debug(args...) }
func (l *ZapLogger) Debugf(format string, args ...any) { l.Logger.Debugf(format, args...) }
func (l *ZapLogger) Fatal(args ...any)                 { l.Logger.Fatal(args...) }
func (l *ZapLogger) Fatalf(format string, args ...any) { l.Logger.Fatalf(format, args...) }

//nolint:ireturn
func (l *ZapLogger) WithFields(fields ...any) mlog.Logger {
	return &ZapLogger{Logger: l.Logger.With(fields...)}
}

func (l *ZapLogger) Sync() error { return l.Logger.Sync() }
