package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger adapts a zap logger to Logger. A nil logger yields NopLogger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return zapLogger{l: l}
}

// Development returns a human-readable logger at the given level, for tools.
func Development(level zapcore.Level) (Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

func (z zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZap(fields)...) }
func (z zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, toZap(fields)...) }
func (z zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, toZap(fields)...) }
func (z zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, toZap(fields)...) }

func (z zapLogger) With(fields ...Field) Logger {
	return zapLogger{l: z.l.With(toZap(fields)...)}
}

func toZap(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
