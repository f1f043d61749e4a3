package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines the knobs for building the shared zap logger.
type Config struct {
	// Component identifies the emitting subsystem (e.g., "admin-api").
	Component string
	// Level controls the minimum severity ("debug", "info", "warn", "error").
	Level string
}

// NewLogger builds a structured JSON zap logger writing to stdout.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	} else if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "severity",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.Component != "" {
		logger = logger.With(zap.String("component", cfg.Component))
	}

	return logger, nil
}
