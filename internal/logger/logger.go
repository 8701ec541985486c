// Package logger builds the zap loggers used by the wikiquery binaries.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/wikiquery/internal/version"
)

// Options tune a logger beyond its environment defaults.
type Options struct {
	// Level overrides the environment level: debug, info, warn or error.
	Level string
	// Component names the binary, e.g. "api" or "provision".
	Component string
}

// New creates a zap logger for the given environment.
// prod writes JSON, local/dev/docker write colored console output.
// Every entry carries the service name, component and build version.
func New(env string, opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	fields := []zap.Field{
		zap.String("service", "wikiquery"),
		zap.String("version", version.Version),
	}
	if opts.Component != "" {
		fields = append(fields, zap.String("component", opts.Component))
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
