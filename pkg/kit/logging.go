package kit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envProduction = "production"

// NewLogger builds the service logger: JSON in production, coloured console
// output otherwise. Output goes to stdout unless paths are given.
func NewLogger(service, env string, outputPaths ...string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == envProduction {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.InitialFields = map[string]any{"service": service}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
	}

	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// MustLogger is NewLogger falling back to a bare production logger.
func MustLogger(service, env string, outputPaths ...string) *zap.Logger {
	l, err := NewLogger(service, env, outputPaths...)
	if err != nil {
		l, _ = zap.NewProduction()
		l = l.With(zap.String("service", service))
	}
	return l
}
