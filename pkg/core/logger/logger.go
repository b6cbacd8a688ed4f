package logger

import (
	"fmt"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger and installs it as the zap global.
// Every entry carries the service identity so that logs of the four services
// can share one sink.
func newLogger(conf Config, app coreconfig.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	if err := conf.Validate(); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("logger configuration validation failed: %w", err)
	}

	zc := zap.NewProductionConfig()
	if conf.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level := zap.NewAtomicLevelAt(conf.Level)
	zc.Level = level
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.InitialFields = identityFields(app)

	if len(conf.OutputPaths) > 0 {
		zc.OutputPaths = conf.OutputPaths
	}
	if len(conf.ErrorOutputPaths) > 0 {
		zc.ErrorOutputPaths = conf.ErrorOutputPaths
	}

	log, err := zc.Build(zap.AddCaller(), zap.AddStacktrace(conf.StacktraceLevel))
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	zap.ReplaceGlobals(log)

	log.Info("logger initialized",
		zap.Stringer("level", conf.Level),
		zap.Bool("development", conf.Development),
	)
	return log, level, nil
}

func identityFields(app coreconfig.AppConfig) map[string]any {
	fields := map[string]any{}
	if app.ServiceName != "" {
		fields["service"] = app.ServiceName
	}
	if app.ServiceVersion != "" {
		fields["version"] = app.ServiceVersion
	}
	if app.Environment != "" {
		fields["env"] = string(app.Environment)
	}
	return fields
}
