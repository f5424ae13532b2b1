package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a JSON logger at info level in production and a console
// logger at debug level elsewhere. LOG_LEVEL overrides the level.
func NewLogger(env string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" || env == "prod" {
		cfg = zap.NewProductionConfig()
	}
	if lvl := envStr("LOG_LEVEL", ""); lvl != "" {
		var l zapcore.Level
		if err := l.Set(lvl); err != nil {
			return nil, fmt.Errorf("config.NewLogger: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(l)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("config.NewLogger: %w", err)
	}
	return log.With(zap.String("env", env)), nil
}
