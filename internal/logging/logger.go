// Package logging builds ChemistFlow's process-wide zap.Logger.
//
// Grounded on codenerd's cmd/nerd/main.go, which builds a
// zap.NewProductionConfig() logger with an AtomicLevel bumped to Debug
// under a --verbose flag. ChemistFlow generalizes the level switch to
// a logging.level config key and, unlike codenerd's package-level
// `logger` var, threads the *zap.Logger
// explicitly through every constructor instead of reading a global —
// every service in this module takes one at construction.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the logger's level and encoding.
type Config struct {
	Level string // "debug", "info", "warn", "error"; default "info"
	JSON  bool   // false selects zap's human-readable console encoding
}

// New builds a *zap.Logger from cfg. An AtomicLevel is used so the level
// can be raised or lowered at runtime (e.g. from an admin endpoint),
// though ChemistFlow does not currently expose one.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if !cfg.JSON {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return logger, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}
	return lvl, nil
}
