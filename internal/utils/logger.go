// Package utils provides logging and catalog import helpers for the qualification engine.
package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Services receive children via Named.
var Logger *zap.Logger

// InitLogger builds the global logger at the given level ("debug", "info", "warn", "error").
func InitLogger(level string) error {
	zapLevel := parseLevel(level)

	// Lambda and containers get JSON; a terminal gets colored console output
	structured := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || os.Getenv("LOG_FORMAT") == "json"

	var config zap.Config
	if structured {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build(zap.Fields(zap.String("service", "dexter")))
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger returns the global logger. Lambdas that skip InitLogger get info level.
func GetLogger() *zap.Logger {
	if Logger == nil {
		_ = InitLogger("info")
	}
	return Logger
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return GetLogger().Named(component)
}

// Sync flushes buffered entries; call it deferred from main.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
