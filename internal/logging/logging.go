package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func BuildDevelopmentLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config.Build()
}

func BuildProductionLogger(outputFilePath string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{outputFilePath}
	return cfg.Build()
}

// BuildLogger returns a nop logger when disabled, a JSON file logger when
// outputFilePath is set and a console logger otherwise.
func BuildLogger(enabled bool, outputFilePath string) (*zap.Logger, error) {
	if !enabled {
		return zap.NewNop(), nil
	}

	if outputFilePath != "" {
		return BuildProductionLogger(outputFilePath)
	}

	return BuildDevelopmentLogger()
}

// ReplaceGlobals builds the logger and installs it as zap's global logger.
// On failure the global logger is left as a nop logger.
func ReplaceGlobals(enabled bool, outputFilePath string) (*zap.Logger, error) {
	logger, err := BuildLogger(enabled, outputFilePath)
	if err != nil {
		logger = zap.NewNop()
	}
	zap.ReplaceGlobals(logger)
	return logger, err
}
