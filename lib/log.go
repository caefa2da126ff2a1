package wallpaperlib

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger logs to stderr, and also to LogFile when one is configured
func NewLogger(c *Config, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = !debug

	if c.LogFile != "" {
		zc.OutputPaths = append(zc.OutputPaths, c.LogFile)
		zc.ErrorOutputPaths = append(zc.ErrorOutputPaths, c.LogFile)
	}

	return zc.Build()
}
