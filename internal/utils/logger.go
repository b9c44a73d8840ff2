package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleEncodingName selects zap's plain console encoder for terminal output.
const consoleEncodingName = "console"

// NewApplicationLogger builds the zap logger used by the contextify entry
// point. Output is plain console text carrying only the message, since
// the capture document itself goes to the sink, not the logger.
func NewApplicationLogger() (*zap.Logger, error) {
	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Encoding = consoleEncodingName
	loggerConfiguration.DisableCaller = true
	loggerConfiguration.DisableStacktrace = true
	loggerConfiguration.EncoderConfig = zapcore.EncoderConfig{
		MessageKey:  "message",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	return loggerConfiguration.Build()
}
