package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide structured logger. Production JSON output
// by default; set debug for human-readable console output during development.
func NewLogger(serviceName string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config = zap.NewDevelopmentConfig()
	}
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	return config.Build()
}
