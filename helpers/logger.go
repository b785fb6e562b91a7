package helpers

import (
	"brickwatch/legodealworker/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(source string, err error)
	LogInfo(format string, args ...interface{})
}

// ZerologAdapter adapts the application logger to LoggerInterface
type ZerologAdapter struct{}

// LogError logs an error with the source that produced it
func (ZerologAdapter) LogError(source string, err error) {
	logger.LogError(source, err, "operation failed")
}

// LogInfo logs an informational message
func (ZerologAdapter) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
