package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger appropriate for the given environment:
// JSON output at info level in production, console output at debug
// level everywhere else.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
