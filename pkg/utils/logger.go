package utils

import "go.uber.org/zap"

// NewLogger returns the process logger: zap's development config (console,
// debug level) when debug is set, the production JSON config otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
