// Package logging builds the shared zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a production logger in release mode and a development logger
// otherwise.
func New(ginMode string) (*zap.Logger, error) {
	if ginMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must panics if the logger cannot be constructed. Used only at startup.
func Must(ginMode string) *zap.Logger {
	logger, err := New(ginMode)
	if err != nil {
		panic(err)
	}
	return logger
}
