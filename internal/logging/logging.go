// Package logging builds the shared logrus logger from gateway configuration.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
	"github.com/sirupsen/logrus"
)

// New creates a configured logger. Unknown levels fall back to info so a
// misconfigured deployment still logs.
func New(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	switch strings.ToLower(cfg.Output) {
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "", "stdout":
		logger.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.SetOutput(os.Stdout)
			logger.WithError(err).Warn(fmt.Sprintf("Failed to open log file %s, falling back to stdout", cfg.Output))
		} else {
			logger.SetOutput(file)
		}
	}

	return logger
}
