package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the global logrus logger from LogConfig.
func InitLogger(cfg LogConfig) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
