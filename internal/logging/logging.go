package logging

import (
	"io"
	"os"
	"strings"

	"github.com/franckalain/ecoscan/internal/config"
	"github.com/sirupsen/logrus"
)

// InitLogger initializes the standard logrus logger from the configuration.
// The returned closer releases a log file, if one was opened.
func InitLogger(cfg config.LoggingConfig) io.Closer {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var output io.Writer
	var closer io.Closer = nopCloser{}
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logrus.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
			closer = file
		}
	}
	logrus.SetOutput(output)

	logrus.Debug("Logger initialized successfully")
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
