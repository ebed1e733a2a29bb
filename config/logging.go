package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureLogging applies the logging settings to the standard logrus
// logger. The returned closer releases the log file, if one was opened, and
// must be closed after the last log call.
func ConfigureLogging(cfg *Config) (io.Closer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(cfg.LogFormat) {
	case FormatJSON:
		formatter = &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	case FormatText, "":
		formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		}
	default:
		return nil, fmt.Errorf("%w: log_format %q", ErrInvalidConfig, cfg.LogFormat)
	}

	var closer io.Closer = nopCloser{}
	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
		closer = f
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(output)
	return closer, nil
}
