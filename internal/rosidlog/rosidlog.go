// Package rosidlog provides the structured logger used across the storage
// engine, routing error-level output to stderr and everything else to
// stdout so container log collectors can treat the two streams
// differently.
package rosidlog

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// Config selects the logger's level and format.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// outputSplitter routes formatted log lines to stderr when they carry
// "level=error" (text format) or "level":"error" (JSON format), and to
// stdout otherwise.
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// New builds a logger per cfg, with output split between stdout and stderr.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(outputSplitter{})

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return l
}
