// Package logging provides the diagnostic logger used by spanz internals.
// It uses logrus under the hood.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the subset of logrus used for diagnostics. Tracing must never
// break the traced application, so every soft failure ends up here instead
// of being returned to the caller.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
}

type logger struct {
	*logrus.Logger
}

// New returns a Logger writing text records at or above level to w.
func New(w io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	return &logger{Logger: l}
}

// NewDefault returns a Logger writing warnings and errors to stderr.
func NewDefault() Logger {
	return New(os.Stderr, logrus.WarnLevel)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return New(io.Discard, logrus.PanicLevel)
}

// ParseLevel converts a level name ("debug", "info", ...) into a logrus level,
// falling back to info for unknown names.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
