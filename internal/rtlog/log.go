// Package rtlog is a small wrapper around logrus, used by every other
// package in this module instead of talking to logrus directly
// (open-policy-agent/opa's log/log.go is the model: a thin Logger
// interface plus a process-global default, so call sites never import
// logrus themselves).
package rtlog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields so call sites building structured context
// (an assembly path, a type Guid, a reload generation number) don't need
// their own import of logrus.
type Fields = logrus.Fields

// Logger is the subset of logrus's surface this module's packages use:
// leveled logging plus structured fields. Narrower than logrus's own
// interface on purpose — nothing here calls Panic or Fatal, since a
// reload failure is reported through an error return, never a process
// exit (spec.md §7: a failed reload "is aborted as a whole and logged;
// the runtime remains on the previous good state").
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(Fields) Logger
}

type logger struct {
	entry *logrus.Entry
}

// New creates a standalone Logger writing to w at the given level
// ("debug", "info", "warn", "error"). Runtime.Options uses this to let a
// host redirect or silence runtime logging without touching the global
// default.
func New(w io.Writer, level string) (Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)
	return logger{entry: logrus.NewEntry(l)}, nil
}

func (l logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l logger) WithField(key string, value interface{}) Logger {
	return logger{entry: l.entry.WithField(key, value)}
}

func (l logger) WithFields(fields Fields) Logger {
	return logger{entry: l.entry.WithFields(fields)}
}

var global = logger{entry: logrus.NewEntry(logrus.New())}

// Global returns the process-default Logger. Packages that don't hold an
// explicit *Logger (no Options were threaded in, typically in tests) log
// through this instead of silently discarding messages.
func Global() Logger {
	return global
}
