// Package report carries progress messages from the pipeline stages to the
// operator. Components receive a Reporter explicitly instead of writing to a
// shared console.
package report

import (
	"github.com/go-logr/logr"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

const severityKey = "severity"

type Reporter interface {
	Info(msg string, keysAndValues ...any)
	Warning(msg string, keysAndValues ...any)
	Success(msg string, keysAndValues ...any)
	Error(err error, msg string, keysAndValues ...any)
	// WithName returns a Reporter whose messages are attributed to the
	// named component.
	WithName(name string) Reporter
}

type logrReporter struct {
	logger logr.Logger
}

// New returns a Reporter writing through the given logr.Logger. Severities
// logr lacks are carried as a "severity" key.
func New(logger logr.Logger) Reporter {
	return &logrReporter{logger: logger}
}

// Discard returns a Reporter that drops every message.
func Discard() Reporter {
	return New(logr.Discard())
}

func (r *logrReporter) Info(msg string, keysAndValues ...any) {
	r.logger.Info(msg, keysAndValues...)
}

func (r *logrReporter) Warning(msg string, keysAndValues ...any) {
	r.logger.Info(msg, append([]any{severityKey, SeverityWarning}, keysAndValues...)...)
}

func (r *logrReporter) Success(msg string, keysAndValues ...any) {
	r.logger.Info(msg, append([]any{severityKey, SeveritySuccess}, keysAndValues...)...)
}

func (r *logrReporter) Error(err error, msg string, keysAndValues ...any) {
	r.logger.Error(err, msg, keysAndValues...)
}

func (r *logrReporter) WithName(name string) Reporter {
	return &logrReporter{logger: r.logger.WithName(name)}
}
