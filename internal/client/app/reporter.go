package app

import (
	"context"
	"log/slog"
)

// Severity of a reported failure.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

func (s Severity) level() slog.Level {
	switch s {
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Reporter receives failures that are not shown to the user directly.
type Reporter interface {
	Report(sev Severity, component, message string, err error)
}

// SlogReporter writes reports to a structured logger.
type SlogReporter struct {
	log *slog.Logger
}

func NewSlogReporter(log *slog.Logger) *SlogReporter {
	if log == nil {
		log = slog.Default()
	}
	return &SlogReporter{log: log}
}

func (r *SlogReporter) Report(sev Severity, component, message string, err error) {
	attrs := []slog.Attr{slog.String("component", component)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.log.LogAttrs(context.Background(), sev.level(), message, attrs...)
}
