package notify

import (
	"context"
	"log/slog"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Event captures the canonical data we emit when a request ultimately
// fails: one event per terminal failure, never a raw fault message.
type Event struct {
	Title      string
	Message    string
	Severity   string
	Code       string
	OccurredAt time.Time
}

// Sink describes a destination capable of consuming failure events.
type Sink interface {
	SendFailure(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, event Event) error

// SendFailure implements the Sink interface.
func (f SinkFunc) SendFailure(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// SlogSink writes failure events to the structured log. It is the default
// sink and is always safe to use.
type SlogSink struct {
	Logger *slog.Logger
}

// SendFailure implements the Sink interface.
func (s SlogSink) SendFailure(ctx context.Context, event Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "request failure",
		slog.String("title", event.Title),
		slog.String("message", event.Message),
		slog.String("severity", event.Severity),
		slog.String("code", event.Code),
	)
	return nil
}

// Fanout delivers each event to every sink, returning the first error after
// all sinks have been attempted.
type Fanout []Sink

// SendFailure implements the Sink interface.
func (f Fanout) SendFailure(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.SendFailure(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
