package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/occupancy-scheduler/internal/logging"
	"github.com/example/occupancy-scheduler/internal/recurrence"
	"github.com/example/occupancy-scheduler/internal/scheduler"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, timeline.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSlotWithinHorizon):
		return "no_slot_within_horizon"
	case errors.Is(err, scheduler.ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, recurrence.ErrInvalidRecurrenceSpec), errors.Is(err, recurrence.ErrInvalidFrequency):
		return "invalid_recurrence"
	case errors.Is(err, recurrence.ErrUnsupportedRule):
		return "unsupported_rule"
	case errors.Is(err, timeline.ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
