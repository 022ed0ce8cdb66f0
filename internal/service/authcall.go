package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	"github.com/europgreen/portal-gateway/internal/observability/notify"
)

// CredentialRefresher is the slice of the session store the call wrapper
// needs.
type CredentialRefresher interface {
	RefreshToken(ctx context.Context) error
}

// CallDeps groups collaborators for Do.
type CallDeps struct {
	Session  CredentialRefresher
	Notifier notify.Sink
	Logger   *slog.Logger
}

// Do executes a request thunk, making credential expiry transparent to the
// caller. On a credential rejection it refreshes once and retries once;
// any terminal failure is reported to the notifier and surfaces as
// (zero, false) rather than a propagated fault. At most one
// refresh-and-retry cycle runs per call; a second failure is conclusive.
func Do[T any](ctx context.Context, deps CallDeps, fn func(context.Context) (T, error)) (T, bool) {
	var zero T

	value, err := fn(ctx)
	if err == nil {
		return value, true
	}

	if !apperrors.IsCode(err, apperrors.ErrCodeCredentialRejected) {
		reportFailure(ctx, deps, err)
		return zero, false
	}

	if refreshErr := deps.Session.RefreshToken(ctx); refreshErr != nil {
		reportFailure(ctx, deps, refreshErr)
		return zero, false
	}

	value, err = fn(ctx)
	if err != nil {
		reportFailure(ctx, deps, err)
		return zero, false
	}
	return value, true
}

// reportFailure emits exactly one structured event per terminal failure.
func reportFailure(ctx context.Context, deps CallDeps, err error) {
	event := failureEvent(err)
	if deps.Logger != nil {
		deps.Logger.WarnContext(ctx, "authorized call failed",
			slog.String("code", event.Code),
			slog.Any("error", err),
		)
	}
	if deps.Notifier == nil {
		return
	}
	if sendErr := deps.Notifier.SendFailure(ctx, event); sendErr != nil && deps.Logger != nil {
		deps.Logger.WarnContext(ctx, "failure notification not delivered", slog.Any("error", sendErr))
	}
}

// failureEvent classifies a terminal failure into the user-facing event
// handed to the notification collaborator.
func failureEvent(err error) notify.Event {
	code := apperrors.CodeOf(err)
	event := notify.Event{
		Title:      "Erreur",
		Severity:   notify.SeverityError,
		Code:       string(code),
		OccurredAt: time.Now().UTC(),
	}

	switch code {
	case apperrors.ErrCodeServer:
		event.Message = msgServerError
	case apperrors.ErrCodeConnectivity:
		event.Message = msgConnectivityError
	case apperrors.ErrCodeValidation:
		event.Message = validationMessage(err)
	default:
		// Refresh failures land here too: the session is gone and the
		// caller's view will bounce through the guard on its next
		// navigation.
		event.Message = msgServerError
	}
	return event
}

func validationMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Field != "" {
			return appErr.Field + ": " + appErr.Message
		}
		return appErr.Message
	}
	return msgServerError
}
