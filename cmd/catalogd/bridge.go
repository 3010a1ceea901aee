package main

import (
	"context"
	"log/slog"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/formz"
)

// bridgeSignals forwards form signals to logger.
func bridgeSignals(logger *slog.Logger) {
	capitan.Hook(formz.SubmitSucceeded, func(_ context.Context, e *capitan.Event) {
		mode, _ := formz.KeyMode.From(e)
		id, _ := formz.KeyItemID.From(e)
		took, _ := formz.KeyDuration.From(e)
		logger.Info("item submitted", "mode", mode, "id", id, "duration", took)
	})

	capitan.Hook(formz.SubmitRejected, func(_ context.Context, e *capitan.Event) {
		errs, _ := formz.KeyErrors.From(e)
		logger.Warn("draft rejected by validation", "errors", errs)
	})

	capitan.Hook(formz.SubmitFailed, func(_ context.Context, e *capitan.Event) {
		id, _ := formz.KeyItemID.From(e)
		msg, _ := formz.KeyError.From(e)
		logger.Error("submit failed", "id", id, "error", msg)
	})

	capitan.Hook(formz.UniquenessFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := formz.KeyError.From(e)
		logger.Warn("identifier lookup failed", "error", msg)
	})

	capitan.Hook(formz.DraftRejected, func(_ context.Context, e *capitan.Event) {
		msg, _ := formz.KeyError.From(e)
		logger.Warn("draft could not be decoded", "error", msg)
	})

	capitan.Hook(formz.FieldStatusChanged, func(_ context.Context, e *capitan.Event) {
		field, _ := formz.KeyField.From(e)
		from, _ := formz.KeyOldStatus.From(e)
		to, _ := formz.KeyNewStatus.From(e)
		logger.Debug("field status changed", "field", field, "from", from, "to", to)
	})
}
