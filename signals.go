package formz

import "github.com/zoobzio/capitan"

// Form lifecycle signals.
var (
	// FormOpened is emitted when a form finishes initialization.
	FormOpened = capitan.NewSignal(
		"formz.form.opened",
		"Form opened",
	)

	// FormClosed is emitted when a form is torn down.
	FormClosed = capitan.NewSignal(
		"formz.form.closed",
		"Form closed",
	)

	// FormLoadFailed is emitted when the item for an edit form cannot be fetched.
	FormLoadFailed = capitan.NewSignal(
		"formz.form.load.failed",
		"Item fetch for edit mode failed",
	)

	// FormReset is emitted after Reset clears the editable fields.
	FormReset = capitan.NewSignal(
		"formz.form.reset",
		"Form reset",
	)
)

// Field signals.
var (
	// FieldChanged is emitted when a field value changes.
	FieldChanged = capitan.NewSignal(
		"formz.field.changed",
		"Field value changed",
	)

	// FieldStatusChanged is emitted when a field transitions between statuses.
	FieldStatusChanged = capitan.NewSignal(
		"formz.field.status.changed",
		"Field status transition",
	)
)

// Uniqueness check signals.
var (
	// UniquenessScheduled is emitted when a debounced lookup is (re)started.
	UniquenessScheduled = capitan.NewSignal(
		"formz.uniqueness.scheduled",
		"Identifier lookup scheduled",
	)

	// UniquenessResolved is emitted when the latest lookup result is applied.
	UniquenessResolved = capitan.NewSignal(
		"formz.uniqueness.resolved",
		"Identifier lookup applied",
	)

	// UniquenessDiscarded is emitted when a superseded lookup result arrives.
	UniquenessDiscarded = capitan.NewSignal(
		"formz.uniqueness.discarded",
		"Stale identifier lookup dropped",
	)

	// UniquenessFailed is emitted when the lookup collaborator returns an error.
	UniquenessFailed = capitan.NewSignal(
		"formz.uniqueness.failed",
		"Identifier lookup failed",
	)
)

// Submission signals.
var (
	// SubmitRejected is emitted when Submit finds the form invalid.
	SubmitRejected = capitan.NewSignal(
		"formz.submit.rejected",
		"Submit rejected by validation",
	)

	// SubmitSucceeded is emitted when the catalog accepts a submission.
	SubmitSucceeded = capitan.NewSignal(
		"formz.submit.succeeded",
		"Submit succeeded",
	)

	// SubmitFailed is emitted when the catalog rejects a submission.
	SubmitFailed = capitan.NewSignal(
		"formz.submit.failed",
		"Submit failed",
	)
)

// Draft signals.
var (
	// DraftReceived is emitted when a bound watcher delivers a draft.
	DraftReceived = capitan.NewSignal(
		"formz.draft.received",
		"Draft received from watcher",
	)

	// DraftRejected is emitted when a draft cannot be decoded.
	DraftRejected = capitan.NewSignal(
		"formz.draft.rejected",
		"Draft decode failed",
	)
)
