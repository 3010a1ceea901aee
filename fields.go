package formz

import "github.com/zoobzio/capitan"

// Field keys for form events.
var (
	// KeyMode is the form mode.
	KeyMode = capitan.NewStringKey("mode")

	// KeyItemID is the identifier of the item being edited.
	KeyItemID = capitan.NewStringKey("item_id")

	// KeyField is the name of the field an event refers to.
	KeyField = capitan.NewStringKey("field")

	// KeyStatus is the current status of a field.
	KeyStatus = capitan.NewStringKey("status")

	// KeyOldStatus is the status before a transition.
	KeyOldStatus = capitan.NewStringKey("old_status")

	// KeyNewStatus is the status after a transition.
	KeyNewStatus = capitan.NewStringKey("new_status")

	// KeyErrors is the comma separated list of active error kinds.
	KeyErrors = capitan.NewStringKey("errors")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyToken is the uniqueness cycle token.
	KeyToken = capitan.NewIntKey("token")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyDuration is the time an operation took.
	KeyDuration = capitan.NewDurationKey("duration")
)
