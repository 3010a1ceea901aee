package formz

import "errors"

// Form lifecycle and input errors.
var (
	// ErrInvalid is returned by Submit when the form fails validation or
	// still has an outstanding asynchronous check. No collaborator call
	// is made.
	ErrInvalid = errors.New("form is invalid")

	// ErrNotOpen is returned when a form is used before Open.
	ErrNotOpen = errors.New("form not open")

	// ErrAlreadyOpen is returned by a second call to Open.
	ErrAlreadyOpen = errors.New("form already open")

	// ErrClosed is returned when a form is used after Close.
	ErrClosed = errors.New("form closed")

	// ErrUnknownField is returned for a field name the form does not own.
	ErrUnknownField = errors.New("unknown field")

	// ErrFieldDisabled is returned when a user edit targets a disabled field.
	ErrFieldDisabled = errors.New("field is disabled")
)

// Catalog collaborator errors. Backends return these so callers can
// distinguish missing and duplicate items from transport failures.
var (
	// ErrNotFound indicates no item exists for the identifier.
	ErrNotFound = errors.New("item not found")

	// ErrExists indicates an item already exists for the identifier.
	ErrExists = errors.New("item already exists")
)
