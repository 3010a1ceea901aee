package formz

// Status represents the validation status of a single field.
type Status int32

const (
	// StatusUntouched indicates the field has not been edited or surfaced
	// by a submit attempt. Errors may exist but are not yet reported.
	StatusUntouched Status = iota

	// StatusPending indicates an asynchronous check is outstanding for the
	// field. A pending field is never considered valid.
	StatusPending

	// StatusValid indicates the field is touched and carries no errors.
	StatusValid

	// StatusInvalid indicates the field is touched and carries at least
	// one error kind.
	StatusInvalid
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUntouched:
		return "untouched"
	case StatusPending:
		return "pending"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Mode is the structural mode of a form, fixed when the form opens.
type Mode int32

const (
	// ModeCreate edits a new item. Every field is enabled and the
	// identifier is checked for uniqueness.
	ModeCreate Mode = iota

	// ModeEdit edits an existing item. The identifier is disabled and
	// fixed to the loaded item.
	ModeEdit
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "unknown"
	}
}
