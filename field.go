package formz

// FieldState is a read-only snapshot of one field.
type FieldState struct {
	Key     FieldKey
	Value   string
	Status  Status
	Errors  ErrorBag
	Enabled bool
	Touched bool
}

// Valid reports whether the snapshot would pass submission.
func (s FieldState) Valid() bool {
	return !s.Enabled || (s.Status != StatusPending && s.Errors.Empty())
}

// field is the mutable state of one form field. It is owned by a Form and
// only touched under the form's lock.
type field struct {
	key     FieldKey
	value   string
	errors  ErrorBag
	rules   []Rule
	enabled bool
	touched bool
	pending bool
}

func newField(key FieldKey) *field {
	return &field{
		key:     key,
		rules:   Rules(key),
		enabled: true,
	}
}

// validate merges the outcome of every synchronous rule into the bag.
// Kinds owned by other sources (async, listeners) are left alone.
// Disabled fields carry no errors.
func (f *field) validate() {
	if !f.enabled {
		f.errors = nil
		f.pending = false
		return
	}
	for _, r := range f.rules {
		f.errors = r.apply(f.errors, f.value)
	}
}

func (f *field) status() Status {
	switch {
	case f.pending:
		return StatusPending
	case !f.touched:
		return StatusUntouched
	case f.errors.Empty():
		return StatusValid
	default:
		return StatusInvalid
	}
}

func (f *field) valid() bool {
	return !f.enabled || (!f.pending && f.errors.Empty())
}

// reset returns the field to its initial empty, untouched state.
func (f *field) reset() {
	f.value = ""
	f.errors = nil
	f.touched = false
	f.pending = false
}

func (f *field) snapshot() FieldState {
	return FieldState{
		Key:     f.key,
		Value:   f.value,
		Status:  f.status(),
		Errors:  f.errors.clone(),
		Enabled: f.enabled,
		Touched: f.touched,
	}
}
