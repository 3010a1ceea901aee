package formz

import (
	"slices"
	"strings"
)

// ErrorKind names a single validation failure.
type ErrorKind string

// Error kinds produced by the engine.
const (
	KindRequired     ErrorKind = "required"
	KindMinLength    ErrorKind = "minLength"
	KindMaxLength    ErrorKind = "maxLength"
	KindMinDate      ErrorKind = "minDate"
	KindDate         ErrorKind = "date"
	KindIDExists     ErrorKind = "idExists"
	KindOneYearAfter ErrorKind = "oneYearAfter"
)

// ErrorBag is the set of error kinds currently active on a field or on
// the form as a whole. A nil bag means "no errors"; the operations below
// never return an empty non-nil bag.
//
// ErrorBag is treated as a value: Set, Clear and Merge return a new bag
// and leave the receiver untouched.
type ErrorBag map[ErrorKind]bool

// Has reports whether kind is present.
func (b ErrorBag) Has(kind ErrorKind) bool {
	return b[kind]
}

// Empty reports whether the bag carries no errors.
func (b ErrorBag) Empty() bool {
	return len(b) == 0
}

// Set returns a bag with kind added. Other kinds are preserved.
func (b ErrorBag) Set(kind ErrorKind) ErrorBag {
	if b.Has(kind) {
		return b.clone()
	}
	out := make(ErrorBag, len(b)+1)
	for k := range b {
		out[k] = true
	}
	out[kind] = true
	return out
}

// Clear returns a bag with kind removed. Other kinds are preserved.
// Clearing the last kind returns nil.
func (b ErrorBag) Clear(kind ErrorKind) ErrorBag {
	if len(b) == 0 {
		return nil
	}
	out := make(ErrorBag, len(b))
	for k := range b {
		if k != kind {
			out[k] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge returns the union of both bags.
func (b ErrorBag) Merge(other ErrorBag) ErrorBag {
	out := b.clone()
	for k := range other {
		out = out.Set(k)
	}
	return out
}

// Apply sets kind when failed is true and clears it otherwise.
func (b ErrorBag) Apply(kind ErrorKind, failed bool) ErrorBag {
	if failed {
		return b.Set(kind)
	}
	return b.Clear(kind)
}

// Kinds returns the active kinds in lexical order.
func (b ErrorBag) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(b))
	for k := range b {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// String renders the bag as a comma separated kind list.
func (b ErrorBag) String() string {
	kinds := b.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func (b ErrorBag) clone() ErrorBag {
	if len(b) == 0 {
		return nil
	}
	out := make(ErrorBag, len(b))
	for k := range b {
		out[k] = true
	}
	return out
}
