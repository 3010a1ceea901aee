package formz

import (
	"fmt"
	"sync"
	"time"
)

// CollaboratorError records a failed call to the catalog.
type CollaboratorError struct {
	// Op is the catalog operation: "lookup", "load", "create" or "update".
	Op string
	// ItemID is the identifier the call was made for.
	ItemID string
	// At is when the failure was recorded, per the form clock.
	At  time.Time
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// errorRing is a thread-safe ring buffer of recent collaborator errors.
type errorRing struct {
	mu     sync.RWMutex
	errors []*CollaboratorError
	size   int
	head   int
	count  int
}

// newErrorRing creates a ring with the given capacity.
// If size is 0, the ring is disabled and every method is a no-op.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{
		errors: make([]*CollaboratorError, size),
		size:   size,
	}
}

func (r *errorRing) push(err *CollaboratorError) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors[r.head] = err
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *errorRing) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.errors {
		r.errors[i] = nil
	}
	r.head = 0
	r.count = 0
}

// all returns the recorded errors, oldest first.
func (r *errorRing) all() []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	result := make([]error, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		result[i] = r.errors[(start+i)%r.size]
	}
	return result
}
