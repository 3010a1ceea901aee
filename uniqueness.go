package formz

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/zoobzio/clockz"
)

// LookupFunc reports whether an identifier is already assigned.
type LookupFunc func(ctx context.Context, id string) (bool, error)

// Token identifies one uniqueness check cycle. Every call to Schedule
// mints a new token and invalidates the previous one.
type Token uint64

// UniquenessResult is the outcome of one lookup.
type UniquenessResult struct {
	Token    Token
	Value    string
	Exists   bool
	Err      error
	Duration time.Duration
}

// Uniqueness is a debounced, latest-only identifier lookup. Each Schedule
// call restarts the debounce timer; once the timer elapses the lookup is
// issued and its result delivered with the token of its cycle. A cycle
// superseded before its timer elapses never issues a call. A cycle
// superseded while its call is in flight has its context cancelled; the
// receiver must still compare the delivered token with Current.
type Uniqueness struct {
	lookup    LookupFunc
	clock     clockz.Clock
	debounce  time.Duration
	minLength int

	mu     sync.Mutex
	token  Token
	cancel context.CancelFunc
}

// NewUniqueness creates a uniqueness check over lookup. Values whose
// trimmed length is below IDMinLength never reach lookup.
func NewUniqueness(lookup LookupFunc, clock clockz.Clock, debounce time.Duration) *Uniqueness {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Uniqueness{
		lookup:    lookup,
		clock:     clock,
		debounce:  debounce,
		minLength: IDMinLength,
	}
}

// Schedule starts a new cycle for value and supersedes any earlier one.
// It returns the new token and whether a lookup was scheduled. When the
// value is too short no lookup is scheduled and deliver is never called;
// the caller treats that as "no error".
func (u *Uniqueness) Schedule(ctx context.Context, value string, deliver func(UniquenessResult)) (Token, bool) {
	u.mu.Lock()
	u.stopLocked()
	u.token++
	token := u.token

	if utf8.RuneCountInString(strings.TrimSpace(value)) < u.minLength {
		u.mu.Unlock()
		return token, false
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	timer := u.clock.NewTimer(u.debounce)
	u.mu.Unlock()

	go u.run(cycleCtx, token, value, timer, deliver)
	return token, true
}

// Cancel supersedes the current cycle without starting a new one.
func (u *Uniqueness) Cancel() Token {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopLocked()
	u.token++
	return u.token
}

// Current returns the token of the latest cycle.
func (u *Uniqueness) Current() Token {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.token
}

// IsCurrent reports whether token belongs to the latest cycle.
func (u *Uniqueness) IsCurrent(token Token) bool {
	return u.Current() == token
}

func (u *Uniqueness) stopLocked() {
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
}

// run waits out the debounce period, then issues the lookup.
func (u *Uniqueness) run(ctx context.Context, token Token, value string, timer clockz.Timer, deliver func(UniquenessResult)) {
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C():
	}

	if !u.IsCurrent(token) {
		return
	}

	start := u.clock.Now()
	exists, err := u.lookup(ctx, value)
	deliver(UniquenessResult{
		Token:    token,
		Value:    value,
		Exists:   exists,
		Err:      err,
		Duration: u.clock.Since(start),
	})
}
