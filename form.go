package formz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the quiet period before an identifier lookup is issued.
const DefaultDebounce = 500 * time.Millisecond

// Form is the validation and derived-state engine behind a catalog item
// form. It owns one Field per FieldKey, evaluates synchronous rules on
// every change, debounces identifier lookups against the catalog, keeps
// the revision date derived from the release date, and submits the raw
// item through a pipz pipeline.
//
// All events (value changes, lookup completions, resets) are serialized
// through one lock. Internal listeners run inside that lock so a change
// and everything derived from it settle together; observers registered
// with Observe run after the lock is released.
type Form struct {
	catalog     Catalog
	itemID      string
	mode        Mode
	pipeline    pipz.Chainable[*Submission]
	debounce    time.Duration
	clock       clockz.Clock
	codec       Codec
	metrics     MetricsProvider
	onSubmitted func(ctx context.Context, item Item)

	lastError    atomic.Pointer[error]
	errorHistory *errorRing

	mu        sync.Mutex
	opened    bool
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	fields    map[FieldKey]*field
	group     ErrorBag
	uniq      *Uniqueness
	listeners map[FieldKey][]func(value string)
	observers map[FieldKey][]func(FieldState)
	outbox    []func(context.Context)
}

// New creates a form backed by catalog. An empty itemID opens the form in
// create mode; any other value opens it in edit mode for that item. The
// mode never changes afterwards.
//
// Pipeline options (With*) wrap the create/update call. Instance
// configuration uses chainable methods before calling Open().
//
// Example:
//
//	form := formz.New(catalog, "",
//	    formz.WithBackoff(3, 100*time.Millisecond),
//	).OnSubmitted(func(ctx context.Context, item formz.Item) {
//	    router.Navigate("/products")
//	})
//
//	if err := form.Open(ctx); err != nil {
//	    return err
//	}
//	defer form.Close()
func New(catalog Catalog, itemID string, opts ...Option) *Form {
	mode := ModeCreate
	if itemID != "" {
		mode = ModeEdit
	}

	terminal := pipz.Effect(submitID, func(ctx context.Context, s *Submission) error {
		if s.Mode == ModeEdit {
			return catalog.Update(ctx, s.ItemID, s.Item)
		}
		return catalog.Create(ctx, s.Item)
	})

	f := &Form{
		catalog:   catalog,
		itemID:    itemID,
		mode:      mode,
		pipeline:  buildPipeline(terminal, opts),
		debounce:  DefaultDebounce,
		clock:     clockz.RealClock,
		codec:     AutoCodec{},
		fields:    make(map[FieldKey]*field, len(FieldKeys)),
		listeners: make(map[FieldKey][]func(string)),
		observers: make(map[FieldKey][]func(FieldState)),
	}
	for _, key := range FieldKeys {
		f.fields[key] = newField(key)
	}
	return f
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Debounce sets the quiet period before an identifier lookup is issued.
// Default: 500ms. Must be called before Open().
func (f *Form) Debounce(d time.Duration) *Form {
	f.debounce = d
	return f
}

// Clock sets a custom clock for debounce timers and the minimum release date.
// Use this with clockz.FakeClock for deterministic tests.
// Must be called before Open().
func (f *Form) Clock(clock clockz.Clock) *Form {
	f.clock = clock
	return f
}

// Codec sets the codec used to decode drafts delivered by Bind.
// Default: AutoCodec. Must be called before Open().
func (f *Form) Codec(codec Codec) *Form {
	f.codec = codec
	return f
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Open().
func (f *Form) Metrics(provider MetricsProvider) *Form {
	f.metrics = provider
	return f
}

// ErrorHistorySize sets the number of recent collaborator errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Open().
func (f *Form) ErrorHistorySize(n int) *Form {
	f.errorHistory = newErrorRing(n)
	return f
}

// OnSubmitted sets the callback invoked after the catalog accepts a
// submission. This is where a consumer navigates away from the form.
// Must be called before Open().
func (f *Form) OnSubmitted(fn func(ctx context.Context, item Item)) *Form {
	f.onSubmitted = fn
	return f
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Open initializes the form. In edit mode the identifier field is disabled
// and fixed to the item id, and the item is fetched from the catalog to
// populate the remaining fields. A failed fetch is recorded and returned;
// the form stays open with empty fields.
//
// The context governs background work (identifier lookups, bound
// watchers) until Close is called. Open can only be called once.
func (f *Form) Open(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.opened {
		f.mu.Unlock()
		return ErrAlreadyOpen
	}
	f.opened = true
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.uniq = NewUniqueness(f.catalog.Exists, f.clock, f.debounce)

	f.listeners[FieldDateRelease] = append(f.listeners[FieldDateRelease], f.deriveRevision, f.checkMinDate)

	if f.mode == ModeEdit {
		id := f.fields[FieldID]
		id.value = f.itemID
		id.enabled = false
	}
	for _, key := range FieldKeys {
		f.fields[key].validate()
	}
	f.group = f.groupErrors()
	f.mu.Unlock()

	capitan.Emit(ctx, FormOpened,
		KeyMode.Field(f.mode.String()),
		KeyItemID.Field(f.itemID),
	)

	if f.mode == ModeCreate {
		return nil
	}
	return f.load(ctx)
}

// load fetches the edited item and patches it into the form. The release
// date goes first so its derived revision can be replaced by the stored one.
func (f *Form) load(ctx context.Context) error {
	item, err := f.catalog.Get(ctx, f.itemID)
	if err != nil {
		cerr := f.recordError("load", f.itemID, err)
		capitan.Emit(ctx, FormLoadFailed,
			KeyItemID.Field(f.itemID),
			KeyError.Field(err.Error()),
		)
		return cerr
	}

	return f.update(ctx, func() error {
		for _, key := range []FieldKey{FieldName, FieldDescription, FieldLogo, FieldDateRelease} {
			f.setLocked(key, item.Value(key), false)
		}
		if item.DateRevision != "" {
			f.setLocked(FieldDateRevision, item.DateRevision, false)
		}
		return nil
	})
}

// Close cancels any pending identifier lookup and stops bound watchers.
// Every later call on the form returns ErrClosed.
func (f *Form) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.closed = true
	if f.uniq != nil {
		f.uniq.Cancel()
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Unlock()

	capitan.Emit(context.Background(), FormClosed,
		KeyMode.Field(f.mode.String()),
		KeyItemID.Field(f.itemID),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// SetValue applies a user edit. The field is marked touched, its rules are
// re-evaluated and, for the identifier, a debounced lookup is scheduled.
// Edits to unknown or disabled fields are rejected.
func (f *Form) SetValue(ctx context.Context, key FieldKey, value string) error {
	return f.update(ctx, func() error {
		fld, ok := f.fields[key]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if !fld.enabled {
			return fmt.Errorf("%w: %s", ErrFieldDisabled, key)
		}
		f.setLocked(key, value, true)
		return nil
	})
}

// ApplyDraft decodes raw with the form codec and applies every field the
// draft sets as a user edit, in field order. Disabled fields are skipped.
func (f *Form) ApplyDraft(ctx context.Context, raw []byte) error {
	var d Draft
	if err := f.codec.Unmarshal(raw, &d); err != nil {
		capitan.Emit(ctx, DraftRejected,
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("decode draft: %w", err)
	}
	capitan.Emit(ctx, DraftReceived)

	return f.update(ctx, func() error {
		for _, key := range FieldKeys {
			v, ok := d.value(key)
			if !ok || !f.fields[key].enabled {
				continue
			}
			f.setLocked(key, v, true)
		}
		return nil
	})
}

// Bind feeds drafts from a watcher into the form until ctx is cancelled,
// the watcher closes its channel, or the form is closed. Decode failures
// are emitted as DraftRejected and do not stop the binding.
func (f *Form) Bind(ctx context.Context, w Watcher) error {
	f.mu.Lock()
	if err := f.usableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	formCtx := f.ctx
	f.mu.Unlock()

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-formCtx.Done():
				return
			case raw, ok := <-changes:
				if !ok {
					return
				}
				_ = f.ApplyDraft(ctx, raw) //nolint:errcheck // Decode failures are emitted
			}
		}
	}()
	return nil
}

// Submit validates the form and, when it is valid, sends the raw item
// (disabled fields included) to the catalog as a create or update.
//
// An invalid form, or one with an identifier lookup still pending, has
// every field marked touched and returns ErrInvalid without calling the
// catalog. A catalog failure is recorded and returned as a
// *CollaboratorError; field values are left as they were so the user can
// retry. On success the OnSubmitted callback runs.
func (f *Form) Submit(ctx context.Context) error {
	start := f.clock.Now()

	var sub *Submission
	err := f.update(ctx, func() error {
		if f.validLocked() {
			sub = &Submission{Mode: f.mode, ItemID: f.itemID, Item: f.rawLocked()}
			return nil
		}

		for _, fld := range f.fields {
			fld.touched = true
		}
		invalid := f.invalidLocked()
		f.later(func(ctx context.Context) {
			capitan.Emit(ctx, SubmitRejected,
				KeyMode.Field(f.mode.String()),
				KeyErrors.Field(strings.Join(invalid, ",")),
			)
			if f.metrics != nil {
				f.metrics.OnSubmitFailure("validate", f.clock.Since(start))
			}
		})
		return ErrInvalid
	})
	if err != nil {
		return err
	}

	processed, err := f.pipeline.Process(ctx, sub)
	if err != nil {
		cerr := f.recordError(sub.op(), sub.Item.ID, err)
		capitan.Emit(ctx, SubmitFailed,
			KeyMode.Field(f.mode.String()),
			KeyItemID.Field(sub.Item.ID),
			KeyError.Field(err.Error()),
		)
		if f.metrics != nil {
			f.metrics.OnSubmitFailure("catalog", f.clock.Since(start))
		}
		return cerr
	}

	f.lastError.Store(nil)
	f.errorHistory.clear()
	capitan.Emit(ctx, SubmitSucceeded,
		KeyMode.Field(f.mode.String()),
		KeyItemID.Field(processed.Item.ID),
		KeyDuration.Field(f.clock.Since(start)),
	)
	if f.metrics != nil {
		f.metrics.OnSubmitSuccess(f.mode, f.clock.Since(start))
	}
	if f.onSubmitted != nil {
		f.onSubmitted(ctx, processed.Item)
	}
	return nil
}

// Reset clears every enabled field to its initial empty, untouched state.
// In edit mode the identifier is disabled and therefore kept. Any pending
// identifier lookup is abandoned.
func (f *Form) Reset(ctx context.Context) error {
	return f.update(ctx, func() error {
		if f.mode == ModeCreate {
			f.uniq.Cancel()
		}
		for _, key := range FieldKeys {
			fld := f.fields[key]
			if !fld.enabled {
				continue
			}
			fld.reset()
			fld.validate()
		}
		f.later(func(ctx context.Context) {
			capitan.Emit(ctx, FormReset,
				KeyMode.Field(f.mode.String()),
				KeyItemID.Field(f.itemID),
			)
		})
		return nil
	})
}

// MarkAllTouched marks every field touched so that untouched fields
// report valid or invalid instead of untouched.
func (f *Form) MarkAllTouched(ctx context.Context) error {
	return f.update(ctx, func() error {
		for _, fld := range f.fields {
			fld.touched = true
		}
		return nil
	})
}

// Observe registers fn to be called with a fresh snapshot whenever the
// field's value, status, errors, enablement or touched flag changes.
// Observers run outside the form lock, in registration order.
func (f *Form) Observe(key FieldKey, fn func(FieldState)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.fields[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	f.observers[key] = append(f.observers[key], fn)
	return nil
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Field returns a snapshot of one field.
func (f *Form) Field(key FieldKey) (FieldState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fld, ok := f.fields[key]
	if !ok {
		return FieldState{}, false
	}
	return fld.snapshot(), true
}

// Fields returns snapshots of every field in FieldKeys order.
func (f *Form) Fields() []FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FieldState, 0, len(FieldKeys))
	for _, key := range FieldKeys {
		out = append(out, f.fields[key].snapshot())
	}
	return out
}

// Values returns the values of enabled fields only.
func (f *Form) Values() map[FieldKey]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[FieldKey]string, len(f.fields))
	for key, fld := range f.fields {
		if fld.enabled {
			out[key] = fld.value
		}
	}
	return out
}

// RawValues returns every field value, disabled fields included.
func (f *Form) RawValues() Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rawLocked()
}

// Errors returns the form-level errors, currently only oneYearAfter.
func (f *Form) Errors() ErrorBag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.group.clone()
}

// Valid reports whether Submit would reach the catalog.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validLocked()
}

// Status aggregates the form: pending while any lookup is outstanding,
// otherwise valid or invalid.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fld := range f.fields {
		if fld.pending {
			return StatusPending
		}
	}
	if f.validLocked() {
		return StatusValid
	}
	return StatusInvalid
}

// Mode returns the mode decided at construction.
func (f *Form) Mode() Mode {
	return f.mode
}

// ItemID returns the identifier of the edited item, or "" in create mode.
func (f *Form) ItemID() string {
	return f.itemID
}

// LastError returns the most recent collaborator error, or nil.
// A successful submission clears it.
func (f *Form) LastError() error {
	ptr := f.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent collaborator errors, oldest first.
// Returns nil if error history is not enabled (see ErrorHistorySize).
func (f *Form) ErrorHistory() []error {
	return f.errorHistory.all()
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

// update runs fn under the form lock as one settle step, then recomputes
// the group errors, diffs every field and, once unlocked, emits signals
// and notifies observers for whatever changed.
func (f *Form) update(ctx context.Context, fn func() error) error {
	f.mu.Lock()
	if err := f.usableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}

	before := make(map[FieldKey]FieldState, len(f.fields))
	for key, fld := range f.fields {
		before[key] = fld.snapshot()
	}

	err := fn()
	f.group = f.groupErrors()
	notify := f.diffLocked(before)

	out := f.outbox
	f.outbox = nil
	f.mu.Unlock()

	for _, emit := range out {
		emit(ctx)
	}
	for _, n := range notify {
		n()
	}
	return err
}

// diffLocked queues signals for changed fields and returns observer calls.
func (f *Form) diffLocked(before map[FieldKey]FieldState) []func() {
	var notify []func()
	for _, key := range FieldKeys {
		prev := before[key]
		curr := f.fields[key].snapshot()

		if prev.Value != curr.Value {
			f.later(func(ctx context.Context) {
				capitan.Emit(ctx, FieldChanged,
					KeyField.Field(string(key)),
				)
			})
		}
		if prev.Status != curr.Status {
			f.later(func(ctx context.Context) {
				capitan.Emit(ctx, FieldStatusChanged,
					KeyField.Field(string(key)),
					KeyOldStatus.Field(prev.Status.String()),
					KeyNewStatus.Field(curr.Status.String()),
					KeyErrors.Field(curr.Errors.String()),
				)
				if f.metrics != nil {
					f.metrics.OnStatusChange(key, prev.Status, curr.Status)
				}
			})
		}

		if !changed(prev, curr) {
			continue
		}
		for _, obs := range f.observers[key] {
			notify = append(notify, func() { obs(curr) })
		}
	}
	return notify
}

func changed(a, b FieldState) bool {
	return a.Value != b.Value ||
		a.Status != b.Status ||
		a.Enabled != b.Enabled ||
		a.Touched != b.Touched ||
		a.Errors.String() != b.Errors.String()
}

// later queues fn to run after the current settle step releases the lock.
func (f *Form) later(fn func(context.Context)) {
	f.outbox = append(f.outbox, fn)
}

func (f *Form) usableLocked() error {
	if f.closed {
		return ErrClosed
	}
	if !f.opened {
		return ErrNotOpen
	}
	return nil
}

// setLocked writes a value, re-evaluates the field and runs its listeners.
// Programmatic writes (touch false) leave the touched flag alone.
func (f *Form) setLocked(key FieldKey, value string, touch bool) {
	fld := f.fields[key]
	fld.value = value
	if touch {
		fld.touched = true
	}
	fld.validate()

	if key == FieldID && fld.enabled {
		f.scheduleLocked(value)
	}
	for _, l := range f.listeners[key] {
		l(value)
	}
}

// scheduleLocked starts a new uniqueness cycle for the identifier. The
// previous outcome belonged to another value, so idExists is dropped.
func (f *Form) scheduleLocked(value string) {
	fld := f.fields[FieldID]
	fld.errors = fld.errors.Clear(KindIDExists)

	token, scheduled := f.uniq.Schedule(f.ctx, value, f.applyUniqueness)
	fld.pending = scheduled
	if !scheduled {
		return
	}
	f.later(func(ctx context.Context) {
		capitan.Emit(ctx, UniquenessScheduled,
			KeyItemID.Field(value),
			KeyToken.Field(int(token)),
			KeyDebounce.Field(f.debounce),
		)
	})
}

// applyUniqueness lands a lookup result. Results from superseded cycles
// are dropped; a collaborator error is recorded and leaves the field
// pending.
func (f *Form) applyUniqueness(res UniquenessResult) {
	_ = f.update(f.ctx, func() error { //nolint:errcheck // A closed form drops late results
		if !f.uniq.IsCurrent(res.Token) {
			f.later(func(ctx context.Context) {
				capitan.Emit(ctx, UniquenessDiscarded,
					KeyItemID.Field(res.Value),
					KeyToken.Field(int(res.Token)),
				)
				if f.metrics != nil {
					f.metrics.OnLookupDiscarded()
				}
			})
			return nil
		}

		fld := f.fields[FieldID]
		if res.Err != nil {
			// Uniqueness is unverified, so the field stays pending until
			// the next edit starts a new cycle.
			f.recordError("lookup", res.Value, res.Err)
			f.later(func(ctx context.Context) {
				capitan.Emit(ctx, UniquenessFailed,
					KeyItemID.Field(res.Value),
					KeyError.Field(res.Err.Error()),
					KeyDuration.Field(res.Duration),
				)
				if f.metrics != nil {
					f.metrics.OnLookupFailure(res.Duration)
				}
			})
			return nil
		}

		fld.pending = false
		fld.errors = fld.errors.Apply(KindIDExists, res.Exists)
		errs := fld.errors.String()
		f.later(func(ctx context.Context) {
			capitan.Emit(ctx, UniquenessResolved,
				KeyItemID.Field(res.Value),
				KeyToken.Field(int(res.Token)),
				KeyErrors.Field(errs),
				KeyDuration.Field(res.Duration),
			)
			if f.metrics != nil {
				f.metrics.OnLookup(res.Exists, res.Duration)
			}
		})
		return nil
	})
}

// deriveRevision keeps the revision date one year after the release date.
func (f *Form) deriveRevision(release string) {
	f.setLocked(FieldDateRevision, AddOneYear(release), false)
}

// checkMinDate re-evaluates minDate on the release date against today.
func (f *Form) checkMinDate(release string) {
	fld := f.fields[FieldDateRelease]
	if !fld.enabled {
		return
	}
	fld.errors = MinDate(f.clock.Now()).apply(fld.errors, release)
}

func (f *Form) groupErrors() ErrorBag {
	return OneYearAfter(f.fields[FieldDateRelease].value, f.fields[FieldDateRevision].value)
}

func (f *Form) validLocked() bool {
	for _, fld := range f.fields {
		if !fld.valid() {
			return false
		}
	}
	return f.group.Empty()
}

// invalidLocked lists the invalid or pending fields, plus "form" when a
// group error is present.
func (f *Form) invalidLocked() []string {
	var out []string
	for _, key := range FieldKeys {
		if !f.fields[key].valid() {
			out = append(out, string(key))
		}
	}
	if !f.group.Empty() {
		out = append(out, "form")
	}
	return out
}

func (f *Form) rawLocked() Item {
	var item Item
	for key, fld := range f.fields {
		item.set(key, fld.value)
	}
	return item
}

// recordError stores a collaborator failure as the last error and in the
// error history.
func (f *Form) recordError(op, itemID string, err error) *CollaboratorError {
	cerr := &CollaboratorError{Op: op, ItemID: itemID, At: f.clock.Now(), Err: err}
	var e error = cerr
	f.lastError.Store(&e)
	f.errorHistory.push(cerr)
	return cerr
}
