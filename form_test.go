package formz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestNew_ModeFromItemID(t *testing.T) {
	if got := New(newStubCatalog(), "").Mode(); got != ModeCreate {
		t.Errorf("expected create, got %s", got)
	}
	form := New(newStubCatalog(), "TEST001")
	if got := form.Mode(); got != ModeEdit {
		t.Errorf("expected edit, got %s", got)
	}
	if form.ItemID() != "TEST001" {
		t.Errorf("expected item id TEST001, got %q", form.ItemID())
	}
}

func TestForm_NotOpen(t *testing.T) {
	form := New(newStubCatalog(), "")
	if err := form.SetValue(context.Background(), FieldName, "x"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := form.Submit(context.Background()); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestForm_OpenTwice(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	if err := form.Open(context.Background()); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestForm_Close(t *testing.T) {
	form := New(newStubCatalog(), "")
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := form.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second close, got %v", err)
	}
	if err := form.SetValue(context.Background(), FieldName, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := form.Reset(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestForm_InitialState(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")

	for _, st := range form.Fields() {
		if st.Status != StatusUntouched {
			t.Errorf("%s: expected untouched, got %s", st.Key, st.Status)
		}
		if !st.Enabled {
			t.Errorf("%s: expected enabled in create mode", st.Key)
		}
		if !st.Errors.Has(KindRequired) {
			t.Errorf("%s: expected required error, got %v", st.Key, st.Errors)
		}
	}
	if form.Valid() {
		t.Error("expected empty form to be invalid")
	}
	if form.Status() != StatusInvalid {
		t.Errorf("expected invalid, got %s", form.Status())
	}
}

func TestForm_SetValue_UnknownField(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	err := form.SetValue(context.Background(), FieldKey("price"), "10")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestForm_SetValue_TouchesAndValidates(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	ctx := context.Background()

	if err := form.SetValue(ctx, FieldName, "abc"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	st := fieldState(t, form, FieldName)
	if !st.Touched {
		t.Error("expected field to be touched")
	}
	if st.Status != StatusInvalid {
		t.Errorf("expected invalid, got %s", st.Status)
	}
	if !st.Errors.Has(KindMinLength) || st.Errors.Has(KindRequired) {
		t.Errorf("expected only minLength, got %v", st.Errors)
	}

	if err := form.SetValue(ctx, FieldName, "Product One"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	st = fieldState(t, form, FieldName)
	if st.Status != StatusValid {
		t.Errorf("expected valid, got %s (%v)", st.Status, st.Errors)
	}
	if st.Errors != nil {
		t.Errorf("expected nil errors, got %v", st.Errors)
	}
}

func TestForm_ShortIdentifierNeverLooksUp(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	for _, v := range []string{"A", "AB", " AB "} {
		if err := form.SetValue(ctx, FieldID, v); err != nil {
			t.Fatalf("SetValue(%q) error = %v", v, err)
		}
		st := fieldState(t, form, FieldID)
		if st.Status == StatusPending {
			t.Errorf("%q: expected no pending lookup", v)
		}
		if st.Errors.Has(KindIDExists) {
			t.Errorf("%q: expected no idExists", v)
		}
	}

	clock.Advance(2 * DefaultDebounce)
	clock.BlockUntilReady()
	time.Sleep(20 * time.Millisecond)

	if calls := catalog.lookupCalls(); len(calls) != 0 {
		t.Errorf("expected no lookups, got %v", calls)
	}
}

func TestForm_IdentifierPendingUntilLookupLands(t *testing.T) {
	form, clock := openForm(t, newStubCatalog(), "")

	if err := form.SetValue(context.Background(), FieldID, "TEST001"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if st := fieldState(t, form, FieldID); st.Status != StatusPending {
		t.Fatalf("expected pending before debounce, got %s", st.Status)
	}
	if form.Status() != StatusPending {
		t.Errorf("expected form pending, got %s", form.Status())
	}

	settle(clock)
	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status == StatusValid }) {
		t.Fatalf("expected valid, got %s", fieldState(t, form, FieldID).Status)
	}
}

func TestForm_IdentifierExists(t *testing.T) {
	catalog := newStubCatalog(Item{ID: "TEST001"})
	form, clock := openForm(t, catalog, "")

	if err := form.SetValue(context.Background(), FieldID, "TEST001"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	settle(clock)

	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status == StatusInvalid }) {
		t.Fatalf("expected invalid, got %s", fieldState(t, form, FieldID).Status)
	}
	st := fieldState(t, form, FieldID)
	if !st.Errors.Has(KindIDExists) {
		t.Errorf("expected idExists, got %v", st.Errors)
	}
	if calls := catalog.lookupCalls(); len(calls) != 1 || calls[0] != "TEST001" {
		t.Errorf("expected one lookup for TEST001, got %v", calls)
	}
}

func TestForm_IdentifierExistsClearedByNextValue(t *testing.T) {
	catalog := newStubCatalog(Item{ID: "TEST001"})
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldID, "TEST001")
	settle(clock)
	waitFor(t, func() bool { return fieldState(t, form, FieldID).Errors.Has(KindIDExists) })

	_ = form.SetValue(ctx, FieldID, "TEST002")
	settle(clock)
	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status == StatusValid }) {
		t.Fatalf("expected valid, got %v", fieldState(t, form, FieldID).Errors)
	}
}

func TestForm_LatestOnly_DebounceCoalesces(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldID, "AB1")
	clock.Advance(DefaultDebounce / 2)
	clock.BlockUntilReady()
	_ = form.SetValue(ctx, FieldID, "AB2")

	clock.Advance(2 * DefaultDebounce)
	clock.BlockUntilReady()

	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status != StatusPending }) {
		t.Fatal("lookup did not resolve")
	}
	time.Sleep(20 * time.Millisecond)

	calls := catalog.lookupCalls()
	if len(calls) != 1 || calls[0] != "AB2" {
		t.Errorf("expected exactly one lookup for AB2, got %v", calls)
	}
}

func TestForm_LatestOnly_StaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	catalog := newStubCatalog()
	catalog.existsFn = func(_ context.Context, id string) (bool, error) {
		if id == "AB1" {
			<-release
			return true, nil
		}
		return false, nil
	}
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldID, "AB1")
	settle(clock)
	if !waitFor(t, func() bool { return len(catalog.lookupCalls()) == 1 }) {
		t.Fatal("first lookup was not issued")
	}

	_ = form.SetValue(ctx, FieldID, "AB2")
	settle(clock)
	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status == StatusValid }) {
		t.Fatalf("expected AB2 to resolve valid, got %s", fieldState(t, form, FieldID).Status)
	}

	close(release)
	time.Sleep(20 * time.Millisecond)

	st := fieldState(t, form, FieldID)
	if st.Errors.Has(KindIDExists) {
		t.Error("stale result for AB1 overwrote the outcome for AB2")
	}
	if st.Status != StatusValid {
		t.Errorf("expected valid, got %s", st.Status)
	}
}

func TestForm_LookupFailure(t *testing.T) {
	boom := errors.New("catalog unreachable")
	catalog := newStubCatalog()
	catalog.existsFn = func(context.Context, string) (bool, error) {
		return false, boom
	}
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldID, "TEST001")
	settle(clock)

	if !waitFor(t, func() bool { return form.LastError() != nil }) {
		t.Fatal("lookup failure was not recorded")
	}
	st := fieldState(t, form, FieldID)
	if st.Errors.Has(KindIDExists) {
		t.Error("lookup failure must not set idExists")
	}
	if st.Status != StatusPending {
		t.Errorf("expected id to stay pending after a failed lookup, got %s", st.Status)
	}

	err := form.LastError()
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error to wrap boom, got %v", err)
	}
	var cerr *CollaboratorError
	if !errors.As(err, &cerr) || cerr.Op != "lookup" || cerr.ItemID != "TEST001" {
		t.Errorf("unexpected collaborator error %#v", err)
	}
	if len(form.ErrorHistory()) != 1 {
		t.Errorf("expected 1 error in history, got %d", len(form.ErrorHistory()))
	}
}

func TestForm_LookupFailureBlocksSubmit(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()
	fillValid(t, form, clock)

	catalog.mu.Lock()
	catalog.existsFn = func(context.Context, string) (bool, error) {
		return false, errors.New("catalog unreachable")
	}
	catalog.mu.Unlock()

	_ = form.SetValue(ctx, FieldID, "TEST002")
	settle(clock)
	if !waitFor(t, func() bool { return form.LastError() != nil }) {
		t.Fatal("lookup failure was not recorded")
	}

	if err := form.Submit(ctx); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid while uniqueness is unverified, got %v", err)
	}
	if n := len(catalog.createCalls()); n != 0 {
		t.Errorf("expected no create call, got %d", n)
	}

	// The next edit starts a fresh cycle.
	catalog.mu.Lock()
	catalog.existsFn = nil
	catalog.mu.Unlock()

	_ = form.SetValue(ctx, FieldID, "TEST003")
	settle(clock)
	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status == StatusValid }) {
		t.Fatalf("expected id to resolve valid, got %s", fieldState(t, form, FieldID).Status)
	}
	if err := form.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestForm_Close_DropsScheduledLookup(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")

	_ = form.SetValue(context.Background(), FieldID, "TEST001")
	if err := form.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	settle(clock)
	time.Sleep(20 * time.Millisecond)

	if n := len(catalog.lookupCalls()); n != 0 {
		t.Errorf("expected no lookup after close, got %d", n)
	}
}

func TestForm_Close_CancelsInFlightLookup(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	catalog := newStubCatalog()
	catalog.existsFn = func(ctx context.Context, _ string) (bool, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return false, ctx.Err()
	}
	form, clock := openForm(t, catalog, "")

	_ = form.SetValue(context.Background(), FieldID, "TEST001")
	settle(clock)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("lookup was not issued")
	}

	before := fieldState(t, form, FieldID)
	if err := form.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight lookup context was not cancelled")
	}
	time.Sleep(20 * time.Millisecond)

	after := fieldState(t, form, FieldID)
	if after.Status != before.Status || after.Value != before.Value || after.Errors.String() != before.Errors.String() {
		t.Errorf("closed form changed: before %+v, after %+v", before, after)
	}
	if err := form.LastError(); err != nil {
		t.Errorf("expected late result to be dropped, got last error %v", err)
	}
}

func TestForm_ConcurrentIdentifierEdits(t *testing.T) {
	catalog := newStubCatalog()
	catalog.existsFn = func(context.Context, string) (bool, error) {
		return true, nil
	}
	form := New(catalog, "").Debounce(time.Microsecond)
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer form.Close()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				_ = form.SetValue(context.Background(), FieldID, fmt.Sprintf("ID%d-%d", g, i%100))
			}
		}(g)
	}
	wg.Wait()

	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status != StatusPending }) {
		t.Fatal("last lookup never landed")
	}
	if st := fieldState(t, form, FieldID); !st.Errors.Has(KindIDExists) {
		t.Errorf("expected idExists from the final lookup, got %v", st.Errors)
	}
}

func TestForm_ReleaseDerivesRevision(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	ctx := context.Background()

	if err := form.SetValue(ctx, FieldDateRelease, "2024-01-01"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	rev := fieldState(t, form, FieldDateRevision)
	if rev.Value != "2025-01-01" {
		t.Errorf("expected revision 2025-01-01, got %q", rev.Value)
	}
	if rev.Touched {
		t.Error("derived revision must not be marked touched")
	}
	if !form.Errors().Empty() {
		t.Errorf("expected no group errors, got %v", form.Errors())
	}

	if err := form.SetValue(ctx, FieldDateRelease, ""); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if rev := fieldState(t, form, FieldDateRevision); rev.Value != "" {
		t.Errorf("expected cleared revision, got %q", rev.Value)
	}
}

func TestForm_RevisionEditNotPropagatedBack(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldDateRelease, "2030-05-10")
	_ = form.SetValue(ctx, FieldDateRevision, "2031-05-11")

	if rel := fieldState(t, form, FieldDateRelease); rel.Value != "2030-05-10" {
		t.Errorf("release changed to %q", rel.Value)
	}
	if !form.Errors().Has(KindOneYearAfter) {
		t.Errorf("expected oneYearAfter, got %v", form.Errors())
	}
	if form.Valid() {
		t.Error("expected form invalid with mismatched dates")
	}

	_ = form.SetValue(ctx, FieldDateRevision, "2031-05-10")
	if !form.Errors().Empty() {
		t.Errorf("expected group errors cleared, got %v", form.Errors())
	}
}

func TestForm_MinDateAgainstToday(t *testing.T) {
	form, clock := openForm(t, newStubCatalog(), "")
	ctx := context.Background()

	yesterday := clock.Now().AddDate(0, 0, -1).Format(DateLayout)
	today := clock.Now().Format(DateLayout)

	_ = form.SetValue(ctx, FieldDateRelease, yesterday)
	if st := fieldState(t, form, FieldDateRelease); !st.Errors.Has(KindMinDate) {
		t.Errorf("expected minDate for %s, got %v", yesterday, st.Errors)
	}

	_ = form.SetValue(ctx, FieldDateRelease, today)
	if st := fieldState(t, form, FieldDateRelease); st.Errors.Has(KindMinDate) {
		t.Errorf("expected no minDate for today, got %v", st.Errors)
	}

	_ = form.SetValue(ctx, FieldDateRelease, "")
	st := fieldState(t, form, FieldDateRelease)
	if st.Errors.Has(KindMinDate) || !st.Errors.Has(KindRequired) {
		t.Errorf("expected only required, got %v", st.Errors)
	}
}

func TestForm_InvalidDate(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")

	_ = form.SetValue(context.Background(), FieldDateRelease, "not-a-date")
	if st := fieldState(t, form, FieldDateRelease); !st.Errors.Has(KindDate) {
		t.Errorf("expected date error, got %v", st.Errors)
	}
	if rev := fieldState(t, form, FieldDateRevision); rev.Value != "" {
		t.Errorf("expected no derived revision, got %q", rev.Value)
	}
}

func TestForm_Submit_InvalidMarksTouched(t *testing.T) {
	catalog := newStubCatalog()
	form, _ := openForm(t, catalog, "")

	err := form.Submit(context.Background())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, st := range form.Fields() {
		if !st.Touched {
			t.Errorf("%s: expected touched after rejected submit", st.Key)
		}
		if st.Status != StatusInvalid {
			t.Errorf("%s: expected invalid, got %s", st.Key, st.Status)
		}
	}
	if len(catalog.createCalls()) != 0 {
		t.Error("catalog must not be called for an invalid form")
	}
}

func TestForm_Submit_PendingIsInvalid(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")
	fillValid(t, form, clock)

	_ = form.SetValue(context.Background(), FieldID, "TEST002")
	if err := form.Submit(context.Background()); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid while lookup pending, got %v", err)
	}
	if len(catalog.createCalls()) != 0 {
		t.Error("catalog must not be called while a lookup is pending")
	}
}

func TestForm_Submit_Create(t *testing.T) {
	catalog := newStubCatalog()
	var submitted atomic.Pointer[Item]
	form, clock := openWith(t, New(catalog, "").OnSubmitted(func(_ context.Context, item Item) {
		submitted.Store(&item)
	}))

	want := fillValid(t, form, clock)
	if !form.Valid() {
		t.Fatalf("expected valid form, fields: %+v group: %v", form.Fields(), form.Errors())
	}

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	created := catalog.createCalls()
	if len(created) != 1 {
		t.Fatalf("expected 1 create, got %d", len(created))
	}
	if created[0] != want {
		t.Errorf("expected %+v, got %+v", want, created[0])
	}
	if got := submitted.Load(); got == nil || *got != want {
		t.Errorf("expected OnSubmitted with %+v, got %v", want, got)
	}
}

func TestForm_Submit_CatalogFailureKeepsValues(t *testing.T) {
	catalog := newStubCatalog()
	catalog.createErr = func(int) error { return ErrExists }
	var called atomic.Bool
	form, clock := openWith(t, New(catalog, "").OnSubmitted(func(context.Context, Item) {
		called.Store(true)
	}))

	want := fillValid(t, form, clock)
	err := form.Submit(context.Background())
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	var cerr *CollaboratorError
	if !errors.As(err, &cerr) || cerr.Op != "create" {
		t.Errorf("expected create collaborator error, got %v", err)
	}
	if called.Load() {
		t.Error("OnSubmitted must not run on failure")
	}
	if got := form.RawValues(); got != want {
		t.Errorf("expected values kept %+v, got %+v", want, got)
	}
	if !errors.Is(form.LastError(), ErrExists) {
		t.Errorf("expected last error ErrExists, got %v", form.LastError())
	}
}

func TestForm_Submit_RetryOption(t *testing.T) {
	catalog := newStubCatalog()
	catalog.createErr = func(attempt int) error {
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	}
	form, clock := openForm(t, catalog, "", WithRetry(3))
	fillValid(t, form, clock)

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := len(catalog.createCalls()); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
	if form.LastError() != nil {
		t.Errorf("expected last error cleared, got %v", form.LastError())
	}
}

func TestForm_Edit_LoadsItem(t *testing.T) {
	stored := Item{
		ID:           "TEST001",
		Name:         "Stored Product",
		Description:  "Stored description",
		Logo:         "logo.png",
		DateRelease:  "2031-03-15",
		DateRevision: "2032-03-15",
	}
	form, _ := openForm(t, newStubCatalog(stored), "TEST001")

	id := fieldState(t, form, FieldID)
	if id.Enabled {
		t.Error("expected identifier disabled in edit mode")
	}
	if id.Value != "TEST001" {
		t.Errorf("expected identifier TEST001, got %q", id.Value)
	}
	if id.Errors != nil {
		t.Errorf("disabled field must carry no errors, got %v", id.Errors)
	}
	if got := form.RawValues(); got != stored {
		t.Errorf("expected %+v, got %+v", stored, got)
	}
	if _, ok := form.Values()[FieldID]; ok {
		t.Error("Values must exclude the disabled identifier")
	}

	err := form.SetValue(context.Background(), FieldID, "OTHER")
	if !errors.Is(err, ErrFieldDisabled) {
		t.Errorf("expected ErrFieldDisabled, got %v", err)
	}
}

func TestForm_Edit_StoredRevisionWins(t *testing.T) {
	stored := Item{
		ID:           "TEST001",
		Name:         "Stored Product",
		Description:  "Stored description",
		Logo:         "logo.png",
		DateRelease:  "2031-03-15",
		DateRevision: "2032-04-01",
	}
	form, _ := openForm(t, newStubCatalog(stored), "TEST001")

	if rev := fieldState(t, form, FieldDateRevision); rev.Value != "2032-04-01" {
		t.Errorf("expected stored revision, got %q", rev.Value)
	}
	if !form.Errors().Has(KindOneYearAfter) {
		t.Errorf("expected oneYearAfter for mismatched stored dates, got %v", form.Errors())
	}
}

func TestForm_Edit_LoadFailure(t *testing.T) {
	form := New(newStubCatalog(), "MISSING").ErrorHistorySize(3)
	err := form.Open(context.Background())
	defer form.Close()

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var cerr *CollaboratorError
	if !errors.As(err, &cerr) || cerr.Op != "load" || cerr.ItemID != "MISSING" {
		t.Errorf("unexpected error %#v", err)
	}
	if !errors.Is(form.LastError(), ErrNotFound) {
		t.Errorf("expected last error recorded, got %v", form.LastError())
	}

	// The form stays usable.
	if err := form.SetValue(context.Background(), FieldName, "Product One"); err != nil {
		t.Errorf("SetValue() after failed load error = %v", err)
	}
}

func TestForm_Edit_ResetKeepsIdentifier(t *testing.T) {
	stored := Item{
		ID:           "TEST001",
		Name:         "Stored Product",
		Description:  "Stored description",
		Logo:         "logo.png",
		DateRelease:  "2031-03-15",
		DateRevision: "2032-03-15",
	}
	form, _ := openForm(t, newStubCatalog(stored), "TEST001")

	if err := form.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	got := form.RawValues()
	if got != (Item{ID: "TEST001"}) {
		t.Errorf("expected only identifier kept, got %+v", got)
	}
	for _, st := range form.Fields() {
		if st.Key == FieldID {
			continue
		}
		if st.Touched || st.Status != StatusUntouched {
			t.Errorf("%s: expected untouched after reset, got %s", st.Key, st.Status)
		}
	}
}

func TestForm_Edit_SubmitUpdates(t *testing.T) {
	stored := Item{
		ID:           "TEST001",
		Name:         "Stored Product",
		Description:  "Stored description",
		Logo:         "logo.png",
		DateRelease:  "2031-03-15",
		DateRevision: "2032-03-15",
	}
	catalog := newStubCatalog(stored)
	form, _ := openForm(t, catalog, "TEST001")

	if err := form.SetValue(context.Background(), FieldName, "Renamed Product"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	updated := catalog.updateCalls()
	if len(updated) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updated))
	}
	if updated[0].ID != "TEST001" || updated[0].Name != "Renamed Product" {
		t.Errorf("unexpected update payload %+v", updated[0])
	}
	if len(catalog.lookupCalls()) != 0 {
		t.Error("edit mode must not look up the identifier")
	}
}

func TestForm_Create_ResetClearsEverything(t *testing.T) {
	catalog := newStubCatalog()
	form, clock := openForm(t, catalog, "")
	ctx := context.Background()

	_ = form.SetValue(ctx, FieldName, "Product One")
	_ = form.SetValue(ctx, FieldID, "TEST001")
	if err := form.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if got := form.RawValues(); got != (Item{}) {
		t.Errorf("expected empty item, got %+v", got)
	}
	if st := fieldState(t, form, FieldID); st.Status != StatusUntouched {
		t.Errorf("expected untouched identifier, got %s", st.Status)
	}

	settle(clock)
	time.Sleep(20 * time.Millisecond)
	if calls := catalog.lookupCalls(); len(calls) != 0 {
		t.Errorf("reset must abandon the pending lookup, got %v", calls)
	}
}

func TestForm_Observe(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")

	var mu sync.Mutex
	var seen []FieldState
	if err := form.Observe(FieldDateRevision, func(st FieldState) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if err := form.Observe(FieldKey("price"), func(FieldState) {}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}

	_ = form.SetValue(context.Background(), FieldDateRelease, "2030-01-01")
	_ = form.SetValue(context.Background(), FieldName, "Product One")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(seen))
	}
	if seen[0].Value != "2031-01-01" {
		t.Errorf("expected derived value in notification, got %q", seen[0].Value)
	}
}

func TestForm_ApplyDraft(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")

	err := form.ApplyDraft(context.Background(), []byte(`{"name": "Product One", "date_release": "2030-06-01"}`))
	if err != nil {
		t.Fatalf("ApplyDraft() error = %v", err)
	}
	got := form.RawValues()
	if got.Name != "Product One" || got.DateRevision != "2031-06-01" {
		t.Errorf("unexpected values %+v", got)
	}
	if st := fieldState(t, form, FieldName); !st.Touched {
		t.Error("draft values count as user edits")
	}

	if err := form.ApplyDraft(context.Background(), []byte("name: [")); err == nil {
		t.Error("expected decode error")
	}
}

func TestForm_ApplyDraft_SkipsDisabled(t *testing.T) {
	stored := Item{ID: "TEST001", Name: "Stored Product"}
	form, _ := openForm(t, newStubCatalog(stored), "TEST001")

	err := form.ApplyDraft(context.Background(), []byte("id: OTHER\nname: Changed Name\n"))
	if err != nil {
		t.Fatalf("ApplyDraft() error = %v", err)
	}
	got := form.RawValues()
	if got.ID != "TEST001" {
		t.Errorf("disabled identifier changed to %q", got.ID)
	}
	if got.Name != "Changed Name" {
		t.Errorf("expected name applied, got %q", got.Name)
	}
}

func TestForm_Bind(t *testing.T) {
	form, _ := openForm(t, newStubCatalog(), "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	drafts := make(chan []byte, 2)
	if err := form.Bind(ctx, NewChannelWatcher(drafts)); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	drafts <- []byte(`{"logo": "first.png"}`)
	drafts <- []byte(`{"logo": "second.png"}`)

	if !waitFor(t, func() bool { return form.RawValues().Logo == "second.png" }) {
		t.Errorf("expected bound draft applied, got %q", form.RawValues().Logo)
	}
}

// openWith opens a preconfigured form on a fake clock.
func openWith(t *testing.T, form *Form) (*Form, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	form.Clock(clock).ErrorHistorySize(5)
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = form.Close() })
	return form, clock
}
