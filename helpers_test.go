package formz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// stubCatalog records every call and serves items from a map.
type stubCatalog struct {
	mu      sync.Mutex
	items   map[string]Item
	lookups []string
	created []Item
	updated []Item

	existsFn  func(ctx context.Context, id string) (bool, error)
	getErr    error
	createErr func(attempt int) error
	updateErr error
}

func newStubCatalog(items ...Item) *stubCatalog {
	c := &stubCatalog{items: make(map[string]Item)}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

func (c *stubCatalog) Exists(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	c.lookups = append(c.lookups, id)
	fn := c.existsFn
	_, ok := c.items[id]
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return ok, nil
}

func (c *stubCatalog) Get(_ context.Context, id string) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return Item{}, c.getErr
	}
	item, ok := c.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (c *stubCatalog) Create(_ context.Context, item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	attempt := len(c.created) + 1
	c.created = append(c.created, item)
	if c.createErr != nil {
		if err := c.createErr(attempt); err != nil {
			return err
		}
	}
	c.items[item.ID] = item
	return nil
}

func (c *stubCatalog) Update(_ context.Context, id string, item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updated = append(c.updated, item)
	if c.updateErr != nil {
		return c.updateErr
	}
	c.items[id] = item
	return nil
}

func (c *stubCatalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	return nil
}

func (c *stubCatalog) lookupCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lookups...)
}

func (c *stubCatalog) createCalls() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.created...)
}

func (c *stubCatalog) updateCalls() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.updated...)
}

// openForm builds and opens a form on a fake clock. The form is closed
// when the test ends.
func openForm(t *testing.T, catalog Catalog, itemID string, opts ...Option) (*Form, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	form := New(catalog, itemID, opts...).Clock(clock).ErrorHistorySize(5)
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = form.Close() })
	return form, clock
}

// settle advances the fake clock past the lookup debounce.
func settle(clock *clockz.FakeClock) {
	clock.Advance(DefaultDebounce)
	clock.BlockUntilReady()
}

// waitFor polls condition until it holds or a second passes.
func waitFor(t *testing.T, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func fieldState(t *testing.T, form *Form, key FieldKey) FieldState {
	t.Helper()
	st, ok := form.Field(key)
	if !ok {
		t.Fatalf("field %s not found", key)
	}
	return st
}

// futureDate returns a calendar day n years after the clock's today.
func futureDate(clock clockz.Clock, years int) string {
	return clock.Now().AddDate(years, 0, 0).Format(DateLayout)
}

// fillValid enters a complete, valid create-mode item and waits for the
// identifier lookup to resolve.
func fillValid(t *testing.T, form *Form, clock *clockz.FakeClock) Item {
	t.Helper()
	ctx := context.Background()
	item := Item{
		ID:          "TEST001",
		Name:        "Product One",
		Description: "A product used in tests",
		Logo:        "https://example.com/logo.png",
		DateRelease: futureDate(clock, 1),
	}
	for _, key := range []FieldKey{FieldID, FieldName, FieldDescription, FieldLogo, FieldDateRelease} {
		if err := form.SetValue(ctx, key, item.Value(key)); err != nil {
			t.Fatalf("SetValue(%s) error = %v", key, err)
		}
	}
	item.DateRevision = AddOneYear(item.DateRelease)

	settle(clock)
	if !waitFor(t, func() bool { return fieldState(t, form, FieldID).Status != StatusPending }) {
		t.Fatal("identifier lookup did not resolve")
	}
	return item
}
