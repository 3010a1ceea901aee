package integration

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/formz"
)

// waitFor polls a condition until it returns true or timeout is reached.
// Uses short polling intervals for fast tests with reliable results.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// releaseIn returns a release date months from now.
func releaseIn(months int) string {
	return time.Now().AddDate(0, months, 0).Format(formz.DateLayout)
}

// openForm opens a form with a short debounce and closes it at cleanup.
func openForm(t *testing.T, catalog formz.Catalog, id string) *formz.Form {
	t.Helper()
	form := formz.New(catalog, id).Debounce(20 * time.Millisecond)
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { form.Close() })
	return form
}

// fill sets every editable field and waits for the id check to settle.
func fill(t *testing.T, form *formz.Form, item formz.Item) {
	t.Helper()
	ctx := context.Background()
	for _, key := range formz.FieldKeys {
		if key == formz.FieldDateRevision {
			continue
		}
		st, _ := form.Field(key)
		if !st.Enabled {
			continue
		}
		if err := form.SetValue(ctx, key, item.Value(key)); err != nil {
			t.Fatalf("SetValue(%s) error = %v", key, err)
		}
	}
	if !waitFor(t, 2*time.Second, func() bool { return form.Status() != formz.StatusPending }) {
		t.Fatal("identifier check never settled")
	}
}
