// Package testing provides test utilities and helpers for formz forms and
// catalog backends.
package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/formz"
)

// ValidItem returns an item that passes every rule when today is the
// reference day. Release is today plus one month.
func ValidItem(id string, today time.Time) formz.Item {
	release := today.AddDate(0, 1, 0).Format(formz.DateLayout)
	return formz.Item{
		ID:           id,
		Name:         "Product " + id,
		Description:  "Description of product " + id,
		Logo:         "https://example.com/" + id + ".png",
		DateRelease:  release,
		DateRevision: formz.AddOneYear(release),
	}
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
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

// WaitForStatus waits until the field reaches the expected status or timeout occurs.
func WaitForStatus(t *testing.T, form *formz.Form, key formz.FieldKey, expected formz.Status, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		st, ok := form.Field(key)
		return ok && st.Status == expected
	})
}

// RequireStatus fails the test immediately if the field is not in the expected status.
func RequireStatus(t *testing.T, form *formz.Form, key formz.FieldKey, expected formz.Status) {
	t.Helper()
	st, ok := form.Field(key)
	if !ok {
		t.Fatalf("unknown field %s", key)
	}
	if st.Status != expected {
		t.Fatalf("field %s: expected status %s, got %s (errors: %v)", key, expected, st.Status, st.Errors)
	}
}

// RequireErrors fails the test if the field's error bag is not exactly kinds.
func RequireErrors(t *testing.T, form *formz.Form, key formz.FieldKey, kinds ...formz.ErrorKind) {
	t.Helper()
	st, ok := form.Field(key)
	if !ok {
		t.Fatalf("unknown field %s", key)
	}
	if len(st.Errors) != len(kinds) {
		t.Fatalf("field %s: expected errors %v, got %v", key, kinds, st.Errors)
	}
	for _, k := range kinds {
		if !st.Errors.Has(k) {
			t.Fatalf("field %s: expected errors %v, got %v", key, kinds, st.Errors)
		}
	}
}

// RunCatalogSuite exercises the formz.Catalog contract against a backend.
// newCatalog must return an empty catalog; it is called once per subtest.
func RunCatalogSuite(t *testing.T, newCatalog func(t *testing.T) formz.Catalog) {
	t.Helper()
	today := time.Now()

	t.Run("create then get", func(t *testing.T) {
		c := newCatalog(t)
		ctx := context.Background()
		item := ValidItem("SUITE01", today)

		if err := c.Create(ctx, item); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := c.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != item {
			t.Errorf("expected %+v, got %+v", item, got)
		}
	})

	t.Run("exists", func(t *testing.T) {
		c := newCatalog(t)
		ctx := context.Background()

		exists, err := c.Exists(ctx, "SUITE02")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if exists {
			t.Error("expected SUITE02 to be free")
		}
		if err := c.Create(ctx, ValidItem("SUITE02", today)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		exists, err = c.Exists(ctx, "SUITE02")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !exists {
			t.Error("expected SUITE02 to be taken")
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		c := newCatalog(t)
		ctx := context.Background()
		item := ValidItem("SUITE03", today)

		if err := c.Create(ctx, item); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := c.Create(ctx, item); !errors.Is(err, formz.ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		c := newCatalog(t)
		if _, err := c.Get(context.Background(), "MISSING"); !errors.Is(err, formz.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		c := newCatalog(t)
		ctx := context.Background()
		item := ValidItem("SUITE04", today)

		if err := c.Create(ctx, item); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		item.Name = "Renamed product"
		if err := c.Update(ctx, item.ID, item); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := c.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != "Renamed product" {
			t.Errorf("expected renamed item, got %+v", got)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		c := newCatalog(t)
		item := ValidItem("SUITE05", today)
		if err := c.Update(context.Background(), item.ID, item); !errors.Is(err, formz.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		c := newCatalog(t)
		ctx := context.Background()
		item := ValidItem("SUITE06", today)

		if err := c.Create(ctx, item); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := c.Delete(ctx, item.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := c.Get(ctx, item.ID); !errors.Is(err, formz.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := c.Delete(ctx, item.ID); !errors.Is(err, formz.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
