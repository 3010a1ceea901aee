package testing

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/memory"
)

func TestValidItem_PassesEveryRule(t *testing.T) {
	today := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	item := ValidItem("TEST001", today)
	if errs := formz.ValidateItem(item, today); len(errs) != 0 {
		t.Errorf("expected valid item, got %v", errs)
	}
}

func TestWaitFor(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		if !WaitFor(t, 100*time.Millisecond, func() bool { return true }) {
			t.Error("expected WaitFor to return true")
		}
	})

	t.Run("condition never met", func(t *testing.T) {
		if WaitFor(t, 50*time.Millisecond, func() bool { return false }) {
			t.Error("expected WaitFor to return false on timeout")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var met atomic.Bool
		go func() {
			time.Sleep(30 * time.Millisecond)
			met.Store(true)
		}()
		if !WaitFor(t, 200*time.Millisecond, met.Load) {
			t.Error("expected WaitFor to return true")
		}
	})
}

func TestStatusHelpers(t *testing.T) {
	form := formz.New(memory.New(), "").Debounce(10 * time.Millisecond)
	if err := form.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer form.Close()

	RequireStatus(t, form, formz.FieldName, formz.StatusUntouched)
	RequireErrors(t, form, formz.FieldName, formz.KindRequired)

	if err := form.SetValue(context.Background(), formz.FieldID, "TEST001"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if !WaitForStatus(t, form, formz.FieldID, formz.StatusValid, time.Second) {
		t.Fatal("expected identifier to become valid")
	}
	RequireErrors(t, form, formz.FieldID)
}
