package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/formz"
	formztest "github.com/zoobzio/formz/testing"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_Contract(t *testing.T) {
	formztest.RunCatalogSuite(t, func(t *testing.T) formz.Catalog {
		return openTemp(t)
	})
}

func TestCatalog_MemoryDSN(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	item := formztest.ValidItem("MEM01", time.Now())
	if err := c.Create(ctx, item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := c.Get(ctx, "MEM01")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != item {
		t.Errorf("expected %+v, got %+v", item, got)
	}
}

func TestCatalog_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := c.Create(ctx, formztest.ValidItem("KEEP01", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	c.Close()

	// Migrations must be a no-op on the second open.
	c, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer c.Close()

	exists, err := c.Exists(ctx, "KEEP01")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("expected KEEP01 to survive reopen")
	}
}

func TestCatalog_ListOrdered(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	today := time.Now()
	for _, id := range []string{"ZZZ", "AAA", "MMM"} {
		if err := c.Create(ctx, formztest.ValidItem(id, today)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	items, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 3 || items[0].ID != "AAA" || items[1].ID != "MMM" || items[2].ID != "ZZZ" {
		t.Errorf("unexpected list %+v", items)
	}
}

func TestCatalog_UpdateKeepsID(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	item := formztest.ValidItem("UPD01", time.Now())
	if err := c.Create(ctx, item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	changed := item
	changed.ID = "OTHER"
	changed.Logo = "https://example.com/new.png"
	if err := c.Update(ctx, "UPD01", changed); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := c.Get(ctx, "UPD01")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "UPD01" || got.Logo != "https://example.com/new.png" {
		t.Errorf("unexpected item %+v", got)
	}
	if exists, _ := c.Exists(ctx, "OTHER"); exists {
		t.Error("update must not create a row under the body id")
	}
}
