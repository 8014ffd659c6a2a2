package catalog

import (
	"path/filepath"
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_UpsertAndGet(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	if err := c.Upsert("serde", "1.0.0", 42); err != nil {
		t.Fatal(err)
	}

	e, err := c.Get("serde", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("expected entry, got nil")
	}
	if e.ItemCount != 42 {
		t.Errorf("expected item count 42, got %d", e.ItemCount)
	}
}

func TestCatalog_GetMissing(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	e, err := c.Get("nope", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Errorf("expected nil for missing entry, got %+v", e)
	}
}

func TestCatalog_UpsertReplaces(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	if err := c.Upsert("tokio", "1.0.0", 10); err != nil {
		t.Fatal(err)
	}
	if err := c.Upsert("tokio", "1.0.0", 20); err != nil {
		t.Fatal(err)
	}

	e, err := c.Get("tokio", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if e.ItemCount != 20 {
		t.Errorf("expected replaced item count 20, got %d", e.ItemCount)
	}

	entries, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected re-ingest to replace, not duplicate, got %d entries", len(entries))
	}
}

func TestCatalog_ListOrdering(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	if err := c.Upsert("zeta", "1.0.0", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Upsert("alpha", "2.0.0", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Upsert("alpha", "1.0.0", 1); err != nil {
		t.Fatal(err)
	}

	entries, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "alpha" || entries[0].Version != "1.0.0" {
		t.Errorf("expected alpha@1.0.0 first, got %s@%s", entries[0].Name, entries[0].Version)
	}
	if entries[2].Name != "zeta" {
		t.Errorf("expected zeta last, got %s", entries[2].Name)
	}
}
