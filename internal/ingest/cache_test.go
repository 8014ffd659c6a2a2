package ingest

import "testing"

func TestCache_RoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	data := []byte(`{"format_version": 32, "index": {}, "paths": {}}`)
	if err := c.Save("serde", "1.0.0", data); err != nil {
		t.Fatal(err)
	}
	if !c.Has("serde", "1.0.0") {
		t.Fatal("expected Has to report the cached blob")
	}

	got, err := c.Load("serde", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("round-trip failed: got %q, want %q", got, data)
	}
}

func TestCache_MissingVersion(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.Has("serde", "9.9.9") {
		t.Error("expected Has=false for an unsaved version")
	}
	if _, err := c.Load("serde", "9.9.9"); err == nil {
		t.Fatal("expected an error loading a missing cache entry")
	}
}
