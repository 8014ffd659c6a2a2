package search

import (
	"testing"

	"github.com/alpaylan/ruggle/internal/registry"
)

// intCrate builds a tiny crate JSON with three i32-add-like functions and a
// distractor on u64, to exercise scenario 4 (threshold tightening).
const intCrate = `{
  "format_version": 32,
  "index": {
    "1": {"id": 1, "crate_id": 0, "name": "saturating_add", "inner": {"function": {"decl": {"inputs": [["self", {"primitive": "i32"}], ["rhs", {"primitive": "i32"}]], "output": {"primitive": "i32"}}}}},
    "2": {"id": 2, "crate_id": 0, "name": "wrapping_add", "inner": {"function": {"decl": {"inputs": [["self", {"primitive": "i32"}], ["rhs", {"primitive": "i32"}]], "output": {"primitive": "i32"}}}}},
    "3": {"id": 3, "crate_id": 0, "name": "checked_add", "inner": {"function": {"decl": {"inputs": [["self", {"primitive": "i32"}], ["rhs", {"primitive": "i32"}]], "output": {"primitive": "i32"}}}}},
    "4": {"id": 4, "crate_id": 0, "name": "saturating_add", "inner": {"function": {"decl": {"inputs": [["self", {"primitive": "u64"}], ["rhs", {"primitive": "u64"}]], "output": {"primitive": "u64"}}}}}
  },
  "paths": {
    "1": {"crate_id": 0, "path": ["i32", "saturating_add"], "kind": "method"},
    "2": {"crate_id": 0, "path": ["i32", "wrapping_add"], "kind": "method"},
    "3": {"crate_id": 0, "path": ["i32", "checked_add"], "kind": "method"},
    "4": {"crate_id": 0, "path": ["u64", "saturating_add"], "kind": "method"}
  }
}`

func TestSearch_ThresholdTightening(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	if _, err := idx.Ingest("core", "1.0.0", []byte(intCrate)); err != nil {
		t.Fatal(err)
	}

	loose, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, h := range loose {
		names[h.Path] = true
	}
	for _, want := range []string{"i32::saturating_add", "i32::wrapping_add", "i32::checked_add"} {
		if !names[want] {
			t.Errorf("expected %s in loose-threshold results, got %+v", want, loose)
		}
	}

	strict, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range strict {
		if h.Path == "u64::saturating_add" {
			t.Fatalf("u64::saturating_add should not survive a tightened threshold, got %+v", strict)
		}
	}
}

func TestSearch_ThresholdMonotonicity(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	if _, err := idx.Ingest("core", "1.0.0", []byte(intCrate)); err != nil {
		t.Fatal(err)
	}

	low, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	high, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(high) < len(low) {
		t.Fatalf("raising the threshold must never remove a hit: low=%d high=%d", len(low), len(high))
	}
	for i := range low {
		if low[i].Path != high[i].Path {
			t.Fatalf("raising the threshold must not reorder existing hits at index %d: %q vs %q", i, low[i].Path, high[i].Path)
		}
	}
}

func TestSearch_StableOrdering(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	if _, err := idx.Ingest("core", "1.0.0", []byte(intCrate)); err != nil {
		t.Fatal(err)
	}

	a, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Search(idx, "fn(i32, i32) -> i32", "crate:core", 30, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("identical searches returned different result counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("identical searches diverged at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSearch_NameGateEmptyResult(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	if _, err := idx.Ingest("core", "1.0.0", []byte(intCrate)); err != nil {
		t.Fatal(err)
	}

	hits, err := Search(idx, "fn nonexistent_name(i32, i32) -> i32", "crate:core", 30, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result for a name with no match, got %+v", hits)
	}
}

func TestSearch_ParseErrorSurfaces(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	_, err := Search(idx, "fn (Option<T -> T", "crate:core", 30, 0.4)
	if err == nil {
		t.Fatal("expected a parse error to surface")
	}
}

func TestSearch_UnknownScopeSurfaces(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	_, err := Search(idx, "fn (T) -> T", "crate:doesnotexist", 30, 0.4)
	if err == nil {
		t.Fatal("expected UnknownScope to surface")
	}
}

func TestSearch_LimitCapping(t *testing.T) {
	t.Parallel()

	idx := registry.New()
	if _, err := idx.Ingest("core", "1.0.0", []byte(intCrate)); err != nil {
		t.Fatal(err)
	}
	hits, err := Search(idx, "fn (_, _) -> _", "crate:core", 2, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(hits))
	}
}

func TestScore_Monotonic(t *testing.T) {
	t.Parallel()
	prev := -1.0
	for d := 0; d <= 20; d++ {
		s := Score(d)
		if s < prev {
			t.Fatalf("Score must be monotonic in distance: Score(%d)=%f < previous %f", d, s, prev)
		}
		prev = s
	}
}
