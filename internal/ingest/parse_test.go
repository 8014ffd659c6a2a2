package ingest

import (
	"testing"

	"github.com/alpaylan/ruggle/internal/model"
)

// sampleCrate mirrors the shape real rustdoc JSON produces: free functions
// get their own "paths" table entry, but methods and associated functions
// never do — they are only reachable by walking a type's "impls" list (or a
// trait's own "items" list) down to the "Function" items nested inside.
const sampleCrate = `{
  "root": 0,
  "crate_version": "1.0.0",
  "format_version": 32,
  "index": {
    "1": {
      "id": 1,
      "crate_id": 0,
      "name": "Option",
      "inner": {"struct": {"impls": [10]}}
    },
    "10": {
      "id": 10,
      "crate_id": 0,
      "name": null,
      "inner": {
        "impl": {
          "trait": null,
          "for": {"resolved_path": {"name": "Option", "id": 1, "args": null}},
          "items": [11]
        }
      }
    },
    "11": {
      "id": 11,
      "crate_id": 0,
      "name": "unwrap",
      "docs": "Returns the contained value.",
      "inner": {
        "function": {
          "decl": {
            "inputs": [["self", {"generic": "Self"}]],
            "output": {"generic": "T"}
          }
        }
      }
    },
    "2": {
      "id": 2,
      "crate_id": 0,
      "name": "Vec",
      "inner": {"struct": {"impls": [20]}}
    },
    "20": {
      "id": 20,
      "crate_id": 0,
      "name": null,
      "inner": {
        "impl": {
          "trait": null,
          "for": {"resolved_path": {"name": "Vec", "id": 2, "args": null}},
          "items": [21, 22]
        }
      }
    },
    "21": {
      "id": 21,
      "crate_id": 0,
      "name": "push",
      "docs": "",
      "inner": {
        "function": {
          "decl": {
            "inputs": [
              ["self", {"borrowed_ref": {"is_mutable": true, "type": {"generic": "Self"}}}],
              ["value", {"generic": "T"}]
            ],
            "output": null
          }
        }
      }
    },
    "22": {
      "id": 22,
      "crate_id": 0,
      "name": "new",
      "docs": "Creates an empty Vec.",
      "inner": {
        "function": {
          "decl": {
            "inputs": [],
            "output": {"resolved_path": {"name": "Vec", "id": 2, "args": {"angle_bracketed": {"args": [{"type": {"generic": "T"}}]}}}}
          }
        }
      }
    },
    "5": {
      "id": 5,
      "crate_id": 0,
      "name": "Greet",
      "inner": {"trait": {"items": [6]}}
    },
    "6": {
      "id": 6,
      "crate_id": 0,
      "name": "greet",
      "docs": "",
      "inner": {
        "function": {
          "decl": {
            "inputs": [["self", {"generic": "Self"}]],
            "output": {"primitive": "str"}
          }
        }
      }
    },
    "30": {
      "id": 30,
      "crate_id": 0,
      "name": "swap",
      "docs": "Swaps two values.",
      "inner": {
        "function": {
          "decl": {
            "inputs": [["a", {"generic": "T"}], ["b", {"generic": "T"}]],
            "output": null
          }
        }
      }
    },
    "3": {
      "id": 3,
      "crate_id": 0,
      "name": "Widget",
      "inner": {"struct": {}}
    }
  },
  "paths": {
    "1": {"crate_id": 0, "path": ["option", "Option"], "kind": "struct"},
    "2": {"crate_id": 0, "path": ["vec", "Vec"], "kind": "struct"},
    "5": {"crate_id": 0, "path": ["greet", "Greet"], "kind": "trait"},
    "3": {"crate_id": 0, "path": ["widget", "Widget"], "kind": "struct"},
    "30": {"crate_id": 0, "path": ["mem", "swap"], "kind": "function"}
  },
  "external_crates": {}
}`

func TestParseCrate_ExtractsFunctionsOnly(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatalf("ParseCrate: %v", err)
	}
	// unwrap, push, new (inherent methods/assoc fns), greet (trait method),
	// swap (free function); the struct/impl/trait container items, and the
	// unimplemented Widget struct, are all skipped.
	if len(items) != 5 {
		t.Fatalf("expected 5 function items, got %d: %+v", len(items), items)
	}
}

func findItem(items []model.IndexedItem, name string) (model.IndexedItem, bool) {
	for _, it := range items {
		if it.Name == name {
			return it, true
		}
	}
	return model.IndexedItem{}, false
}

func TestParseCrate_DiscoversInherentMethodViaImpl(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	unwrap, ok := findItem(items, "unwrap")
	if !ok {
		t.Fatal("unwrap not found: methods nested under a struct's impls must be discovered")
	}
	if unwrap.Kind != model.Method {
		t.Fatalf("expected unwrap to classify as Method, got %v", unwrap.Kind)
	}
	if got := unwrap.Breadcrumb(); got != "option::Option::unwrap" {
		t.Fatalf("expected breadcrumb option::Option::unwrap, got %q", got)
	}
	if unwrap.Signature.Output.Kind != model.KindGeneric || unwrap.Signature.Output.Generic != "T" {
		t.Fatalf("expected Generic(T) output, got %+v", unwrap.Signature.Output)
	}
}

func TestParseCrate_DiscoversAssocFunctionWithoutReceiver(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	newFn, ok := findItem(items, "new")
	if !ok {
		t.Fatal("Vec::new not found")
	}
	if newFn.Kind != model.AssocFunction {
		t.Fatalf("expected new to classify as AssocFunction (no self), got %v", newFn.Kind)
	}
	if got := newFn.Breadcrumb(); got != "vec::Vec::new" {
		t.Fatalf("expected breadcrumb vec::Vec::new, got %q", got)
	}
	if newFn.Signature.Output.Kind != model.KindResolved || newFn.Signature.Output.LastSegment().Name != "Vec" {
		t.Fatalf("expected Resolved(Vec<T>) output, got %+v", newFn.Signature.Output)
	}
}

func TestParseCrate_DiscoversTraitMethodViaTraitItems(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	greet, ok := findItem(items, "greet")
	if !ok {
		t.Fatal("greet not found: trait-declared methods must be discovered via the trait's own items list")
	}
	if greet.Kind != model.Method {
		t.Fatalf("expected greet to classify as Method (has self), got %v", greet.Kind)
	}
	if got := greet.Breadcrumb(); got != "greet::Greet::greet" {
		t.Fatalf("expected breadcrumb greet::Greet::greet, got %q", got)
	}
}

func TestParseCrate_FreeFunctionStillUsesPathsTable(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	swap, ok := findItem(items, "swap")
	if !ok {
		t.Fatal("swap not found")
	}
	if swap.Kind != model.FreeFunction {
		t.Fatalf("expected swap to classify as FreeFunction, got %v", swap.Kind)
	}
	if got := swap.Breadcrumb(); got != "mem::swap" {
		t.Fatalf("expected breadcrumb mem::swap, got %q", got)
	}
}

func TestParseCrate_ReferenceAndAbsentOutputAreLossy(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	push, ok := findItem(items, "push")
	if !ok {
		t.Fatal("push not found")
	}
	if push.Signature.Inputs[0].Type.Kind != model.KindUnknown {
		t.Fatalf("expected &mut self to extract as Unknown, got %+v", push.Signature.Inputs[0].Type)
	}
	if push.Signature.Output.Kind != model.KindUnknown {
		t.Fatalf("expected absent output to extract as Unknown, got %+v", push.Signature.Output)
	}
}

func TestParseCrate_DocsAndLink(t *testing.T) {
	t.Parallel()

	items, err := ParseCrate([]byte(sampleCrate), "mycrate", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	unwrap, ok := findItem(items, "unwrap")
	if !ok {
		t.Fatal("unwrap not found")
	}
	if unwrap.Docs == "" {
		t.Error("expected docstring to survive extraction")
	}
	if unwrap.Link == "" {
		t.Error("expected a non-empty docs.rs link")
	}
}

func TestParseCrate_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseCrate([]byte("{not json"), "c", "1.0.0")
	if err == nil {
		t.Fatal("expected an IngestError for malformed JSON")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParseCrate_UnsupportedFormatVersion(t *testing.T) {
	t.Parallel()

	_, err := ParseCrate([]byte(`{"format_version": 999999, "index": {}, "paths": {}}`), "c", "1.0.0")
	if err == nil {
		t.Fatal("expected an IngestError for unsupported format_version")
	}
}
