// Package ingest translates documentation-tool JSON for a crate into the
// model's IndexedItem records (spec §4.3's extraction rules). The JSON
// shape mirrors the upstream rustdoc-json format: an Index of items keyed
// by id, a Paths table giving each item's breadcrumb and kind, and a
// per-function decl with typed inputs/output, whose type nodes are tagged by
// kind (resolved_path, primitive, generic, borrowed_ref, dyn_trait, slice,
// qualified_path, tuple) — the tags translateType in extract.go dispatches
// on.
package ingest

import (
	"encoding/json"
	"strconv"
)

// RustdocCrate is the top-level structure of a documentation JSON blob.
type RustdocCrate struct {
	Root           int                       `json:"root"`
	CrateVersion   *string                   `json:"crate_version"`
	Index          map[string]RustdocItem    `json:"index"`
	Paths          map[string]RustdocSummary `json:"paths"`
	ExternalCrates map[string]ExternalCrate  `json:"external_crates"`
	FormatVersion  int                       `json:"format_version"`
}

// ExternalCrate identifies a dependency crate referenced from item paths.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// RustdocItem is a single entry in the index, keyed by its id as a string.
// Links maps intra-doc link text (as it appears in Docs) to the id of the
// item it resolves to — rustdoc resolves `[Option::take]`-style references
// at doc-generation time and records the resolution here rather than
// leaving it for the reader to re-derive.
type RustdocItem struct {
	ID      int             `json:"id"`
	CrateID int             `json:"crate_id"`
	Name    *string         `json:"name"`
	Docs    *string         `json:"docs"`
	Links   map[string]int  `json:"links"`
	Inner   json.RawMessage `json:"inner"`
}

// RustdocSummary gives an item's breadcrumb path and declared kind.
type RustdocSummary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// ExternalCrateName resolves a crate_id to a dependency crate's package
// name, preferring the docs.rs html_root_url's crate segment (Cargo names
// use hyphens; library names use underscores) and falling back to Name.
func (c *RustdocCrate) ExternalCrateName(crateID int) string {
	ext, ok := c.ExternalCrates[strconv.Itoa(crateID)]
	if !ok {
		return ""
	}
	if name := extractDocsRsCrateName(ext.HTMLRootURL); name != "" {
		return name
	}
	return ext.Name
}

// rustdocFunction is the "function"/"method" inner payload: a declaration
// of ordered (name, type) inputs and an optional output type. The item's
// declared generic parameters are not decoded: every "generic" type node is
// taken as a parameter of the enclosing item, since the core does not
// separately track trait bounds or lifetimes.
type rustdocFunction struct {
	Decl struct {
		Inputs [][2]json.RawMessage `json:"inputs"`
		Output *json.RawMessage    `json:"output"`
	} `json:"decl"`
}

// innerKind returns the single discriminant key of an item's "inner" JSON
// object (e.g. "function", "struct", "module", "use").
func innerKind(inner json.RawMessage) string {
	if len(inner) == 0 {
		return ""
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return ""
	}
	for k := range outer {
		return k
	}
	return ""
}

func unwrapInner(inner json.RawMessage, key string) json.RawMessage {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return nil
	}
	return outer[key]
}
