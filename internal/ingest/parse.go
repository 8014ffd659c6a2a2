package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alpaylan/ruggle/internal/model"
)

// ParseError is an IngestError per spec §7: malformed JSON or an
// unsupported document version. The offending crate is skipped entirely;
// other crates in the same Index are unaffected.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "ingest: " + e.Reason }

// supportedFormatVersions bounds the documentation JSON schema versions this
// extractor understands. Anything else is rejected rather than silently
// mis-parsed.
var supportedFormatVersions = map[int]bool{0: true, 30: true, 31: true, 32: true, 33: true, 34: true}

// ResolvedVersion reads just the crate_version field of a documentation
// JSON blob, letting a caller that fetched with version "latest" learn
// which concrete version docs.rs actually served.
func ResolvedVersion(data []byte) (string, error) {
	var head struct {
		CrateVersion *string `json:"crate_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", &ParseError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if head.CrateVersion == nil || *head.CrateVersion == "" {
		return "", &ParseError{Reason: "documentation JSON has no crate_version"}
	}
	return *head.CrateVersion, nil
}

// ParseCrate extracts every public function-shaped item (free functions,
// inherent methods, trait methods, associated functions) from a
// documentation JSON blob, per spec §4.3. Non-function items (structs,
// enums, traits, modules, use-statements, impl blocks, ...) are skipped.
// crateName/version are used only to build each item's external docs.rs
// link.
func ParseCrate(data []byte, crateName, version string) ([]model.IndexedItem, error) {
	var crate RustdocCrate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if crate.FormatVersion != 0 && !supportedFormatVersions[crate.FormatVersion] {
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported document format_version %d", crate.FormatVersion)}
	}

	assocCtx := collectAssocContexts(&crate)

	var items []model.IndexedItem
	nextID := 0
	for _, idStr := range orderedIndexKeys(crate.Index) {
		raw := crate.Index[idStr]
		if raw.CrateID != 0 {
			continue // item belongs to an external crate, not this one
		}
		if innerKind(raw.Inner) != "function" {
			continue
		}
		fnData := unwrapInner(raw.Inner, "function")
		if fnData == nil {
			continue
		}
		var fn rustdocFunction
		if err := json.Unmarshal(fnData, &fn); err != nil {
			continue
		}

		itemName := ""
		if raw.Name != nil {
			itemName = *raw.Name
		}
		path, docKind, itemKind, ok := locateItem(idStr, itemName, &crate, assocCtx, fn)
		if !ok {
			continue
		}

		name := path[len(path)-1]
		var docs string
		if raw.Docs != nil {
			docs = *raw.Docs
		}

		nextID++
		items = append(items, model.IndexedItem{
			ID:        nextID,
			Name:      name,
			Path:      path,
			Link:      docsRsLink(crateName, version, path, docKind),
			Docs:      docs,
			DocLinks:  resolveDocLinks(raw.Links, &crate, crateName, version),
			Signature: translateFunctionSignature(fn, &crate),
			Kind:      itemKind,
		})
	}

	return items, nil
}

// locateItem decides how a function-shaped index entry should be placed on
// a breadcrumb: either via a direct "paths" table entry (free functions,
// which rustdoc always lists there) or, failing that, via the enclosing
// impl/trait block discovered by collectAssocContexts — rustdoc's "paths"
// table never carries an entry for an associated item, only for things that
// can themselves be named in a type position. The returned path always ends
// in the item's own name.
func locateItem(idStr, itemName string, crate *RustdocCrate, assocCtx map[string]assocContext, fn rustdocFunction) (path []string, docKind string, kind model.ItemKind, ok bool) {
	if summary, exists := crate.Paths[idStr]; exists {
		if k, isFn := classify(summary.Kind); isFn {
			path = summary.Path
			if itemName != "" {
				path = append(append([]string(nil), summary.Path[:len(summary.Path)-1]...), itemName)
			}
			return path, summary.Kind, k, true
		}
	}
	if ctx, exists := assocCtx[idStr]; exists {
		if itemName == "" {
			return nil, "", 0, false // an assoc item with no name can't be placed on a breadcrumb
		}
		path = append(append([]string(nil), ctx.path...), itemName)
		if hasSelfReceiver(fn) {
			return path, "method", model.Method, true
		}
		return path, "method", model.AssocFunction, true
	}
	return nil, "", 0, false
}

// orderedIndexKeys returns the index's keys sorted by their numeric rustdoc
// id. encoding/json unmarshals a JSON object into a Go map, which discards
// key order entirely, but spec §3 relies on "the insertion order from the
// source JSON" for stable tie-breaking. Rustdoc assigns ids monotonically
// in the order it visits items, so sorting numerically reconstructs that
// order deterministically without needing a custom streaming decoder.
func orderedIndexKeys(index map[string]RustdocItem) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return index[keys[i]].ID < index[keys[j]].ID
	})
	return keys
}

// classify maps the paths-table "kind" string to an ItemKind, and reports
// whether the item is function-shaped at all. Real rustdoc JSON only ever
// puts free functions in the paths table under "function" — "method" and
// "tymethod" are listed here defensively, in case a future rustdoc schema
// version starts doing so for items this extractor would otherwise have to
// reach through an impl/trait block.
func classify(kind string) (model.ItemKind, bool) {
	switch kind {
	case "function":
		return model.FreeFunction, true
	case "method":
		return model.Method, true
	case "tymethod":
		return model.AssocFunction, true
	default:
		return 0, false
	}
}

// assocContext is the breadcrumb prefix an associated function inherits
// from its enclosing impl or trait block, recorded by collectAssocContexts
// since the function item itself carries no reference back to it.
type assocContext struct {
	path []string
}

// collectAssocContexts walks every local "impl" and "trait" item in the
// crate and records, for each function id it contains, the breadcrumb
// prefix (module path + owning type/trait name) that item should be
// rendered under. This is the traversal spec §4.3 requires for "inherent
// methods, trait methods, associated functions": rustdoc never lists these
// in the top-level "paths" table (only items that can themselves appear in
// a type position are there), so the only way to discover them is to walk
// each impl block's "items" list and each trait's own "items" list, the
// same traversal rustdoc's own ItemEnum::Impl handling and its
// #implementations fragment renderer both rely on.
func collectAssocContexts(crate *RustdocCrate) map[string]assocContext {
	ctx := make(map[string]assocContext)
	for idStr, raw := range crate.Index {
		if raw.CrateID != 0 {
			continue
		}
		switch innerKind(raw.Inner) {
		case "impl":
			implData := unwrapInner(raw.Inner, "impl")
			if implData == nil {
				continue
			}
			var impl struct {
				For   json.RawMessage `json:"for"`
				Items []int           `json:"items"`
			}
			if err := json.Unmarshal(implData, &impl); err != nil {
				continue
			}
			base, ok := implTargetPath(impl.For, crate)
			if !ok {
				continue
			}
			for _, id := range impl.Items {
				ctx[strconv.Itoa(id)] = assocContext{path: base}
			}

		case "trait":
			traitData := unwrapInner(raw.Inner, "trait")
			if traitData == nil {
				continue
			}
			var tr struct {
				Items []int `json:"items"`
			}
			if err := json.Unmarshal(traitData, &tr); err != nil {
				continue
			}
			summary, ok := crate.Paths[idStr]
			if !ok || len(summary.Path) == 0 {
				continue
			}
			for _, id := range tr.Items {
				ctx[strconv.Itoa(id)] = assocContext{path: summary.Path}
			}
		}
	}
	return ctx
}

// implTargetPath resolves an impl block's "for" type to the breadcrumb
// prefix its associated items should be filed under: the target's own
// module path plus its name, for a resolved_path target (a local struct,
// enum or union), or just the bare name for a primitive target (e.g.
// `impl i32 { ... }`). Any other target shape — a reference, tuple, slice,
// or other type this extractor doesn't structurally resolve — is skipped,
// consistent with the rest of the extractor's lossy-on-the-unsupported
// philosophy.
func implTargetPath(forRaw json.RawMessage, crate *RustdocCrate) ([]string, bool) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(forRaw, &outer); err != nil {
		return nil, false
	}

	if prim, ok := outer["primitive"]; ok {
		var name string
		if json.Unmarshal(prim, &name) == nil && name != "" {
			return []string{name}, true
		}
		return nil, false
	}

	if rp, ok := outer["resolved_path"]; ok {
		var p struct {
			Name string `json:"name"`
			ID   int    `json:"id"`
		}
		if err := json.Unmarshal(rp, &p); err != nil {
			return nil, false
		}
		if summary, ok := crate.Paths[strconv.Itoa(p.ID)]; ok && len(summary.Path) > 0 {
			return summary.Path, true
		}
		if p.Name != "" {
			return strings.Split(p.Name, "::"), true
		}
		return nil, false
	}

	return nil, false
}

// hasSelfReceiver reports whether fn's declaration begins with a "self"
// parameter, however it is borrowed. The paths-table "kind" string
// (method/tymethod/function) is only available for free functions found
// there directly; an item discovered through collectAssocContexts carries
// no such discriminant, so this is the only signal left to tell a Method
// (has a receiver) from an AssocFunction (none, e.g. `Vec::new`).
func hasSelfReceiver(fn rustdocFunction) bool {
	if len(fn.Decl.Inputs) == 0 {
		return false
	}
	var name string
	if err := json.Unmarshal(fn.Decl.Inputs[0][0], &name); err != nil {
		return false
	}
	return name == "self"
}
