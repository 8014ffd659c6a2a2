package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alpaylan/ruggle/internal/model"
)

// translateType implements spec §4.3's extraction rules over a single JSON
// type node:
//   - primitive            -> Primitive
//   - generic               -> Generic(name)
//   - resolved_path          -> Resolved(path, args), recursively translated
//   - anything else (tuple, borrowed_ref, slice, dyn_trait, impl-trait,
//     qualified_path, function-pointer, ...) -> Unknown
//
// crate is consulted to resolve a resolved_path's segments: when the node's
// id has a "paths" table entry, that entry's full path is used (and supplies
// the name if the node's own "name" field is empty, which rustdoc sometimes
// omits); otherwise the node's name is split on "::".
func translateType(raw json.RawMessage, crate *RustdocCrate) model.Type {
	if len(raw) == 0 {
		return model.Unknown()
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return model.Unknown()
	}

	if prim, ok := outer["primitive"]; ok {
		var name string
		if json.Unmarshal(prim, &name) == nil {
			if p, ok := model.LookupPrimitive(name); ok {
				return model.NewPrimitive(p)
			}
		}
		return model.Unknown()
	}

	if g, ok := outer["generic"]; ok {
		var name string
		if json.Unmarshal(g, &name) == nil && name != "" {
			return model.NewGeneric(name)
		}
		return model.Unknown()
	}

	if rp, ok := outer["resolved_path"]; ok {
		return translateResolvedPath(rp, crate)
	}

	// tuple, borrowed_ref, slice, array, dyn_trait, impl-trait,
	// qualified_path, function-pointer, raw_pointer, pat, infer: all
	// deliberately lossy per spec §4.3 — the matcher still recognises the
	// enclosing function by its other arguments.
	return model.Unknown()
}

func translateResolvedPath(raw json.RawMessage, crate *RustdocCrate) model.Type {
	var rp struct {
		Name string           `json:"name"`
		ID   int              `json:"id"`
		Args *json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(raw, &rp); err != nil {
		return model.Unknown()
	}

	name := rp.Name
	var fullPath []string
	if summary, ok := crate.Paths[strconv.Itoa(rp.ID)]; ok && len(summary.Path) > 0 {
		fullPath = summary.Path
		if name == "" {
			name = fullPath[len(fullPath)-1]
		}
	}
	if name == "" {
		return model.Unknown()
	}
	if len(fullPath) == 0 {
		fullPath = strings.Split(name, "::")
	}

	segments := make([]model.PathSegment, len(fullPath))
	for i, s := range fullPath {
		segments[i] = model.PathSegment{Name: s}
	}
	if rp.Args != nil {
		segments[len(segments)-1].Args = translateGenericArgs(*rp.Args, crate)
	}
	return model.NewResolved(segments)
}

func translateGenericArgs(raw json.RawMessage, crate *RustdocCrate) []model.Type {
	var args struct {
		AngleBracketed *struct {
			Args []json.RawMessage `json:"args"`
		} `json:"angle_bracketed"`
	}
	if err := json.Unmarshal(raw, &args); err != nil || args.AngleBracketed == nil {
		return nil
	}

	var out []model.Type
	for _, a := range args.AngleBracketed.Args {
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(a, &tagged); err != nil {
			continue
		}
		// Lifetime and const generic arguments carry no structural type
		// information the model can represent; skipping them (rather than
		// inserting an Unknown placeholder) keeps generic-argument-count
		// comparisons meaningful for the common case of a type-only
		// parameter list while still degrading gracefully on mixed lists.
		if t, ok := tagged["type"]; ok {
			out = append(out, translateType(t, crate))
		}
	}
	return out
}

// translateFunctionSignature builds a model.FunctionSignature from a
// function/method item's "decl". A nil Output field (implicit unit, i.e.
// no "-> T" in the source) becomes Unknown rather than Primitive(unit): the
// absence of any type node to translate is itself a loss of information,
// distinct from a function that explicitly declares "-> ()".
func translateFunctionSignature(decl rustdocFunction, crate *RustdocCrate) model.FunctionSignature {
	inputs := make([]model.Argument, 0, len(decl.Decl.Inputs))
	for _, in := range decl.Decl.Inputs {
		var name string
		_ = json.Unmarshal(in[0], &name)
		arg := model.Argument{Type: translateType(in[1], crate)}
		if name != "" {
			n := name
			arg.Name = &n
		}
		inputs = append(inputs, arg)
	}

	output := model.Unknown()
	if decl.Decl.Output != nil {
		output = translateType(*decl.Decl.Output, crate)
	}
	return model.FunctionSignature{Inputs: inputs, Output: output}
}
