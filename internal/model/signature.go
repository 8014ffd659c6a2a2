package model

import "strings"

// Argument bundles an optional parameter name with a Type. Names are never
// used by the similarity engine; they exist only for rendering.
type Argument struct {
	Name *string
	Type Type
}

// FunctionSignature is an ordered list of inputs and an output type. Arity
// (len(Inputs)) is part of the shape and gates matching before any type is
// ever compared.
type FunctionSignature struct {
	Inputs []Argument
	Output Type
}

// String renders "(a: A, b: B) -> C", omitting the return arrow when the
// output is the unit primitive.
func (s FunctionSignature) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, arg := range s.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		if arg.Name != nil && *arg.Name != "" {
			b.WriteString(*arg.Name)
			b.WriteString(": ")
		}
		b.WriteString(arg.Type.String())
	}
	b.WriteString(")")
	if !(s.Output.Kind == KindPrimitive && s.Output.Primitive == PrimUnit) {
		b.WriteString(" -> ")
		b.WriteString(s.Output.String())
	}
	return b.String()
}

// Query is the parsed form of a search query: an optional literal function
// name (matched by equality, never a pattern) and a FunctionSignature. A
// query with no return clause uses Unknown for Output.
type Query struct {
	Name      *string
	Signature FunctionSignature
}

// ItemKind classifies an IndexedItem by how it was declared.
type ItemKind int

const (
	FreeFunction ItemKind = iota
	Method
	AssocFunction
)

func (k ItemKind) String() string {
	switch k {
	case FreeFunction:
		return "fn"
	case Method:
		return "method"
	case AssocFunction:
		return "assoc fn"
	default:
		return "?"
	}
}

// IndexedItem is a single function-shaped public API entry extracted from a
// crate's documentation JSON. Path and ID together uniquely identify the
// item within its crate.
type IndexedItem struct {
	ID        int
	Name      string
	Path      []string
	Link      string
	Docs      string
	DocLinks  map[string]string
	Signature FunctionSignature
	Kind      ItemKind
}

// Breadcrumb renders Path as a "::"-joined string for display.
func (it IndexedItem) Breadcrumb() string {
	return strings.Join(it.Path, "::")
}

// CrateIndex is the triple (name, version, ordered items) produced by one
// ingest call. Iteration order is insertion order from the source JSON;
// the search pipeline relies on this for stable tie-breaking.
type CrateIndex struct {
	Name    string
	Version string
	Items   []IndexedItem
}
