// Package model defines the algebraic type model shared by the query side
// and the indexed side: Type, Argument, FunctionSignature, Query and the
// records produced by ingesting a crate's documentation JSON.
package model

import "strings"

// PrimitiveKind enumerates the built-in scalar types recognised by the
// query language and by extraction from documentation JSON.
type PrimitiveKind string

const (
	PrimBool  PrimitiveKind = "bool"
	PrimChar  PrimitiveKind = "char"
	PrimStr   PrimitiveKind = "str"
	PrimU8    PrimitiveKind = "u8"
	PrimU16   PrimitiveKind = "u16"
	PrimU32   PrimitiveKind = "u32"
	PrimU64   PrimitiveKind = "u64"
	PrimU128  PrimitiveKind = "u128"
	PrimUsize PrimitiveKind = "usize"
	PrimI8    PrimitiveKind = "i8"
	PrimI16   PrimitiveKind = "i16"
	PrimI32   PrimitiveKind = "i32"
	PrimI64   PrimitiveKind = "i64"
	PrimI128  PrimitiveKind = "i128"
	PrimIsize PrimitiveKind = "isize"
	PrimF32   PrimitiveKind = "f32"
	PrimF64   PrimitiveKind = "f64"
	PrimNever PrimitiveKind = "never"
	PrimUnit  PrimitiveKind = "unit"
)

// primitiveNames is the set recognised by the parser and by extraction,
// keyed the way they appear in Rust source (unit and never have no literal
// spelling in the surface grammar and are reached only via "()" and "!").
var primitiveNames = map[string]PrimitiveKind{
	"bool": PrimBool, "char": PrimChar, "str": PrimStr,
	"u8": PrimU8, "u16": PrimU16, "u32": PrimU32, "u64": PrimU64, "u128": PrimU128, "usize": PrimUsize,
	"i8": PrimI8, "i16": PrimI16, "i32": PrimI32, "i64": PrimI64, "i128": PrimI128, "isize": PrimIsize,
	"f32": PrimF32, "f64": PrimF64,
	"!": PrimNever,
}

// LookupPrimitive resolves a surface identifier to a PrimitiveKind. ok is
// false when name does not name a primitive.
func LookupPrimitive(name string) (PrimitiveKind, bool) {
	p, ok := primitiveNames[name]
	return p, ok
}

// Kind discriminates the variants of Type. The hierarchy is closed: every
// operation over Type dispatches on Kind rather than through an interface.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrimitive
	KindGeneric
	KindResolved
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindGeneric:
		return "Generic"
	case KindResolved:
		return "Resolved"
	case KindUnknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// PathSegment is one element of a Resolved path. Only the last segment of a
// path may carry generic arguments; earlier segments always have an empty
// Args slice.
type PathSegment struct {
	Name string
	Args []Type
}

// Type is the tagged variant at the centre of the model: Primitive, Generic,
// Resolved or Unknown. Zero value is Unknown.
type Type struct {
	Kind      Kind
	Primitive PrimitiveKind // valid when Kind == KindPrimitive
	Generic   string        // valid when Kind == KindGeneric
	Path      []PathSegment // valid when Kind == KindResolved, len >= 1
}

// Unknown is the query-only wildcard placeholder, also used by lossy
// extraction on the indexed side for unsupported JSON type nodes.
func Unknown() Type { return Type{Kind: KindUnknown} }

// NewPrimitive builds a Primitive Type.
func NewPrimitive(p PrimitiveKind) Type { return Type{Kind: KindPrimitive, Primitive: p} }

// NewGeneric builds a Generic Type with the given parameter name.
func NewGeneric(name string) Type { return Type{Kind: KindGeneric, Generic: name} }

// NewResolved builds a Resolved Type from a non-empty path.
func NewResolved(path []PathSegment) Type { return Type{Kind: KindResolved, Path: path} }

// LastSegment returns the final path segment of a Resolved type. Panics if
// called on a non-Resolved type; callers must check Kind first.
func (t Type) LastSegment() PathSegment {
	return t.Path[len(t.Path)-1]
}

// Equal reports whether two types are structurally identical. Used by the
// similarity engine for short-circuit identity checks.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrimitive:
		return a.Primitive == b.Primitive
	case KindGeneric:
		return a.Generic == b.Generic
	case KindUnknown:
		return true
	case KindResolved:
		if len(a.Path) != len(b.Path) {
			return false
		}
		for i := range a.Path {
			if a.Path[i].Name != b.Path[i].Name {
				return false
			}
			if len(a.Path[i].Args) != len(b.Path[i].Args) {
				return false
			}
			for j := range a.Path[i].Args {
				if !Equal(a.Path[i].Args[j], b.Path[i].Args[j]) {
					return false
				}
			}
		}
		return true
	default:
		return false
	}
}

// String renders a Type in Rust-like surface syntax. It is deterministic
// and used both for diagnostics and as the basis of the pretty-printer the
// search pipeline uses to render Hit signatures.
func (t Type) String() string {
	switch t.Kind {
	case KindUnknown:
		return "_"
	case KindGeneric:
		return t.Generic
	case KindPrimitive:
		if t.Primitive == PrimUnit {
			return "()"
		}
		if t.Primitive == PrimNever {
			return "!"
		}
		return string(t.Primitive)
	case KindResolved:
		var b strings.Builder
		for i, seg := range t.Path {
			if i > 0 {
				b.WriteString("::")
			}
			b.WriteString(seg.Name)
		}
		last := t.Path[len(t.Path)-1]
		if len(last.Args) > 0 {
			b.WriteString("<")
			for i, a := range last.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(a.String())
			}
			b.WriteString(">")
		}
		return b.String()
	default:
		return "?"
	}
}
