// Package similarity implements the asymmetric structural distance function
// between a query signature and an indexed signature, per spec §4.4: a
// pure, deterministic, allocation-light comparison with a per-match
// unification table for query-side generics.
package similarity

import "github.com/alpaylan/ruggle/internal/model"

// ScoreConstant (k) is the fixed constant used by the search pipeline to
// normalise a raw distance into a [0,1] score via score = d / (d + k). The
// source prose left k undocumented; spec §9 pins it at 4 and asks that it be
// exposed as a test-visible constant.
const ScoreConstant = 4

// nameMismatchPenalty is the cost contributed by rule 4 when two Resolved
// paths' last segments differ, and reused for the differently-named
// generic-vs-generic case that arises only during unification re-entry
// (see distanceAgainstBinding).
const nameMismatchPenalty = 1

// resolvedVsGenericPenalty is rule 5's cost: a concrete query type lightly
// penalised against an abstract indexed slot.
const resolvedVsGenericPenalty = 1

// lossyUnknownPenalty is charged when the indexed side carries an Unknown
// produced by lossy extraction (references, tuples, impl-trait, ...) in a
// position the query does not itself leave as a wildcard. Spec §3 states
// Unknown "never appears in indexed items", but §4.3's own extraction rule
// maps unsupported JSON nodes to Unknown on the indexed side — the two
// statements are reconciled by treating the indexed Unknown as real but
// cheap to match against, never a Reject (see DESIGN.md).
const lossyUnknownPenalty = 1

// rejectedDistance names a sentinel for a rejected comparison. The internal
// comparison helpers signal Reject through their bool result (returning 0
// as the distance), so callers must check the bool, not the int.
const rejectedDistance = -1

// Distance computes the structural distance between q and item. ok is false
// when the item is rejected (arity/name gate or an irreconcilable kind
// mismatch) — Reject is never surfaced as an error, only as this bool.
func Distance(q model.Query, item model.IndexedItem) (dist int, ok bool) {
	if q.Name != nil && *q.Name != item.Name {
		return 0, false
	}
	if len(q.Signature.Inputs) != len(item.Signature.Inputs) {
		return 0, false
	}

	u := make(map[string]model.Type, 2)
	total := 0
	for k := range q.Signature.Inputs {
		d, ok := typeDistance(q.Signature.Inputs[k].Type, item.Signature.Inputs[k].Type, u)
		if !ok {
			return 0, false
		}
		total += d
	}
	d, ok := typeDistance(q.Signature.Output, item.Signature.Output, u)
	if !ok {
		return 0, false
	}
	total += d
	return total, true
}

// typeDistance implements the rule list of spec §4.4, tried in order; the
// first applicable rule wins. It is the query-rooted comparison: q is
// always a node reachable from the original Query tree (either directly,
// or nested inside a Resolved type's generic args), so rule 2's generic
// binding logic is always in scope here.
func typeDistance(q, i model.Type, u map[string]model.Type) (int, bool) {
	// Rule 1: wildcards cost nothing.
	if q.Kind == model.KindUnknown {
		return 0, true
	}

	// Rule 2: query-side generic — bind on first sight, otherwise re-enter
	// with the pinned binding. The re-entry uses distanceAgainstBinding,
	// not typeDistance: the bound value originates from the indexed side
	// (it may itself be model.KindGeneric, denoting a declared generic
	// parameter of the matched item) and must never be reinterpreted as a
	// fresh query placeholder — doing so would let it rebind itself and
	// recurse forever whenever the indexed generic's name happens to
	// collide with the query's own (see DESIGN.md).
	if q.Kind == model.KindGeneric {
		if bound, ok := u[q.Generic]; ok {
			return distanceAgainstBinding(bound, i)
		}
		u[q.Generic] = i
		return 0, true
	}

	// From here q is concrete (Primitive or Resolved); an indexed Unknown
	// (lossy extraction) is charged a small flat penalty rather than being
	// rejected or compared structurally.
	if i.Kind == model.KindUnknown {
		return lossyUnknownPenalty, true
	}

	switch {
	case q.Kind == model.KindPrimitive && i.Kind == model.KindPrimitive:
		if q.Primitive == i.Primitive {
			return 0, true
		}
		return primitiveDistance(q.Primitive, i.Primitive), true

	case q.Kind == model.KindResolved && i.Kind == model.KindResolved:
		return resolvedDistance(q, i, u, typeDistance)

	case q.Kind == model.KindResolved && i.Kind == model.KindGeneric:
		return resolvedVsGenericPenalty, true
	}

	// Rule 7: kind mismatch not otherwise reconciled (e.g. primitive vs
	// resolved) rejects the item outright.
	return 0, false
}

// distanceAgainstBinding re-compares a previously bound query-generic value
// against a new indexed occurrence. Both sides are now "indexed-rooted": no
// query generics remain to bind, so this never touches u. It mirrors rules
// 3-5 and adds the missing case the unification semantics paragraph
// describes in prose but the rule list omits: two indexed-side Generics
// (or a Generic against a concrete type) compared by name/flat penalty
// instead of by binding.
func distanceAgainstBinding(bound, i model.Type) (int, bool) {
	if model.Equal(bound, i) {
		return 0, true
	}
	if i.Kind == model.KindUnknown || bound.Kind == model.KindUnknown {
		return lossyUnknownPenalty, true
	}

	switch {
	case bound.Kind == model.KindPrimitive && i.Kind == model.KindPrimitive:
		return primitiveDistance(bound.Primitive, i.Primitive), true

	case bound.Kind == model.KindResolved && i.Kind == model.KindResolved:
		return resolvedDistance(bound, i, nil, func(a, b model.Type, _ map[string]model.Type) (int, bool) {
			return distanceAgainstBinding(a, b)
		})

	case bound.Kind == model.KindGeneric && i.Kind == model.KindGeneric:
		if bound.Generic == i.Generic {
			return 0, true
		}
		return nameMismatchPenalty, true

	case bound.Kind == model.KindGeneric || i.Kind == model.KindGeneric:
		// One side abstract, the other concrete: same flat penalty as
		// rule 5, generalised to apply regardless of which side is which
		// (rule 5 as written only covers query-Resolved vs indexed-Generic).
		return resolvedVsGenericPenalty, true
	}

	return 0, false
}

// resolvedDistance implements rule 4: last-segment name equality, path
// prefix distance, and pairwise/arity-adjusted comparison of the last
// segment's generic arguments. recurse is typeDistance when called from a
// query-rooted position, or a distanceAgainstBinding adapter during
// re-entry; u may be nil in the latter case since recurse ignores it.
func resolvedDistance(q, i model.Type, u map[string]model.Type, recurse func(model.Type, model.Type, map[string]model.Type) (int, bool)) (int, bool) {
	total := 0

	qLast := q.LastSegment()
	iLast := i.LastSegment()
	if qLast.Name != iLast.Name {
		total += nameMismatchPenalty
	}

	total += pathPrefixDistance(pathNames(q.Path[:len(q.Path)-1]), pathNames(i.Path[:len(i.Path)-1]))

	qArgs, iArgs := qLast.Args, iLast.Args
	n := len(qArgs)
	if len(iArgs) < n {
		n = len(iArgs)
	}
	if len(qArgs) != len(iArgs) {
		diff := len(qArgs) - len(iArgs)
		if diff < 0 {
			diff = -diff
		}
		total += diff
	}
	for k := 0; k < n; k++ {
		d, ok := recurse(qArgs[k], iArgs[k], u)
		if !ok {
			return 0, false
		}
		total += d
	}
	return total, true
}

func pathNames(segs []model.PathSegment) []string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.Name
	}
	return names
}

// pathPrefixDistance: 0 if equal, 1 if one is a suffix of the other, 2
// otherwise. Two empty prefixes (single-segment paths on both sides) are
// equal.
func pathPrefixDistance(a, b []string) int {
	if equalStrings(a, b) {
		return 0
	}
	if isSuffix(a, b) || isSuffix(b, a) {
		return 1
	}
	return 2
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isSuffix reports whether short is a suffix of long (short itself may be
// empty, which is trivially a suffix of anything, but the equal case is
// already handled by the caller so that only matters when long is
// non-empty).
func isSuffix(short, long []string) bool {
	if len(short) > len(long) {
		return false
	}
	offset := len(long) - len(short)
	for i := range short {
		if short[i] != long[offset+i] {
			return false
		}
	}
	return true
}
