package similarity

import (
	"testing"

	"github.com/alpaylan/ruggle/internal/model"
	"github.com/alpaylan/ruggle/internal/queryparser"
)

func sig(t *testing.T, q string) model.Query {
	t.Helper()
	parsed, err := queryparser.Parse(q)
	if err != nil {
		t.Fatalf("parsing %q: %v", q, err)
	}
	return parsed
}

func item(name string, sigStr string, t *testing.T) model.IndexedItem {
	t.Helper()
	q := sig(t, sigStr)
	return model.IndexedItem{Name: name, Signature: q.Signature}
}

func strp(s string) *string { return &s }

func TestPrimitiveDistance_ReflexiveAndBounded(t *testing.T) {
	t.Parallel()

	all := []model.PrimitiveKind{
		model.PrimBool, model.PrimChar, model.PrimStr,
		model.PrimU8, model.PrimU16, model.PrimU32, model.PrimU64, model.PrimU128, model.PrimUsize,
		model.PrimI8, model.PrimI16, model.PrimI32, model.PrimI64, model.PrimI128, model.PrimIsize,
		model.PrimF32, model.PrimF64, model.PrimNever, model.PrimUnit,
	}
	for _, p := range all {
		if d := primitiveDistance(p, p); d != 0 {
			t.Errorf("primitiveDistance(%s,%s) = %d, want 0", p, p, d)
		}
	}
	for _, p := range all {
		for _, q := range all {
			if d := primitiveDistance(p, q); d > 4 || d < 0 {
				t.Errorf("primitiveDistance(%s,%s) = %d out of [0,4]", p, q, d)
			}
		}
	}
}

func TestPrimitiveDistance_PinnedValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b model.PrimitiveKind
		want int
	}{
		{model.PrimU8, model.PrimU16, 1},
		{model.PrimU8, model.PrimU32, 2},
		{model.PrimU8, model.PrimI8, 2},
		{model.PrimF32, model.PrimF64, 1},
		{model.PrimF32, model.PrimI32, 3},
		{model.PrimBool, model.PrimChar, 4},
		{model.PrimStr, model.PrimUnit, 4},
	}
	for _, c := range cases {
		if got := primitiveDistance(c.a, c.b); got != c.want {
			t.Errorf("primitiveDistance(%s,%s) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestDistance_Reflexivity(t *testing.T) {
	t.Parallel()

	it := item("unwrap", "fn (Option<T>) -> T", t)
	q := sig(t, "fn unwrap(Option<T>) -> T")
	d, ok := Distance(q, it)
	if !ok || d != 0 {
		t.Fatalf("expected distance 0, got d=%d ok=%v", d, ok)
	}
}

func TestDistance_WildcardDominance(t *testing.T) {
	t.Parallel()

	it := item("whatever", "fn (Vec<i32>, str) -> bool", t)
	q := sig(t, "fn (_, _) -> _")
	d, ok := Distance(q, it)
	if !ok || d != 0 {
		t.Fatalf("expected wildcard match at distance 0, got d=%d ok=%v", d, ok)
	}
}

func TestDistance_NameGate(t *testing.T) {
	t.Parallel()

	it := item("bar", "fn (T) -> T", t)
	q := sig(t, "fn foo(T) -> T")
	_, ok := Distance(q, it)
	if ok {
		t.Fatal("expected Reject on name mismatch")
	}
}

func TestDistance_ArityGate(t *testing.T) {
	t.Parallel()

	it := item("f", "fn (i32) -> i32", t)
	q := sig(t, "fn f(i32, i32) -> i32")
	_, ok := Distance(q, it)
	if ok {
		t.Fatal("expected Reject on arity mismatch")
	}
}

func TestDistance_UnificationConsistency(t *testing.T) {
	t.Parallel()

	// indexed fn(T)->U: two structurally distinct generic positions.
	it := item("f", "fn (T) -> U", t)
	q := sig(t, "fn (T) -> T")
	d, ok := Distance(q, it)
	if !ok {
		t.Fatal("expected non-reject (generic-vs-generic never rejects)")
	}
	if d <= 0 {
		t.Fatalf("expected strictly positive distance for distinct unified positions, got %d", d)
	}
}

func TestDistance_UnificationSameBindingIsFree(t *testing.T) {
	t.Parallel()

	it := item("f", "fn (T) -> T", t)
	q := sig(t, "fn (T) -> T")
	d, ok := Distance(q, it)
	if !ok || d != 0 {
		t.Fatalf("expected distance 0 for consistent rebinding, got d=%d ok=%v", d, ok)
	}
}

func TestDistance_KindMismatchRejects(t *testing.T) {
	t.Parallel()

	it := item("f", "fn (i32) -> i32", t)
	q := sig(t, "fn (thing) -> i32") // Resolved vs Primitive
	_, ok := Distance(q, it)
	if ok {
		t.Fatal("expected Reject for primitive-vs-resolved kind mismatch")
	}
}

func TestDistance_MonotoneRefinement(t *testing.T) {
	t.Parallel()

	it := item("f", "fn (Vec<i32>) -> i32", t)
	wildcard := sig(t, "fn (_) -> i32")
	concrete := sig(t, "fn (Vec<i32>) -> i32")

	dw, ok := Distance(wildcard, it)
	if !ok {
		t.Fatal("wildcard query should never reject")
	}
	dc, ok := Distance(concrete, it)
	if !ok {
		t.Fatal("concrete query should not reject here")
	}
	if dc > dw {
		t.Fatalf("refining a wildcard to the exact concrete type must not increase distance: wildcard=%d concrete=%d", dw, dc)
	}
}

// Scenario 1: fn (Option<T>) -> T against Option::unwrap(self) -> T, at distance 0.
func TestScenario_OptionUnwrap(t *testing.T) {
	t.Parallel()

	unwrap := model.IndexedItem{
		Name: "unwrap",
		Signature: model.FunctionSignature{
			Inputs: []model.Argument{{
				Name: strp("self"),
				Type: model.NewResolved([]model.PathSegment{{Name: "Option", Args: []model.Type{model.NewGeneric("T")}}}),
			}},
			Output: model.NewGeneric("T"),
		},
	}
	q := sig(t, "fn (Option<T>) -> T")
	d, ok := Distance(q, unwrap)
	if !ok || d != 0 {
		t.Fatalf("expected distance 0, got d=%d ok=%v", d, ok)
	}
}

// Scenario 2: fn (Vec<T>, T) -> () against Vec::push(&mut self, T), distance <= 3.
func TestScenario_VecPush(t *testing.T) {
	t.Parallel()

	push := model.IndexedItem{
		Name: "push",
		Signature: model.FunctionSignature{
			Inputs: []model.Argument{
				{Name: strp("self"), Type: model.Unknown()}, // &mut self, lossy
				{Type: model.NewGeneric("T")},
			},
			Output: model.Unknown(), // absent return type in the JSON
		},
	}
	q := sig(t, "fn (Vec<T>, T) -> ()")
	d, ok := Distance(q, push)
	if !ok {
		t.Fatal("expected a match")
	}
	if d > 3 {
		t.Fatalf("expected distance <= 3, got %d", d)
	}
}

// Scenario 3: fn (Option<Result<T, E>>) -> Result<Option<T>, E> against
// Option::transpose, at distance 0.
func TestScenario_OptionTranspose(t *testing.T) {
	t.Parallel()

	optionOf := func(inner model.Type) model.Type {
		return model.NewResolved([]model.PathSegment{{Name: "Option", Args: []model.Type{inner}}})
	}
	resultOf := func(ok, err model.Type) model.Type {
		return model.NewResolved([]model.PathSegment{{Name: "Result", Args: []model.Type{ok, err}}})
	}

	transpose := model.IndexedItem{
		Name: "transpose",
		Signature: model.FunctionSignature{
			Inputs: []model.Argument{{
				Name: strp("self"),
				Type: optionOf(resultOf(model.NewGeneric("T"), model.NewGeneric("E"))),
			}},
			Output: resultOf(optionOf(model.NewGeneric("T")), model.NewGeneric("E")),
		},
	}
	q := sig(t, "fn (Option<Result<T, E>>) -> Result<Option<T>, E>")
	d, ok := Distance(q, transpose)
	if !ok || d != 0 {
		t.Fatalf("expected distance 0, got d=%d ok=%v", d, ok)
	}
}

// Scenario 5: fn foo(T) -> T against an index lacking anything literally
// named foo must reject, even though the shape matches.
func TestScenario_NameGateBeatsShapeMatch(t *testing.T) {
	t.Parallel()

	it := item("bar", "fn (T) -> T", t)
	q := sig(t, "fn foo(T) -> T")
	_, ok := Distance(q, it)
	if ok {
		t.Fatal("expected Reject: name absent from index")
	}
}

func TestScoreConstant(t *testing.T) {
	t.Parallel()
	if ScoreConstant != 4 {
		t.Fatalf("spec pins k=4, got %d", ScoreConstant)
	}
}
