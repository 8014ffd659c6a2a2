package similarity

import "github.com/alpaylan/ruggle/internal/model"

// unsignedOrder, signedOrder and floatOrder rank each numeric family by bit
// width, narrowest first. usize/isize sit after u128/i128 as the widest rank
// in their family — their
// exact machine width is platform-dependent, which is consistent with
// charging them the same width-crossing cost as any other adjacent step.
var unsignedOrder = []model.PrimitiveKind{model.PrimU8, model.PrimU16, model.PrimU32, model.PrimU64, model.PrimU128, model.PrimUsize}
var signedOrder = []model.PrimitiveKind{model.PrimI8, model.PrimI16, model.PrimI32, model.PrimI64, model.PrimI128, model.PrimIsize}
var floatOrder = []model.PrimitiveKind{model.PrimF32, model.PrimF64}

func rankOf(order []model.PrimitiveKind, p model.PrimitiveKind) (int, bool) {
	for i, x := range order {
		if x == p {
			return i, true
		}
	}
	return 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// primitiveDistance implements the table in spec §4.4: reflexive-zero
// (identical kinds are at distance 0), bounded by 4, and biased to
// treat same-family numeric widening/narrowing and float-float crossing as
// cheap, everything else as expensive.
func primitiveDistance(p, q model.PrimitiveKind) int {
	if p == q {
		return 0
	}
	if ru, ok := rankOf(unsignedOrder, p); ok {
		if rq, ok := rankOf(unsignedOrder, q); ok {
			return min4(abs(ru - rq))
		}
		if rq, ok := rankOf(signedOrder, q); ok {
			return min4(2 + abs(ru-rq))
		}
	}
	if ru, ok := rankOf(signedOrder, p); ok {
		if rq, ok := rankOf(signedOrder, q); ok {
			return min4(abs(ru - rq))
		}
		if rq, ok := rankOf(unsignedOrder, q); ok {
			return min4(2 + abs(ru-rq))
		}
	}
	if _, ok := rankOf(floatOrder, p); ok {
		if _, ok := rankOf(floatOrder, q); ok {
			return 1
		}
		if isInteger(q) {
			return 3
		}
	}
	if isInteger(p) && isFloat(q) {
		return 3
	}
	return 4
}

func min4(x int) int {
	if x > 4 {
		return 4
	}
	return x
}

func isInteger(p model.PrimitiveKind) bool {
	_, u := rankOf(unsignedOrder, p)
	_, s := rankOf(signedOrder, p)
	return u || s
}

func isFloat(p model.PrimitiveKind) bool {
	_, f := rankOf(floatOrder, p)
	return f
}
