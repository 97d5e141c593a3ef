package value

import "math"

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		bn, ok := b.(Number)
		return ok && a == bn
	case String:
		bs, ok := b.(String)
		return ok && a == bs
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case *Object:
		bo, ok := b.(*Object)
		return ok && a == bo
	case Null:
		_, ok := b.(Null)
		return ok
	case Undefined, nil:
		switch b.(type) {
		case Undefined, nil:
			return true
		}
		return false
	}
	return false
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	for {
		if kindOf(a) == kindOf(b) {
			return StrictEquals(a, b)
		}
		if IsNullish(a) || IsNullish(b) {
			return IsNullish(a) && IsNullish(b)
		}
		switch {
		case kindOf(a) == KindObject:
			a = ToPrimitive(a)
		case kindOf(b) == KindObject:
			b = ToPrimitive(b)
		case kindOf(a) == KindBool:
			a = ToNumber(a)
		case kindOf(b) == KindBool:
			b = ToNumber(b)
		case kindOf(a) == KindString:
			a = ToNumber(a)
		case kindOf(b) == KindString:
			b = ToNumber(b)
		default:
			return false
		}
	}
}

// SameValue implements Object.is without any value-object extension.
func SameValue(a, b Value) bool {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if aok && bok {
		if math.IsNaN(float64(an)) && math.IsNaN(float64(bn)) {
			return true
		}
		if an == 0 && bn == 0 {
			return math.Signbit(float64(an)) == math.Signbit(float64(bn))
		}
		return an == bn
	}
	return StrictEquals(a, b)
}

// SameValueZero is SameValue with +0 and -0 considered equal, as used by
// Array.prototype.includes.
func SameValueZero(a, b Value) bool {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if aok && bok && an == 0 && bn == 0 {
		return true
	}
	return SameValue(a, b)
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindUndefined
	}
	return v.Kind()
}
