package interp

import (
	"math"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// binary applies a binary operator to evaluated operands.
func (in *Interpreter) binary(op ast.OpCode, left, right value.Value) (value.Value, error) {
	switch op {
	case ast.BinAdd:
		lp, rp := value.ToPrimitive(left), value.ToPrimitive(right)
		_, ls := lp.(value.String)
		_, rs := rp.(value.String)
		if ls || rs {
			return value.String(value.ToString(lp) + value.ToString(rp)), nil
		}
		return value.ToNumber(lp) + value.ToNumber(rp), nil

	case ast.BinSub:
		return value.ToNumber(left) - value.ToNumber(right), nil
	case ast.BinMul:
		return value.ToNumber(left) * value.ToNumber(right), nil
	case ast.BinDiv:
		return value.ToNumber(left) / value.ToNumber(right), nil
	case ast.BinRem:
		return value.Number(math.Mod(float64(value.ToNumber(left)), float64(value.ToNumber(right)))), nil
	case ast.BinPow:
		return value.Number(math.Pow(float64(value.ToNumber(left)), float64(value.ToNumber(right)))), nil

	case ast.BinLt:
		return value.Bool(compare(left, right, func(c int) bool { return c < 0 })), nil
	case ast.BinLe:
		return value.Bool(compare(left, right, func(c int) bool { return c <= 0 })), nil
	case ast.BinGt:
		return value.Bool(compare(left, right, func(c int) bool { return c > 0 })), nil
	case ast.BinGe:
		return value.Bool(compare(left, right, func(c int) bool { return c >= 0 })), nil

	case ast.BinLooseEq:
		return value.Bool(value.LooseEquals(left, right)), nil
	case ast.BinLooseNe:
		return value.Bool(!value.LooseEquals(left, right)), nil
	case ast.BinStrictEq:
		return value.Bool(value.StrictEquals(left, right)), nil
	case ast.BinStrictNe:
		return value.Bool(!value.StrictEquals(left, right)), nil

	case ast.BinIn:
		o, ok := right.(*value.Object)
		if !ok {
			return nil, in.throwError("TypeError", "Cannot use 'in' operator to search for '%s' in %s", value.ToString(left), value.ToString(right))
		}
		key := value.ToPropertyKey(left)
		for cur := o; cur != nil; cur = cur.Prototype() {
			if cur.HasOwn(key) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil

	case ast.BinInstanceof:
		f, ok := right.(*value.Object)
		if !ok || !f.IsCallable() {
			return nil, in.throwError("TypeError", "Right-hand side of 'instanceof' is not callable")
		}
		o, ok := left.(*value.Object)
		if !ok {
			return value.Bool(false), nil
		}
		proto, _ := f.Get("prototype").(*value.Object)
		for cur := o.Prototype(); cur != nil; cur = cur.Prototype() {
			if cur == proto {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil

	case ast.BinShl:
		return value.Number(toInt32(left) << (toUint32(right) & 31)), nil
	case ast.BinShr:
		return value.Number(toInt32(left) >> (toUint32(right) & 31)), nil
	case ast.BinUShr:
		return value.Number(toUint32(left) >> (toUint32(right) & 31)), nil
	case ast.BinBitwiseAnd:
		return value.Number(toInt32(left) & toInt32(right)), nil
	case ast.BinBitwiseOr:
		return value.Number(toInt32(left) | toInt32(right)), nil
	case ast.BinBitwiseXor:
		return value.Number(toInt32(left) ^ toInt32(right)), nil
	}
	return nil, in.throwError("SyntaxError", "unsupported operator %s", op)
}

// compare orders two operands after conversion to primitives: two strings
// lexicographically, anything else numerically. Comparisons involving NaN are false.
func compare(left, right value.Value, test func(c int) bool) bool {
	lp, rp := value.ToPrimitive(left), value.ToPrimitive(right)
	ls, lok := lp.(value.String)
	rs, rok := rp.(value.String)
	if lok && rok {
		switch {
		case ls < rs:
			return test(-1)
		case ls > rs:
			return test(1)
		}
		return test(0)
	}
	l, r := float64(value.ToNumber(lp)), float64(value.ToNumber(rp))
	switch {
	case math.IsNaN(l) || math.IsNaN(r):
		return false
	case l < r:
		return test(-1)
	case l > r:
		return test(1)
	}
	return test(0)
}

func toUint32(v value.Value) uint32 {
	f := float64(value.ToNumber(v))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}

func toInt32(v value.Value) int32 {
	return int32(toUint32(v))
}
