package value

import (
	"math"
	"strconv"
	"strings"
)

// ToBoolean implements JavaScript truthiness.
func ToBoolean(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Number:
		return v != 0 && !math.IsNaN(float64(v))
	case String:
		return v != ""
	case *Object:
		return true
	}
	return false
}

// ToNumber converts v to a number.
func ToNumber(v Value) Number {
	switch v := v.(type) {
	case Number:
		return v
	case Bool:
		if v {
			return 1
		}
		return 0
	case Null:
		return 0
	case String:
		return stringToNumber(string(v))
	case *Object:
		return ToNumber(ToPrimitive(v))
	}
	return Number(math.NaN())
}

func stringToNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return Number(n)
		}
		return Number(math.NaN())
	}
	switch s {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "_xXnN") {
		return Number(math.NaN())
	}
	return Number(f)
}

// ToPrimitive converts an object to a primitive the way the default
// valueOf/toString pair of the builtin prototypes would.
func ToPrimitive(v Value) Value {
	o, ok := v.(*Object)
	if !ok {
		return v
	}
	switch o.class {
	case ClassArray:
		parts := make([]string, o.length)
		for i, e := range o.Elements() {
			if !IsNullish(e) {
				parts[i] = ToString(e)
			}
		}
		return String(strings.Join(parts, ","))
	case ClassFunction:
		return String("function " + ToString(o.Get("name")) + "() { [native code] }")
	case ClassError:
		return String(ToString(o.Get("name")) + ": " + ToString(o.Get("message")))
	}
	return String("[object Object]")
}

// ToString converts v to a string.
func ToString(v Value) string {
	switch v := v.(type) {
	case String:
		return string(v)
	case Number:
		return NumberToString(float64(v))
	case Bool:
		if v {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case *Object:
		return ToString(ToPrimitive(v))
	}
	return "undefined"
}

// ToPropertyKey converts v to the string used to index an object.
func ToPropertyKey(v Value) string {
	return ToString(v)
}

// NumberToString formats a number the way JavaScript prints it.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go prints 1e+21 as "1e+21" already; strip the zero padding of the
	// exponent ("1e-07" -> "1e-7").
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + string(sign) + exp
}
