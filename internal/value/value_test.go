package value

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLooseEquals(t *testing.T) {
	obj := NewObject(nil)
	tests := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), String("1"), true},
		{String("1"), Number(1), true},
		{Bool(true), Number(1), true},
		{Bool(false), String(""), true},
		{Null{}, Undefined{}, true},
		{Null{}, Number(0), false},
		{Undefined{}, Bool(false), false},
		{Number(math.NaN()), Number(math.NaN()), false},
		{obj, obj, true},
		{obj, NewObject(nil), false},
		{NewArray(nil, []Value{Number(1), Number(2)}), String("1,2"), true},
		{obj, String("[object Object]"), true},
	}
	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("LooseEquals(%s, %s) = %v, want %v", Inspect(tt.a), Inspect(tt.b), got, tt.want)
		}
	}
}

func TestStrictEquals(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), String("1"), false},
		{Null{}, Undefined{}, false},
		{Undefined{}, nil, true},
		{Number(0), Number(math.Copysign(0, -1)), true},
		{Number(math.NaN()), Number(math.NaN()), false},
	}
	for _, tt := range tests {
		if got := StrictEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("StrictEquals(%s, %s) = %v, want %v", Inspect(tt.a), Inspect(tt.b), got, tt.want)
		}
	}
}

func TestSameValue(t *testing.T) {
	negZero := Number(math.Copysign(0, -1))
	if !SameValue(Number(math.NaN()), Number(math.NaN())) {
		t.Error("SameValue(NaN, NaN) should be true")
	}
	if SameValue(Number(0), negZero) {
		t.Error("SameValue(0, -0) should be false")
	}
	if !SameValueZero(Number(0), negZero) {
		t.Error("SameValueZero(0, -0) should be true")
	}
}

func TestObjectKeyOrder(t *testing.T) {
	o := NewObject(nil)
	for _, k := range []string{"b", "2", "a", "0", "01"} {
		if err := o.Set(k, Number(1)); err != nil {
			t.Fatal(err)
		}
	}
	_ = o.DefineHidden("hidden", Bool(true))

	got := o.Keys()
	want := []string{"0", "2", "b", "a", "01"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestArrayIndexBound(t *testing.T) {
	o := NewObject(nil)
	for _, k := range []string{"4294967295", "x", "9999999999", "4294967294"} {
		_ = o.Set(k, Number(1))
	}
	got := strings.Join(o.Keys(), ",")
	if want := "4294967294,4294967295,x,9999999999"; got != want {
		t.Errorf("Keys() = %s, want %s", got, want)
	}

	arr := NewArray(nil, []Value{Number(1), Number(2)})
	_ = arr.Set("4294967295", Number(3))
	if arr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", arr.Len())
	}
}

func TestFrozenObjectRejectsWrites(t *testing.T) {
	o := NewObject(nil)
	_ = o.Set("x", Number(1))
	o.Freeze()

	err := o.Set("x", Number(2))
	if !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if got := o.Get("x"); !StrictEquals(got, Number(1)) {
		t.Errorf("frozen property changed to %s", Inspect(got))
	}
	if err := o.Delete("x"); !errors.Is(err, ErrFrozen) {
		t.Errorf("expected ErrFrozen from Delete, got %v", err)
	}
}

func TestArrayLength(t *testing.T) {
	arr := NewArray(nil, []Value{Number(1), Number(2)})
	_ = arr.Push(Number(3))
	if arr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", arr.Len())
	}
	if got := arr.Get("length"); !StrictEquals(got, Number(3)) {
		t.Errorf("length = %s", Inspect(got))
	}
	_ = arr.Set("length", Number(1))
	if got := Inspect(arr); got != "[1]" {
		t.Errorf("after truncation: %s", got)
	}
}

func TestPrototypeLookup(t *testing.T) {
	proto := NewObject(nil)
	_ = proto.Set("greeting", String("hi"))
	o := NewObject(proto)
	if got := o.Get("greeting"); !StrictEquals(got, String("hi")) {
		t.Errorf("inherited property = %s", Inspect(got))
	}
	if o.HasOwn("greeting") {
		t.Error("inherited property reported as own")
	}
}

func TestCloneShape(t *testing.T) {
	proto := NewObject(nil)
	o := NewObject(proto)
	_ = o.Set("x", Number(1))
	_ = o.Set("y", Number(2))
	o.Tag()
	o.Freeze()

	c := o.CloneShape()
	if c.Prototype() != proto {
		t.Error("clone lost the prototype")
	}
	if c.IsFrozen() || c.IsTagged() {
		t.Error("clone should start unfrozen and untagged")
	}
	if got := Inspect(c); got != "{ x: 1, y: 2 }" {
		t.Errorf("clone = %s", got)
	}
}

func TestComparatorsPatch(t *testing.T) {
	prev := SetComparators(Comparators{Search: func(a, b Value) bool { return true }})
	defer SetComparators(prev)

	arr := NewArray(nil, []Value{Number(1), Number(2)})
	if got := IndexOf(arr, String("anything"), 0); got != 0 {
		t.Errorf("patched IndexOf = %d, want 0", got)
	}
	if !Includes(arr, Number(2), 0) {
		t.Error("Includes should still use its own relation")
	}
	if Includes(arr, Number(3), 0) {
		t.Error("Includes(3) should be false")
	}
}

func TestNumberToString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberToString(tt.in); got != tt.want {
			t.Errorf("NumberToString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTypeof(t *testing.T) {
	fn := NewFunction(nil, "f", func(this Value, args []Value) (Value, error) { return Undefined{}, nil })
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined{}, "undefined"},
		{Null{}, "object"},
		{Number(1), "number"},
		{String(""), "string"},
		{Bool(true), "boolean"},
		{NewObject(nil), "object"},
		{fn, "function"},
	}
	for _, tt := range tests {
		if got := Typeof(tt.v); got != tt.want {
			t.Errorf("Typeof(%s) = %q, want %q", Inspect(tt.v), got, tt.want)
		}
	}
}
