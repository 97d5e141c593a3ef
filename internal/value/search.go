package value

import "sync/atomic"

// ----------------------------------------------------------------------------
// Patchable Comparators
// ----------------------------------------------------------------------------

// Comparators are the equality relations used by Object.is and the array
// search primitives. The runtime support library replaces them once per
// process so that two value objects compare structurally.
type Comparators struct {
	Is       func(a, b Value) bool // Object.is
	Search   func(a, b Value) bool // indexOf, lastIndexOf
	Includes func(a, b Value) bool // includes
}

// NativeComparators returns the unpatched relations.
func NativeComparators() Comparators {
	return Comparators{Is: SameValue, Search: StrictEquals, Includes: SameValueZero}
}

var comparators atomic.Pointer[Comparators]

func init() {
	native := NativeComparators()
	comparators.Store(&native)
}

// SetComparators installs c, returning the relations it replaced. Nil fields
// keep the current relation.
func SetComparators(c Comparators) Comparators {
	prev := *comparators.Load()
	next := prev
	if c.Is != nil {
		next.Is = c.Is
	}
	if c.Search != nil {
		next.Search = c.Search
	}
	if c.Includes != nil {
		next.Includes = c.Includes
	}
	comparators.Store(&next)
	return prev
}

// CurrentComparators returns the relations in effect.
func CurrentComparators() Comparators {
	return *comparators.Load()
}

// Is implements Object.is.
func Is(a, b Value) bool {
	return comparators.Load().Is(a, b)
}

// IndexOf implements Array.prototype.indexOf.
func IndexOf(arr *Object, x Value, from int) int {
	eq := comparators.Load().Search
	elems := arr.Elements()
	if from < 0 {
		from += len(elems)
		if from < 0 {
			from = 0
		}
	}
	for i := from; i < len(elems); i++ {
		if eq(elems[i], x) {
			return i
		}
	}
	return -1
}

// LastIndexOf implements Array.prototype.lastIndexOf.
func LastIndexOf(arr *Object, x Value, from int) int {
	eq := comparators.Load().Search
	elems := arr.Elements()
	if from < 0 {
		from += len(elems)
	}
	if from >= len(elems) {
		from = len(elems) - 1
	}
	for i := from; i >= 0; i-- {
		if eq(elems[i], x) {
			return i
		}
	}
	return -1
}

// Includes implements Array.prototype.includes.
func Includes(arr *Object, x Value, from int) bool {
	eq := comparators.Load().Includes
	elems := arr.Elements()
	if from < 0 {
		from += len(elems)
		if from < 0 {
			from = 0
		}
	}
	for i := from; i < len(elems); i++ {
		if eq(elems[i], x) {
			return true
		}
	}
	return false
}
