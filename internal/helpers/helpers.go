// Package helpers is the runtime support library that transformed programs
// call into: structural equality, the freeze operation and persistent
// property update.
//
// The Go functions operate on the internal/value object model and back the
// interpreter. The same library is also available as JavaScript source (see
// Prelude) for programs executed by a JavaScript engine.
package helpers

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Helper Names
// ----------------------------------------------------------------------------

// Default names generated code uses to reference the helpers.
const (
	EqualsName        = "structuralEquals"
	StrictEqualsName  = "structuralStrictEquals"
	FreezeName        = "freeze"
	PersistentSetName = "persistentSet"
)

// Names are the identifiers the helpers are bound to at the call site.
type Names struct {
	Equals        string
	StrictEquals  string
	Freeze        string
	PersistentSet string
}

// DefaultNames returns the default helper names.
func DefaultNames() Names {
	return Names{
		Equals:        EqualsName,
		StrictEquals:  StrictEqualsName,
		Freeze:        FreezeName,
		PersistentSet: PersistentSetName,
	}
}

// WithPrefix returns n with every name prefixed.
func (n Names) WithPrefix(prefix string) Names {
	return Names{
		Equals:        prefix + n.Equals,
		StrictEquals:  prefix + n.StrictEquals,
		Freeze:        prefix + n.Freeze,
		PersistentSet: prefix + n.PersistentSet,
	}
}

// Fill replaces empty names with their defaults.
func (n Names) Fill() Names {
	d := DefaultNames()
	if n.Equals == "" {
		n.Equals = d.Equals
	}
	if n.StrictEquals == "" {
		n.StrictEquals = d.StrictEquals
	}
	if n.Freeze == "" {
		n.Freeze = d.Freeze
	}
	if n.PersistentSet == "" {
		n.PersistentSet = d.PersistentSet
	}
	return n
}

// List returns the names in a fixed order.
func (n Names) List() []string {
	return []string{n.Equals, n.StrictEquals, n.Freeze, n.PersistentSet}
}

// ----------------------------------------------------------------------------
// Structural Equality
// ----------------------------------------------------------------------------

// StructuralEquals is loose equality extended to value objects.
func StructuralEquals(a, b value.Value) bool {
	return structural(a, b, value.LooseEquals, StructuralEquals)
}

// StructuralStrictEquals is strict equality extended to value objects.
func StructuralStrictEquals(a, b value.Value) bool {
	return structural(a, b, value.StrictEquals, StructuralStrictEquals)
}

func structural(a, b value.Value, native, recurse func(a, b value.Value) bool) bool {
	if value.StrictEquals(a, b) {
		return true
	}
	ao, aok := a.(*value.Object)
	bo, bok := b.(*value.Object)
	if !aok || !bok || !ao.IsTagged() || !bo.IsTagged() {
		return native(a, b)
	}
	return sameShape(ao, bo, recurse)
}

// sameShape compares prototypes, own enumerable keys position by position,
// and the values under each key with eq. persistentSet copies objects using
// the same key enumeration, so the two always agree on what a shape is.
func sameShape(a, b *value.Object, eq func(a, b value.Value) bool) bool {
	if a.Prototype() != b.Prototype() || a.IsArray() != b.IsArray() {
		return false
	}
	aKeys, bKeys := a.Keys(), b.Keys()
	if len(aKeys) != len(bKeys) {
		return false
	}
	for i, key := range aKeys {
		if key != bKeys[i] {
			return false
		}
		av, _ := a.GetOwn(key)
		bv, _ := b.GetOwn(key)
		if !eq(av, bv) {
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Freeze and Persistent Update
// ----------------------------------------------------------------------------

// Freeze turns an object into a value object and returns the same reference.
// Primitives, null, functions and value objects are returned unchanged. An
// object frozen before it was tagged cannot take the tag, and fails with
// ErrFrozen.
func Freeze(v value.Value) (value.Value, error) {
	o, ok := v.(*value.Object)
	if !ok || o.IsCallable() || o.IsTagged() {
		return v, nil
	}
	if o.IsFrozen() {
		return nil, fmt.Errorf("%w: cannot make %s a value object", value.ErrFrozen, value.Inspect(o))
	}
	o.Tag()
	o.Freeze()
	return o, nil
}

// PersistentSet writes key on obj. Ordinary objects are updated in place. A
// value object is never mutated: the result is either obj itself, when the
// property already holds an equal value, or a frozen copy carrying the new
// value.
func PersistentSet(obj, key, newValue value.Value) (value.Value, error) {
	k := value.ToPropertyKey(key)
	o, ok := obj.(*value.Object)
	if !ok {
		if value.IsNullish(obj) {
			return nil, fmt.Errorf("%w: cannot set property %q of %s", value.ErrNotObject, k, value.ToString(obj))
		}
		return obj, nil
	}
	if !o.IsTagged() {
		if err := o.Set(k, newValue); err != nil {
			return nil, err
		}
		return o, nil
	}
	if StructuralStrictEquals(o.Get(k), newValue) {
		return o, nil
	}
	result := o.CloneShape()
	if err := result.Set(k, newValue); err != nil {
		return nil, err
	}
	result.Tag()
	result.Freeze()
	return result, nil
}

// ----------------------------------------------------------------------------
// Native Patch
// ----------------------------------------------------------------------------

var (
	installOnce sync.Once
	installed   atomic.Bool
)

// Install extends Object.is and the array search primitives so that two value
// objects compare structurally. It runs at most once per process.
func Install() {
	installOnce.Do(func() {
		value.SetComparators(value.Comparators{
			Is:       structuralIs,
			Search:   StructuralStrictEquals,
			Includes: structuralIncludes,
		})
		installed.Store(true)
	})
}

// Installed reports whether Install has run.
func Installed() bool {
	return installed.Load()
}

func structuralIs(a, b value.Value) bool {
	if value.SameValue(a, b) {
		return true
	}
	if value.IsValueObject(a) && value.IsValueObject(b) {
		return sameShape(a.(*value.Object), b.(*value.Object), structuralIs)
	}
	return false
}

func structuralIncludes(a, b value.Value) bool {
	if value.SameValueZero(a, b) {
		return true
	}
	if value.IsValueObject(a) && value.IsValueObject(b) {
		return sameShape(a.(*value.Object), b.(*value.Object), StructuralStrictEquals)
	}
	return false
}
