// Package value is the runtime object model shared by the Go interpreter and
// the runtime support library.
//
// Values follow JavaScript semantics closely enough for value types to be
// observable: primitives compare by value, objects by identity, and objects
// carry a prototype, insertion-ordered own properties, a frozen flag and a
// value-object tag.
package value

import (
	"errors"
)

// ----------------------------------------------------------------------------
// Value Kinds
// ----------------------------------------------------------------------------

// Kind classifies a runtime value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindObject:    "object",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is any runtime value. The set of implementations is closed:
// Undefined, Null, Bool, Number, String and *Object.
type Value interface {
	Kind() Kind
}

type Undefined struct{}

type Null struct{}

type Bool bool

type Number float64

type String string

func (Undefined) Kind() Kind { return KindUndefined }
func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (*Object) Kind() Kind   { return KindObject }

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

var (
	// ErrFrozen is returned when a property write targets a frozen object.
	ErrFrozen = errors.New("cannot modify a frozen object")

	// ErrNotObject is returned when an object operation receives a primitive
	// that cannot hold properties (undefined or null).
	ErrNotObject = errors.New("value is not an object")

	// ErrNotCallable is returned when calling a value that is not a function.
	ErrNotCallable = errors.New("value is not a function")
)

// IsNullish reports whether v is undefined or null.
func IsNullish(v Value) bool {
	switch v.(type) {
	case Undefined, Null, nil:
		return true
	}
	return false
}

// Typeof implements the typeof operator.
func Typeof(v Value) string {
	switch v := v.(type) {
	case *Object:
		if v.IsCallable() {
			return "function"
		}
		return "object"
	case Null:
		return "object"
	case nil:
		return "undefined"
	default:
		return v.Kind().String()
	}
}
