package value

import (
	"fmt"
	"sort"
	"strconv"
)

// Class distinguishes the exotic object shapes the runtime knows about.
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassError
)

// CallFunc implements a callable object.
type CallFunc func(this Value, args []Value) (Value, error)

type property struct {
	value      Value
	enumerable bool
}

// Object is a heap object. Own properties are kept in insertion order, with
// array-index keys enumerated first in ascending order as JavaScript does.
type Object struct {
	proto  *Object
	class  Class
	keys   []string
	props  map[string]*property
	length int

	frozen bool
	tagged bool

	// Call is set for functions.
	Call CallFunc

	// Construct is set for functions usable with new. It receives the
	// freshly allocated instance.
	Construct CallFunc

	// Internal is reserved for the embedder (the interpreter stores the
	// closure a function was created from).
	Internal any
}

// NewObject creates an ordinary object with the given prototype.
func NewObject(proto *Object) *Object {
	return &Object{proto: proto, props: make(map[string]*property)}
}

// NewArray creates an array holding elems.
func NewArray(proto *Object, elems []Value) *Object {
	o := &Object{proto: proto, class: ClassArray, props: make(map[string]*property, len(elems))}
	for i, e := range elems {
		o.define(strconv.Itoa(i), e, true)
	}
	o.length = len(elems)
	return o
}

// NewFunction creates a callable object.
func NewFunction(proto *Object, name string, call CallFunc) *Object {
	o := &Object{proto: proto, class: ClassFunction, props: make(map[string]*property), Call: call}
	o.define("name", String(name), false)
	return o
}

// NewError creates an error object with the given message.
func NewError(proto *Object, name, message string) *Object {
	o := &Object{proto: proto, class: ClassError, props: make(map[string]*property)}
	o.define("name", String(name), false)
	o.define("message", String(message), false)
	return o
}

// Class returns the object's class.
func (o *Object) Class() Class { return o.class }

// IsArray reports whether o is an array.
func (o *Object) IsArray() bool { return o.class == ClassArray }

// IsCallable reports whether o can be called.
func (o *Object) IsCallable() bool { return o.Call != nil }

// Prototype returns the object's prototype, or nil.
func (o *Object) Prototype() *Object { return o.proto }

// SetPrototype replaces the object's prototype.
func (o *Object) SetPrototype(proto *Object) error {
	if o.frozen {
		return fmt.Errorf("%w: cannot set prototype", ErrFrozen)
	}
	o.proto = proto
	return nil
}

// ----------------------------------------------------------------------------
// Property Access
// ----------------------------------------------------------------------------

// GetOwn returns an own property.
func (o *Object) GetOwn(key string) (Value, bool) {
	if o.class == ClassArray && key == "length" {
		return Number(o.length), true
	}
	if p, ok := o.props[key]; ok {
		return p.value, true
	}
	return nil, false
}

// HasOwn reports whether key is an own property.
func (o *Object) HasOwn(key string) bool {
	_, ok := o.GetOwn(key)
	return ok
}

// Get looks key up along the prototype chain. Missing properties read as
// undefined.
func (o *Object) Get(key string) Value {
	for cur := o; cur != nil; cur = cur.proto {
		if v, ok := cur.GetOwn(key); ok {
			return v
		}
	}
	return Undefined{}
}

// Set writes an own enumerable property. Writing to a frozen object fails
// with ErrFrozen.
func (o *Object) Set(key string, v Value) error {
	if o.frozen {
		return fmt.Errorf("%w: cannot assign to property %q", ErrFrozen, key)
	}
	if o.class == ClassArray {
		if key == "length" {
			return o.setLength(v)
		}
		if idx, ok := arrayIndex(key); ok && idx >= o.length {
			o.length = idx + 1
		}
	}
	if p, ok := o.props[key]; ok {
		p.value = v
		return nil
	}
	o.define(key, v, true)
	return nil
}

// DefineHidden defines or updates a non-enumerable own property.
func (o *Object) DefineHidden(key string, v Value) error {
	if o.frozen {
		return fmt.Errorf("%w: cannot define property %q", ErrFrozen, key)
	}
	if p, ok := o.props[key]; ok {
		p.value = v
		p.enumerable = false
		return nil
	}
	o.define(key, v, false)
	return nil
}

// Delete removes an own property.
func (o *Object) Delete(key string) error {
	if o.frozen {
		return fmt.Errorf("%w: cannot delete property %q", ErrFrozen, key)
	}
	if _, ok := o.props[key]; !ok {
		return nil
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (o *Object) define(key string, v Value, enumerable bool) {
	o.props[key] = &property{value: v, enumerable: enumerable}
	o.keys = append(o.keys, key)
}

func (o *Object) setLength(v Value) error {
	n := ToNumber(v)
	if n < 0 || float64(int(n)) != float64(n) {
		return fmt.Errorf("invalid array length %s", ToString(v))
	}
	newLen := int(n)
	for i := newLen; i < o.length; i++ {
		_ = o.Delete(strconv.Itoa(i))
	}
	o.length = newLen
	return nil
}

// Len returns the length of an array, or zero for other objects.
func (o *Object) Len() int {
	return o.length
}

// Elements returns the elements of an array, holes read as undefined.
func (o *Object) Elements() []Value {
	out := make([]Value, o.length)
	for i := range out {
		if v, ok := o.GetOwn(strconv.Itoa(i)); ok {
			out[i] = v
		} else {
			out[i] = Undefined{}
		}
	}
	return out
}

// Push appends to an array.
func (o *Object) Push(v Value) error {
	return o.Set(strconv.Itoa(o.length), v)
}

// Keys returns the own enumerable string keys: array indices in ascending
// order first, then the remaining keys in insertion order.
func (o *Object) Keys() []string {
	var indices []int
	var named []string
	for _, k := range o.keys {
		if !o.props[k].enumerable {
			continue
		}
		if idx, ok := arrayIndex(k); ok {
			indices = append(indices, idx)
		} else {
			named = append(named, k)
		}
	}
	if len(indices) == 0 {
		return named
	}
	sort.Ints(indices)
	out := make([]string, 0, len(indices)+len(named))
	for _, idx := range indices {
		out = append(out, strconv.Itoa(idx))
	}
	return append(out, named...)
}

// ----------------------------------------------------------------------------
// Integrity
// ----------------------------------------------------------------------------

// Freeze makes the object reject further writes. Freezing is shallow, as
// Object.freeze is.
func (o *Object) Freeze() { o.frozen = true }

// IsFrozen reports whether the object has been frozen.
func (o *Object) IsFrozen() bool { return o.frozen }

// Tag marks the object as a value object.
func (o *Object) Tag() { o.tagged = true }

// IsTagged reports whether the object is a value object.
func (o *Object) IsTagged() bool { return o.tagged }

// IsValueObject reports whether v is a tagged object.
func IsValueObject(v Value) bool {
	o, ok := v.(*Object)
	return ok && o.tagged
}

// CloneShape returns an unfrozen, untagged object with the same prototype and
// class as o and a copy of its own enumerable properties.
func (o *Object) CloneShape() *Object {
	c := &Object{proto: o.proto, class: o.class, props: make(map[string]*property, len(o.props))}
	if o.class == ClassArray {
		c.length = o.length
	}
	for _, k := range o.Keys() {
		c.define(k, o.props[k].value, true)
	}
	return c
}

// maxArrayIndex is 2^32 - 2, the largest key that counts as an array index.
const maxArrayIndex = 1<<32 - 2

// arrayIndex reports whether key is the canonical form of an array index.
func arrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	if n > maxArrayIndex {
		return 0, false
	}
	return int(n), true
}
