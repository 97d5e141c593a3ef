package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Builtins
// ----------------------------------------------------------------------------

var errorNames = []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError"}

func (in *Interpreter) installBuiltins() {
	objectProto := value.NewObject(nil)
	functionProto := value.NewFunction(objectProto, "", func(value.Value, []value.Value) (value.Value, error) {
		return value.Undefined{}, nil
	})
	in.realm = realm{
		object:   objectProto,
		function: functionProto,
		array:    value.NewObject(objectProto),
		errors:   make(map[string]*value.Object),
	}

	in.globals["undefined"] = value.Undefined{}
	in.globals["NaN"] = value.Number(math.NaN())
	in.globals["Infinity"] = value.Number(math.Inf(1))

	in.installObject()
	in.installFunction()
	in.installArray()
	in.installErrors()
	in.installMisc()
	in.installHelpers()
}

// function creates a builtin function object.
func (in *Interpreter) function(name string, call value.CallFunc) *value.Object {
	return value.NewFunction(in.realm.function, name, call)
}

// method defines a non-enumerable builtin function on o.
func (in *Interpreter) method(o *value.Object, name string, call value.CallFunc) {
	_ = o.DefineHidden(name, in.function(name, call))
}

// constructor creates a builtin usable both as a function and with new,
// linked to its prototype.
func (in *Interpreter) constructor(name string, proto *value.Object, call value.CallFunc) *value.Object {
	f := in.function(name, call)
	f.Construct = call
	_ = f.DefineHidden("prototype", proto)
	_ = proto.DefineHidden("constructor", f)
	in.globals[name] = f
	return f
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined{}
}

func rest(args []value.Value, i int) []value.Value {
	if i < len(args) {
		return args[i:]
	}
	return nil
}

func toObject(v value.Value, what string) (*value.Object, error) {
	if o, ok := v.(*value.Object); ok {
		return o, nil
	}
	return nil, fmt.Errorf("%w: %s called on %s", value.ErrNotObject, what, value.Inspect(v))
}

// ----------------------------------------------------------------------------
// Object
// ----------------------------------------------------------------------------

func (in *Interpreter) installObject() {
	proto := in.realm.object
	ctor := in.constructor("Object", proto, func(_ value.Value, args []value.Value) (value.Value, error) {
		if o, ok := arg(args, 0).(*value.Object); ok {
			return o, nil
		}
		return value.NewObject(proto), nil
	})

	in.method(ctor, "is", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(value.Is(arg(args, 0), arg(args, 1))), nil
	})

	in.method(ctor, "keys", func(_ value.Value, args []value.Value) (value.Value, error) {
		o, err := toObject(arg(args, 0), "Object.keys")
		if err != nil {
			return nil, err
		}
		keys := o.Keys()
		elems := make([]value.Value, len(keys))
		for i, k := range keys {
			elems[i] = value.String(k)
		}
		return value.NewArray(in.realm.array, elems), nil
	})

	in.method(ctor, "freeze", func(_ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if o, ok := v.(*value.Object); ok {
			o.Freeze()
		}
		return v, nil
	})

	in.method(ctor, "isFrozen", func(_ value.Value, args []value.Value) (value.Value, error) {
		if o, ok := arg(args, 0).(*value.Object); ok {
			return value.Bool(o.IsFrozen()), nil
		}
		return value.Bool(true), nil
	})

	in.method(ctor, "create", func(_ value.Value, args []value.Value) (value.Value, error) {
		switch p := arg(args, 0).(type) {
		case *value.Object:
			return value.NewObject(p), nil
		case value.Null:
			return value.NewObject(nil), nil
		}
		return nil, fmt.Errorf("Object prototype may only be an Object or null: %s", value.Inspect(arg(args, 0)))
	})

	in.method(ctor, "getPrototypeOf", func(_ value.Value, args []value.Value) (value.Value, error) {
		o, err := toObject(arg(args, 0), "Object.getPrototypeOf")
		if err != nil {
			return nil, err
		}
		if p := o.Prototype(); p != nil {
			return p, nil
		}
		return value.Null{}, nil
	})

	in.method(ctor, "assign", func(_ value.Value, args []value.Value) (value.Value, error) {
		target, err := toObject(arg(args, 0), "Object.assign")
		if err != nil {
			return nil, err
		}
		for _, source := range rest(args, 1) {
			o, ok := source.(*value.Object)
			if !ok {
				continue
			}
			for _, k := range o.Keys() {
				v, _ := o.GetOwn(k)
				if err := target.Set(k, v); err != nil {
					return nil, err
				}
			}
		}
		return target, nil
	})

	in.method(proto, "hasOwnProperty", func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObject(this, "hasOwnProperty")
		if err != nil {
			return nil, err
		}
		return value.Bool(o.HasOwn(value.ToPropertyKey(arg(args, 0)))), nil
	})

	in.method(proto, "toString", func(this value.Value, _ []value.Value) (value.Value, error) {
		return value.String(value.ToString(value.ToPrimitive(this))), nil
	})
}

// ----------------------------------------------------------------------------
// Function
// ----------------------------------------------------------------------------

func (in *Interpreter) installFunction() {
	proto := in.realm.function
	callable := func(this value.Value, what string) (*value.Object, error) {
		f, ok := this.(*value.Object)
		if !ok || !f.IsCallable() {
			return nil, fmt.Errorf("%w: Function.prototype.%s called on %s", value.ErrNotCallable, what, value.Inspect(this))
		}
		return f, nil
	}

	in.method(proto, "call", func(this value.Value, args []value.Value) (value.Value, error) {
		f, err := callable(this, "call")
		if err != nil {
			return nil, err
		}
		return f.Call(arg(args, 0), rest(args, 1))
	})

	in.method(proto, "apply", func(this value.Value, args []value.Value) (value.Value, error) {
		f, err := callable(this, "apply")
		if err != nil {
			return nil, err
		}
		var list []value.Value
		if arr, ok := arg(args, 1).(*value.Object); ok {
			list = arr.Elements()
		}
		return f.Call(arg(args, 0), list)
	})

	in.method(proto, "bind", func(this value.Value, args []value.Value) (value.Value, error) {
		f, err := callable(this, "bind")
		if err != nil {
			return nil, err
		}
		return in.bindFunction(f, arg(args, 0), rest(args, 1), "bind target")
	})
}

// ----------------------------------------------------------------------------
// Array
// ----------------------------------------------------------------------------

func (in *Interpreter) installArray() {
	proto := in.realm.array
	ctor := in.constructor("Array", proto, func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.NewArray(proto, append([]value.Value(nil), args...)), nil
	})

	in.method(ctor, "isArray", func(_ value.Value, args []value.Value) (value.Value, error) {
		o, ok := arg(args, 0).(*value.Object)
		return value.Bool(ok && o.IsArray()), nil
	})

	thisArray := func(this value.Value, what string) (*value.Object, error) {
		o, ok := this.(*value.Object)
		if !ok || !o.IsArray() {
			return nil, fmt.Errorf("%w: Array.prototype.%s called on %s", value.ErrNotObject, what, value.Inspect(this))
		}
		return o, nil
	}
	fromIndex := func(args []value.Value, def int) int {
		if len(args) < 2 {
			return def
		}
		return int(value.ToNumber(args[1]))
	}

	in.method(proto, "push", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "push")
		if err != nil {
			return nil, err
		}
		for _, v := range args {
			if err := arr.Push(v); err != nil {
				return nil, err
			}
		}
		return value.Number(arr.Len()), nil
	})

	in.method(proto, "pop", func(this value.Value, _ []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "pop")
		if err != nil {
			return nil, err
		}
		if arr.Len() == 0 {
			return value.Undefined{}, nil
		}
		last := arr.Elements()[arr.Len()-1]
		if err := arr.Set("length", value.Number(arr.Len()-1)); err != nil {
			return nil, err
		}
		return last, nil
	})

	in.method(proto, "indexOf", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "indexOf")
		if err != nil {
			return nil, err
		}
		return value.Number(value.IndexOf(arr, arg(args, 0), fromIndex(args, 0))), nil
	})

	in.method(proto, "lastIndexOf", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "lastIndexOf")
		if err != nil {
			return nil, err
		}
		return value.Number(value.LastIndexOf(arr, arg(args, 0), fromIndex(args, arr.Len()-1))), nil
	})

	in.method(proto, "includes", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "includes")
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Includes(arr, arg(args, 0), fromIndex(args, 0))), nil
	})

	in.method(proto, "join", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "join")
		if err != nil {
			return nil, err
		}
		sep := ","
		if s := arg(args, 0); !value.IsNullish(s) {
			sep = value.ToString(s)
		}
		parts := make([]string, arr.Len())
		for i, e := range arr.Elements() {
			if !value.IsNullish(e) {
				parts[i] = value.ToString(e)
			}
		}
		return value.String(strings.Join(parts, sep)), nil
	})

	in.method(proto, "forEach", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "forEach")
		if err != nil {
			return nil, err
		}
		fn, err := in.callback(arg(args, 0), "forEach")
		if err != nil {
			return nil, err
		}
		for i, e := range arr.Elements() {
			if _, err := fn.Call(value.Undefined{}, []value.Value{e, value.Number(i), arr}); err != nil {
				return nil, err
			}
		}
		return value.Undefined{}, nil
	})

	in.method(proto, "map", func(this value.Value, args []value.Value) (value.Value, error) {
		arr, err := thisArray(this, "map")
		if err != nil {
			return nil, err
		}
		fn, err := in.callback(arg(args, 0), "map")
		if err != nil {
			return nil, err
		}
		elems := arr.Elements()
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			if out[i], err = fn.Call(value.Undefined{}, []value.Value{e, value.Number(i), arr}); err != nil {
				return nil, err
			}
		}
		return value.NewArray(proto, out), nil
	})
}

func (in *Interpreter) callback(v value.Value, what string) (*value.Object, error) {
	f, ok := v.(*value.Object)
	if !ok || !f.IsCallable() {
		return nil, fmt.Errorf("%w: %s is not a function (in Array.prototype.%s)", value.ErrNotCallable, value.Inspect(v), what)
	}
	return f, nil
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

func (in *Interpreter) installErrors() {
	base := value.NewObject(in.realm.object)
	for _, name := range errorNames {
		proto := base
		if name != "Error" {
			proto = value.NewObject(base)
		}
		_ = proto.DefineHidden("name", value.String(name))
		_ = proto.DefineHidden("message", value.String(""))
		in.realm.errors[name] = proto

		name := name
		in.constructor(name, proto, func(_ value.Value, args []value.Value) (value.Value, error) {
			message := ""
			if m := arg(args, 0); !value.IsNullish(m) {
				message = value.ToString(m)
			}
			return value.NewError(proto, name, message), nil
		})
	}
}

// ----------------------------------------------------------------------------
// Console, Math and Conversions
// ----------------------------------------------------------------------------

func (in *Interpreter) installMisc() {
	console := value.NewObject(in.realm.object)
	in.method(console, "log", func(_ value.Value, args []value.Value) (value.Value, error) {
		_, err := fmt.Fprintln(in.options.Stdout, joinInspect(args))
		return value.Undefined{}, err
	})
	in.globals["console"] = console

	m := value.NewObject(in.realm.object)
	_ = m.DefineHidden("PI", value.Number(math.Pi))
	unary := func(name string, f func(float64) float64) {
		in.method(m, name, func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.Number(f(float64(value.ToNumber(arg(args, 0))))), nil
		})
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("sqrt", math.Sqrt)
	unary("round", func(x float64) float64 { return math.Floor(x + 0.5) })
	in.method(m, "pow", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Pow(float64(value.ToNumber(arg(args, 0))), float64(value.ToNumber(arg(args, 1))))), nil
	})
	extreme := func(name string, start float64, better func(a, b float64) bool) {
		in.method(m, name, func(_ value.Value, args []value.Value) (value.Value, error) {
			result := start
			for _, a := range args {
				n := float64(value.ToNumber(a))
				if math.IsNaN(n) {
					return value.Number(math.NaN()), nil
				}
				if better(n, result) {
					result = n
				}
			}
			return value.Number(result), nil
		})
	}
	extreme("max", math.Inf(-1), func(a, b float64) bool { return a > b })
	extreme("min", math.Inf(1), func(a, b float64) bool { return a < b })
	in.globals["Math"] = m

	in.globals["String"] = in.function("String", func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.String(""), nil
		}
		return value.String(value.ToString(args[0])), nil
	})
	in.globals["Number"] = in.function("Number", func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(0), nil
		}
		return value.ToNumber(args[0]), nil
	})
	in.globals["Boolean"] = in.function("Boolean", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(value.ToBoolean(arg(args, 0))), nil
	})
}

// ----------------------------------------------------------------------------
// Runtime Support Library
// ----------------------------------------------------------------------------

func (in *Interpreter) installHelpers() {
	names := in.options.Helpers
	in.globals[names.Equals] = in.function(names.Equals, func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(helpers.StructuralEquals(arg(args, 0), arg(args, 1))), nil
	})
	in.globals[names.StrictEquals] = in.function(names.StrictEquals, func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(helpers.StructuralStrictEquals(arg(args, 0), arg(args, 1))), nil
	})
	in.globals[names.Freeze] = in.function(names.Freeze, func(_ value.Value, args []value.Value) (value.Value, error) {
		return helpers.Freeze(arg(args, 0))
	})
	in.globals[names.PersistentSet] = in.function(names.PersistentSet, func(_ value.Value, args []value.Value) (value.Value, error) {
		return helpers.PersistentSet(arg(args, 0), arg(args, 1), arg(args, 2))
	})
}
