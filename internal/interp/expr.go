package interp

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (in *Interpreter) eval(id ast.ExprID, e *env) (value.Value, error) {
	switch x := in.tree.Expr(id).(type) {
	case *ast.IdentExpr:
		return in.lookupIdent(x, e)

	case *ast.ThisExpr:
		return e.receiver(), nil

	case *ast.LiteralExpr:
		switch x.Kind {
		case ast.LitNumber:
			return value.Number(x.Number), nil
		case ast.LitString, ast.LitTemplate:
			return value.String(x.Value), nil
		case ast.LitBoolean:
			return value.Bool(x.Bool), nil
		}
		return value.Null{}, nil

	case *ast.ArrayExpr:
		elems := make([]value.Value, len(x.Items))
		for i, item := range x.Items {
			if !item.IsValid() {
				elems[i] = value.Undefined{}
				continue
			}
			v, err := in.eval(item, e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewArray(in.realm.array, elems), nil

	case *ast.ObjectExpr:
		o := value.NewObject(in.realm.object)
		for _, prop := range x.Properties {
			key, err := in.propertyKey(prop, e)
			if err != nil {
				return nil, err
			}
			v, err := in.eval(prop.Value, e)
			if err != nil {
				return nil, err
			}
			if err := o.Set(key, v); err != nil {
				return nil, in.wrapError(err)
			}
		}
		return o, nil

	case *ast.FunctionExpr:
		return in.makeFunction(&x.Fn, e, true), nil

	case *ast.ArrowExpr:
		return in.makeArrow(x, e), nil

	case *ast.ClassExpr:
		return in.makeClass(&x.Class, e)

	case *ast.TaggedTemplateExpr:
		callee, this, err := in.calleeAndThis(x.Tag, e)
		if err != nil {
			return nil, err
		}
		strs := value.NewArray(in.realm.array, []value.Value{value.String(x.Value)})
		return in.call(callee, this, []value.Value{strs}, x.Tag)

	case *ast.BindExpr:
		var fn, this value.Value
		var err error
		if x.Object.IsValid() {
			if this, err = in.eval(x.Object, e); err != nil {
				return nil, err
			}
			fn, err = in.eval(x.Callee, e)
		} else {
			fn, this, err = in.calleeAndThis(x.Callee, e)
		}
		if err != nil {
			return nil, err
		}
		return in.bindFunction(fn, this, nil, in.describe(x.Callee))

	case *ast.MemberExpr:
		obj, err := in.eval(x.Object, e)
		if err != nil {
			return nil, err
		}
		key, err := in.memberKey(x, e)
		if err != nil {
			return nil, err
		}
		return in.getProperty(obj, key)

	case *ast.CallExpr:
		callee, this, err := in.calleeAndThis(x.Target, e)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(x.Args, e)
		if err != nil {
			return nil, err
		}
		return in.call(callee, this, args, x.Target)

	case *ast.NewExpr:
		callee, err := in.eval(x.Target, e)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(x.Args, e)
		if err != nil {
			return nil, err
		}
		return in.construct(callee, args, x.Target)

	case *ast.UnaryExpr:
		return in.evalUnary(x, e)

	case *ast.UpdateExpr:
		return in.evalUpdate(x, e)

	case *ast.BinaryExpr:
		left, err := in.eval(x.Left, e)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(x.Right, e)
		if err != nil {
			return nil, err
		}
		return in.binary(x.Op, left, right)

	case *ast.LogicalExpr:
		left, err := in.eval(x.Left, e)
		if err != nil {
			return nil, err
		}
		if shortCircuits(x.Op, left) {
			return left, nil
		}
		return in.eval(x.Right, e)

	case *ast.ConditionalExpr:
		test, err := in.eval(x.Test, e)
		if err != nil {
			return nil, err
		}
		if value.ToBoolean(test) {
			return in.eval(x.Yes, e)
		}
		return in.eval(x.No, e)

	case *ast.AssignExpr:
		return in.evalAssign(x, e)

	case *ast.SequenceExpr:
		var last value.Value = value.Undefined{}
		for _, item := range x.Exprs {
			v, err := in.eval(item, e)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.ParenExpr:
		return in.eval(x.Value, e)
	}
	return value.Undefined{}, nil
}

func (in *Interpreter) evalArgs(ids []ast.ExprID, e *env) ([]value.Value, error) {
	args := make([]value.Value, len(ids))
	for i, id := range ids {
		v, err := in.eval(id, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// shortCircuits reports whether a logical operator yields its left operand
// without evaluating the right one.
func shortCircuits(op ast.OpCode, left value.Value) bool {
	switch op {
	case ast.BinLogicalAnd:
		return !value.ToBoolean(left)
	case ast.BinLogicalOr:
		return value.ToBoolean(left)
	case ast.BinNullishCoalescing:
		return !value.IsNullish(left)
	}
	return false
}

// ----------------------------------------------------------------------------
// Identifiers
// ----------------------------------------------------------------------------

func (in *Interpreter) lookupIdent(x *ast.IdentExpr, e *env) (value.Value, error) {
	if v, ok := e.lookup(x.Ref); ok {
		return v, nil
	}
	sym := in.tree.Symbol(x.Ref)
	if sym == nil || sym.Kind == ast.SymbolUnbound {
		if v, ok := in.globals[x.Name]; ok {
			return v, nil
		}
		return nil, in.throwError("ReferenceError", "%s is not defined", x.Name)
	}
	if sym.Kind == ast.SymbolVar || sym.Kind == ast.SymbolFunction {
		return value.Undefined{}, nil
	}
	return nil, in.throwError("ReferenceError", "Cannot access '%s' before initialization", x.Name)
}

func (in *Interpreter) assignIdent(x *ast.IdentExpr, v value.Value, e *env) error {
	if e.assign(x.Ref, v) {
		return nil
	}
	sym := in.tree.Symbol(x.Ref)
	switch {
	case sym == nil || sym.Kind == ast.SymbolUnbound:
		in.globals[x.Name] = v
	case sym.Kind == ast.SymbolVar || sym.Kind == ast.SymbolFunction:
		e.fn.declare(x.Ref, v)
	default:
		return in.throwError("ReferenceError", "Cannot access '%s' before initialization", x.Name)
	}
	return nil
}

// isUndeclared reports whether x names a global that does not exist, which
// typeof tolerates.
func (in *Interpreter) isUndeclared(x *ast.IdentExpr, e *env) bool {
	if _, ok := e.lookup(x.Ref); ok {
		return false
	}
	sym := in.tree.Symbol(x.Ref)
	if sym != nil && sym.Kind != ast.SymbolUnbound {
		return false
	}
	_, ok := in.globals[x.Name]
	return !ok
}

// ----------------------------------------------------------------------------
// Properties
// ----------------------------------------------------------------------------

func (in *Interpreter) propertyKey(prop ast.Property, e *env) (string, error) {
	if !prop.Computed {
		return prop.Key, nil
	}
	k, err := in.eval(prop.KeyExpr, e)
	if err != nil {
		return "", err
	}
	return value.ToPropertyKey(k), nil
}

func (in *Interpreter) memberKey(x *ast.MemberExpr, e *env) (string, error) {
	if !x.Computed {
		return x.Name, nil
	}
	k, err := in.eval(x.Index, e)
	if err != nil {
		return "", err
	}
	return value.ToPropertyKey(k), nil
}

func (in *Interpreter) getProperty(obj value.Value, key string) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Object:
		return o.Get(key), nil

	case value.String:
		units := utf16.Encode([]rune(string(o)))
		if key == "length" {
			return value.Number(len(units)), nil
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(units) {
			return value.String(string(utf16.Decode(units[idx : idx+1]))), nil
		}

	case value.Undefined, value.Null, nil:
		return nil, in.throwError("TypeError", "Cannot read properties of %s (reading '%s')", value.ToString(obj), key)
	}
	return value.Undefined{}, nil
}

// setProperty writes a property. Writes to primitives other than undefined
// and null are dropped, as sloppy-mode JavaScript does.
func (in *Interpreter) setProperty(obj value.Value, key string, v value.Value) error {
	switch o := obj.(type) {
	case *value.Object:
		return in.wrapError(o.Set(key, v))
	case value.Undefined, value.Null, nil:
		return in.throwError("TypeError", "Cannot set properties of %s (setting '%s')", value.ToString(obj), key)
	}
	return nil
}

// calleeAndThis evaluates a call target. A member access also yields its
// object as the receiver.
func (in *Interpreter) calleeAndThis(id ast.ExprID, e *env) (callee, this value.Value, err error) {
	this = value.Undefined{}
	member, ok := in.tree.Expr(in.tree.Unparen(id)).(*ast.MemberExpr)
	if !ok {
		callee, err = in.eval(id, e)
		return
	}
	if this, err = in.eval(member.Object, e); err != nil {
		return
	}
	key, err := in.memberKey(member, e)
	if err != nil {
		return
	}
	callee, err = in.getProperty(this, key)
	return
}

// describe names an expression in error messages.
func (in *Interpreter) describe(id ast.ExprID) string {
	switch x := in.tree.Expr(in.tree.Unparen(id)).(type) {
	case *ast.IdentExpr:
		return x.Name
	case *ast.ThisExpr:
		return "this"
	case *ast.MemberExpr:
		if x.Computed {
			return in.describe(x.Object) + "[...]"
		}
		return in.describe(x.Object) + "." + x.Name
	case *ast.CallExpr:
		return in.describe(x.Target) + "(...)"
	}
	return "expression"
}

// ----------------------------------------------------------------------------
// Operators
// ----------------------------------------------------------------------------

func (in *Interpreter) evalUnary(x *ast.UnaryExpr, e *env) (value.Value, error) {
	switch x.Op {
	case ast.UnTypeof:
		if ident, ok := in.tree.Expr(in.tree.Unparen(x.Value)).(*ast.IdentExpr); ok && in.isUndeclared(ident, e) {
			return value.String("undefined"), nil
		}

	case ast.UnDelete:
		member, ok := in.tree.Expr(in.tree.Unparen(x.Value)).(*ast.MemberExpr)
		if !ok {
			return value.Bool(true), nil
		}
		obj, err := in.eval(member.Object, e)
		if err != nil {
			return nil, err
		}
		key, err := in.memberKey(member, e)
		if err != nil {
			return nil, err
		}
		if o, ok := obj.(*value.Object); ok {
			if err := o.Delete(key); err != nil {
				return nil, in.wrapError(err)
			}
		}
		return value.Bool(true), nil
	}

	v, err := in.eval(x.Value, e)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.UnPos:
		return value.ToNumber(v), nil
	case ast.UnNeg:
		return -value.ToNumber(v), nil
	case ast.UnCpl:
		return value.Number(^toInt32(v)), nil
	case ast.UnNot:
		return value.Bool(!value.ToBoolean(v)), nil
	case ast.UnVoid:
		return value.Undefined{}, nil
	case ast.UnTypeof:
		return value.String(value.Typeof(v)), nil
	case ast.UnFreeze:
		frozen, err := helpers.Freeze(v)
		if err != nil {
			return nil, in.wrapError(err)
		}
		return frozen, nil
	}
	return value.Undefined{}, nil
}

func (in *Interpreter) evalUpdate(x *ast.UpdateExpr, e *env) (value.Value, error) {
	delta := value.Number(1)
	if x.Op == ast.UnPreDec || x.Op == ast.UnPostDec {
		delta = -1
	}
	prefix := x.Op == ast.UnPreInc || x.Op == ast.UnPreDec

	var old value.Number
	switch target := in.tree.Expr(in.tree.Unparen(x.Value)).(type) {
	case *ast.IdentExpr:
		cur, err := in.lookupIdent(target, e)
		if err != nil {
			return nil, err
		}
		old = value.ToNumber(cur)
		if err := in.assignIdent(target, old+delta, e); err != nil {
			return nil, err
		}

	case *ast.MemberExpr:
		obj, err := in.eval(target.Object, e)
		if err != nil {
			return nil, err
		}
		key, err := in.memberKey(target, e)
		if err != nil {
			return nil, err
		}
		cur, err := in.getProperty(obj, key)
		if err != nil {
			return nil, err
		}
		old = value.ToNumber(cur)
		if err := in.setProperty(obj, key, old+delta); err != nil {
			return nil, err
		}

	default:
		return nil, in.throwError("SyntaxError", "Invalid left-hand side expression in update operation")
	}

	if prefix {
		return old + delta, nil
	}
	return old, nil
}

func (in *Interpreter) evalAssign(x *ast.AssignExpr, e *env) (value.Value, error) {
	switch target := in.tree.Expr(in.tree.Unparen(x.Target)).(type) {
	case *ast.IdentExpr:
		if x.Op == ast.BinAssign {
			v, err := in.eval(x.Value, e)
			if err != nil {
				return nil, err
			}
			return v, in.assignIdent(target, v, e)
		}
		cur, err := in.lookupIdent(target, e)
		if err != nil {
			return nil, err
		}
		v, skip, err := in.compound(x.Op, cur, x.Value, e)
		if err != nil || skip {
			return v, err
		}
		return v, in.assignIdent(target, v, e)

	case *ast.MemberExpr:
		obj, err := in.eval(target.Object, e)
		if err != nil {
			return nil, err
		}
		key, err := in.memberKey(target, e)
		if err != nil {
			return nil, err
		}
		if x.Op == ast.BinAssign {
			v, err := in.eval(x.Value, e)
			if err != nil {
				return nil, err
			}
			return v, in.setProperty(obj, key, v)
		}
		cur, err := in.getProperty(obj, key)
		if err != nil {
			return nil, err
		}
		v, skip, err := in.compound(x.Op, cur, x.Value, e)
		if err != nil || skip {
			return v, err
		}
		return v, in.setProperty(obj, key, v)
	}
	return nil, in.throwError("SyntaxError", "Invalid left-hand side in assignment")
}

// compound computes the new value of a compound assignment. skip is set when
// a logical assignment short-circuits and nothing is stored.
func (in *Interpreter) compound(op ast.OpCode, cur value.Value, right ast.ExprID, e *env) (v value.Value, skip bool, err error) {
	applied := ast.OpTable[op].Compound
	if applied.IsLogical() {
		if shortCircuits(applied, cur) {
			return cur, true, nil
		}
		v, err = in.eval(right, e)
		return v, false, err
	}
	r, err := in.eval(right, e)
	if err != nil {
		return nil, false, err
	}
	v, err = in.binary(applied, cur, r)
	return v, false, err
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

// closure is the interpreter side of a function object.
type closure struct {
	name  string
	args  []ast.Arg
	body  []ast.Stmt
	env   *env
	arrow bool

	// A named function expression sees its own name
	self   ast.Ref
	object *value.Object
}

func (in *Interpreter) makeFunction(fn *ast.Fn, e *env, isExpr bool) *value.Object {
	c := &closure{name: fn.Name, args: fn.Args, body: fn.Body, env: e, self: ast.InvalidRef()}
	if isExpr && fn.Name != "" {
		c.self = fn.NameRef
	}
	f := value.NewFunction(in.realm.function, fn.Name, func(this value.Value, args []value.Value) (value.Value, error) {
		return in.invoke(c, this, args)
	})
	f.Construct = f.Call
	f.Internal = c
	c.object = f

	proto := value.NewObject(in.realm.object)
	_ = proto.DefineHidden("constructor", f)
	_ = f.DefineHidden("prototype", proto)
	return f
}

func (in *Interpreter) makeArrow(x *ast.ArrowExpr, e *env) *value.Object {
	c := &closure{args: x.Args, body: x.Body, env: e, arrow: true, self: ast.InvalidRef()}
	f := value.NewFunction(in.realm.function, "", func(this value.Value, args []value.Value) (value.Value, error) {
		return in.invoke(c, this, args)
	})
	f.Internal = c
	c.object = f
	return f
}

// invoke runs a closure's body with fresh bindings for its parameters.
func (in *Interpreter) invoke(c *closure, this value.Value, args []value.Value) (value.Value, error) {
	if in.depth >= in.options.MaxCallDepth {
		return nil, in.throwError("RangeError", "Maximum call stack size exceeded")
	}
	in.depth++
	defer func() { in.depth-- }()

	var scope *env
	if c.arrow {
		scope = newArrowEnv(c.env)
	} else {
		scope = newFunctionEnv(c.env, this)
	}
	if c.self.IsValid() {
		scope.declare(c.self, c.object)
	}
	for i, arg := range c.args {
		var v value.Value = value.Undefined{}
		if i < len(args) {
			v = args[i]
		}
		scope.declare(arg.Ref, v)
	}

	result, err := in.execList(c.body, scope)
	if err != nil {
		return nil, err
	}
	if result.kind == completionReturn {
		return result.value, nil
	}
	return value.Undefined{}, nil
}

func (in *Interpreter) call(callee, this value.Value, args []value.Value, target ast.ExprID) (value.Value, error) {
	f, ok := callee.(*value.Object)
	if !ok || !f.IsCallable() {
		return nil, in.throwError("TypeError", "%s is not a function", in.describe(target))
	}
	v, err := f.Call(this, args)
	if err != nil {
		return nil, in.wrapError(err)
	}
	if v == nil {
		v = value.Undefined{}
	}
	return v, nil
}

// construct implements new: the instance inherits from the constructor's
// prototype property, and an object returned by the constructor replaces it.
func (in *Interpreter) construct(callee value.Value, args []value.Value, target ast.ExprID) (value.Value, error) {
	f, ok := callee.(*value.Object)
	if !ok || f.Construct == nil {
		return nil, in.throwError("TypeError", "%s is not a constructor", in.describe(target))
	}
	proto, ok := f.Get("prototype").(*value.Object)
	if !ok {
		proto = in.realm.object
	}
	instance := value.NewObject(proto)
	result, err := f.Construct(instance, args)
	if err != nil {
		return nil, in.wrapError(err)
	}
	if o, ok := result.(*value.Object); ok {
		return o, nil
	}
	return instance, nil
}

// bindFunction returns a function calling fn with a fixed receiver and
// leading arguments.
func (in *Interpreter) bindFunction(fn, this value.Value, bound []value.Value, what string) (value.Value, error) {
	f, ok := fn.(*value.Object)
	if !ok || !f.IsCallable() {
		return nil, in.throwError("TypeError", "%s is not a function", what)
	}
	name := "bound " + value.ToString(f.Get("name"))
	return value.NewFunction(in.realm.function, name, func(_ value.Value, args []value.Value) (value.Value, error) {
		all := make([]value.Value, 0, len(bound)+len(args))
		all = append(all, bound...)
		return f.Call(this, append(all, args...))
	}), nil
}

// makeClass builds a class constructor. Methods live on the prototype and are
// not enumerable. Without an explicit constructor a derived class runs its
// parent's.
func (in *Interpreter) makeClass(class *ast.Class, e *env) (value.Value, error) {
	scope := newBlockEnv(e)

	protoParent := in.realm.object
	var parent *value.Object
	if class.Extends.IsValid() {
		v, err := in.eval(class.Extends, e)
		if err != nil {
			return nil, err
		}
		switch p := v.(type) {
		case value.Null:
			protoParent = nil
		case *value.Object:
			if p.Construct == nil {
				return nil, in.throwError("TypeError", "Class extends value %s is not a constructor or null", value.Inspect(v))
			}
			parent = p
			switch pp := p.Get("prototype").(type) {
			case *value.Object:
				protoParent = pp
			case value.Null:
				protoParent = nil
			default:
				return nil, in.throwError("TypeError", "Class extends value does not have valid prototype property")
			}
		default:
			return nil, in.throwError("TypeError", "Class extends value %s is not a constructor or null", value.Inspect(v))
		}
	}

	proto := value.NewObject(protoParent)
	var ctor *closure
	for _, method := range class.Methods {
		key, err := in.propertyKey(method, scope)
		if err != nil {
			return nil, err
		}
		if key == "constructor" && !method.Computed {
			if fn, ok := in.tree.Expr(method.Value).(*ast.FunctionExpr); ok {
				ctor = &closure{name: class.Name, args: fn.Fn.Args, body: fn.Fn.Body, env: scope, self: ast.InvalidRef()}
				continue
			}
		}
		v, err := in.eval(method.Value, scope)
		if err != nil {
			return nil, err
		}
		if err := proto.DefineHidden(key, v); err != nil {
			return nil, in.wrapError(err)
		}
	}

	name := class.Name
	cls := value.NewFunction(in.realm.function, name, func(value.Value, []value.Value) (value.Value, error) {
		return nil, in.throwError("TypeError", "Class constructor %s cannot be invoked without 'new'", name)
	})
	cls.Construct = func(this value.Value, args []value.Value) (value.Value, error) {
		switch {
		case ctor != nil:
			return in.invoke(ctor, this, args)
		case parent != nil:
			return parent.Construct(this, args)
		}
		return value.Undefined{}, nil
	}
	if ctor != nil {
		ctor.object = cls
	}
	if parent != nil {
		_ = cls.SetPrototype(parent)
	}
	_ = cls.DefineHidden("prototype", proto)
	_ = proto.DefineHidden("constructor", cls)

	if class.Name != "" && class.NameRef.IsValid() {
		scope.declare(class.NameRef, cls)
	}
	return cls, nil
}

// joinInspect renders console.log arguments.
func joinInspect(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Inspect(a)
	}
	return strings.Join(parts, " ")
}
