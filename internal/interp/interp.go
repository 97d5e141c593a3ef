// Package interp evaluates programs by walking their syntax tree over the
// internal/value object model.
//
// It runs both plain and transformed trees. The runtime support library is
// bound as globals under the configured helper names, and the freeze operator
// is evaluated natively when a tree has not been transformed.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// DefaultMaxCallDepth bounds recursion when Options.MaxCallDepth is zero.
const DefaultMaxCallDepth = 2000

// Options configures an Interpreter.
type Options struct {
	// Stdout receives console.log output. Defaults to os.Stdout.
	Stdout io.Writer

	// Helpers names the globals the runtime support library is bound to.
	// Empty fields take the default names.
	Helpers helpers.Names

	// MaxCallDepth bounds nested calls; exceeding it throws a RangeError.
	MaxCallDepth int
}

// Interpreter evaluates trees. Top-level bindings of a run stay visible as
// globals to later runs, so a session can be fed one tree at a time.
type Interpreter struct {
	options Options
	tree    *ast.Tree
	globals map[string]value.Value
	realm   realm
	depth   int
}

// realm holds the builtin prototypes objects are created with.
type realm struct {
	object   *value.Object
	function *value.Object
	array    *value.Object
	errors   map[string]*value.Object
}

// New creates an interpreter with the builtins installed. The first call in
// a process applies the native equality patch of the runtime library.
func New(options Options) *Interpreter {
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	if options.MaxCallDepth == 0 {
		options.MaxCallDepth = DefaultMaxCallDepth
	}
	options.Helpers = options.Helpers.Fill()

	helpers.Install()

	in := &Interpreter{
		options: options,
		globals: make(map[string]value.Value),
	}
	in.installBuiltins()
	return in
}

// Global returns the value of a global, and whether it exists.
func (in *Interpreter) Global(name string) (value.Value, bool) {
	v, ok := in.globals[name]
	return v, ok
}

// SetGlobal defines or replaces a global.
func (in *Interpreter) SetGlobal(name string, v value.Value) {
	in.globals[name] = v
}

// Run evaluates tree and returns the value of the last expression statement
// executed at the top level, or undefined. A thrown value is returned as an
// *Exception.
func (in *Interpreter) Run(tree *ast.Tree) (value.Value, error) {
	in.tree = tree
	in.depth = 0

	root := newFunctionEnv(nil, value.Undefined{})
	result, err := in.execProgram(tree.Stmts, root)

	// Export the top-level bindings for the next run
	for ref, v := range root.vars {
		if sym := tree.Symbol(ref); sym != nil && sym.Kind != ast.SymbolTemporary {
			in.globals[sym.OriginalName] = v
		}
	}

	if err != nil {
		glog.V(1).Infof("run failed: %v", err)
		return nil, err
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Exceptions
// ----------------------------------------------------------------------------

// Exception is a thrown value. Err holds the Go error the value was made
// from, if any, so errors.Is sees through it (value.ErrFrozen for a write to
// a frozen object).
type Exception struct {
	Value value.Value
	Err   error
}

func (e *Exception) Error() string {
	return "Uncaught " + value.Inspect(e.Value)
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// throwError builds an exception holding a new error object of the named
// builtin type.
func (in *Interpreter) throwError(name string, format string, args ...any) *Exception {
	return &Exception{Value: value.NewError(in.realm.errors[name], name, fmt.Sprintf(format, args...))}
}

// wrapError turns an error returned by the object model or a builtin into an
// exception. Exceptions pass through.
func (in *Interpreter) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Exception); ok {
		return err
	}
	ex := in.throwError("TypeError", "%s", err.Error())
	ex.Err = err
	return ex
}

// ----------------------------------------------------------------------------
// Environments
// ----------------------------------------------------------------------------

// env is a scope of bindings keyed by symbol. Function environments also
// carry the receiver; arrow functions and blocks see the receiver of the
// nearest enclosing function.
type env struct {
	vars   map[ast.Ref]value.Value
	parent *env
	fn     *env

	hasThis bool
	this    value.Value
}

func newFunctionEnv(parent *env, this value.Value) *env {
	e := &env{vars: make(map[ast.Ref]value.Value), parent: parent, hasThis: true, this: this}
	e.fn = e
	return e
}

func newArrowEnv(parent *env) *env {
	e := &env{vars: make(map[ast.Ref]value.Value), parent: parent}
	e.fn = e
	return e
}

func newBlockEnv(parent *env) *env {
	return &env{vars: make(map[ast.Ref]value.Value), parent: parent, fn: parent.fn}
}

func (e *env) declare(ref ast.Ref, v value.Value) {
	e.vars[ref] = v
}

func (e *env) lookup(ref ast.Ref) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[ref]; ok {
			return v, true
		}
	}
	return nil, false
}

// assign updates an existing binding, reporting whether one was found.
func (e *env) assign(ref ast.Ref, v value.Value) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[ref]; ok {
			cur.vars[ref] = v
			return true
		}
	}
	return false
}

func (e *env) receiver() value.Value {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.hasThis {
			return cur.this
		}
	}
	return value.Undefined{}
}
