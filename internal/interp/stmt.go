package interp

import (
	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

type completionKind uint8

const (
	completionNormal completionKind = iota
	completionReturn
	completionBreak
	completionContinue
)

type completion struct {
	kind  completionKind
	value value.Value
}

var normal = completion{}

// execProgram runs the top-level statements and tracks the value of the last
// expression statement.
func (in *Interpreter) execProgram(stmts []ast.Stmt, e *env) (value.Value, error) {
	in.hoistFunctions(stmts, e)
	var last value.Value = value.Undefined{}
	for _, s := range stmts {
		if expr, ok := s.(*ast.ExprStmt); ok {
			v, err := in.eval(expr.Value, e)
			if err != nil {
				return nil, err
			}
			last = v
			continue
		}
		c, err := in.exec(s, e)
		if err != nil {
			return nil, err
		}
		if c.kind != completionNormal {
			break
		}
	}
	return last, nil
}

// execList runs a statement list in e, stopping at the first abrupt
// completion.
func (in *Interpreter) execList(stmts []ast.Stmt, e *env) (completion, error) {
	in.hoistFunctions(stmts, e)
	for _, s := range stmts {
		c, err := in.exec(s, e)
		if err != nil || c.kind != completionNormal {
			return c, err
		}
	}
	return normal, nil
}

// hoistFunctions binds the function declarations of a statement list before
// any of it runs.
func (in *Interpreter) hoistFunctions(stmts []ast.Stmt, e *env) {
	for _, s := range stmts {
		if fn, ok := s.(*ast.FunctionStmt); ok {
			e.declare(fn.Fn.NameRef, in.makeFunction(&fn.Fn, e, false))
		}
	}
}

func (in *Interpreter) exec(s ast.Stmt, e *env) (completion, error) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return in.execList(s.Stmts, newBlockEnv(e))

	case *ast.LocalStmt:
		for _, decl := range s.Decls {
			target := e
			if s.Kind == ast.LocalVar {
				target = e.fn
				if !decl.Value.IsValid() {
					if _, ok := target.vars[decl.Ref]; ok {
						continue
					}
				}
			}
			var v value.Value = value.Undefined{}
			if decl.Value.IsValid() {
				var err error
				if v, err = in.eval(decl.Value, e); err != nil {
					return normal, err
				}
			}
			target.declare(decl.Ref, v)
		}

	case *ast.FunctionStmt:
		// Bound by hoistFunctions

	case *ast.ClassStmt:
		class, err := in.makeClass(&s.Class, e)
		if err != nil {
			return normal, err
		}
		e.declare(s.Class.NameRef, class)

	case *ast.ReturnStmt:
		var v value.Value = value.Undefined{}
		if s.Value.IsValid() {
			var err error
			if v, err = in.eval(s.Value, e); err != nil {
				return normal, err
			}
		}
		return completion{kind: completionReturn, value: v}, nil

	case *ast.IfStmt:
		test, err := in.eval(s.Test, e)
		if err != nil {
			return normal, err
		}
		if value.ToBoolean(test) {
			return in.exec(s.Yes, e)
		}
		if s.No != nil {
			return in.exec(s.No, e)
		}

	case *ast.WhileStmt:
		for {
			test, err := in.eval(s.Test, e)
			if err != nil {
				return normal, err
			}
			if !value.ToBoolean(test) {
				break
			}
			c, err := in.exec(s.Body, e)
			if err != nil {
				return normal, err
			}
			if done, result := loopControl(c); done {
				return result, nil
			}
		}

	case *ast.DoWhileStmt:
		for {
			c, err := in.exec(s.Body, e)
			if err != nil {
				return normal, err
			}
			if done, result := loopControl(c); done {
				return result, nil
			}
			test, err := in.eval(s.Test, e)
			if err != nil {
				return normal, err
			}
			if !value.ToBoolean(test) {
				break
			}
		}

	case *ast.ForStmt:
		return in.execFor(s, e)

	case *ast.BreakStmt:
		return completion{kind: completionBreak}, nil

	case *ast.ContinueStmt:
		return completion{kind: completionContinue}, nil

	case *ast.ExprStmt:
		_, err := in.eval(s.Value, e)
		return normal, err
	}
	return normal, nil
}

// execFor runs a for loop. Bindings declared with let in the initializer are
// copied into a fresh scope for every iteration, so closures created in the
// body capture that iteration's values.
func (in *Interpreter) execFor(s *ast.ForStmt, e *env) (completion, error) {
	loop := newBlockEnv(e)
	var perIteration []ast.Ref
	if s.Init != nil {
		if local, ok := s.Init.(*ast.LocalStmt); ok && local.Kind != ast.LocalVar {
			for _, decl := range local.Decls {
				perIteration = append(perIteration, decl.Ref)
			}
		}
		if _, err := in.exec(s.Init, loop); err != nil {
			return normal, err
		}
	}

	iteration := loop
	copyBindings := func() {
		if len(perIteration) == 0 {
			return
		}
		next := newBlockEnv(e)
		for _, ref := range perIteration {
			next.declare(ref, iteration.vars[ref])
		}
		iteration = next
	}

	copyBindings()
	for {
		if s.Test.IsValid() {
			test, err := in.eval(s.Test, iteration)
			if err != nil {
				return normal, err
			}
			if !value.ToBoolean(test) {
				break
			}
		}
		c, err := in.exec(s.Body, iteration)
		if err != nil {
			return normal, err
		}
		if done, result := loopControl(c); done {
			return result, nil
		}
		copyBindings()
		if s.Update.IsValid() {
			if _, err := in.eval(s.Update, iteration); err != nil {
				return normal, err
			}
		}
	}
	return normal, nil
}

// loopControl interprets the completion of a loop body. done reports whether
// the loop ends, with result the completion the loop statement produces.
func loopControl(c completion) (done bool, result completion) {
	switch c.kind {
	case completionBreak:
		return true, normal
	case completionReturn:
		return true, c
	}
	return false, normal
}
