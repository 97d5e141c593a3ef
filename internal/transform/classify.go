package transform

import (
	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
)

// Valueness is what the classifier knows about the value of an expression.
type Valueness uint8

const (
	// Unknown means the expression may or may not produce a value object.
	Unknown Valueness = iota

	// IsValue means the expression always produces a value object.
	IsValue

	// NotValue means the expression never produces a value object.
	NotValue
)

func (v Valueness) String() string {
	switch v {
	case IsValue:
		return "IsValue"
	case NotValue:
		return "NotValue"
	}
	return "Unknown"
}

// Classify reports whether the expression id produces a value object.
//
// The analysis is shallow and syntax-directed: identifiers are followed to
// the initializer of a binding that is never reassigned, conditionals and
// logical operators must agree on both sides, and everything it cannot
// decide is Unknown. Calls to the freeze and equality helpers classify like
// the syntax they replaced, so the answer does not change once a
// subexpression has been rewritten.
func Classify(tree *ast.Tree, id ast.ExprID) Valueness {
	c := classifier{tree: tree}
	result := c.classify(id)
	if glog.V(3) {
		glog.Infof("classify %T at offset %d: %s", tree.Expr(id), tree.Loc(id).Start, result)
	}
	return result
}

// ClassifyBinding reports what an identifier bound to ref would classify as.
func ClassifyBinding(tree *ast.Tree, ref ast.Ref) Valueness {
	c := classifier{tree: tree}
	return c.classifyBinding(ref)
}

type classifier struct {
	tree *ast.Tree

	// Bindings whose initializer is being classified, to stop on cycles such
	// as "let a = b, b = a"
	following map[ast.Ref]bool
}

func (c *classifier) classify(id ast.ExprID) Valueness {
	switch e := c.tree.Expr(id).(type) {
	case *ast.IdentExpr:
		return c.classifyBinding(e.Ref)

	case *ast.ConditionalExpr:
		return agree(c.classify(e.Yes), c.classify(e.No))

	case *ast.LogicalExpr:
		return agree(c.classify(e.Left), c.classify(e.Right))

	case *ast.ParenExpr:
		return c.classify(e.Value)

	case *ast.UnaryExpr:
		if e.Op == ast.UnFreeze {
			return IsValue
		}
		return NotValue

	case *ast.LiteralExpr, *ast.ObjectExpr, *ast.ArrayExpr, *ast.BinaryExpr,
		*ast.ArrowExpr, *ast.FunctionExpr, *ast.ClassExpr,
		*ast.TaggedTemplateExpr, *ast.BindExpr:
		return NotValue

	case *ast.CallExpr:
		switch e.Helper {
		case ast.HelperFreeze:
			return IsValue
		case ast.HelperEquals, ast.HelperStrictEquals:
			return NotValue
		}
	}
	return Unknown
}

// classifyBinding follows a binding to its initializer. Only var, let and
// const declarators that are never reassigned qualify.
func (c *classifier) classifyBinding(ref ast.Ref) Valueness {
	sym := c.tree.Symbol(ref)
	if sym == nil || !sym.Kind.IsDeclarator() || !sym.IsConstant() || !sym.Init.IsValid() {
		return Unknown
	}
	if c.following[ref] {
		return Unknown
	}
	if c.following == nil {
		c.following = make(map[ast.Ref]bool)
	}
	c.following[ref] = true
	defer delete(c.following, ref)
	return c.classify(sym.Init)
}

func agree(a, b Valueness) Valueness {
	if a == b {
		return a
	}
	return Unknown
}
