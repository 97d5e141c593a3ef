package transform

import (
	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
)

// rewriteEquality turns a comparison that may involve value objects into a
// structural comparison. Comparisons where either side is known not to be a
// value object keep native semantics. The operands move into the call
// unchanged, so they still evaluate once, left to right.
func (p *pass) rewriteEquality(id ast.ExprID, e *ast.BinaryExpr) {
	left, right := Classify(p.tree, e.Left), Classify(p.tree, e.Right)
	if left == NotValue || right == NotValue {
		return
	}

	kind := ast.HelperEquals
	if e.Op == ast.BinStrictEq || e.Op == ast.BinStrictNe {
		kind = ast.HelperStrictEquals
	}

	loc := p.tree.Loc(id)
	call := p.helperCall(loc, kind, e.Left, e.Right)
	if e.Op == ast.BinLooseNe || e.Op == ast.BinStrictNe {
		p.tree.Replace(id, &ast.UnaryExpr{Op: ast.UnNot, Value: call})
	} else {
		p.tree.Replace(id, p.tree.Expr(call))
	}
	p.stats.Equalities++
	glog.V(2).Infof("%s at offset %d: operands %s and %s", e.Op, loc.Start, left, right)
}
