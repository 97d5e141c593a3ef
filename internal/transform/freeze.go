package transform

import (
	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
)

// rewriteFreeze turns "#x" into "freeze(x)" in place.
func (p *pass) rewriteFreeze(id ast.ExprID, e *ast.UnaryExpr) {
	loc := p.tree.Loc(id)
	call := p.helperCall(loc, ast.HelperFreeze, e.Value)
	p.tree.Replace(id, p.tree.Expr(call))
	p.stats.Freezes++
	glog.V(2).Infof("freeze at offset %d", loc.Start)
}
