package parser

import (
	"fmt"

	"github.com/HugoDaniel/valtypes/internal/ast"
)

// ----------------------------------------------------------------------------
// Pass 2: Visit - Bind identifiers and count usage
// ----------------------------------------------------------------------------

func (p *Parser) visitProgram() {
	// Reset to program scope for visiting
	p.scope = p.tree.Scope
	p.scopeIndex = 0

	p.visitStmts(p.tree.Stmts)
}

func (p *Parser) visitStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		p.visitStmt(s)
	}
}

func (p *Parser) visitStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.BlockStmt:
		p.enterNextScope()
		p.visitStmts(stmt.Stmts)
		p.exitScope()

	case *ast.LocalStmt:
		for _, decl := range stmt.Decls {
			p.visitExpr(decl.Value)
		}

	case *ast.FunctionStmt:
		p.visitFn(&stmt.Fn)

	case *ast.ClassStmt:
		p.visitClass(&stmt.Class)

	case *ast.ReturnStmt:
		p.visitExpr(stmt.Value)

	case *ast.IfStmt:
		p.visitExpr(stmt.Test)
		p.visitStmt(stmt.Yes)
		if stmt.No != nil {
			p.visitStmt(stmt.No)
		}

	case *ast.WhileStmt:
		p.visitExpr(stmt.Test)
		p.visitStmt(stmt.Body)

	case *ast.DoWhileStmt:
		p.visitStmt(stmt.Body)
		p.visitExpr(stmt.Test)

	case *ast.ForStmt:
		p.enterNextScope()
		if stmt.Init != nil {
			p.visitStmt(stmt.Init)
		}
		p.visitExpr(stmt.Test)
		p.visitExpr(stmt.Update)
		p.visitStmt(stmt.Body)
		p.exitScope()

	case *ast.ExprStmt:
		p.visitExpr(stmt.Value)
	}
}

func (p *Parser) visitFn(fn *ast.Fn) {
	// Enter function scope (recorded during parse)
	p.enterNextScope()
	p.visitStmts(fn.Body)
	p.exitScope()
}

func (p *Parser) visitClass(class *ast.Class) {
	p.visitExpr(class.Extends)
	p.visitProperties(class.Methods)
}

func (p *Parser) visitProperties(props []ast.Property) {
	for _, prop := range props {
		if prop.Computed {
			p.visitExpr(prop.KeyExpr)
		}
		p.visitExpr(prop.Value)
	}
}

func (p *Parser) visitExprs(ids []ast.ExprID) {
	for _, id := range ids {
		p.visitExpr(id)
	}
}

func (p *Parser) visitExpr(id ast.ExprID) {
	switch e := p.tree.Expr(id).(type) {
	case *ast.IdentExpr:
		p.bindIdent(e)

	case *ast.ArrayExpr:
		p.visitExprs(e.Items)

	case *ast.ObjectExpr:
		p.visitProperties(e.Properties)

	case *ast.FunctionExpr:
		p.visitFn(&e.Fn)

	case *ast.ArrowExpr:
		p.enterNextScope()
		p.visitStmts(e.Body)
		p.exitScope()

	case *ast.ClassExpr:
		p.visitClass(&e.Class)

	case *ast.TaggedTemplateExpr:
		p.visitExpr(e.Tag)

	case *ast.BindExpr:
		p.visitExpr(e.Object)
		p.visitExpr(e.Callee)

	case *ast.MemberExpr:
		p.visitExpr(e.Object)
		if e.Computed {
			p.visitExpr(e.Index)
		}

	case *ast.CallExpr:
		p.visitExpr(e.Target)
		p.visitExprs(e.Args)

	case *ast.NewExpr:
		p.visitExpr(e.Target)
		p.visitExprs(e.Args)

	case *ast.UnaryExpr:
		p.visitExpr(e.Value)

	case *ast.UpdateExpr:
		p.visitExpr(e.Value)
		p.markWrite(e.Value)

	case *ast.BinaryExpr:
		p.visitExpr(e.Left)
		p.visitExpr(e.Right)

	case *ast.LogicalExpr:
		p.visitExpr(e.Left)
		p.visitExpr(e.Right)

	case *ast.ConditionalExpr:
		p.visitExpr(e.Test)
		p.visitExpr(e.Yes)
		p.visitExpr(e.No)

	case *ast.AssignExpr:
		p.visitExpr(e.Target)
		p.visitExpr(e.Value)
		p.markWrite(e.Target)

	case *ast.SequenceExpr:
		p.visitExprs(e.Exprs)

	case *ast.ParenExpr:
		p.visitExpr(e.Value)
	}
}

// bindIdent resolves an identifier through the scope chain. Names that are
// never declared bind to a shared unbound symbol.
func (p *Parser) bindIdent(e *ast.IdentExpr) {
	ref, ok := p.scope.Lookup(e.Name)
	if !ok {
		ref = p.tree.UnboundRef(e.Name)
	}
	e.Ref = ref
	p.tree.Symbol(ref).UseCount++
}

// markWrite flags the symbol an assignment or update writes to.
func (p *Parser) markWrite(target ast.ExprID) {
	target = p.tree.Unparen(target)
	id, ok := p.tree.Expr(target).(*ast.IdentExpr)
	if !ok {
		return
	}
	sym := p.tree.Symbol(id.Ref)
	if sym.Kind == ast.SymbolConst {
		p.errorAt(int(p.tree.Loc(target).Start), fmt.Sprintf("assignment to constant variable %q", id.Name))
	}
	sym.Flags |= ast.IsReassigned
}

// enterNextScope moves to the next scope in parse order during visit pass.
func (p *Parser) enterNextScope() {
	if p.scopeIndex < len(p.scopesInOrder) {
		p.scope = p.scopesInOrder[p.scopeIndex]
		p.scopeIndex++
	}
}

// exitScope returns to parent scope during visit pass.
func (p *Parser) exitScope() {
	if p.scope.Parent != nil {
		p.scope = p.scope.Parent
	}
}
