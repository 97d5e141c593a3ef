// Package transform rewrites value-type syntax into calls against the
// runtime support library.
//
// Three rewrites run in a single walk over the tree:
// - The freeze operator "#x" becomes freeze(x)
// - Equality operators whose operands may be value objects become
//   structuralEquals / structuralStrictEquals calls
// - Writes to a member of a possible value object go through
//   persistentSet, assigning the result back to the object
//
// Rewriting is in place: the expression stored at an arena index is replaced
// and every parent keeps pointing at that index. Nodes the pass creates are
// recorded as visited and are never rewritten again.
package transform

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/helpers"
)

// CodeHelperShadowed warns that a program declares a name generated code
// uses to call a helper.
const CodeHelperShadowed diagnostic.Code = "VT0101"

// Options controls the transform.
type Options struct {
	// Helpers names the runtime functions generated code calls. Empty
	// fields take the default names.
	Helpers helpers.Names
}

// Stats counts the rewrites performed.
type Stats struct {
	Freezes     int
	Equalities  int
	Assignments int
	Updates     int
	Temporaries int
}

// Result is the outcome of a transform.
type Result struct {
	Stats       Stats
	Diagnostics *diagnostic.DiagnosticList
}

// HasErrors reports whether the transform failed. The tree is partially
// rewritten in that case and should be discarded.
func (r Result) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Transform rewrites tree in place. The tree must come from a successful
// parse, so identifiers are bound.
func Transform(tree *ast.Tree, options Options) Result {
	p := newPass(tree, options)
	p.visitBody(&tree.Stmts, ast.Loc{})

	if glog.V(1) {
		glog.Infof("transform: %d freezes, %d equalities, %d assignments, %d updates, %d temporaries",
			p.stats.Freezes, p.stats.Equalities, p.stats.Assignments, p.stats.Updates, p.stats.Temporaries)
	}
	return Result{Stats: p.stats, Diagnostics: p.diags}
}

// ----------------------------------------------------------------------------
// Pass
// ----------------------------------------------------------------------------

type pass struct {
	tree  *ast.Tree
	names helpers.Names
	temps *frameAllocator
	diags *diagnostic.DiagnosticList
	stats Stats

	// Arena indices the pass produced or already considered
	visited map[ast.ExprID]bool

	// Helper names already checked for shadowing
	checkedHelpers map[string]bool
}

func newPass(tree *ast.Tree, options Options) *pass {
	p := &pass{
		tree:           tree,
		names:          options.Helpers.Fill(),
		temps:          newFrameAllocator(tree),
		diags:          diagnostic.NewDiagnosticList(tree.Source),
		visited:        make(map[ast.ExprID]bool),
		checkedHelpers: make(map[string]bool),
	}
	for _, name := range p.names.List() {
		p.temps.uids.Reserve(name)
	}
	return p
}

func (p *pass) failed() bool {
	return p.diags.HasErrors()
}

// ----------------------------------------------------------------------------
// Node Construction
// ----------------------------------------------------------------------------

// add stores a generated node. Generated nodes are never rewritten.
func (p *pass) add(loc ast.Loc, data ast.Expr) ast.ExprID {
	id := p.tree.Add(loc, data)
	p.visited[id] = true
	return id
}

func (p *pass) ident(loc ast.Loc, ref ast.Ref) ast.ExprID {
	p.tree.Symbol(ref).UseCount++
	return p.add(loc, &ast.IdentExpr{Name: p.tree.Symbol(ref).OriginalName, Ref: ref})
}

func (p *pass) str(loc ast.Loc, s string) ast.ExprID {
	return p.add(loc, &ast.LiteralExpr{Kind: ast.LitString, Value: s})
}

func (p *pass) assign(loc ast.Loc, target, value ast.ExprID) ast.ExprID {
	return p.add(loc, &ast.AssignExpr{Op: ast.BinAssign, Target: target, Value: value})
}

// temp allocates a temporary named after basedOn.
func (p *pass) temp(basedOn ast.ExprID) ast.Ref {
	p.stats.Temporaries++
	return p.temps.Alloc(basedOn)
}

// helperCall builds a call to a runtime helper.
func (p *pass) helperCall(loc ast.Loc, kind ast.HelperKind, args ...ast.ExprID) ast.ExprID {
	var name string
	switch kind {
	case ast.HelperEquals:
		name = p.names.Equals
	case ast.HelperStrictEquals:
		name = p.names.StrictEquals
	case ast.HelperFreeze:
		name = p.names.Freeze
	case ast.HelperPersistentSet:
		name = p.names.PersistentSet
	}
	p.checkShadowed(loc, name)

	ref := p.tree.UnboundRef(name)
	p.tree.Symbol(ref).Flags |= ast.IsHelper
	callee := p.ident(loc, ref)
	return p.add(loc, &ast.CallExpr{Target: callee, Args: args, Helper: kind})
}

// checkShadowed warns once per helper when the program declares the same
// name, since the generated call would resolve to that declaration.
func (p *pass) checkShadowed(loc ast.Loc, name string) {
	if p.checkedHelpers[name] {
		return
	}
	p.checkedHelpers[name] = true
	for i := range p.tree.Symbols {
		sym := &p.tree.Symbols[i]
		if sym.OriginalName == name && sym.Kind != ast.SymbolUnbound {
			start := int(loc.Start)
			p.diags.AddWarning(CodeHelperShadowed, start, start,
				fmt.Sprintf("%q is declared by the program and shadows the runtime helper of the same name", name))
			return
		}
	}
}

// clone copies an expression built only from identifiers, this, literals
// and member accesses, so it can be read a second time from another place
// in the tree. Every node of the copy is new. Callers hoist anything else
// into a temporary first.
func (p *pass) clone(id ast.ExprID) ast.ExprID {
	loc := p.tree.Loc(id)
	switch e := p.tree.Expr(id).(type) {
	case *ast.IdentExpr:
		if e.Ref.IsValid() {
			return p.ident(loc, e.Ref)
		}
		return p.add(loc, &ast.IdentExpr{Name: e.Name, Ref: e.Ref})
	case *ast.ThisExpr:
		return p.add(loc, &ast.ThisExpr{})
	case *ast.LiteralExpr:
		lit := *e
		return p.add(loc, &lit)
	case *ast.ParenExpr:
		return p.clone(e.Value)
	case *ast.MemberExpr:
		member := *e
		member.Object = p.clone(e.Object)
		if e.Computed {
			member.Index = p.clone(e.Index)
		}
		return p.add(loc, &member)
	}
	panic(fmt.Sprintf("Internal error: cannot clone %T", p.tree.Expr(id)))
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// visitBody walks a statement list that temporaries can be declared in: the
// program, a function body or a block.
func (p *pass) visitBody(stmts *[]ast.Stmt, loc ast.Loc) {
	p.temps.push(loc)
	for _, s := range *stmts {
		if p.failed() {
			break
		}
		p.visitStmt(s)
	}
	if decl := p.temps.pop(); decl != nil {
		*stmts = append([]ast.Stmt{decl}, *stmts...)
	}
}

func (p *pass) visitStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.BlockStmt:
		p.visitBody(&stmt.Stmts, stmt.Loc)

	case *ast.LocalStmt:
		for _, decl := range stmt.Decls {
			p.visitExpr(decl.Value, true)
		}

	case *ast.FunctionStmt:
		p.visitFn(&stmt.Fn, stmt.Loc)

	case *ast.ClassStmt:
		p.visitClass(&stmt.Class)

	case *ast.ReturnStmt:
		p.visitExpr(stmt.Value, true)

	case *ast.IfStmt:
		p.visitExpr(stmt.Test, true)
		p.visitStmt(stmt.Yes)
		if stmt.No != nil {
			p.visitStmt(stmt.No)
		}

	case *ast.WhileStmt:
		p.visitExpr(stmt.Test, true)
		p.visitStmt(stmt.Body)

	case *ast.DoWhileStmt:
		p.visitStmt(stmt.Body)
		p.visitExpr(stmt.Test, true)

	case *ast.ForStmt:
		if stmt.Init != nil {
			p.visitStmt(stmt.Init)
		}
		p.visitExpr(stmt.Test, true)
		p.visitExpr(stmt.Update, false)
		p.visitStmt(stmt.Body)

	case *ast.ExprStmt:
		p.visitExpr(stmt.Value, false)
	}
}

func (p *pass) visitFn(fn *ast.Fn, loc ast.Loc) {
	p.visitBody(&fn.Body, loc)
}

func (p *pass) visitClass(class *ast.Class) {
	p.visitExpr(class.Extends, true)
	p.visitProperties(class.Methods)
}

func (p *pass) visitProperties(props []ast.Property) {
	for _, prop := range props {
		if prop.Computed {
			p.visitExpr(prop.KeyExpr, true)
		}
		p.visitExpr(prop.Value, true)
	}
}

// visitArrow walks an arrow function. An expression body that needs
// temporaries is turned into a block so they can be declared.
func (p *pass) visitArrow(arrow *ast.ArrowExpr, loc ast.Loc) {
	if !arrow.ExprBody {
		p.visitBody(&arrow.Body, loc)
		return
	}

	p.temps.push(loc)
	p.visitStmt(arrow.Body[0])
	if decl := p.temps.pop(); decl != nil {
		arrow.Body = append([]ast.Stmt{decl}, arrow.Body...)
		arrow.ExprBody = false
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// visitExpr rewrites id if it has not been considered yet, then walks its
// children. used is false when the value of id is discarded, as for an
// expression statement.
func (p *pass) visitExpr(id ast.ExprID, used bool) {
	if !id.IsValid() || p.failed() {
		return
	}
	if !p.visited[id] {
		p.visited[id] = true
		p.rewrite(id, used)
		if p.failed() {
			return
		}
	}

	switch e := p.tree.Expr(id).(type) {
	case *ast.ArrayExpr:
		for _, item := range e.Items {
			p.visitExpr(item, true)
		}

	case *ast.ObjectExpr:
		p.visitProperties(e.Properties)

	case *ast.FunctionExpr:
		p.visitFn(&e.Fn, p.tree.Loc(id))

	case *ast.ArrowExpr:
		p.visitArrow(e, p.tree.Loc(id))

	case *ast.ClassExpr:
		p.visitClass(&e.Class)

	case *ast.TaggedTemplateExpr:
		p.visitExpr(e.Tag, true)

	case *ast.BindExpr:
		p.visitExpr(e.Object, true)
		p.visitExpr(e.Callee, true)

	case *ast.MemberExpr:
		p.visitExpr(e.Object, true)
		if e.Computed {
			p.visitExpr(e.Index, true)
		}

	case *ast.CallExpr:
		p.visitExpr(e.Target, true)
		for _, arg := range e.Args {
			p.visitExpr(arg, true)
		}

	case *ast.NewExpr:
		p.visitExpr(e.Target, true)
		for _, arg := range e.Args {
			p.visitExpr(arg, true)
		}

	case *ast.UnaryExpr:
		p.visitExpr(e.Value, true)

	case *ast.UpdateExpr:
		p.visitExpr(e.Value, true)

	case *ast.BinaryExpr:
		p.visitExpr(e.Left, true)
		p.visitExpr(e.Right, true)

	case *ast.LogicalExpr:
		p.visitExpr(e.Left, true)
		p.visitExpr(e.Right, used)

	case *ast.ConditionalExpr:
		p.visitExpr(e.Test, true)
		p.visitExpr(e.Yes, used)
		p.visitExpr(e.No, used)

	case *ast.AssignExpr:
		p.visitExpr(e.Target, true)
		p.visitExpr(e.Value, true)

	case *ast.SequenceExpr:
		last := len(e.Exprs) - 1
		for i, item := range e.Exprs {
			p.visitExpr(item, used && i == last)
		}

	case *ast.ParenExpr:
		p.visitExpr(e.Value, used)
	}
}

// rewrite applies whichever rewrite matches the node at id.
func (p *pass) rewrite(id ast.ExprID, used bool) {
	switch e := p.tree.Expr(id).(type) {
	case *ast.UnaryExpr:
		if e.Op == ast.UnFreeze {
			p.rewriteFreeze(id, e)
		}

	case *ast.BinaryExpr:
		if e.Op.IsEquality() {
			p.rewriteEquality(id, e)
		}

	case *ast.AssignExpr:
		p.rewriteAssign(id, e, used)

	case *ast.UpdateExpr:
		p.rewriteUpdate(id, e, used)
	}
}
