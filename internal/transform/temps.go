package transform

import (
	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/renamer"
)

// ----------------------------------------------------------------------------
// Temporaries
// ----------------------------------------------------------------------------

// TempAllocator mints temporary bindings for the rewriters. The allocator
// decides where a temporary is declared; the caller only assigns and reads
// it.
type TempAllocator interface {
	// Alloc declares a fresh temporary whose name describes the expression
	// it will hold.
	Alloc(basedOn ast.ExprID) ast.Ref
}

// frameAllocator declares temporaries at the top of the innermost block,
// function body or program being walked.
type frameAllocator struct {
	tree   *ast.Tree
	uids   *renamer.UIDGenerator
	frames []*tempFrame
}

type tempFrame struct {
	loc  ast.Loc
	refs []ast.Ref
}

func newFrameAllocator(tree *ast.Tree) *frameAllocator {
	return &frameAllocator{tree: tree, uids: renamer.NewUIDGenerator(tree)}
}

// push opens a frame for a statement list starting at loc.
func (a *frameAllocator) push(loc ast.Loc) {
	a.frames = append(a.frames, &tempFrame{loc: loc})
}

// pop closes the innermost frame and returns the declaration of its
// temporaries, or nil when it has none.
func (a *frameAllocator) pop() *ast.LocalStmt {
	f := a.frames[len(a.frames)-1]
	a.frames = a.frames[:len(a.frames)-1]
	if len(f.refs) == 0 {
		return nil
	}

	decl := &ast.LocalStmt{Loc: f.loc, Kind: ast.LocalLet}
	for _, ref := range f.refs {
		sym := a.tree.Symbol(ref)
		decl.Decls = append(decl.Decls, ast.Declarator{Name: sym.OriginalName, Ref: ref, Loc: f.loc})
	}
	return decl
}

// Alloc implements TempAllocator.
func (a *frameAllocator) Alloc(basedOn ast.ExprID) ast.Ref {
	name := a.uids.GenerateBasedOnExpr(a.tree, basedOn)
	f := a.frames[len(a.frames)-1]
	ref := a.tree.DeclareSymbol(name, ast.SymbolTemporary, f.loc)
	f.refs = append(f.refs, ref)
	glog.V(2).Infof("temporary %s declared at offset %d", name, f.loc.Start)
	return ref
}
