// Package ast defines the syntax tree the value-types transform operates on.
//
// The tree is designed to be:
// - Closed: expressions and statements are sealed sets of variants that
//   passes match exhaustively
// - Stable: expressions live in an arena and are addressed by ExprID, so a
//   rewrite replaces the node stored at an index without touching parents
// - Resolved: every identifier carries a Ref into the symbol table built by
//   the parser's binding pass
package ast

// ----------------------------------------------------------------------------
// Source Location
// ----------------------------------------------------------------------------

// Loc represents a location in source code.
type Loc struct {
	Start int32 // Byte offset of start
}

// Range represents a range in source code.
type Range struct {
	Loc Loc
	Len int32
}

// ----------------------------------------------------------------------------
// Symbols and References
// ----------------------------------------------------------------------------

// Ref is a reference to a symbol in the symbol table.
type Ref struct {
	SourceIndex uint32
	InnerIndex  uint32
}

// InvalidRef returns an invalid reference.
func InvalidRef() Ref {
	return Ref{SourceIndex: ^uint32(0), InnerIndex: ^uint32(0)}
}

// IsValid returns true if this is a valid reference.
func (r Ref) IsValid() bool {
	return r.SourceIndex != ^uint32(0)
}

// Symbol represents a declared (or referenced but undeclared) name.
type Symbol struct {
	// The original name as written in source
	OriginalName string

	// Location of the declaration
	Loc Loc

	// What kind of symbol this is
	Kind SymbolKind

	// Flags for special handling
	Flags SymbolFlags

	// Init is the initializer of the declarator that introduced the symbol,
	// or NoExpr when it was declared without one or not by a declarator.
	Init ExprID

	// Usage count, filled in by the binding pass
	UseCount uint32
}

// SymbolKind indicates what a symbol represents.
type SymbolKind uint8

const (
	SymbolUnbound   SymbolKind = iota // Referenced but never declared (a global)
	SymbolVar                         // var declaration
	SymbolLet                         // let declaration
	SymbolConst                       // const declaration
	SymbolFunction                    // function declaration
	SymbolClass                       // class declaration
	SymbolParameter                   // function parameter
	SymbolTemporary                   // compiler-introduced temporary
)

var symbolKindNames = [...]string{
	SymbolUnbound:   "unbound",
	SymbolVar:       "var",
	SymbolLet:       "let",
	SymbolConst:     "const",
	SymbolFunction:  "function",
	SymbolClass:     "class",
	SymbolParameter: "parameter",
	SymbolTemporary: "temporary",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// IsDeclarator reports whether symbols of this kind come from a
// var/let/const declarator.
func (k SymbolKind) IsDeclarator() bool {
	return k == SymbolVar || k == SymbolLet || k == SymbolConst
}

// SymbolFlags are bitflags for symbol properties.
type SymbolFlags uint16

const (
	// IsReassigned marks a symbol written after its declaration, or
	// declared more than once. Symbols without it are single-assignment.
	IsReassigned SymbolFlags = 1 << iota

	// MustNotBeRenamed keeps the original name when printing.
	MustNotBeRenamed

	// IsHelper marks the unbound symbols runtime helper calls refer to.
	IsHelper
)

// Has returns true if the flag is set.
func (f SymbolFlags) Has(flag SymbolFlags) bool {
	return (f & flag) != 0
}

// IsConstant reports whether the symbol is never reassigned.
func (s *Symbol) IsConstant() bool {
	return !s.Flags.Has(IsReassigned)
}

// ----------------------------------------------------------------------------
// Tree (Top Level)
// ----------------------------------------------------------------------------

// ExprID addresses an expression in Tree.Exprs. The zero ID is never a real
// expression and stands for "absent".
type ExprID uint32

// NoExpr is the absent expression.
const NoExpr ExprID = 0

// IsValid reports whether id refers to an expression.
func (id ExprID) IsValid() bool { return id != NoExpr }

// ExprNode is one slot of the expression arena.
type ExprNode struct {
	Loc  Loc
	Data Expr
}

// Tree represents a parsed program.
type Tree struct {
	// Source information
	Source     string // Original source text
	SourcePath string // File path (for error messages)

	// Expression arena. Index 0 is reserved for NoExpr.
	Exprs []ExprNode

	// Top-level statements in order
	Stmts []Stmt

	// Symbol table
	Symbols []Symbol

	// Program scope
	Scope *Scope

	// Unbound maps global names to their SymbolUnbound symbol
	Unbound map[string]Ref
}

// NewTree creates an empty tree for source.
func NewTree(source string) *Tree {
	return &Tree{
		Source:  source,
		Exprs:   make([]ExprNode, 1, 64),
		Scope:   NewScope(nil, ScopeProgram),
		Unbound: make(map[string]Ref),
	}
}

// Add appends an expression to the arena and returns its ID.
func (t *Tree) Add(loc Loc, data Expr) ExprID {
	t.Exprs = append(t.Exprs, ExprNode{Loc: loc, Data: data})
	return ExprID(len(t.Exprs) - 1)
}

// Expr returns the data stored at id, or nil for NoExpr.
func (t *Tree) Expr(id ExprID) Expr {
	if id == NoExpr || int(id) >= len(t.Exprs) {
		return nil
	}
	return t.Exprs[id].Data
}

// Loc returns the location of id.
func (t *Tree) Loc(id ExprID) Loc {
	if int(id) >= len(t.Exprs) {
		return Loc{}
	}
	return t.Exprs[id].Loc
}

// Replace overwrites the expression stored at id, keeping its location.
// Every parent that referred to id now refers to data.
func (t *Tree) Replace(id ExprID, data Expr) {
	t.Exprs[id].Data = data
}

// Move copies the expression at id into a fresh slot and returns the new ID.
// Rewrites use it to keep the original node alive as a child of the
// replacement written back to id.
func (t *Tree) Move(id ExprID) ExprID {
	return t.Add(t.Exprs[id].Loc, t.Exprs[id].Data)
}

// DeclareSymbol adds a symbol to the table.
func (t *Tree) DeclareSymbol(name string, kind SymbolKind, loc Loc) Ref {
	t.Symbols = append(t.Symbols, Symbol{OriginalName: name, Loc: loc, Kind: kind})
	return Ref{InnerIndex: uint32(len(t.Symbols) - 1)}
}

// Symbol returns the symbol ref points to, or nil.
func (t *Tree) Symbol(ref Ref) *Symbol {
	if !ref.IsValid() || int(ref.InnerIndex) >= len(t.Symbols) {
		return nil
	}
	return &t.Symbols[ref.InnerIndex]
}

// UnboundRef returns the symbol for an undeclared global name, creating it
// on first use.
func (t *Tree) UnboundRef(name string) Ref {
	if ref, ok := t.Unbound[name]; ok {
		return ref
	}
	ref := t.DeclareSymbol(name, SymbolUnbound, Loc{})
	t.Symbols[ref.InnerIndex].Flags |= MustNotBeRenamed
	t.Unbound[name] = ref
	return ref
}

// NewIdent adds an identifier expression bound to ref.
func (t *Tree) NewIdent(loc Loc, ref Ref) ExprID {
	return t.Add(loc, &IdentExpr{Name: t.Symbols[ref.InnerIndex].OriginalName, Ref: ref})
}

// ----------------------------------------------------------------------------
// Scopes
// ----------------------------------------------------------------------------

// ScopeKind tells declarations where they belong.
type ScopeKind uint8

const (
	ScopeProgram  ScopeKind = iota
	ScopeFunction           // parameters and body of a function or arrow
	ScopeBlock              // block, loop or class body
)

// ScopeMember is a symbol declared in a scope.
type ScopeMember struct {
	Ref Ref
	Loc Loc
}

// Scope is a lexical scope.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	Members  map[string]ScopeMember
}

// NewScope creates a scope and links it to its parent.
func NewScope(parent *Scope, kind ScopeKind) *Scope {
	s := &Scope{Kind: kind, Parent: parent, Members: make(map[string]ScopeMember)}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// FunctionScope returns the nearest enclosing function or program scope,
// where var declarations are hoisted to.
func (s *Scope) FunctionScope() *Scope {
	for s.Kind == ScopeBlock && s.Parent != nil {
		s = s.Parent
	}
	return s
}

// Lookup resolves name through the scope chain.
func (s *Scope) Lookup(name string) (Ref, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if m, ok := cur.Members[name]; ok {
			return m.Ref, true
		}
	}
	return InvalidRef(), false
}
