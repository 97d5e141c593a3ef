package ast

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt represents a statement.
type Stmt interface {
	isStmt()
}

// BlockStmt represents { stmts }.
type BlockStmt struct {
	Loc   Loc
	Stmts []Stmt
}

// LocalKind is the keyword of a declaration statement.
type LocalKind uint8

const (
	LocalVar LocalKind = iota
	LocalLet
	LocalConst
)

func (k LocalKind) String() string {
	switch k {
	case LocalLet:
		return "let"
	case LocalConst:
		return "const"
	}
	return "var"
}

// Declarator is one `name = value` of a declaration.
type Declarator struct {
	Name  string
	Ref   Ref
	Loc   Loc
	Value ExprID // NoExpr when there is no initializer
}

// LocalStmt represents var/let/const declarations.
type LocalStmt struct {
	Loc   Loc
	Kind  LocalKind
	Decls []Declarator
}

// FunctionStmt represents a function declaration.
type FunctionStmt struct {
	Loc Loc
	Fn  Fn
}

// ClassStmt represents a class declaration.
type ClassStmt struct {
	Loc   Loc
	Class Class
}

// ReturnStmt represents: return [expr];
type ReturnStmt struct {
	Loc   Loc
	Value ExprID
}

// IfStmt represents if/else. No is nil when there is no else branch.
type IfStmt struct {
	Loc  Loc
	Test ExprID
	Yes  Stmt
	No   Stmt
}

// WhileStmt represents while (test) body.
type WhileStmt struct {
	Loc  Loc
	Test ExprID
	Body Stmt
}

// DoWhileStmt represents do body while (test).
type DoWhileStmt struct {
	Loc  Loc
	Body Stmt
	Test ExprID
}

// ForStmt represents for (init; test; update) body. Init is nil, a
// *LocalStmt or an *ExprStmt.
type ForStmt struct {
	Loc    Loc
	Init   Stmt
	Test   ExprID
	Update ExprID
	Body   Stmt
}

// BreakStmt represents break.
type BreakStmt struct {
	Loc Loc
}

// ContinueStmt represents continue.
type ContinueStmt struct {
	Loc Loc
}

// ExprStmt represents an expression evaluated for its effects.
type ExprStmt struct {
	Loc   Loc
	Value ExprID
}

// EmptyStmt represents a lone semicolon.
type EmptyStmt struct {
	Loc Loc
}

func (*BlockStmt) isStmt()    {}
func (*LocalStmt) isStmt()    {}
func (*FunctionStmt) isStmt() {}
func (*ClassStmt) isStmt()    {}
func (*ReturnStmt) isStmt()   {}
func (*IfStmt) isStmt()       {}
func (*WhileStmt) isStmt()    {}
func (*DoWhileStmt) isStmt()  {}
func (*ForStmt) isStmt()      {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*ExprStmt) isStmt()     {}
func (*EmptyStmt) isStmt()    {}
