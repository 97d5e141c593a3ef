// Package parser provides parsing of the valtypes JavaScript subset into an
// AST.
//
// The parser implements a two-pass architecture similar to esbuild:
//
// Pass 1 (Parse): Build AST and scope tree, declare symbols
// Pass 2 (Visit): Bind identifiers to symbols, count usage, track writes
//
// This separation lets var and function declarations hoist: every
// declaration of a function is known before any identifier in it is bound.
// The value-types transform relies on the result of pass 2 to tell
// single-assignment bindings from reassigned ones.
package parser

import (
	"fmt"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/lexer"
)

// Parser parses source into an ast.Tree using a two-pass approach.
type Parser struct {
	source    string
	tokens    []lexer.Token
	pos       int
	lineIndex *diagnostic.LineIndex // For converting byte offsets to line/column

	tree  *ast.Tree
	scope *ast.Scope

	// Two-pass tracking
	scopesInOrder []*ast.Scope // Scopes in parse order for visit pass
	scopeIndex    int          // Current scope index during visit pass

	// Statement context
	fnDepth   int
	loopDepth int

	// Errors
	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// New creates a new parser for the given source.
func New(source string) *Parser {
	lex := lexer.New(source)
	tokens := lex.Tokenize()

	tree := ast.NewTree(source)
	return &Parser{
		source:    source,
		tokens:    tokens,
		lineIndex: diagnostic.NewLineIndex(source),
		tree:      tree,
		scope:     tree.Scope,
	}
}

// Parse parses the source and returns the tree.
// This is the main entry point that runs both passes. The binding pass only
// runs when parsing succeeded.
func (p *Parser) Parse() (*ast.Tree, []ParseError) {
	// Pass 1: Parse - build AST and declare symbols
	p.parseProgram()
	if len(p.errors) > 0 {
		return p.tree, p.errors
	}

	// Pass 2: Visit - bind identifiers and count usage
	p.visitProgram()

	return p.tree, p.errors
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		if tok.Kind == lexer.TokError {
			p.error(tok.Value)
		} else {
			p.error(fmt.Sprintf("expected %s, got %s", kind, tok.Kind))
		}
		// Don't advance here - parsing stops at the first error
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

// consumeSemicolon implements automatic semicolon insertion.
func (p *Parser) consumeSemicolon() {
	tok := p.current()
	switch {
	case tok.Kind == lexer.TokSemicolon:
		p.advance()
	case tok.Kind == lexer.TokRBrace, tok.Kind == lexer.TokEOF, tok.NewlineBefore:
	default:
		p.unexpected()
	}
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) unexpected() {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokError:
		p.error(tok.Value)
	case lexer.TokEOF:
		p.error("unexpected end of file")
	default:
		p.error(fmt.Sprintf("unexpected %q", tok.Text(p.source)))
	}
}

func (p *Parser) error(msg string) {
	p.errorAt(p.current().Start, msg)
}

func (p *Parser) errorAt(offset int, msg string) {
	line, col := p.lineIndex.ByteOffsetToLineColumn(offset)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Pos:     offset,
		Line:    line + 1, // Convert to 1-based
		Column:  col + 1,  // Convert to 1-based
	})
}

func locOf(tok lexer.Token) ast.Loc {
	return ast.Loc{Start: int32(tok.Start)}
}

// ----------------------------------------------------------------------------
// Symbol Table (Pass 1)
// ----------------------------------------------------------------------------

// declare adds name to the scope its kind belongs to. var and function
// declarations hoist to the enclosing function scope; everything else lives
// in the current scope. Redeclaring a var or function reuses its symbol and
// marks it reassigned; redeclaring anything lexical is an error.
func (p *Parser) declare(name string, kind ast.SymbolKind, loc ast.Loc, init ast.ExprID) ast.Ref {
	scope := p.scope
	if kind == ast.SymbolVar || kind == ast.SymbolFunction {
		scope = scope.FunctionScope()
	}

	if existing, ok := scope.Members[name]; ok {
		sym := p.tree.Symbol(existing.Ref)
		if isLexical(kind) || isLexical(sym.Kind) {
			p.errorAt(int(loc.Start), fmt.Sprintf("identifier %q has already been declared", name))
			return existing.Ref
		}
		sym.Flags |= ast.IsReassigned
		return existing.Ref
	}

	ref := p.tree.DeclareSymbol(name, kind, loc)
	p.tree.Symbol(ref).Init = init
	scope.Members[name] = ast.ScopeMember{Ref: ref, Loc: loc}
	return ref
}

func isLexical(kind ast.SymbolKind) bool {
	return kind == ast.SymbolLet || kind == ast.SymbolConst || kind == ast.SymbolClass
}

func (p *Parser) pushScope(kind ast.ScopeKind) {
	p.scope = ast.NewScope(p.scope, kind)
	// Track scope order for visit pass
	p.scopesInOrder = append(p.scopesInOrder, p.scope)
}

func (p *Parser) popScope() {
	if p.scope.Parent != nil {
		p.scope = p.scope.Parent
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseProgram() {
	for p.current().Kind != lexer.TokEOF && !p.failed() {
		if s := p.parseStatement(); s != nil {
			p.tree.Stmts = append(p.tree.Stmts, s)
		}
	}
}

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.current()
	loc := locOf(tok)

	switch tok.Kind {
	case lexer.TokLBrace:
		return p.parseBlockStmt()

	case lexer.TokSemicolon:
		p.advance()
		return &ast.EmptyStmt{Loc: loc}

	case lexer.TokVar, lexer.TokLet, lexer.TokConst:
		stmt := p.parseLocalStmt()
		p.consumeSemicolon()
		return stmt

	case lexer.TokFunction:
		p.advance()
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		ref := p.declare(name.Value, ast.SymbolFunction, locOf(name), ast.NoExpr)
		fn := p.parseFn(name.Value, locOf(name), ref, false)
		return &ast.FunctionStmt{Loc: loc, Fn: fn}

	case lexer.TokClass:
		p.advance()
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		ref := p.declare(name.Value, ast.SymbolClass, locOf(name), ast.NoExpr)
		class := p.parseClassBody(name.Value, ref)
		return &ast.ClassStmt{Loc: loc, Class: class}

	case lexer.TokReturn:
		return p.parseReturnStmt()

	case lexer.TokIf:
		return p.parseIfStmt()

	case lexer.TokWhile:
		p.advance()
		test := p.parseParenExpr()
		body := p.parseLoopBody()
		return &ast.WhileStmt{Loc: loc, Test: test, Body: body}

	case lexer.TokDo:
		p.advance()
		body := p.parseLoopBody()
		if _, ok := p.expect(lexer.TokWhile); !ok {
			return nil
		}
		test := p.parseParenExpr()
		p.match(lexer.TokSemicolon)
		return &ast.DoWhileStmt{Loc: loc, Body: body, Test: test}

	case lexer.TokFor:
		return p.parseForStmt()

	case lexer.TokBreak, lexer.TokContinue:
		p.advance()
		if p.loopDepth == 0 {
			p.errorAt(tok.Start, fmt.Sprintf("%s outside of a loop", tok.Kind))
			return nil
		}
		p.consumeSemicolon()
		if tok.Kind == lexer.TokBreak {
			return &ast.BreakStmt{Loc: loc}
		}
		return &ast.ContinueStmt{Loc: loc}

	default:
		value := p.parseExpr(ast.LLowest)
		p.consumeSemicolon()
		return &ast.ExprStmt{Loc: loc, Value: value}
	}
}

func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	tok, _ := p.expect(lexer.TokLBrace)
	p.pushScope(ast.ScopeBlock)

	stmt := &ast.BlockStmt{Loc: locOf(tok)}
	stmt.Stmts = p.parseStmtsUntilRBrace()

	p.popScope()
	p.expect(lexer.TokRBrace)
	return stmt
}

func (p *Parser) parseStmtsUntilRBrace() []ast.Stmt {
	var stmts []ast.Stmt
	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF && !p.failed() {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseLocalStmt() *ast.LocalStmt {
	tok := p.advance()
	stmt := &ast.LocalStmt{Loc: locOf(tok)}

	var kind ast.SymbolKind
	switch tok.Kind {
	case lexer.TokVar:
		stmt.Kind, kind = ast.LocalVar, ast.SymbolVar
	case lexer.TokLet:
		stmt.Kind, kind = ast.LocalLet, ast.SymbolLet
	default:
		stmt.Kind, kind = ast.LocalConst, ast.SymbolConst
	}

	for !p.failed() {
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			break
		}
		decl := ast.Declarator{Name: name.Value, Loc: locOf(name)}
		if p.match(lexer.TokEq) {
			decl.Value = p.parseExpr(ast.LComma)
		} else if kind == ast.SymbolConst {
			p.errorAt(name.Start, fmt.Sprintf("missing initializer in const declaration of %q", name.Value))
			break
		}
		decl.Ref = p.declare(name.Value, kind, decl.Loc, decl.Value)
		stmt.Decls = append(stmt.Decls, decl)

		if !p.match(lexer.TokComma) {
			break
		}
	}
	return stmt
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	tok := p.advance()
	if p.fnDepth == 0 {
		p.errorAt(tok.Start, "return outside of function")
		return nil
	}
	stmt := &ast.ReturnStmt{Loc: locOf(tok)}

	next := p.current()
	if next.Kind != lexer.TokSemicolon && next.Kind != lexer.TokRBrace &&
		next.Kind != lexer.TokEOF && !next.NewlineBefore {
		stmt.Value = p.parseExpr(ast.LLowest)
	}

	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok := p.advance()
	stmt := &ast.IfStmt{Loc: locOf(tok)}

	stmt.Test = p.parseParenExpr()
	stmt.Yes = p.parseStatement()
	if p.match(lexer.TokElse) {
		stmt.No = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	tok := p.advance()
	stmt := &ast.ForStmt{Loc: locOf(tok)}
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	// The init clause gets its own scope so let bindings stay in the loop
	p.pushScope(ast.ScopeBlock)
	defer p.popScope()

	switch p.current().Kind {
	case lexer.TokSemicolon:
	case lexer.TokVar, lexer.TokLet, lexer.TokConst:
		stmt.Init = p.parseLocalStmt()
	default:
		initTok := p.current()
		stmt.Init = &ast.ExprStmt{Loc: locOf(initTok), Value: p.parseExpr(ast.LLowest)}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	if p.current().Kind != lexer.TokSemicolon {
		stmt.Test = p.parseExpr(ast.LLowest)
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	if p.current().Kind != lexer.TokRParen {
		stmt.Update = p.parseExpr(ast.LLowest)
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	stmt.Body = p.parseLoopBody()
	return stmt
}

func (p *Parser) parseLoopBody() ast.Stmt {
	p.loopDepth++
	body := p.parseStatement()
	p.loopDepth--
	return body
}

func (p *Parser) parseParenExpr() ast.ExprID {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return ast.NoExpr
	}
	value := p.parseExpr(ast.LLowest)
	p.expect(lexer.TokRParen)
	return value
}

// ----------------------------------------------------------------------------
// Functions and Classes
// ----------------------------------------------------------------------------

// parseFn parses the parameter list and body of a function whose name has
// already been consumed. Named function expressions bind their own name
// inside the function scope.
func (p *Parser) parseFn(name string, nameLoc ast.Loc, nameRef ast.Ref, isExpr bool) ast.Fn {
	fn := ast.Fn{Name: name, NameRef: nameRef}

	p.pushScope(ast.ScopeFunction)
	defer p.popScope()

	if isExpr && name != "" {
		fn.NameRef = p.declare(name, ast.SymbolFunction, nameLoc, ast.NoExpr)
	}

	if _, ok := p.expect(lexer.TokLParen); !ok {
		return fn
	}
	fn.Args = p.declareArgs(p.parseParamNames())
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return fn
	}
	fn.Body = p.parseFnBody()
	return fn
}

// parseParamNames parses identifiers up to (not including) the closing
// parenthesis.
func (p *Parser) parseParamNames() []lexer.Token {
	var names []lexer.Token
	for p.current().Kind != lexer.TokRParen && !p.failed() {
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			break
		}
		for _, prev := range names {
			if prev.Value == name.Value {
				p.errorAt(name.Start, fmt.Sprintf("duplicate parameter name %q", name.Value))
			}
		}
		names = append(names, name)
		if !p.match(lexer.TokComma) {
			break
		}
	}
	return names
}

func (p *Parser) declareArgs(names []lexer.Token) []ast.Arg {
	args := make([]ast.Arg, 0, len(names))
	for _, name := range names {
		loc := locOf(name)
		args = append(args, ast.Arg{
			Name: name.Value,
			Ref:  p.declare(name.Value, ast.SymbolParameter, loc, ast.NoExpr),
			Loc:  loc,
		})
	}
	return args
}

// parseFnBody parses `{ stmts }` into the function scope that is already
// current.
func (p *Parser) parseFnBody() []ast.Stmt {
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil
	}

	outerLoops := p.loopDepth
	p.loopDepth = 0
	p.fnDepth++
	body := p.parseStmtsUntilRBrace()
	p.fnDepth--
	p.loopDepth = outerLoops

	p.expect(lexer.TokRBrace)
	return body
}

func (p *Parser) parseClassBody(name string, nameRef ast.Ref) ast.Class {
	class := ast.Class{Name: name, NameRef: nameRef}
	if p.match(lexer.TokExtends) {
		class.Extends = p.parseExpr(ast.LPostfix)
	}
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return class
	}

	for p.current().Kind != lexer.TokRBrace && !p.failed() {
		if p.match(lexer.TokSemicolon) {
			continue
		}
		method := ast.Property{Kind: ast.PropertyMethod}
		if !p.parsePropertyKey(&method) {
			break
		}
		fnTok := p.current()
		fn := p.parseFn("", locOf(fnTok), ast.InvalidRef(), true)
		method.Value = p.tree.Add(locOf(fnTok), &ast.FunctionExpr{Fn: fn})
		class.Methods = append(class.Methods, method)
	}

	p.expect(lexer.TokRBrace)
	return class
}
