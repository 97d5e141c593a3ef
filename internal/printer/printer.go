// Package printer outputs JavaScript code from an AST.
//
// The printer can operate in two modes:
// - Pretty: Human-readable output with indentation
// - Minified: Minimal whitespace output
//
// Parentheses are not stored in the tree except where the source had them:
// the printer inserts them wherever operator precedence requires, so
// rewritten subtrees print correctly wherever they were spliced in.
package printer

import (
	"strings"
	"unicode/utf8"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/lexer"
	"github.com/HugoDaniel/valtypes/internal/sourcemap"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool

	// LowerLetConst prints let and const declarations as var, for ES5
	// engines
	LowerLetConst bool

	// Renamer provides printed names (nil for original names)
	Renamer Renamer

	// SourceMap receives a mapping for the start of every printed
	// expression (nil disables)
	SourceMap *sourcemap.Generator
}

// Renamer provides printed names for symbols.
type Renamer interface {
	NameForSymbol(ref ast.Ref) string
}

// Printer outputs JavaScript code.
type Printer struct {
	options Options
	tree    *ast.Tree

	buf    strings.Builder
	indent int

	// Generated position of buf[scanned], for source maps
	scanned int
	genLine int
	genCol  int
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

// Print outputs the tree as a string.
func (p *Printer) Print(tree *ast.Tree) string {
	p.buf.Reset()
	p.tree = tree
	p.indent = 0
	p.scanned, p.genLine, p.genCol = 0, 0, 0
	for _, s := range tree.Stmts {
		p.printStmt(s)
	}
	return p.buf.String()
}

// PrintExpr outputs a single expression of tree.
func (p *Printer) PrintExpr(tree *ast.Tree, id ast.ExprID) string {
	p.buf.Reset()
	p.tree = tree
	p.scanned, p.genLine, p.genCol = 0, 0, 0
	p.printExpr(id, ast.LLowest)
	return p.buf.String()
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) printSpace() {
	if !p.options.MinifyWhitespace {
		p.buf.WriteByte(' ')
	}
}

func (p *Printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.buf.WriteByte('\n')
	}
}

func (p *Printer) printIndent() {
	if !p.options.MinifyWhitespace {
		for i := 0; i < p.indent; i++ {
			p.buf.WriteString("    ")
		}
	}
}

// printOp writes an operator, separating it from a previous '+' or '-' so
// "a - -b" never prints as "a--b".
func (p *Printer) printOp(op string) {
	s := p.buf.String()
	if len(s) > 0 && (op[0] == '+' || op[0] == '-') && s[len(s)-1] == op[0] {
		p.buf.WriteByte(' ')
	}
	p.buf.WriteString(op)
}

// addMapping records that the output written next comes from the source at
// loc. Columns count UTF-16 code units.
func (p *Printer) addMapping(loc ast.Loc, name string) {
	out := p.buf.String()
	for _, r := range out[p.scanned:] {
		switch {
		case r == '\n':
			p.genLine++
			p.genCol = 0
		case r >= 0x10000:
			p.genCol += 2
		default:
			p.genCol++
		}
	}
	p.scanned = len(out)
	p.options.SourceMap.AddMapping(p.genLine, p.genCol, int(loc.Start), name)
}

func (p *Printer) printName(ref ast.Ref, fallback string) {
	if p.options.Renamer != nil && ref.IsValid() {
		if name := p.options.Renamer.NameForSymbol(ref); name != "" {
			p.print(name)
			return
		}
	}
	if sym := p.tree.Symbol(ref); sym != nil {
		p.print(sym.OriginalName)
		return
	}
	p.print(fallback)
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Printer) printStmt(s ast.Stmt) {
	p.printIndent()
	p.printStmtInline(s)
	p.printNewline()
}

// printStmtInline prints a statement without leading indentation or a
// trailing newline.
func (p *Printer) printStmtInline(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.BlockStmt:
		p.printBlock(stmt.Stmts)

	case *ast.LocalStmt:
		p.printLocal(stmt)
		p.print(";")

	case *ast.FunctionStmt:
		p.printFn(&stmt.Fn)

	case *ast.ClassStmt:
		p.printClass(&stmt.Class)

	case *ast.ReturnStmt:
		p.print("return")
		if stmt.Value.IsValid() {
			p.print(" ")
			p.printExpr(stmt.Value, ast.LLowest)
		}
		p.print(";")

	case *ast.IfStmt:
		p.print("if")
		p.printSpace()
		p.print("(")
		p.printExpr(stmt.Test, ast.LLowest)
		p.print(")")
		p.printBody(stmt.Yes)
		if stmt.No != nil {
			if _, ok := stmt.Yes.(*ast.BlockStmt); ok {
				p.printSpace()
			} else {
				p.printNewline()
				p.printIndent()
			}
			p.print("else")
			if _, ok := stmt.No.(*ast.BlockStmt); ok {
				p.printSpace()
				p.printStmtInline(stmt.No)
			} else {
				p.print(" ")
				p.printStmtInline(stmt.No)
			}
		}

	case *ast.WhileStmt:
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(stmt.Test, ast.LLowest)
		p.print(")")
		p.printBody(stmt.Body)

	case *ast.DoWhileStmt:
		p.print("do")
		if _, ok := stmt.Body.(*ast.BlockStmt); ok {
			p.printSpace()
		} else {
			p.print(" ")
		}
		p.printStmtInline(stmt.Body)
		p.printSpace()
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(stmt.Test, ast.LLowest)
		p.print(");")

	case *ast.ForStmt:
		p.printFor(stmt)

	case *ast.BreakStmt:
		p.print("break;")

	case *ast.ContinueStmt:
		p.print("continue;")

	case *ast.ExprStmt:
		// A statement may not start with '{', "function" or "class"
		if p.startsWithBraceOrKeyword(stmt.Value) {
			p.print("(")
			p.printExpr(stmt.Value, ast.LLowest)
			p.print(")")
		} else {
			p.printExpr(stmt.Value, ast.LLowest)
		}
		p.print(";")

	case *ast.EmptyStmt:
		p.print(";")
	}
}

// printBody prints the body of an if or loop after its header.
func (p *Printer) printBody(body ast.Stmt) {
	switch b := body.(type) {
	case *ast.BlockStmt:
		p.printSpace()
		p.printBlock(b.Stmts)
	case *ast.EmptyStmt:
		p.print(";")
	default:
		p.printNewline()
		p.indent++
		p.printIndent()
		p.printStmtInline(body)
		p.indent--
	}
}

func (p *Printer) printBlock(stmts []ast.Stmt) {
	if len(stmts) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printNewline()
	p.indent++
	for _, s := range stmts {
		p.printStmt(s)
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

func (p *Printer) printLocal(stmt *ast.LocalStmt) {
	if p.options.LowerLetConst {
		p.print("var ")
	} else {
		p.print(stmt.Kind.String())
		p.print(" ")
	}
	for i, decl := range stmt.Decls {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printName(decl.Ref, decl.Name)
		if decl.Value.IsValid() {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExpr(decl.Value, ast.LComma)
		}
	}
}

func (p *Printer) printFor(stmt *ast.ForStmt) {
	p.print("for")
	p.printSpace()
	p.print("(")
	switch init := stmt.Init.(type) {
	case *ast.LocalStmt:
		p.printLocal(init)
	case *ast.ExprStmt:
		p.printExpr(init.Value, ast.LLowest)
	}
	p.print(";")
	if stmt.Test.IsValid() {
		p.printSpace()
		p.printExpr(stmt.Test, ast.LLowest)
	}
	p.print(";")
	if stmt.Update.IsValid() {
		p.printSpace()
		p.printExpr(stmt.Update, ast.LLowest)
	}
	p.print(")")
	p.printBody(stmt.Body)
}

func (p *Printer) printFn(fn *ast.Fn) {
	p.print("function")
	if fn.Name != "" {
		p.print(" ")
		p.printName(fn.NameRef, fn.Name)
	}
	p.printArgsAndBody(fn.Args, fn.Body)
}

func (p *Printer) printArgs(args []ast.Arg) {
	p.print("(")
	for i, arg := range args {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printName(arg.Ref, arg.Name)
	}
	p.print(")")
}

func (p *Printer) printArgsAndBody(args []ast.Arg, body []ast.Stmt) {
	p.printArgs(args)
	p.printSpace()
	p.printBlock(body)
}

func (p *Printer) printClass(class *ast.Class) {
	p.print("class")
	if class.Name != "" {
		p.print(" ")
		p.printName(class.NameRef, class.Name)
	}
	if class.Extends.IsValid() {
		p.print(" extends ")
		p.printExpr(class.Extends, ast.LPostfix)
	}
	p.printSpace()
	if len(class.Methods) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printNewline()
	p.indent++
	for _, method := range class.Methods {
		p.printIndent()
		p.printPropertyKey(method)
		if fn, ok := p.tree.Expr(method.Value).(*ast.FunctionExpr); ok {
			p.printArgsAndBody(fn.Fn.Args, fn.Fn.Body)
		}
		p.printNewline()
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// printExpr prints id, wrapping it in parentheses unless its operator binds
// tighter than level.
func (p *Printer) printExpr(id ast.ExprID, level ast.L) {
	if p.options.SourceMap != nil && id.IsValid() {
		name := ""
		if ident, ok := p.tree.Expr(id).(*ast.IdentExpr); ok {
			name = ident.Name
		}
		p.addMapping(p.tree.Loc(id), name)
	}

	switch e := p.tree.Expr(id).(type) {
	case *ast.IdentExpr:
		p.printName(e.Ref, e.Name)

	case *ast.ThisExpr:
		p.print("this")

	case *ast.LiteralExpr:
		p.printLiteral(e)

	case *ast.ArrayExpr:
		p.print("[")
		for i, item := range e.Items {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(item, ast.LComma)
		}
		// A trailing hole needs its own comma
		if n := len(e.Items); n > 0 && !e.Items[n-1].IsValid() {
			p.print(",")
		}
		p.print("]")

	case *ast.ObjectExpr:
		p.printObject(e)

	case *ast.FunctionExpr:
		p.printFn(&e.Fn)

	case *ast.ClassExpr:
		p.printClass(&e.Class)

	case *ast.ArrowExpr:
		wrap := level >= ast.LAssign
		if wrap {
			p.print("(")
		}
		p.printArgs(e.Args)
		p.printSpace()
		p.print("=>")
		p.printSpace()
		if e.ExprBody && len(e.Body) == 1 {
			body := e.Body[0].(*ast.ReturnStmt).Value
			if p.startsWithBraceOrKeyword(body) {
				p.print("(")
				p.printExpr(body, ast.LComma)
				p.print(")")
			} else {
				p.printExpr(body, ast.LComma)
			}
		} else {
			p.printBlock(e.Body)
		}
		if wrap {
			p.print(")")
		}

	case *ast.TaggedTemplateExpr:
		p.printExpr(e.Tag, ast.LPostfix)
		p.printTemplate(e.Value)

	case *ast.BindExpr:
		if e.Object.IsValid() {
			p.printExpr(e.Object, ast.LPostfix)
		}
		p.print("::")
		p.printExpr(e.Callee, ast.LPostfix)

	case *ast.MemberExpr:
		if lit, ok := p.tree.Expr(e.Object).(*ast.LiteralExpr); ok && lit.Kind == ast.LitNumber {
			p.print("(")
			p.printLiteral(lit)
			p.print(")")
		} else {
			p.printExpr(e.Object, ast.LPostfix)
		}
		if e.Computed {
			p.print("[")
			p.printExpr(e.Index, ast.LLowest)
			p.print("]")
		} else {
			p.print(".")
			p.print(e.Name)
		}

	case *ast.CallExpr:
		wrap := level >= ast.LNew
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Target, ast.LPostfix)
		p.printCallArgs(e.Args)
		if wrap {
			p.print(")")
		}

	case *ast.NewExpr:
		p.print("new ")
		if p.hasCallInChain(e.Target) {
			p.print("(")
			p.printExpr(e.Target, ast.LLowest)
			p.print(")")
		} else {
			p.printExpr(e.Target, ast.LNew)
		}
		p.printCallArgs(e.Args)

	case *ast.UnaryExpr:
		wrap := level >= ast.LPrefix
		if wrap {
			p.print("(")
		}
		entry := ast.OpTable[e.Op]
		if entry.IsKeyword {
			p.print(entry.Text)
			p.print(" ")
		} else {
			p.printOp(entry.Text)
		}
		p.printExpr(e.Value, ast.LPrefix-1)
		if wrap {
			p.print(")")
		}

	case *ast.UpdateExpr:
		entry := ast.OpTable[e.Op]
		wrap := level >= entry.Level
		if wrap {
			p.print("(")
		}
		if e.Op == ast.UnPreInc || e.Op == ast.UnPreDec {
			p.printOp(entry.Text)
			p.printExpr(e.Value, ast.LPrefix-1)
		} else {
			p.printExpr(e.Value, ast.LPostfix-1)
			p.printOp(entry.Text)
		}
		if wrap {
			p.print(")")
		}

	case *ast.BinaryExpr:
		p.printBinary(e.Op, e.Left, e.Right, level)

	case *ast.LogicalExpr:
		p.printBinary(e.Op, e.Left, e.Right, level)

	case *ast.ConditionalExpr:
		wrap := level >= ast.LConditional
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Test, ast.LConditional)
		p.printSpace()
		p.print("?")
		p.printSpace()
		p.printExpr(e.Yes, ast.LComma)
		p.printSpace()
		p.print(":")
		p.printSpace()
		p.printExpr(e.No, ast.LComma)
		if wrap {
			p.print(")")
		}

	case *ast.AssignExpr:
		wrap := level >= ast.LAssign
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Target, ast.LAssign)
		p.printSpace()
		p.print(e.Op.String())
		p.printSpace()
		p.printExpr(e.Value, ast.LAssign-1)
		if wrap {
			p.print(")")
		}

	case *ast.SequenceExpr:
		wrap := level >= ast.LComma
		if wrap {
			p.print("(")
		}
		for i, item := range e.Exprs {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(item, ast.LComma)
		}
		if wrap {
			p.print(")")
		}

	case *ast.ParenExpr:
		p.print("(")
		p.printExpr(e.Value, ast.LLowest)
		p.print(")")
	}
}

func (p *Printer) printBinary(op ast.OpCode, left, right ast.ExprID, level ast.L) {
	entry := ast.OpTable[op]
	wrap := level >= entry.Level
	if wrap {
		p.print("(")
	}

	leftLevel, rightLevel := entry.Level-1, entry.Level
	if op == ast.BinPow {
		// "**" is right-associative and rejects a unary left operand
		leftLevel, rightLevel = entry.Level, entry.Level-1
		if _, ok := p.tree.Expr(left).(*ast.UnaryExpr); ok {
			leftLevel = ast.LPrefix
		}
	}
	if p.mixesNullish(op, left) {
		leftLevel = ast.LPrefix
	}
	if p.mixesNullish(op, right) {
		rightLevel = ast.LPrefix
	}

	p.printExpr(left, leftLevel)
	if entry.IsKeyword {
		p.print(" ")
		p.print(entry.Text)
		p.print(" ")
	} else {
		p.printSpace()
		p.printOp(entry.Text)
		p.printSpace()
	}
	p.printExpr(right, rightLevel)

	if wrap {
		p.print(")")
	}
}

// mixesNullish reports whether child must be parenthesized because "??"
// cannot be mixed with "&&" or "||" without parentheses.
func (p *Printer) mixesNullish(op ast.OpCode, child ast.ExprID) bool {
	inner, ok := p.tree.Expr(child).(*ast.LogicalExpr)
	if !ok {
		return false
	}
	if op == ast.BinNullishCoalescing {
		return inner.Op != ast.BinNullishCoalescing
	}
	if op == ast.BinLogicalOr || op == ast.BinLogicalAnd {
		return inner.Op == ast.BinNullishCoalescing
	}
	return false
}

func (p *Printer) printCallArgs(args []ast.ExprID) {
	p.print("(")
	for i, arg := range args {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printExpr(arg, ast.LComma)
	}
	p.print(")")
}

func (p *Printer) printObject(e *ast.ObjectExpr) {
	if len(e.Properties) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printSpace()
	for i, prop := range e.Properties {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printProperty(prop)
	}
	p.printSpace()
	p.print("}")
}

func (p *Printer) printProperty(prop ast.Property) {
	switch prop.Kind {
	case ast.PropertyMethod:
		p.printPropertyKey(prop)
		if fn, ok := p.tree.Expr(prop.Value).(*ast.FunctionExpr); ok {
			p.printArgsAndBody(fn.Fn.Args, fn.Fn.Body)
		}

	case ast.PropertyShorthand:
		// The value may have been renamed away from the key
		if id, ok := p.tree.Expr(prop.Value).(*ast.IdentExpr); ok && p.nameOf(id) == prop.Key {
			p.print(prop.Key)
			return
		}
		fallthrough

	default:
		p.printPropertyKey(prop)
		p.print(":")
		p.printSpace()
		p.printExpr(prop.Value, ast.LComma)
	}
}

func (p *Printer) nameOf(id *ast.IdentExpr) string {
	if p.options.Renamer != nil && id.Ref.IsValid() {
		return p.options.Renamer.NameForSymbol(id.Ref)
	}
	if sym := p.tree.Symbol(id.Ref); sym != nil {
		return sym.OriginalName
	}
	return id.Name
}

func (p *Printer) printPropertyKey(prop ast.Property) {
	switch {
	case prop.Computed:
		p.print("[")
		p.printExpr(prop.KeyExpr, ast.LComma)
		p.print("]")
	case isIdentifierName(prop.Key), isCanonicalIndex(prop.Key):
		p.print(prop.Key)
	default:
		p.print(QuoteString(prop.Key))
	}
}

func (p *Printer) printLiteral(lit *ast.LiteralExpr) {
	switch lit.Kind {
	case ast.LitNumber:
		if lit.Value != "" {
			p.print(lit.Value)
		} else {
			p.print(value.NumberToString(lit.Number))
		}
	case ast.LitString:
		p.print(QuoteString(lit.Value))
	case ast.LitTemplate:
		p.printTemplate(lit.Value)
	case ast.LitBoolean:
		if lit.Bool {
			p.print("true")
		} else {
			p.print("false")
		}
	case ast.LitNull:
		p.print("null")
	}
}

func (p *Printer) printTemplate(text string) {
	var sb strings.Builder
	sb.WriteByte('`')
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '`', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '$':
			if i+1 < len(text) && text[i+1] == '{' {
				sb.WriteByte('\\')
			}
			sb.WriteByte(c)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('`')
	p.print(sb.String())
}

// startsWithBraceOrKeyword reports whether printing id would begin with an
// object literal, a function or a class.
func (p *Printer) startsWithBraceOrKeyword(id ast.ExprID) bool {
	for {
		switch e := p.tree.Expr(id).(type) {
		case *ast.ObjectExpr, *ast.FunctionExpr, *ast.ClassExpr:
			return true
		case *ast.MemberExpr:
			id = e.Object
		case *ast.CallExpr:
			id = e.Target
		case *ast.TaggedTemplateExpr:
			id = e.Tag
		case *ast.BindExpr:
			if !e.Object.IsValid() {
				return false
			}
			id = e.Object
		case *ast.BinaryExpr:
			id = e.Left
		case *ast.LogicalExpr:
			id = e.Left
		case *ast.ConditionalExpr:
			id = e.Test
		case *ast.AssignExpr:
			id = e.Target
		case *ast.SequenceExpr:
			id = e.Exprs[0]
		case *ast.UpdateExpr:
			if e.Op != ast.UnPostInc && e.Op != ast.UnPostDec {
				return false
			}
			id = e.Value
		default:
			return false
		}
	}
}

// hasCallInChain reports whether a call appears along the member chain of
// id, which would otherwise be taken as the arguments of a new expression.
func (p *Printer) hasCallInChain(id ast.ExprID) bool {
	for {
		switch e := p.tree.Expr(id).(type) {
		case *ast.CallExpr:
			return true
		case *ast.MemberExpr:
			id = e.Object
		case *ast.TaggedTemplateExpr:
			id = e.Tag
		default:
			return false
		}
	}
}

// ----------------------------------------------------------------------------
// Strings
// ----------------------------------------------------------------------------

// QuoteString returns s as a double-quoted JavaScript string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f {
				const hex = "0123456789abcdef"
				sb.WriteString(`\x`)
				sb.WriteByte(hex[r>>4])
				sb.WriteByte(hex[r&0xf])
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// isIdentifierName reports whether s can follow a '.' or stand unquoted as
// an object key. Keywords qualify here.
func isIdentifierName(s string) bool {
	if _, ok := lexer.Keywords[s]; ok {
		return true
	}
	return lexer.IsIdentifier(s)
}

// isCanonicalIndex reports whether s is the canonical spelling of a
// non-negative integer, which may stand unquoted as a key.
func isCanonicalIndex(s string) bool {
	if s == "0" {
		return true
	}
	if s == "" || s[0] < '1' || s[0] > '9' || len(s) > 15 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
