package printer

import (
	"testing"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/sourcemap"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func expectPrintedWith(t *testing.T, name string, options Options, input string, expected string) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		tree, errs := parser.New(input).Parse()
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		actual := New(options).Print(tree)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

// expectPrinted verifies pretty-printed output.
func expectPrinted(t *testing.T, input string, expected string) {
	t.Helper()
	expectPrintedWith(t, input, Options{}, input, expected)
}

// expectPrintedMinify verifies minified output (whitespace removed).
func expectPrintedMinify(t *testing.T, input string, expected string) {
	t.Helper()
	expectPrintedWith(t, input+"_minify", Options{MinifyWhitespace: true}, input, expected)
}

// expectPrintedLowered verifies output with let and const lowered to var.
func expectPrintedLowered(t *testing.T, input string, expected string) {
	t.Helper()
	expectPrintedWith(t, input+"_lowered", Options{LowerLetConst: true}, input, expected)
}

// builder assembles trees by hand for shapes the parser never produces,
// such as operators nested without parentheses.
type builder struct {
	tree *ast.Tree
}

func newBuilder() *builder {
	return &builder{tree: ast.NewTree("")}
}

func (b *builder) ident(name string) ast.ExprID {
	return b.tree.Add(ast.Loc{}, &ast.IdentExpr{Name: name, Ref: ast.InvalidRef()})
}

func (b *builder) num(text string, n float64) ast.ExprID {
	return b.tree.Add(ast.Loc{}, &ast.LiteralExpr{Kind: ast.LitNumber, Value: text, Number: n})
}

func (b *builder) binary(op ast.OpCode, left, right ast.ExprID) ast.ExprID {
	return b.tree.Add(ast.Loc{}, &ast.BinaryExpr{Op: op, Left: left, Right: right})
}

func (b *builder) logical(op ast.OpCode, left, right ast.ExprID) ast.ExprID {
	return b.tree.Add(ast.Loc{}, &ast.LogicalExpr{Op: op, Left: left, Right: right})
}

func (b *builder) unary(op ast.OpCode, value ast.ExprID) ast.ExprID {
	return b.tree.Add(ast.Loc{}, &ast.UnaryExpr{Op: op, Value: value})
}

func (b *builder) expectExpr(t *testing.T, id ast.ExprID, expected string) {
	t.Helper()
	actual := New(Options{}).PrintExpr(b.tree, id)
	if actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func TestDeclarations(t *testing.T) {
	expectPrinted(t, "let x = 1", "let x = 1;\n")
	expectPrinted(t, "const a = 1, b = 2;", "const a = 1, b = 2;\n")
	expectPrinted(t, "var v;", "var v;\n")
	expectPrinted(t, "let a, b = 2;", "let a, b = 2;\n")

	expectPrintedMinify(t, "let x = 1", "let x=1;")
	expectPrintedMinify(t, "const a = 1, b = 2;", "const a=1,b=2;")

	expectPrintedLowered(t, "let a = 1; const b = 2;", "var a = 1;\nvar b = 2;\n")
	expectPrintedLowered(t, "for (let i = 0; i < 3; i++) {}", "for (var i = 0; i < 3; i++) {}\n")
}

func TestFunctions(t *testing.T) {
	expectPrinted(t, "function f(a, b) { return a + b; }",
		"function f(a, b) {\n    return a + b;\n}\n")
	expectPrinted(t, "function g() {}", "function g() {}\n")
	expectPrinted(t, "function h() { return; }", "function h() {\n    return;\n}\n")

	expectPrintedMinify(t, "function f(a, b) { return a + b; }", "function f(a,b){return a+b;}")
}

func TestNestedIndentation(t *testing.T) {
	expectPrinted(t, "function f() { if (a) { return 1; } }",
		"function f() {\n    if (a) {\n        return 1;\n    }\n}\n")
}

func TestClasses(t *testing.T) {
	expectPrinted(t, "class A extends B { m() { return 1; } }",
		"class A extends B {\n    m() {\n        return 1;\n    }\n}\n")
	expectPrinted(t, "class E {}", "class E {}\n")
	expectPrinted(t, "let C = class {};", "let C = class {};\n")

	expectPrintedMinify(t, "class A { m(x) { return x; } }", "class A{m(x){return x;}}")
}

func TestIfElse(t *testing.T) {
	expectPrinted(t, "if (a) { b(); } else { c(); }",
		"if (a) {\n    b();\n} else {\n    c();\n}\n")
	expectPrinted(t, "if (a) {} else if (b) {}", "if (a) {} else if (b) {}\n")
	expectPrinted(t, "if (a) b(); else c();", "if (a)\n    b();\nelse c();\n")

	expectPrintedMinify(t, "if (a) { b(); } else { c(); }", "if(a){b();}else{c();}")
	expectPrintedMinify(t, "if (a) b(); else c();", "if(a)b();else c();")
}

func TestLoops(t *testing.T) {
	expectPrinted(t, "for (let i = 0; i < 3; i++) {}", "for (let i = 0; i < 3; i++) {}\n")
	expectPrinted(t, "for (;;) { break; }", "for (;;) {\n    break;\n}\n")
	expectPrinted(t, "for (i = 0; i < n; i++) continue;", "for (i = 0; i < n; i++)\n    continue;\n")
	expectPrinted(t, "while (x) {}", "while (x) {}\n")
	expectPrinted(t, "while (x);", "while (x);\n")
	expectPrinted(t, "do { x++; } while (x < 3)", "do {\n    x++;\n} while (x < 3);\n")

	expectPrintedMinify(t, "for (let i = 0; i < 3; i++) {}", "for(let i=0;i<3;i++){}")
	expectPrintedMinify(t, "do { x++; } while (x < 3)", "do{x++;}while(x<3);")
}

func TestExpressionStatementStart(t *testing.T) {
	expectPrinted(t, "({}).x", "({}).x;\n")
	expectPrinted(t, "(function() {})()", "(function() {})();\n")

	b := newBuilder()
	obj := b.tree.Add(ast.Loc{}, &ast.ObjectExpr{})
	member := b.tree.Add(ast.Loc{}, &ast.MemberExpr{Object: obj, Name: "x"})
	b.tree.Stmts = []ast.Stmt{&ast.ExprStmt{Value: member}}
	if actual := New(Options{}).Print(b.tree); actual != "({}.x);\n" {
		t.Errorf("expected %q, got %q", "({}.x);\n", actual)
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func TestLiterals(t *testing.T) {
	expectPrinted(t, "x = 0xff", "x = 0xff;\n")
	expectPrinted(t, "x = 1.5e3", "x = 1.5e3;\n")
	expectPrinted(t, `x = 'it\'s'`, "x = \"it's\";\n")
	expectPrinted(t, `x = "a\"b\n"`, "x = \"a\\\"b\\n\";\n")
	expectPrinted(t, "x = `tmpl`", "x = `tmpl`;\n")
	expectPrinted(t, "x = [true, false, null]", "x = [true, false, null];\n")
	expectPrinted(t, "x = [1, , 2]", "x = [1, , 2];\n")
	expectPrinted(t, "x = []", "x = [];\n")

	expectPrintedMinify(t, "x = [1, 2]", "x=[1,2];")
}

func TestObjects(t *testing.T) {
	expectPrinted(t, "x = {a: 1, b}", "x = { a: 1, b };\n")
	expectPrinted(t, "x = {}", "x = {};\n")
	expectPrinted(t, `x = {"a-b": 1, 2: 3, if: 4, "c": 5}`, "x = { \"a-b\": 1, 2: 3, if: 4, c: 5 };\n")
	expectPrinted(t, "x = {[k]: 1}", "x = { [k]: 1 };\n")
	expectPrinted(t, "x = {m() { return 1; }}", "x = { m() {\n    return 1;\n} };\n")

	expectPrintedMinify(t, "x = {a: 1, b}", "x={a:1,b};")
}

func TestFreeze(t *testing.T) {
	expectPrinted(t, "let x = #{a: 1}", "let x = #{ a: 1 };\n")
	expectPrinted(t, "let y = #[1, 2]", "let y = #[1, 2];\n")
	expectPrintedMinify(t, "let x = #{a: 1}", "let x=#{a:1};")
}

func TestArrows(t *testing.T) {
	expectPrinted(t, "let f = x => x + 1", "let f = (x) => x + 1;\n")
	expectPrinted(t, "let g = () => ({})", "let g = () => ({});\n")
	expectPrinted(t, "let h = (a, b) => { return a; }", "let h = (a, b) => {\n    return a;\n};\n")

	expectPrintedMinify(t, "let f = (a, b) => a * b", "let f=(a,b)=>a*b;")
}

func TestCallsAndMembers(t *testing.T) {
	expectPrinted(t, "a.b.c(1, 2)", "a.b.c(1, 2);\n")
	expectPrinted(t, "a[b + 1]", "a[b + 1];\n")
	expectPrinted(t, "a.if", "a.if;\n")
	expectPrinted(t, "new Foo", "new Foo();\n")
	expectPrinted(t, "new Foo(1, 2)", "new Foo(1, 2);\n")
	expectPrinted(t, "new a.B()", "new a.B();\n")
	expectPrinted(t, "f()()", "f()();\n")
	expectPrinted(t, "tag`x`", "tag`x`;\n")
	expectPrinted(t, "a::b", "a::b;\n")
	expectPrinted(t, "::a.b", "::a.b;\n")

	b := newBuilder()
	call := b.tree.Add(ast.Loc{}, &ast.CallExpr{Target: b.ident("f")})
	member := b.tree.Add(ast.Loc{}, &ast.MemberExpr{Object: call, Name: "C"})
	b.expectExpr(t, b.tree.Add(ast.Loc{}, &ast.NewExpr{Target: member}), "new (f().C)()")

	numMember := b.tree.Add(ast.Loc{}, &ast.MemberExpr{Object: b.num("1", 1), Name: "toFixed"})
	b.expectExpr(t, numMember, "(1).toFixed")
}

func TestOperators(t *testing.T) {
	expectPrinted(t, "a + b * c", "a + b * c;\n")
	expectPrinted(t, "(a + b) * c", "(a + b) * c;\n")
	expectPrinted(t, "a - -b", "a - -b;\n")
	expectPrinted(t, "typeof x === \"string\"", "typeof x === \"string\";\n")
	expectPrinted(t, "delete a.b", "delete a.b;\n")
	expectPrinted(t, "void 0", "void 0;\n")
	expectPrinted(t, "\"a\" in b", "\"a\" in b;\n")
	expectPrinted(t, "a instanceof B", "a instanceof B;\n")
	expectPrinted(t, "a ? b : c", "a ? b : c;\n")
	expectPrinted(t, "a, b", "a, b;\n")
	expectPrinted(t, "a += 1", "a += 1;\n")
	expectPrinted(t, "a ??= b", "a ??= b;\n")
	expectPrinted(t, "a = b = c", "a = b = c;\n")
	expectPrinted(t, "a ** b ** c", "a ** b ** c;\n")

	expectPrintedMinify(t, "a - -b", "a- -b;")
	expectPrintedMinify(t, "a + +b", "a+ +b;")
	expectPrintedMinify(t, "a++ + b", "a++ +b;")
	expectPrintedMinify(t, "a + ++b", "a+ ++b;")
	expectPrintedMinify(t, "typeof x", "typeof x;")
	expectPrintedMinify(t, "a in b", "a in b;")
}

func TestPrecedenceParens(t *testing.T) {
	b := newBuilder()

	sum := b.binary(ast.BinAdd, b.ident("a"), b.ident("b"))
	b.expectExpr(t, b.binary(ast.BinMul, sum, b.ident("c")), "(a + b) * c")

	// Left-associative operators need parens on the right only
	b.expectExpr(t, b.binary(ast.BinSub, b.ident("a"), b.binary(ast.BinSub, b.ident("b"), b.ident("c"))), "a - (b - c)")
	b.expectExpr(t, b.binary(ast.BinSub, b.binary(ast.BinSub, b.ident("a"), b.ident("b")), b.ident("c")), "a - b - c")

	// "**" is the other way around
	b.expectExpr(t, b.binary(ast.BinPow, b.binary(ast.BinPow, b.ident("a"), b.ident("b")), b.ident("c")), "(a ** b) ** c")
	b.expectExpr(t, b.binary(ast.BinPow, b.unary(ast.UnNeg, b.ident("a")), b.ident("b")), "(-a) ** b")

	b.expectExpr(t, b.logical(ast.BinLogicalOr, b.logical(ast.BinNullishCoalescing, b.ident("a"), b.ident("b")), b.ident("c")), "(a ?? b) || c")
	b.expectExpr(t, b.logical(ast.BinNullishCoalescing, b.ident("a"), b.logical(ast.BinLogicalAnd, b.ident("b"), b.ident("c"))), "a ?? (b && c)")

	seq := b.tree.Add(ast.Loc{}, &ast.SequenceExpr{Exprs: []ast.ExprID{b.ident("a"), b.ident("b")}})
	call := b.tree.Add(ast.Loc{}, &ast.CallExpr{Target: b.ident("f"), Args: []ast.ExprID{seq}})
	b.expectExpr(t, call, "f((a, b))")

	assign := b.tree.Add(ast.Loc{}, &ast.AssignExpr{Op: ast.BinAssign, Target: b.ident("x"), Value: b.ident("y")})
	b.expectExpr(t, b.unary(ast.UnNot, assign), "!(x = y)")
	b.expectExpr(t, b.unary(ast.UnNeg, b.unary(ast.UnNeg, b.ident("a"))), "- -a")

	cond := b.tree.Add(ast.Loc{}, &ast.ConditionalExpr{Test: b.ident("a"), Yes: b.ident("b"), No: b.ident("c")})
	b.expectExpr(t, b.binary(ast.BinAdd, cond, b.ident("d")), "(a ? b : c) + d")

	update := b.tree.Add(ast.Loc{}, &ast.UpdateExpr{Op: ast.UnPostInc, Value: b.ident("i")})
	b.expectExpr(t, b.tree.Add(ast.Loc{}, &ast.MemberExpr{Object: update, Name: "x"}), "(i++).x")
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{`a"b`, `"a\"b"`},
		{`a\b`, `"a\\b"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
		{"\x01", `"\x01"`},
		{"\u2028", `"\u2028"`},
		{"é", `"é"`},
	}
	for _, tt := range tests {
		if got := QuoteString(tt.input); got != tt.expected {
			t.Errorf("QuoteString(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

// ----------------------------------------------------------------------------
// Renaming
// ----------------------------------------------------------------------------

type mapRenamer map[string]string

func (m mapRenamer) tree(tree *ast.Tree) Renamer {
	return renamerFunc(func(ref ast.Ref) string {
		if sym := tree.Symbol(ref); sym != nil {
			if name, ok := m[sym.OriginalName]; ok {
				return name
			}
			return sym.OriginalName
		}
		return ""
	})
}

type renamerFunc func(ref ast.Ref) string

func (f renamerFunc) NameForSymbol(ref ast.Ref) string { return f(ref) }

func TestRenamer(t *testing.T) {
	input := "function add(first, second) { let x = {first}; return first + second; }"
	tree, errs := parser.New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	renames := mapRenamer{"add": "a", "first": "b", "second": "c"}
	actual := New(Options{MinifyWhitespace: true, Renamer: renames.tree(tree)}).Print(tree)
	expected := "function a(b,c){let x={first:b};return b+c;}"
	if actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestSourceMap(t *testing.T) {
	input := "let a = b;\nc = a + 1;"
	tree, errs := parser.New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	gen := sourcemap.NewGenerator(input, "input.js")
	actual := New(Options{SourceMap: gen}).Print(tree)
	if actual != "let a = b;\nc = a + 1;\n" {
		t.Fatalf("unexpected output %q", actual)
	}

	expected := []sourcemap.Mapping{
		{GenLine: 0, GenCol: 8, SrcLine: 0, SrcCol: 8, Name: 0},
		{GenLine: 1, GenCol: 0, SrcLine: 1, SrcCol: 0, Name: 1},
		{GenLine: 1, GenCol: 4, SrcLine: 1, SrcCol: 4, Name: 2},
		{GenLine: 1, GenCol: 8, SrcLine: 1, SrcCol: 8, Name: -1},
	}
	mappings := gen.Mappings()
	if len(mappings) != len(expected) {
		t.Fatalf("expected %d mappings, got %v", len(expected), mappings)
	}
	for i, m := range mappings {
		if m != expected[i] {
			t.Errorf("mapping %d: expected %+v, got %+v", i, expected[i], m)
		}
	}
	if names := gen.Generate().Names; len(names) != 3 || names[0] != "b" || names[1] != "c" || names[2] != "a" {
		t.Errorf("unexpected names %v", names)
	}
}
