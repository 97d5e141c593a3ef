package parser

import (
	"strings"
	"testing"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/printer"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

// expectPrinted parses input and verifies the printed output matches expected.
// This is the core testing pattern from esbuild.
func expectPrinted(t *testing.T, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		tree, errs := New(input).Parse()
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		actual := printer.New(printer.Options{}).Print(tree)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

// expectPrintedMinify parses input and verifies minified output matches expected.
func expectPrintedMinify(t *testing.T, input string, expected string) {
	t.Helper()
	t.Run(input+"_minify", func(t *testing.T) {
		t.Helper()
		tree, errs := New(input).Parse()
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		actual := printer.New(printer.Options{MinifyWhitespace: true}).Print(tree)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

// expectParseError verifies that parsing produces an error containing the substring.
func expectParseError(t *testing.T, input string, errorSubstring string) {
	t.Helper()
	t.Run(input+"_error", func(t *testing.T) {
		t.Helper()
		_, errs := New(input).Parse()
		if len(errs) == 0 {
			t.Errorf("expected parse error containing %q, got none", errorSubstring)
			return
		}
		found := false
		for _, err := range errs {
			if strings.Contains(err.Message, errorSubstring) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected error containing %q, got: %v", errorSubstring, errs)
		}
	})
}

// expectNoParse verifies that parsing produces at least one error.
func expectNoParse(t *testing.T, input string) {
	t.Helper()
	t.Run(input+"_noParse", func(t *testing.T) {
		t.Helper()
		_, errs := New(input).Parse()
		if len(errs) == 0 {
			t.Errorf("expected parse error for %q, got none", input)
		}
	})
}

// mustParse parses input and fails the test on any error.
func mustParse(t *testing.T, input string) *ast.Tree {
	t.Helper()
	tree, errs := New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return tree
}

// findSymbol returns the first declared symbol with the given name.
func findSymbol(t *testing.T, tree *ast.Tree, name string) *ast.Symbol {
	t.Helper()
	for i := range tree.Symbols {
		if tree.Symbols[i].OriginalName == name {
			return &tree.Symbols[i]
		}
	}
	t.Fatalf("symbol %q not found", name)
	return nil
}

// ----------------------------------------------------------------------------
// Declaration Tests
// ----------------------------------------------------------------------------

func TestLocalDeclarations(t *testing.T) {
	expectPrinted(t, "const x = 1;", "const x = 1;\n")
	expectPrinted(t, "let x = 1 + 2 * 3;", "let x = 1 + 2 * 3;\n")
	expectPrinted(t, "let x = (1 + 2) * 3;", "let x = (1 + 2) * 3;\n")
	expectPrinted(t, "var a, b = 2, c;", "var a, b = 2, c;\n")
	expectPrinted(t, "let x = a, y = b", "let x = a, y = b;\n")
}

func TestAutomaticSemicolons(t *testing.T) {
	expectPrinted(t, "let a = 1\nlet b = 2", "let a = 1;\nlet b = 2;\n")
	expectPrinted(t, "a\n++b", "a;\n++b;\n")
	expectPrinted(t, "function f() { return\n1 }", "function f() {\n    return;\n    1;\n}\n")
	expectNoParse(t, "let a = 1 let b = 2")
}

func TestFunctionDeclaration(t *testing.T) {
	expectPrinted(t, "function foo() {}", "function foo() {}\n")
	expectPrinted(t, "function add(a, b) { return a + b; }",
		"function add(a, b) {\n    return a + b;\n}\n")
	expectPrinted(t, "let f = function named(n) { return named; };",
		"let f = function named(n) {\n    return named;\n};\n")
}

func TestClassDeclaration(t *testing.T) {
	expectPrinted(t, "class Point { constructor(x) { this.x = x; } norm() { return this.x; } }",
		"class Point {\n    constructor(x) {\n        this.x = x;\n    }\n    norm() {\n        return this.x;\n    }\n}\n")
	expectPrinted(t, "class A extends B.C {}", "class A extends B.C {}\n")
}

// ----------------------------------------------------------------------------
// Expression Tests
// ----------------------------------------------------------------------------

func TestFreezeOperator(t *testing.T) {
	expectPrinted(t, "let p = #{x: 1, y: 2};", "let p = #{ x: 1, y: 2 };\n")
	expectPrinted(t, "let a = #[1, 2, 3];", "let a = #[1, 2, 3];\n")
	expectPrinted(t, "let n = #{x: #{y: 1}};", "let n = #{ x: #{ y: 1 } };\n")
	expectPrinted(t, "let f = #obj;", "let f = #obj;\n")
	expectPrintedMinify(t, "let p = #{x: 1};", "let p=#{x:1};")

	tree := mustParse(t, "#{a: 1}")
	stmt := tree.Stmts[0].(*ast.ExprStmt)
	unary, ok := tree.Expr(stmt.Value).(*ast.UnaryExpr)
	if !ok || unary.Op != ast.UnFreeze {
		t.Fatalf("expected freeze expression, got %T", tree.Expr(stmt.Value))
	}
	if _, ok := tree.Expr(unary.Value).(*ast.ObjectExpr); !ok {
		t.Errorf("expected object operand, got %T", tree.Expr(unary.Value))
	}
}

func TestBinaryPrecedence(t *testing.T) {
	expectPrinted(t, "a + b * c", "a + b * c;\n")
	expectPrinted(t, "a * b + c", "a * b + c;\n")
	expectPrinted(t, "a == b && c != d", "a == b && c != d;\n")
	expectPrinted(t, "a ?? b", "a ?? b;\n")
	expectPrinted(t, "a ** b ** c", "a ** b ** c;\n")
	expectPrinted(t, "a < b === c > d", "a < b === c > d;\n")
	expectPrinted(t, "a | b ^ c & d", "a | b ^ c & d;\n")
	expectPrinted(t, "x = a ? b : c ? d : e", "x = a ? b : c ? d : e;\n")

	tree := mustParse(t, "a == b && c")
	logical, ok := tree.Expr(tree.Stmts[0].(*ast.ExprStmt).Value).(*ast.LogicalExpr)
	if !ok || logical.Op != ast.BinLogicalAnd {
		t.Fatalf("expected && at the root")
	}
	if eq, ok := tree.Expr(logical.Left).(*ast.BinaryExpr); !ok || eq.Op != ast.BinLooseEq {
		t.Errorf("expected == on the left of &&")
	}
}

func TestAssignments(t *testing.T) {
	expectPrinted(t, "a = b = c", "a = b = c;\n")
	expectPrinted(t, "a.b.c = 1", "a.b.c = 1;\n")
	expectPrinted(t, "a[k] += 2", "a[k] += 2;\n")
	expectPrinted(t, "a.b ||= c", "a.b ||= c;\n")
	expectPrinted(t, "a.b++", "a.b++;\n")
	expectPrinted(t, "--a.b", "--a.b;\n")

	expectParseError(t, "1 = 2", "invalid assignment target")
	expectParseError(t, "a + b = c", "invalid assignment target")
	expectParseError(t, "f()++", "invalid update target")
	expectParseError(t, "++1", "invalid update target")
}

func TestMembersAndCalls(t *testing.T) {
	expectPrinted(t, "a.b[c](d, e).f", "a.b[c](d, e).f;\n")
	expectPrinted(t, "a.class.new", "a.class.new;\n")
	expectPrinted(t, "new Foo(1).bar", "new Foo(1).bar;\n")
	expectPrinted(t, "new Foo", "new Foo();\n")
	expectPrinted(t, "tag`hello`", "tag`hello`;\n")
}

func TestBindOperator(t *testing.T) {
	expectPrinted(t, "obj::fn", "obj::fn;\n")
	expectPrinted(t, "::obj.method", "::obj.method;\n")
	expectPrinted(t, "a::b.c(1)", "a::b.c(1);\n")
	expectParseError(t, "::fn", "binding should be performed on a member expression")
}

func TestArrowFunctions(t *testing.T) {
	expectPrinted(t, "let f = x => x * 2;", "let f = (x) => x * 2;\n")
	expectPrinted(t, "let f = (a, b) => a + b;", "let f = (a, b) => a + b;\n")
	expectPrinted(t, "let f = () => { return 1; };", "let f = () => {\n    return 1;\n};\n")
	expectPrinted(t, "let f = () => ({a: 1});", "let f = () => ({ a: 1 });\n")
	expectPrinted(t, "let f = (a) => (b) => a + b;", "let f = (a) => (b) => a + b;\n")
	expectParseError(t, "let f = (a, a) => a;", "duplicate parameter name")
}

func TestLiterals(t *testing.T) {
	expectPrinted(t, "x = 0x1F", "x = 0x1F;\n")
	expectPrinted(t, "x = 0b101", "x = 0b101;\n")
	expectPrinted(t, "x = .5", "x = .5;\n")
	expectPrinted(t, "x = 'single'", "x = \"single\";\n")
	expectPrinted(t, "x = {'quoted key': 1, 1e3: 2}", "x = { \"quoted key\": 1, 1000: 2 };\n")
	expectPrinted(t, "x = [, 1]", "x = [, 1];\n")

	tree := mustParse(t, "0x10")
	lit := tree.Expr(tree.Stmts[0].(*ast.ExprStmt).Value).(*ast.LiteralExpr)
	if lit.Number != 16 {
		t.Errorf("expected 16, got %v", lit.Number)
	}
}

// ----------------------------------------------------------------------------
// Statement Tests
// ----------------------------------------------------------------------------

func TestControlFlow(t *testing.T) {
	expectPrinted(t, "if (a) b(); else if (c) d(); else e();",
		"if (a)\n    b();\nelse if (c)\n    d();\nelse e();\n")
	expectPrinted(t, "while (i < 10) { i++; }", "while (i < 10) {\n    i++;\n}\n")
	expectPrinted(t, "do x++; while (x < 3);", "do x++; while (x < 3);\n")
	expectPrinted(t, "for (let i = 0, n = a.length; i < n; i++) { if (a[i]) break; }",
		"for (let i = 0, n = a.length; i < n; i++) {\n    if (a[i])\n        break;\n}\n")
	expectPrinted(t, "for (;;) {}", "for (;;) {}\n")
}

func TestStatementErrors(t *testing.T) {
	expectParseError(t, "return 1;", "return outside of function")
	expectParseError(t, "break;", "break outside of a loop")
	expectParseError(t, "while (a) { function f() { continue; } }", "continue outside of a loop")
	expectParseError(t, "const x;", "missing initializer in const declaration")
	expectParseError(t, "let x = ;", "unexpected")
	expectParseError(t, "let x = 1; let x = 2;", `identifier "x" has already been declared`)
	expectParseError(t, "var x; let x;", `identifier "x" has already been declared`)
	expectParseError(t, "const c = 1; c = 2;", `assignment to constant variable "c"`)
	expectParseError(t, "const c = 1; c++;", `assignment to constant variable "c"`)
	expectParseError(t, "let enum = 1;", "reserved word")
	expectNoParse(t, "let x = {")
	expectNoParse(t, "f(")
}

func TestErrorPosition(t *testing.T) {
	_, errs := New("let a = 1;\nreturn a;").Parse()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Line != 2 || errs[0].Column != 1 || errs[0].Pos != 11 {
		t.Errorf("expected error at 2:1 (offset 11), got %d:%d (offset %d)", errs[0].Line, errs[0].Column, errs[0].Pos)
	}
}

// ----------------------------------------------------------------------------
// Symbol and Scope Tests
// ----------------------------------------------------------------------------

func TestSymbolKinds(t *testing.T) {
	tree := mustParse(t, "var v = 1; let l = 2; const c = 3; function f(p) {} class K {} g;")

	tests := []struct {
		name string
		kind ast.SymbolKind
	}{
		{"v", ast.SymbolVar},
		{"l", ast.SymbolLet},
		{"c", ast.SymbolConst},
		{"f", ast.SymbolFunction},
		{"p", ast.SymbolParameter},
		{"K", ast.SymbolClass},
		{"g", ast.SymbolUnbound},
	}
	for _, tt := range tests {
		if sym := findSymbol(t, tree, tt.name); sym.Kind != tt.kind {
			t.Errorf("%s: expected kind %s, got %s", tt.name, tt.kind, sym.Kind)
		}
	}

	if g := findSymbol(t, tree, "g"); !g.Flags.Has(ast.MustNotBeRenamed) {
		t.Errorf("unbound names must keep their spelling")
	}
}

func TestInitializers(t *testing.T) {
	tree := mustParse(t, "let a = #{x: 1}; let b;")

	a := findSymbol(t, tree, "a")
	if unary, ok := tree.Expr(a.Init).(*ast.UnaryExpr); !ok || unary.Op != ast.UnFreeze {
		t.Errorf("expected a's initializer to be the freeze expression, got %T", tree.Expr(a.Init))
	}
	if b := findSymbol(t, tree, "b"); b.Init.IsValid() {
		t.Errorf("expected b to have no initializer")
	}
}

func TestReassignment(t *testing.T) {
	tree := mustParse(t, "let a = 1; let b = 2; let c = 3; var d; var d; b = 4; c++; a.x = 5;")

	tests := []struct {
		name       string
		reassigned bool
	}{
		{"a", false}, // writing a property does not rebind a
		{"b", true},
		{"c", true},
		{"d", true}, // declared twice
	}
	for _, tt := range tests {
		if sym := findSymbol(t, tree, tt.name); sym.Flags.Has(ast.IsReassigned) != tt.reassigned {
			t.Errorf("%s: expected reassigned=%v", tt.name, tt.reassigned)
		}
	}
}

func TestUseCounts(t *testing.T) {
	tree := mustParse(t, "let a = 1; let b = a + a; console.log(a, b);")

	if got := findSymbol(t, tree, "a").UseCount; got != 3 {
		t.Errorf("expected a used 3 times, got %d", got)
	}
	if got := findSymbol(t, tree, "b").UseCount; got != 1 {
		t.Errorf("expected b used once, got %d", got)
	}
	if got := findSymbol(t, tree, "console").UseCount; got != 1 {
		t.Errorf("expected console used once, got %d", got)
	}
}

func TestScopeResolution(t *testing.T) {
	tree := mustParse(t, "let x = 1; { let x = 2; x; } x; function f(x) { return x; } var h = () => { var x; return x; };")

	var xs []ast.Ref
	for i := range tree.Symbols {
		if tree.Symbols[i].OriginalName == "x" {
			xs = append(xs, ast.Ref{InnerIndex: uint32(i)})
		}
	}
	if len(xs) != 4 {
		t.Fatalf("expected 4 distinct x symbols, got %d", len(xs))
	}
	for _, ref := range xs {
		// Every x is declared once and read once
		if sym := tree.Symbol(ref); sym.UseCount != 1 {
			t.Errorf("x declared at %d: expected 1 use, got %d", sym.Loc.Start, sym.UseCount)
		}
	}
}

func TestHoisting(t *testing.T) {
	tree := mustParse(t, "function f() { { var inner = 1; } return inner; } g(); function g() {}")

	if sym := findSymbol(t, tree, "inner"); sym.UseCount != 1 {
		t.Errorf("expected the return to resolve to the hoisted var, got %d uses", sym.UseCount)
	}
	if sym := findSymbol(t, tree, "g"); sym.Kind != ast.SymbolFunction || sym.UseCount != 1 {
		t.Errorf("expected g to resolve to the function declared later, got kind %s with %d uses", sym.Kind, sym.UseCount)
	}
}

func TestNamedFunctionExpressionScope(t *testing.T) {
	tree := mustParse(t, "let f = function self() { return self; }; self;")

	var local, global *ast.Symbol
	for i := range tree.Symbols {
		sym := &tree.Symbols[i]
		if sym.OriginalName != "self" {
			continue
		}
		if sym.Kind == ast.SymbolUnbound {
			global = sym
		} else {
			local = sym
		}
	}
	if local == nil || global == nil {
		t.Fatalf("expected both a local and an unbound self")
	}
	if local.UseCount != 1 || global.UseCount != 1 {
		t.Errorf("expected one use each, got local=%d global=%d", local.UseCount, global.UseCount)
	}
}

func TestIdentifierBinding(t *testing.T) {
	tree := mustParse(t, "let a = 1; a;")
	stmt := tree.Stmts[1].(*ast.ExprStmt)
	ident := tree.Expr(stmt.Value).(*ast.IdentExpr)
	if tree.Symbol(ident.Ref) != findSymbol(t, tree, "a") {
		t.Errorf("expected the reference to bind to the declaration")
	}
}
