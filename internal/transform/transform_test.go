package transform

import (
	"strings"
	"testing"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/printer"
	"github.com/HugoDaniel/valtypes/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func transformSource(t *testing.T, input string, options Options) (*ast.Tree, Result) {
	t.Helper()
	tree, errs := parser.New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return tree, Transform(tree, options)
}

func expectTransformedWith(t *testing.T, options Options, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		tree, result := transformSource(t, input, options)
		if result.HasErrors() {
			t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
		}
		test.AssertEqualWithDiff(t, printer.New(printer.Options{}).Print(tree), expected)
	})
}

// expectTransformed verifies the printed output of a transformed program.
func expectTransformed(t *testing.T, input string, expected string) {
	t.Helper()
	expectTransformedWith(t, Options{}, input, expected)
}

// expectTransformError verifies that the transform reports an error with
// the given code.
func expectTransformError(t *testing.T, input string, code diagnostic.Code) *diagnostic.Diagnostic {
	t.Helper()
	_, result := transformSource(t, input, Options{})
	errs := result.Diagnostics.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected error %s, got none", code)
	}
	test.AssertEqual(t, errs[0].Code, code)
	return errs[0]
}

// classifyLast classifies the value of the last expression statement.
func classifyLast(t *testing.T, input string) Valueness {
	t.Helper()
	tree, errs := parser.New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	stmt, ok := tree.Stmts[len(tree.Stmts)-1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("last statement of %q is not an expression", input)
	}
	return Classify(tree, stmt.Value)
}

func expectClass(t *testing.T, input string, expected Valueness) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		test.AssertEqual(t, classifyLast(t, input), expected)
	})
}

// ----------------------------------------------------------------------------
// Classification
// ----------------------------------------------------------------------------

func TestClassifyLiterals(t *testing.T) {
	expectClass(t, "#{}", IsValue)
	expectClass(t, "#[1, 2]", IsValue)
	expectClass(t, "(#{a: 1})", IsValue)

	expectClass(t, "({})", NotValue)
	expectClass(t, "[]", NotValue)
	expectClass(t, "1", NotValue)
	expectClass(t, `"text"`, NotValue)
	expectClass(t, "null", NotValue)
	expectClass(t, "a + b", NotValue)
	expectClass(t, "() => 1", NotValue)
	expectClass(t, "(function() {})", NotValue)
	expectClass(t, "!x", NotValue)
	expectClass(t, "typeof x", NotValue)
	expectClass(t, "tag`text`", NotValue)
	expectClass(t, "a == b", NotValue)
}

func TestClassifyUnknown(t *testing.T) {
	expectClass(t, "x", Unknown)
	expectClass(t, "f()", Unknown)
	expectClass(t, "a.b", Unknown)
	expectClass(t, "a[0]", Unknown)
	expectClass(t, "new C()", Unknown)
	expectClass(t, "a = #{}", Unknown)
	expectClass(t, "this", Unknown)
}

func TestClassifyBranches(t *testing.T) {
	expectClass(t, "c ? #{} : #[]", IsValue)
	expectClass(t, "c ? {} : []", NotValue)
	expectClass(t, "c ? #{} : 1", Unknown)
	expectClass(t, "#{} && #[]", IsValue)
	expectClass(t, "a || #{}", Unknown)
	expectClass(t, "1 ?? 2", NotValue)
}

func TestClassifyBindings(t *testing.T) {
	expectClass(t, "let a = #{}; a", IsValue)
	expectClass(t, "const a = #[1]; a", IsValue)
	expectClass(t, "var a = {}; a", NotValue)
	expectClass(t, "let a = #{}; let b = a; b", IsValue)
	expectClass(t, "let a = #{}; a = {}; a", Unknown)
	expectClass(t, "let a; a", Unknown)
	expectClass(t, "function a() {} a", Unknown)
	expectClass(t, "class A {} A", Unknown)
	expectClass(t, "var a = b, b = a; a", Unknown)
}

func TestClassifyAfterRewrite(t *testing.T) {
	tree, result := transformSource(t, "let a = #{x: 1}; a == a; #[];", Options{})
	if result.HasErrors() {
		t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
	}
	test.AssertEqual(t, Classify(tree, tree.Stmts[0].(*ast.LocalStmt).Decls[0].Value), IsValue)
	test.AssertEqual(t, Classify(tree, tree.Stmts[1].(*ast.ExprStmt).Value), NotValue)
	test.AssertEqual(t, Classify(tree, tree.Stmts[2].(*ast.ExprStmt).Value), IsValue)
}

func TestValuenessString(t *testing.T) {
	test.AssertEqual(t, IsValue.String(), "IsValue")
	test.AssertEqual(t, NotValue.String(), "NotValue")
	test.AssertEqual(t, Unknown.String(), "Unknown")
}

// ----------------------------------------------------------------------------
// Freeze
// ----------------------------------------------------------------------------

func TestFreeze(t *testing.T) {
	expectTransformed(t, "let a = #{x: 1};", "let a = freeze({ x: 1 });\n")
	expectTransformed(t, "let a = #[1, 2];", "let a = freeze([1, 2]);\n")
	expectTransformed(t, "let a = #{p: #[1], q: {r: #{}}};",
		"let a = freeze({ p: freeze([1]), q: { r: freeze({}) } });\n")
	expectTransformed(t, "f(#x, #(y));", "f(freeze(x), freeze((y)));\n")
	expectTransformed(t, "let g = () => #{};", "let g = () => freeze({});\n")
	expectTransformed(t, "function f() { return #[a, #b]; }",
		"function f() {\n    return freeze([a, freeze(b)]);\n}\n")
}

// ----------------------------------------------------------------------------
// Equality
// ----------------------------------------------------------------------------

func TestEquality(t *testing.T) {
	expectTransformed(t, "let a = #{x: 1}; let b = #{x: 1}; a == b;",
		"let a = freeze({ x: 1 });\nlet b = freeze({ x: 1 });\nstructuralEquals(a, b);\n")
	expectTransformed(t, "a != b;", "!structuralEquals(a, b);\n")
	expectTransformed(t, "a === b;", "structuralStrictEquals(a, b);\n")
	expectTransformed(t, "a !== b;", "!structuralStrictEquals(a, b);\n")
	expectTransformed(t, "f() == g.h;", "structuralEquals(f(), g.h);\n")
	expectTransformed(t, "if (#[1] === #[1]) {}",
		"if (structuralStrictEquals(freeze([1]), freeze([1]))) {}\n")
	expectTransformed(t, "let eq = a == b && c != d;",
		"let eq = structuralEquals(a, b) && !structuralEquals(c, d);\n")
}

func TestEqualityLeftAlone(t *testing.T) {
	// Either side known not to be a value object
	expectTransformed(t, "x == 1;", "x == 1;\n")
	expectTransformed(t, `"s" === x;`, "\"s\" === x;\n")
	expectTransformed(t, "x == null;", "x == null;\n")
	expectTransformed(t, "let o = {}; o === x;", "let o = {};\no === x;\n")
	expectTransformed(t, "typeof x === \"object\";", "typeof x === \"object\";\n")

	// Relational operators are not equality
	expectTransformed(t, "a < b;", "a < b;\n")
}

func TestEqualityOfEqualities(t *testing.T) {
	// The inner comparison yields a boolean, so the outer one is left alone
	expectTransformed(t, "(a == b) == c;", "(structuralEquals(a, b)) == c;\n")
}

// ----------------------------------------------------------------------------
// Assignment
// ----------------------------------------------------------------------------

func TestMemberAssignment(t *testing.T) {
	expectTransformed(t, "let p = #{x: 1, y: 2};\np.x = 3;",
		"let p = freeze({ x: 1, y: 2 });\np = persistentSet(p, \"x\", 3);\n")
	expectTransformed(t, "a.b = 1;", "a = persistentSet(a, \"b\", 1);\n")
	expectTransformed(t, "a[k] = 1;", "a = persistentSet(a, k, 1);\n")
	expectTransformed(t, "a[f()] = g();", "a = persistentSet(a, f(), g());\n")
	expectTransformed(t, "(a).b = 1;", "a = persistentSet(a, \"b\", 1);\n")
	expectTransformed(t, "function set(o, v) { o.value = v; }",
		"function set(o, v) {\n    o = persistentSet(o, \"value\", v);\n}\n")
	expectTransformed(t, "let p = #{}; p.x = #[1];",
		"let p = freeze({});\np = persistentSet(p, \"x\", freeze([1]));\n")
}

func TestAssignmentLeftAlone(t *testing.T) {
	// Plain objects are mutated in place
	expectTransformed(t, "let o = {x: 1}; o.x = 2;", "let o = { x: 1 };\no.x = 2;\n")
	expectTransformed(t, "const o = [1]; o[0] = 2;", "const o = [1];\no[0] = 2;\n")

	// A const binding that may hold a mutable object
	expectTransformed(t, "const o = make(); o.x = 2;", "const o = make();\no.x = 2;\n")

	// Bindings, this and call results
	expectTransformed(t, "let x; x = #{};", "let x;\nx = freeze({});\n")
	expectTransformed(t, "function f() { this.x = 1; }", "function f() {\n    this.x = 1;\n}\n")
	expectTransformed(t, "f().x = 1;", "f().x = 1;\n")
}

func TestConstantValueAssignment(t *testing.T) {
	d := expectTransformError(t, "const p = #{x: 1}; p.x = 2;", diagnostic.CodeConstantValueAssignment)
	test.AssertContains(t, d.Message, "constant")
	test.AssertEqual(t, d.Range.Start.Line, 1)
	test.AssertEqual(t, d.Range.Start.Column, 20)
	test.AssertContains(t, d.Frame, "> 1 | const p = #{x: 1}; p.x = 2;")
	test.AssertContains(t, d.Frame, "^")

	d = expectTransformError(t, "const a = #[1];\nconst b = a;\nb[0] += 1;", diagnostic.CodeConstantValueAssignment)
	test.AssertEqual(t, d.Range.Start.Line, 3)
	test.AssertEqual(t, d.Range.Start.Column, 1)

	expectTransformError(t, "const p = #{}; function f() { p.x++; }", diagnostic.CodeConstantValueAssignment)
}

func TestResultTemporary(t *testing.T) {
	expectTransformed(t, "let r = (target.count = 5);",
		"let _ref;\nlet r = (target = persistentSet(target, \"count\", _ref = 5), _ref);\n")
	expectTransformed(t, "let r = target.count = 5;",
		"let _ref;\nlet r = (target = persistentSet(target, \"count\", _ref = 5), _ref);\n")
	expectTransformed(t, "f(a.b = c);",
		"let _c;\nf((a = persistentSet(a, \"b\", _c = c), _c));\n")

	// Names already in use are skipped
	expectTransformed(t, "let _ref = 1; let r = (t.x = 2);",
		"let _ref2;\nlet _ref = 1;\nlet r = (t = persistentSet(t, \"x\", _ref2 = 2), _ref2);\n")
}

func TestCompoundAssignment(t *testing.T) {
	expectTransformed(t, "let p = #{n: 0}; p.n += 2;",
		"let p = freeze({ n: 0 });\np = persistentSet(p, \"n\", p.n + 2);\n")
	expectTransformed(t, "a[k] *= 2;", "a = persistentSet(a, k, a[k] * 2);\n")
	expectTransformed(t, "a[0] -= 1;", "a = persistentSet(a, 0, a[0] - 1);\n")
	expectTransformed(t, "a.n ||= 5;", "a = persistentSet(a, \"n\", a.n || 5);\n")
	expectTransformed(t, "a.n ??= b;", "a = persistentSet(a, \"n\", a.n ?? b);\n")
	expectTransformed(t, "a.n **= 2;", "a = persistentSet(a, \"n\", a.n ** 2);\n")
}

func TestComputedKeyEvaluatedOnce(t *testing.T) {
	expectTransformed(t, "a[key()] += 1;",
		"let _key;\na = persistentSet(a, _key = key(), a[_key] + 1);\n")

	// The key of the inner object and the property read share one call
	expectTransformed(t, "obj[computeKey()].field += 1;",
		"let _computeKey;\n"+
			"obj = persistentSet(obj, _computeKey = computeKey(), "+
			"persistentSet(obj[_computeKey], \"field\", obj[_computeKey].field + 1));\n")
}

func TestNestedAssignment(t *testing.T) {
	expectTransformed(t, "let a = f(); a.b.c = x;",
		"let a = f();\na = persistentSet(a, \"b\", persistentSet(a.b, \"c\", x));\n")
	expectTransformed(t, "a[i].c = x;",
		"a = persistentSet(a, i, persistentSet(a[i], \"c\", x));\n")
	expectTransformed(t, "this.pos.x = 1;",
		"this.pos = persistentSet(this.pos, \"x\", 1);\n")

	// An impure base is evaluated once
	expectTransformed(t, "f().b.c = x;",
		"let _f;\n(_f = f()).b = persistentSet(_f.b, \"c\", x);\n")

	// The inner object is known to be mutable
	expectTransformed(t, "let o = {}; o.p.x = 1;",
		"let o = {};\no.p = persistentSet(o.p, \"x\", 1);\n")

	_, result := transformSource(t, "a.b.c = x;", Options{})
	test.AssertEqual(t, result.Stats.Assignments, 2)
}

func TestChainedWriteReadsObjectLast(t *testing.T) {
	// The inner write replaces o, so the outer one reads o after it
	expectTransformed(t, "o.x = o.y = 1;",
		"let _o$y, _ref;\n"+
			"_o$y = (o = persistentSet(o, \"y\", _ref = 1), _ref), o = persistentSet(o, \"x\", _o$y);\n")
	expectTransformed(t, "let r = (o.x = o.y = 1);",
		"let _o$y, _ref;\n"+
			"let r = (_o$y = (o = persistentSet(o, \"y\", _ref = 1), _ref), o = persistentSet(o, \"x\", _o$y), _o$y);\n")

	// Hoisted parts of the target still run before the value
	expectTransformed(t, "f().b.c = (o.d = 1);",
		"let _f, _o$d, _ref;\n"+
			"_f = f(), _o$d = (o = persistentSet(o, \"d\", _ref = 1), _ref), _f.b = persistentSet(_f.b, \"c\", _o$d);\n")

	// A write in the key is evaluated before the object is read
	expectTransformed(t, "o[o.i++] = v;",
		"let _o$i, _v, _o$i2;\n"+
			"_o$i = (o = persistentSet(o, \"i\", (_o$i2 = +o.i) + 1), _o$i2), _v = v, o = persistentSet(o, _o$i, _v);\n")

	// Values that write nothing keep the short form
	expectTransformed(t, "o.x = f(y);", "o = persistentSet(o, \"x\", f(y));\n")
}

// ----------------------------------------------------------------------------
// Update
// ----------------------------------------------------------------------------

func TestUpdate(t *testing.T) {
	expectTransformed(t, "let p = #{n: 0}; p.n++;",
		"let p = freeze({ n: 0 });\np = persistentSet(p, \"n\", +p.n + 1);\n")
	expectTransformed(t, "--a.n;", "a = persistentSet(a, \"n\", +a.n - 1);\n")
	expectTransformed(t, "a[i()]++;", "let _i;\na = persistentSet(a, _i = i(), +a[_i] + 1);\n")
	expectTransformed(t, "for (;; a.i++) {}", "for (;; a = persistentSet(a, \"i\", +a.i + 1)) {}\n")

	expectTransformed(t, "let v = a.n++;",
		"let _a$n;\nlet v = (a = persistentSet(a, \"n\", (_a$n = +a.n) + 1), _a$n);\n")
	expectTransformed(t, "let v = ++a.n;",
		"let _a$n;\nlet v = (a = persistentSet(a, \"n\", _a$n = +a.n + 1), _a$n);\n")

	// Identifiers and plain objects keep their update operators
	expectTransformed(t, "let i = 0; i++;", "let i = 0;\ni++;\n")
	expectTransformed(t, "let o = {n: 0}; o.n--;", "let o = { n: 0 };\no.n--;\n")
}

// ----------------------------------------------------------------------------
// Temporaries
// ----------------------------------------------------------------------------

func TestTemporaryPlacement(t *testing.T) {
	expectTransformed(t, "function f(o) { return o.x = 1; }",
		"function f(o) {\n    let _ref;\n    return o = persistentSet(o, \"x\", _ref = 1), _ref;\n}\n")
	expectTransformed(t, "if (c) { g(o.x = 1); }",
		"if (c) {\n    let _ref;\n    g((o = persistentSet(o, \"x\", _ref = 1), _ref));\n}\n")
	expectTransformed(t, "let g = (o) => o.x = 1;",
		"let g = (o) => {\n    let _ref;\n    return o = persistentSet(o, \"x\", _ref = 1), _ref;\n};\n")

	// Arrows that need no temporaries keep their expression body
	expectTransformed(t, "let g = (o) => #o;", "let g = (o) => freeze(o);\n")
}

func TestTemporaryNamesAreUnique(t *testing.T) {
	tree, result := transformSource(t, "let a = (x.y = 1); let b = (z.w = 2);", Options{})
	if result.HasErrors() {
		t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
	}
	test.AssertEqual(t, result.Stats.Temporaries, 2)

	decl := tree.Stmts[0].(*ast.LocalStmt)
	test.AssertEqual(t, len(decl.Decls), 2)
	test.AssertEqual(t, decl.Decls[0].Name, "_ref")
	test.AssertEqual(t, decl.Decls[1].Name, "_ref2")
	test.AssertEqual(t, tree.Symbol(decl.Decls[0].Ref).Kind, ast.SymbolTemporary)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func TestHelperNames(t *testing.T) {
	options := Options{Helpers: helpers.DefaultNames().WithPrefix("$vt_")}
	expectTransformedWith(t, options, "let a = #{}; a == b; a.x = 1;",
		"let a = $vt_freeze({});\n$vt_structuralEquals(a, b);\na = $vt_persistentSet(a, \"x\", 1);\n")

	options = Options{Helpers: helpers.Names{Freeze: "F"}}
	expectTransformedWith(t, options, "let a = #[]; a === a;",
		"let a = F([]);\nstructuralStrictEquals(a, a);\n")
}

func TestHelperSymbols(t *testing.T) {
	tree, _ := transformSource(t, "let a = #{};", Options{})
	call := tree.Expr(tree.Stmts[0].(*ast.LocalStmt).Decls[0].Value).(*ast.CallExpr)
	test.AssertEqual(t, call.Helper, ast.HelperFreeze)

	sym := tree.Symbol(tree.Expr(call.Target).(*ast.IdentExpr).Ref)
	test.AssertEqual(t, sym.Kind, ast.SymbolUnbound)
	test.AssertEqual(t, sym.Flags.Has(ast.IsHelper), true)
	test.AssertEqual(t, sym.Flags.Has(ast.MustNotBeRenamed), true)
}

func TestHelperShadowed(t *testing.T) {
	tree, result := transformSource(t, "function freeze(x) { return x; }\nlet a = #{};", Options{})
	if result.HasErrors() {
		t.Fatalf("a shadowed helper must not be an error:\n%s", result.Diagnostics.Format())
	}
	diags := result.Diagnostics.Diagnostics()
	test.AssertEqual(t, len(diags), 1)
	test.AssertEqual(t, diags[0].Severity, diagnostic.Warning)
	test.AssertEqual(t, diags[0].Code, CodeHelperShadowed)
	test.AssertContains(t, diags[0].Message, `"freeze"`)
	test.AssertEqual(t, diags[0].Range.Start.Line, 2)

	out := printer.New(printer.Options{}).Print(tree)
	test.AssertContains(t, out, "let a = freeze({});")

	// Warned once per name
	_, result = transformSource(t, "let freeze = 1; let a = #{}, b = #[];", Options{})
	test.AssertEqual(t, len(result.Diagnostics.Diagnostics()), 1)
}

// ----------------------------------------------------------------------------
// Whole Programs
// ----------------------------------------------------------------------------

func TestStats(t *testing.T) {
	_, result := transformSource(t, `
let p = #{x: 1, y: #[1, 2]};
let q = p;
q.x = 2;
q.x++;
let same = p == q;
let r = (q.y = 3);
`, Options{})
	if result.HasErrors() {
		t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
	}
	test.AssertEqual(t, result.Stats, Stats{
		Freezes:     2,
		Equalities:  1,
		Assignments: 2,
		Updates:     1,
		Temporaries: 1,
	})
}

func TestOutputReparses(t *testing.T) {
	inputs := []string{
		"let p = #{pos: #{x: 0}}; p.pos.x += 1; let q = p.pos.x++;",
		"obj[computeKey()].field += 1;",
		"let f = (o) => o.a.b = o.c == #[];",
		"for (let i = 0; i < n; i++) { grid[i].cells[j()] -= 1; }",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			tree, result := transformSource(t, input, Options{})
			if result.HasErrors() {
				t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
			}
			out := printer.New(printer.Options{}).Print(tree)
			if _, errs := parser.New(out).Parse(); len(errs) > 0 {
				t.Fatalf("output does not parse: %v\n%s", errs, out)
			}
			if strings.Contains(out, "#") {
				t.Errorf("freeze operator left in output:\n%s", out)
			}
		})
	}
}

func TestCloneCopiesEveryNode(t *testing.T) {
	tree, errs := parser.New("a.b[c]; f();").Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	p := newPass(tree, Options{})

	member := tree.Stmts[0].(*ast.ExprStmt).Value
	copied := p.clone(member)
	if copied == member || tree.Expr(copied) == tree.Expr(member) {
		t.Fatal("expected a new member node")
	}
	orig, dup := tree.Expr(member).(*ast.MemberExpr), tree.Expr(copied).(*ast.MemberExpr)
	if dup.Object == orig.Object || dup.Index == orig.Index {
		t.Error("children of the copy must be new nodes")
	}
	test.AssertEqual(t, printer.New(printer.Options{}).PrintExpr(tree, copied), "a.b[c]")

	defer func() {
		if recover() == nil {
			t.Error("expected cloning a call to panic")
		}
	}()
	p.clone(tree.Stmts[1].(*ast.ExprStmt).Value)
}
