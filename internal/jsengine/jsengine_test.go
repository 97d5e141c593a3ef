package jsengine

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/interp"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/printer"
	"github.com/HugoDaniel/valtypes/internal/test"
	"github.com/HugoDaniel/valtypes/internal/transform"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

// compileES5 transforms input and prints it for an ES5 engine.
func compileES5(t *testing.T, input string, names helpers.Names) string {
	t.Helper()
	tree, errs := parser.New(input).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if result := transform.Transform(tree, transform.Options{Helpers: names}); result.HasErrors() {
		t.Fatalf("transform errors:\n%s", result.Diagnostics.Format())
	}
	return printer.New(printer.Options{LowerLetConst: true}).Print(tree)
}

func newEngine(t *testing.T, options Options) *Engine {
	t.Helper()
	e, err := New(options)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return e
}

// expectResult compiles input, runs it on otto and checks the inspected
// completion value.
func expectResult(t *testing.T, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		code := compileES5(t, input, helpers.Names{})
		v, err := newEngine(t, Options{}).Run(code)
		if err != nil {
			t.Fatalf("run failed: %v\n%s", err, code)
		}
		test.AssertEqual(t, Inspect(v), expected)
	})
}

// ----------------------------------------------------------------------------
// Runtime Library on otto
// ----------------------------------------------------------------------------

func TestStructuralEquality(t *testing.T) {
	expectResult(t, "let a = #{x: 1}; let b = #{x: 1}; a == b", "true")
	expectResult(t, "let a = #{x: 1}; let b = #{x: 1}; a === b", "true")
	expectResult(t, "let a = #{x: 1}; let b = #{x: 2}; a !== b", "true")
	expectResult(t, `#{n: 1} == #{n: "1"}`, "true")
	expectResult(t, `#{n: 1} === #{n: "1"}`, "false")
	expectResult(t, "#[1, #{y: [2]}] === #[1, #{y: [2]}]", "false")
	expectResult(t, "#[1, #{y: #[2]}] === #[1, #{y: #[2]}]", "true")
	expectResult(t, "#{a: 1, b: 2} == #{b: 2, a: 1}", "false")
}

func TestPersistentUpdate(t *testing.T) {
	expectResult(t, "let target = #{count: 0}; let r = (target.count = 5); [r, target.count]", "[5, 5]")
	expectResult(t, "let p = #{x: 1}; let q = p; p.x = 3; [p.x, q.x, Object.isFrozen(p)]", "[3, 1, true]")
	expectResult(t, "let s = #{pos: #{x: 0}}; let t = s; s.pos.x = 5; [s.pos.x, t.pos.x]", "[5, 0]")
	expectResult(t, "let o = #{n: 1}; let old = o.n++; [old, o.n]", "[1, 2]")
	expectResult(t, "let o = {n: 1}; let alias = o; o.n += 1; alias.n", "2")
	expectResult(t, `
let calls = 0;
function make() { return #{k: #{field: 1}}; }
function computeKey() { calls++; return "k"; }
let obj = make();
obj[computeKey()].field += 1;
[calls, obj.k.field]`, "[1, 2]")
}

func TestFrozenWriteIgnored(t *testing.T) {
	e := newEngine(t, Options{})
	v, err := e.Run("var p = freeze({x: 1}); p.x = 2; p.x")
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, Inspect(v), "1")
}

func TestNativePatch(t *testing.T) {
	expectResult(t, "Object.is(#{a: 1}, #{a: 1})", "true")
	expectResult(t, "Object.is({a: 1}, {a: 1})", "false")
	expectResult(t, "Object.is(NaN, NaN)", "true")
	expectResult(t, "Object.is(0, -0)", "false")
	expectResult(t, "[1, #{a: 1}].indexOf(#{a: 1})", "1")
	expectResult(t, "[#{a: 1}, #{a: 1}].lastIndexOf(#{a: 1})", "1")
	expectResult(t, "[#[1, 2]].includes(#[1, 2])", "true")
	expectResult(t, "[NaN].includes(NaN)", "true")

	// Loading the prelude twice keeps the first patch
	e := newEngine(t, Options{})
	if _, err := e.Run(helpers.Prelude(helpers.DefaultNames())); err != nil {
		t.Fatal(err)
	}
	v, err := e.Run("[freeze({a: 1})].indexOf(freeze({a: 1}))")
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, Inspect(v), "0")
}

func TestHelperNames(t *testing.T) {
	names := helpers.DefaultNames().WithPrefix("$vt_")
	code := compileES5(t, "let a = #{x: 1}; a.x = 2; a == #{x: 2}", names)
	test.AssertContains(t, code, "$vt_persistentSet(")

	v, err := newEngine(t, Options{Helpers: names}).Run(code)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, Inspect(v), "true")
}

// ----------------------------------------------------------------------------
// Engine
// ----------------------------------------------------------------------------

func TestConsoleLog(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, Options{Stdout: &out})
	if _, err := e.Run(`console.log("point", 1, freeze({x: 1, tags: freeze(["a"])}), [null, undefined]);`); err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, out.String(), `point 1 #{ x: 1, tags: #["a"] } [null, undefined]`+"\n")
}

func TestGlobalsPersist(t *testing.T) {
	e := newEngine(t, Options{})
	if _, err := e.Run("var counter = freeze({n: 1});"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(`counter = persistentSet(counter, "n", 2);`); err != nil {
		t.Fatal(err)
	}
	v, err := e.Global("counter")
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, Inspect(v), "#{ n: 2 }")
}

func TestRunErrors(t *testing.T) {
	e := newEngine(t, Options{})
	_, err := e.Run("missing.x")
	if err == nil {
		t.Fatal("expected a ReferenceError")
	}
	test.AssertContains(t, err.Error(), "ReferenceError")

	_, err = e.Run("persistentSet(undefined, 'x', 1)")
	if err == nil {
		t.Fatal("expected a TypeError")
	}
	test.AssertContains(t, err.Error(), "TypeError")
}

func TestTimeout(t *testing.T) {
	e := newEngine(t, Options{Timeout: 50 * time.Millisecond})
	_, err := e.Run("while (true) {}")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// The engine remains usable
	v, err := e.Run("1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, Inspect(v), "2")
}

func TestCheck(t *testing.T) {
	if err := Check("var x = freeze({a: 1}); x.a;"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Check("var = ;"); err == nil {
		t.Error("expected a syntax error")
	}
}

// ----------------------------------------------------------------------------
// Agreement with the Go interpreter
// ----------------------------------------------------------------------------

// Programs restricted to ES5 once compiled, so that otto can run them.
var agreementPrograms = []string{
	"let a = #{x: 1, y: #[1, 2]}; let b = #{x: 1, y: #[1, 2]}; [a == b, a === b, a != b]",
	"let p = #{x: 1}; let q = p; p.x = 2; console.log(p, q); [p.x, q.x]",
	"let p = #{x: 1}; let q = p; p.x = 1; Object.is(p, q)",
	"let o = #{n: 1}; let a = o.n++; let b = ++o.n; let c = o.n--; [a, b, c, o.n]",
	"let o = #{s: 'a'}; o.s += 'b'; o.s += 1; o.s",
	"let o = #{v: 0}; o.v ||= 4; o.v &&= 5; o.v",
	"function update(r, k) { r[k] = r[k] * 2; return r; } let v = #{a: 2}; let w = update(v, 'a'); [v.a, w.a]",
	"let list = #[#{id: 1}, #{id: 2}]; [list.indexOf(#{id: 2}), list.includes(#{id: 3})]",
	"let grid = #{row: #{cell: #{v: 0}}}; grid.row.cell.v = 9; console.log(grid); grid.row.cell.v",
	"let log = []; function k(n) { log.push(n); return 'x'; } let o = #{x: #{y: 1}}; o[k(1)][k(2)] += 1; [log, o.x.y]",
	"function Point(x, y) { this.x = x; this.y = y; } let a = #(new Point(1, 2)); let b = #(new Point(1, 2)); a == b",
	"let a = #{x: 1}; let b = a; let c = (b.x = 2); [a.x, b.x, c]",
}

func TestAgreesWithInterpreter(t *testing.T) {
	for _, input := range agreementPrograms {
		input := input
		t.Run(input, func(t *testing.T) {
			var ottoOut bytes.Buffer
			code := compileES5(t, input, helpers.Names{})
			ov, err := newEngine(t, Options{Stdout: &ottoOut}).Run(code)
			if err != nil {
				t.Fatalf("otto: %v\n%s", err, code)
			}

			tree, errs := parser.New(input).Parse()
			if len(errs) > 0 {
				t.Fatalf("parse errors: %v", errs)
			}
			transform.Transform(tree, transform.Options{})
			var goOut bytes.Buffer
			gv, err := interp.New(interp.Options{Stdout: &goOut}).Run(tree)
			if err != nil {
				t.Fatalf("interp: %v", err)
			}

			test.AssertEqualWithDiff(t, Inspect(ov), value.Inspect(gv))
			test.AssertEqualWithDiff(t, ottoOut.String(), goOut.String())
		})
	}
}

// Programs both engines reject with a TypeError.
var rejectedPrograms = []string{
	"let a = #Object.freeze({x: 1}); let b = #Object.freeze({x: 1}); a == b",
	"let list = Object.freeze([1, 2]); #list",
}

func TestRejectsLikeInterpreter(t *testing.T) {
	for _, input := range rejectedPrograms {
		input := input
		t.Run(input, func(t *testing.T) {
			code := compileES5(t, input, helpers.Names{})
			_, err := newEngine(t, Options{}).Run(code)
			if err == nil {
				t.Fatalf("otto: expected a TypeError\n%s", code)
			}
			test.AssertContains(t, err.Error(), "TypeError")

			tree, errs := parser.New(input).Parse()
			if len(errs) > 0 {
				t.Fatalf("parse errors: %v", errs)
			}
			transform.Transform(tree, transform.Options{})
			_, err = interp.New(interp.Options{}).Run(tree)
			if err == nil {
				t.Fatal("interp: expected a TypeError")
			}
			test.AssertContains(t, err.Error(), "TypeError")
			if !errors.Is(err, value.ErrFrozen) {
				t.Errorf("interp: expected ErrFrozen, got %v", err)
			}
		})
	}
}
