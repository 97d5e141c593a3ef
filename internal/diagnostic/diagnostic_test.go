package diagnostic

import (
	"strings"
	"testing"
)

func TestLineIndex(t *testing.T) {
	idx := NewLineIndex("ab\ncd\r\nef\rg")
	cases := []struct {
		offset, line, col int
	}{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{7, 2, 0},
		{10, 3, 0},
		{100, 3, 1},
	}
	for _, c := range cases {
		line, col := idx.ByteOffsetToLineColumn(c.offset)
		if line != c.line || col != c.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", c.offset, line, col, c.line, c.col)
		}
	}
	if idx.LineCount() != 4 {
		t.Errorf("LineCount() = %d", idx.LineCount())
	}
	if got := idx.Line(1); got != "cd" {
		t.Errorf("Line(1) = %q", got)
	}
}

func TestAddErrorBuildsFrame(t *testing.T) {
	src := "let a = 1;\nconst p = #{x: 1}; p.x = 2;\nlet b;"
	dl := NewDiagnosticList(src)
	start := strings.Index(src, "p.x")
	d := dl.AddError(CodeConstantValueAssignment, start, start+3, "Assignment to a value object that is constant")

	if !dl.HasErrors() || len(dl.Errors()) != 1 {
		t.Fatal("expected one error")
	}
	if d.Range.Start.Line != 2 || d.Range.Start.Column != 20 {
		t.Errorf("range start = %d:%d", d.Range.Start.Line, d.Range.Start.Column)
	}

	want := "" +
		"  1 | let a = 1;\n" +
		"> 2 | const p = #{x: 1}; p.x = 2;\n" +
		"    |                    ^~~\n" +
		"  3 | let b;\n"
	if d.Frame != want {
		t.Errorf("frame:\n%s\nwant:\n%s", d.Frame, want)
	}

	out := FormatDiagnostic(d)
	if !strings.HasPrefix(out, "2:20: error: Assignment to a value object that is constant [VT0100]\n") {
		t.Errorf("FormatDiagnostic() = %q", out)
	}
}

func TestCodeFrameFirstLine(t *testing.T) {
	dl := NewDiagnosticList("x = 1")
	d := dl.AddError(CodeSyntax, 0, 1, "oops")
	want := "> 1 | x = 1\n    | ^\n"
	if d.Frame != want {
		t.Errorf("frame = %q, want %q", d.Frame, want)
	}
}
