// Package diagnostic provides structured compiler diagnostics.
//
// Diagnostics carry a severity, a code, a message and a source range, and
// render with a code frame pointing at the offending source:
//
//	1:22: error: Assignment to a value object that is constant
//	> 1 | const p = #{x: 1}; p.x = 2;
//	    |                      ^
package diagnostic

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Severity
// ----------------------------------------------------------------------------

// Severity indicates the importance of a diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// ----------------------------------------------------------------------------
// Position and Range
// ----------------------------------------------------------------------------

// Position is a point in the source.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// Range is a span in the source.
type Range struct {
	Start Position
	End   Position
}

// ----------------------------------------------------------------------------
// Diagnostic
// ----------------------------------------------------------------------------

// Code identifies a kind of diagnostic.
type Code string

const (
	// CodeSyntax reports source the parser rejected.
	CodeSyntax Code = "VT0001"

	// CodeConstantValueAssignment reports a member write whose object is a
	// value object reached through a const binding.
	CodeConstantValueAssignment Code = "VT0100"
)

// Diagnostic is a single message about the source. It implements error.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Range    Range
	Frame    string // Rendered code frame, may be empty
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// ----------------------------------------------------------------------------
// Diagnostic List
// ----------------------------------------------------------------------------

// DiagnosticList collects diagnostics for one source file.
type DiagnosticList struct {
	diagnostics []*Diagnostic
	lineIndex   *LineIndex
	hasErrors   bool
}

// NewDiagnosticList creates a list for source.
func NewDiagnosticList(source string) *DiagnosticList {
	return &DiagnosticList{lineIndex: NewLineIndex(source)}
}

// Add appends d.
func (dl *DiagnosticList) Add(d *Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError records an error spanning [start, end) and returns it.
func (dl *DiagnosticList) AddError(code Code, start, end int, message string) *Diagnostic {
	return dl.addAt(Error, code, start, end, message)
}

// AddWarning records a warning spanning [start, end) and returns it.
func (dl *DiagnosticList) AddWarning(code Code, start, end int, message string) *Diagnostic {
	return dl.addAt(Warning, code, start, end, message)
}

func (dl *DiagnosticList) addAt(severity Severity, code Code, start, end int, message string) *Diagnostic {
	d := &Diagnostic{
		Severity: severity,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(start, end),
	}
	d.Frame = dl.CodeFrame(d.Range)
	dl.Add(d)
	return d
}

// MakePosition converts a byte offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	line, col := dl.lineIndex.ByteOffsetToLineColumn(offset)
	return Position{Offset: offset, Line: line + 1, Column: col + 1}
}

// MakeRange converts a byte span to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{Start: dl.MakePosition(start), End: dl.MakePosition(end)}
}

// HasErrors reports whether any error was added.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns every diagnostic in insertion order.
func (dl *DiagnosticList) Diagnostics() []*Diagnostic {
	return dl.diagnostics
}

// Errors returns only the errors.
func (dl *DiagnosticList) Errors() []*Diagnostic {
	var errs []*Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	return errs
}

// Format renders all diagnostics.
func (dl *DiagnosticList) Format() string {
	var sb strings.Builder
	for _, d := range dl.diagnostics {
		sb.WriteString(FormatDiagnostic(d))
	}
	return sb.String()
}

// FormatDiagnostic renders d followed by its code frame.
func FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	if d.Code != "" {
		sb.WriteString(" [" + string(d.Code) + "]")
	}
	sb.WriteByte('\n')
	sb.WriteString(d.Frame)
	return sb.String()
}

// CodeFrame renders the lines around r with a gutter and a caret under the
// start of the range, one line of context on each side.
func (dl *DiagnosticList) CodeFrame(r Range) string {
	target := r.Start.Line - 1
	first, last := target-1, target+1
	if first < 0 {
		first = 0
	}
	if last >= dl.lineIndex.LineCount() {
		last = dl.lineIndex.LineCount() - 1
	}
	width := len(strconv.Itoa(last + 1))

	var sb strings.Builder
	for line := first; line <= last; line++ {
		marker := "  "
		if line == target {
			marker = "> "
		}
		text := dl.lineIndex.Line(line)
		sb.WriteString(fmt.Sprintf("%s%*d | %s", marker, width, line+1, text))
		sb.WriteString("\n")
		if line == target {
			caret := "^"
			if r.End.Line == r.Start.Line && r.End.Column-r.Start.Column > 1 {
				caret += strings.Repeat("~", r.End.Column-r.Start.Column-1)
			}
			sb.WriteString(fmt.Sprintf("  %*s | %s%s\n", width, "", strings.Repeat(" ", r.Start.Column-1), caret))
		}
	}
	return sb.String()
}
