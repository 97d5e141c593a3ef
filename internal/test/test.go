// Package test provides testing utilities shared by the valtypes packages.
//
// The helpers follow esbuild's testing patterns: small assertion functions
// that report readable diffs for multi-line generated code.
package test

import (
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// AssertEqual checks if two values are equal and reports a test error if not.
func AssertEqual[T comparable](t *testing.T, actual, expected T) {
	t.Helper()
	if actual != expected {
		t.Errorf("\nexpected: %v\nactual:   %v", expected, actual)
	}
}

// AssertEqualWithDiff checks if two strings are equal and shows a diff if not.
func AssertEqualWithDiff(t *testing.T, actual, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("\n%s", Diff(expected, actual))
	}
}

// AssertContains fails the test when substr does not occur in s.
func AssertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("\nexpected to contain: %q\nactual: %q", substr, s)
	}
}

// Diff produces a line-oriented diff between two strings, with "-" marking
// lines only in expected and "+" lines only in actual.
func Diff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var result strings.Builder
	result.WriteString("--- expected\n+++ actual\n")
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(strings.TrimSuffix(line, "\n"))
			result.WriteString("\n")
		}
	}
	return result.String()
}
