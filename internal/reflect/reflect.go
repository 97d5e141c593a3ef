// Package reflect reports the bindings of a program and what the value type
// analysis knows about each of them. It is useful for checking why an
// assignment or comparison was, or was not, rewritten.
package reflect

import (
	"sort"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/transform"
)

// ReflectResult contains the reflection information for a program.
type ReflectResult struct {
	Bindings []BindingInfo `json:"bindings"`
	Globals  []string      `json:"globals"`
	Errors   []string      `json:"errors,omitempty"`
}

// BindingInfo describes one declared name.
type BindingInfo struct {
	Name string `json:"name"`

	// Kind is the declaration form: "var", "let", "const", "function",
	// "class" or "parameter"
	Kind string `json:"kind"`

	// 1-based position of the declaration
	Line   int `json:"line"`
	Column int `json:"column"`

	TopLevel   bool `json:"topLevel"`
	Reassigned bool `json:"reassigned"`

	// Valueness is "IsValue", "NotValue" or "Unknown": what a reference to
	// the binding classifies as
	Valueness string `json:"valueness"`

	Uses int `json:"uses"`
}

// Reflect parses source and reports its bindings. Parse errors are
// returned in Errors alongside whatever the parser recovered.
func Reflect(source string) ReflectResult {
	tree, errs := parser.New(source).Parse()
	result := ReflectTree(tree)
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Message)
	}
	return result
}

// ReflectTree reports the bindings of an already parsed tree.
func ReflectTree(tree *ast.Tree) ReflectResult {
	result := ReflectResult{
		Bindings: []BindingInfo{},
		Globals:  []string{},
	}

	topLevel := make(map[ast.Ref]bool)
	if tree.Scope != nil {
		for _, member := range tree.Scope.Members {
			topLevel[member.Ref] = true
		}
	}

	lines := diagnostic.NewLineIndex(tree.Source)
	for i := range tree.Symbols {
		sym := &tree.Symbols[i]
		ref := ast.Ref{InnerIndex: uint32(i)}

		switch sym.Kind {
		case ast.SymbolUnbound:
			if !sym.Flags.Has(ast.IsHelper) {
				result.Globals = append(result.Globals, sym.OriginalName)
			}
			continue
		case ast.SymbolTemporary:
			continue
		}

		line, col := lines.ByteOffsetToLineColumn(int(sym.Loc.Start))
		result.Bindings = append(result.Bindings, BindingInfo{
			Name:       sym.OriginalName,
			Kind:       sym.Kind.String(),
			Line:       line + 1,
			Column:     col + 1,
			TopLevel:   topLevel[ref],
			Reassigned: sym.Flags.Has(ast.IsReassigned),
			Valueness:  transform.ClassifyBinding(tree, ref).String(),
			Uses:       int(sym.UseCount),
		})
	}

	// Hoisted declarations are added to the table out of source order
	sort.SliceStable(result.Bindings, func(i, j int) bool {
		a, b := result.Bindings[i], result.Bindings[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	sort.Strings(result.Globals)
	return result
}
