package renamer

import (
	"strconv"
	"strings"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Unique Names
// ----------------------------------------------------------------------------

// maxBaseLength caps the descriptive part of a generated name.
const maxBaseLength = 20

// UIDGenerator mints identifiers that collide with nothing in a tree:
// "_name", then "_name2", "_name3" and so on.
type UIDGenerator struct {
	used map[string]bool
}

// NewUIDGenerator creates a generator that avoids every symbol name in tree,
// every keyword and reserved word, and every name it has already returned.
func NewUIDGenerator(tree *ast.Tree) *UIDGenerator {
	g := &UIDGenerator{used: ComputeReservedNames(tree.Symbols)}
	for i := range tree.Symbols {
		g.used[tree.Symbols[i].OriginalName] = true
	}
	return g
}

// Reserve marks name as taken.
func (g *UIDGenerator) Reserve(name string) {
	g.used[name] = true
}

// Generate returns a fresh name derived from base.
func (g *UIDGenerator) Generate(base string) string {
	base = sanitize(base)
	for i := 1; ; i++ {
		name := "_" + base
		if i > 1 {
			name += strconv.Itoa(i)
		}
		if !g.used[name] {
			g.used[name] = true
			return name
		}
	}
}

// GenerateBasedOnExpr returns a fresh name describing the expression id.
func (g *UIDGenerator) GenerateBasedOnExpr(tree *ast.Tree, id ast.ExprID) string {
	var parts []string
	gatherNameParts(tree, id, &parts)
	return g.Generate(strings.Join(parts, "$"))
}

// gatherNameParts collects the words that describe an expression: the names
// along a member chain, a callee, a literal's value.
func gatherNameParts(tree *ast.Tree, id ast.ExprID, parts *[]string) {
	switch e := tree.Expr(id).(type) {
	case *ast.IdentExpr:
		*parts = append(*parts, e.Name)
	case *ast.ThisExpr:
		*parts = append(*parts, "this")
	case *ast.LiteralExpr:
		switch e.Kind {
		case ast.LitString, ast.LitTemplate:
			*parts = append(*parts, e.Value)
		case ast.LitNumber:
			*parts = append(*parts, value.NumberToString(e.Number))
		case ast.LitBoolean, ast.LitNull:
			*parts = append(*parts, e.Value)
		}
	case *ast.MemberExpr:
		gatherNameParts(tree, e.Object, parts)
		if e.Computed {
			gatherNameParts(tree, e.Index, parts)
		} else {
			*parts = append(*parts, e.Name)
		}
	case *ast.CallExpr:
		gatherNameParts(tree, e.Target, parts)
	case *ast.NewExpr:
		gatherNameParts(tree, e.Target, parts)
	case *ast.AssignExpr:
		gatherNameParts(tree, e.Target, parts)
	case *ast.UpdateExpr:
		gatherNameParts(tree, e.Value, parts)
	case *ast.ParenExpr:
		gatherNameParts(tree, e.Value, parts)
	case *ast.UnaryExpr:
		gatherNameParts(tree, e.Value, parts)
	case *ast.FunctionExpr:
		*parts = append(*parts, e.Fn.Name)
	case *ast.ClassExpr:
		*parts = append(*parts, e.Class.Name)
	}
}

// sanitize turns base into identifier characters: invalid runs are dropped
// and the letter after them upper-cased, leading underscores and trailing
// digits are removed, and "ref" stands in for an empty result.
func sanitize(base string) string {
	var sb strings.Builder
	upper := false
	for _, r := range base {
		if r < 128 && (r == '$' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			if upper && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			upper = false
			sb.WriteRune(r)
			continue
		}
		if sb.Len() > 0 {
			upper = true
		}
	}

	name := strings.TrimLeft(sb.String(), "_")
	name = strings.TrimRight(name, "0123456789")
	if len(name) > maxBaseLength {
		name = name[:maxBaseLength]
	}
	if name == "" {
		name = "ref"
	}
	return name
}
