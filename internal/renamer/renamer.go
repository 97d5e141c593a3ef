// Package renamer provides symbol naming for printing.
//
// Following esbuild's approach, the minifying renamer:
// - Assigns short names to frequently-used symbols
// - Avoids reserved words and every name that must keep its spelling
//   (globals and runtime helpers)
// - Uses character frequency analysis for better gzip compression
//
// The package also mints the unique names of compiler temporaries.
package renamer

import (
	"sort"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/lexer"
)

// ----------------------------------------------------------------------------
// Renamer Interface
// ----------------------------------------------------------------------------

// Renamer provides printed names for symbols.
type Renamer interface {
	NameForSymbol(ref ast.Ref) string
}

// ----------------------------------------------------------------------------
// NoOp Renamer
// ----------------------------------------------------------------------------

// NoOpRenamer returns original symbol names (no minification).
type NoOpRenamer struct {
	symbols []ast.Symbol
}

// NewNoOpRenamer creates a renamer that returns original names.
func NewNoOpRenamer(symbols []ast.Symbol) *NoOpRenamer {
	return &NoOpRenamer{symbols: symbols}
}

// NameForSymbol returns the original name.
func (r *NoOpRenamer) NameForSymbol(ref ast.Ref) string {
	if ref.IsValid() && int(ref.InnerIndex) < len(r.symbols) {
		return r.symbols[ref.InnerIndex].OriginalName
	}
	return ""
}

// ----------------------------------------------------------------------------
// Minify Renamer
// ----------------------------------------------------------------------------

// MinifyRenamer assigns short names based on usage frequency. Every
// renameable symbol gets its own slot, so two symbols never share a name
// regardless of scope.
type MinifyRenamer struct {
	symbols       []ast.Symbol
	reservedNames map[string]bool
	slots         []symbolSlot
	nameMinifier  *NameMinifier

	// Mapping from symbols to slots
	symbolSlots map[ast.Ref]uint32
}

type symbolSlot struct {
	name  string
	count uint32
}

// NewMinifyRenamer creates a new minifying renamer.
func NewMinifyRenamer(symbols []ast.Symbol, reservedNames map[string]bool) *MinifyRenamer {
	return &MinifyRenamer{
		symbols:       symbols,
		reservedNames: reservedNames,
		symbolSlots:   make(map[ast.Ref]uint32),
		nameMinifier:  DefaultNameMinifier(),
	}
}

// SetNameMinifier replaces the alphabet names are drawn from.
func (r *MinifyRenamer) SetNameMinifier(m *NameMinifier) {
	r.nameMinifier = m
}

// AllocateSlots allocates name slots based on accumulated usage counts.
func (r *MinifyRenamer) AllocateSlots() {
	type symbolWithCount struct {
		ref   ast.Ref
		count uint32
	}

	var renameable []symbolWithCount
	for i := range r.symbols {
		sym := &r.symbols[i]
		if sym.Flags.Has(ast.MustNotBeRenamed) || sym.Kind == ast.SymbolUnbound {
			continue
		}
		renameable = append(renameable, symbolWithCount{
			ref:   ast.Ref{InnerIndex: uint32(i)},
			count: sym.UseCount,
		})
	}

	// Sort by count descending (most used first); ties keep declaration order
	sort.SliceStable(renameable, func(i, j int) bool {
		return renameable[i].count > renameable[j].count
	})

	r.slots = make([]symbolSlot, len(renameable))
	for i, item := range renameable {
		r.symbolSlots[item.ref] = uint32(i)
		r.slots[i] = symbolSlot{count: item.count}
	}
}

// AssignNames assigns minified names to slots.
func (r *MinifyRenamer) AssignNames() {
	nameIndex := 0
	for i := range r.slots {
		// Generate name, skipping reserved ones
		name := r.nameMinifier.NumberToMinifiedName(nameIndex)
		for r.reservedNames[name] {
			nameIndex++
			name = r.nameMinifier.NumberToMinifiedName(nameIndex)
		}
		r.slots[i].name = name
		nameIndex++
	}
}

// SlotCount returns the number of symbols that receive a minified name.
func (r *MinifyRenamer) SlotCount() int {
	return len(r.slots)
}

// NameForSymbol returns the minified name for a symbol.
func (r *MinifyRenamer) NameForSymbol(ref ast.Ref) string {
	if !ref.IsValid() {
		return ""
	}

	idx := ref.InnerIndex
	if int(idx) >= len(r.symbols) {
		return ""
	}

	symbol := &r.symbols[idx]
	if symbol.Flags.Has(ast.MustNotBeRenamed) {
		return symbol.OriginalName
	}

	if slotIdx, ok := r.symbolSlots[ref]; ok {
		return r.slots[slotIdx].name
	}

	// Fallback to original
	return symbol.OriginalName
}

// ----------------------------------------------------------------------------
// Name Generation
// ----------------------------------------------------------------------------

// NameMinifier generates minified identifier names.
type NameMinifier struct {
	// Characters allowed as first character of identifier
	head string
	// Characters allowed in rest of identifier
	tail string
}

// DefaultNameMinifier creates a minifier for JavaScript identifiers.
func DefaultNameMinifier() *NameMinifier {
	return &NameMinifier{
		head: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$",
		tail: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$0123456789",
	}
}

// NumberToMinifiedName converts a number to a minified identifier.
// The sequence is: a, b, ..., z, A, ..., Z, _, $, aa, ba, ca, ...
func (m *NameMinifier) NumberToMinifiedName(n int) string {
	nHead := len(m.head)
	nTail := len(m.tail)

	// First character from head alphabet
	result := make([]byte, 0, 4)
	result = append(result, m.head[n%nHead])
	n = n / nHead

	// Subsequent characters from tail alphabet
	for n > 0 {
		n--
		result = append(result, m.tail[n%nTail])
		n = n / nTail
	}

	return string(result)
}

// ShuffleByCharFreq reorders the alphabet based on character frequency
// in the source code. This improves gzip compression.
func (m *NameMinifier) ShuffleByCharFreq(freq CharFreq) *NameMinifier {
	type charCount struct {
		char  byte
		count int32
		index int
	}

	chars := make([]charCount, len(m.tail))
	for i := 0; i < len(m.tail); i++ {
		chars[i] = charCount{char: m.tail[i], count: freq[charFreqIndex(m.tail[i])], index: i}
	}

	sort.SliceStable(chars, func(i, j int) bool {
		return chars[i].count > chars[j].count
	})

	var newHead, newTail []byte
	for _, c := range chars {
		newTail = append(newTail, c.char)
		// Head excludes digits
		if c.char < '0' || c.char > '9' {
			newHead = append(newHead, c.char)
		}
	}

	return &NameMinifier{
		head: string(newHead),
		tail: string(newTail),
	}
}

// ----------------------------------------------------------------------------
// Character Frequency Analysis
// ----------------------------------------------------------------------------

// CharFreq is a histogram of identifier character frequencies.
type CharFreq [64]int32

func charFreqIndex(c byte) int {
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a')
	case c >= 'A' && c <= 'Z':
		return int(c - 'A' + 26)
	case c >= '0' && c <= '9':
		return int(c - '0' + 52)
	case c == '_':
		return 62
	case c == '$':
		return 63
	}
	return -1
}

// Scan accumulates character frequencies from text.
func (freq *CharFreq) Scan(text string, delta int32) {
	for i := 0; i < len(text); i++ {
		if idx := charFreqIndex(text[i]); idx >= 0 {
			freq[idx] += delta
		}
	}
}

// ----------------------------------------------------------------------------
// Reserved Names
// ----------------------------------------------------------------------------

// ComputeReservedNames builds the set of names a generated name may not
// take: keywords, reserved words, a few global values, and the original
// name of every symbol that keeps its spelling.
func ComputeReservedNames(symbols []ast.Symbol) map[string]bool {
	reserved := make(map[string]bool)

	for kw := range lexer.Keywords {
		reserved[kw] = true
	}
	for word := range lexer.ReservedWords {
		reserved[word] = true
	}
	for _, name := range []string{"arguments", "eval", "undefined", "NaN", "Infinity"} {
		reserved[name] = true
	}

	for i := range symbols {
		sym := &symbols[i]
		if sym.Kind == ast.SymbolUnbound || sym.Flags.Has(ast.MustNotBeRenamed) {
			reserved[sym.OriginalName] = true
		}
	}

	return reserved
}
