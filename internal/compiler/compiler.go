// Package compiler provides the main compilation API.
//
// It coordinates parsing, the value type transform, renaming and printing
// to produce JavaScript that runs against the support library.
package compiler

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/printer"
	"github.com/HugoDaniel/valtypes/internal/renamer"
	"github.com/HugoDaniel/valtypes/internal/sourcemap"
	"github.com/HugoDaniel/valtypes/internal/transform"
)

// Target is the language level of the output.
type Target uint8

const (
	// ES2015 keeps let and const
	ES2015 Target = iota

	// ES5 lowers let and const to var
	ES5
)

func (t Target) String() string {
	if t == ES5 {
		return "es5"
	}
	return "es2015"
}

// ParseTarget converts a target name as written in configuration.
func ParseTarget(name string) (Target, bool) {
	switch strings.ToLower(name) {
	case "es5":
		return ES5, true
	case "es2015", "es6":
		return ES2015, true
	}
	return ES2015, false
}

// Options controls compilation.
type Options struct {
	// Target selects the output language level
	Target Target

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace bool

	// MinifyIdentifiers renames local bindings and temporaries to short
	// names. Top-level bindings keep theirs unless MangleTopLevel is set.
	MinifyIdentifiers bool

	// MangleTopLevel also renames top-level bindings
	MangleTopLevel bool

	// KeepNames prevents specific names from being renamed
	KeepNames []string

	// EmitRuntime prepends the support library to the output
	EmitRuntime bool

	// Helpers names the support library functions (defaults when empty)
	Helpers helpers.Names

	// SourcePath names the input in diagnostics and source maps
	SourcePath string

	// GenerateSourceMap enables source map generation
	GenerateSourceMap bool

	// SourceMapOptions configures source map output
	SourceMapOptions SourceMapOptions
}

// SourceMapOptions configures source map generation.
type SourceMapOptions struct {
	// File is the name of the generated file (for the "file" field)
	File string

	// IncludeSource embeds the original source in "sourcesContent"
	IncludeSource bool
}

// DefaultOptions returns readable ES2015 output without the runtime.
func DefaultOptions() Options {
	return Options{Target: ES2015}
}

// Result contains the compilation output.
type Result struct {
	// Compiled JavaScript. On error, the original source.
	Code string

	// Errors encountered during compilation
	Errors []Error

	// Diagnostics reported by the transform, warnings included
	Diagnostics []*diagnostic.Diagnostic

	// Statistics about the compilation
	Stats Stats

	// SourceMap is the generated source map (nil if not requested)
	SourceMap *sourcemap.SourceMap
}

// Error represents a compilation error.
type Error struct {
	Code    diagnostic.Code
	Message string
	Line    int
	Column  int
}

func (e Error) String() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Stats provides compilation statistics.
type Stats struct {
	transform.Stats

	OriginalSize   int
	OutputSize     int
	SymbolsTotal   int
	SymbolsRenamed int
}

// Compiler compiles source programs.
type Compiler struct {
	options Options
}

// New creates a new compiler with the given options.
func New(options Options) *Compiler {
	options.Helpers = options.Helpers.Fill()
	return &Compiler{options: options}
}

// Compile compiles the given source code.
func (c *Compiler) Compile(source string) Result {
	result := Result{
		Stats: Stats{OriginalSize: len(source)},
	}

	// 1. Parse into AST
	tree, errs := parser.New(source).Parse()
	tree.SourcePath = c.options.SourcePath

	// 2. Report parse errors
	if len(errs) > 0 {
		for _, err := range errs {
			result.Errors = append(result.Errors, Error{
				Code:    diagnostic.CodeSyntax,
				Message: err.Message,
				Line:    err.Line,
				Column:  err.Column,
			})
		}
		// Return original source on parse error
		result.Code = source
		result.Stats.OutputSize = len(source)
		return result
	}

	// 3. Compile the parsed tree
	treeResult := c.CompileTree(tree)
	treeResult.Stats.OriginalSize = len(source)
	return treeResult
}

// CompileTree transforms and prints a parsed tree. The tree is modified in
// place.
func (c *Compiler) CompileTree(tree *ast.Tree) Result {
	result := Result{Stats: Stats{OriginalSize: len(tree.Source)}}

	transformed := transform.Transform(tree, transform.Options{Helpers: c.options.Helpers})
	result.Stats.Stats = transformed.Stats
	result.Diagnostics = transformed.Diagnostics.Diagnostics()
	if transformed.HasErrors() {
		for _, d := range transformed.Diagnostics.Errors() {
			result.Errors = append(result.Errors, Error{
				Code:    d.Code,
				Message: d.Message,
				Line:    d.Range.Start.Line,
				Column:  d.Range.Start.Column,
			})
		}
		result.Code = tree.Source
		result.Stats.OutputSize = len(tree.Source)
		return result
	}

	// Create renamer
	var ren printer.Renamer
	if c.options.MinifyIdentifiers {
		c.markUnrenameable(tree)
		reserved := renamer.ComputeReservedNames(tree.Symbols)
		for _, name := range c.options.KeepNames {
			reserved[name] = true
		}
		// The prelude declares these at the top level
		reserved["__valueTypes"] = true

		// Draw names from the characters the output already uses most, which
		// compresses better
		var freq renamer.CharFreq
		freq.Scan(tree.Source, 1)

		minRenamer := renamer.NewMinifyRenamer(tree.Symbols, reserved)
		minRenamer.SetNameMinifier(renamer.DefaultNameMinifier().ShuffleByCharFreq(freq))
		minRenamer.AllocateSlots()
		minRenamer.AssignNames()
		result.Stats.SymbolsRenamed = minRenamer.SlotCount()
		ren = minRenamer
	} else {
		ren = renamer.NewNoOpRenamer(tree.Symbols)
	}

	// Create source map generator if enabled
	var sourceMapGen *sourcemap.Generator
	if c.options.GenerateSourceMap {
		sourceMapGen = sourcemap.NewGenerator(tree.Source, c.options.SourcePath)
		sourceMapGen.SetFile(c.options.SourceMapOptions.File)
		sourceMapGen.IncludeSourceContent(c.options.SourceMapOptions.IncludeSource)
	}

	// Print
	p := printer.New(printer.Options{
		MinifyWhitespace: c.options.MinifyWhitespace,
		LowerLetConst:    c.options.Target == ES5,
		Renamer:          ren,
		SourceMap:        sourceMapGen,
	})
	result.Code = p.Print(tree)

	if c.options.EmitRuntime {
		prelude := helpers.Prelude(c.options.Helpers)
		result.Code = prelude + result.Code
		if sourceMapGen != nil {
			sourceMapGen.ShiftLines(strings.Count(prelude, "\n"))
		}
	}

	result.Stats.OutputSize = len(result.Code)
	result.Stats.SymbolsTotal = len(tree.Symbols)
	if sourceMapGen != nil {
		result.SourceMap = sourceMapGen.Generate()
	}

	if glog.V(1) {
		glog.Infof("compile %s: %d -> %d bytes, %d symbols renamed",
			c.sourceName(), result.Stats.OriginalSize, result.Stats.OutputSize, result.Stats.SymbolsRenamed)
	}
	return result
}

// markUnrenameable marks symbols whose names are visible outside the
// compiled program.
func (c *Compiler) markUnrenameable(tree *ast.Tree) {
	keep := make(map[string]bool, len(c.options.KeepNames))
	for _, name := range c.options.KeepNames {
		keep[name] = true
	}

	if !c.options.MangleTopLevel {
		for _, member := range tree.Scope.Members {
			tree.Symbols[member.Ref.InnerIndex].Flags |= ast.MustNotBeRenamed
		}
	}
	for i := range tree.Symbols {
		sym := &tree.Symbols[i]
		if keep[sym.OriginalName] {
			sym.Flags |= ast.MustNotBeRenamed
		}
	}
}

func (c *Compiler) sourceName() string {
	if c.options.SourcePath == "" {
		return "<stdin>"
	}
	return c.options.SourcePath
}

// ----------------------------------------------------------------------------
// Convenience Functions
// ----------------------------------------------------------------------------

// Compile compiles source with optional custom options.
// If no options are provided, DefaultOptions() is used.
func Compile(source string, opts ...Options) Result {
	options := DefaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return New(options).Compile(source)
}
