// Package api provides the public API for the value types compiler.
//
// This package is intended for programmatic use of the compiler.
// For CLI usage, see cmd/valtypes.
package api

import (
	"bytes"

	"github.com/HugoDaniel/valtypes/internal/compiler"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/interp"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/reflect"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// CompileOptions controls compilation.
type CompileOptions struct {
	// Target is "es5" or "es2015" (the default).
	Target string

	// MinifyWhitespace removes unnecessary whitespace and newlines.
	MinifyWhitespace bool

	// MinifyIdentifiers renames local bindings and compiler temporaries to
	// shorter names. Top-level bindings are kept unless MangleTopLevel is set.
	MinifyIdentifiers bool

	// MangleTopLevel also renames top-level bindings. Only safe when the
	// output is not a script whose globals other code reads.
	MangleTopLevel bool

	// KeepNames specifies identifier names that should not be renamed.
	KeepNames []string

	// EmitRuntime prepends the support library, making the output
	// self-contained.
	EmitRuntime bool

	// HelperPrefix is prepended to the four helper names.
	HelperPrefix string

	// SourceMap enables source map generation.
	// If true, the result will include a source map.
	SourceMap bool

	// SourceMapOptions configures source map generation.
	// Only used when SourceMap is true.
	SourceMapOptions SourceMapOptions
}

// SourceMapOptions configures source map generation.
type SourceMapOptions struct {
	// File is the name of the generated file (for the "file" field in the source map).
	File string

	// SourceName is the name of the original source file (for the "sources" array).
	SourceName string

	// IncludeSource embeds the original source code in "sourcesContent".
	// This makes the source map self-contained but increases its size.
	IncludeSource bool
}

// CompileResult contains the compilation output.
type CompileResult struct {
	// Code is the compiled JavaScript. On error it is the original source.
	Code string

	// Errors contains the errors that stopped compilation, as
	// "line:column: message".
	Errors []string

	// Warnings contains the diagnostics that did not stop compilation.
	Warnings []string

	// OriginalSize is the size of the input in bytes.
	OriginalSize int

	// OutputSize is the size of the output in bytes.
	OutputSize int

	// Rewrites counts the freeze operators, equalities and assignments
	// that were rewritten into helper calls.
	Rewrites int

	// SourceMap is the generated source map as a JSON string.
	// Empty if source map generation was not requested.
	SourceMap string

	// SourceMapDataURI is the source map as a data URI for inline embedding.
	// Empty if source map generation was not requested.
	SourceMapDataURI string
}

// Compile compiles source with default options: readable ES2015 output that
// expects the support library to be loaded separately.
func Compile(source string) CompileResult {
	return CompileWithOptions(source, CompileOptions{})
}

// CompileWithOptions compiles source with custom options.
func CompileWithOptions(source string, opts CompileOptions) CompileResult {
	options, errMsg := toCompilerOptions(opts)
	if errMsg != "" {
		return CompileResult{Code: source, Errors: []string{errMsg}, OriginalSize: len(source), OutputSize: len(source)}
	}
	return convertResult(compiler.New(options).Compile(source))
}

func toCompilerOptions(opts CompileOptions) (compiler.Options, string) {
	options := compiler.DefaultOptions()
	if opts.Target != "" {
		target, ok := compiler.ParseTarget(opts.Target)
		if !ok {
			return options, "unknown target " + opts.Target
		}
		options.Target = target
	}
	options.MinifyWhitespace = opts.MinifyWhitespace
	options.MinifyIdentifiers = opts.MinifyIdentifiers
	options.MangleTopLevel = opts.MangleTopLevel
	options.KeepNames = opts.KeepNames
	options.EmitRuntime = opts.EmitRuntime
	options.Helpers = helpers.DefaultNames()
	if opts.HelperPrefix != "" {
		options.Helpers = options.Helpers.WithPrefix(opts.HelperPrefix)
	}
	options.SourcePath = opts.SourceMapOptions.SourceName
	options.GenerateSourceMap = opts.SourceMap
	options.SourceMapOptions = compiler.SourceMapOptions{
		File:          opts.SourceMapOptions.File,
		IncludeSource: opts.SourceMapOptions.IncludeSource,
	}
	return options, ""
}

func convertResult(result compiler.Result) CompileResult {
	apiResult := CompileResult{
		Code:         result.Code,
		Errors:       []string{},
		OriginalSize: result.Stats.OriginalSize,
		OutputSize:   result.Stats.OutputSize,
		Rewrites:     result.Stats.Freezes + result.Stats.Equalities + result.Stats.Assignments + result.Stats.Updates,
	}

	// Convert errors
	for _, e := range result.Errors {
		apiResult.Errors = append(apiResult.Errors, e.String())
	}
	for _, d := range result.Diagnostics {
		if d.Severity != diagnostic.Error {
			apiResult.Warnings = append(apiResult.Warnings, d.Error())
		}
	}

	// Include source map if generated
	if result.SourceMap != nil {
		if data, err := result.SourceMap.JSON(); err == nil {
			apiResult.SourceMap = string(data)
		}
		if uri, err := result.SourceMap.DataURI(); err == nil {
			apiResult.SourceMapDataURI = uri
		}
	}

	return apiResult
}

// Runtime returns the support library source, binding the helpers under
// the default names or, when prefix is non-empty, under prefixed names.
func Runtime(prefix string) string {
	names := helpers.DefaultNames()
	if prefix != "" {
		names = names.WithPrefix(prefix)
	}
	return helpers.Prelude(names)
}

// ----------------------------------------------------------------------------
// Reflection API
// ----------------------------------------------------------------------------

// ReflectResult lists the bindings of a program and whether each is known
// to hold a value object.
type ReflectResult = reflect.ReflectResult

// BindingInfo describes one declared name.
type BindingInfo = reflect.BindingInfo

// Reflect reports the bindings of source without compiling it.
func Reflect(source string) ReflectResult {
	return reflect.Reflect(source)
}

// CompileAndReflectResult combines compilation and reflection output.
type CompileAndReflectResult struct {
	CompileResult
	Reflect ReflectResult
}

// CompileAndReflect parses source once, reports its bindings and compiles it.
func CompileAndReflect(source string, opts CompileOptions) CompileAndReflectResult {
	options, errMsg := toCompilerOptions(opts)
	if errMsg != "" {
		return CompileAndReflectResult{
			CompileResult: CompileResult{Code: source, Errors: []string{errMsg}, OriginalSize: len(source), OutputSize: len(source)},
			Reflect:       ReflectResult{Bindings: []BindingInfo{}, Globals: []string{}},
		}
	}

	tree, errs := parser.New(source).Parse()
	tree.SourcePath = options.SourcePath

	// Reflect before compiling: the transform rewrites the tree in place
	result := CompileAndReflectResult{Reflect: reflect.ReflectTree(tree)}
	if len(errs) > 0 {
		for _, err := range errs {
			result.Reflect.Errors = append(result.Reflect.Errors, err.Message)
		}
		result.CompileResult = convertResult(compiler.New(options).Compile(source))
		return result
	}

	result.CompileResult = convertResult(compiler.New(options).CompileTree(tree))
	return result
}

// ----------------------------------------------------------------------------
// Evaluation API
// ----------------------------------------------------------------------------

// RunResult contains the outcome of evaluating a program.
type RunResult struct {
	// Value is the completion value of the program, formatted the way the
	// console prints it.
	Value string

	// Output is everything the program wrote with console.log.
	Output string

	// Error is the uncaught exception or compile error, if any.
	Error string
}

// Run compiles source and evaluates it with the built-in interpreter.
func Run(source string) RunResult {
	tree, errs := parser.New(source).Parse()
	if len(errs) > 0 {
		return RunResult{Error: compiler.Error{Message: errs[0].Message, Line: errs[0].Line, Column: errs[0].Column}.String()}
	}
	compiled := compiler.New(compiler.DefaultOptions()).CompileTree(tree)
	if len(compiled.Errors) > 0 {
		return RunResult{Error: compiled.Errors[0].String()}
	}

	var out bytes.Buffer
	v, err := interp.New(interp.Options{Stdout: &out}).Run(tree)
	result := RunResult{Output: out.String()}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Value = value.Inspect(v)
	return result
}
