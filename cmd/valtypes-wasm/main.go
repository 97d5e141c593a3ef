//go:build js && wasm

// Command valtypes-wasm is the WebAssembly build of the value types compiler.
// It exposes compilation to JavaScript via syscall/js, so bundlers and
// playgrounds can compile in the browser.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/HugoDaniel/valtypes/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	Target            string   `json:"target"`
	MinifyWhitespace  *bool    `json:"minifyWhitespace"`
	MinifyIdentifiers *bool    `json:"minifyIdentifiers"`
	MangleTopLevel    *bool    `json:"mangleTopLevel"`
	EmitRuntime       *bool    `json:"emitRuntime"`
	HelperPrefix      string   `json:"helperPrefix"`
	SourceMap         *bool    `json:"sourceMap"`
	SourceName        string   `json:"sourceName"`
	KeepNames         []string `json:"keepNames"`
}

func main() {
	// Export functions to JavaScript
	js.Global().Set("__valtypes", js.ValueOf(map[string]interface{}{
		"compile": js.FuncOf(compileJS),
		"reflect": js.FuncOf(reflectJS),
		"runtime": js.FuncOf(runtimeJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// compileJS is the JavaScript-callable compile function.
// Signature: __valtypes.compile(source: string, options?: object) => object
func compileJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("compile requires at least 1 argument (source)")
	}
	source := args[0].String()

	var opts api.CompileOptions
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		jsOpts, err := parseOptions(args[1])
		if err != nil {
			return makeError("invalid options: " + err.Error())
		}
		opts = jsOpts.toAPI()
	}

	result := api.CompileWithOptions(source, opts)
	return map[string]interface{}{
		"code":         result.Code,
		"errors":       stringsToJS(result.Errors),
		"warnings":     stringsToJS(result.Warnings),
		"originalSize": result.OriginalSize,
		"outputSize":   result.OutputSize,
		"sourceMap":    result.SourceMap,
	}
}

// reflectJS returns the bindings report as a plain object.
// Signature: __valtypes.reflect(source: string) => object
func reflectJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("reflect requires 1 argument (source)")
	}
	data, err := json.Marshal(api.Reflect(args[0].String()))
	if err != nil {
		return makeError(err.Error())
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

// runtimeJS returns the support library source.
// Signature: __valtypes.runtime(helperPrefix?: string) => string
func runtimeJS(this js.Value, args []js.Value) interface{} {
	prefix := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		prefix = args[0].String()
	}
	return api.Runtime(prefix)
}

// parseOptions extracts options from a JS object.
func parseOptions(jsVal js.Value) (jsOptions, error) {
	var opts jsOptions
	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	err := json.Unmarshal([]byte(jsonStr), &opts)
	return opts, err
}

func (o jsOptions) toAPI() api.CompileOptions {
	opts := api.CompileOptions{
		Target:       o.Target,
		HelperPrefix: o.HelperPrefix,
		KeepNames:    o.KeepNames,
	}
	if o.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *o.MinifyWhitespace
	}
	if o.MinifyIdentifiers != nil {
		opts.MinifyIdentifiers = *o.MinifyIdentifiers
	}
	if o.MangleTopLevel != nil {
		opts.MangleTopLevel = *o.MangleTopLevel
	}
	if o.EmitRuntime != nil {
		opts.EmitRuntime = *o.EmitRuntime
	}
	if o.SourceMap != nil && *o.SourceMap {
		opts.SourceMap = true
		opts.SourceMapOptions = api.SourceMapOptions{SourceName: o.SourceName, IncludeSource: true}
	}
	return opts
}

func stringsToJS(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"code":         "",
		"errors":       []interface{}{msg},
		"warnings":     []interface{}{},
		"originalSize": 0,
		"outputSize":   0,
	}
}
