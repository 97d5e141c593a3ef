// Package jsengine executes compiled output on the otto JavaScript
// interpreter, with the support library loaded as a prelude.
//
// otto implements ES5, so programs must be printed with let and const lowered
// to var. The engine is used to cross-check the Go interpreter and by the CLI
// when -engine=otto is selected.
package jsengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/robertkrimen/otto"
	"github.com/robertkrimen/otto/parser"

	"github.com/HugoDaniel/valtypes/internal/helpers"
)

// ErrTimeout is returned when a script runs longer than Options.Timeout.
var ErrTimeout = errors.New("script timed out")

// valueTag is the hidden property the JavaScript runtime marks value
// objects with.
const valueTag = "__valueObject__"

// Options controls an engine.
type Options struct {
	// Stdout receives console.log output (os.Stdout when nil)
	Stdout io.Writer

	// Helpers are the names the prelude binds the helpers to
	Helpers helpers.Names

	// Timeout bounds every Run (no limit when zero)
	Timeout time.Duration
}

// Engine is an otto VM with the support library installed. It is not safe
// for concurrent use.
type Engine struct {
	vm      *otto.Otto
	options Options
}

// New creates a VM, redirects console.log and evaluates the prelude.
func New(options Options) (*Engine, error) {
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	options.Helpers = options.Helpers.Fill()

	e := &Engine{vm: otto.New(), options: options}
	console, err := e.vm.Get("console")
	if err != nil {
		return nil, err
	}
	if err := console.Object().Set("log", e.consoleLog); err != nil {
		return nil, err
	}
	if _, err := e.vm.Run(helpers.Prelude(options.Helpers)); err != nil {
		return nil, fmt.Errorf("loading runtime: %w", err)
	}
	return e, nil
}

func (e *Engine) consoleLog(call otto.FunctionCall) otto.Value {
	parts := make([]string, len(call.ArgumentList))
	for i, arg := range call.ArgumentList {
		parts[i] = Inspect(arg)
	}
	fmt.Fprintln(e.options.Stdout, strings.Join(parts, " "))
	return otto.UndefinedValue()
}

// Check reports whether src is a valid ES5 program for otto.
func Check(src string) error {
	_, err := parser.ParseFile(nil, "", src, 0)
	return err
}

// Run evaluates src and returns its completion value. Top-level var
// declarations persist between runs.
func (e *Engine) Run(src string) (result otto.Value, err error) {
	if e.options.Timeout > 0 {
		halt := errors.New("halt")
		e.vm.Interrupt = make(chan func(), 1)
		timer := time.AfterFunc(e.options.Timeout, func() {
			e.vm.Interrupt <- func() { panic(halt) }
		})
		defer timer.Stop()
		defer func() {
			if caught := recover(); caught != nil {
				if caught != halt {
					panic(caught)
				}
				err = ErrTimeout
			}
		}()
	}

	start := time.Now()
	result, err = e.vm.Run(src)
	if glog.V(1) {
		glog.Infof("jsengine: ran %d bytes in %v", len(src), time.Since(start))
	}
	return result, err
}

// Global returns the value of a global variable.
func (e *Engine) Global(name string) (otto.Value, error) {
	return e.vm.Get(name)
}

// ----------------------------------------------------------------------------
// Inspection
// ----------------------------------------------------------------------------

const maxInspectDepth = 6

// Inspect renders a value in the same format as value.Inspect, so output from
// both engines can be compared.
func Inspect(v otto.Value) string {
	var b strings.Builder
	inspect(&b, v, 0, false)
	return b.String()
}

func inspect(b *strings.Builder, v otto.Value, depth int, nested bool) {
	switch {
	case v.IsString():
		if nested {
			b.WriteString(strconv.Quote(v.String()))
		} else {
			b.WriteString(v.String())
		}
		return
	case !v.IsObject():
		b.WriteString(v.String())
		return
	}

	o := v.Object()
	switch o.Class() {
	case "Function":
		name, _ := o.Get("name")
		b.WriteString("[Function: " + name.String() + "]")
		return
	case "Error":
		b.WriteString(v.String())
		return
	}
	if tag, err := o.Get(valueTag); err == nil && tag.IsBoolean() {
		if tagged, _ := tag.ToBoolean(); tagged {
			b.WriteByte('#')
		}
	}

	isArray := o.Class() == "Array"
	if depth >= maxInspectDepth {
		if isArray {
			b.WriteString("[...]")
		} else {
			b.WriteString("{...}")
		}
		return
	}

	if isArray {
		length, _ := o.Get("length")
		n, _ := length.ToInteger()
		b.WriteByte('[')
		for i := int64(0); i < n; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			elem, _ := o.Get(strconv.FormatInt(i, 10))
			inspect(b, elem, depth+1, true)
		}
		b.WriteByte(']')
		return
	}

	keys := o.Keys()
	if len(keys) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		prop, _ := o.Get(k)
		inspect(b, prop, depth+1, true)
	}
	b.WriteString(" }")
}
