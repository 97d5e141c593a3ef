package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/HugoDaniel/valtypes/internal/compiler"
	"github.com/HugoDaniel/valtypes/internal/interp"
	"github.com/HugoDaniel/valtypes/internal/jsengine"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/value"
)

const (
	historyFile = ".valtypes_history"
	promptMain  = "> "
	promptCont  = "... "
)

// evaluator runs one REPL entry and formats its completion value.
type evaluator interface {
	eval(source string) (string, error)
}

type goEvaluator struct {
	compiler *compiler.Compiler
	interp   *interp.Interpreter
}

func (g *goEvaluator) eval(source string) (string, error) {
	tree, errs := parser.New(source).Parse()
	if len(errs) > 0 {
		return "", errs[0]
	}
	result := g.compiler.CompileTree(tree)
	if len(result.Errors) > 0 {
		return "", errors.New(result.Errors[0].String())
	}
	v, err := g.interp.Run(tree)
	if err != nil {
		return "", err
	}
	return value.Inspect(v), nil
}

type ottoEvaluator struct {
	compiler *compiler.Compiler
	engine   *jsengine.Engine
}

func (o *ottoEvaluator) eval(source string) (string, error) {
	result := o.compiler.Compile(source)
	if len(result.Errors) > 0 {
		return "", errors.New(result.Errors[0].String())
	}
	v, err := o.engine.Run(result.Code)
	if err != nil {
		return "", err
	}
	return jsengine.Inspect(v), nil
}

func newEvaluator(opts compiler.Options, engine string, timeout time.Duration) (evaluator, error) {
	opts.EmitRuntime = false
	opts.GenerateSourceMap = false
	opts.MinifyIdentifiers = false

	if engine == "otto" {
		e, err := jsengine.New(jsengine.Options{Helpers: opts.Helpers, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		opts.Target = compiler.ES5
		return &ottoEvaluator{compiler: compiler.New(opts), engine: e}, nil
	}
	return &goEvaluator{
		compiler: compiler.New(opts),
		interp:   interp.New(interp.Options{Helpers: opts.Helpers}),
	}, nil
}

func runREPL(opts compiler.Options, engine string, timeout time.Duration) error {
	ev, err := newEvaluator(opts, engine, timeout)
	if err != nil {
		return err
	}
	fmt.Printf("valtypes v%s (%s engine). Type :help for commands.\n", version, engine)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		// Accumulate possibly-multiline input until the parser accepts it
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if done := handleReplCommand(opts, trimmed); done {
				break
			}
			continue
		}

		out, err := ev.eval(code)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(out)
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// handleReplCommand handles :help, :quit and :compile.
func handleReplCommand(opts compiler.Options, line string) (exit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":compile", ":c":
		opts.EmitRuntime = false
		opts.GenerateSourceMap = false
		result := compiler.New(opts).Compile(arg)
		for _, e := range result.Errors {
			fmt.Println(e.String())
		}
		if len(result.Errors) == 0 {
			fmt.Print(withTrailingNewline(result.Code))
		}
	case ":help", ":h":
		fmt.Println(":compile <code>  show the compiled output of code")
		fmt.Println(":quit            leave the session (or press Ctrl+D)")
	default:
		fmt.Printf("unknown command %s (try :help)\n", cmd)
	}
	return false
}

// readByParseProbe reads lines until the parser accepts the buffer or
// reports an error that more input cannot fix.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C aborts the current input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, errs := parser.New(src).Parse()
		if len(errs) == 0 || !looksIncomplete(src, errs[0]) {
			return src, true
		}
	}
}

// looksIncomplete reports whether a parse error means the input stopped
// early, such as an unclosed brace or template.
func looksIncomplete(src string, err parser.ParseError) bool {
	if strings.HasPrefix(err.Message, "unterminated template") {
		return true
	}
	return err.Pos >= len(strings.TrimRight(src, " \t\r\n"))
}
