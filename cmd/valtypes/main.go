// Command valtypes compiles JavaScript that uses value objects (#{...},
// #[...] and the # freeze operator) into plain JavaScript that calls the
// value types support library.
//
// Usage:
//
//	valtypes [options] <input.js>
//	cat input.js | valtypes [options]
//	valtypes -repl
//
// Options:
//
//	-o <file>                 Write output to file (default: stdout)
//	-config <file>            Use specific config file
//	-no-config                Ignore config files
//	-target es5|es2015        Output language level (default es2015)
//	-minify                   Enable all minification
//	-minify-whitespace        Remove unnecessary whitespace
//	-minify-identifiers       Shorten local identifier names
//	-mangle-top-level         Also shorten top-level names
//	-keep-names <names>       Comma-separated names to preserve
//	-emit-runtime             Prepend the support library to the output
//	-source-map               Write a source map (inline without -o)
//	-run                      Evaluate the program instead of printing it
//	-engine go|otto           Evaluator for -run and -repl (default go)
//	-repl                     Start an interactive session
//	-print-runtime            Print the support library and exit
//	-reflect                  Print the program's bindings as JSON and exit
//	-stats                    Print compilation statistics to stderr
//	-version                  Print version and exit
//
// Config file:
//
//	valtypes looks for valtypes.config.json, .valtypesrc.json, valtypes.yaml
//	or .valtypesrc.yaml in the input's directory and its parents.
//	VALTYPES_* environment variables override the file and CLI flags
//	override both.
//
// Example valtypes.config.json:
//
//	{
//	    "target": "es5",
//	    "emitRuntime": true,
//	    "helpers": {"freeze": "vtFreeze"}
//	}
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/compiler"
	"github.com/HugoDaniel/valtypes/internal/config"
	"github.com/HugoDaniel/valtypes/internal/helpers"
	"github.com/HugoDaniel/valtypes/internal/interp"
	"github.com/HugoDaniel/valtypes/internal/jsengine"
	"github.com/HugoDaniel/valtypes/internal/parser"
	"github.com/HugoDaniel/valtypes/internal/reflect"
	"github.com/HugoDaniel/valtypes/internal/sourcemap"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	err := run()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	outputFile        string
	configFile        string
	noConfig          bool
	target            string
	minifyAll         bool
	minifyWhitespace  bool
	minifyIdentifiers bool
	mangleTopLevel    bool
	keepNames         string
	emitRuntime       bool
	sourceMap         bool
	run               bool
	engine            string
	timeout           time.Duration
	repl              bool
	printRuntime      bool
	reflect           bool
	stats             bool
	showVersion       bool
	showHelp          bool

	// Names of the flags given on the command line
	set map[string]bool
}

func parseFlags() *flags {
	f := &flags{set: make(map[string]bool)}

	flag.StringVar(&f.outputFile, "o", "", "Write output to `file`")
	flag.StringVar(&f.configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&f.noConfig, "no-config", false, "Ignore config files")
	flag.StringVar(&f.target, "target", "es2015", "Output language `level`: es5 or es2015")
	flag.BoolVar(&f.minifyAll, "minify", false, "Enable all minification")
	flag.BoolVar(&f.minifyWhitespace, "minify-whitespace", false, "Remove unnecessary whitespace")
	flag.BoolVar(&f.minifyIdentifiers, "minify-identifiers", false, "Shorten local identifier names")
	flag.BoolVar(&f.mangleTopLevel, "mangle-top-level", false, "Also shorten top-level names")
	flag.StringVar(&f.keepNames, "keep-names", "", "Comma-separated `names` to preserve")
	flag.BoolVar(&f.emitRuntime, "emit-runtime", false, "Prepend the support library to the output")
	flag.BoolVar(&f.sourceMap, "source-map", false, "Write a source map (inline when writing to stdout)")
	flag.BoolVar(&f.run, "run", false, "Evaluate the program instead of printing it")
	flag.StringVar(&f.engine, "engine", "go", "Evaluator for -run and -repl: go or otto")
	flag.DurationVar(&f.timeout, "timeout", 0, "Stop the otto engine after `duration` (0 means no limit)")
	flag.BoolVar(&f.repl, "repl", false, "Start an interactive session")
	flag.BoolVar(&f.printRuntime, "print-runtime", false, "Print the support library and exit")
	flag.BoolVar(&f.reflect, "reflect", false, "Print the program's bindings as JSON and exit")
	flag.BoolVar(&f.stats, "stats", false, "Print compilation statistics to stderr")
	flag.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&f.showHelp, "help", false, "Print help and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "valtypes - value types compiler v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: valtypes [options] <input.js>\n")
		fmt.Fprintf(os.Stderr, "       cat input.js | valtypes [options]\n")
		fmt.Fprintf(os.Stderr, "       valtypes -repl\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for valtypes.config.json, .valtypesrc.json, valtypes.yaml or\n")
		fmt.Fprintf(os.Stderr, "  .valtypesrc.yaml in the input's directory and its parents.\n")
		fmt.Fprintf(os.Stderr, "  VALTYPES_* variables override the file; CLI flags override both.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  valtypes app.js -o app.out.js\n")
		fmt.Fprintf(os.Stderr, "  valtypes -target es5 -emit-runtime app.js > bundle.js\n")
		fmt.Fprintf(os.Stderr, "  valtypes -run -engine otto app.js\n")
	}

	flag.Parse()
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f
}

func run() error {
	f := parseFlags()

	if f.showHelp {
		flag.Usage()
		return nil
	}
	if f.showVersion {
		fmt.Printf("valtypes v%s (%s)\n", version, commit)
		return nil
	}
	if f.engine != "go" && f.engine != "otto" {
		return fmt.Errorf("unknown engine %q (expected go or otto)", f.engine)
	}

	opts, err := loadOptions(f)
	if err != nil {
		return err
	}

	if f.printRuntime {
		_, err := io.WriteString(os.Stdout, helpers.Prelude(opts.Helpers))
		return err
	}
	if f.repl {
		return runREPL(opts, f.engine, f.timeout)
	}

	// Read input
	source, err := readInput()
	if err != nil {
		return err
	}
	if flag.NArg() > 0 {
		opts.SourcePath = flag.Arg(0)
	}

	if f.reflect {
		return printReflection(source)
	}
	if f.run {
		return runProgram(source, opts, f.engine, f.timeout)
	}
	return compile(source, opts, f)
}

func readInput() (string, error) {
	if flag.NArg() > 0 {
		// Read from file
		source, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(source), nil
	}

	// Check if stdin is a pipe
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		flag.Usage()
		return "", fmt.Errorf("no input file specified")
	}
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(source), nil
}

// loadOptions combines the config file, the environment and the flags.
func loadOptions(f *flags) (compiler.Options, error) {
	var cfg *config.Config
	if !f.noConfig {
		var err error
		var configPath string
		if f.configFile != "" {
			cfg, err = config.LoadFile(f.configFile)
			if err != nil {
				return compiler.Options{}, fmt.Errorf("loading config file %s: %w", f.configFile, err)
			}
			configPath = f.configFile
		} else {
			startDir, _ := os.Getwd()
			if flag.NArg() > 0 {
				startDir = filepath.Dir(flag.Arg(0))
			}
			cfg, configPath, err = config.Load(startDir)
			if err != nil {
				return compiler.Options{}, fmt.Errorf("loading config: %w", err)
			}
		}
		if configPath != "" {
			glog.V(1).Infof("using config %s", configPath)
		}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return compiler.Options{}, err
	}

	// Only flags given on the command line override
	cli := config.MergeOptions{}
	if f.set["target"] {
		cli.Target = &f.target
	}
	if f.set["minify"] {
		cli.MinifyWhitespace = &f.minifyAll
		cli.MinifyIdentifiers = &f.minifyAll
	}
	if f.set["minify-whitespace"] {
		cli.MinifyWhitespace = &f.minifyWhitespace
	}
	if f.set["minify-identifiers"] {
		cli.MinifyIdentifiers = &f.minifyIdentifiers
	}
	if f.set["emit-runtime"] {
		cli.EmitRuntime = &f.emitRuntime
	}
	if f.keepNames != "" {
		for _, name := range strings.Split(f.keepNames, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cli.KeepNames = append(cli.KeepNames, name)
			}
		}
	}

	opts, err := cfg.Merge(cli)
	if err != nil {
		return opts, err
	}
	if f.set["mangle-top-level"] {
		opts.MangleTopLevel = f.mangleTopLevel
	}
	opts.GenerateSourceMap = f.sourceMap
	return opts, nil
}

func compile(source string, opts compiler.Options, f *flags) error {
	if f.sourceMap && f.outputFile != "" {
		opts.SourceMapOptions = compiler.SourceMapOptions{
			File:          filepath.Base(f.outputFile),
			IncludeSource: true,
		}
	}

	result := compiler.New(opts).Compile(source)
	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, formatDiagnostic(opts.SourcePath, d.Error(), d.Frame))
	}

	// Check for errors
	if len(result.Errors) > 0 {
		if len(result.Diagnostics) == 0 {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", sourceName(opts.SourcePath), e.String())
			}
		}
		return fmt.Errorf("compilation failed with %d error(s)", len(result.Errors))
	}

	code := result.Code
	if result.SourceMap != nil {
		if f.outputFile != "" {
			mapFile := f.outputFile + ".map"
			data, err := result.SourceMap.JSON()
			if err != nil {
				return fmt.Errorf("encoding source map: %w", err)
			}
			if err := os.WriteFile(mapFile, data, 0644); err != nil {
				return fmt.Errorf("writing source map: %w", err)
			}
			code = withTrailingNewline(code) + sourcemap.Comment(filepath.Base(mapFile)) + "\n"
		} else {
			uri, err := result.SourceMap.DataURI()
			if err != nil {
				return fmt.Errorf("encoding source map: %w", err)
			}
			code = withTrailingNewline(code) + sourcemap.Comment(uri) + "\n"
		}
	}

	// Write output
	var output io.Writer = os.Stdout
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		output = file
	}
	if _, err := io.WriteString(output, code); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if f.stats {
		s := result.Stats
		fmt.Fprintf(os.Stderr, "Compiled: %d -> %d bytes\n", s.OriginalSize, s.OutputSize)
		fmt.Fprintf(os.Stderr, "  freezes: %d, equalities: %d, assignments: %d, updates: %d, temporaries: %d\n",
			s.Freezes, s.Equalities, s.Assignments, s.Updates, s.Temporaries)
		if opts.MinifyIdentifiers {
			fmt.Fprintf(os.Stderr, "  symbols: %d, renamed: %d\n", s.SymbolsTotal, s.SymbolsRenamed)
		}
	}
	return nil
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func sourceName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}

func formatDiagnostic(path, message, frame string) string {
	s := sourceName(path) + ":" + message
	if frame != "" {
		s += "\n" + frame
	}
	return s
}

func printReflection(source string) error {
	data, err := json.MarshalIndent(reflect.Reflect(source), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(data))
	return err
}

// runProgram compiles source and evaluates it with the chosen engine.
// Output goes to stdout; the completion value is not printed.
func runProgram(source string, opts compiler.Options, engine string, timeout time.Duration) error {
	if engine == "otto" {
		e, err := jsengine.New(jsengine.Options{Helpers: opts.Helpers, Timeout: timeout})
		if err != nil {
			return err
		}
		opts.Target = compiler.ES5
		opts.EmitRuntime = false
		opts.GenerateSourceMap = false
		result := compiler.New(opts).Compile(source)
		if len(result.Errors) > 0 {
			return fmt.Errorf("%s: %s", sourceName(opts.SourcePath), result.Errors[0].String())
		}
		_, err = e.Run(result.Code)
		return err
	}

	tree, errs := parser.New(source).Parse()
	if len(errs) > 0 {
		return fmt.Errorf("%s: %v", sourceName(opts.SourcePath), errs[0])
	}
	tree.SourcePath = opts.SourcePath
	result := compiler.New(opts).CompileTree(tree)
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %s", sourceName(opts.SourcePath), result.Errors[0].String())
	}
	_, err := interp.New(interp.Options{Helpers: opts.Helpers}).Run(tree)
	return err
}
