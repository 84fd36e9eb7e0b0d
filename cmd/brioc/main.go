// Brio compiler CLI - compiles .brio sources to assembly or runs them on
// the bundled emulator.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"brio/pkg/asm"
	"brio/pkg/compiler"
	"brio/pkg/manifest"
	"brio/pkg/mips"
)

// errDiagnostics marks failures the compiler already reported to the user.
// They exit with code 1; everything else is an internal error and exits 2.
var errDiagnostics = errors.New("compilation failed")

var stderrMu sync.Mutex

func main() {
	output := flag.String("o", "", "Output path for the generated assembly (single input only)")
	run := flag.Bool("run", false, "Assemble and execute instead of writing assembly")
	steps := flag.Int("steps", 0, "Emulator step budget (0 uses the default)")
	tokens := flag.Bool("tokens", false, "Print the token stream and exit")
	showAST := flag.Bool("ast", false, "Print the parsed tree and exit")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: brioc [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles .brio files to assembly, or runs them on the bundled emulator.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  brioc main.brio           # Write main.s next to the source\n")
		fmt.Fprintf(os.Stderr, "  brioc -run main.brio      # Compile, assemble, and execute\n")
		fmt.Fprintf(os.Stderr, "  brioc -o out.s main.brio  # Write assembly to out.s\n")
		fmt.Fprintf(os.Stderr, "  brioc -tokens main.brio   # Dump the token stream\n")
		fmt.Fprintf(os.Stderr, "  brioc -i                  # Start the REPL\n")
		fmt.Fprintf(os.Stderr, "  brioc                     # Build the brio.toml project found from here\n")
	}
	flag.Parse()

	paths := flag.Args()

	if *interactive {
		runREPL(*steps)
		return
	}

	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			fatal(err)
		}
		m, err := manifest.FindAndLoad(cwd)
		if err != nil {
			fatal(err)
		}
		if m != nil {
			exit(compileProject(m, *run, *steps, *verbose))
		}
		if isatty.IsTerminal(os.Stdin.Fd()) {
			runREPL(*steps)
			return
		}
		flag.Usage()
		os.Exit(2)
	}

	if *output != "" && len(paths) != 1 {
		fmt.Fprintln(os.Stderr, "brioc: -o requires exactly one input file")
		os.Exit(2)
	}

	if *tokens || *showAST {
		for _, path := range paths {
			exitOnErr(dumpFile(path, *tokens, *showAST))
		}
		return
	}

	if *run {
		// Sequential so program output arrives in argument order
		for _, path := range paths {
			exitOnErr(runFile(path, *steps, *verbose))
		}
		return
	}

	var g errgroup.Group
	for _, path := range paths {
		g.Go(func() error {
			out := *output
			if out == "" {
				out = assemblyPath(path)
			}
			return compileFile(path, out, *verbose)
		})
	}
	exit(g.Wait())
}

// exit maps an error to the process exit code: nil is success, reported
// diagnostics are 1, anything else is internal and prints before exiting 2.
func exit(err error) {
	if err == nil {
		os.Exit(0)
	}
	if errors.Is(err, errDiagnostics) {
		os.Exit(1)
	}
	fatal(err)
}

// exitOnErr is exit for loops: nil keeps going.
func exitOnErr(err error) {
	if err != nil {
		exit(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "brioc:", err)
	os.Exit(2)
}

// compileSource reads and compiles one file. Diagnostics print to stderr
// under the file name and come back as errDiagnostics.
func compileSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	assembly, report, err := compiler.Compile(string(data))
	if err != nil {
		return "", err
	}
	if !report.Empty() {
		stderrMu.Lock()
		fmt.Fprintf(os.Stderr, "%s:\n%s\n", path, report)
		stderrMu.Unlock()
		return "", errDiagnostics
	}
	return assembly, nil
}

func compileFile(path, out string, verbose bool) error {
	assembly, err := compileSource(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(assembly), 0o644); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(assembly))
	}
	return nil
}

func runFile(path string, steps int, verbose bool) error {
	assembly, err := compileSource(path)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Running %s\n", path)
	}
	if err := runAssembly(assembly, steps, os.Stdout); err != nil {
		stderrMu.Lock()
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		stderrMu.Unlock()
		return errDiagnostics
	}
	return nil
}

// runAssembly assembles the text and executes it, sending program output
// to out.
func runAssembly(text string, steps int, out io.Writer) error {
	prog, err := asm.Assemble(text)
	if err != nil {
		return err
	}
	m := mips.NewMachine(prog, out)
	return m.Run(steps)
}

// compileProject builds the manifest's entry point. The -steps flag wins
// over the manifest's budget when both are set.
func compileProject(m *manifest.Manifest, runIt bool, steps int, verbose bool) error {
	entry := m.EntryPath()
	if verbose {
		fmt.Printf("Building project %s from %s\n", m.Project.Name, entry)
	}

	assembly, err := compileSource(entry)
	if err != nil {
		return err
	}

	if steps == 0 {
		steps = m.Build.Steps
	}
	if runIt {
		return runAssembly(assembly, steps, os.Stdout)
	}

	out := assemblyPath(entry)
	if dir := m.OutputDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		out = filepath.Join(dir, filepath.Base(out))
	}
	if err := os.WriteFile(out, []byte(assembly), 0o644); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(assembly))
	}
	return nil
}

// assemblyPath swaps the source extension for .s.
func assemblyPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".s"
}

// dumpFile prints the front end's view of one file.
func dumpFile(path string, showTokens, showAST bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src := string(data)

	toks, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s:\n%s\n", path, err)
		return errDiagnostics
	}
	if showTokens {
		fmt.Printf("Tokens (%d)\n", len(toks))
		for _, tok := range toks {
			fmt.Println(" ", tok)
		}
		fmt.Println()
	}

	if !showAST {
		return nil
	}
	stmts, err := compiler.Parse(toks, strings.Split(src, "\n"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s:\n%s\n", path, err)
		return errDiagnostics
	}
	fmt.Println("AST")
	for _, s := range stmts {
		fmt.Println(" ", s)
	}
	return nil
}

// runREPL reads programs a blank line at a time. Each complete buffer
// compiles as a whole program and runs on the emulator.
func runREPL(steps int) {
	fmt.Println("Brio REPL. Finish a program with a blank line, Ctrl-D to exit.")

	rl, err := readline.New(">>> ")
	if err != nil {
		fatal(err)
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl-C throws away whatever has accumulated
			buf.Reset()
			rl.SetPrompt(">>> ")
			continue
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, "brioc:", err)
			}
			break
		}

		if line == "" {
			src := buf.String()
			buf.Reset()
			rl.SetPrompt(">>> ")
			if strings.TrimSpace(src) != "" {
				evalAndRun(src, steps)
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		rl.SetPrompt("... ")
	}
	fmt.Println()
}

func evalAndRun(src string, steps int) {
	assembly, report, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "brioc:", err)
		return
	}
	if !report.Empty() {
		fmt.Fprintln(os.Stderr, report)
		return
	}
	if err := runAssembly(assembly, steps, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "brioc:", err)
	}
}
