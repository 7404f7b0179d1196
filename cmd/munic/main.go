// Package main implements the munic CLI: compiling Muni source to
// WebAssembly and a minimal pass-through for already-compiled modules
// (spec.md §6's external interface). Flag parsing follows
// vjache-cie's cmd/cie/main.go (global pflag set, flag.SetInterspersed(false)
// so subcommand-specific flags pass through untouched, a custom flag.Usage);
// the staged "done" reporting follows the teacher's own cmd/compiler/main.go.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/hassan/munic/pkg/muni"
)

func main() {
	var (
		debug = flag.Bool("debug", false, "Print each compiled module's text form before writing output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `munic - Muni to WebAssembly compiler

Usage:
  munic compile <input> <output>   Compile a Muni source file to WASM
  munic run <module>                Validate a compiled WASM module

Output format for "compile" is chosen by the output path's suffix:
".wat" emits WebAssembly text, anything else emits the binary encoding.

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "compile":
		err = runCompile(args[1:], *debug)
	case "run":
		err = runModule(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "munic: unknown command %q\n", args[0])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:")+" "+err.Error())
		os.Exit(1)
	}
}

// runCompile implements "munic compile <input> <output>". It mirrors the
// teacher's staged reporting (one line per pipeline stage that succeeded)
// but collapses the stages behind pkg/muni, which reports only the final
// outcome — per-stage diagnostics are still distinguishable by their
// internal/diag.Kind when printed.
func runCompile(args []string, debug bool) error {
	if len(args) != 2 {
		return fmt.Errorf("compile requires <input> and <output>, got %d argument(s)", len(args))
	}
	input, output := args[0], args[1]

	if strings.EqualFold(filepath.Ext(output), ".wat") {
		text, errs := muni.CompileToWAT(input)
		if len(errs) > 0 {
			return reportDiagnostics(errs)
		}
		if debug {
			fmt.Fprint(os.Stderr, text)
		}
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Println(color.GreenString("✓") + " compiled " + input + " -> " + output)
		return nil
	}

	wasmBytes, errs := muni.Compile(input)
	if len(errs) > 0 {
		return reportDiagnostics(errs)
	}
	if debug {
		if text, errs := muni.CompileToWAT(input); len(errs) == 0 {
			fmt.Fprint(os.Stderr, text)
		}
	}
	if err := os.WriteFile(output, wasmBytes, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Println(color.GreenString("✓") + " compiled " + input + " -> " + output)
	return nil
}

// runModule implements "munic run <module>". spec.md §1 explicitly lists
// "the runtime shell that loads and executes the module" as an external
// collaborator outside this compiler's scope, and SPEC_FULL.md's DOMAIN
// STACK section found no component to attach a WASM runtime (wazero) to:
// every example repo that imports it does so only in a benchmark harness,
// never as a wired production dependency. "run" is kept as a CLI surface
// (spec.md §6 names it) but stops at validating that the file is a module
// munic itself could have produced, rather than executing it.
func runModule(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run requires a <module> argument, got %d argument(s)", len(args))
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) < 8 || string(data[:4]) != "\x00asm" {
		return fmt.Errorf("%s is not a WASM binary module", path)
	}

	fmt.Println(color.YellowString("note:") + " munic does not embed a WASM runtime " +
		"(spec.md scopes module execution to an external host); " + path + " looks like a valid module " +
		"but was not executed. Load it with a WASM-capable runtime shell instead.")
	return nil
}

func reportDiagnostics(errs []error) error {
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, color.RedString("error:")+" "+e.Error())
	}
	return fmt.Errorf("%d error(s)", len(errs))
}
