// Package compiler orchestrates the full Muni pipeline — import
// resolution, name/type resolution with monomorphization, IR lowering,
// optimization, and WASM emission — behind the two entry points spec.md
// §1 names: Compile and CompileToWAT. Grounded directly on the teacher's
// own cmd/compiler/main.go staged-progress pipeline (read source, lex,
// parse, analyze, lower, optimize — reporting each stage's errors before
// moving to the next), generalized from a CLI's main() into a reusable
// package function so cmd/munic and pkg/muni can both call it.
package compiler

import (
	"path/filepath"
	"strings"

	"github.com/hassan/munic/internal/config"
	"github.com/hassan/munic/internal/importer"
	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/optimizer"
	"github.com/hassan/munic/internal/resolve"
	"github.com/hassan/munic/internal/wasm"
)

// Compile runs the full pipeline over the Muni source at sourcePath and
// returns the compiled WASM binary. On any pipeline-stage failure it
// returns every diagnostic collected up to that point (spec.md §7:
// accumulate and continue within a stage, abort between stages) and a
// nil byte slice.
func Compile(sourcePath string) ([]byte, []error) {
	mod, errs := build(sourcePath)
	if len(errs) > 0 {
		return nil, errs
	}
	return wasm.Encode(mod), nil
}

// CompileToWAT runs the same pipeline and returns the WebAssembly text
// form instead of the binary encoding (spec.md §4.7).
func CompileToWAT(sourcePath string) (string, []error) {
	mod, errs := build(sourcePath)
	if len(errs) > 0 {
		return "", errs
	}
	return wasm.Text(mod), nil
}

// build runs every pipeline stage through WASM layout computation,
// shared by Compile and CompileToWAT so the two can never disagree about
// what was compiled (spec.md §9's round-trip-emission property starts
// here: one *wasm.Module, two renderers).
func build(sourcePath string) (*wasm.Module, []error) {
	cfg, err := config.Load(sourcePath)
	if err != nil {
		return nil, []error{err}
	}

	imp := importer.New()
	flattened, errs := imp.Resolve(sourcePath)
	if len(errs) > 0 {
		return nil, errs
	}

	resolver := resolve.New(cfg.MonomorphizationDepth)
	prog, errs := resolver.Resolve(flattened)
	if len(errs) > 0 {
		return nil, errs
	}

	irModule, errs := ir.Build(moduleName(sourcePath), prog)
	if len(errs) > 0 {
		return nil, errs
	}

	opt := optimizer.NewOptimizer()
	if err := opt.Optimize(irModule); err != nil {
		return nil, []error{err}
	}

	wasmCfg := wasm.Config{InitialMemoryPages: cfg.MemoryPages, ExportMainName: cfg.ExportMainAs}
	wasmModule, err := wasm.Build(irModule, wasmCfg)
	if err != nil {
		return nil, []error{err}
	}

	return wasmModule, nil
}

// moduleName derives the emitted module's name from the entry file's
// base name, stripping its extension — used only for the WASM module's
// own `(module $name ...)` label, not for any linking concern.
func moduleName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
