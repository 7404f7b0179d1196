// Package wasm implements spec.md §4.7: rendering an *ir.Module as a
// WebAssembly module, in both the binary (internal/wasm/binary.go) and
// textual (internal/wasm/text.go) encodings, from the same computed
// Module so the two forms are provably consistent (spec.md §9's
// round-trip-emission property).
//
// DESIGN PHILOSOPHY: the teacher repo never grew a code-generation
// backend (its internal/ir stops at an optimized, pretty-printable IR),
// so this package has no teacher analogue to adapt — it is grounded
// instead on the general shape every hand-written WASM encoder takes
// (a type-section dedup cache, a linear section writer, LEB128 varints)
// while keeping the teacher's own habits: a long-lived builder struct
// that accumulates into slices, errors surfaced as plain `error` values,
// doc comments on every exported type explaining the "why" once and the
// "what" rarely.
//
// CONTROL FLOW: ir.Function's basic blocks form an arbitrary CFG
// (Jump/Branch can target any block), but WASM only offers structured
// control (block/loop/if, branching to an enclosing label). Rather than
// reconstruct structured control flow per block (a relooper), every
// function is lowered through one dispatch loop: a local `$pc` selects
// which basic block runs next via a nest of labeled blocks and a
// br_table, the classic technique for targeting a structured VM from an
// arbitrary CFG without a relooper pass. See codegen.go.
package wasm

import (
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/types"
)

// Config carries the non-semantic knobs spec.md leaves as "compiler's
// choice, consistent" (§4.7) — populated from internal/config, or left
// at its zero value's documented defaults when no munic.yaml is present.
type Config struct {
	// InitialMemoryPages is the memory section's initial page count
	// (spec.md §4.7: "initial 1 page (64 KiB), no maximum"). Zero means
	// the default of 1.
	InitialMemoryPages int

	// ExportMainName is the export name given to the program's `main`
	// function — "main" or "_start" (spec.md §4.7). Empty means "main".
	ExportMainName string
}

func (c Config) memoryPages() int {
	if c.InitialMemoryPages <= 0 {
		return 1
	}
	return c.InitialMemoryPages
}

func (c Config) exportMainName() string {
	if c.ExportMainName == "" {
		return "main"
	}
	return c.ExportMainName
}

// dataSegmentBase is the byte offset the first static data segment is
// placed at; the low bytes are reserved as a null-sink so address 0 is
// never a valid allocation (spec.md §6).
const dataSegmentBase = 16

// allocFuncName is the bump allocator's link name, synthesized directly
// into the emitted module rather than supplied as a host import (spec.md
// §4.6: "a runtime __alloc(size: i32) -> i32 provided by the compiler in
// emitted code").
const allocFuncName = "__alloc"

// heapPtrGlobalName names the emitted module's sole mutable global
// (spec.md §6: "The global __heap_ptr holds the next free offset").
const heapPtrGlobalName = "__heap_ptr"

// FuncType is a deduplicated WASM function signature: every Muni value is
// one i32 word (internal/types.Size is always 4), so a signature reduces
// to an arity and whether it returns a value.
type FuncType struct {
	NumParams int
	HasResult bool
}

// funcEntry is one function in the module's combined index space —
// imports first, then the synthesized allocator, then every lowered
// Muni function, matching the WASM rule that the function index space is
// imports-then-locally-defined (spec.md doesn't spell this out; it's
// intrinsic to the format).
type funcEntry struct {
	name       string
	typ        FuncType
	imported   bool
	importMod  string
	importName string
	fn         *ir.Function // nil for an import or the synthesized allocator
}

// Module is the WASM-level rendering of an ir.Module: the function index
// space, the deduplicated type table, and the memory layout (string
// offsets, heap start) both renderers read from.
type Module struct {
	Name string

	Types  []FuncType
	funcs  []funcEntry
	typeOf map[string]int // func name -> index into Types

	// FuncIndex maps a function's link name to its index in the combined
	// (imports + allocator + defined) function index space.
	FuncIndex map[string]int

	// StringOffsets[i] is the byte offset internal string i (by
	// ir.Module.Strings index) is placed at.
	StringOffsets []int

	// HeapStart is __heap_ptr's initial value: the first free byte past
	// every static data segment, aligned to 8 (spec.md §6).
	HeapStart int

	MemoryPages int
	ExportName  string

	src *ir.Module
}

// Build computes a Module's layout from a lowered ir.Module: the function
// index space, deduplicated type table, and static-data memory layout.
// It performs no encoding itself — binary.go and text.go each render
// from the result.
func Build(mod *ir.Module, cfg Config) (*Module, error) {
	m := &Module{
		Name:        mod.Name,
		typeOf:      make(map[string]int),
		FuncIndex:   make(map[string]int),
		MemoryPages: cfg.memoryPages(),
		ExportName:  cfg.exportMainName(),
		src:         mod,
	}

	for _, h := range mod.HostImports {
		ft := FuncType{NumParams: len(h.Params), HasResult: h.ReturnType != nil && h.ReturnType != types.Void}
		m.addFunc(funcEntry{name: h.Module + "." + h.Name, typ: ft, imported: true, importMod: h.Module, importName: h.Name})
		// Host imports are also reachable by their bare declared name —
		// spec.md's single flat call namespace means a lowered Call's
		// Callee is the bare name, not "module.name".
		m.FuncIndex[h.Name] = m.FuncIndex[h.Module+"."+h.Name]
	}

	m.addFunc(funcEntry{name: allocFuncName, typ: FuncType{NumParams: 1, HasResult: true}})

	for _, fn := range mod.Functions {
		ft := FuncType{NumParams: len(fn.Params), HasResult: fn.ReturnType != nil && fn.ReturnType != types.Void}
		m.addFunc(funcEntry{name: fn.Name, typ: ft, fn: fn})
	}

	if _, ok := m.FuncIndex["main"]; !ok {
		return nil, diag.EmitError("module %q declares no main function", mod.Name)
	}

	m.layoutStrings(mod.Strings)

	return m, nil
}

func (m *Module) addFunc(e funcEntry) {
	if _, ok := m.typeOf[e.name]; ok {
		return
	}
	m.FuncIndex[e.name] = len(m.funcs)
	m.funcs = append(m.funcs, e)
	m.typeOf[e.name] = m.internType(e.typ)
}

// internType returns typ's index into Types, adding it if this is the
// first function with this exact signature (spec.md §4.7: "one function
// type per distinct (params, result) signature; deduplicated").
func (m *Module) internType(typ FuncType) int {
	for i, t := range m.Types {
		if t == typ {
			return i
		}
	}
	idx := len(m.Types)
	m.Types = append(m.Types, typ)
	return idx
}

// layoutStrings assigns each interned literal a deterministic byte offset
// starting at dataSegmentBase, and sets HeapStart to the first 8-byte
// aligned offset after the last one (spec.md §6).
func (m *Module) layoutStrings(strs []string) {
	offset := dataSegmentBase
	m.StringOffsets = make([]int, len(strs))
	for i, s := range strs {
		m.StringOffsets[i] = offset
		offset += len(s)
	}
	m.HeapStart = alignUp(offset, 8)
}

func alignUp(n, align int) int {
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// importCount returns how many entries of the function index space are
// host imports (they precede every locally defined function, including
// the synthesized allocator).
func (m *Module) importCount() int {
	n := 0
	for _, f := range m.funcs {
		if f.imported {
			n++
		}
	}
	return n
}
