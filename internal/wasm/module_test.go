package wasm

import (
	"testing"

	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/types"
)

// buildMainModule returns a minimal *ir.Module whose sole function "main"
// returns the constant 42 — just enough for a single function index, one
// string-free layout, and no host imports.
func buildMainModule() *ir.Module {
	mod := ir.NewModule("test")
	fn := ir.NewFunction("main", nil, types.Int)
	fn.Entry.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 42, Type: types.Int}})
	mod.AddFunction(fn)
	return mod
}

func TestBuildRejectsModuleWithNoMain(t *testing.T) {
	mod := ir.NewModule("test")
	fn := ir.NewFunction("helper", nil, types.Int)
	fn.Entry.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 1, Type: types.Int}})
	mod.AddFunction(fn)

	if _, err := Build(mod, Config{}); err == nil {
		t.Fatal("expected an error for a module with no main function")
	}
}

func TestBuildDefaultsConfig(t *testing.T) {
	m, err := Build(buildMainModule(), Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.MemoryPages != 1 {
		t.Errorf("MemoryPages = %d, want 1", m.MemoryPages)
	}
	if m.ExportName != "main" {
		t.Errorf("ExportName = %q, want %q", m.ExportName, "main")
	}
}

func TestBuildHonorsExplicitConfig(t *testing.T) {
	m, err := Build(buildMainModule(), Config{InitialMemoryPages: 4, ExportMainName: "_start"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.MemoryPages != 4 {
		t.Errorf("MemoryPages = %d, want 4", m.MemoryPages)
	}
	if m.ExportName != "_start" {
		t.Errorf("ExportName = %q, want %q", m.ExportName, "_start")
	}
}

func TestFuncIndexSpaceOrdersImportsBeforeDefinitions(t *testing.T) {
	mod := ir.NewModule("test")
	mod.HostImports = append(mod.HostImports, &ir.HostImport{Module: "env", Name: "write_int", Params: []types.Type{types.Int}})
	fn := ir.NewFunction("main", nil, types.Int)
	fn.Entry.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 0, Type: types.Int}})
	mod.AddFunction(fn)

	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if idx := m.FuncIndex["write_int"]; idx != 0 {
		t.Errorf("write_int index = %d, want 0 (first import)", idx)
	}
	if idx := m.FuncIndex["env.write_int"]; idx != 0 {
		t.Errorf("env.write_int index = %d, want 0", idx)
	}
	if idx := m.FuncIndex[allocFuncName]; idx != 1 {
		t.Errorf("%s index = %d, want 1 (right after the one import)", allocFuncName, idx)
	}
	if idx := m.FuncIndex["main"]; idx != 2 {
		t.Errorf("main index = %d, want 2", idx)
	}
}

func TestLayoutStringsStartsPastNullSinkAndAligns(t *testing.T) {
	mod := buildMainModule()
	mod.InternString("hi") // 2 bytes

	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := m.StringOffsets[0]; got != dataSegmentBase {
		t.Errorf("first string offset = %d, want %d", got, dataSegmentBase)
	}
	if m.HeapStart%8 != 0 {
		t.Errorf("HeapStart = %d, not 8-byte aligned", m.HeapStart)
	}
	if m.HeapStart < dataSegmentBase+2 {
		t.Errorf("HeapStart = %d, expected room for the interned string", m.HeapStart)
	}
}

func TestDedupedFuncTypes(t *testing.T) {
	mod := ir.NewModule("test")
	main := ir.NewFunction("main", nil, types.Int)
	main.Entry.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 0, Type: types.Int}})
	mod.AddFunction(main)

	other := ir.NewFunction("other", nil, types.Int)
	other.Entry.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 1, Type: types.Int}})
	mod.AddFunction(other)

	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// main, other, and __alloc all have distinct signatures from each
	// other except main/other, which share (0 params, result): they
	// must dedupe to the same Types entry.
	if m.typeOf["main"] != m.typeOf["other"] {
		t.Errorf("main and other should share a FuncType entry, got %d and %d", m.typeOf["main"], m.typeOf["other"])
	}
	if m.typeOf["main"] == m.typeOf[allocFuncName] {
		t.Error("main and __alloc have different signatures and must not share a FuncType entry")
	}
}
