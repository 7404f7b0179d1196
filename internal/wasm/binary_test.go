package wasm

import (
	"bytes"
	"testing"

	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/types"
)

func TestEncodeStartsWithWasmMagicAndVersion(t *testing.T) {
	m, err := Build(buildMainModule(), Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := Encode(m)
	want := append(append([]byte{}, wasmMagic...), wasmVersion...)
	if !bytes.HasPrefix(got, want) {
		t.Fatalf("Encode output does not start with the WASM magic/version header: %x", got[:minInt(len(got), 8)])
	}
}

func TestEncodeContainsEverySectionID(t *testing.T) {
	mod := buildMainModule()
	mod.InternString("x")
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := Encode(m)

	for _, id := range []byte{secType, secFunction, secMemory, secGlobal, secExport, secCode, secData} {
		if !bytes.Contains(got, []byte{id}) {
			t.Errorf("encoded module missing a byte matching section id 0x%x", id)
		}
	}
}

func TestEncodeImportSectionWithNoHostImportsIsJustAZeroCount(t *testing.T) {
	m, err := Build(buildMainModule(), Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := encodeImportSection(m)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("encodeImportSection with no host imports = %x, want a single zero-count byte", got)
	}
}

func TestEncodeWithHostImportProducesImportSection(t *testing.T) {
	mod := buildMainModule()
	mod.HostImports = append(mod.HostImports, &ir.HostImport{Module: "env", Name: "write_int", Params: []types.Type{types.Int}})
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := encodeImportSection(m)
	if len(got) <= 1 {
		t.Errorf("expected a non-trivial import section with one host import, got %x", got)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
