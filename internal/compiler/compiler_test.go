package compiler

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEntry(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.mun")
	if err := os.WriteFile(entry, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return entry
}

func TestCompileEmptyMainProducesWasmBinary(t *testing.T) {
	entry := writeEntry(t, "void main() {}\n")

	out, errs := Compile(entry)
	if len(errs) != 0 {
		t.Fatalf("Compile: %v", errs)
	}
	if len(out) < 8 || string(out[:4]) != "\x00asm" {
		t.Errorf("Compile output does not start with the WASM magic number: %x", out[:minInt(len(out), 8)])
	}
}

func TestCompileToWATProducesTextForm(t *testing.T) {
	entry := writeEntry(t, "void main() {}\n")

	text, errs := CompileToWAT(entry)
	if len(errs) != 0 {
		t.Fatalf("CompileToWAT: %v", errs)
	}
	if !hasPrefix(text, "(module $main") {
		t.Errorf("CompileToWAT output = %q, want it to start with the module header", text)
	}
}

func TestCompileReportsParseErrorsWithoutPanicking(t *testing.T) {
	entry := writeEntry(t, "void main( {\n")

	_, errs := Compile(entry)
	if len(errs) == 0 {
		t.Fatal("expected parse errors for malformed source")
	}
}

func TestModuleNameStripsDirectoryAndExtension(t *testing.T) {
	if got := moduleName("/a/b/prog.mun"); got != "prog" {
		t.Errorf("moduleName = %q, want %q", got, "prog")
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
