package wasm

import (
	"strings"
	"testing"
)

func TestTextContainsModuleNameAndExport(t *testing.T) {
	m, err := Build(buildMainModule(), Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := Text(m)

	if !strings.Contains(got, "(module $test") {
		t.Errorf("Text output missing module header:\n%s", got)
	}
	if !strings.Contains(got, `(export "main" (func $main))`) {
		t.Errorf("Text output missing main export:\n%s", got)
	}
	if !strings.Contains(got, "(func $"+allocFuncName) {
		t.Errorf("Text output missing the synthesized allocator:\n%s", got)
	}
}

func TestTextRendersOneDataSegmentPerInternedString(t *testing.T) {
	mod := buildMainModule()
	mod.InternString("hello")
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := Text(m)
	if !strings.Contains(got, `"hello"`) {
		t.Errorf("Text output missing the interned string's data segment:\n%s", got)
	}
}
