package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "main.mun"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load with no munic.yaml = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadParsesPresentFile(t *testing.T) {
	dir := t.TempDir()
	const yaml = "memory_pages: 4\nexport_main_as: _start\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(filepath.Join(dir, "main.mun"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemoryPages != 4 {
		t.Errorf("MemoryPages = %d, want 4", cfg.MemoryPages)
	}
	if cfg.ExportMainAs != "_start" {
		t.Errorf("ExportMainAs = %q, want %q", cfg.ExportMainAs, "_start")
	}
	// monomorphization_depth was left unset — normalize should backfill it.
	if cfg.MonomorphizationDepth != defaultMonomorphizationDepth {
		t.Errorf("MonomorphizationDepth = %d, want default %d", cfg.MonomorphizationDepth, defaultMonomorphizationDepth)
	}
}

func TestLoadRejectsInvalidExportName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("export_main_as: bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(dir, "main.mun")); err == nil {
		t.Fatal("expected an error for an invalid export_main_as value")
	}
}

func TestLoadRejectsNegativeMemoryPages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("memory_pages: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(dir, "main.mun")); err == nil {
		t.Fatal("expected an error for a negative memory_pages value")
	}
}
