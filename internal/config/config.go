// Package config reads an optional `munic.yaml` sitting next to the entry
// source file, controlling the non-semantic knobs spec.md leaves as
// "compiler's choice, consistent" (§4.5's monomorphization depth bound,
// §4.7's initial memory page count and main-export name). Grounded on
// github.com/kraklabs/cie's cmd/cie/config.go: a plain struct with
// `yaml:"..."` tags, a loader that treats a missing file as "use the
// defaults" rather than an error, and a small normalize step — generalized
// down to the handful of fields this compiler actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file munic looks for beside the entry source
// file (spec.md leaves its existence optional: "Absence of the file
// means the documented defaults apply").
const FileName = "munic.yaml"

const (
	defaultMemoryPages          = 1
	defaultMonomorphizationDepth = 64
	defaultExportMainAs          = "main"
)

// Config holds munic's non-semantic knobs. Every field's zero value is
// invalid on its own; Load always returns a Config with normalize already
// applied, so callers never see a zero MemoryPages or empty ExportMainAs.
type Config struct {
	// MemoryPages is the WASM memory section's initial page count
	// (spec.md §4.7: "initial 1 page (64 KiB)").
	MemoryPages int `yaml:"memory_pages"`

	// MonomorphizationDepth bounds the instantiation worklist (spec.md
	// §4.5: "a configurable bound (default 64)").
	MonomorphizationDepth int `yaml:"monomorphization_depth"`

	// ExportMainAs names the emitted export for the program's `main`
	// function: "main" or "_start" (spec.md §4.7).
	ExportMainAs string `yaml:"export_main_as"`
}

// Default returns the documented defaults applied when no munic.yaml is
// present, or when a present file leaves a field unset.
func Default() *Config {
	return &Config{
		MemoryPages:           defaultMemoryPages,
		MonomorphizationDepth: defaultMonomorphizationDepth,
		ExportMainAs:          defaultExportMainAs,
	}
}

// Load reads munic.yaml from the same directory as sourcePath, if one
// exists. A missing file is not an error — it returns Default().
func Load(sourcePath string) (*Config, error) {
	path := filepath.Join(filepath.Dir(sourcePath), FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// normalize fills in defaults for any field a partially-specified YAML
// document left at its zero value, and rejects values that would produce
// an invalid module.
func (c *Config) normalize() error {
	if c.MemoryPages == 0 {
		c.MemoryPages = defaultMemoryPages
	}
	if c.MemoryPages < 0 {
		return fmt.Errorf("memory_pages must be positive, got %d", c.MemoryPages)
	}
	if c.MonomorphizationDepth == 0 {
		c.MonomorphizationDepth = defaultMonomorphizationDepth
	}
	if c.MonomorphizationDepth < 0 {
		return fmt.Errorf("monomorphization_depth must be positive, got %d", c.MonomorphizationDepth)
	}
	if c.ExportMainAs == "" {
		c.ExportMainAs = defaultExportMainAs
	}
	if c.ExportMainAs != "main" && c.ExportMainAs != "_start" {
		return fmt.Errorf(`export_main_as must be "main" or "_start", got %q`, c.ExportMainAs)
	}
	return nil
}
