// Package muni is the public façade over internal/compiler — the two
// functions spec.md §1 names as the compiler's entire external API,
// re-exported from the internal pipeline package so external callers
// never import anything under internal/.
package muni

import "github.com/hassan/munic/internal/compiler"

// Compile translates the Muni source file at sourcePath into a
// WebAssembly binary module.
func Compile(sourcePath string) ([]byte, []error) {
	return compiler.Compile(sourcePath)
}

// CompileToWAT translates the Muni source file at sourcePath into
// WebAssembly text format.
func CompileToWAT(sourcePath string) (string, []error) {
	return compiler.CompileToWAT(sourcePath)
}
