package compiler

import (
	"testing"

	"github.com/hassan/munic/internal/diag"
)

// TestEndToEndScenariosCompile exercises spec.md §8's end-to-end scenarios
// at the compile stage: each program is expected to reach WASM emission
// with no diagnostics. Actually running the emitted module against a host
// printing to stdout is out of this compiler's scope (see cmd/munic's
// "run" stub and the "Dropped teacher dependencies" entry on wazero in
// DESIGN.md) — these assert the pipeline that feeds that external step
// completes cleanly.
func TestEndToEndScenariosCompile(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "write_int literal",
			src:  `void main() { write_int(42); }`,
		},
		{
			name: "for-loop accumulation",
			src:  `void main() { int s = 0; for(int i = 1; i <= 10; i += 1) { s += i; } write_int(s); }`,
		},
		{
			name: "array literal and index",
			src:  `void main() { array<int> a = [10, 20, 30]; write_int(a[1]); }`,
		},
		{
			name: "print via std",
			src:  `void main() { print("hi"); }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := writeEntry(t, tt.src)
			out, errs := Compile(entry)
			if len(errs) != 0 {
				t.Fatalf("Compile(%q): %v", tt.src, errs)
			}
			if len(out) < 8 {
				t.Errorf("Compile(%q) produced a suspiciously small module (%d bytes)", tt.src, len(out))
			}
		})
	}
}

func TestCyclicAliasFailsWithAliasCycleDiagnostic(t *testing.T) {
	entry := writeEntry(t, "alias A = B; alias B = A; void main() {}\n")

	_, errs := Compile(entry)
	if len(errs) == 0 {
		t.Fatal("expected a cyclic alias to fail compilation")
	}
	var found bool
	for _, err := range errs {
		if diag.Is(err, diag.KindAliasCycle) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an AliasCycle diagnostic among %v", errs)
	}
}
