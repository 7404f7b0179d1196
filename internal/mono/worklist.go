// Package mono provides the worklist bookkeeping internal/resolve uses to
// monomorphize Muni's generic structures and aliases (spec.md §4.5):
// tracking which `(generic definition, concrete type-argument tuple)`
// instantiations have already been requested, deduplicating repeat
// requests by their mangled name, and enforcing the depth bound that
// catches a non-terminating instantiation chain (e.g. a structure whose
// own field type nests one more type argument of itself).
//
// DESIGN CHOICE: unlike the teacher's compiler (whose target has no
// generics and so no monomorphizer at all), this package has no direct
// teacher analogue; it is grounded on the same worklist shape the
// teacher's internal/optimizer uses for its own fixed-point passes
// (enqueue, dedupe by key, drain until empty) generalized to carry a
// chain depth instead of a dirty bit.
package mono

import (
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/lexer"
)

// Key identifies one instantiation request: the mangled name
// (types.Mangle's output) of the generic definition applied to its
// concrete type arguments.
type Key string

// request is one pending or completed instantiation.
type request struct {
	key   Key
	depth int
}

// Worklist deduplicates instantiation requests by Key and bounds the
// instantiation chain depth (spec.md §4.5: monomorphization must be
// "closed" — the set of instantiations reaches a fixed point — and
// diverges with a MonomorphizationDiverges diagnostic if it never would).
type Worklist struct {
	maxDepth int
	pending  []request
	seen     map[Key]int // key -> depth at which it was first requested
}

// NewWorklist creates a Worklist bounding any instantiation chain to
// maxDepth levels deep.
func NewWorklist(maxDepth int) *Worklist {
	return &Worklist{maxDepth: maxDepth, seen: make(map[Key]int)}
}

// Enqueue requests the instantiation named by key, reached via a chain
// parentDepth levels deep (0 for a request originating directly from a
// non-generic call site), attributing any divergence diagnostic to span
// (the call site or field declaration that triggered this request).
// Returns the depth assigned to this instantiation and whether this is
// the first time it has been requested (fresh); a non-fresh request is a
// harmless cache hit, not an error. Returns a MonomorphizationDiverges
// diagnostic if this instantiation would exceed the configured depth
// bound.
func (w *Worklist) Enqueue(key Key, parentDepth int, span lexer.Span) (depth int, fresh bool, err error) {
	if d, ok := w.seen[key]; ok {
		return d, false, nil
	}
	depth = parentDepth + 1
	if depth > w.maxDepth {
		return 0, false, diag.MonomorphizationDiverges(
			span,
			"monomorphization of %q exceeds the maximum instantiation depth (%d); "+
				"this usually means a generic structure or alias nests itself without bound",
			key, w.maxDepth,
		)
	}
	w.seen[key] = depth
	w.pending = append(w.pending, request{key: key, depth: depth})
	return depth, true, nil
}

// Pop removes and returns the next pending request, or ("", 0, false) if
// the worklist is drained — the fixed point spec.md §4.5 requires has
// been reached.
func (w *Worklist) Pop() (Key, int, bool) {
	if len(w.pending) == 0 {
		return "", 0, false
	}
	req := w.pending[0]
	w.pending = w.pending[1:]
	return req.key, req.depth, true
}

// Seen reports whether key has already been requested (completed or
// still pending).
func (w *Worklist) Seen(key Key) bool {
	_, ok := w.seen[key]
	return ok
}

// Len reports how many requests are still pending.
func (w *Worklist) Len() int {
	return len(w.pending)
}
