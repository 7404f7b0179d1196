// Package ir implements Muni's intermediate representation: the form
// internal/resolve's Program is lowered into (spec.md §4.6) before
// internal/wasm emits a module from it.
//
// DESIGN PHILOSOPHY (kept from the teacher's own internal/ir): a small,
// explicit instruction set over basic blocks, values are a single struct
// tagged with a Kind rather than one Go type per value flavor, and every
// instruction exposes its operands/result uniformly for whatever analysis
// a later pass needs.
//
// DEPARTURE FROM THE TEACHER: this IR is not SSA. Every Muni value is a
// single i32 word (types.Size is always 4 — see internal/types), so the
// lowering target is WebAssembly's natively mutable locals, not registers
// that need phi nodes to merge at control-flow joins. A WASM local already
// holds whatever was last written to it along whichever path execution
// took to reach the read, which is exactly what a phi node exists to
// simulate in a register-based IR. So there is no Phi/PhiIncoming/Alloca
// here: a "local" is just a Value of Kind ValueLocal, written with Copy,
// read by using the Value directly as an operand.
package ir

import (
	"fmt"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/types"
)

// Value is a single i32-word-sized IR value: a function parameter, a
// declared local or compiler-generated temporary (both map onto a WASM
// local slot, so they share one Kind), or a compile-time constant.
type Value struct {
	ID       int
	Name     string // empty for a temporary
	Type     types.Type
	Kind     ValueKind
	Constant int32 // meaningful only when Kind == ValueConstant
}

type ValueKind int

const (
	ValueParameter ValueKind = iota
	ValueLocal
	ValueConstant
)

func (v *Value) String() string {
	switch v.Kind {
	case ValueConstant:
		return fmt.Sprintf("const(%d)", v.Constant)
	case ValueParameter:
		if v.Name != "" {
			return fmt.Sprintf("param(%s.%d)", v.Name, v.ID)
		}
		return fmt.Sprintf("param(%d)", v.ID)
	default:
		if v.Name != "" {
			return fmt.Sprintf("%s.%d", v.Name, v.ID)
		}
		return fmt.Sprintf("t%d", v.ID)
	}
}

func (v *Value) IsConstant() bool { return v.Kind == ValueConstant }

// Instruction is one IR operation. Every concrete instruction reports the
// values it reads and the value it writes (nil for one with no result),
// the same shape the teacher's IR uses for data-flow analysis.
type Instruction interface {
	String() string
	Operands() []*Value
	Result() *Value
}

// BinaryOp is `Dest = Left Op Right`, reusing ast.BinaryOp directly rather
// than redefining an equivalent enum — resolve has already picked the
// operator apart from its token, so the lowerer has nothing to add.
type BinaryOp struct {
	Op          ast.BinaryOp
	Dest        *Value
	Left, Right *Value
}

func (b *BinaryOp) String() string      { return fmt.Sprintf("%s = %s %s %s", b.Dest, b.Left, binaryOpSymbol(b.Op), b.Right) }
func (b *BinaryOp) Operands() []*Value { return []*Value{b.Left, b.Right} }
func (b *BinaryOp) Result() *Value     { return b.Dest }

// UnaryOp is `Dest = Op Operand`.
type UnaryOp struct {
	Op      ast.UnaryOp
	Dest    *Value
	Operand *Value
}

func (u *UnaryOp) String() string      { return fmt.Sprintf("%s = %s%s", u.Dest, unaryOpSymbol(u.Op), u.Operand) }
func (u *UnaryOp) Operands() []*Value { return []*Value{u.Operand} }
func (u *UnaryOp) Result() *Value     { return u.Dest }

func binaryOpSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpLeq:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGeq:
		return ">="
	case ast.OpAnd:
		return "&&"
	case ast.OpOr:
		return "||"
	default:
		return "?"
	}
}

func unaryOpSymbol(op ast.UnaryOp) string {
	switch op {
	case ast.OpNeg:
		return "-"
	case ast.OpNot:
		return "!"
	default:
		return "?"
	}
}

// Copy is `Dest = Src`, the sole mechanism for writing a parameter or
// local's WASM slot (assignment, loop-variable update, short-circuit
// result materialization).
type Copy struct {
	Dest *Value
	Src  *Value
}

func (c *Copy) String() string      { return fmt.Sprintf("%s = %s", c.Dest, c.Src) }
func (c *Copy) Operands() []*Value { return []*Value{c.Src} }
func (c *Copy) Result() *Value     { return c.Dest }

// Load reads the i32 word at Address in linear memory.
type Load struct {
	Dest    *Value
	Address *Value
}

func (l *Load) String() string      { return fmt.Sprintf("%s = load %s", l.Dest, l.Address) }
func (l *Load) Operands() []*Value { return []*Value{l.Address} }
func (l *Load) Result() *Value     { return l.Dest }

// Store writes Value's i32 word to Address in linear memory.
type Store struct {
	Address *Value
	Value   *Value
}

func (s *Store) String() string      { return fmt.Sprintf("store %s, %s", s.Address, s.Value) }
func (s *Store) Operands() []*Value { return []*Value{s.Address, s.Value} }
func (s *Store) Result() *Value     { return nil }

// Alloc reserves Size fresh bytes on the bump heap by calling the runtime
// `__alloc(size) -> ptr` (spec.md §4.6/§9: "a bump allocator that never
// frees"), yielding the new block's address.
type Alloc struct {
	Dest *Value
	Size int
}

func (a *Alloc) String() string      { return fmt.Sprintf("%s = alloc %d", a.Dest, a.Size) }
func (a *Alloc) Operands() []*Value { return nil }
func (a *Alloc) Result() *Value     { return a.Dest }

// DataAddr yields the address of the Index'th interned literal in the
// owning Module's Strings table. Left symbolic here rather than resolved
// to a real address: only internal/wasm knows the final memory layout
// (spec.md §6 fixes data segments to start at offset 16, the heap after
// the last one), so this instruction exists purely to defer that decision
// out of the lowerer.
type DataAddr struct {
	Dest  *Value
	Index int
}

func (d *DataAddr) String() string      { return fmt.Sprintf("%s = data_addr(%d)", d.Dest, d.Index) }
func (d *DataAddr) Operands() []*Value { return nil }
func (d *DataAddr) Result() *Value     { return d.Dest }

// ArrayLen loads an array's length word (the first word of its 8-byte
// header, spec.md §3).
type ArrayLen struct {
	Dest  *Value
	Array *Value
}

func (a *ArrayLen) String() string      { return fmt.Sprintf("%s = array_len %s", a.Dest, a.Array) }
func (a *ArrayLen) Operands() []*Value { return []*Value{a.Array} }
func (a *ArrayLen) Result() *Value     { return a.Dest }

// ArrayElemAddr computes the address of Array's Index'th element: the
// buffer pointer stored in the header's second word, offset by Index*4
// (every element is one i32 word wide, spec.md §3's uniform array layout).
type ArrayElemAddr struct {
	Dest  *Value
	Array *Value
	Index *Value
}

func (a *ArrayElemAddr) String() string {
	return fmt.Sprintf("%s = array_elem_addr %s[%s]", a.Dest, a.Array, a.Index)
}
func (a *ArrayElemAddr) Operands() []*Value { return []*Value{a.Array, a.Index} }
func (a *ArrayElemAddr) Result() *Value     { return a.Dest }

// BoundsCheck traps (spec.md §7's ArrayBoundsError, realized at runtime as
// a WASM trap since there is no recoverable-exception mechanism) unless
// 0 <= Index < Len. Carried as its own instruction, rather than lowered
// here into explicit compare/branch/unreachable blocks, so the builder
// never has to split a block mid-expression purely to guard an index —
// internal/wasm expands it into the concrete br_if/unreachable sequence
// once it already has a basic block to work with.
type BoundsCheck struct {
	Index *Value
	Len   *Value
}

func (b *BoundsCheck) String() string      { return fmt.Sprintf("bounds_check %s, %s", b.Index, b.Len) }
func (b *BoundsCheck) Operands() []*Value { return []*Value{b.Index, b.Len} }
func (b *BoundsCheck) Result() *Value     { return nil }

// GetFieldPtr computes the address of one field of a structure instance:
// Base plus the field's fixed byte Offset (assigned once, at
// monomorphization time, by internal/resolve — spec.md's "field offsets
// ... assigned once and never renumbered").
type GetFieldPtr struct {
	Dest   *Value
	Base   *Value
	Offset int
}

func (g *GetFieldPtr) String() string {
	return fmt.Sprintf("%s = get_field_ptr %s+%d", g.Dest, g.Base, g.Offset)
}
func (g *GetFieldPtr) Operands() []*Value { return []*Value{g.Base} }
func (g *GetFieldPtr) Result() *Value     { return g.Dest }

// Jump is an unconditional branch to Target.
type Jump struct {
	Target *BasicBlock
}

func (j *Jump) String() string      { return fmt.Sprintf("jump %s", j.Target.Label) }
func (j *Jump) Operands() []*Value { return nil }
func (j *Jump) Result() *Value     { return nil }

// Branch jumps to TrueBlock if Cond is nonzero, otherwise FalseBlock.
type Branch struct {
	Cond       *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Cond, b.TrueBlock.Label, b.FalseBlock.Label)
}
func (b *Branch) Operands() []*Value { return []*Value{b.Cond} }
func (b *Branch) Result() *Value     { return nil }

// Call invokes Callee — a mangled name identifying a free function, a
// structure member, or a host import (spec.md §4.5: "mangled names are
// the sole identity"; which of the three it is doesn't matter to this
// instruction, only to internal/wasm's function-index lookup, since the
// resolver's single flat namespace already guarantees the name is
// unambiguous). Dest is nil for a void callee.
type Call struct {
	Dest   *Value
	Callee string
	Args   []*Value
}

func (c *Call) String() string {
	if c.Dest != nil {
		return fmt.Sprintf("%s = call %s(%v)", c.Dest, c.Callee, c.Args)
	}
	return fmt.Sprintf("call %s(%v)", c.Callee, c.Args)
}
func (c *Call) Operands() []*Value { return c.Args }
func (c *Call) Result() *Value     { return c.Dest }

// Return returns Value (nil for a void return).
type Return struct {
	Value *Value
}

func (r *Return) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s", r.Value)
	}
	return "return"
}
func (r *Return) Operands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}
func (r *Return) Result() *Value { return nil }

// Unreachable traps unconditionally — emitted for control-flow paths the
// resolver has already proven dead (there are none in a well-typed Muni
// program today) and available to internal/wasm as the target of a
// BoundsCheck's expansion.
type Unreachable struct{}

func (u *Unreachable) String() string      { return "unreachable" }
func (u *Unreachable) Operands() []*Value { return nil }
func (u *Unreachable) Result() *Value     { return nil }
