package wasm

import (
	"fmt"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/ir"
)

// nodeKind discriminates one entry of a function's flattened instruction
// stream — the shared representation binary.go encodes to bytes and
// text.go renders to `.wat` text, so the two outputs can never disagree
// about what a function does (spec.md §9's round-trip-emission
// property).
type nodeKind int

const (
	nConst nodeKind = iota
	nLocalGet
	nLocalSet
	nGlobalGet
	nGlobalSet
	nI32Load
	nI32Store
	nOp // a zero-operand numeric opcode: compare/arith/eqz
	nCall
	nReturn
	nUnreachable
	nBlock
	nLoop
	nIf
	nElse
	nEnd
	nBr
	nBrTable
)

// wnode is one entry of the flattened stream. Only the fields relevant
// to its kind are populated; the rest are zero.
type wnode struct {
	kind   nodeKind
	opcode byte
	i32    int32
	idx    uint32 // local/global/function index

	label string // block/loop/if label, for text.go's comments only

	// br_table only:
	targets      []uint32
	targetLabels []string
	defDepth     uint32
	defLabel     string
}

// funcGen lowers one ir.Function into a flat wnode stream through the
// dispatch-loop technique described on package wasm: a synthetic local
// `$pc` (the function's last local slot) selects which basic block runs
// next, implemented as a br_table inside a nest of labeled blocks inside
// one loop — the textbook way to target a structured control-flow VM
// from a CFG with arbitrary Jump/Branch edges without running a relooper
// pass over it first.
type funcGen struct {
	m      *Module
	fn     *ir.Function
	pcIdx  uint32
	labels []string // currently open block/loop/if labels, innermost last
	nodes  []wnode
}

// genFunction returns the flat instruction stream for fn's body,
// including its final implicit end-of-function trap (every reachable
// path already returns; this only satisfies validation for functions
// whose static type requires a value on every path).
func genFunction(m *Module, fn *ir.Function) []wnode {
	g := &funcGen{m: m, fn: fn, pcIdx: uint32(len(fn.Params) + len(fn.Locals))}

	g.emit(wnode{kind: nConst, i32: int32(fn.Entry.Index)})
	g.emit(wnode{kind: nLocalSet, idx: g.pcIdx})

	n := len(fn.Blocks)

	g.pushLabel("exit")
	g.emit(wnode{kind: nBlock, label: "exit"})
	g.pushLabel("loop")
	g.emit(wnode{kind: nLoop, label: "loop"})

	for i := n - 1; i >= 1; i-- {
		g.pushLabel(blockLabel(i))
		g.emit(wnode{kind: nBlock, label: blockLabel(i)})
	}
	g.pushLabel(blockLabel(0))
	g.emit(wnode{kind: nBlock, label: blockLabel(0)})

	targets := make([]uint32, n)
	targetLabels := make([]string, n)
	for i := 0; i < n; i++ {
		targets[i] = uint32(i)
		targetLabels[i] = blockLabel(i)
	}
	g.emit(wnode{kind: nLocalGet, idx: g.pcIdx})
	g.emit(wnode{kind: nBrTable, targets: targets, targetLabels: targetLabels, defDepth: uint32(n + 1), defLabel: "exit"})

	g.popLabel() // block 0 closes with no body of its own before the dispatch
	g.emit(wnode{kind: nEnd})

	for i := 0; i < n; i++ {
		g.genBlockBody(fn.Blocks[i])
		if i+1 < n {
			g.popLabel()
			g.emit(wnode{kind: nEnd})
		}
	}

	g.popLabel() // loop
	g.emit(wnode{kind: nEnd})
	g.popLabel() // exit
	g.emit(wnode{kind: nEnd})
	g.emit(wnode{kind: nUnreachable})

	return g.nodes
}

func blockLabel(i int) string { return fmt.Sprintf("block%d", i) }

func (g *funcGen) emit(n wnode)       { g.nodes = append(g.nodes, n) }
func (g *funcGen) pushLabel(l string) { g.labels = append(g.labels, l) }
func (g *funcGen) popLabel()          { g.labels = g.labels[:len(g.labels)-1] }

// depthOf returns label's relative branch depth from the current point —
// how many enclosing blocks/loops a br targeting it must exit.
func (g *funcGen) depthOf(label string) uint32 {
	for i := len(g.labels) - 1; i >= 0; i-- {
		if g.labels[i] == label {
			return uint32(len(g.labels) - 1 - i)
		}
	}
	panic("wasm: unresolved branch label " + label)
}

func (g *funcGen) emitBr(label string) {
	g.emit(wnode{kind: nBr, idx: g.depthOf(label), label: label})
}

func (g *funcGen) pushValue(v *ir.Value) {
	if v.IsConstant() {
		g.emit(wnode{kind: nConst, i32: v.Constant})
		return
	}
	g.emit(wnode{kind: nLocalGet, idx: uint32(v.ID)})
}

func (g *funcGen) setValue(v *ir.Value) {
	g.emit(wnode{kind: nLocalSet, idx: uint32(v.ID)})
}

func (g *funcGen) genBlockBody(bb *ir.BasicBlock) {
	for _, instr := range bb.Instructions {
		g.genInstr(instr)
	}
}

func (g *funcGen) genInstr(instr ir.Instruction) {
	switch i := instr.(type) {
	case *ir.BinaryOp:
		g.pushValue(i.Left)
		g.pushValue(i.Right)
		g.emit(wnode{kind: nOp, opcode: binOpcode(i.Op)})
		g.setValue(i.Dest)

	case *ir.UnaryOp:
		switch i.Op {
		case ast.OpNeg:
			g.emit(wnode{kind: nConst, i32: 0})
			g.pushValue(i.Operand)
			g.emit(wnode{kind: nOp, opcode: opI32Sub})
		case ast.OpNot:
			g.pushValue(i.Operand)
			g.emit(wnode{kind: nOp, opcode: opI32Eqz})
		default:
			panic(fmt.Sprintf("wasm: unhandled unary op %v", i.Op))
		}
		g.setValue(i.Dest)

	case *ir.Copy:
		g.pushValue(i.Src)
		g.setValue(i.Dest)

	case *ir.Load:
		g.pushValue(i.Address)
		g.emit(wnode{kind: nI32Load})
		g.setValue(i.Dest)

	case *ir.Store:
		g.pushValue(i.Address)
		g.pushValue(i.Value)
		g.emit(wnode{kind: nI32Store})

	case *ir.Alloc:
		g.emit(wnode{kind: nConst, i32: int32(i.Size)})
		g.emit(wnode{kind: nCall, idx: uint32(g.m.FuncIndex[allocFuncName])})
		g.setValue(i.Dest)

	case *ir.DataAddr:
		g.emit(wnode{kind: nConst, i32: int32(g.m.StringOffsets[i.Index])})
		g.setValue(i.Dest)

	case *ir.ArrayLen:
		// The length word lives at the array's own header address
		// (spec.md §3: "8-byte header { i32 length, i32 buffer_ptr }").
		g.pushValue(i.Array)
		g.emit(wnode{kind: nI32Load})
		g.setValue(i.Dest)

	case *ir.ArrayElemAddr:
		g.pushValue(i.Array)
		g.emit(wnode{kind: nConst, i32: 4})
		g.emit(wnode{kind: nOp, opcode: opI32Add})
		g.emit(wnode{kind: nI32Load}) // buffer pointer, header+4
		g.pushValue(i.Index)
		g.emit(wnode{kind: nConst, i32: 4})
		g.emit(wnode{kind: nOp, opcode: opI32Mul})
		g.emit(wnode{kind: nOp, opcode: opI32Add})
		g.setValue(i.Dest)

	case *ir.BoundsCheck:
		// index >=u len traps for both "too large" and "negative" —
		// a negative i32 reinterpreted unsigned is always >= any valid
		// length, so one unsigned compare covers both halves of
		// spec.md §7's ArrayBoundsError without a second branch.
		g.pushValue(i.Index)
		g.pushValue(i.Len)
		g.emit(wnode{kind: nOp, opcode: opI32GeU})
		g.pushLabel("")
		g.emit(wnode{kind: nIf})
		g.emit(wnode{kind: nUnreachable})
		g.popLabel()
		g.emit(wnode{kind: nEnd})

	case *ir.GetFieldPtr:
		g.pushValue(i.Base)
		g.emit(wnode{kind: nConst, i32: int32(i.Offset)})
		g.emit(wnode{kind: nOp, opcode: opI32Add})
		g.setValue(i.Dest)

	case *ir.Jump:
		g.emit(wnode{kind: nConst, i32: int32(i.Target.Index)})
		g.emit(wnode{kind: nLocalSet, idx: g.pcIdx})
		g.emitBr("loop")

	case *ir.Branch:
		g.pushValue(i.Cond)
		g.pushLabel("")
		g.emit(wnode{kind: nIf})
		g.emit(wnode{kind: nConst, i32: int32(i.TrueBlock.Index)})
		g.emit(wnode{kind: nLocalSet, idx: g.pcIdx})
		g.emit(wnode{kind: nElse})
		g.emit(wnode{kind: nConst, i32: int32(i.FalseBlock.Index)})
		g.emit(wnode{kind: nLocalSet, idx: g.pcIdx})
		g.popLabel()
		g.emit(wnode{kind: nEnd})
		g.emitBr("loop")

	case *ir.Call:
		for _, a := range i.Args {
			g.pushValue(a)
		}
		fidx, ok := g.m.FuncIndex[i.Callee]
		if !ok {
			panic("wasm: call to unknown function " + i.Callee)
		}
		g.emit(wnode{kind: nCall, idx: uint32(fidx)})
		if i.Dest != nil {
			g.setValue(i.Dest)
		}

	case *ir.Return:
		if i.Value != nil {
			g.pushValue(i.Value)
		}
		g.emit(wnode{kind: nReturn})

	case *ir.Unreachable:
		g.emit(wnode{kind: nUnreachable})

	default:
		panic(fmt.Sprintf("wasm: unhandled ir instruction %T", instr))
	}
}

func binOpcode(op ast.BinaryOp) byte {
	switch op {
	case ast.OpAdd:
		return opI32Add
	case ast.OpSub:
		return opI32Sub
	case ast.OpMul:
		return opI32Mul
	case ast.OpDiv:
		return opI32DivS
	case ast.OpMod:
		return opI32RemS
	case ast.OpEq:
		return opI32Eq
	case ast.OpNeq:
		return opI32Ne
	case ast.OpLt:
		return opI32LtS
	case ast.OpLeq:
		return opI32LeS
	case ast.OpGt:
		return opI32GtS
	case ast.OpGeq:
		return opI32GeS
	case ast.OpAnd:
		return opI32And
	case ast.OpOr:
		return opI32Or
	default:
		panic(fmt.Sprintf("wasm: unhandled binary op %v", op))
	}
}

// allocatorBody is the flat instruction stream for the synthesized
// __alloc(size) -> ptr function: return the bump pointer's current
// value, then advance it by size (spec.md §4.6/§9: "a bump allocator
// that never frees").
func allocatorBody() []wnode {
	return []wnode{
		{kind: nGlobalGet, idx: 0}, // old heap_ptr — becomes the return value
		{kind: nGlobalGet, idx: 0},
		{kind: nLocalGet, idx: 0}, // size, the allocator's sole parameter
		{kind: nOp, opcode: opI32Add},
		{kind: nGlobalSet, idx: 0},
		{kind: nReturn},
	}
}
