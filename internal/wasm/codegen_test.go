package wasm

import (
	"testing"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/types"
)

// buildBranchingModule lowers a three-block "if (p) return 1; else return
// 0;" shaped function — entry branches to two blocks, each its own
// terminator — to exercise the dispatch-loop's br_table against more than
// one case.
func buildBranchingModule() *ir.Module {
	mod := ir.NewModule("test")
	p := &ir.Value{ID: 0, Kind: ir.ValueParameter, Type: types.Boolean}
	fn := ir.NewFunction("main", []*ir.Value{p}, types.Int)

	thenBlock := fn.NewBasicBlockInFunc("then")
	elseBlock := fn.NewBasicBlockInFunc("else")

	fn.Entry.AddInstruction(&ir.Branch{Cond: p, TrueBlock: thenBlock, FalseBlock: elseBlock})
	thenBlock.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 1, Type: types.Int}})
	elseBlock.AddInstruction(&ir.Return{Value: &ir.Value{Kind: ir.ValueConstant, Constant: 0, Type: types.Int}})

	mod.AddFunction(fn)
	return mod
}

func TestGenFunctionOpensOneBlockPerBasicBlock(t *testing.T) {
	mod := buildBranchingModule()
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	nodes := genFunction(m, mod.Functions[0])

	var blocks, ends int
	for _, n := range nodes {
		switch n.kind {
		case nBlock:
			blocks++
		case nEnd:
			ends++
		}
	}
	// 3 basic blocks need 3 dispatch blocks, plus the outer exit block that
	// br_table's default targets; the Branch's if/else is an nIf, not an
	// nBlock.
	if blocks != 4 {
		t.Errorf("got %d nBlock entries, want 4 (one per basic block plus the exit block)", blocks)
	}
	if ends == 0 {
		t.Error("expected matching nEnd entries")
	}
}

func TestGenFunctionBrTableCoversEveryBlock(t *testing.T) {
	mod := buildBranchingModule()
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	nodes := genFunction(m, mod.Functions[0])

	var found bool
	for _, n := range nodes {
		if n.kind == nBrTable {
			found = true
			if len(n.targets) != 3 {
				t.Errorf("br_table targets %d cases, want 3", len(n.targets))
			}
		}
	}
	if !found {
		t.Fatal("expected a br_table node in the dispatch loop")
	}
}

func TestGenInstrBoundsCheckUsesUnsignedCompare(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.Void)
	idx := fn.NewTemp(types.Int)
	length := fn.NewTemp(types.Int)
	fn.Entry.AddInstruction(&ir.BoundsCheck{Index: idx, Len: length})
	fn.Entry.AddInstruction(&ir.Return{})

	mod := ir.NewModule("test")
	mod.AddFunction(fn)
	mod.Functions[0].Name = "main"
	m, err := Build(mod, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var sawGeU bool
	for _, n := range genFunction(m, mod.Functions[0]) {
		if n.kind == nOp && n.opcode == opI32GeU {
			sawGeU = true
		}
	}
	if !sawGeU {
		t.Error("expected BoundsCheck to lower to an i32.ge_u compare")
	}
}

func TestBinOpcodeCoversComparisonOperators(t *testing.T) {
	cases := map[ast.BinaryOp]byte{
		ast.OpAdd: opI32Add,
		ast.OpEq:  opI32Eq,
		ast.OpLt:  opI32LtS,
		ast.OpGeq: opI32GeS,
		ast.OpAnd: opI32And,
		ast.OpOr:  opI32Or,
	}
	for op, want := range cases {
		if got := binOpcode(op); got != want {
			t.Errorf("binOpcode(%v) = 0x%x, want 0x%x", op, got, want)
		}
	}
}
