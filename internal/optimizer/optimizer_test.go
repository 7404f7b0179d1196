package optimizer

import (
	"testing"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/ir"
	"github.com/hassan/munic/internal/types"
)

func newTestFunction() *ir.Function {
	return ir.NewFunction("test", nil, types.Int)
}

func constVal(n int32) *ir.Value {
	return &ir.Value{Kind: ir.ValueConstant, Constant: n, Type: types.Int}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() (*ir.Function, *ir.Value)
		validate func(*testing.T, *ir.Function, *ir.Value)
	}{
		{
			name: "fold simple addition",
			setup: func() (*ir.Function, *ir.Value) {
				fn := newTestFunction()
				dest := fn.NewTemp(types.Int)
				fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpAdd, Dest: dest, Left: constVal(2), Right: constVal(3)})
				fn.Entry.AddInstruction(&ir.Return{Value: dest})
				return fn, dest
			},
			validate: func(t *testing.T, fn *ir.Function, dest *ir.Value) {
				instr := fn.Entry.Instructions[0]
				cp, ok := instr.(*ir.Copy)
				if !ok {
					t.Fatalf("expected Copy instruction, got %T", instr)
				}
				if !cp.Src.IsConstant() || cp.Src.Constant != 5 {
					t.Errorf("expected constant 5, got %v", cp.Src.Constant)
				}
			},
		},
		{
			name: "fold multiplication",
			setup: func() (*ir.Function, *ir.Value) {
				fn := newTestFunction()
				dest := fn.NewTemp(types.Int)
				fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpMul, Dest: dest, Left: constVal(7), Right: constVal(8)})
				fn.Entry.AddInstruction(&ir.Return{Value: dest})
				return fn, dest
			},
			validate: func(t *testing.T, fn *ir.Function, dest *ir.Value) {
				cp, ok := fn.Entry.Instructions[0].(*ir.Copy)
				if !ok {
					t.Fatalf("expected Copy instruction, got %T", fn.Entry.Instructions[0])
				}
				if cp.Src.Constant != 56 {
					t.Errorf("expected constant 56, got %v", cp.Src.Constant)
				}
			},
		},
		{
			name: "fold comparison to a boolean word",
			setup: func() (*ir.Function, *ir.Value) {
				fn := newTestFunction()
				dest := fn.NewTemp(types.Boolean)
				fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpGt, Dest: dest, Left: constVal(5), Right: constVal(3)})
				fn.Entry.AddInstruction(&ir.Return{Value: dest})
				return fn, dest
			},
			validate: func(t *testing.T, fn *ir.Function, dest *ir.Value) {
				cp, ok := fn.Entry.Instructions[0].(*ir.Copy)
				if !ok {
					t.Fatalf("expected Copy instruction, got %T", fn.Entry.Instructions[0])
				}
				if cp.Src.Constant != 1 {
					t.Errorf("expected constant word 1 (true), got %v", cp.Src.Constant)
				}
			},
		},
		{
			name: "does not fold division by zero",
			setup: func() (*ir.Function, *ir.Value) {
				fn := newTestFunction()
				dest := fn.NewTemp(types.Int)
				fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpDiv, Dest: dest, Left: constVal(5), Right: constVal(0)})
				fn.Entry.AddInstruction(&ir.Return{Value: dest})
				return fn, dest
			},
			validate: func(t *testing.T, fn *ir.Function, dest *ir.Value) {
				if _, ok := fn.Entry.Instructions[0].(*ir.BinaryOp); !ok {
					t.Fatalf("expected the division to survive unfolded, got %T", fn.Entry.Instructions[0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, dest := tt.setup()
			pass := &ConstantFoldingPass{}
			if err := pass.Run(fn); err != nil {
				t.Fatalf("constant folding failed: %v", err)
			}
			tt.validate(t, fn, dest)
		})
	}
}

func TestDeadCodeElimination(t *testing.T) {
	t.Run("remove unused computation", func(t *testing.T) {
		fn := newTestFunction()
		t1 := fn.NewTemp(types.Int)
		fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpAdd, Dest: t1, Left: constVal(2), Right: constVal(3)})
		fn.Entry.AddInstruction(&ir.Return{Value: constVal(42)})

		pass := &DeadCodeEliminationPass{}
		if err := pass.Run(fn); err != nil {
			t.Fatalf("dead code elimination failed: %v", err)
		}

		if len(fn.Entry.Instructions) != 1 {
			t.Errorf("expected 1 instruction, got %d", len(fn.Entry.Instructions))
		}
		if _, ok := fn.Entry.Instructions[0].(*ir.Return); !ok {
			t.Error("expected only Return instruction to remain")
		}
	})

	t.Run("keep used computation", func(t *testing.T) {
		fn := newTestFunction()
		t1 := fn.NewTemp(types.Int)
		fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpAdd, Dest: t1, Left: constVal(2), Right: constVal(3)})
		fn.Entry.AddInstruction(&ir.Return{Value: t1})

		pass := &DeadCodeEliminationPass{}
		if err := pass.Run(fn); err != nil {
			t.Fatalf("dead code elimination failed: %v", err)
		}

		if len(fn.Entry.Instructions) != 2 {
			t.Errorf("expected 2 instructions, got %d", len(fn.Entry.Instructions))
		}
	})

	t.Run("keeps a bounds check with no result", func(t *testing.T) {
		fn := newTestFunction()
		fn.Entry.AddInstruction(&ir.BoundsCheck{Index: constVal(0), Len: constVal(1)})
		fn.Entry.AddInstruction(&ir.Return{})

		pass := &DeadCodeEliminationPass{}
		if err := pass.Run(fn); err != nil {
			t.Fatalf("dead code elimination failed: %v", err)
		}
		if len(fn.Entry.Instructions) != 2 {
			t.Errorf("expected the bounds check to survive, got %d instructions", len(fn.Entry.Instructions))
		}
	})
}

func TestOptimizerIntegration(t *testing.T) {
	fn := newTestFunction()

	// t1 = 2 + 3 (will fold, then be dead - never read)
	t1 := fn.NewTemp(types.Int)
	fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpAdd, Dest: t1, Left: constVal(2), Right: constVal(3)})

	// t2 = 4 * 5 (will fold, and is used by the return)
	t2 := fn.NewTemp(types.Int)
	fn.Entry.AddInstruction(&ir.BinaryOp{Op: ast.OpMul, Dest: t2, Left: constVal(4), Right: constVal(5)})
	fn.Entry.AddInstruction(&ir.Return{Value: t2})

	opt := NewOptimizer()
	if err := opt.OptimizeFunction(fn); err != nil {
		t.Fatalf("optimization failed: %v", err)
	}

	instructions := fn.Entry.Instructions
	if len(instructions) != 2 {
		t.Fatalf("expected 2 instructions after optimization, got %d", len(instructions))
	}
	cp, ok := instructions[0].(*ir.Copy)
	if !ok {
		t.Fatalf("expected first instruction to be Copy, got %T", instructions[0])
	}
	if cp.Src.Constant != 20 {
		t.Errorf("expected folded constant 20, got %v", cp.Src.Constant)
	}
	if _, ok := instructions[1].(*ir.Return); !ok {
		t.Errorf("expected second instruction to be Return, got %T", instructions[1])
	}
}
