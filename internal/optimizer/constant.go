package optimizer

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/ir"
)

// ConstantFoldingPass evaluates constant BinaryOp/UnaryOp instructions at
// compile time, replacing them with a Copy from a freshly computed
// constant Value (spec.md's Non-goals explicitly scope this module's
// optimization work down to "trivial constant folding at emission" —
// nothing more ambitious than this single pass is in scope).
//
// EXAMPLE:
//   Before:  t1 = const(2) + const(3)
//   After:   t1 = const(5)
//
// Every result this pass folds is remembered, so a later BinaryOp/UnaryOp
// that reads it folds in the same pass over the instruction list. Copy
// instructions already in the IR (`t2 = t1`) are not followed.
type ConstantFoldingPass struct{}

func (c *ConstantFoldingPass) Name() string { return "ConstantFolding" }

func (c *ConstantFoldingPass) Run(fn *ir.Function) error {
	known := make(map[*ir.Value]int32)

	for _, block := range fn.Blocks {
		for i, instr := range block.Instructions {
			folded := c.fold(instr, known)
			if folded == nil {
				continue
			}
			block.Instructions[i] = folded
			if cp, ok := folded.(*ir.Copy); ok && cp.Src.IsConstant() {
				known[cp.Dest] = cp.Src.Constant
			}
		}
	}

	return nil
}

func (c *ConstantFoldingPass) fold(instr ir.Instruction, known map[*ir.Value]int32) ir.Instruction {
	switch i := instr.(type) {
	case *ir.BinaryOp:
		return c.foldBinary(i, known)
	case *ir.UnaryOp:
		return c.foldUnary(i, known)
	default:
		return nil
	}
}

func (c *ConstantFoldingPass) constantOf(v *ir.Value, known map[*ir.Value]int32) (int32, bool) {
	if v.IsConstant() {
		return v.Constant, true
	}
	n, ok := known[v]
	return n, ok
}

func (c *ConstantFoldingPass) foldBinary(op *ir.BinaryOp, known map[*ir.Value]int32) ir.Instruction {
	left, ok := c.constantOf(op.Left, known)
	if !ok {
		return nil
	}
	right, ok := c.constantOf(op.Right, known)
	if !ok {
		return nil
	}

	var result int32
	resultType := op.Dest.Type

	switch op.Op {
	case ast.OpAdd:
		result = left + right
	case ast.OpSub:
		result = left - right
	case ast.OpMul:
		result = left * right
	case ast.OpDiv:
		if right == 0 {
			return nil // let the runtime trap, don't fold a division by zero away
		}
		result = left / right
	case ast.OpMod:
		if right == 0 {
			return nil
		}
		result = left % right
	case ast.OpEq:
		result = boolWord(left == right)
	case ast.OpNeq:
		result = boolWord(left != right)
	case ast.OpLt:
		result = boolWord(left < right)
	case ast.OpLeq:
		result = boolWord(left <= right)
	case ast.OpGt:
		result = boolWord(left > right)
	case ast.OpGeq:
		result = boolWord(left >= right)
	case ast.OpAnd:
		result = boolWord(left != 0 && right != 0)
	case ast.OpOr:
		result = boolWord(left != 0 || right != 0)
	default:
		return nil
	}

	return &ir.Copy{
		Dest: op.Dest,
		Src:  &ir.Value{Kind: ir.ValueConstant, Constant: result, Type: resultType},
	}
}

func (c *ConstantFoldingPass) foldUnary(op *ir.UnaryOp, known map[*ir.Value]int32) ir.Instruction {
	operand, ok := c.constantOf(op.Operand, known)
	if !ok {
		return nil
	}

	var result int32
	switch op.Op {
	case ast.OpNeg:
		result = -operand
	case ast.OpNot:
		result = boolWord(operand == 0)
	default:
		return nil
	}

	return &ir.Copy{
		Dest: op.Dest,
		Src:  &ir.Value{Kind: ir.ValueConstant, Constant: result, Type: op.Dest.Type},
	}
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
