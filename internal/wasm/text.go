package wasm

import (
	"fmt"
	"strings"

	"github.com/hassan/munic/internal/ir"
)

// Text renders m as WebAssembly text format — the same Module the binary
// encoder reads from, rendered for human debugging (spec.md §4.7: "The
// textual form is human-readable and used for debugging").
func Text(m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(module $%s\n", m.Name)

	for i, t := range m.Types {
		fmt.Fprintf(&sb, "  (type (;%d;) %s)\n", i, funcTypeText(t))
	}

	for _, f := range m.funcs {
		if !f.imported {
			continue
		}
		fmt.Fprintf(&sb, "  (import %q %q (func $%s %s))\n", f.importMod, f.importName, f.name, funcTypeText(f.typ))
	}

	fmt.Fprintf(&sb, "  (memory (;0;) %d)\n", m.MemoryPages)
	fmt.Fprintf(&sb, "  (global $%s (mut i32) (i32.const %d))\n", heapPtrGlobalName, m.HeapStart)
	fmt.Fprintf(&sb, "  (export %q (func $main))\n", m.ExportName)

	for _, f := range m.funcs {
		if f.imported {
			continue
		}
		if f.fn == nil {
			sb.WriteString(allocatorText())
			continue
		}
		sb.WriteString(functionText(m, f.fn))
	}

	for i, s := range m.src.Strings {
		fmt.Fprintf(&sb, "  (data (;%d;) (i32.const %d) %q)\n", i, m.StringOffsets[i], s)
	}

	sb.WriteString(")\n")
	return sb.String()
}

func funcTypeText(t FuncType) string {
	var sb strings.Builder
	for i := 0; i < t.NumParams; i++ {
		sb.WriteString("(param i32) ")
	}
	if t.HasResult {
		sb.WriteString("(result i32)")
	}
	return strings.TrimSpace(sb.String())
}

// functionText renders one lowered function: its signature, local
// declarations (every ir.Function.Locals entry plus the dispatch-loop's
// synthetic $pc; params are declared by the signature), and its node
// stream.
func functionText(m *Module, fn *ir.Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  (func $%s %s\n", fn.Name, funcTypeText(m.Types[m.typeOf[fn.Name]]))
	localCount := len(fn.Locals) + 1
	if localCount > 0 {
		fmt.Fprintf(&sb, "    (local")
		for i := 0; i < localCount; i++ {
			sb.WriteString(" i32")
		}
		sb.WriteString(")\n")
	}
	writeNodes(&sb, genFunction(m, fn), 2)
	sb.WriteString("  )\n")
	return sb.String()
}

func allocatorText() string {
	var sb strings.Builder
	sb.WriteString("  (func $" + allocFuncName + " (param i32) (result i32)\n")
	writeNodes(&sb, allocatorBody(), 2)
	sb.WriteString("  )\n")
	return sb.String()
}

// writeNodes renders a flat node stream as indented WAT text — indent
// tracks nesting purely from block/loop/if/else/end markers in the
// stream itself, the same structure the binary encoder walks.
func writeNodes(sb *strings.Builder, nodes []wnode, indent int) {
	pad := func(n int) string { return strings.Repeat("  ", n) }

	for _, n := range nodes {
		switch n.kind {
		case nEnd:
			indent--
			sb.WriteString(pad(indent) + "end\n")
		case nElse:
			sb.WriteString(pad(indent-1) + "else\n")
		case nBlock:
			sb.WriteString(pad(indent) + "block $" + n.label + "\n")
			indent++
		case nLoop:
			sb.WriteString(pad(indent) + "loop $" + n.label + "\n")
			indent++
		case nIf:
			sb.WriteString(pad(indent) + "if\n")
			indent++
		case nConst:
			fmt.Fprintf(sb, "%si32.const %d\n", pad(indent), n.i32)
		case nLocalGet:
			fmt.Fprintf(sb, "%slocal.get %d\n", pad(indent), n.idx)
		case nLocalSet:
			fmt.Fprintf(sb, "%slocal.set %d\n", pad(indent), n.idx)
		case nGlobalGet:
			fmt.Fprintf(sb, "%sglobal.get %d\n", pad(indent), n.idx)
		case nGlobalSet:
			fmt.Fprintf(sb, "%sglobal.set %d\n", pad(indent), n.idx)
		case nI32Load:
			fmt.Fprintf(sb, "%si32.load\n", pad(indent))
		case nI32Store:
			fmt.Fprintf(sb, "%si32.store\n", pad(indent))
		case nOp:
			fmt.Fprintf(sb, "%s%s\n", pad(indent), opText(n.opcode))
		case nCall:
			fmt.Fprintf(sb, "%scall %d\n", pad(indent), n.idx)
		case nReturn:
			sb.WriteString(pad(indent) + "return\n")
		case nUnreachable:
			sb.WriteString(pad(indent) + "unreachable\n")
		case nBr:
			fmt.Fprintf(sb, "%sbr %d (; $%s ;)\n", pad(indent), n.idx, n.label)
		case nBrTable:
			fmt.Fprintf(sb, "%sbr_table %v %d\n", pad(indent), n.targets, n.defDepth)
		}
	}
}

func opText(opcode byte) string {
	switch opcode {
	case opI32Add:
		return "i32.add"
	case opI32Sub:
		return "i32.sub"
	case opI32Mul:
		return "i32.mul"
	case opI32DivS:
		return "i32.div_s"
	case opI32RemS:
		return "i32.rem_s"
	case opI32Eq:
		return "i32.eq"
	case opI32Ne:
		return "i32.ne"
	case opI32LtS:
		return "i32.lt_s"
	case opI32LeS:
		return "i32.le_s"
	case opI32GtS:
		return "i32.gt_s"
	case opI32GeS:
		return "i32.ge_s"
	case opI32GeU:
		return "i32.ge_u"
	case opI32And:
		return "i32.and"
	case opI32Or:
		return "i32.or"
	case opI32Eqz:
		return "i32.eqz"
	default:
		return fmt.Sprintf("op(0x%x)", opcode)
	}
}
