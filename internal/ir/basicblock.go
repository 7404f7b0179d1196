package ir

import (
	"fmt"
	"strings"

	"github.com/hassan/munic/internal/types"
)

// BasicBlock is a straight-line instruction sequence with one entry and
// one exit, linked to its predecessors/successors for whatever CFG
// traversal a later pass needs (kept from the teacher's own
// internal/ir.BasicBlock; Dominated is dropped — nothing in this module
// computes dominance, so carrying the field would just be dead state).
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Successors   []*BasicBlock
	Predecessors []*BasicBlock
	Index        int
}

func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor links bb to succ in both directions, skipping a duplicate
// edge (an if with no else branches into the same end block twice from
// different predecessors, never the same block twice from one).
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}
	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// Terminator returns the block's last instruction if it is a Jump,
// Branch, Return, or Unreachable — nil otherwise.
func (bb *BasicBlock) Terminator() Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	switch last := bb.Instructions[len(bb.Instructions)-1].(type) {
	case *Jump, *Branch, *Return, *Unreachable:
		return last
	default:
		return nil
	}
}

func (bb *BasicBlock) IsTerminated() bool { return bb.Terminator() != nil }

func (bb *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(bb.Label)
	sb.WriteString(":\n")
	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Function is one lowered Muni function, method, constructor, or static
// method, identified by its mangled Name (spec.md §4.5).
type Function struct {
	Name       string
	Params     []*Value
	ReturnType types.Type
	Blocks     []*BasicBlock
	Entry      *BasicBlock

	// Locals lists every Value of Kind ValueLocal this function declares
	// — parameters are not repeated here — in the order internal/wasm
	// must emit them in the function's local declarations.
	Locals []*Value

	nextValueID int
}

func NewFunction(name string, params []*Value, returnType types.Type) *Function {
	entry := NewBasicBlock("entry")
	return &Function{
		Name:        name,
		Params:      params,
		ReturnType:  returnType,
		Blocks:      []*BasicBlock{entry},
		Entry:       entry,
		nextValueID: len(params),
	}
}

func (f *Function) NewBasicBlockInFunc(label string) *BasicBlock {
	bb := NewBasicBlock(label)
	bb.Index = len(f.Blocks)
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// NewValue creates a value with a fresh ID, registering it in f.Locals
// when kind is ValueLocal so every WASM local this function will need is
// accounted for in one place.
func (f *Function) NewValue(name string, typ types.Type, kind ValueKind) *Value {
	v := &Value{ID: f.nextValueID, Name: name, Type: typ, Kind: kind}
	f.nextValueID++
	if kind == ValueLocal {
		f.Locals = append(f.Locals, v)
	}
	return v
}

// NewTemp creates an anonymous local of the given type — the only way a
// lowered expression materializes an intermediate result, since this IR
// has no SSA temporaries distinct from WASM locals.
func (f *Function) NewTemp(typ types.Type) *Value {
	return f.NewValue("", typ, ValueLocal)
}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
		sb.WriteString(": ")
		sb.WriteString(p.Type.String())
	}
	sb.WriteString(") ")
	sb.WriteString(f.ReturnType.String())
	sb.WriteString(" {\n")
	for _, block := range f.Blocks {
		sb.WriteString(block.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// HostImport is a host-provided function a Module's Functions may call
// (spec.md §6's env.* contract), carried on the Module rather than as a
// Function of its own since it has no body to lower.
type HostImport struct {
	Module     string
	Name       string
	Params     []types.Type
	ReturnType types.Type
}

// Module is the whole-program lowering result: every function, the host
// imports they may call, and the table of string-literal contents interned
// into static data segments by internal/wasm.
type Module struct {
	Name        string
	Functions   []*Function
	HostImports []*HostImport

	// Strings holds each unique literal's content, in first-use order;
	// a DataAddr's Index indexes into this slice. Deduplicated by
	// InternString so two occurrences of the same literal share one data
	// segment.
	Strings []string

	stringIndex map[string]int
}

func NewModule(name string) *Module {
	return &Module{Name: name, stringIndex: make(map[string]int)}
}

func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }

// InternString returns s's stable index into Strings, reusing an existing
// entry for a repeated literal rather than wasting a second data segment
// on identical content.
func (m *Module) InternString(s string) int {
	if idx, ok := m.stringIndex[s]; ok {
		return idx
	}
	idx := len(m.Strings)
	m.Strings = append(m.Strings, s)
	m.stringIndex[s] = idx
	return idx
}

func (m *Module) String() string {
	var sb strings.Builder
	sb.WriteString("; Module: ")
	sb.WriteString(m.Name)
	sb.WriteString("\n\n")
	for _, h := range m.HostImports {
		sb.WriteString(fmt.Sprintf("import %s.%s\n", h.Module, h.Name))
	}
	if len(m.HostImports) > 0 {
		sb.WriteString("\n")
	}
	for _, fn := range m.Functions {
		sb.WriteString(fn.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Verify checks every function's blocks are all terminated and the entry
// block has no predecessors — the same well-formedness checks the
// teacher's Module.Verify runs, unchanged by the switch away from SSA
// since both properties are about control flow, not value numbering.
func (m *Module) Verify() []error {
	var errs []error
	for _, fn := range m.Functions {
		for _, block := range fn.Blocks {
			if !block.IsTerminated() {
				errs = append(errs, fmt.Errorf("block %s in function %s has no terminator", block.Label, fn.Name))
			}
		}
		if len(fn.Entry.Predecessors) > 0 {
			errs = append(errs, fmt.Errorf("entry block of function %s has predecessors", fn.Name))
		}
	}
	return errs
}
