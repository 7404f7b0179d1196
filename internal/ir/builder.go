package ir

import (
	"fmt"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/resolve"
	"github.com/hassan/munic/internal/symtab"
	"github.com/hassan/munic/internal/types"
)

// Build lowers a fully resolved Program into a Module, named for the
// compiled unit (internal/compiler picks the name, typically the input
// file's base name). Unlike the teacher's own Builder, which holds a live
// *semantic.Analyzer reference and re-derives facts from it on demand,
// this Builder consumes prog.Info/Locals/HostSignatures once up front —
// resolution and lowering are fully separate passes over a plain data
// structure, not two tangled halves of one traversal.
func Build(name string, prog *resolve.Program) (*Module, []error) {
	b := &Builder{module: NewModule(name), prog: prog}
	b.buildHostImports()
	for _, fi := range prog.Functions {
		b.buildFunctionBody(fi.Decl.Name, nil, fi.Decl, fi.Signature)
	}
	for _, si := range prog.Structs {
		b.buildStruct(si)
	}
	if len(b.errors) > 0 {
		return nil, b.errors
	}
	return b.module, nil
}

// Builder lowers one resolve.Program's functions and structure
// instantiations into a Module, one function body at a time.
type Builder struct {
	module *Module
	prog   *resolve.Program

	fn    *Function
	block *BasicBlock

	// locals maps an *ast.Parameter or *ast.VarDeclStmt to the Value
	// holding it, keyed by AST-node identity rather than by name so
	// genuine shadowing (spec.md §4.4, symtab.Scope.Define's documented
	// rule "shadowing an outer scope's symbol is allowed") resolves to
	// the right Value even when two declarations share a name.
	locals map[any]*Value

	// thisValue is the receiver of the method/constructor currently being
	// built, nil for a free function or static method. Handled separately
	// from locals since VisitIdentifier never sets a DeclNode for "this".
	thisValue *Value

	loops []loopTargets

	errors []error
}

type loopTargets struct {
	continueTarget *BasicBlock
	breakTarget    *BasicBlock
}

func (b *Builder) pushLoop(cont, brk *BasicBlock) {
	b.loops = append(b.loops, loopTargets{continueTarget: cont, breakTarget: brk})
}

func (b *Builder) popLoop() {
	b.loops = b.loops[:len(b.loops)-1]
}

func (b *Builder) currentLoop() loopTargets {
	return b.loops[len(b.loops)-1]
}

func (b *Builder) errorf(format string, args ...any) {
	b.errors = append(b.errors, fmt.Errorf(format, args...))
}

// emit appends instr to the current block, silently dropping it if the
// block already has a terminator — code following a return/break/continue
// in the same source block is unreachable, and WASM requires every block
// end in exactly one terminating instruction.
func (b *Builder) emit(instr Instruction) {
	if b.block.IsTerminated() {
		return
	}
	b.block.AddInstruction(instr)
}

func (b *Builder) typeOf(e ast.Expr) types.Type {
	if info := b.prog.Info[e]; info != nil && info.Type != nil {
		return info.Type
	}
	return types.Invalid
}

func (b *Builder) buildHostImports() {
	for _, h := range b.prog.Hosts {
		sig := b.prog.HostSignatures[h]
		b.module.HostImports = append(b.module.HostImports, &HostImport{
			Module:     h.Module,
			Name:       h.Name,
			Params:     sig.Params,
			ReturnType: sig.ReturnType,
		})
	}
}

// buildStruct lowers one monomorphic structure instantiation's constructor,
// methods, and static methods — each its own Function, mangled per
// spec.md §4.5 (types.MangleMember).
func (b *Builder) buildStruct(si *resolve.StructInfo) {
	if si.Constructor != nil {
		name := types.MangleMember(si.Type.Mangled, types.CtorMember)
		b.buildFunctionBody(name, si.Type, si.Constructor.Decl, si.Constructor.Signature)
	}
	for _, m := range si.Methods {
		name := types.MangleMember(si.Type.Mangled, m.Decl.Name)
		b.buildFunctionBody(name, si.Type, m.Decl, m.Signature)
	}
	for _, st := range si.Statics {
		name := types.MangleMember(si.Type.Mangled, st.Decl.Name)
		b.buildFunctionBody(name, nil, st.Decl, st.Signature)
	}
}

// buildFunctionBody lowers one function/method/constructor/static body.
// thisType is non-nil for a method or constructor, prepending an implicit
// "this" parameter ahead of decl's own declared parameters.
func (b *Builder) buildFunctionBody(name string, thisType types.Type, decl *ast.FuncDecl, sig *symtab.FuncSignature) {
	savedThis, savedLocals, savedFn, savedBlock := b.thisValue, b.locals, b.fn, b.block
	b.locals = make(map[any]*Value)
	b.thisValue = nil

	entry := NewBasicBlock("entry")
	fn := &Function{Name: name, ReturnType: sig.ReturnType, Blocks: []*BasicBlock{entry}, Entry: entry}

	nextID := 0
	if thisType != nil {
		thisVal := &Value{ID: nextID, Name: "this", Type: thisType, Kind: ValueParameter}
		nextID++
		fn.Params = append(fn.Params, thisVal)
		b.thisValue = thisVal
	}
	for i, p := range decl.Params {
		pv := &Value{ID: nextID, Name: p.Name, Type: sig.Params[i], Kind: ValueParameter}
		nextID++
		fn.Params = append(fn.Params, pv)
		b.locals[p] = pv
	}
	fn.nextValueID = nextID

	b.fn = fn
	b.block = entry
	if decl.Body != nil {
		b.buildBlock(decl.Body)
	}
	if !b.block.IsTerminated() {
		b.emit(&Return{})
	}
	b.module.AddFunction(fn)

	b.thisValue, b.locals, b.fn, b.block = savedThis, savedLocals, savedFn, savedBlock
}

func (b *Builder) buildBlock(blk *ast.Block) {
	for _, stmt := range blk.Stmts {
		b.buildStmt(stmt)
	}
}

func (b *Builder) buildStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.Block:
		b.buildBlock(stmt)
	case *ast.VarDeclStmt:
		b.buildVarDecl(stmt)
	case *ast.Assign:
		b.buildAssign(stmt)
	case *ast.ExprStmt:
		b.buildExpr(stmt.Expr)
	case *ast.If:
		b.buildIf(stmt)
	case *ast.While:
		b.buildWhile(stmt)
	case *ast.Until:
		b.buildUntil(stmt)
	case *ast.For:
		b.buildFor(stmt)
	case *ast.DoWhile:
		b.buildDoWhile(stmt)
	case *ast.Return:
		b.buildReturn(stmt)
	case *ast.Break:
		lt := b.currentLoop()
		b.emit(&Jump{Target: lt.breakTarget})
		b.block.AddSuccessor(lt.breakTarget)
	case *ast.Continue:
		lt := b.currentLoop()
		b.emit(&Jump{Target: lt.continueTarget})
		b.block.AddSuccessor(lt.continueTarget)
	default:
		b.errorf("internal/ir: unhandled statement %T", s)
	}
}

func (b *Builder) buildVarDecl(s *ast.VarDeclStmt) {
	declared := b.prog.Locals[s]
	v := b.fn.NewValue(s.Name, declared, ValueLocal)
	b.locals[s] = v
	if s.Init != nil {
		val := b.buildExpr(s.Init)
		b.emit(&Copy{Dest: v, Src: val})
	}
}

func (b *Builder) buildAssign(s *ast.Assign) {
	val := b.buildExpr(s.Value)
	switch target := s.Target.(type) {
	case *ast.Identifier:
		info := b.prog.Info[target]
		dest := b.locals[info.Ref]
		b.emit(&Copy{Dest: dest, Src: val})
	default:
		addr := b.buildLValueAddr(s.Target)
		b.emit(&Store{Address: addr, Value: val})
	}
}

func (b *Builder) buildIf(s *ast.If) {
	cond := b.buildExpr(s.Cond)
	thenBlock := b.fn.NewBasicBlockInFunc("if_then")
	endBlock := b.fn.NewBasicBlockInFunc("if_end")
	elseBlock := endBlock
	if s.Else != nil {
		elseBlock = b.fn.NewBasicBlockInFunc("if_else")
	}

	b.emit(&Branch{Cond: cond, TrueBlock: thenBlock, FalseBlock: elseBlock})
	b.block.AddSuccessor(thenBlock)
	b.block.AddSuccessor(elseBlock)

	b.block = thenBlock
	b.buildBlock(s.Then)
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: endBlock})
		b.block.AddSuccessor(endBlock)
	}

	if s.Else != nil {
		b.block = elseBlock
		b.buildStmt(s.Else)
		if !b.block.IsTerminated() {
			b.emit(&Jump{Target: endBlock})
			b.block.AddSuccessor(endBlock)
		}
	}

	b.block = endBlock
}

func (b *Builder) buildWhile(s *ast.While) {
	condBlock := b.fn.NewBasicBlockInFunc("while_cond")
	bodyBlock := b.fn.NewBasicBlockInFunc("while_body")
	endBlock := b.fn.NewBasicBlockInFunc("while_end")

	b.emit(&Jump{Target: condBlock})
	b.block.AddSuccessor(condBlock)

	b.block = condBlock
	cond := b.buildExpr(s.Cond)
	b.emit(&Branch{Cond: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
	b.block.AddSuccessor(bodyBlock)
	b.block.AddSuccessor(endBlock)

	b.pushLoop(condBlock, endBlock)
	b.block = bodyBlock
	b.buildBlock(s.Body)
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}
	b.popLoop()

	b.block = endBlock
}

// buildUntil is buildWhile with the branch polarity inverted: the loop
// continues while the condition is FALSE (spec.md §4.6: "inverted header
// test").
func (b *Builder) buildUntil(s *ast.Until) {
	condBlock := b.fn.NewBasicBlockInFunc("until_cond")
	bodyBlock := b.fn.NewBasicBlockInFunc("until_body")
	endBlock := b.fn.NewBasicBlockInFunc("until_end")

	b.emit(&Jump{Target: condBlock})
	b.block.AddSuccessor(condBlock)

	b.block = condBlock
	cond := b.buildExpr(s.Cond)
	b.emit(&Branch{Cond: cond, TrueBlock: endBlock, FalseBlock: bodyBlock})
	b.block.AddSuccessor(bodyBlock)
	b.block.AddSuccessor(endBlock)

	b.pushLoop(condBlock, endBlock)
	b.block = bodyBlock
	b.buildBlock(s.Body)
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}
	b.popLoop()

	b.block = endBlock
}

func (b *Builder) buildFor(s *ast.For) {
	if s.Init != nil {
		b.buildStmt(s.Init)
	}

	condBlock := b.fn.NewBasicBlockInFunc("for_cond")
	bodyBlock := b.fn.NewBasicBlockInFunc("for_body")
	stepBlock := b.fn.NewBasicBlockInFunc("for_step")
	endBlock := b.fn.NewBasicBlockInFunc("for_end")

	b.emit(&Jump{Target: condBlock})
	b.block.AddSuccessor(condBlock)

	b.block = condBlock
	if s.Cond != nil {
		cond := b.buildExpr(s.Cond)
		b.emit(&Branch{Cond: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
		b.block.AddSuccessor(bodyBlock)
		b.block.AddSuccessor(endBlock)
	} else {
		b.emit(&Jump{Target: bodyBlock})
		b.block.AddSuccessor(bodyBlock)
	}

	b.pushLoop(stepBlock, endBlock)
	b.block = bodyBlock
	b.buildBlock(s.Body)
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: stepBlock})
		b.block.AddSuccessor(stepBlock)
	}
	b.popLoop()

	b.block = stepBlock
	if s.Step != nil {
		b.buildStmt(s.Step)
	}
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}

	b.block = endBlock
}

func (b *Builder) buildDoWhile(s *ast.DoWhile) {
	bodyBlock := b.fn.NewBasicBlockInFunc("do_body")
	condBlock := b.fn.NewBasicBlockInFunc("do_cond")
	endBlock := b.fn.NewBasicBlockInFunc("do_end")

	b.emit(&Jump{Target: bodyBlock})
	b.block.AddSuccessor(bodyBlock)

	b.pushLoop(condBlock, endBlock)
	b.block = bodyBlock
	b.buildBlock(s.Body)
	if !b.block.IsTerminated() {
		b.emit(&Jump{Target: condBlock})
		b.block.AddSuccessor(condBlock)
	}
	b.popLoop()

	b.block = condBlock
	cond := b.buildExpr(s.Cond)
	b.emit(&Branch{Cond: cond, TrueBlock: bodyBlock, FalseBlock: endBlock})
	b.block.AddSuccessor(bodyBlock)
	b.block.AddSuccessor(endBlock)

	b.block = endBlock
}

func (b *Builder) buildReturn(s *ast.Return) {
	if s.Value == nil {
		b.emit(&Return{})
		return
	}
	v := b.buildExpr(s.Value)
	b.emit(&Return{Value: v})
}

func (b *Builder) buildExpr(e ast.Expr) *Value {
	switch expr := e.(type) {
	case *ast.IntegerLiteral:
		return &Value{Kind: ValueConstant, Constant: int32(expr.Value), Type: types.Int}
	case *ast.BooleanLiteral:
		c := int32(0)
		if expr.Value {
			c = 1
		}
		return &Value{Kind: ValueConstant, Constant: c, Type: types.Boolean}
	case *ast.CharLiteral:
		return &Value{Kind: ValueConstant, Constant: int32(expr.Value), Type: types.Char}
	case *ast.StringLiteral:
		return b.buildStringLiteral(expr)
	case *ast.ArrayLiteral:
		return b.buildArrayLiteral(expr)
	case *ast.NullLiteral:
		return &Value{Kind: ValueConstant, Constant: 0}
	case *ast.Identifier:
		return b.buildIdentifier(expr)
	case *ast.FieldAccess:
		return b.buildFieldAccess(expr)
	case *ast.MethodCall:
		return b.buildMethodCall(expr)
	case *ast.Call:
		return b.buildCall(expr)
	case *ast.ConstructorCall:
		return b.buildConstructorCallExpr(expr)
	case *ast.StaticMethodCall:
		return b.buildStaticMethodCall(expr)
	case *ast.Binary:
		return b.buildBinary(expr)
	case *ast.Unary:
		return b.buildUnary(expr)
	case *ast.Index:
		return b.buildIndex(expr)
	case *ast.Cast:
		return b.buildCast(expr)
	default:
		b.errorf("internal/ir: unhandled expression %T", e)
		return &Value{Kind: ValueConstant, Constant: 0}
	}
}

func (b *Builder) buildIdentifier(e *ast.Identifier) *Value {
	if e.Name == "this" {
		return b.thisValue
	}
	info := b.prog.Info[e]
	if v, ok := b.locals[info.Ref]; ok {
		return v
	}
	b.errorf("internal/ir: identifier %q has no lowered value", e.Name)
	return &Value{Kind: ValueConstant, Constant: 0}
}

// fieldAddr computes the address of a field access's field, returning the
// field's layout entry alongside it so callers needing the field's type
// (a read) and callers only needing the address (an assignment target)
// share one implementation.
func (b *Builder) fieldAddr(e *ast.FieldAccess) (*Value, *types.Field) {
	recv := b.buildExpr(e.Receiver)
	st, ok := b.typeOf(e.Receiver).(*types.Struct)
	if !ok {
		return &Value{Kind: ValueConstant, Constant: 0}, nil
	}
	f := st.LookupField(e.Field)
	if f == nil {
		return &Value{Kind: ValueConstant, Constant: 0}, nil
	}
	addr := b.fn.NewTemp(types.Int)
	b.emit(&GetFieldPtr{Dest: addr, Base: recv, Offset: f.Offset})
	return addr, f
}

func (b *Builder) buildFieldAccess(e *ast.FieldAccess) *Value {
	addr, f := b.fieldAddr(e)
	if f == nil {
		return &Value{Kind: ValueConstant, Constant: 0}
	}
	dest := b.fn.NewTemp(f.Type)
	b.emit(&Load{Dest: dest, Address: addr})
	return dest
}

// indexAddr computes the address of an index expression's element,
// returning the element type alongside it for the same reason fieldAddr
// does.
func (b *Builder) indexAddr(e *ast.Index) (*Value, types.Type) {
	recv := b.buildExpr(e.Receiver)
	idx := b.buildExpr(e.Index)
	arr, ok := b.typeOf(e.Receiver).(*types.Array)
	if !ok {
		return &Value{Kind: ValueConstant, Constant: 0}, types.Invalid
	}
	lenVal := b.fn.NewTemp(types.Int)
	b.emit(&ArrayLen{Dest: lenVal, Array: recv})
	b.emit(&BoundsCheck{Index: idx, Len: lenVal})
	addr := b.fn.NewTemp(types.Int)
	b.emit(&ArrayElemAddr{Dest: addr, Array: recv, Index: idx})
	return addr, arr.Elem
}

func (b *Builder) buildIndex(e *ast.Index) *Value {
	addr, elem := b.indexAddr(e)
	dest := b.fn.NewTemp(elem)
	b.emit(&Load{Dest: dest, Address: addr})
	return dest
}

func (b *Builder) buildLValueAddr(e ast.Expr) *Value {
	switch target := e.(type) {
	case *ast.FieldAccess:
		addr, _ := b.fieldAddr(target)
		return addr
	case *ast.Index:
		addr, _ := b.indexAddr(target)
		return addr
	default:
		b.errorf("internal/ir: unsupported assignment target %T", e)
		return &Value{Kind: ValueConstant, Constant: 0}
	}
}

func (b *Builder) buildArgs(args []ast.Expr) []*Value {
	vals := make([]*Value, len(args))
	for i, a := range args {
		vals[i] = b.buildExpr(a)
	}
	return vals
}

// buildCallResult emits a Call to callee, giving it a fresh destination
// temp unless resultType is void — the one place "does this call produce
// a usable value" is decided, shared by every call-shaped lowering.
func (b *Builder) buildCallResult(callee string, resultType types.Type, args []*Value) *Value {
	if resultType == nil || resultType == types.Void {
		b.emit(&Call{Callee: callee, Args: args})
		return nil
	}
	dest := b.fn.NewTemp(resultType)
	b.emit(&Call{Dest: dest, Callee: callee, Args: args})
	return dest
}

// buildConstructorInstantiation is the single lowering shared by a
// ConstructorCall, a bare call resolved to a constructor, and a string
// literal: allocate a fresh instance, then — if the structure has a
// constructor to run — call it with the new instance as an implicit first
// argument ahead of the explicit ones.
func (b *Builder) buildConstructorInstantiation(st *types.Struct, callee string, hasCallee bool, args []*Value) *Value {
	if st == nil {
		return &Value{Kind: ValueConstant, Constant: 0}
	}
	ptr := b.fn.NewTemp(st)
	b.emit(&Alloc{Dest: ptr, Size: types.InstanceSize(st)})
	if hasCallee {
		callArgs := make([]*Value, 0, len(args)+1)
		callArgs = append(callArgs, ptr)
		callArgs = append(callArgs, args...)
		b.emit(&Call{Callee: callee, Args: callArgs})
	}
	return ptr
}

func (b *Builder) buildCall(e *ast.Call) *Value {
	info := b.prog.Info[e]
	args := b.buildArgs(e.Args)
	if st, ok := info.Type.(*types.Struct); ok {
		return b.buildConstructorInstantiation(st, info.Callee, info.HasCallee, args)
	}
	return b.buildCallResult(info.Callee, info.Type, args)
}

func (b *Builder) buildConstructorCallExpr(e *ast.ConstructorCall) *Value {
	info := b.prog.Info[e]
	args := b.buildArgs(e.Args)
	st, _ := info.Type.(*types.Struct)
	return b.buildConstructorInstantiation(st, info.Callee, info.HasCallee, args)
}

func (b *Builder) buildMethodCall(e *ast.MethodCall) *Value {
	recv := b.buildExpr(e.Receiver)
	args := b.buildArgs(e.Args)
	info := b.prog.Info[e]
	callArgs := make([]*Value, 0, len(args)+1)
	callArgs = append(callArgs, recv)
	callArgs = append(callArgs, args...)
	return b.buildCallResult(info.Callee, info.Type, callArgs)
}

func (b *Builder) buildStaticMethodCall(e *ast.StaticMethodCall) *Value {
	info := b.prog.Info[e]
	args := b.buildArgs(e.Args)
	return b.buildCallResult(info.Callee, info.Type, args)
}

// buildBinary lowers every binary operator except && and ||, which short-
// circuit (spec.md §4.6) and so need control flow rather than a single
// instruction.
func (b *Builder) buildBinary(e *ast.Binary) *Value {
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return b.buildShortCircuit(e)
	}
	left := b.buildExpr(e.Left)
	right := b.buildExpr(e.Right)
	dest := b.fn.NewTemp(b.typeOf(e))
	b.emit(&BinaryOp{Op: e.Op, Dest: dest, Left: left, Right: right})
	return dest
}

// buildShortCircuit lowers && and || into a mutable result slot and a
// branch: the left operand is always evaluated and copied in; the right
// operand is only reached, and only then copied over the same slot, along
// the branch where short-circuiting doesn't already decide the answer.
func (b *Builder) buildShortCircuit(e *ast.Binary) *Value {
	result := b.fn.NewTemp(b.typeOf(e))
	left := b.buildExpr(e.Left)
	b.emit(&Copy{Dest: result, Src: left})

	rhsBlock := b.fn.NewBasicBlockInFunc("logic_rhs")
	endBlock := b.fn.NewBasicBlockInFunc("logic_end")
	if e.Op == ast.OpAnd {
		b.emit(&Branch{Cond: result, TrueBlock: rhsBlock, FalseBlock: endBlock})
	} else {
		b.emit(&Branch{Cond: result, TrueBlock: endBlock, FalseBlock: rhsBlock})
	}
	b.block.AddSuccessor(rhsBlock)
	b.block.AddSuccessor(endBlock)

	b.block = rhsBlock
	right := b.buildExpr(e.Right)
	b.emit(&Copy{Dest: result, Src: right})
	b.emit(&Jump{Target: endBlock})
	b.block.AddSuccessor(endBlock)

	b.block = endBlock
	return result
}

func (b *Builder) buildUnary(e *ast.Unary) *Value {
	operand := b.buildExpr(e.Operand)
	dest := b.fn.NewTemp(b.typeOf(e))
	b.emit(&UnaryOp{Op: e.Op, Dest: dest, Operand: operand})
	return dest
}

// buildCast lowers a scalar conversion as a no-op Copy into a freshly
// typed temp — every Muni scalar already shares the same i32
// representation, so a cast changes the static type tracked alongside a
// Value without changing a single bit at runtime.
func (b *Builder) buildCast(e *ast.Cast) *Value {
	src := b.buildExpr(e.Operand)
	target := b.typeOf(e)
	if src.IsConstant() {
		return &Value{Kind: ValueConstant, Constant: src.Constant, Type: target}
	}
	dest := b.fn.NewTemp(target)
	b.emit(&Copy{Dest: dest, Src: src})
	return dest
}

// buildArrayLiteral heap-allocates the element buffer, stores each
// element into it, then heap-allocates the 8-byte header and stores the
// length and buffer pointer into it (spec.md §3's array<T> layout).
func (b *Builder) buildArrayLiteral(e *ast.ArrayLiteral) *Value {
	arr, _ := b.typeOf(e).(*types.Array)
	n := len(e.Elements)

	buf := b.fn.NewTemp(types.Int)
	b.emit(&Alloc{Dest: buf, Size: n * 4})
	for i, el := range e.Elements {
		val := b.buildExpr(el)
		addr := buf
		if i > 0 {
			addr = b.fn.NewTemp(types.Int)
			b.emit(&GetFieldPtr{Dest: addr, Base: buf, Offset: i * 4})
		}
		b.emit(&Store{Address: addr, Value: val})
	}

	header := b.fn.NewTemp(arr)
	b.emit(&Alloc{Dest: header, Size: types.ArrayHeaderSize})
	b.emit(&Store{Address: header, Value: &Value{Kind: ValueConstant, Constant: int32(n)}})
	bufSlot := b.fn.NewTemp(types.Int)
	b.emit(&GetFieldPtr{Dest: bufSlot, Base: header, Offset: 4})
	b.emit(&Store{Address: bufSlot, Value: buf})

	return header
}

// buildStringLiteral lowers a string literal to the standard library's
// vec<char> constructor call seeded from an interned data segment
// (VisitStringLiteral's own doc comment): the character content is
// static, so only the array<char> header wrapping it is heap-allocated,
// then vec<char>'s constructor is invoked with that header and the
// literal's length as its two arguments.
func (b *Builder) buildStringLiteral(e *ast.StringLiteral) *Value {
	st, ok := b.typeOf(e).(*types.Struct)
	if !ok {
		return &Value{Kind: ValueConstant, Constant: 0}
	}

	idx := b.module.InternString(e.Value)
	dataAddr := b.fn.NewTemp(types.Int)
	b.emit(&DataAddr{Dest: dataAddr, Index: idx})

	header := b.fn.NewTemp(&types.Array{Elem: types.Char})
	b.emit(&Alloc{Dest: header, Size: types.ArrayHeaderSize})
	b.emit(&Store{Address: header, Value: &Value{Kind: ValueConstant, Constant: int32(len(e.Value))}})
	bufSlot := b.fn.NewTemp(types.Int)
	b.emit(&GetFieldPtr{Dest: bufSlot, Base: header, Offset: 4})
	b.emit(&Store{Address: bufSlot, Value: dataAddr})

	callee := types.MangleMember(st.Mangled, types.CtorMember)
	length := &Value{Kind: ValueConstant, Constant: int32(len(e.Value)), Type: types.Int}
	return b.buildConstructorInstantiation(st, callee, true, []*Value{header, length})
}
