// Package resolve implements spec.md §4.4 and the declaration-collection
// half of §4.3/§4.5: name resolution, type resolution (alias expansion,
// generic structure instantiation), and type checking, producing a fully
// resolved Program ready for internal/ir to lower.
//
// DESIGN PHILOSOPHY (kept from the teacher's internal/semantic.Analyzer):
// - One long-lived Resolver struct carrying the scope chain and an
//   accumulated error slice, rather than a pure function — the teacher's
//   own analyzer is built the same way because the visitor pattern needs
//   somewhere to hang mutable traversal state.
// - Two sub-passes: declare every top-level name first (so forward
//   references between functions/structures/aliases resolve regardless
//   of declaration order), then check bodies.
// - Accumulate every error found rather than aborting at the first one
//   (spec.md §7's propagation policy).
//
// DEPARTURE FROM THE TEACHER: Muni's structures and aliases are generic,
// the teacher's never were. A generic definition's body cannot be type-
// checked once — each `(definition, concrete type arguments)` pair needs
// its own pass with its type parameters substituted. So structure bodies
// are not checked during the first pass at all; instantiateStruct lazily
// builds a monomorphic layout (registering a stub before resolving
// fields, so a self-referential field resolves to the same pointer
// instead of recursing forever) and queues the constructor/method/static
// bodies for a second, worklist-driven pass that drains after every
// top-level function has been checked — exactly the fixed-point the
// monomorphizer (spec.md §4.5) requires, run here because the resolver is
// the only stage that knows how to type-check a body at all.
package resolve

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/importer"
	"github.com/hassan/munic/internal/lexer"
	"github.com/hassan/munic/internal/mono"
	"github.com/hassan/munic/internal/symtab"
	"github.com/hassan/munic/internal/types"
)

// defaultMaxInstantiationDepth is the monomorphization worklist's default
// depth bound (spec.md §4.5: "a configurable bound (default 64)").
const defaultMaxInstantiationDepth = 64

// FunctionInfo is one resolved top-level function, ready for lowering.
type FunctionInfo struct {
	Decl      *ast.FuncDecl
	Signature *symtab.FuncSignature
}

// StructInfo is one monomorphic structure instantiation, ready for
// lowering: its concrete layout plus the resolved signatures and bodies
// of its constructor, methods, and static methods.
type StructInfo struct {
	Type        *types.Struct
	Decl        *ast.StructDecl
	Subst       map[string]types.Type
	Constructor *FunctionInfo // nil if the structure has no constructor
	Methods     []*FunctionInfo
	Statics     []*FunctionInfo
}

// Program is the fully resolved, monomorphic output of this package: a
// flat function list, a flat (and closed, per spec.md's monomorphization
// invariant) list of structure instantiations, the host imports each
// emitted function may call, and the per-expression type/call-target
// annotations internal/ir needs to lower a body without re-deriving types
// itself.
type Program struct {
	Functions []*FunctionInfo
	Structs   []*StructInfo
	Hosts     []*ast.HostImportDecl
	Info      map[ast.Expr]*ExprInfo

	// Locals maps each local variable declaration to its resolved type —
	// internal/ir needs this to size the local it allocates, and a
	// VarDeclStmt's own Type field is only ever the pre-resolution
	// syntactic spelling (e.g. an unexpanded alias or unsubstituted type
	// parameter).
	Locals map[*ast.VarDeclStmt]types.Type

	// HostSignatures carries each host import's resolved parameter/return
	// types alongside its AST declaration, so internal/ir can build the
	// module's host import list without re-resolving HostImportDecl.Params itself.
	HostSignatures map[*ast.HostImportDecl]*symtab.FuncSignature
}

// ExprInfo is the resolved fact internal/ir needs about one expression
// node: its type, and — for the four call-shaped expressions — the
// mangled name of the function it statically targets (spec.md §9: "all
// calls are statically resolved via mangled names", so the lowerer must
// not have to re-run name/overload resolution to find one).
type ExprInfo struct {
	Type types.Type

	// Callee is set only on *ast.Call, *ast.MethodCall, *ast.ConstructorCall,
	// and *ast.StaticMethodCall: the mangled name of the function/method/
	// static/constructor this call site resolved to. Empty for a
	// constructor call against a structure with no constructor (the
	// lowerer allocates the instance and runs no ctor body).
	Callee string

	// HasCallee distinguishes "no constructor to call" (Callee=="",
	// HasCallee=false, a valid zero-arg allocation) from an unresolved
	// call (already reported as a diagnostic; the lowerer never runs on
	// a Program with errors, so it practically never sees this case).
	HasCallee bool

	// Ref is set only on *ast.Identifier referencing a local or
	// parameter: the same *ast.Parameter or *ast.VarDeclStmt the
	// resolved symbol's DeclNode carries, so the lowerer finds the IR
	// Value for a reference by identity rather than by re-deriving
	// scope-aware name resolution. Left nil for "this" (the lowerer
	// threads a method/constructor's receiver value through directly)
	// and for identifiers naming a function/structure/alias/host-import,
	// none of which resolve to a storage location.
	Ref any
}

// annotate records e's resolved type, merging into any Callee info a call-
// shaped Visit method already attached via annotateCallee.
func (r *Resolver) annotate(e ast.Expr, t types.Type) {
	info := r.info[e]
	if info == nil {
		info = &ExprInfo{}
		r.info[e] = info
	}
	info.Type = t
}

// annotateCallee records the mangled static target of a call-shaped
// expression, ahead of annotate's own Type write for the same node.
func (r *Resolver) annotateCallee(e ast.Expr, mangled string, has bool) {
	info := r.info[e]
	if info == nil {
		info = &ExprInfo{}
		r.info[e] = info
	}
	info.Callee = mangled
	info.HasCallee = has
}

// annotateRef records the declaration an identifier resolves to, ahead of
// annotate's own Type write for the same node.
func (r *Resolver) annotateRef(e ast.Expr, ref any) {
	info := r.info[e]
	if info == nil {
		info = &ExprInfo{}
		r.info[e] = info
	}
	info.Ref = ref
}

// structWork is a queued, not-yet-body-checked structure instantiation.
type structWork struct {
	info  *StructInfo
	depth int
}

// Resolver walks a flattened module (internal/importer's output),
// producing a Program or a list of diagnostics.
type Resolver struct {
	global *symtab.Scope
	scope  *symtab.Scope
	errors []error

	structs map[string]*ast.StructDecl
	aliases map[string]*ast.AliasDecl
	funcs   map[string]*ast.FuncDecl

	instances    map[mono.Key]*types.Struct
	structInfos  map[mono.Key]*StructInfo
	worklist     *mono.Worklist
	workQueue    []structWork
	methodSigs   map[mono.Key]map[string]*symtab.FuncSignature
	staticSigs   map[mono.Key]map[string]*symtab.FuncSignature
	ctorSigs     map[mono.Key]*symtab.FuncSignature

	currentFunction *symtab.Symbol
	currentThis     types.Type          // the receiver type inside a method/ctor body, nil otherwise
	currentSubst    map[string]types.Type
	currentDepth    int
	aliasStack      []string

	orderedStructs []mono.Key // instantiation order, for deterministic Program.Structs

	info      map[ast.Expr]*ExprInfo
	locals    map[*ast.VarDeclStmt]types.Type
	hostSigs  map[*ast.HostImportDecl]*symtab.FuncSignature
}

// New creates a Resolver with the given monomorphization depth bound (0
// selects the spec.md §4.5 default of 64).
func New(maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = defaultMaxInstantiationDepth
	}
	global := symtab.NewScope(symtab.ScopeGlobal, nil)
	return &Resolver{
		global:      global,
		scope:       global,
		structs:     make(map[string]*ast.StructDecl),
		aliases:     make(map[string]*ast.AliasDecl),
		funcs:       make(map[string]*ast.FuncDecl),
		instances:   make(map[mono.Key]*types.Struct),
		structInfos: make(map[mono.Key]*StructInfo),
		worklist:    mono.NewWorklist(maxDepth),
		methodSigs:  make(map[mono.Key]map[string]*symtab.FuncSignature),
		staticSigs:  make(map[mono.Key]map[string]*symtab.FuncSignature),
		ctorSigs:    make(map[mono.Key]*symtab.FuncSignature),
		info:        make(map[ast.Expr]*ExprInfo),
		locals:      make(map[*ast.VarDeclStmt]types.Type),
		hostSigs:    make(map[*ast.HostImportDecl]*symtab.FuncSignature),
	}
}

// Resolve runs both sub-passes over mod and drains the monomorphization
// worklist, returning the flattened Program or the diagnostics collected
// along the way (spec.md §7: every stage accumulates all the errors it
// can before the pipeline aborts).
func (r *Resolver) Resolve(mod *importer.Module) (*Program, []error) {
	r.declare(mod)
	r.defineHosts(mod.Hosts)

	var functions []*FunctionInfo
	for _, decl := range mod.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Receiver != nil {
			continue
		}
		info := r.resolveTopFunction(fd)
		functions = append(functions, info)
	}

	r.drainWorklist()

	if len(r.errors) > 0 {
		return nil, r.errors
	}

	structInfos := make([]*StructInfo, 0, len(r.orderedStructs))
	for _, key := range r.orderedStructs {
		structInfos = append(structInfos, r.structInfos[key])
	}

	return &Program{Functions: functions, Structs: structInfos, Hosts: mod.Hosts, Info: r.info, Locals: r.locals, HostSignatures: r.hostSigs}, nil
}

// declare registers every top-level function, structure, and alias by
// name (spec.md §4.4's "declaration collection"), reporting NameError on
// any collision. Structures and aliases are recorded in r.structs/
// r.aliases for the type resolver; nothing about their bodies is checked
// here — that happens per monomorphic instantiation.
func (r *Resolver) declare(mod *importer.Module) {
	for _, decl := range mod.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Receiver != nil {
				continue // struct members are declared alongside their structure, below
			}
			r.funcs[d.Name] = d
		case *ast.StructDecl:
			r.structs[d.Name] = d
		case *ast.AliasDecl:
			r.aliases[d.Name] = d
		}
	}

	for _, decl := range mod.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Receiver != nil {
				continue
			}
			r.declareFunctionSymbol(d)
		case *ast.StructDecl:
			r.declareNameOnly(d.Name, symtab.KindStructure, d.Pos())
		case *ast.AliasDecl:
			r.declareNameOnly(d.Name, symtab.KindAlias, d.Pos())
		}
	}
}

// declareNameOnly reserves name in the global scope purely to catch a
// collision with another top-level declaration (spec.md §4.4: "detect
// duplicate declarations") — structures and aliases carry no Symbol.Type
// of their own since their shape depends on type arguments not known
// until an instantiation site is resolved.
func (r *Resolver) declareNameOnly(name string, kind symtab.Kind, pos lexer.Position) {
	sym := &symtab.Symbol{Name: name, Kind: kind, Pos: pos}
	if err := r.global.Define(sym); err != nil {
		r.errorAt(spanAt(pos), "%s", err.Error())
	}
}

// declareFunctionSymbol resolves a free function's signature (functions
// are never generic, per the parser's own bare-call-vs-constructor-call
// design: only structures and aliases carry type parameters) and defines
// it in the global scope.
func (r *Resolver) declareFunctionSymbol(d *ast.FuncDecl) {
	sig := r.resolveFuncSignature(d, nil)
	sym := &symtab.Symbol{Name: d.Name, Kind: symtab.KindFunction, Signature: sig, Pos: d.Pos()}
	if err := r.global.Define(sym); err != nil {
		r.errorAt(spanOf(d), "%s", err.Error())
	}
}

// resolveFuncSignature resolves a function/method/constructor/static's
// parameter and return types against subst (nil for non-generic free
// functions).
func (r *Resolver) resolveFuncSignature(d *ast.FuncDecl, subst map[string]types.Type) *symtab.FuncSignature {
	params := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = r.resolveType(p.Type, subst, spanAt(p.Pos))
	}
	var ret types.Type = types.Void
	if d.ReturnType != nil {
		ret = r.resolveType(d.ReturnType, subst, spanOf(d))
	}
	return &symtab.FuncSignature{
		Params:        params,
		ReturnType:    ret,
		IsConstructor: d.IsConstructor,
		IsStatic:      d.IsStatic,
		IsMethod:      d.Receiver != nil && !d.IsStatic && !d.IsConstructor,
	}
}

// defineHosts records every merged host import as a KindHostImport symbol
// in the global scope, callable by its bare Name (spec.md §4.3's merge
// already resolved module/name/signature conflicts).
func (r *Resolver) defineHosts(hosts []*ast.HostImportDecl) {
	for _, h := range hosts {
		params := make([]types.Type, len(h.Params))
		for i, p := range h.Params {
			params[i] = r.resolveType(p, nil, spanOf(h))
		}
		var ret types.Type = types.Void
		if h.Return != nil {
			ret = r.resolveType(h.Return, nil, spanOf(h))
		}
		sig := &symtab.FuncSignature{
			Params:     params,
			ReturnType: ret,
		}
		sym := &symtab.Symbol{
			Name:      h.Name,
			Kind:      symtab.KindHostImport,
			Signature: sig,
			Pos:       h.Pos(),
		}
		if err := r.global.Define(sym); err != nil {
			r.errorAt(spanOf(h), "%s", err.Error())
		}
		r.hostSigs[h] = sig
	}
}

// resolveTopFunction type-checks a free function's body in a fresh
// function scope. Resolving its body may enqueue structure instantiations
// (spec.md §4.5: "initially seeded by ... resolution of void main() and
// any other entry points"); this resolver seeds from every top-level
// function, not main alone, since Muni has no separate-compilation or
// dead-code-elimination concept (spec.md's Non-goals) and every
// declaration should be checked regardless of whether it is ultimately
// reachable.
func (r *Resolver) resolveTopFunction(d *ast.FuncDecl) *FunctionInfo {
	sym := r.global.LookupLocal(d.Name)
	var sig *symtab.FuncSignature
	if sym != nil {
		sig = sym.Signature
	} else {
		sig = r.resolveFuncSignature(d, nil)
	}

	r.enterScope(symtab.ScopeFunction)
	savedFunc, savedThis, savedSubst := r.currentFunction, r.currentThis, r.currentSubst
	r.currentFunction = &symtab.Symbol{Name: d.Name, Kind: symtab.KindFunction, Signature: sig}
	r.currentThis = nil
	r.currentSubst = nil

	for i, p := range d.Params {
		psym := &symtab.Symbol{Name: p.Name, Kind: symtab.KindParameter, Type: sig.Params[i], Pos: p.Pos, Index: i, DeclNode: p}
		if err := r.scope.Define(psym); err != nil {
			r.errorAt(spanAt(p.Pos), "%s", err.Error())
		}
	}

	if d.Body != nil {
		r.resolveBlock(d.Body)
	}

	r.currentFunction, r.currentThis, r.currentSubst = savedFunc, savedThis, savedSubst
	r.exitScope()

	return &FunctionInfo{Decl: d, Signature: sig}
}

// drainWorklist processes queued structure instantiations until none
// remain — body-checking one instantiation's constructor/methods/statics
// may itself request further instantiations (spec.md §4.5's fixed point).
func (r *Resolver) drainWorklist() {
	for len(r.workQueue) > 0 {
		w := r.workQueue[0]
		r.workQueue = r.workQueue[1:]
		r.resolveStructBody(w)
	}
}

func (r *Resolver) enterScope(kind symtab.ScopeKind) {
	r.scope = symtab.NewScope(kind, r.scope)
}

func (r *Resolver) exitScope() {
	if r.scope.Parent != nil {
		r.scope = r.scope.Parent
	}
}

func (r *Resolver) errorAt(span lexer.Span, format string, args ...any) {
	r.errors = append(r.errors, diag.TypeError(span, format, args...))
}

func (r *Resolver) nameErrorAt(span lexer.Span, format string, args ...any) {
	r.errors = append(r.errors, diag.NameError(span, format, args...))
}

// spanOf builds the Pos-to-End span diagnostics use for an AST node.
func spanOf(n ast.Node) lexer.Span {
	return lexer.Span{Start: n.Pos(), End: n.End()}
}

// spanAt builds a zero-width span at a single position, for nodes (like
// ast.Parameter and ast.Field) that carry a Pos but no End of their own.
func spanAt(p lexer.Position) lexer.Span {
	return lexer.Span{Start: p, End: p}
}
