package resolve

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/lexer"
	"github.com/hassan/munic/internal/mono"
	"github.com/hassan/munic/internal/symtab"
	"github.com/hassan/munic/internal/types"
)

// resolveType turns a syntactic type into its concrete types.Type,
// expanding aliases and driving generic structure instantiation along the
// way. subst maps an enclosing generic definition's type-parameter names
// to their concrete arguments at this resolution site (nil outside any
// generic context).
func (r *Resolver) resolveType(syn ast.SyntacticType, subst map[string]types.Type, span lexer.Span) types.Type {
	switch t := syn.(type) {
	case *ast.VoidType:
		return types.Void

	case *ast.ArrayType:
		return &types.Array{Elem: r.resolveType(t.Elem, subst, span)}

	case *ast.NamedType:
		return r.resolveNamedType(t, subst, span)

	default:
		r.errorAt(span, "unresolvable syntactic type %T", syn)
		return types.Invalid
	}
}

func (r *Resolver) resolveNamedType(t *ast.NamedType, subst map[string]types.Type, span lexer.Span) types.Type {
	// A bare reference to an enclosing generic's own type parameter, e.g.
	// `T` inside `structure Box<T> { T value; }`.
	if len(t.Args) == 0 {
		if subst != nil {
			if concrete, ok := subst[t.Name]; ok {
				return concrete
			}
		}
	}

	switch t.Name {
	case "int":
		return types.Int
	case "boolean":
		return types.Boolean
	case "char":
		return types.Char
	case "float":
		// spec.md §9's floating point Non-goal requires floats to be
		// rejected as a TypeError rather than silently accepted or
		// miscompiled.
		r.errorAt(span, "floating point is not supported")
		return types.Invalid
	}

	if alias, ok := r.aliases[t.Name]; ok {
		return r.resolveAlias(alias, t, subst, span)
	}

	if decl, ok := r.structs[t.Name]; ok {
		args := r.resolveTypeArgs(t.Args, decl.TypeParams, t.Name, subst, span)
		return r.instantiateStruct(decl, args, span)
	}

	r.nameErrorAt(span, "undefined type %q", t.Name)
	return types.Invalid
}

// resolveTypeArgs resolves a generic reference's syntactic type arguments
// and checks arity against the definition's type parameter list.
func (r *Resolver) resolveTypeArgs(synArgs []ast.SyntacticType, params []*ast.TypeParam, name string, subst map[string]types.Type, span lexer.Span) []types.Type {
	if len(synArgs) != len(params) {
		r.errorAt(span, "%s expects %d type argument(s), got %d", name, len(params), len(synArgs))
	}
	args := make([]types.Type, len(synArgs))
	for i, a := range synArgs {
		args[i] = r.resolveType(a, subst, span)
	}
	return args
}

// resolveAlias expands alias.Body with its type parameters bound to ref's
// arguments, detecting direct and indirect alias cycles (spec.md §4.4:
// "alias cycles are reported as AliasCycle").
func (r *Resolver) resolveAlias(alias *ast.AliasDecl, ref *ast.NamedType, subst map[string]types.Type, span lexer.Span) types.Type {
	for _, name := range r.aliasStack {
		if name == alias.Name {
			r.errors = append(r.errors, diag.AliasCycle([]lexer.Span{span}, "alias %q is defined in terms of itself", alias.Name))
			return types.Invalid
		}
	}

	args := r.resolveTypeArgs(ref.Args, alias.TypeParams, alias.Name, subst, span)
	aliasSubst := make(map[string]types.Type, len(alias.TypeParams))
	for i, p := range alias.TypeParams {
		if i < len(args) {
			aliasSubst[p.Name] = args[i]
		}
	}

	r.aliasStack = append(r.aliasStack, alias.Name)
	resolved := r.resolveType(alias.Body, aliasSubst, span)
	r.aliasStack = r.aliasStack[:len(r.aliasStack)-1]
	return resolved
}

// instantiateStruct returns the monomorphic types.Struct for decl<args>,
// creating and queuing it for body resolution the first time this exact
// (name, type-args) pair is requested.
//
// The stub is registered in r.instances BEFORE its fields are resolved:
// a self-referential generic structure (a linked-list node whose own
// field has the enclosing structure's type) recurses back into
// instantiateStruct for the identical key while resolving its fields,
// and must get back this same *types.Struct pointer — still incomplete
// at that moment, but later populated in place — rather than recursing
// without bound. This mirrors how a recursive-type checker (e.g. Go's
// own handling of a struct containing a pointer to itself) breaks the
// cycle: register the name before resolving what it names.
func (r *Resolver) instantiateStruct(decl *ast.StructDecl, args []types.Type, span lexer.Span) types.Type {
	key := mono.Key(types.Mangle(decl.Name, args))

	if existing, ok := r.instances[key]; ok {
		return existing
	}

	depth, _, err := r.worklist.Enqueue(key, r.currentDepth, span)
	if err != nil {
		r.errors = append(r.errors, err)
		return types.Invalid
	}

	subst := make(map[string]types.Type, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		if i < len(args) {
			subst[p.Name] = args[i]
		}
	}

	stub := &types.Struct{Name: decl.Name, TypeArgs: args, Mangled: string(key)}
	r.instances[key] = stub

	// Fields are resolved synchronously (unlike constructor/method/static
	// bodies, which are deferred to the worklist) since a field's type
	// must be known before this instantiation's layout and Size exist.
	// A field that itself instantiates a generic structure — directly,
	// as in Wrap<T>{ Wrap<array<T>> inner; }, or self-referentially, as
	// in Node<T>{ Node<T> next; } — recurses straight back into
	// instantiateStruct. r.currentDepth must therefore track THIS
	// instantiation's depth for the duration of field resolution, or the
	// chain depth the worklist uses to catch unbounded nesting (spec.md
	// §4.5) would never advance past 1.
	savedDepth := r.currentDepth
	r.currentDepth = depth

	offset := 0
	fields := make([]types.Field, 0, len(decl.Fields))
	for _, f := range decl.Fields {
		ft := r.resolveType(f.Type, subst, spanAt(f.Pos))
		fields = append(fields, types.Field{Name: f.Name, Type: ft, Offset: offset})
		offset += types.Size(ft)
	}
	stub.Fields = fields
	stub.Size = offset

	r.currentDepth = savedDepth

	info := &StructInfo{Type: stub, Decl: decl, Subst: subst}
	r.structInfos[key] = info
	r.orderedStructs = append(r.orderedStructs, key)

	r.methodSigs[key] = make(map[string]*symtab.FuncSignature, len(decl.Methods))
	for _, m := range decl.Methods {
		r.methodSigs[key][m.Name] = r.resolveFuncSignature(m, subst)
	}
	r.staticSigs[key] = make(map[string]*symtab.FuncSignature, len(decl.Statics))
	for _, m := range decl.Statics {
		r.staticSigs[key][m.Name] = r.resolveFuncSignature(m, subst)
	}
	if decl.Constructor != nil {
		r.ctorSigs[key] = r.resolveFuncSignature(decl.Constructor, subst)
	}

	r.workQueue = append(r.workQueue, structWork{info: info, depth: depth})

	return stub
}
