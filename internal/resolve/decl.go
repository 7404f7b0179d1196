package resolve

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/mono"
	"github.com/hassan/munic/internal/symtab"
)

// The five declaration Visit methods below exist to satisfy ast.Visitor —
// Decl nodes are driven directly by Resolve/declare/resolveStructBody
// rather than through Accept dispatch, since declarations need two
// separate passes (collect names, then check bodies) that a single
// visitor call can't express. A stray Accept call on a Decl (there are
// none in this package) still behaves correctly by forwarding here.

func (r *Resolver) VisitFuncDecl(d *ast.FuncDecl) error {
	if d.Receiver == nil {
		r.resolveTopFunction(d)
	}
	return nil
}

func (r *Resolver) VisitStructDecl(d *ast.StructDecl) error {
	return nil
}

func (r *Resolver) VisitAliasDecl(d *ast.AliasDecl) error {
	return nil
}

func (r *Resolver) VisitHostImportDecl(d *ast.HostImportDecl) error {
	return nil
}

func (r *Resolver) VisitFileImportDecl(d *ast.FileImportDecl) error {
	return nil
}

// resolveStructBody type-checks one monomorphic instantiation's
// constructor, methods, and static methods, with `this` bound to the
// instantiation's own type and every type-parameter reference in scope
// resolved against its Subst map. Queued by instantiateStruct; drained by
// Resolve's worklist loop, which may itself queue further instantiations
// discovered inside these bodies (spec.md §4.5's fixed point).
func (r *Resolver) resolveStructBody(w structWork) {
	info := w.info
	savedThis, savedSubst, savedFunc, savedDepth := r.currentThis, r.currentSubst, r.currentFunction, r.currentDepth
	r.currentThis = info.Type
	r.currentSubst = info.Subst
	r.currentDepth = w.depth

	if info.Decl.Constructor != nil {
		info.Constructor = r.resolveMember(info.Decl.Constructor, info)
	}
	for _, m := range info.Decl.Methods {
		info.Methods = append(info.Methods, r.resolveMember(m, info))
	}
	for _, m := range info.Decl.Statics {
		info.Statics = append(info.Statics, r.resolveMember(m, info))
	}

	r.currentThis, r.currentSubst, r.currentFunction, r.currentDepth = savedThis, savedSubst, savedFunc, savedDepth
}

// resolveMember type-checks one constructor/method/static body against
// its already-resolved signature (from instantiateStruct's
// ctorSigs/methodSigs/staticSigs maps), binding parameters (and, for a
// non-static member, `this`) in a fresh function scope.
func (r *Resolver) resolveMember(d *ast.FuncDecl, info *StructInfo) *FunctionInfo {
	key := structKey(info)
	var sig *symtab.FuncSignature
	switch {
	case d.IsConstructor:
		sig = r.ctorSigs[key]
	case d.IsStatic:
		sig = r.staticSigs[key][d.Name]
	default:
		sig = r.methodSigs[key][d.Name]
	}

	r.enterScope(symtab.ScopeFunction)
	r.currentFunction = &symtab.Symbol{Name: d.Name, Kind: symtab.KindFunction, Signature: sig}

	for i, p := range d.Params {
		psym := &symtab.Symbol{Name: p.Name, Kind: symtab.KindParameter, Type: sig.Params[i], Pos: p.Pos, Index: i, DeclNode: p}
		if err := r.scope.Define(psym); err != nil {
			r.errorAt(spanAt(p.Pos), "%s", err.Error())
		}
	}

	if d.Body != nil {
		r.resolveBlock(d.Body)
	}
	r.exitScope()

	return &FunctionInfo{Decl: d, Signature: sig}
}

func structKey(info *StructInfo) mono.Key {
	return mono.Key(info.Type.Mangled)
}
