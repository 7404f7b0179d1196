package resolve

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/symtab"
	"github.com/hassan/munic/internal/types"
)

// resolveBlock type-checks every statement of b in a fresh block scope.
func (r *Resolver) resolveBlock(b *ast.Block) {
	_ = r.VisitBlock(b)
}

func (r *Resolver) VisitBlock(s *ast.Block) error {
	r.enterScope(symtab.ScopeBlock)
	for _, stmt := range s.Stmts {
		_ = stmt.Accept(r)
	}
	r.exitScope()
	return nil
}

// VisitVarDecl resolves `Type ident [= expr] ;`, checking the initializer
// (if any) is assignable to the declared type and defining the new local
// in the current scope.
func (r *Resolver) VisitVarDecl(s *ast.VarDeclStmt) error {
	declared := r.resolveType(s.Type, r.currentSubst, spanOf(s))
	r.locals[s] = declared

	if s.Init != nil {
		valType := r.resolveExpr(s.Init)
		if !r.checkAssignable(declared, s.Init, valType, spanOf(s)) {
			r.errorAt(spanOf(s), "cannot initialize %q of type %s with value of type %s", s.Name, declared.String(), valType.String())
		}
	}

	sym := &symtab.Symbol{Name: s.Name, Kind: symtab.KindLocal, Type: declared, Pos: s.Pos(), Index: -1, DeclNode: s}
	if err := r.scope.Define(sym); err != nil {
		r.nameErrorAt(spanOf(s), "%s", err.Error())
	}
	return nil
}

// VisitAssign resolves `target = value ;`, requiring the target be an
// assignable lvalue (spec.md §4.4: identifier naming a local/parameter, a
// field access, or an array index) and the value compatible with its
// type.
func (r *Resolver) VisitAssign(s *ast.Assign) error {
	targetType := r.resolveExpr(s.Target)

	switch t := s.Target.(type) {
	case *ast.Identifier:
		sym := r.scope.Lookup(t.Name)
		if sym != nil && !sym.CanAssign() {
			r.nameErrorAt(spanOf(s), "%q is not assignable", t.Name)
		}
	case *ast.FieldAccess, *ast.Index:
		// always assignable once the receiver/field/index themselves
		// resolved without error
	default:
		r.errorAt(spanOf(s), "invalid assignment target")
	}

	valType := r.resolveExpr(s.Value)
	if !r.checkAssignable(targetType, s.Value, valType, spanOf(s)) {
		r.errorAt(spanOf(s), "cannot assign value of type %s to target of type %s", valType.String(), targetType.String())
	}
	return nil
}

func (r *Resolver) VisitExprStmt(s *ast.ExprStmt) error {
	r.resolveExpr(s.Expr)
	return nil
}

// VisitIf requires a boolean condition and resolves both branches in
// their own scopes (spec.md §4.4).
func (r *Resolver) VisitIf(s *ast.If) error {
	r.checkBoolean(s.Cond)
	r.resolveBlock(s.Then)
	if s.Else != nil {
		_ = s.Else.Accept(r)
	}
	return nil
}

func (r *Resolver) VisitWhile(s *ast.While) error {
	r.checkBoolean(s.Cond)
	r.enterScope(symtab.ScopeLoop)
	for _, stmt := range s.Body.Stmts {
		_ = stmt.Accept(r)
	}
	r.exitScope()
	return nil
}

// VisitUntil resolves `until (cond) body`, an inverted while (spec.md
// §4.6): the condition and scoping rules are identical to while, only the
// lowerer's branch polarity differs.
func (r *Resolver) VisitUntil(s *ast.Until) error {
	r.checkBoolean(s.Cond)
	r.enterScope(symtab.ScopeLoop)
	for _, stmt := range s.Body.Stmts {
		_ = stmt.Accept(r)
	}
	r.exitScope()
	return nil
}

// VisitFor enters the loop scope before resolving Init so an
// Init-declared loop variable is visible to Cond/Step/Body, matching the
// teacher's own VisitForStmt.
func (r *Resolver) VisitFor(s *ast.For) error {
	r.enterScope(symtab.ScopeLoop)
	if s.Init != nil {
		_ = s.Init.Accept(r)
	}
	if s.Cond != nil {
		r.checkBoolean(s.Cond)
	}
	for _, stmt := range s.Body.Stmts {
		_ = stmt.Accept(r)
	}
	if s.Step != nil {
		_ = s.Step.Accept(r)
	}
	r.exitScope()
	return nil
}

// VisitDoWhile resolves the body before the trailing condition, so
// locals declared in the body's own nested block scope are correctly out
// of scope by the time the condition is checked.
func (r *Resolver) VisitDoWhile(s *ast.DoWhile) error {
	r.enterScope(symtab.ScopeLoop)
	for _, stmt := range s.Body.Stmts {
		_ = stmt.Accept(r)
	}
	r.exitScope()
	r.checkBoolean(s.Cond)
	return nil
}

// VisitReturn checks the returned value (if any) against the enclosing
// function's declared return type; a bare `return;` requires void.
func (r *Resolver) VisitReturn(s *ast.Return) error {
	var want types.Type = types.Void
	if r.currentFunction != nil && r.currentFunction.Signature != nil {
		want = r.currentFunction.Signature.ReturnType
	}

	if s.Value == nil {
		if want != types.Void {
			r.errorAt(spanOf(s), "missing return value; function returns %s", want.String())
		}
		return nil
	}

	got := r.resolveExpr(s.Value)
	if want == types.Void {
		r.errorAt(spanOf(s), "void function cannot return a value")
		return nil
	}
	if !r.checkAssignable(want, s.Value, got, spanOf(s)) {
		r.errorAt(spanOf(s), "cannot return value of type %s from function returning %s", got.String(), want.String())
	}
	return nil
}

func (r *Resolver) VisitBreak(s *ast.Break) error {
	if r.scope.FindEnclosingLoop() == nil {
		r.errorAt(spanOf(s), "break outside of a loop")
	}
	return nil
}

func (r *Resolver) VisitContinue(s *ast.Continue) error {
	if r.scope.FindEnclosingLoop() == nil {
		r.errorAt(spanOf(s), "continue outside of a loop")
	}
	return nil
}

// checkBoolean resolves cond and reports a TypeError unless it is
// boolean-typed (spec.md §4.4: every conditional header requires
// boolean).
func (r *Resolver) checkBoolean(cond ast.Expr) {
	t := r.resolveExpr(cond)
	if !types.IsBoolean(t) && t != types.Invalid {
		r.errorAt(spanOf(cond), "condition must be boolean, got %s", t.String())
	}
}
