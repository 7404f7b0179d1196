package resolve

import (
	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/lexer"
	"github.com/hassan/munic/internal/mono"
	"github.com/hassan/munic/internal/symtab"
	"github.com/hassan/munic/internal/types"
)

// resolveExpr type-checks e and returns its resolved type, defaulting to
// types.Invalid if the Visit call produced nothing usable (already
// reported as a diagnostic by the Visit method itself). Every expression
// node passes through here exactly once, so this is also where e's
// resolved type is recorded into Program.Info for internal/ir.
func (r *Resolver) resolveExpr(e ast.Expr) types.Type {
	v, _ := e.Accept(r)
	t, ok := v.(types.Type)
	if !ok || t == nil {
		t = types.Invalid
	}
	r.annotate(e, t)
	return t
}

func (r *Resolver) VisitIntegerLiteral(e *ast.IntegerLiteral) (any, error) {
	return types.Int, nil
}

func (r *Resolver) VisitBooleanLiteral(e *ast.BooleanLiteral) (any, error) {
	return types.Boolean, nil
}

func (r *Resolver) VisitCharLiteral(e *ast.CharLiteral) (any, error) {
	return types.Char, nil
}

// VisitStringLiteral types a string literal as the standard library's
// `string` alias, which resolveAlias/resolveType transparently expands to
// `vec<char>` the same way any other reference to the name `string`
// would (spec.md §4.6: "string literals lower to a vec<char> constructor
// invocation seeded from a data segment").
func (r *Resolver) VisitStringLiteral(e *ast.StringLiteral) (any, error) {
	if alias, ok := r.aliases["string"]; ok {
		ref := &ast.NamedType{Name: "string"}
		return r.resolveAlias(alias, ref, r.currentSubst, spanOf(e)), nil
	}
	r.nameErrorAt(spanOf(e), "string literals require the standard library's string alias, which is missing")
	return types.Invalid, nil
}

// VisitArrayLiteral requires every element to share a single element
// type (spec.md §3: "array<T>" is homogeneous); an empty array literal
// cannot infer T on its own and is rejected.
func (r *Resolver) VisitArrayLiteral(e *ast.ArrayLiteral) (any, error) {
	if len(e.Elements) == 0 {
		r.errorAt(spanOf(e), "cannot infer element type of an empty array literal")
		return types.Invalid, nil
	}
	elem := r.resolveExpr(e.Elements[0])
	for _, el := range e.Elements[1:] {
		t := r.resolveExpr(el)
		if !r.checkAssignable(elem, el, t, spanOf(el)) {
			r.errorAt(spanOf(el), "array literal element has type %s, expected %s", t.String(), elem.String())
		}
	}
	return &types.Array{Elem: elem}, nil
}

// VisitNullLiteral cannot return a dedicated null type — types.Type's
// kind() method is unexported, so only package types may add a new
// implementor. Assignability-with-null is instead special-cased wherever
// checkAssignable sees an *ast.NullLiteral on the value side; the type
// returned here is never examined on its own, only the AST node is.
func (r *Resolver) VisitNullLiteral(e *ast.NullLiteral) (any, error) {
	return types.Invalid, nil
}

// VisitIdentifier resolves a bare name reference: `this` inside a method
// or constructor body, or a declared local/parameter/function/structure/
// alias/host-import.
func (r *Resolver) VisitIdentifier(e *ast.Identifier) (any, error) {
	if e.Name == "this" {
		if r.currentThis == nil {
			r.nameErrorAt(spanOf(e), "this is only valid inside a method or constructor")
			return types.Invalid, nil
		}
		return r.currentThis, nil
	}

	sym := r.scope.Lookup(e.Name)
	if sym == nil {
		r.nameErrorAt(spanOf(e), "undefined name %q", e.Name)
		return types.Invalid, nil
	}
	switch sym.Kind {
	case symtab.KindLocal, symtab.KindParameter, symtab.KindField:
		r.annotateRef(e, sym.DeclNode)
		return sym.Type, nil
	default:
		r.nameErrorAt(spanOf(e), "%q does not name a value", e.Name)
		return types.Invalid, nil
	}
}

// VisitFieldAccess requires a structure-typed receiver and a field
// declared on that instantiation.
func (r *Resolver) VisitFieldAccess(e *ast.FieldAccess) (any, error) {
	recv := r.resolveExpr(e.Receiver)
	st, ok := recv.(*types.Struct)
	if !ok {
		if recv != types.Invalid {
			r.errorAt(spanOf(e), "field access requires a structure receiver, got %s", recv.String())
		}
		return types.Invalid, nil
	}
	f := st.LookupField(e.Field)
	if f == nil {
		r.nameErrorAt(spanOf(e), "%s has no field %q", st.String(), e.Field)
		return types.Invalid, nil
	}
	return f.Type, nil
}

// VisitMethodCall requires a structure receiver and checks the call
// against that instantiation's method signature map, populated by
// instantiateStruct.
func (r *Resolver) VisitMethodCall(e *ast.MethodCall) (any, error) {
	recv := r.resolveExpr(e.Receiver)
	st, ok := recv.(*types.Struct)
	if !ok {
		if recv != types.Invalid {
			r.errorAt(spanOf(e), "method call requires a structure receiver, got %s", recv.String())
		}
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}

	key := mono.Key(st.Mangled)
	sig, ok := r.methodSigs[key][e.Method]
	if !ok {
		r.nameErrorAt(spanOf(e), "%s has no method %q", st.String(), e.Method)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	r.annotateCallee(e, types.MangleMember(st.Mangled, e.Method), true)
	r.checkArgs(e.Args, sig.Params, spanOf(e))
	return sig.ReturnType, nil
}

// VisitCall resolves a plain call `name(args)`: a free function or a host
// import sharing the same flat call-by-name namespace (spec.md §3's
// symbol kind list), or — per this resolver's bare-call-vs-constructor-
// call Open Question decision — a non-generic structure's constructor,
// since the parser has no symbol table available to tell `Foo(args)`
// apart from a function call at parse time and only ever emits
// ast.ConstructorCall for the explicit-type-argument form `Foo<T>(args)`.
func (r *Resolver) VisitCall(e *ast.Call) (any, error) {
	sym := r.global.LookupLocal(e.Callee)
	if sym == nil {
		if decl, ok := r.structs[e.Callee]; ok && len(decl.TypeParams) == 0 {
			return r.resolveBareConstructorCall(decl, e)
		}
		r.nameErrorAt(spanOf(e), "undefined function %q", e.Callee)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	if sym.Kind != symtab.KindFunction && sym.Kind != symtab.KindHostImport {
		r.nameErrorAt(spanOf(e), "%q is not callable", e.Callee)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	r.annotateCallee(e, e.Callee, true)
	r.checkArgs(e.Args, sym.Signature.Params, spanOf(e))
	return sym.Signature.ReturnType, nil
}

func (r *Resolver) resolveBareConstructorCall(decl *ast.StructDecl, e *ast.Call) (any, error) {
	instType := r.instantiateStruct(decl, nil, spanOf(e))
	st, ok := instType.(*types.Struct)
	if !ok {
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	key := mono.Key(st.Mangled)
	sig, ok := r.ctorSigs[key]
	if !ok {
		r.annotateCallee(e, "", false)
		if len(e.Args) != 0 {
			r.errorAt(spanOf(e), "%s has no constructor but was called with arguments", st.String())
		}
		return st, nil
	}
	r.annotateCallee(e, types.MangleMember(st.Mangled, types.CtorMember), true)
	r.checkArgs(e.Args, sig.Params, spanOf(e))
	return st, nil
}

// VisitConstructorCall resolves `S<T1,...>(args)`: looks up the
// structure template, instantiates it for the given type arguments, and
// checks the call against the instantiation's constructor signature
// (absent constructor means the structure has no callable constructor).
func (r *Resolver) VisitConstructorCall(e *ast.ConstructorCall) (any, error) {
	decl, ok := r.structs[e.Struct]
	if !ok {
		r.nameErrorAt(spanOf(e), "undefined structure %q", e.Struct)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	args := r.resolveTypeArgs(e.TypeArgs, decl.TypeParams, e.Struct, r.currentSubst, spanOf(e))
	instType := r.instantiateStruct(decl, args, spanOf(e))
	st, ok := instType.(*types.Struct)
	if !ok {
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}

	key := mono.Key(st.Mangled)
	sig, ok := r.ctorSigs[key]
	if !ok {
		r.annotateCallee(e, "", false)
		if len(e.Args) != 0 {
			r.errorAt(spanOf(e), "%s has no constructor but was called with arguments", st.String())
		}
		return st, nil
	}
	r.annotateCallee(e, types.MangleMember(st.Mangled, types.CtorMember), true)
	r.checkArgs(e.Args, sig.Params, spanOf(e))
	return st, nil
}

// VisitStaticMethodCall resolves `S<T1,...>.name(args)`.
func (r *Resolver) VisitStaticMethodCall(e *ast.StaticMethodCall) (any, error) {
	decl, ok := r.structs[e.Struct]
	if !ok {
		r.nameErrorAt(spanOf(e), "undefined structure %q", e.Struct)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	args := r.resolveTypeArgs(e.TypeArgs, decl.TypeParams, e.Struct, r.currentSubst, spanOf(e))
	instType := r.instantiateStruct(decl, args, spanOf(e))
	st, ok := instType.(*types.Struct)
	if !ok {
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}

	key := mono.Key(st.Mangled)
	sig, ok := r.staticSigs[key][e.Method]
	if !ok {
		r.nameErrorAt(spanOf(e), "%s has no static method %q", st.String(), e.Method)
		r.resolveArgs(e.Args)
		return types.Invalid, nil
	}
	r.annotateCallee(e, types.MangleMember(st.Mangled, e.Method), true)
	r.checkArgs(e.Args, sig.Params, spanOf(e))
	return sig.ReturnType, nil
}

// VisitBinary implements spec.md §4.4's operator typing rules: arithmetic
// accepts int or char (char is an alias for int) and always yields int;
// equality accepts any pair of comparable operands, including null
// against an array/structure; ordering accepts int or char;
// logical operators require boolean.
func (r *Resolver) VisitBinary(e *ast.Binary) (any, error) {
	lt := r.resolveExpr(e.Left)
	rt := r.resolveExpr(e.Right)

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !isArithmeticOperand(lt) || !isArithmeticOperand(rt) {
			r.errorAt(spanOf(e), "arithmetic requires int operands, got %s and %s", lt.String(), rt.String())
		}
		return types.Int, nil

	case ast.OpEq, ast.OpNeq:
		if !r.checkComparable(lt, e.Left, rt, e.Right, spanOf(e)) {
			r.errorAt(spanOf(e), "cannot compare %s with %s", lt.String(), rt.String())
		}
		return types.Boolean, nil

	case ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		if !isArithmeticOperand(lt) || !isArithmeticOperand(rt) {
			r.errorAt(spanOf(e), "ordering comparison requires int or char operands, got %s and %s", lt.String(), rt.String())
		}
		return types.Boolean, nil

	case ast.OpAnd, ast.OpOr:
		if !types.IsBoolean(lt) || !types.IsBoolean(rt) {
			r.errorAt(spanOf(e), "logical operator requires boolean operands, got %s and %s", lt.String(), rt.String())
		}
		return types.Boolean, nil

	default:
		r.errorAt(spanOf(e), "unhandled binary operator")
		return types.Invalid, nil
	}
}

// VisitUnary requires int for `-` and boolean for `!`.
func (r *Resolver) VisitUnary(e *ast.Unary) (any, error) {
	t := r.resolveExpr(e.Operand)
	switch e.Op {
	case ast.OpNeg:
		if !isArithmeticOperand(t) {
			r.errorAt(spanOf(e), "unary - requires an int operand, got %s", t.String())
		}
		return types.Int, nil
	case ast.OpNot:
		if !types.IsBoolean(t) {
			r.errorAt(spanOf(e), "unary ! requires a boolean operand, got %s", t.String())
		}
		return types.Boolean, nil
	default:
		r.errorAt(spanOf(e), "unhandled unary operator")
		return types.Invalid, nil
	}
}

// VisitIndex requires an array receiver and an int index (spec.md §4.4;
// char is never accepted as an index despite sharing int's arithmetic,
// since an index is a position, not a character value).
func (r *Resolver) VisitIndex(e *ast.Index) (any, error) {
	recv := r.resolveExpr(e.Receiver)
	idx := r.resolveExpr(e.Index)

	arr, ok := recv.(*types.Array)
	if !ok {
		if recv != types.Invalid {
			r.errorAt(spanOf(e), "indexing requires an array receiver, got %s", recv.String())
		}
		return types.Invalid, nil
	}
	if idx != types.Int {
		r.errorAt(spanOf(e), "array index must be int, got %s", idx.String())
	}
	return arr.Elem, nil
}

// VisitCast permits conversion between any two scalar types, or a cast to
// an identical type (spec.md §3 lists "cast" as an expression variant but
// leaves its semantics unspecified beyond that; this resolver's
// documented Open Question decision is to treat it as a scalar
// reinterpretation, matching the only cast use the examples show: an
// explicit int/char/boolean conversion).
func (r *Resolver) VisitCast(e *ast.Cast) (any, error) {
	target := r.resolveType(e.Target, r.currentSubst, spanOf(e))
	src := r.resolveExpr(e.Operand)

	if target.Equals(src) {
		return target, nil
	}
	_, targetScalar := target.(*types.Scalar)
	_, srcScalar := src.(*types.Scalar)
	if !targetScalar || !srcScalar {
		r.errorAt(spanOf(e), "cannot cast %s to %s", src.String(), target.String())
	}
	return target, nil
}

// resolveArgs type-checks every argument expression without comparing it
// against a parameter list — used when a call target failed to resolve,
// so the arguments themselves are still checked for internal errors.
func (r *Resolver) resolveArgs(args []ast.Expr) {
	for _, a := range args {
		r.resolveExpr(a)
	}
}

// checkArgs resolves and checks a call's arguments against the expected
// parameter types, reporting an arity mismatch or any non-assignable
// argument.
func (r *Resolver) checkArgs(args []ast.Expr, params []types.Type, span lexer.Span) {
	if len(args) != len(params) {
		r.errorAt(span, "expected %d argument(s), got %d", len(params), len(args))
	}
	n := len(args)
	if len(params) < n {
		n = len(params)
	}
	for i := 0; i < n; i++ {
		at := r.resolveExpr(args[i])
		if !r.checkAssignable(params[i], args[i], at, spanOf(args[i])) {
			r.errorAt(spanOf(args[i]), "argument %d has type %s, expected %s", i+1, at.String(), params[i].String())
		}
	}
	for i := n; i < len(args); i++ {
		r.resolveExpr(args[i])
	}
}

// isArithmeticOperand reports whether t may participate in `+ - * / %`:
// int, or char (spec.md: "char is an alias for int").
func isArithmeticOperand(t types.Type) bool {
	return t == types.Int || t == types.Char
}

// checkComparable implements `==`/`!=`'s operand rule: int/char/boolean
// compare by value, arrays/structures compare by reference identity, and
// `null` is accepted against any nullable (array/structure) operand
// (spec.md §4.4: "null is assignable to any structure or array type").
func (r *Resolver) checkComparable(lt types.Type, lexpr ast.Expr, rt types.Type, rexpr ast.Expr, span lexer.Span) bool {
	if isNullLiteral(lexpr) {
		return types.IsNullable(rt) || isNullLiteral(rexpr)
	}
	if isNullLiteral(rexpr) {
		return types.IsNullable(lt)
	}
	if !types.IsComparable(lt) || !types.IsComparable(rt) {
		return false
	}
	return lt.Equals(rt)
}

func isNullLiteral(e ast.Expr) bool {
	_, ok := e.(*ast.NullLiteral)
	return ok
}

// checkAssignable implements spec.md §4.4's assignment compatibility
// relation: exact type match, or `null` assigned into any nullable
// (array/structure) target. valueExpr is inspected directly (rather than
// valueType alone) because VisitNullLiteral cannot hand back a dedicated
// null Type — types.Type's kind() method is unexported outside package
// types.
func (r *Resolver) checkAssignable(target types.Type, valueExpr ast.Expr, valueType types.Type, span lexer.Span) bool {
	if isNullLiteral(valueExpr) {
		return types.IsNullable(target)
	}
	if valueType == types.Invalid || target == types.Invalid {
		return true // already reported; don't cascade a second diagnostic
	}
	return valueType.AssignableTo(target)
}
