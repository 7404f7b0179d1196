// Package symtab implements symbol table management for Muni's name
// resolution and scoping (internal/resolve).
//
// DESIGN PHILOSOPHY (kept from the teacher's own internal/symtab):
// - Lexical scoping: inner scopes shadow outer ones.
// - One Symbol struct covering every kind rather than one struct per kind,
//   the same simplicity trade-off the teacher made — some fields go unused
//   for a given Kind, but the resolver never needs a type assertion to read
//   a symbol's name, type, or position.
package symtab

import (
	"github.com/hassan/munic/internal/lexer"
	"github.com/hassan/munic/internal/types"
)

// Kind identifies what a Symbol names, matching spec.md §3's symbol kind
// list verbatim: "local, parameter, field, function, structure, alias,
// host-import".
type Kind int

const (
	KindLocal Kind = iota
	KindParameter
	KindField
	KindFunction
	KindStructure
	KindAlias
	KindHostImport
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindParameter:
		return "parameter"
	case KindField:
		return "field"
	case KindFunction:
		return "function"
	case KindStructure:
		return "structure"
	case KindAlias:
		return "alias"
	case KindHostImport:
		return "host-import"
	default:
		return "unknown"
	}
}

// FuncSignature is the resolved shape of a function, method, constructor,
// or host import: parameter types in declaration order plus a return type.
// Stored on a Symbol's Type field is not enough on its own (Type only
// covers value types), so callable symbols carry one of these alongside.
type FuncSignature struct {
	Params     []types.Type
	ReturnType types.Type

	// IsConstructor/IsStatic/IsMethod mirror ast.FuncDecl's flags so the
	// resolver's call-checking code can tell a bare function from a
	// method that needs an implicit `this` argument bound.
	IsConstructor bool
	IsStatic      bool
	IsMethod      bool

	// Mangled is the link-time name monomorphization assigns this
	// instantiation (spec.md §3: "mangled function name" storage
	// location for callables).
	Mangled string
}

// Symbol is a named entity: a local, a parameter, a structure field, a
// function/method/constructor, a structure, an alias, or a host import.
type Symbol struct {
	Name string
	Kind Kind

	// Type is the symbol's resolved value type (locals, parameters,
	// fields) or nil for symbols whose "type" is instead a
	// FuncSignature (functions/methods/host-imports) or a structure/alias
	// definition looked up by name.
	Type types.Type

	// Signature is set for KindFunction and KindHostImport symbols.
	Signature *FuncSignature

	Pos   lexer.Position
	Scope *Scope

	// Index is this symbol's position, in definition order, among the
	// symbols of its own Scope; Scope.Define sets it for every kind of
	// symbol.
	Index int

	// DeclNode back-points to the AST node that introduced this symbol —
	// a *ast.Parameter or *ast.VarDeclStmt for KindParameter/KindLocal,
	// nil otherwise. internal/ir uses this (relayed through
	// resolve.ExprInfo.Ref) to find the same IR Value for every
	// Identifier referencing a given declaration, without re-walking the
	// scope chain itself.
	DeclNode any

	Used bool
}

// String renders "kind name: type at position" for diagnostics and the
// scope tree dumper.
func (s *Symbol) String() string {
	typeStr := "<no type>"
	if s.Type != nil {
		typeStr = s.Type.String()
	} else if s.Signature != nil {
		typeStr = s.Signature.ReturnType.String()
	}
	return s.Kind.String() + " " + s.Name + ": " + typeStr + " at " + s.Pos.String()
}

// IsGlobal reports whether this symbol is declared outside any function
// body (a top-level function, structure, alias, or host import).
func (s *Symbol) IsGlobal() bool {
	return s.Scope != nil && s.Scope.IsGlobal()
}

// CanAssign reports whether this symbol can appear as an assignment
// target — only locals and parameters (spec.md §4.4's assignment rule).
func (s *Symbol) CanAssign() bool {
	switch s.Kind {
	case KindLocal, KindParameter:
		return true
	default:
		return false
	}
}

// MarkUsed records that this symbol was referenced; Scope.Lookup calls it
// on every symbol it finds.
func (s *Symbol) MarkUsed() {
	s.Used = true
}
