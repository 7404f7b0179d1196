// Package ast defines the Abstract Syntax Tree node types produced by
// internal/parser.
//
// DESIGN PHILOSOPHY (carried over from the teacher's own ast package):
// - Use interfaces (Expr, Stmt, Decl) for polymorphism.
// - Use the visitor pattern for operations, avoiding scattered type
//   switches as new passes (resolver, lowerer) are added.
// - Store position info in every node for diagnostics.
// - Value types for small nodes, pointers for everything with children.
package ast

import "github.com/hassan/munic/internal/lexer"

// Node is the base interface for all AST nodes: every node can report its
// own source span.
type Node interface {
	Pos() lexer.Position
	End() lexer.Position
}

// Expr is the interface for expression nodes (integer/char/string/boolean
// literals, array literals, null, identifier references, field access,
// calls of every flavor, binary/unary ops, indexing, casts).
type Expr interface {
	Node
	Accept(v Visitor) (any, error)
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	Accept(v Visitor) error
	stmtNode()
}

// Decl is the interface for top-level declaration nodes (function,
// structure, alias, host-import, file-import). Declarations are also
// statements in the sense that they appear in File.Decls, but they carry
// their own marker so the resolver's declaration-collection pass can find
// them without a type switch over every Stmt variant.
type Decl interface {
	Node
	declNode()
}

// SyntacticType is the interface for the three syntactic type forms spec.md
// §3 lists: named (ident + optional type arguments), array<T>, and void.
// These are rewritten into types.Type by internal/resolve; they never reach
// internal/ir.
type SyntacticType interface {
	Node
	typeNode()
}

// Visitor is the interface for AST traversal used by internal/resolve and
// internal/ir to walk a resolved tree without a type switch at every call
// site. DESIGN CHOICE: Accept returns (any, error) for expressions (the
// resolver returns a types.Type, the lowerer returns an ir.Value) and plain
// error for statements, which never produce a value of their own.
type Visitor interface {
	VisitIntegerLiteral(e *IntegerLiteral) (any, error)
	VisitBooleanLiteral(e *BooleanLiteral) (any, error)
	VisitCharLiteral(e *CharLiteral) (any, error)
	VisitStringLiteral(e *StringLiteral) (any, error)
	VisitArrayLiteral(e *ArrayLiteral) (any, error)
	VisitNullLiteral(e *NullLiteral) (any, error)
	VisitIdentifier(e *Identifier) (any, error)
	VisitFieldAccess(e *FieldAccess) (any, error)
	VisitMethodCall(e *MethodCall) (any, error)
	VisitCall(e *Call) (any, error)
	VisitConstructorCall(e *ConstructorCall) (any, error)
	VisitStaticMethodCall(e *StaticMethodCall) (any, error)
	VisitBinary(e *Binary) (any, error)
	VisitUnary(e *Unary) (any, error)
	VisitIndex(e *Index) (any, error)
	VisitCast(e *Cast) (any, error)

	VisitBlock(s *Block) error
	VisitVarDecl(s *VarDeclStmt) error
	VisitAssign(s *Assign) error
	VisitExprStmt(s *ExprStmt) error
	VisitIf(s *If) error
	VisitWhile(s *While) error
	VisitUntil(s *Until) error
	VisitFor(s *For) error
	VisitDoWhile(s *DoWhile) error
	VisitReturn(s *Return) error
	VisitBreak(s *Break) error
	VisitContinue(s *Continue) error

	VisitFuncDecl(d *FuncDecl) error
	VisitStructDecl(d *StructDecl) error
	VisitAliasDecl(d *AliasDecl) error
	VisitHostImportDecl(d *HostImportDecl) error
	VisitFileImportDecl(d *FileImportDecl) error
}

// File is the root of a parsed Muni source file, before import resolution
// merges its declarations into the enclosing module.
//
// DESIGN CHOICE: the AST root is a File, not a Program, matching the
// teacher's own choice — it keeps the parser file-scoped and lets
// internal/importer own the cross-file merge policy (spec.md §4.3).
type File struct {
	Filename string
	Imports  []*FileImportDecl
	Hosts    []*HostImportDecl
	Decls    []Decl
}

// BaseNode provides Pos/End for every concrete node via embedding, matching
// the teacher's own BaseNode. Nodes with a naturally different span
// (Binary, whose End is its right operand's End) override these.
type BaseNode struct {
	StartPos lexer.Position
	EndPos   lexer.Position
}

func (b BaseNode) Pos() lexer.Position { return b.StartPos }
func (b BaseNode) End() lexer.Position { return b.EndPos }
