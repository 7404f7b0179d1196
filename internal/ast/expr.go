package ast

import "github.com/hassan/munic/internal/lexer"

// BinaryOp identifies a binary operator token folded into a single enum so
// internal/resolve and internal/ir can switch on it directly instead of
// re-deriving it from a lexer.TokenType.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
	OpAnd // && — short-circuit, lowered to branches (spec.md §4.6)
	OpOr  // || — short-circuit, lowered to branches
)

// UnaryOp identifies a unary operator: `!` (logical not) or `-` (negate).
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

// IntegerLiteral is a decimal integer literal (spec.md §3).
type IntegerLiteral struct {
	BaseNode
	Value int64
}

func (e *IntegerLiteral) exprNode()                     {}
func (e *IntegerLiteral) Accept(v Visitor) (any, error) { return v.VisitIntegerLiteral(e) }

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	BaseNode
	Value bool
}

func (e *BooleanLiteral) exprNode()                     {}
func (e *BooleanLiteral) Accept(v Visitor) (any, error) { return v.VisitBooleanLiteral(e) }

// CharLiteral is a single-quoted character literal, already unescaped by
// the parser into its i32 code point value.
type CharLiteral struct {
	BaseNode
	Value rune
}

func (e *CharLiteral) exprNode()                     {}
func (e *CharLiteral) Accept(v Visitor) (any, error) { return v.VisitCharLiteral(e) }

// StringLiteral is a double-quoted string literal, already unescaped into
// its raw byte content. It lowers to a `vec<char>` constructor call seeded
// from an interned data segment (spec.md §4.6).
type StringLiteral struct {
	BaseNode
	Value string
}

func (e *StringLiteral) exprNode()                     {}
func (e *StringLiteral) Accept(v Visitor) (any, error) { return v.VisitStringLiteral(e) }

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	BaseNode
	Elements []Expr
}

func (e *ArrayLiteral) exprNode()                     {}
func (e *ArrayLiteral) Accept(v Visitor) (any, error) { return v.VisitArrayLiteral(e) }

// NullLiteral is `null`, assignable to any structure or array type
// (spec.md §4.4) and lowered to the i32 constant 0 (spec.md §4.6).
type NullLiteral struct {
	BaseNode
}

func (e *NullLiteral) exprNode()                     {}
func (e *NullLiteral) Accept(v Visitor) (any, error) { return v.VisitNullLiteral(e) }

// Identifier is a reference to a local, parameter, function, structure, or
// alias name; the resolver attaches a symbol to it.
type Identifier struct {
	BaseNode
	Name string
}

func (e *Identifier) exprNode()                     {}
func (e *Identifier) Accept(v Visitor) (any, error) { return v.VisitIdentifier(e) }

// FieldAccess is `receiver.field`.
type FieldAccess struct {
	BaseNode
	Receiver Expr
	Field    string
}

func (e *FieldAccess) exprNode()                     {}
func (e *FieldAccess) Accept(v Visitor) (any, error) { return v.VisitFieldAccess(e) }

// MethodCall is `receiver.method(args)`.
type MethodCall struct {
	BaseNode
	Receiver Expr
	Method   string
	Args     []Expr
}

func (e *MethodCall) exprNode()                     {}
func (e *MethodCall) Accept(v Visitor) (any, error) { return v.VisitMethodCall(e) }

// Call is a plain function call `name(args)`.
type Call struct {
	BaseNode
	Callee string
	Args   []Expr
}

func (e *Call) exprNode()                     {}
func (e *Call) Accept(v Visitor) (any, error) { return v.VisitCall(e) }

// ConstructorCall is `S<T1,...>(args)`.
type ConstructorCall struct {
	BaseNode
	Struct   string
	TypeArgs []SyntacticType
	Args     []Expr
}

func (e *ConstructorCall) exprNode()                     {}
func (e *ConstructorCall) Accept(v Visitor) (any, error) { return v.VisitConstructorCall(e) }

// StaticMethodCall is `S<T1,...>.name(args)`.
type StaticMethodCall struct {
	BaseNode
	Struct   string
	TypeArgs []SyntacticType
	Method   string
	Args     []Expr
}

func (e *StaticMethodCall) exprNode()                     {}
func (e *StaticMethodCall) Accept(v Visitor) (any, error) { return v.VisitStaticMethodCall(e) }

// Binary is a binary operator expression; End() is the right operand's End
// rather than a token position of its own, since a Binary node's span
// must cover both operands for diagnostics.
type Binary struct {
	BaseNode
	Op          BinaryOp
	Left, Right Expr
}

func (e *Binary) Pos() lexer.Position       { return e.Left.Pos() }
func (e *Binary) End() lexer.Position       { return e.Right.End() }
func (e *Binary) exprNode()                 {}
func (e *Binary) Accept(v Visitor) (any, error) { return v.VisitBinary(e) }

// Unary is a prefix operator expression (`!`, `-`).
type Unary struct {
	BaseNode
	Op      UnaryOp
	Operand Expr
}

func (e *Unary) End() lexer.Position       { return e.Operand.End() }
func (e *Unary) exprNode()                 {}
func (e *Unary) Accept(v Visitor) (any, error) { return v.VisitUnary(e) }

// Index is `receiver[index]`.
type Index struct {
	BaseNode
	Receiver Expr
	Index    Expr
}

func (e *Index) exprNode()                     {}
func (e *Index) Accept(v Visitor) (any, error) { return v.VisitIndex(e) }

// Cast is an explicit type conversion. spec.md §3 lists "cast" among the
// expression variants but leaves its surface syntax implicit; the parser
// recognizes `(Type) expr`, the one cast form every example program in the
// retrieval pack's C-family languages uses (grounded on the teacher's own
// grouping-expression parse, generalized to accept a leading type).
type Cast struct {
	BaseNode
	Target  SyntacticType
	Operand Expr
}

func (e *Cast) End() lexer.Position       { return e.Operand.End() }
func (e *Cast) exprNode()                 {}
func (e *Cast) Accept(v Visitor) (any, error) { return v.VisitCast(e) }
