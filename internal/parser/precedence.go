package parser

import "github.com/hassan/munic/internal/lexer"

// Precedence levels for Muni's binary operators, low to high, per spec.md
// §4.2: `|| ; && ; == != ; < <= > >= ; + - ; * / % ; unary ! - ; postfix`.
// Assignment is a statement form in Muni, not an expression, so unlike the
// teacher's precedence table there is no PrecAssignment level here.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// getPrecedence returns the binding power of an infix operator token, or
// PrecNone if tokenType never appears in infix position.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenOrOr:
		return PrecOr
	case lexer.TokenAndAnd:
		return PrecAnd
	case lexer.TokenEq, lexer.TokenNeq:
		return PrecEquality
	case lexer.TokenLt, lexer.TokenLeq, lexer.TokenGt, lexer.TokenGeq:
		return PrecComparison
	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPct:
		return PrecFactor
	case lexer.TokenDot, lexer.TokenLBracket, lexer.TokenLParen:
		return PrecCall
	default:
		return PrecNone
	}
}
