package parser

import (
	"testing"

	"github.com/hassan/munic/internal/lexer"
)

func TestGetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected Precedence
	}{
		{"logical or", lexer.TokenOrOr, PrecOr},
		{"logical and", lexer.TokenAndAnd, PrecAnd},

		{"equal", lexer.TokenEq, PrecEquality},
		{"not equal", lexer.TokenNeq, PrecEquality},

		{"less than", lexer.TokenLt, PrecComparison},
		{"less equal", lexer.TokenLeq, PrecComparison},
		{"greater than", lexer.TokenGt, PrecComparison},
		{"greater equal", lexer.TokenGeq, PrecComparison},

		{"plus", lexer.TokenPlus, PrecTerm},
		{"minus", lexer.TokenMinus, PrecTerm},

		{"star", lexer.TokenStar, PrecFactor},
		{"slash", lexer.TokenSlash, PrecFactor},
		{"percent", lexer.TokenPct, PrecFactor},

		{"dot", lexer.TokenDot, PrecCall},
		{"left bracket", lexer.TokenLBracket, PrecCall},
		{"left paren", lexer.TokenLParen, PrecCall},

		{"identifier", lexer.TokenIdentifier, PrecNone},
		{"integer", lexer.TokenInteger, PrecNone},
		{"semicolon", lexer.TokenSemicolon, PrecNone},
		{"assign", lexer.TokenAssign, PrecNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getPrecedence(tt.token)
			if result != tt.expected {
				t.Errorf("getPrecedence(%v) = %v, want %v", tt.token, result, tt.expected)
			}
		})
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	if PrecOr >= PrecAnd {
		t.Error("Or should have lower precedence than And")
	}
	if PrecAnd >= PrecEquality {
		t.Error("And should have lower precedence than Equality")
	}
	if PrecEquality >= PrecComparison {
		t.Error("Equality should have lower precedence than Comparison")
	}
	if PrecComparison >= PrecTerm {
		t.Error("Comparison should have lower precedence than Term")
	}
	if PrecTerm >= PrecFactor {
		t.Error("Term should have lower precedence than Factor")
	}
	if PrecFactor >= PrecUnary {
		t.Error("Factor should have lower precedence than Unary")
	}
	if PrecUnary >= PrecCall {
		t.Error("Unary should have lower precedence than Call")
	}
	if PrecCall >= PrecPrimary {
		t.Error("Call should have lower precedence than Primary")
	}
}
