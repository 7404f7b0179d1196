package lexer

import "testing"

func TestToken_String(t *testing.T) {
	tests := []struct {
		name     string
		token    Token
		expected string
	}{
		{
			name: "identifier token",
			token: Token{
				Type:     TokenIdentifier,
				Lexeme:   "foo",
				Position: Position{Filename: "test.mun", Line: 1, Column: 1},
			},
			expected: "IDENTIFIER(foo) at test.mun:1:1",
		},
		{
			name: "integer token",
			token: Token{
				Type:     TokenInteger,
				Lexeme:   "42",
				Position: Position{Filename: "test.mun", Line: 5, Column: 10},
			},
			expected: "INTEGER(42) at test.mun:5:10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.String(); got != tt.expected {
				t.Errorf("Token.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestToken_Span(t *testing.T) {
	tok := Token{
		Type:     TokenIdentifier,
		Lexeme:   "hello",
		Position: Position{Filename: "f.mun", Line: 2, Column: 3, Offset: 10},
		Length:   5,
	}
	span := tok.Span()
	if span.Start != tok.Position {
		t.Errorf("span start = %v, want %v", span.Start, tok.Position)
	}
	if span.End.Column != 8 || span.End.Offset != 15 {
		t.Errorf("span end = %+v, want column 8 offset 15", span.End)
	}
}

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		identifier string
		expected   TokenType
	}{
		{"if", TokenIf},
		{"structure", TokenStructure},
		{"alias", TokenAlias},
		{"array", TokenArray},
		{"void", TokenVoid},
		{"this", TokenThis},
		{"notakeyword", TokenIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			if got := LookupKeyword(tt.identifier); got != tt.expected {
				t.Errorf("LookupKeyword(%q) = %v, want %v", tt.identifier, got, tt.expected)
			}
		})
	}
}

func TestTokenType_String(t *testing.T) {
	if TokenIf.String() != "IF" {
		t.Errorf("TokenIf.String() = %v, want IF", TokenIf.String())
	}
	if TokenType(9999).String() != "UNKNOWN" {
		t.Errorf("unknown token type should stringify to UNKNOWN")
	}
}
