package lexer

import "testing"

func collectTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	l := New(source, "test.mun")
	var types []TokenType
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			return types
		}
	}
}

func TestLexer_Keywords(t *testing.T) {
	source := "if else while until for do return break continue structure alias import static this null true false void"
	expected := []TokenType{
		TokenIf, TokenElse, TokenWhile, TokenUntil, TokenFor, TokenDo,
		TokenReturn, TokenBreak, TokenContinue, TokenStructure, TokenAlias,
		TokenImport, TokenStatic, TokenThis, TokenNull, TokenTrue, TokenFalse,
		TokenVoid, TokenEOF,
	}

	got := collectTypes(t, source)
	if len(got) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(expected), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestLexer_Identifiers(t *testing.T) {
	source := "foo bar _temp myVar123"
	l := New(source, "test.mun")

	expected := []string{"foo", "bar", "_temp", "myVar123"}

	for i, expectedName := range expected {
		token, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if token.Type != TokenIdentifier {
			t.Errorf("token %d: expected identifier, got %v", i, token.Type)
		}
		if token.Lexeme != expectedName {
			t.Errorf("token %d: expected lexeme %q, got %q", i, expectedName, token.Lexeme)
		}
	}
}

func TestLexer_Operators(t *testing.T) {
	source := "+ - * / % == != < <= > >= && || ! = += -= *= /= . , ; : ( ) { } [ ] ->"
	expected := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPct,
		TokenEq, TokenNeq, TokenLt, TokenLeq, TokenGt, TokenGeq,
		TokenAndAnd, TokenOrOr, TokenBang, TokenAssign,
		TokenPlusEq, TokenMinusEq, TokenStarEq, TokenSlashEq,
		TokenDot, TokenComma, TokenSemicolon, TokenColon,
		TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
		TokenLBracket, TokenRBracket, TokenArrow, TokenEOF,
	}

	got := collectTypes(t, source)
	if len(got) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(expected), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestLexer_Integer(t *testing.T) {
	l := New("0 42 1000000", "test.mun")
	expected := []string{"0", "42", "1000000"}
	for i, want := range expected {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Type != TokenInteger || tok.Lexeme != want {
			t.Errorf("token %d: got %v(%q), want INTEGER(%q)", i, tok.Type, tok.Lexeme, want)
		}
	}
}

func TestLexer_String(t *testing.T) {
	l := New(`"hello, world" "with \"escape\" and \n newline"`, "test.mun")

	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TokenString || tok.Lexeme != `"hello, world"` {
		t.Errorf("got %v(%q), want STRING", tok.Type, tok.Lexeme)
	}

	tok, err = l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TokenString {
		t.Errorf("got %v, want STRING", tok.Type)
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	l := New(`"no closing quote`, "test.mun")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected an unterminated-string error")
	}
}

func TestLexer_IllegalEscape(t *testing.T) {
	l := New(`"bad \x escape"`, "test.mun")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected an illegal-escape error")
	}
}

func TestLexer_Char(t *testing.T) {
	tests := []struct {
		source string
		lexeme string
	}{
		{`'a'`, `'a'`},
		{`'\n'`, `'\n'`},
		{`'\0'`, `'\0'`},
	}
	for _, tt := range tests {
		l := New(tt.source, "test.mun")
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("source %q: unexpected error: %v", tt.source, err)
		}
		if tok.Type != TokenChar || tok.Lexeme != tt.lexeme {
			t.Errorf("source %q: got %v(%q), want CHAR(%q)", tt.source, tok.Type, tok.Lexeme, tt.lexeme)
		}
	}
}

func TestLexer_UnterminatedChar(t *testing.T) {
	l := New("'a", "test.mun")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected an unterminated-character error")
	}
}

func TestLexer_LineComment(t *testing.T) {
	source := "foo # this is a comment\nbar"
	got := collectTypes(t, source)
	expected := []TokenType{TokenIdentifier, TokenIdentifier, TokenEOF}
	if len(got) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(expected), got)
	}
}

func TestLexer_BlockComment(t *testing.T) {
	source := "foo /* a\nmultiline\ncomment */ bar"
	got := collectTypes(t, source)
	expected := []TokenType{TokenIdentifier, TokenIdentifier, TokenEOF}
	if len(got) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(expected), got)
	}
}

func TestLexer_GenericBracketsAsComparison(t *testing.T) {
	// The lexer itself has no notion of generics: '<' and '>' are always
	// individual comparison-operator tokens. Disambiguating "vec<int>"
	// from "a < b" is the parser's job (spec.md §4.2), not the lexer's.
	got := collectTypes(t, "vec<int>")
	expected := []TokenType{TokenIdentifier, TokenLt, TokenIdentifier, TokenGt, TokenEOF}
	if len(got) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(expected), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestLexer_Position(t *testing.T) {
	l := New("foo\nbar", "test.mun")

	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Position.Line != 1 || tok.Position.Column != 1 {
		t.Errorf("first token position = %+v, want line 1 col 1", tok.Position)
	}

	tok, err = l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Position.Line != 2 || tok.Position.Column != 1 {
		t.Errorf("second token position = %+v, want line 2 col 1", tok.Position)
	}
}
