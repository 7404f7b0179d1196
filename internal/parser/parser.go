// Package parser implements Muni's hand-written recursive-descent parser,
// following the shape of the teacher's own internal/parser: a Pratt/
// precedence-climbing expression parser layered on a statement/declaration
// recursive descent, with panic/recover-based multi-error recovery.
package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/lexer"
)

// maxGenericLookahead bounds how many tokens the `<`/`>` disambiguation
// scanner (spec.md §4.2) will buffer before giving up and treating `<` as
// a comparison. A real type-argument list is never anywhere near this
// long; it exists purely so a pathological "a < b < c < d..." expression
// can't force unbounded lookahead buffering.
const maxGenericLookahead = 256

// Parser turns a token stream into an *ast.File.
//
// DESIGN CHOICE: like the teacher's parser, we keep a `current`/`previous`
// pair updated by advance() and drive error recovery with panic/recover
// plus synchronize(). Unlike the teacher, Muni's grammar needs unbounded
// lookahead in two places (the `<`/`>` generic-vs-comparison ambiguity, and
// telling a variable declaration "Type ident" apart from an assignment
// statement "ident = ..."), so Parser also buffers tokens the lexer has
// already produced but the grammar hasn't committed to consuming yet.
type Parser struct {
	lex *lexer.Lexer

	current  lexer.Token
	previous lexer.Token

	// lookahead holds tokens already pulled from lex but not yet advanced
	// into current; peekAt(n) fills it on demand.
	lookahead []lexer.Token

	errors    []error
	panicMode bool
}

// New creates a Parser over lex and primes it by reading the first token.
func New(lex *lexer.Lexer) *Parser {
	p := &Parser{lex: lex}
	p.advance()
	return p
}

// ParseFile parses a complete source file, returning whatever declarations
// it could recover plus every diagnostic encountered. A non-empty error
// slice still comes with a non-nil *ast.File holding every declaration
// that parsed; internal/importer reports the errors and drops that file.
func (p *Parser) ParseFile(filename string) (*ast.File, []error) {
	file := &ast.File{Filename: filename}

	for !p.isAtEnd() {
		decl := p.parseTopDeclRecovering()
		if decl == nil {
			continue
		}
		switch d := decl.(type) {
		case *ast.FileImportDecl:
			file.Imports = append(file.Imports, d)
		case *ast.HostImportDecl:
			file.Hosts = append(file.Hosts, d)
		default:
			file.Decls = append(file.Decls, decl)
		}
	}

	return file, p.errors
}

// --- token stream plumbing ---

func (p *Parser) fill(n int) {
	for len(p.lookahead) < n {
		p.lookahead = append(p.lookahead, p.nextRawToken())
	}
}

// nextRawToken pulls one token from the lexer, converting a lexer-level
// error into a diag.LexError (internal/lexer cannot import internal/diag
// itself, since diag depends on lexer.Span).
func (p *Parser) nextRawToken() lexer.Token {
	tok, err := p.lex.NextToken()
	if err != nil {
		p.errors = append(p.errors, diag.LexError(tok.Span(), "%s", err.Error()))
		return lexer.Token{Type: lexer.TokenInvalid, Position: tok.Position}
	}
	return tok
}

// peekAt returns the token `offset` positions ahead of current (offset 0
// is current itself) without consuming anything.
func (p *Parser) peekAt(offset int) lexer.Token {
	if offset == 0 {
		return p.current
	}
	p.fill(offset)
	return p.lookahead[offset-1]
}

func (p *Parser) advance() {
	p.previous = p.current
	if len(p.lookahead) > 0 {
		p.current = p.lookahead[0]
		p.lookahead = p.lookahead[1:]
		return
	}
	p.current = p.nextRawToken()
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current.Type == tt
}

func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(tt lexer.TokenType, message string) lexer.Token {
	if p.check(tt) {
		tok := p.current
		p.advance()
		return tok
	}
	p.error("%s (got %s)", message, p.current.Type)
	panic(message)
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

func (p *Parser) error(format string, args ...any) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.errors = append(p.errors, diag.ParseError(p.current.Span(), format, args...))
}

// synchronize skips tokens until a plausible statement/declaration
// boundary, the same error-recovery strategy the teacher's parser uses.
// It always consumes at least the token the error was reported at, so a
// recovering loop cannot stall on a token no production accepts.
func (p *Parser) synchronize() {
	p.panicMode = false

	if !p.isAtEnd() {
		p.advance()
	}
	for !p.isAtEnd() {
		if p.previous.Type == lexer.TokenSemicolon || p.previous.Type == lexer.TokenRBrace {
			return
		}

		switch p.current.Type {
		case lexer.TokenStructure, lexer.TokenAlias, lexer.TokenImport,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenUntil, lexer.TokenFor,
			lexer.TokenDo, lexer.TokenReturn, lexer.TokenBreak, lexer.TokenContinue,
			lexer.TokenVoid, lexer.TokenArray:
			return
		}

		p.advance()
	}
}

// --- top-level declarations ---

func (p *Parser) parseTopDeclRecovering() (decl ast.Decl) {
	defer func() {
		if r := recover(); r != nil {
			p.synchronize()
			decl = nil
		}
	}()
	return p.parseTopDecl()
}

func (p *Parser) parseTopDecl() ast.Decl {
	switch {
	case p.match(lexer.TokenStructure):
		return p.parseStructDecl()
	case p.match(lexer.TokenAlias):
		return p.parseAliasDecl()
	case p.match(lexer.TokenImport):
		return p.parseImportDecl()
	default:
		return p.parseFuncDeclTop()
	}
}

func (p *Parser) parseFuncDeclTop() *ast.FuncDecl {
	typeStart := p.current.Position
	retType := p.parseType()
	nameTok := p.consume(lexer.TokenIdentifier, "expected function name")
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.FuncDecl{
		BaseNode:   ast.BaseNode{StartPos: typeStart, EndPos: body.End()},
		Name:       nameTok.Lexeme,
		ReturnType: retType,
		Params:     params,
		Body:       body,
	}
}

func (p *Parser) parseParams() []*ast.Parameter {
	p.consume(lexer.TokenLParen, "expected '(' to start parameter list")
	var params []*ast.Parameter
	if !p.check(lexer.TokenRParen) {
		for {
			typ := p.parseType()
			nameTok := p.consume(lexer.TokenIdentifier, "expected parameter name")
			params = append(params, &ast.Parameter{Name: nameTok.Lexeme, Type: typ, Pos: nameTok.Position})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after parameter list")
	return params
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	startPos := p.previous.Position
	nameTok := p.consume(lexer.TokenIdentifier, "expected structure name")
	decl := &ast.StructDecl{Name: nameTok.Lexeme}

	if p.check(lexer.TokenLt) {
		decl.TypeParams = p.parseTypeParams()
	}

	p.consume(lexer.TokenLBrace, "expected '{' to start structure body")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		p.parseStructMemberRecovering(decl)
	}
	endTok := p.consume(lexer.TokenRBrace, "expected '}' to close structure body")

	decl.BaseNode = ast.BaseNode{StartPos: startPos, EndPos: endTok.Position}
	return decl
}

func (p *Parser) parseTypeParams() []*ast.TypeParam {
	p.consume(lexer.TokenLt, "expected '<' to start type parameter list")
	var params []*ast.TypeParam
	for {
		nameTok := p.consume(lexer.TokenIdentifier, "expected type parameter name")
		params = append(params, &ast.TypeParam{Name: nameTok.Lexeme, Pos: nameTok.Position})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenGt, "expected '>' to close type parameter list")
	return params
}

func (p *Parser) parseStructMemberRecovering(owner *ast.StructDecl) {
	defer func() {
		if r := recover(); r != nil {
			p.synchronize()
		}
	}()
	p.parseStructMember(owner)
}

// parseStructMember parses one struct_member: field, method, or
// constructor, per spec.md §4.2's `struct_member = field | method | ctor`.
func (p *Parser) parseStructMember(owner *ast.StructDecl) {
	isStatic := p.match(lexer.TokenStatic)

	// ctor = ident "(" params? ")" block, where ident equals the
	// enclosing structure's name. Distinguished from a field/method
	// (which always starts with a type) by one token of lookahead: the
	// token right after this identifier is '(' rather than another name.
	if !isStatic && p.check(lexer.TokenIdentifier) && p.current.Lexeme == owner.Name &&
		p.peekAt(1).Type == lexer.TokenLParen {
		nameTok := p.current
		p.advance()
		params := p.parseParams()
		body := p.parseBlock()
		owner.Constructor = &ast.FuncDecl{
			BaseNode:      ast.BaseNode{StartPos: nameTok.Position, EndPos: body.End()},
			Name:          owner.Name,
			Params:        params,
			Body:          body,
			IsConstructor: true,
			Receiver:      owner,
		}
		return
	}

	typeStart := p.current.Position
	typ := p.parseType()
	nameTok := p.consume(lexer.TokenIdentifier, "expected field or method name")

	if p.check(lexer.TokenLParen) {
		params := p.parseParams()
		body := p.parseBlock()
		method := &ast.FuncDecl{
			BaseNode:   ast.BaseNode{StartPos: typeStart, EndPos: body.End()},
			Name:       nameTok.Lexeme,
			ReturnType: typ,
			Params:     params,
			Body:       body,
			IsStatic:   isStatic,
			Receiver:   owner,
		}
		if isStatic {
			owner.Statics = append(owner.Statics, method)
		} else {
			owner.Methods = append(owner.Methods, method)
		}
		return
	}

	p.consume(lexer.TokenSemicolon, "expected ';' after field declaration")
	owner.Fields = append(owner.Fields, &ast.Field{Name: nameTok.Lexeme, Type: typ, Pos: typeStart})
}

func (p *Parser) parseAliasDecl() *ast.AliasDecl {
	startPos := p.previous.Position
	nameTok := p.consume(lexer.TokenIdentifier, "expected alias name")
	decl := &ast.AliasDecl{Name: nameTok.Lexeme}
	if p.check(lexer.TokenLt) {
		decl.TypeParams = p.parseTypeParams()
	}
	p.consume(lexer.TokenAssign, "expected '=' in alias declaration")
	decl.Body = p.parseType()
	endTok := p.consume(lexer.TokenSemicolon, "expected ';' after alias declaration")
	decl.BaseNode = ast.BaseNode{StartPos: startPos, EndPos: endTok.Position}
	return decl
}

// parseImportDecl parses either a file import (`import <path>;`) or a host
// import (`import module.name(types) -> type;`), per spec.md §4.3.
func (p *Parser) parseImportDecl() ast.Decl {
	startPos := p.previous.Position

	if p.match(lexer.TokenLt) {
		path := p.parseImportPath()
		p.consume(lexer.TokenGt, "expected '>' to close import path")
		endTok := p.consume(lexer.TokenSemicolon, "expected ';' after import")
		return &ast.FileImportDecl{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: endTok.Position}, Path: path}
	}

	moduleTok := p.consume(lexer.TokenIdentifier, "expected host module name")
	p.consume(lexer.TokenDot, "expected '.' between host module and function name")
	nameTok := p.consume(lexer.TokenIdentifier, "expected host function name")

	p.consume(lexer.TokenLParen, "expected '(' in host import signature")
	var params []ast.SyntacticType
	if !p.check(lexer.TokenRParen) {
		for {
			params = append(params, p.parseType())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' in host import signature")
	p.consume(lexer.TokenArrow, "expected '->' before host import return type")
	ret := p.parseType()
	endTok := p.consume(lexer.TokenSemicolon, "expected ';' after host import")

	return &ast.HostImportDecl{
		BaseNode: ast.BaseNode{StartPos: startPos, EndPos: endTok.Position},
		Module:   moduleTok.Lexeme,
		Name:     nameTok.Lexeme,
		Params:   params,
		Return:   ret,
	}
}

// parseImportPath reconstructs a file path from the raw token run between
// '<' and '>'. Muni's lexer has no dedicated path-literal token, so the
// path is read back from whatever sequence of identifier/dot/slash tokens
// it produced, the same way the rest of the grammar leans on plain tokens
// rather than inventing lexer-level special cases for one construct.
func (p *Parser) parseImportPath() string {
	var b strings.Builder
	for !p.check(lexer.TokenGt) && !p.isAtEnd() {
		switch p.current.Type {
		case lexer.TokenIdentifier, lexer.TokenInteger:
			b.WriteString(p.current.Lexeme)
		case lexer.TokenDot:
			b.WriteString(".")
		case lexer.TokenSlash:
			b.WriteString("/")
		case lexer.TokenMinus:
			b.WriteString("-")
		default:
			p.error("invalid character in import path")
			p.advance()
			continue
		}
		p.advance()
	}
	return b.String()
}

// --- syntactic types ---

func (p *Parser) parseType() ast.SyntacticType {
	start := p.current.Position
	switch {
	case p.match(lexer.TokenVoid):
		return &ast.VoidType{BaseNode: ast.BaseNode{StartPos: start, EndPos: p.previous.Span().End}}
	case p.match(lexer.TokenArray):
		p.consume(lexer.TokenLt, "expected '<' after 'array'")
		elem := p.parseType()
		endTok := p.consume(lexer.TokenGt, "expected '>' to close array element type")
		return &ast.ArrayType{BaseNode: ast.BaseNode{StartPos: start, EndPos: endTok.Position}, Elem: elem}
	default:
		nameTok := p.consume(lexer.TokenIdentifier, "expected a type name")
		named := &ast.NamedType{BaseNode: ast.BaseNode{StartPos: start, EndPos: nameTok.Span().End}, Name: nameTok.Lexeme}
		if p.check(lexer.TokenLt) {
			args, endPos := p.parseTypeArgs()
			named.Args = args
			named.EndPos = endPos
		}
		return named
	}
}

func (p *Parser) parseTypeArgs() ([]ast.SyntacticType, lexer.Position) {
	p.consume(lexer.TokenLt, "expected '<' to start type-argument list")
	var args []ast.SyntacticType
	for {
		args = append(args, p.parseType())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	endTok := p.consume(lexer.TokenGt, "expected '>' to close type-argument list")
	return args, endTok.Position
}

// genericArgsEndOffset validates that a plausible type-argument list
// starts at the '<' token found at lookahead offset `ltOffset`, returning
// the offset of the token immediately following the matching top-level
// '>', or -1 if what follows isn't one (spec.md §4.2: "look[] ahead for a
// matching `>` separated only by valid type tokens and commas at the same
// bracket depth").
func (p *Parser) genericArgsEndOffset(ltOffset int) int {
	depth := 0
	i := ltOffset
	for steps := 0; steps < maxGenericLookahead; steps++ {
		switch p.peekAt(i).Type {
		case lexer.TokenLt:
			depth++
		case lexer.TokenGt:
			depth--
			if depth == 0 {
				return i + 1
			}
			if depth < 0 {
				return -1
			}
		case lexer.TokenIdentifier, lexer.TokenComma, lexer.TokenArray, lexer.TokenVoid:
			// valid inside a type-argument list; keep scanning
		default:
			return -1
		}
		i++
	}
	return -1
}

// startsVarDecl reports whether the statement at the current position is a
// variable declaration ("Type ident ...") rather than an assignment or
// expression statement starting with the same leading identifier. This is
// the second lookahead-driven ambiguity spec.md's grammar creates beyond
// the documented `<`/`>` one: "x = 5;" and "Point p;" both start with an
// identifier.
func (p *Parser) startsVarDecl() bool {
	if p.check(lexer.TokenArray) {
		return true
	}
	if !p.check(lexer.TokenIdentifier) {
		return false
	}
	i := 1
	if p.peekAt(i).Type == lexer.TokenLt {
		end := p.genericArgsEndOffset(i)
		if end < 0 {
			return false
		}
		i = end
	}
	return p.peekAt(i).Type == lexer.TokenIdentifier
}

// --- statements ---

func (p *Parser) parseBlock() *ast.Block {
	startTok := p.consume(lexer.TokenLBrace, "expected '{' to start a block")
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.parseStmtRecovering())
	}
	endTok := p.consume(lexer.TokenRBrace, "expected '}' to close a block")
	return &ast.Block{BaseNode: ast.BaseNode{StartPos: startTok.Position, EndPos: endTok.Position}, Stmts: stmts}
}

func (p *Parser) parseStmtRecovering() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			p.synchronize()
			stmt = &ast.ExprStmt{BaseNode: ast.BaseNode{StartPos: p.current.Position, EndPos: p.current.Position}}
		}
	}()
	return p.parseStmt()
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.check(lexer.TokenLBrace):
		return p.parseBlock()
	case p.match(lexer.TokenIf):
		return p.parseIf()
	case p.match(lexer.TokenWhile):
		return p.parseWhile()
	case p.match(lexer.TokenUntil):
		return p.parseUntil()
	case p.match(lexer.TokenFor):
		return p.parseFor()
	case p.match(lexer.TokenDo):
		return p.parseDoWhile()
	case p.match(lexer.TokenReturn):
		return p.parseReturn()
	case p.match(lexer.TokenBreak):
		endTok := p.consume(lexer.TokenSemicolon, "expected ';' after 'break'")
		return &ast.Break{BaseNode: ast.BaseNode{StartPos: p.previous.Position, EndPos: endTok.Position}}
	case p.match(lexer.TokenContinue):
		endTok := p.consume(lexer.TokenSemicolon, "expected ';' after 'continue'")
		return &ast.Continue{BaseNode: ast.BaseNode{StartPos: p.previous.Position, EndPos: endTok.Position}}
	case p.startsVarDecl():
		return p.parseVarDeclStmt()
	default:
		return p.parseExprOrAssignStmt(true)
	}
}

func (p *Parser) parseVarDeclStmt() *ast.VarDeclStmt {
	start := p.current.Position
	typ := p.parseType()
	nameTok := p.consume(lexer.TokenIdentifier, "expected variable name")
	var init ast.Expr
	if p.match(lexer.TokenAssign) {
		init = p.parseExpression()
	}
	endTok := p.consume(lexer.TokenSemicolon, "expected ';' after variable declaration")
	return &ast.VarDeclStmt{
		BaseNode: ast.BaseNode{StartPos: start, EndPos: endTok.Position},
		Name:     nameTok.Lexeme,
		Type:     typ,
		Init:     init,
	}
}

// compoundAssignOp maps a `+= -= *= /=` token to the binary operator it
// desugars through; `target OP= value` becomes `target = target OP value`.
func compoundAssignOp(tt lexer.TokenType) (ast.BinaryOp, bool) {
	switch tt {
	case lexer.TokenPlusEq:
		return ast.OpAdd, true
	case lexer.TokenMinusEq:
		return ast.OpSub, true
	case lexer.TokenStarEq:
		return ast.OpMul, true
	case lexer.TokenSlashEq:
		return ast.OpDiv, true
	default:
		return 0, false
	}
}

// parseExprOrAssignStmt parses an expression, then promotes it to an
// Assign if followed by '=' or a compound assignment operator. When
// consumeSemicolon is false (the for-loop step clause), the caller is
// responsible for the statement's terminator.
func (p *Parser) parseExprOrAssignStmt(consumeSemicolon bool) ast.Stmt {
	start := p.current.Position
	expr := p.parseExpression()

	if compoundOp, ok := compoundAssignOp(p.current.Type); ok {
		p.advance()
		rhs := p.parseExpression()
		p.validateAssignTarget(expr)
		value := &ast.Binary{BaseNode: ast.BaseNode{StartPos: expr.Pos(), EndPos: rhs.End()}, Op: compoundOp, Left: expr, Right: rhs}
		if consumeSemicolon {
			p.consume(lexer.TokenSemicolon, "expected ';' after assignment")
		}
		return &ast.Assign{BaseNode: ast.BaseNode{StartPos: start, EndPos: value.End()}, Target: expr, Value: value}
	}

	if p.match(lexer.TokenAssign) {
		value := p.parseExpression()
		p.validateAssignTarget(expr)
		if consumeSemicolon {
			p.consume(lexer.TokenSemicolon, "expected ';' after assignment")
		}
		return &ast.Assign{BaseNode: ast.BaseNode{StartPos: start, EndPos: value.End()}, Target: expr, Value: value}
	}

	if consumeSemicolon {
		p.consume(lexer.TokenSemicolon, "expected ';' after expression statement")
	}
	return &ast.ExprStmt{BaseNode: ast.BaseNode{StartPos: start, EndPos: expr.End()}, Expr: expr}
}

func (p *Parser) validateAssignTarget(expr ast.Expr) {
	switch expr.(type) {
	case *ast.Identifier, *ast.FieldAccess, *ast.Index:
	default:
		p.error("invalid assignment target")
	}
}

func (p *Parser) parseIf() *ast.If {
	startPos := p.previous.Position
	p.consume(lexer.TokenLParen, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRParen, "expected ')' after if condition")
	thenBlock := p.parseBlock()

	var elseStmt ast.Stmt
	if p.match(lexer.TokenElse) {
		if p.match(lexer.TokenIf) {
			elseStmt = p.parseIf()
		} else {
			elseStmt = p.parseBlock()
		}
	}

	end := thenBlock.End()
	if elseStmt != nil {
		end = elseStmt.End()
	}
	return &ast.If{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: end}, Cond: cond, Then: thenBlock, Else: elseStmt}
}

func (p *Parser) parseWhile() *ast.While {
	startPos := p.previous.Position
	p.consume(lexer.TokenLParen, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRParen, "expected ')' after while condition")
	body := p.parseBlock()
	return &ast.While{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: body.End()}, Cond: cond, Body: body}
}

func (p *Parser) parseUntil() *ast.Until {
	startPos := p.previous.Position
	p.consume(lexer.TokenLParen, "expected '(' after 'until'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRParen, "expected ')' after until condition")
	body := p.parseBlock()
	return &ast.Until{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: body.End()}, Cond: cond, Body: body}
}

func (p *Parser) parseFor() *ast.For {
	startPos := p.previous.Position
	p.consume(lexer.TokenLParen, "expected '(' after 'for'")

	var init ast.Stmt
	if p.check(lexer.TokenSemicolon) {
		p.advance()
	} else if p.startsVarDecl() {
		init = p.parseVarDeclStmt()
	} else {
		init = p.parseExprOrAssignStmt(true)
	}

	var cond ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		cond = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after for-loop condition")

	var step ast.Stmt
	if !p.check(lexer.TokenRParen) {
		step = p.parseExprOrAssignStmt(false)
	}
	p.consume(lexer.TokenRParen, "expected ')' after for-loop clauses")

	body := p.parseBlock()
	return &ast.For{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: body.End()}, Init: init, Cond: cond, Step: step, Body: body}
}

func (p *Parser) parseDoWhile() *ast.DoWhile {
	startPos := p.previous.Position
	body := p.parseBlock()
	p.consume(lexer.TokenWhile, "expected 'while' after 'do' block")
	p.consume(lexer.TokenLParen, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRParen, "expected ')' after condition")
	endTok := p.consume(lexer.TokenSemicolon, "expected ';' after do-while statement")
	return &ast.DoWhile{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: endTok.Position}, Body: body, Cond: cond}
}

func (p *Parser) parseReturn() *ast.Return {
	startPos := p.previous.Position
	var val ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		val = p.parseExpression()
	}
	endTok := p.consume(lexer.TokenSemicolon, "expected ';' after return statement")
	return &ast.Return{BaseNode: ast.BaseNode{StartPos: startPos, EndPos: endTok.Position}, Value: val}
}

// --- expressions ---

func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecOr)
}

func (p *Parser) parsePrecedence(min Precedence) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		p.error("expected expression, got %s", p.current.Type)
		panic("expected expression")
	}
	for {
		prec := getPrecedence(p.current.Type)
		if prec == PrecNone || prec < min {
			break
		}
		left = p.parseInfix(left, prec)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	switch p.current.Type {
	case lexer.TokenInteger:
		return p.parseIntegerLiteral()
	case lexer.TokenString:
		return p.parseStringLiteral()
	case lexer.TokenChar:
		return p.parseCharLiteral()
	case lexer.TokenTrue, lexer.TokenFalse:
		return p.parseBooleanLiteral()
	case lexer.TokenNull:
		tok := p.current
		p.advance()
		return &ast.NullLiteral{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}}
	case lexer.TokenThis:
		tok := p.current
		p.advance()
		return &ast.Identifier{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}, Name: "this"}
	case lexer.TokenIdentifier:
		return p.parseIdentifierExpr()
	case lexer.TokenLParen:
		return p.parseGroupingOrCast()
	case lexer.TokenLBracket:
		return p.parseArrayLiteral()
	case lexer.TokenMinus, lexer.TokenBang:
		return p.parseUnary()
	default:
		return nil
	}
}

func (p *Parser) parseInfix(left ast.Expr, prec Precedence) ast.Expr {
	switch p.current.Type {
	case lexer.TokenDot:
		p.advance()
		nameTok := p.consume(lexer.TokenIdentifier, "expected field or method name after '.'")
		if p.check(lexer.TokenLParen) {
			args := p.parseArgList()
			return &ast.MethodCall{
				BaseNode: ast.BaseNode{StartPos: left.Pos(), EndPos: p.previous.Span().End},
				Receiver: left, Method: nameTok.Lexeme, Args: args,
			}
		}
		return &ast.FieldAccess{
			BaseNode: ast.BaseNode{StartPos: left.Pos(), EndPos: nameTok.Span().End},
			Receiver: left, Field: nameTok.Lexeme,
		}

	case lexer.TokenLParen:
		args := p.parseArgList()
		id, ok := left.(*ast.Identifier)
		if !ok {
			p.error("cannot call a non-function expression")
			return left
		}
		return &ast.Call{BaseNode: ast.BaseNode{StartPos: left.Pos(), EndPos: p.previous.Span().End}, Callee: id.Name, Args: args}

	case lexer.TokenLBracket:
		p.advance()
		idx := p.parseExpression()
		endTok := p.consume(lexer.TokenRBracket, "expected ']' after index expression")
		return &ast.Index{BaseNode: ast.BaseNode{StartPos: left.Pos(), EndPos: endTok.Position}, Receiver: left, Index: idx}

	default:
		op, ok := binaryOpFor(p.current.Type)
		if !ok {
			return left
		}
		p.advance()
		right := p.parsePrecedence(prec + 1)
		return &ast.Binary{BaseNode: ast.BaseNode{StartPos: left.Pos(), EndPos: right.End()}, Op: op, Left: left, Right: right}
	}
}

func binaryOpFor(tt lexer.TokenType) (ast.BinaryOp, bool) {
	switch tt {
	case lexer.TokenPlus:
		return ast.OpAdd, true
	case lexer.TokenMinus:
		return ast.OpSub, true
	case lexer.TokenStar:
		return ast.OpMul, true
	case lexer.TokenSlash:
		return ast.OpDiv, true
	case lexer.TokenPct:
		return ast.OpMod, true
	case lexer.TokenEq:
		return ast.OpEq, true
	case lexer.TokenNeq:
		return ast.OpNeq, true
	case lexer.TokenLt:
		return ast.OpLt, true
	case lexer.TokenLeq:
		return ast.OpLeq, true
	case lexer.TokenGt:
		return ast.OpGt, true
	case lexer.TokenGeq:
		return ast.OpGeq, true
	case lexer.TokenAndAnd:
		return ast.OpAnd, true
	case lexer.TokenOrOr:
		return ast.OpOr, true
	default:
		return 0, false
	}
}

func (p *Parser) parseUnary() ast.Expr {
	opTok := p.current
	p.advance()
	operand := p.parsePrecedence(PrecUnary)
	op := ast.OpNeg
	if opTok.Type == lexer.TokenBang {
		op = ast.OpNot
	}
	return &ast.Unary{BaseNode: ast.BaseNode{StartPos: opTok.Position, EndPos: operand.End()}, Op: op, Operand: operand}
}

// parseIdentifierExpr parses a bare identifier, a function/constructor
// call, a static-method call, or an explicit generic instantiation. The
// `<`/`>` ambiguity (spec.md §4.2) is resolved here: only when the
// lookahead scanner confirms a balanced type-argument list immediately
// followed by '(' or '.' do we commit to treating '<' as the start of one;
// otherwise this returns a plain Identifier and the infix loop is free to
// read '<' as a comparison operator.
func (p *Parser) parseIdentifierExpr() ast.Expr {
	nameTok := p.current
	p.advance()

	if p.check(lexer.TokenLt) {
		if end := p.genericArgsEndOffset(0); end >= 0 {
			next := p.peekAt(end).Type
			if next == lexer.TokenLParen || next == lexer.TokenDot {
				args, _ := p.parseTypeArgs()
				if p.match(lexer.TokenDot) {
					methodTok := p.consume(lexer.TokenIdentifier, "expected static method name")
					callArgs := p.parseArgList()
					return &ast.StaticMethodCall{
						BaseNode: ast.BaseNode{StartPos: nameTok.Position, EndPos: p.previous.Span().End},
						Struct:   nameTok.Lexeme, TypeArgs: args, Method: methodTok.Lexeme, Args: callArgs,
					}
				}
				callArgs := p.parseArgList()
				return &ast.ConstructorCall{
					BaseNode: ast.BaseNode{StartPos: nameTok.Position, EndPos: p.previous.Span().End},
					Struct:   nameTok.Lexeme, TypeArgs: args, Args: callArgs,
				}
			}
		}
	}

	if p.check(lexer.TokenLParen) {
		args := p.parseArgList()
		return &ast.Call{BaseNode: ast.BaseNode{StartPos: nameTok.Position, EndPos: p.previous.Span().End}, Callee: nameTok.Lexeme, Args: args}
	}

	return &ast.Identifier{BaseNode: ast.BaseNode{StartPos: nameTok.Position, EndPos: nameTok.Span().End}, Name: nameTok.Lexeme}
}

func (p *Parser) parseArgList() []ast.Expr {
	p.consume(lexer.TokenLParen, "expected '(' to start argument list")
	var args []ast.Expr
	if !p.check(lexer.TokenRParen) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after argument list")
	return args
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	startTok := p.current
	p.advance()
	var elems []ast.Expr
	if !p.check(lexer.TokenRBracket) {
		for {
			elems = append(elems, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
			if p.check(lexer.TokenRBracket) {
				break
			}
		}
	}
	endTok := p.consume(lexer.TokenRBracket, "expected ']' after array literal")
	return &ast.ArrayLiteral{BaseNode: ast.BaseNode{StartPos: startTok.Position, EndPos: endTok.Position}, Elements: elems}
}

// parseGroupingOrCast disambiguates `(expr)` grouping from `(Type) expr`
// casting (spec.md §3 lists "cast" as an expression variant without giving
// it surface syntax; `(Type) expr` is this module's resolution — see
// DESIGN.md). The heuristic: scan forward from '(' for a token run that is
// purely type-shaped (identifiers/array/void/commas/angle-brackets) up to
// its matching ')'; only if that holds, and the token right after ')'
// could itself start an expression, do we commit to a cast.
func (p *Parser) parseGroupingOrCast() ast.Expr {
	lparenPos := p.current.Position
	if p.looksLikeCast() {
		p.advance() // consume '('
		target := p.parseType()
		p.consume(lexer.TokenRParen, "expected ')' after cast type")
		operand := p.parsePrecedence(PrecUnary)
		return &ast.Cast{BaseNode: ast.BaseNode{StartPos: lparenPos, EndPos: operand.End()}, Target: target, Operand: operand}
	}
	p.advance() // consume '('
	expr := p.parseExpression()
	p.consume(lexer.TokenRParen, "expected ')' after expression")
	return expr
}

func (p *Parser) looksLikeCast() bool {
	depth := 1
	i := 1
	for steps := 0; steps < maxGenericLookahead; steps++ {
		switch p.peekAt(i).Type {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
			if depth == 0 {
				next := p.peekAt(i + 1).Type
				switch next {
				case lexer.TokenIdentifier, lexer.TokenInteger, lexer.TokenString,
					lexer.TokenChar, lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNull,
					lexer.TokenLParen, lexer.TokenBang, lexer.TokenMinus:
					return true
				default:
					return false
				}
			}
		case lexer.TokenIdentifier, lexer.TokenComma, lexer.TokenArray, lexer.TokenVoid,
			lexer.TokenLt, lexer.TokenGt:
			// plausibly still inside a type
		default:
			return false
		}
		i++
	}
	return false
}

// --- literals ---

func (p *Parser) parseIntegerLiteral() ast.Expr {
	tok := p.current
	p.advance()
	value, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		p.errors = append(p.errors, diag.ParseError(tok.Span(), "invalid integer literal %q: %v", tok.Lexeme, err))
	}
	return &ast.IntegerLiteral{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}, Value: value}
}

func (p *Parser) parseBooleanLiteral() ast.Expr {
	tok := p.current
	p.advance()
	return &ast.BooleanLiteral{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}, Value: tok.Type == lexer.TokenTrue}
}

func (p *Parser) parseCharLiteral() ast.Expr {
	tok := p.current
	p.advance()
	return &ast.CharLiteral{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}, Value: unescapeChar(tok.Lexeme)}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.current
	p.advance()
	return &ast.StringLiteral{BaseNode: ast.BaseNode{StartPos: tok.Position, EndPos: tok.Span().End}, Value: unescapeString(tok.Lexeme)}
}

// unescapeString decodes a string lexeme (including its surrounding
// quotes) using the escape set spec.md §4.1 defines: \n \t \r \\ \' \" \0.
// The lexer has already rejected anything outside that set, so this is a
// pure decode with no error path.
func unescapeString(lexeme string) string {
	inner := lexeme[1 : len(lexeme)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			b.WriteByte(decodeEscape(inner[i]))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unescapeChar(lexeme string) rune {
	inner := lexeme[1 : len(lexeme)-1]
	if len(inner) >= 2 && inner[0] == '\\' {
		return rune(decodeEscape(inner[1]))
	}
	r, _ := utf8.DecodeRuneInString(inner)
	return r
}

func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return c // \\ \' \" decode to themselves
	}
}
