// Package parser implements the Lox tree-walk parser.
//
// The parser is recursive descent with a two-token lookahead window
// (cur/peek). Expression precedence levels (assignment, or, and, equality,
// comparison, term, factor, unary, call, primary) each get their own
// parsing function, bottoming out at primary expressions. Errors are
// collected rather than thrown, with statement-boundary synchronization so
// one malformed declaration doesn't drown the rest of the file in cascade
// diagnostics.
package parser

import (
	"fmt"

	"github.com/kristofer/lox/pkg/ast"
	"github.com/kristofer/lox/pkg/lexer"
	"github.com/kristofer/lox/pkg/report"
)

// Parser turns a token stream into a Program (a slice of top-level
// statements), or a list of static errors if the source is not well-formed.
type Parser struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
	errs report.Collector
}

// New creates a Parser over the given source text.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.advance()
	p.advance()
	return p
}

// advance moves the lookahead window forward by one token, routing lexer
// scan errors into the same accumulated-errors list the parser itself uses.
func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.l.NextToken()
	for err != nil {
		if se, ok := err.(*lexer.ScanError); ok {
			p.errs.Add(&report.StaticError{Line: se.Line, Message: se.Message})
		}
		tok, err = p.l.NextToken()
	}
	p.peek = tok
}

func (p *Parser) check(t lexer.TokenType) bool { return p.cur.Type == t }

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it has type t, else records a static
// error and returns the current (unconsumed) token.
func (p *Parser) expect(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		tok := p.cur
		p.advance()
		return tok
	}
	p.errorAt(p.cur, message)
	return p.cur
}

func (p *Parser) errorAt(tok lexer.Token, message string) {
	lexeme := tok.Lexeme
	if tok.Type == lexer.TokenEOF {
		lexeme = ""
	}
	p.errs.Add(report.NewStaticErrorAt(tok.Line, lexeme, message))
}

// Errors returns every static error accumulated during Parse.
func (p *Parser) Errors() []*report.StaticError { return p.errs.Errors() }

// Parse parses the whole token stream into a program (a slice of top-level
// declarations). Parsing runs to completion to collect every syntax error;
// if any were found, the (possibly partial) tree is discarded.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(lexer.TokenEOF) {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	if p.errs.HasErrors() {
		return nil, fmt.Errorf("%d parse error(s)", len(p.errs.Errors()))
	}
	return stmts, nil
}

// synchronize discards tokens after a parse error until it finds a plausible
// statement boundary, then parsing resumes at the next declaration. Every
// declaration consumes at least one token before it can fail, so the current
// token is examined rather than skipped: a statement keyword that the failed
// declaration stopped at starts the next declaration.
func (p *Parser) synchronize() {
	for !p.check(lexer.TokenEOF) {
		switch p.cur.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		if p.cur.Type == lexer.TokenSemicolon {
			p.advance()
			return
		}
		p.advance()
	}
}

// ---- Declarations ----

func (p *Parser) declaration() ast.Stmt {
	errCountBefore := len(p.errs.Errors())
	var s ast.Stmt
	switch {
	case p.match(lexer.TokenClass):
		s = p.classDecl()
	case p.match(lexer.TokenFun):
		s = p.function("function")
	case p.match(lexer.TokenVar):
		s = p.varDecl()
	default:
		s = p.statement()
	}
	if len(p.errs.Errors()) > errCountBefore {
		p.synchronize()
		return nil
	}
	return s
}

func (p *Parser) classDecl() ast.Stmt {
	name := p.expect(lexer.TokenIdentifier, "Expect class name.")

	var super *ast.Variable
	if p.match(lexer.TokenLess) {
		superName := p.expect(lexer.TokenIdentifier, "Expect superclass name.")
		super = ast.NewVariable(superName)
	}

	p.expect(lexer.TokenLeftBrace, "Expect '{' before class body.")
	var methods []*ast.Function
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		methods = append(methods, p.function("method"))
	}
	p.expect(lexer.TokenRightBrace, "Expect '}' after class body.")

	return &ast.Class{Name: name, Superclass: super, Methods: methods}
}

func (p *Parser) function(kind string) *ast.Function {
	name := p.expect(lexer.TokenIdentifier, "Expect "+kind+" name.")
	p.expect(lexer.TokenLeftParen, "Expect '(' after "+kind+" name.")
	var params []lexer.Token
	if !p.check(lexer.TokenRightParen) {
		for {
			if len(params) >= 255 {
				p.errorAt(p.cur, "Can't have more than 255 parameters.")
			}
			params = append(params, p.expect(lexer.TokenIdentifier, "Expect parameter name."))
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRightParen, "Expect ')' after parameters.")
	p.expect(lexer.TokenLeftBrace, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.Function{Name: name, Params: params, Body: body}
}

func (p *Parser) varDecl() ast.Stmt {
	name := p.expect(lexer.TokenIdentifier, "Expect variable name.")
	var init ast.Expr
	if p.match(lexer.TokenEqual) {
		init = p.expression()
	}
	p.expect(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	return &ast.Var{Name: name, Initializer: init}
}

// ---- Statements ----

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(lexer.TokenFor):
		return p.forStatement()
	case p.match(lexer.TokenIf):
		return p.ifStatement()
	case p.match(lexer.TokenPrint):
		return p.printStatement()
	case p.check(lexer.TokenReturn):
		keyword := p.cur
		p.advance()
		return p.returnStatement(keyword)
	case p.match(lexer.TokenWhile):
		return p.whileStatement()
	case p.match(lexer.TokenLeftBrace):
		return &ast.Block{Stmts: p.block()}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(lexer.TokenRightBrace, "Expect '}' after block.")
	return stmts
}

func (p *Parser) ifStatement() ast.Stmt {
	p.expect(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	cond := p.expression()
	p.expect(lexer.TokenRightParen, "Expect ')' after if condition.")
	then := p.statement()
	var elseBranch ast.Stmt
	if p.match(lexer.TokenElse) {
		elseBranch = p.statement()
	}
	return &ast.If{Cond: cond, Then: then, Else: elseBranch}
}

func (p *Parser) printStatement() ast.Stmt {
	value := p.expression()
	p.expect(lexer.TokenSemicolon, "Expect ';' after value.")
	return &ast.Print{Expr: value}
}

func (p *Parser) returnStatement(keyword lexer.Token) ast.Stmt {
	var value ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.expression()
	}
	p.expect(lexer.TokenSemicolon, "Expect ';' after return value.")
	return &ast.Return{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.expect(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	cond := p.expression()
	p.expect(lexer.TokenRightParen, "Expect ')' after condition.")
	body := p.statement()
	return &ast.While{Cond: cond, Body: body}
}

// forStatement desugars `for (init; cond; step) body` into
// `{ init; while (cond) { body; step; } }`.
func (p *Parser) forStatement() ast.Stmt {
	p.expect(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(lexer.TokenSemicolon):
		initializer = nil
	case p.match(lexer.TokenVar):
		initializer = p.varDecl()
	default:
		initializer = p.expressionStatement()
	}

	var cond ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		cond = p.expression()
	}
	p.expect(lexer.TokenSemicolon, "Expect ';' after loop condition.")

	var step ast.Expr
	if !p.check(lexer.TokenRightParen) {
		step = p.expression()
	}
	p.expect(lexer.TokenRightParen, "Expect ')' after for clauses.")

	body := p.statement()

	if step != nil {
		body = &ast.Block{Stmts: []ast.Stmt{body, &ast.Expression{Expr: step}}}
	}
	if cond == nil {
		cond = &ast.Literal{Kind: lexer.LiteralBool, Bool: true}
	}
	body = &ast.While{Cond: cond, Body: body}

	if initializer != nil {
		body = &ast.Block{Stmts: []ast.Stmt{initializer, body}}
	}
	return body
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.expect(lexer.TokenSemicolon, "Expect ';' after expression.")
	return &ast.Expression{Expr: expr}
}

// ---- Expressions (precedence climbing, low to high) ----

func (p *Parser) expression() ast.Expr { return p.assignment() }

func (p *Parser) assignment() ast.Expr {
	expr := p.logicOr()

	if p.check(lexer.TokenEqual) {
		equals := p.cur
		p.advance()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.Variable:
			return ast.NewAssign(target.Name, value)
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.errorAt(equals, "Invalid assignment target.")
			return expr
		}
	}
	return expr
}

func (p *Parser) logicOr() ast.Expr {
	expr := p.logicAnd()
	for p.check(lexer.TokenOr) {
		op := p.cur
		p.advance()
		right := p.logicAnd()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) logicAnd() ast.Expr {
	expr := p.equality()
	for p.check(lexer.TokenAnd) {
		op := p.cur
		p.advance()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.check(lexer.TokenBangEqual) || p.check(lexer.TokenEqualEqual) {
		op := p.cur
		p.advance()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.check(lexer.TokenGreater) || p.check(lexer.TokenGreaterEqual) ||
		p.check(lexer.TokenLess) || p.check(lexer.TokenLessEqual) {
		op := p.cur
		p.advance()
		right := p.term()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := p.cur
		p.advance()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) {
		op := p.cur
		p.advance()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.check(lexer.TokenBang) || p.check(lexer.TokenMinus) {
		op := p.cur
		p.advance()
		operand := p.unary()
		return &ast.Unary{Op: op, Operand: operand}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(lexer.TokenLeftParen):
			expr = p.finishCall(expr)
		case p.match(lexer.TokenDot):
			name := p.expect(lexer.TokenIdentifier, "Expect property name after '.'.")
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(lexer.TokenRightParen) {
		for {
			if len(args) >= 255 {
				p.errorAt(p.cur, "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	paren := p.expect(lexer.TokenRightParen, "Expect ')' after arguments.")
	return &ast.Call{Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tok := p.cur

	switch tok.Type {
	case lexer.TokenFalse:
		p.advance()
		return &ast.Literal{Kind: lexer.LiteralBool, Bool: false}
	case lexer.TokenTrue:
		p.advance()
		return &ast.Literal{Kind: lexer.LiteralBool, Bool: true}
	case lexer.TokenNil:
		p.advance()
		return &ast.Literal{Kind: lexer.LiteralNil}
	case lexer.TokenNumber:
		p.advance()
		return &ast.Literal{Kind: lexer.LiteralNumber, Number: tok.Number}
	case lexer.TokenString:
		p.advance()
		return &ast.Literal{Kind: lexer.LiteralString, Str: tok.Str}
	case lexer.TokenSuper:
		p.advance()
		p.expect(lexer.TokenDot, "Expect '.' after 'super'.")
		method := p.expect(lexer.TokenIdentifier, "Expect superclass method name.")
		return ast.NewSuper(tok, method)
	case lexer.TokenThis:
		p.advance()
		return ast.NewThis(tok)
	case lexer.TokenIdentifier:
		p.advance()
		return ast.NewVariable(tok)
	case lexer.TokenLeftParen:
		p.advance()
		expr := p.expression()
		p.expect(lexer.TokenRightParen, "Expect ')' after expression.")
		return &ast.Grouping{Inner: expr}
	}

	p.errorAt(tok, "Expect expression.")
	p.advance()
	return &ast.Literal{Kind: lexer.LiteralNil}
}
