// Package compiler implements the single-pass bytecode compiler: a Pratt
// parser over lexer tokens (rules.go's rule table) that emits directly into
// a bytecode.Chunk, with no intermediate AST.
//
// The compiler tracks a flat symbol table of locals and a scope-depth
// counter rather than building any tree; it drives the lexer itself one
// token at a time, compiling each expression as soon as its precedence
// level is known.
package compiler

import (
	"fmt"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/lexer"
	"github.com/kristofer/lox/pkg/report"
)

// maxLocals bounds the compiler's local-slot stack. GET_LOCAL and SET_LOCAL
// carry a one-byte slot operand, so more than 256 live locals cannot be
// addressed; overflowing is a compile error, not silent truncation.
const maxLocals = 256

type local struct {
	name  string
	depth int
}

// Compiler compiles one chunk's worth of Lox source.
type Compiler struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
	errs report.Collector

	chunk      *bytecode.Chunk
	locals     []local
	scopeDepth int
}

// New creates a Compiler over the given source text.
func New(input string) *Compiler {
	c := &Compiler{l: lexer.New(input), chunk: bytecode.NewChunk()}
	c.advance()
	c.advance()
	return c
}

// Compile compiles the whole program into a Chunk, running to completion to
// collect every static error. A failed compile yields no chunk.
func (c *Compiler) Compile() (*bytecode.Chunk, error) {
	for !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.emitOp(bytecode.OpReturn)
	if c.errs.HasErrors() {
		return nil, fmt.Errorf("%d compile error(s)", len(c.errs.Errors()))
	}
	return c.chunk, nil
}

// Errors returns every static error accumulated during Compile.
func (c *Compiler) Errors() []*report.StaticError { return c.errs.Errors() }

func (c *Compiler) advance() {
	c.cur = c.peek
	tok, err := c.l.NextToken()
	for err != nil {
		if se, ok := err.(*lexer.ScanError); ok {
			c.errs.Add(&report.StaticError{Line: se.Line, Message: se.Message})
		}
		tok, err = c.l.NextToken()
	}
	c.peek = tok
}

func (c *Compiler) check(t lexer.TokenType) bool { return c.cur.Type == t }

func (c *Compiler) match(t lexer.TokenType) bool {
	if c.check(t) {
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) expect(t lexer.TokenType, message string) lexer.Token {
	if c.check(t) {
		tok := c.cur
		c.advance()
		return tok
	}
	c.errorAt(c.cur, message)
	return c.cur
}

func (c *Compiler) errorAt(tok lexer.Token, message string) {
	lexeme := tok.Lexeme
	if tok.Type == lexer.TokenEOF {
		lexeme = ""
	}
	c.errs.Add(report.NewStaticErrorAt(tok.Line, lexeme, message))
}

func (c *Compiler) line() int { return c.cur.Line }

func (c *Compiler) emitOp(op bytecode.Opcode) { c.chunk.WriteOp(op, c.line()) }
func (c *Compiler) emitByte(b byte)           { c.chunk.Write(b, c.line()) }

func (c *Compiler) emitConstant(v bytecode.Value) {
	idx := c.chunk.AddConstant(v)
	if idx > 0xff {
		c.errorAt(c.cur, "Too many constants in one chunk.")
		return
	}
	c.emitOp(bytecode.OpConstant)
	c.emitByte(byte(idx))
}

// ---- Declarations & statements ----

func (c *Compiler) declaration() {
	errCountBefore := len(c.errs.Errors())
	switch {
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	case c.check(lexer.TokenClass) || c.check(lexer.TokenFun):
		c.errorAt(c.cur, "Functions and classes are not supported by the bytecode compiler.")
		c.advance()
	default:
		c.statement()
	}
	if len(c.errs.Errors()) > errCountBefore {
		c.synchronize()
	}
}

// synchronize discards tokens after a compile error until a plausible
// statement boundary, so one malformed statement produces one diagnostic
// instead of a cascade, and so the compile loop always makes progress even
// when the offending token satisfies no production.
func (c *Compiler) synchronize() {
	for !c.check(lexer.TokenEOF) {
		if c.cur.Type == lexer.TokenSemicolon {
			c.advance()
			return
		}
		switch c.cur.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.expect(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable declares name (as a local, if inside a scope) and, for a
// global, returns the constant-pool index of its name; for a local it
// returns 0 (unused by defineVariable in that path).
func (c *Compiler) parseVariable(message string) byte {
	name := c.expect(lexer.TokenIdentifier, message)
	if c.scopeDepth > 0 {
		c.declareLocal(name)
		return 0
	}
	return c.identifierConstant(name)
}

// identifierConstant adds name's lexeme to the constant pool, reporting an
// error if the pool outgrows a one-byte operand.
func (c *Compiler) identifierConstant(name lexer.Token) byte {
	idx := c.chunk.AddConstant(name.Lexeme)
	if idx > 0xff {
		c.errorAt(name, "Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) declareLocal(name lexer.Token) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.errorAt(name, "Already a variable with this name in this scope.")
		}
	}
	if len(c.locals) >= maxLocals {
		c.errorAt(name, "Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name.Lexeme, depth: -1})
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.locals[len(c.locals)-1].depth = c.scopeDepth
		return
	}
	c.emitOp(bytecode.OpDefineGlobal)
	c.emitByte(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.expect(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.expect(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.expect(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

// ifStatement compiles control flow by patching: JUMP_IF_FALSE placeholder,
// POP, then-branch, JUMP placeholder, patch the first jump, POP, else-branch
// (if any), patch the second jump.
func (c *Compiler) ifStatement() {
	c.expect(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.expect(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.chunk.EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.chunk.EmitJump(bytecode.OpJump, c.line())
	c.chunk.PatchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(lexer.TokenElse) {
		c.statement()
	}
	c.chunk.PatchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.expect(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.expect(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.chunk.EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.chunk.EmitLoop(loopStart, c.line())

	c.chunk.PatchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.expect(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(lexer.TokenSemicolon):
		// no initializer
	case c.check(lexer.TokenVar):
		c.advance()
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk.Code)
	exitJump := -1
	if !c.check(lexer.TokenSemicolon) {
		c.expression()
		c.expect(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.chunk.EmitJump(bytecode.OpJumpIfFalse, c.line())
		c.emitOp(bytecode.OpPop)
	} else {
		c.advance()
	}

	if !c.check(lexer.TokenRightParen) {
		bodyJump := c.chunk.EmitJump(bytecode.OpJump, c.line())
		incrementStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.expect(lexer.TokenRightParen, "Expect ')' after for clauses.")

		c.chunk.EmitLoop(loopStart, c.line())
		loopStart = incrementStart
		c.chunk.PatchJump(bodyJump)
	} else {
		c.advance()
	}

	c.statement()
	c.chunk.EmitLoop(loopStart, c.line())

	if exitJump != -1 {
		c.chunk.PatchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.endScope()
}

// ---- Expressions ----

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(p precedence) {
	prefixRule := getRule(c.cur.Type).prefix
	if prefixRule == nil {
		c.errorAt(c.cur, "Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	prefixRule(c, canAssign)

	for p <= getRule(c.cur.Type).precedence {
		infixRule := getRule(c.cur.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.check(lexer.TokenEqual) {
		c.errorAt(c.cur, "Invalid assignment target.")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.advance() // consume '('
	c.expression()
	c.expect(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	op := c.cur
	c.advance()
	c.parsePrecedence(precUnary)
	switch op.Type {
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpNegate)
	case lexer.TokenBang:
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.cur
	r := getRule(op.Type)
	c.advance()
	c.parsePrecedence(r.precedence + 1)

	switch op.Type {
	case lexer.TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(bytecode.OpDivide)
	case lexer.TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.TokenBangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenLess:
		c.emitOp(bytecode.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

// and/or compile to short-circuit jumps that leave the deciding operand
// itself on the stack: `and` is a JUMP_IF_FALSE+POP guarding the right
// operand; `or` is a JUMP_IF_FALSE past a JUMP that skips straight to the
// right operand.
func (c *Compiler) and(_ bool) {
	c.advance() // consume 'and'
	endJump := c.chunk.EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) or(_ bool) {
	c.advance() // consume 'or'
	elseJump := c.chunk.EmitJump(bytecode.OpJumpIfFalse, c.line())
	endJump := c.chunk.EmitJump(bytecode.OpJump, c.line())
	c.chunk.PatchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) number(_ bool) {
	c.emitConstant(c.cur.Number)
	c.advance()
}

func (c *Compiler) string(_ bool) {
	c.emitConstant(c.cur.Str)
	c.advance()
}

func (c *Compiler) literal(_ bool) {
	switch c.cur.Type {
	case lexer.TokenFalse:
		c.emitOp(bytecode.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(bytecode.OpTrue)
	case lexer.TokenNil:
		c.emitOp(bytecode.OpNil)
	}
	c.advance()
}

// variable handles assignment context-sensitively: an identifier followed
// by `=` when canAssign emits SET_* instead of GET_*.
func (c *Compiler) variable(canAssign bool) {
	name := c.cur
	c.advance()
	c.namedVariable(name, canAssign)
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) {
	if slot, ok := c.resolveLocal(name); ok {
		if slot == -1 {
			c.errorAt(name, "Can't read local variable in its own initializer.")
			return
		}
		if canAssign && c.match(lexer.TokenEqual) {
			c.expression()
			c.emitOp(bytecode.OpSetLocal)
			c.emitByte(byte(slot))
		} else {
			c.emitOp(bytecode.OpGetLocal)
			c.emitByte(byte(slot))
		}
		return
	}

	idx := c.identifierConstant(name)
	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitOp(bytecode.OpSetGlobal)
	} else {
		c.emitOp(bytecode.OpGetGlobal)
	}
	c.emitByte(idx)
}

// resolveLocal scans locals from the top (innermost) down. A match whose
// local is declared but not yet defined (depth == -1) is reported back as
// slot -1, ok true, so namedVariable can reject the self-initializer read
// ("var a = a;" inside the same scope) instead of silently reading
// whatever garbage occupies that stack slot.
func (c *Compiler) resolveLocal(name lexer.Token) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name.Lexeme {
			if c.locals[i].depth == -1 {
				return -1, true
			}
			return i, true
		}
	}
	return 0, false
}
