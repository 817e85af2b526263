package compiler

import "github.com/kristofer/lox/pkg/lexer"

// precedence ranks how tightly a binary/postfix operator binds, ascending
// from loosest to tightest.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

// parseFn is either a prefix or infix parsing function for one token type.
// canAssign tells an identifier's prefix rule whether a trailing `=` should
// be treated as an assignment.
type parseFn func(c *Compiler, canAssign bool)

// rule is one row of the Pratt parser's rule table: what to do when the
// token appears in prefix position, what to do when it appears as an infix
// operator after some already-parsed left operand, and at what precedence.
type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]rule

func init() {
	rules = map[lexer.TokenType]rule{
		// No TokenLeftParen infix (call) or TokenDot (property get) rule:
		// the bytecode VM has no functions or classes to call or inspect,
		// so LEFT_PAREN is prefix-only (grouping) here.
		lexer.TokenLeftParen:    {prefix: (*Compiler).grouping},
		lexer.TokenMinus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		lexer.TokenPlus:         {infix: (*Compiler).binary, precedence: precTerm},
		lexer.TokenSlash:        {infix: (*Compiler).binary, precedence: precFactor},
		lexer.TokenStar:         {infix: (*Compiler).binary, precedence: precFactor},
		lexer.TokenBang:         {prefix: (*Compiler).unary},
		lexer.TokenBangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
		lexer.TokenEqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
		lexer.TokenGreater:      {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenGreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenLess:         {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenLessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenIdentifier:   {prefix: (*Compiler).variable},
		lexer.TokenString:       {prefix: (*Compiler).string},
		lexer.TokenNumber:       {prefix: (*Compiler).number},
		lexer.TokenAnd:          {infix: (*Compiler).and, precedence: precAnd},
		lexer.TokenOr:           {infix: (*Compiler).or, precedence: precOr},
		lexer.TokenFalse:        {prefix: (*Compiler).literal},
		lexer.TokenNil:          {prefix: (*Compiler).literal},
		lexer.TokenTrue:         {prefix: (*Compiler).literal},
	}
}

func getRule(t lexer.TokenType) rule {
	return rules[t]
}
