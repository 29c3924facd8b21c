// Package compiler implements a single-pass compiler: it drives the scanner
// token by token and emits bytecode directly into a vm.Chunk. There is no
// intermediate AST; each grammar rule is a function that both recognizes
// its piece of syntax and emits the code for it as it goes.
package compiler

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"loxvm/lexer"
	"loxvm/token"
	"loxvm/vm"
)

// parser holds the one-token lookahead and the sticky error state a
// recursive-descent compiler needs: once a syntax error is reported the
// parser enters panic mode and swallows all further errors (panic mode is
// never cleared; there is no resynchronization), and hadError is never
// cleared either, so a single bad token still fails the whole compile.
type parser struct {
	scanner *lexer.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	errOut io.Writer
}

// Compiler compiles a source string into bytecode written onto chunk.
type Compiler struct {
	parser *parser
	chunk  *vm.Chunk
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithErrorWriter redirects diagnostic output away from os.Stderr, letting
// embedders capture compile errors instead of inheriting the process's
// standard error stream.
func WithErrorWriter(w io.Writer) Option {
	return func(c *Compiler) {
		c.parser.errOut = w
	}
}

// New creates a Compiler that will compile source into chunk.
func New(source string, chunk *vm.Chunk, opts ...Option) *Compiler {
	c := &Compiler{
		parser: &parser{
			scanner: lexer.New(source),
			errOut:  os.Stderr,
		},
		chunk: chunk,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles source onto chunk and reports whether it succeeded.
// It is the package's primary entry point; New plus (*Compiler).Run exist
// for callers that need to configure error output first.
func Compile(source string, chunk *vm.Chunk, opts ...Option) bool {
	return New(source, chunk, opts...).Run()
}

// Run performs the compile and returns true on success. On failure, chunk
// may contain a partial program; callers must not execute it.
func (c *Compiler) Run() bool {
	p := c.parser
	p.advance()
	for !p.match(token.EOF) {
		c.declaration()
	}
	c.emitReturn()
	return !p.hadError
}

// ---------------------------------------------------------------------------
// Parser plumbing
// ---------------------------------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.NextToken()
		if p.current.Type != token.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Literal)
	}
}

func (p *parser) check(t token.TokenType) bool {
	return p.current.Type == t
}

func (p *parser) match(t token.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t token.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *parser) error(message string) {
	p.errorAt(p.previous, message)
}

func (p *parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	fmt.Fprintf(p.errOut, "[line %d] Error", tok.Line)
	switch tok.Type {
	case token.EOF:
		fmt.Fprint(p.errOut, " at end")
	case token.ERROR:
		// The lexeme itself is the message; nothing more to locate.
	default:
		fmt.Fprintf(p.errOut, " at '%s'", tok.Literal)
	}
	fmt.Fprintf(p.errOut, ": %s\n", message)
}

// ---------------------------------------------------------------------------
// Code generation helpers
// ---------------------------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk.WriteByte(b, c.parser.previous.Line)
}

func (c *Compiler) emitOp(op vm.Opcode) {
	c.chunk.WriteOpcode(op, c.parser.previous.Line)
}

func (c *Compiler) emitOpByte(op vm.Opcode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	c.emitOp(vm.OP_RETURN)
}

// emitConstant adds value to the chunk's constant pool and emits OP_CONSTANT
// for it, reporting a compile error instead of silently truncating the
// index if the pool is already full.
func (c *Compiler) emitConstant(value vm.Value) {
	idx, err := c.chunk.AddConstant(value)
	if err != nil {
		c.parser.error("Too many constants in one chunk.")
		return
	}
	c.emitOpByte(vm.OP_CONSTANT, byte(idx))
}

// identifierConstant interns name's text and adds it to the constant pool,
// returning its index for use as an OP_*_GLOBAL operand.
func (c *Compiler) identifierConstant(name token.Token) byte {
	interned := c.chunk.InternString(name.Literal)
	idx, err := c.chunk.AddConstant(vm.Obj(interned))
	if err != nil {
		c.parser.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

// emitJump emits a jump opcode with a placeholder 16-bit offset and returns
// the offset of the placeholder, to be patched once the jump target is known.
func (c *Compiler) emitJump(op vm.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk.Count() - 2
}

// patchJump backfills a forward jump emitted by emitJump with the distance
// from just after its operand to the current end of the chunk.
func (c *Compiler) patchJump(offset int) {
	jump := c.chunk.Count() - offset - 2
	if jump > 0xffff {
		c.parser.error("Too much code to jump over.")
		return
	}
	c.chunk.Code[offset] = byte(jump >> 8)
	c.chunk.Code[offset+1] = byte(jump & 0xff)
}

// emitLoop emits OP_LOOP with the backward offset to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(vm.OP_LOOP)
	offset := c.chunk.Count() - loopStart + 2
	if offset > 0xffff {
		c.parser.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// ---------------------------------------------------------------------------
// Declarations and statements
// ---------------------------------------------------------------------------

func (c *Compiler) declaration() {
	p := c.parser
	if p.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
}

func (c *Compiler) varDeclaration() {
	p := c.parser
	p.consume(token.IDENT, "Expect variable name.")
	global := c.identifierConstant(p.previous)

	if p.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(vm.OP_NIL)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.emitOpByte(vm.OP_DEFINE_GLOBAL, global)
}

func (c *Compiler) statement() {
	p := c.parser
	switch {
	case p.match(token.PRINT):
		c.printStatement()
	case p.match(token.IF):
		c.ifStatement()
	case p.match(token.WHILE):
		c.whileStatement()
	case p.match(token.LBRACE):
		c.block()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	p := c.parser
	c.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(vm.OP_PRINT)
}

func (c *Compiler) expressionStatement() {
	p := c.parser
	c.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(vm.OP_POP)
}

func (c *Compiler) ifStatement() {
	p := c.parser
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	p.consume(token.RPAREN, "Expect ')' after if condition.")

	thenJump := c.emitJump(vm.OP_JUMP_IF_FALSE)
	c.emitOp(vm.OP_POP)
	c.declaration()

	elseJump := c.emitJump(vm.OP_JUMP)
	c.patchJump(thenJump)
	c.emitOp(vm.OP_POP)

	if p.match(token.ELSE) {
		c.declaration()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	p := c.parser
	loopStart := c.chunk.Count()
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(vm.OP_JUMP_IF_FALSE)
	c.emitOp(vm.OP_POP)
	c.declaration()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(vm.OP_POP)
}

func (c *Compiler) block() {
	p := c.parser
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		c.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

// ---------------------------------------------------------------------------
// Expressions
//
// This language has one flat level of binary-operator precedence: operands
// are unary-or-primary expressions, and any run of binary operators is
// evaluated strictly left to right with no precedence climbing between
// them. `1 + 2 * 3` compiles as `(1 + 2) * 3`.
// ---------------------------------------------------------------------------

func (c *Compiler) expression() {
	c.operand()
	p := c.parser
	for {
		switch {
		case p.match(token.STAR):
			c.operand()
			c.emitOp(vm.OP_MULTIPLY)
		case p.match(token.SLASH):
			c.operand()
			c.emitOp(vm.OP_DIVIDE)
		case p.match(token.PLUS):
			c.operand()
			c.emitOp(vm.OP_ADD)
		case p.match(token.MINUS):
			c.operand()
			c.emitOp(vm.OP_SUBTRACT)
		case p.match(token.EQUAL_EQUAL):
			c.operand()
			c.emitOp(vm.OP_EQUAL)
		case p.match(token.BANG_EQUAL):
			c.operand()
			c.emitOp(vm.OP_EQUAL)
			c.emitOp(vm.OP_NOT)
		case p.match(token.LESS):
			c.operand()
			c.emitOp(vm.OP_LESS)
		case p.match(token.LESS_EQUAL):
			c.operand()
			c.emitOp(vm.OP_GREATER)
			c.emitOp(vm.OP_NOT)
		case p.match(token.GREATER):
			c.operand()
			c.emitOp(vm.OP_GREATER)
		case p.match(token.GREATER_EQUAL):
			c.operand()
			c.emitOp(vm.OP_LESS)
			c.emitOp(vm.OP_NOT)
		default:
			return
		}
	}
}

// operand parses a unary-or-primary expression: the smallest unit the flat
// binary-operator loop in expression threads together.
func (c *Compiler) operand() {
	p := c.parser

	switch {
	case p.match(token.BANG):
		c.operand()
		c.emitOp(vm.OP_NOT)
		return
	case p.match(token.MINUS):
		c.operand()
		c.emitOp(vm.OP_NEGATE)
		return
	}

	switch {
	case p.match(token.FALSE):
		c.emitOp(vm.OP_FALSE)
	case p.match(token.TRUE):
		c.emitOp(vm.OP_TRUE)
	case p.match(token.NIL):
		c.emitOp(vm.OP_NIL)
	case p.match(token.NUMBER):
		c.number()
	case p.match(token.LPAREN):
		c.expression()
		p.consume(token.RPAREN, "Expect ')' after expression.")
	case p.match(token.IDENT):
		c.namedVariable(p.previous)
	default:
		p.errorAtCurrent("Expect expression.")
		p.advance() // consume the offending token so compilation still terminates
	}
}

func (c *Compiler) number() {
	n, err := strconv.ParseFloat(c.parser.previous.Literal, 64)
	if err != nil {
		c.parser.error("Invalid number literal.")
		return
	}
	c.emitConstant(vm.Number(n))
}

// Note: no case handles token.STRING here. This dialect's expression
// grammar never constructs an Obj value from source text; a string literal
// falls through to "Expect expression."

// namedVariable compiles a variable reference, or a variable assignment if
// it's immediately followed by '='. There is no local-variable resolution:
// every name is a global, consistent with this language's globals-only
// variable environment.
func (c *Compiler) namedVariable(name token.Token) {
	p := c.parser
	arg := c.identifierConstant(name)

	if p.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(vm.OP_SET_GLOBAL, arg)
	} else {
		c.emitOpByte(vm.OP_GET_GLOBAL, arg)
	}
}
