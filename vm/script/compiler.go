// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package script

import (
	"fmt"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/vm"
)

// CompileError is the curated error pattern for all compilation failures.
// The %s placeholder is the name of the function being compiled.
const CompileError = "script '%s': %v"

func compileError(line int, format string, args ...interface{}) error {
	return curated.Errorf(fmt.Sprintf("line %d: %s", line, format), args...)
}

// SymbolKind is the category of a name known to the Resolver.
type SymbolKind int

// List of valid SymbolKind values.
const (
	SymNone SymbolKind = iota
	SymGlobal
	SymThreadVar
	SymObject
	SymFunction
)

// Resolver supplies the compiler with the named entities of the device
// description. Local variables and parameters shadow resolver names.
type Resolver interface {
	Lookup(name string) (SymbolKind, int)
}

// Config qualifies a single compilation.
type Config struct {
	// names of the integer parameters, in order
	Params []string

	// does the function return a value
	Returns bool

	// async flags the function's context allows. calling anything that
	// requires a flag outside this set is a compile error
	Allowed vm.Flags
}

// Compile compiles the source of one script function against the domain.
// The function is not added to the domain; that is the caller's decision.
func Compile(d *vm.Domain, name string, src string, cfg Config, res Resolver) (*vm.Function, error) {
	c := &compiler{
		domain: d,
		res:    res,
		cfg:    cfg,
		fn: &vm.Function{
			Name:      name,
			NumParams: len(cfg.Params),
			Returns:   cfg.Returns,
		},
		locals: []map[string]int{{}},
	}

	for _, p := range cfg.Params {
		c.locals[0][p] = c.numLocals
		c.numLocals++
	}

	// parameters occupy local slots even when the body declares nothing
	c.maxLocals = c.numLocals

	err := c.compile(src)
	if err != nil {
		return nil, curated.Errorf(CompileError, name, err)
	}

	c.fn.NumLocals = c.maxLocals
	return c.fn, nil
}

type exprKind int

const (
	exprInt exprKind = iota
	exprObject
	exprVoid
)

type expr struct {
	kind exprKind

	// class name of an object expression
	class string
}

type compiler struct {
	domain *vm.Domain
	res    Resolver
	cfg    Config
	fn     *vm.Function

	lx  *lexer
	tok token

	// scope stack. innermost scope last
	locals    []map[string]int
	numLocals int
	maxLocals int

	// instruction indices waiting to be patched with the address of the end
	// of the innermost loop. nil when not in a loop
	breaks [][]int
}

func (c *compiler) compile(src string) error {
	c.lx = newLexer(src)
	if err := c.advance(); err != nil {
		return err
	}

	// a script is a statement list, optionally wrapped in braces
	if c.isPunct("{") {
		if err := c.block(); err != nil {
			return err
		}
		if c.tok.typ != tokEOF {
			return compileError(c.tok.line, "unexpected text after closing brace")
		}
	} else {
		for c.tok.typ != tokEOF {
			if err := c.statement(); err != nil {
				return err
			}
		}
	}

	// implicit return
	if c.cfg.Returns {
		c.emit(vm.OpPushInt, 0, 0)
		c.emit(vm.OpReturnValue, 0, 0)
	} else {
		c.emit(vm.OpReturn, 0, 0)
	}

	return nil
}

func (c *compiler) advance() error {
	t, err := c.lx.next()
	if err != nil {
		return err
	}
	c.tok = t
	return nil
}

func (c *compiler) isPunct(p string) bool {
	return c.tok.typ == tokPunct && c.tok.text == p
}

func (c *compiler) expectPunct(p string) error {
	if !c.isPunct(p) {
		return compileError(c.tok.line, "expected '%s'", p)
	}
	return c.advance()
}

func (c *compiler) emit(op vm.Opcode, a, b int32) int {
	c.fn.Code = append(c.fn.Code, vm.Instr{Op: op, A: a, B: b})
	return len(c.fn.Code) - 1
}

// patch the jump target of the instruction at idx to the current position
func (c *compiler) patch(idx int) {
	c.fn.Code[idx].A = int32(len(c.fn.Code))
}

func (c *compiler) pushScope() {
	c.locals = append(c.locals, map[string]int{})
}

func (c *compiler) popScope() {
	n := len(c.locals) - 1
	c.numLocals -= len(c.locals[n])
	c.locals = c.locals[:n]
}

func (c *compiler) lookupLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if idx, ok := c.locals[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (c *compiler) declareLocal(name string, line int) (int, error) {
	if _, ok := c.locals[len(c.locals)-1][name]; ok {
		return 0, compileError(line, "variable '%s' already declared", name)
	}
	idx := c.numLocals
	c.locals[len(c.locals)-1][name] = idx
	c.numLocals++
	if c.numLocals > c.maxLocals {
		c.maxLocals = c.numLocals
	}
	return idx, nil
}

func (c *compiler) block() error {
	if err := c.expectPunct("{"); err != nil {
		return err
	}
	c.pushScope()
	for !c.isPunct("}") {
		if c.tok.typ == tokEOF {
			return compileError(c.tok.line, "expected '}'")
		}
		if err := c.statement(); err != nil {
			return err
		}
	}
	c.popScope()
	return c.advance()
}

func (c *compiler) statement() error {
	if c.tok.typ == tokIdent {
		switch c.tok.text {
		case "int":
			return c.declaration()
		case "if":
			return c.ifStatement()
		case "while":
			return c.whileStatement()
		case "return":
			return c.returnStatement()
		case "break":
			return c.breakStatement()
		}
	}

	if c.isPunct("{") {
		return c.block()
	}

	// assignment or expression statement. an assignment begins with an
	// identifier naming a local or global variable
	if c.tok.typ == tokIdent {
		if ok, err := c.assignment(); ok || err != nil {
			return err
		}
	}

	// expression statement
	e, err := c.expression()
	if err != nil {
		return err
	}
	switch e.kind {
	case exprInt:
		c.emit(vm.OpPop, 0, 0)
	case exprObject:
		return compileError(c.tok.line, "object reference is not a statement")
	}
	return c.expectPunct(";")
}

func (c *compiler) declaration() error {
	if err := c.advance(); err != nil { // skip 'int'
		return err
	}

	for {
		if c.tok.typ != tokIdent {
			return compileError(c.tok.line, "expected variable name")
		}
		name := c.tok.text
		line := c.tok.line
		if err := c.advance(); err != nil {
			return err
		}

		idx, err := c.declareLocal(name, line)
		if err != nil {
			return err
		}

		if c.isPunct("=") {
			if err := c.advance(); err != nil {
				return err
			}
			if err := c.intExpression(); err != nil {
				return err
			}
			c.emit(vm.OpStoreLocal, int32(idx), 0)
		}

		if c.isPunct(",") {
			if err := c.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}

	return c.expectPunct(";")
}

func (c *compiler) ifStatement() error {
	if err := c.advance(); err != nil { // skip 'if'
		return err
	}
	if err := c.expectPunct("("); err != nil {
		return err
	}
	if err := c.intExpression(); err != nil {
		return err
	}
	if err := c.expectPunct(")"); err != nil {
		return err
	}

	jz := c.emit(vm.OpJz, 0, 0)

	if err := c.block(); err != nil {
		return err
	}

	if c.tok.typ == tokIdent && c.tok.text == "else" {
		if err := c.advance(); err != nil {
			return err
		}
		jmp := c.emit(vm.OpJump, 0, 0)
		c.patch(jz)
		if c.tok.typ == tokIdent && c.tok.text == "if" {
			if err := c.ifStatement(); err != nil {
				return err
			}
		} else {
			if err := c.block(); err != nil {
				return err
			}
		}
		c.patch(jmp)
		return nil
	}

	c.patch(jz)
	return nil
}

func (c *compiler) whileStatement() error {
	if err := c.advance(); err != nil { // skip 'while'
		return err
	}
	if err := c.expectPunct("("); err != nil {
		return err
	}

	top := len(c.fn.Code)

	if err := c.intExpression(); err != nil {
		return err
	}
	if err := c.expectPunct(")"); err != nil {
		return err
	}

	jz := c.emit(vm.OpJz, 0, 0)

	c.breaks = append(c.breaks, nil)
	if err := c.block(); err != nil {
		return err
	}
	c.emit(vm.OpJump, int32(top), 0)
	c.patch(jz)

	for _, idx := range c.breaks[len(c.breaks)-1] {
		c.patch(idx)
	}
	c.breaks = c.breaks[:len(c.breaks)-1]

	return nil
}

func (c *compiler) returnStatement() error {
	line := c.tok.line
	if err := c.advance(); err != nil { // skip 'return'
		return err
	}

	if c.isPunct(";") {
		if c.cfg.Returns {
			return compileError(line, "return value required")
		}
		c.emit(vm.OpReturn, 0, 0)
		return c.advance()
	}

	if !c.cfg.Returns {
		return compileError(line, "void function cannot return a value")
	}
	if err := c.intExpression(); err != nil {
		return err
	}
	c.emit(vm.OpReturnValue, 0, 0)
	return c.expectPunct(";")
}

func (c *compiler) breakStatement() error {
	line := c.tok.line
	if err := c.advance(); err != nil { // skip 'break'
		return err
	}
	if len(c.breaks) == 0 {
		return compileError(line, "break outside of loop")
	}
	idx := c.emit(vm.OpJump, 0, 0)
	c.breaks[len(c.breaks)-1] = append(c.breaks[len(c.breaks)-1], idx)
	return c.expectPunct(";")
}

// assignment attempts to parse an assignment statement. returns false with
// no error if the statement is not an assignment, in which case no tokens
// have been consumed.
func (c *compiler) assignment() (bool, error) {
	name := c.tok.text
	line := c.tok.line

	// peek past the identifier without losing the ability to rewind. the
	// lexer is cheap so we just remember its position
	savedLx := *c.lx
	savedTok := c.tok
	if err := c.advance(); err != nil {
		return false, err
	}

	var op string
	if c.tok.typ == tokPunct {
		switch c.tok.text {
		case "=", "+=", "-=":
			op = c.tok.text
		}
	}
	if op == "" {
		// not an assignment. rewind
		*c.lx = savedLx
		c.tok = savedTok
		return false, nil
	}

	if err := c.advance(); err != nil {
		return false, err
	}

	var load, store vm.Opcode
	var idx int32
	if i, ok := c.lookupLocal(name); ok {
		load, store, idx = vm.OpLoadLocal, vm.OpStoreLocal, int32(i)
	} else {
		kind, i := c.res.Lookup(name)
		switch kind {
		case SymGlobal:
			load, store, idx = vm.OpLoadGlobal, vm.OpStoreGlobal, int32(i)
		case SymThreadVar:
			return false, compileError(line, "'%s' is read-only", name)
		case SymNone:
			return false, compileError(line, "unknown variable '%s'", name)
		default:
			return false, compileError(line, "'%s' cannot be assigned to", name)
		}
	}

	if op != "=" {
		c.emit(load, idx, 0)
	}
	if err := c.intExpression(); err != nil {
		return false, err
	}
	switch op {
	case "+=":
		c.emit(vm.OpAdd, 0, 0)
	case "-=":
		c.emit(vm.OpSub, 0, 0)
	}
	c.emit(store, idx, 0)

	return true, c.expectPunct(";")
}

// intExpression parses an expression and requires it to produce a value.
func (c *compiler) intExpression() error {
	line := c.tok.line
	e, err := c.expression()
	if err != nil {
		return err
	}
	if e.kind != exprInt {
		return compileError(line, "expression does not produce a value")
	}
	return nil
}

func (c *compiler) expression() (expr, error) {
	return c.ternary()
}

func (c *compiler) ternary() (expr, error) {
	e, err := c.binary(0)
	if err != nil {
		return e, err
	}
	if !c.isPunct("?") {
		return e, nil
	}
	if e.kind != exprInt {
		return e, compileError(c.tok.line, "condition does not produce a value")
	}
	if err := c.advance(); err != nil {
		return e, err
	}

	jz := c.emit(vm.OpJz, 0, 0)
	if err := c.intExpression(); err != nil {
		return e, err
	}
	jmp := c.emit(vm.OpJump, 0, 0)
	c.patch(jz)
	if err := c.expectPunct(":"); err != nil {
		return e, err
	}
	if err := c.intExpression(); err != nil {
		return e, err
	}
	c.patch(jmp)

	return expr{kind: exprInt}, nil
}

// binary operator precedence, tightest binding highest
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

var binaryOpcodes = map[string]vm.Opcode{
	"|": vm.OpOr, "^": vm.OpXor, "&": vm.OpAnd,
	"==": vm.OpEq, "!=": vm.OpNe,
	"<": vm.OpLt, "<=": vm.OpLe, ">": vm.OpGt, ">=": vm.OpGe,
	"<<": vm.OpShl, ">>": vm.OpShr,
	"+": vm.OpAdd, "-": vm.OpSub,
	"*": vm.OpMul, "/": vm.OpDiv, "%": vm.OpMod,
}

func (c *compiler) binary(minPrec int) (expr, error) {
	e, err := c.unary()
	if err != nil {
		return e, err
	}

	for c.tok.typ == tokPunct {
		op := c.tok.text
		prec, ok := precedence[op]
		if !ok || prec < minPrec {
			break
		}
		if e.kind != exprInt {
			return e, compileError(c.tok.line, "operand does not produce a value")
		}
		line := c.tok.line
		if err := c.advance(); err != nil {
			return e, err
		}

		switch op {
		case "&&":
			jz := c.emit(vm.OpJz, 0, 0)
			if r, err := c.binary(prec + 1); err != nil {
				return e, err
			} else if r.kind != exprInt {
				return e, compileError(line, "operand does not produce a value")
			}
			c.emit(vm.OpBool, 0, 0)
			jmp := c.emit(vm.OpJump, 0, 0)
			c.patch(jz)
			c.emit(vm.OpPushInt, 0, 0)
			c.patch(jmp)

		case "||":
			jnz := c.emit(vm.OpJnz, 0, 0)
			if r, err := c.binary(prec + 1); err != nil {
				return e, err
			} else if r.kind != exprInt {
				return e, compileError(line, "operand does not produce a value")
			}
			c.emit(vm.OpBool, 0, 0)
			jmp := c.emit(vm.OpJump, 0, 0)
			c.patch(jnz)
			c.emit(vm.OpPushInt, 1, 0)
			c.patch(jmp)

		default:
			if r, err := c.binary(prec + 1); err != nil {
				return e, err
			} else if r.kind != exprInt {
				return e, compileError(line, "operand does not produce a value")
			}
			c.emit(binaryOpcodes[op], 0, 0)
		}

		e = expr{kind: exprInt}
	}

	return e, nil
}

func (c *compiler) unary() (expr, error) {
	if c.tok.typ == tokPunct {
		var op vm.Opcode
		switch c.tok.text {
		case "-":
			op = vm.OpNeg
		case "~":
			op = vm.OpNot
		case "!":
			op = vm.OpLNot
		}
		if op != vm.OpNop {
			line := c.tok.line
			if err := c.advance(); err != nil {
				return expr{}, err
			}
			e, err := c.unary()
			if err != nil {
				return e, err
			}
			if e.kind != exprInt {
				return e, compileError(line, "operand does not produce a value")
			}
			c.emit(op, 0, 0)
			return expr{kind: exprInt}, nil
		}
	}
	return c.primary()
}

func (c *compiler) primary() (expr, error) {
	switch c.tok.typ {
	case tokNumber:
		c.emit(vm.OpPushInt, c.tok.num, 0)
		return expr{kind: exprInt}, c.advance()

	case tokPunct:
		if c.isPunct("(") {
			if err := c.advance(); err != nil {
				return expr{}, err
			}
			e, err := c.expression()
			if err != nil {
				return e, err
			}
			return e, c.expectPunct(")")
		}

	case tokIdent:
		return c.identifier()

	case tokString:
		return expr{}, compileError(c.tok.line, "strings can only be used as method arguments")
	}

	return expr{}, compileError(c.tok.line, "expected expression")
}

func (c *compiler) identifier() (expr, error) {
	name := c.tok.text
	line := c.tok.line
	if err := c.advance(); err != nil {
		return expr{}, err
	}

	if idx, ok := c.lookupLocal(name); ok {
		c.emit(vm.OpLoadLocal, int32(idx), 0)
		return expr{kind: exprInt}, nil
	}

	kind, idx := c.res.Lookup(name)
	switch kind {
	case SymGlobal:
		c.emit(vm.OpLoadGlobal, int32(idx), 0)
		return expr{kind: exprInt}, nil

	case SymThreadVar:
		c.emit(vm.OpLoadThread, int32(idx), 0)
		return expr{kind: exprInt}, nil

	case SymFunction:
		return c.functionCall(name, idx, line)

	case SymObject:
		if c.isPunct(".") {
			return c.methodCall(name, idx, line)
		}
		c.emit(vm.OpPushObject, int32(idx), 0)
		return expr{kind: exprObject, class: c.domain.Objects[idx].Class().Name}, nil
	}

	return expr{}, compileError(line, "unknown identifier '%s'", name)
}

func (c *compiler) functionCall(name string, idx int, line int) (expr, error) {
	fn := c.domain.Functions[idx]

	if !c.isPunct("(") {
		return expr{}, compileError(line, "function '%s' must be called", name)
	}

	if fn.Flags&^c.cfg.Allowed != 0 {
		return expr{}, compileError(line, "function '%s' can block and cannot be called here", name)
	}

	argc, err := c.arguments(nil, name, line)
	if err != nil {
		return expr{}, err
	}
	if argc != fn.NumParams {
		return expr{}, compileError(line, "function '%s' takes %d argument(s)", name, fn.NumParams)
	}

	c.fn.Flags |= fn.Flags
	c.emit(vm.OpCallFunc, int32(idx), int32(argc))

	if fn.Returns {
		return expr{kind: exprInt}, nil
	}
	return expr{kind: exprVoid}, nil
}

func (c *compiler) methodCall(objName string, objIdx int, line int) (expr, error) {
	if err := c.advance(); err != nil { // skip '.'
		return expr{}, err
	}
	if c.tok.typ != tokIdent {
		return expr{}, compileError(c.tok.line, "expected method name")
	}
	methodName := c.tok.text
	line = c.tok.line
	if err := c.advance(); err != nil {
		return expr{}, err
	}

	class := c.domain.Objects[objIdx].Class()
	midx := class.MethodIndex(methodName)
	if midx < 0 {
		return expr{}, compileError(line, "'%s' has no method '%s'", objName, methodName)
	}
	m := &class.Methods[midx]

	if m.Flags&^c.cfg.Allowed != 0 {
		return expr{}, compileError(line, "method '%s.%s' can block and cannot be called here", objName, methodName)
	}

	if !c.isPunct("(") {
		return expr{}, compileError(line, "expected '(' after method name")
	}

	c.emit(vm.OpPushObject, int32(objIdx), 0)

	argc, err := c.arguments(m.Params, methodName, line)
	if err != nil {
		return expr{}, err
	}
	if argc != len(m.Params) {
		return expr{}, compileError(line, "method '%s.%s' takes %d argument(s)", objName, methodName, len(m.Params))
	}

	c.fn.Flags |= m.Flags
	c.emit(vm.OpCallMethod, int32(midx), int32(argc))

	if m.Returns {
		return expr{kind: exprInt}, nil
	}
	return expr{kind: exprVoid}, nil
}

// arguments parses a parenthesised argument list. params may be nil, in
// which case all arguments must be integer expressions.
func (c *compiler) arguments(params []string, name string, line int) (int, error) {
	if err := c.expectPunct("("); err != nil {
		return 0, err
	}

	argc := 0
	for !c.isPunct(")") {
		if argc > 0 {
			if err := c.expectPunct(","); err != nil {
				return 0, err
			}
		}

		var want string
		if argc < len(params) {
			want = params[argc]
		}

		switch {
		case want == vm.StringParam:
			if c.tok.typ != tokString {
				return 0, compileError(c.tok.line, "argument %d of '%s' must be a string", argc+1, name)
			}
			c.emit(vm.OpPushInt, int32(c.domain.AddString(c.tok.text)), 0)
			if err := c.advance(); err != nil {
				return 0, err
			}

		case want != "":
			// object argument of a specific class
			argLine := c.tok.line
			e, err := c.expression()
			if err != nil {
				return 0, err
			}
			if e.kind != exprObject || e.class != want {
				return 0, compileError(argLine, "argument %d of '%s' must be a %s", argc+1, name, want)
			}

		default:
			argLine := c.tok.line
			e, err := c.expression()
			if err != nil {
				return 0, err
			}
			if e.kind != exprInt {
				return 0, compileError(argLine, "argument %d of '%s' must be a value", argc+1, name)
			}
		}

		argc++
	}

	return argc, c.advance() // skip ')'
}
