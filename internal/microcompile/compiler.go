package microcompile

import (
	"github.com/kristofer/minijs/internal/asm"
	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/value"
)

// compiler walks a parsed Program and emits bytecode through an asm.Builder,
// one asm.Func per JavaScript function (including the implicit top-level
// one). funcStack tracks which Func is currently receiving instructions —
// compiling a nested FunctionLiteral pushes a new Func, compiles its body
// into it, then pops back to the enclosing one before emitting the
// new_function instruction that references it.
type compiler struct {
	b         *asm.Builder
	funcStack []*asm.Func

	strLits  map[string]uint64
	numLits  map[float64]uint64
	boolLits map[bool]uint64
	nullLit  *uint64
	undefLit *uint64
}

// Compile parses source and compiles it into a Module whose entry function
// evaluates it: a program that is a single bare expression returns that
// expression's value (REPL auto-print convention), anything else runs its
// statements and returns undefined.
func Compile(source string) (*bytecode.Module, error) {
	prog, err := ParseProgram(source)
	if err != nil {
		return nil, err
	}
	c := &compiler{
		b:        asm.New(),
		strLits:  map[string]uint64{},
		numLits:  map[float64]uint64{},
		boolLits: map[bool]uint64{},
	}
	entry := c.b.Func("entry", 0, 64)
	c.funcStack = []*asm.Func{entry}
	c.compileProgram(prog)
	return c.b.Module(), nil
}

func (c *compiler) cur() *asm.Func { return c.funcStack[len(c.funcStack)-1] }

func (c *compiler) strLit(s string) uint64 {
	if idx, ok := c.strLits[s]; ok {
		return idx
	}
	idx := c.b.Literal(value.StrFromGo(s))
	c.strLits[s] = idx
	return idx
}

func (c *compiler) numLit(n float64) uint64 {
	if idx, ok := c.numLits[n]; ok {
		return idx
	}
	idx := c.b.Literal(value.Num(n))
	c.numLits[n] = idx
	return idx
}

func (c *compiler) boolLit(b bool) uint64 {
	if idx, ok := c.boolLits[b]; ok {
		return idx
	}
	idx := c.b.Literal(value.Bool(b))
	c.boolLits[b] = idx
	return idx
}

func (c *compiler) nullLitIdx() uint64 {
	if c.nullLit == nil {
		idx := c.b.Literal(value.Null())
		c.nullLit = &idx
	}
	return *c.nullLit
}

func (c *compiler) undefLitIdx() uint64 {
	if c.undefLit == nil {
		idx := c.b.Literal(value.Undefined())
		c.undefLit = &idx
	}
	return *c.undefLit
}

func (c *compiler) pushUndefined() { c.cur().PushLiteral(c.undefLitIdx()) }

// compileProgram handles the REPL auto-print rule: a program consisting of
// exactly one bare expression statement evaluates and returns it, matching
// what a user typing an expression at a prompt expects to see echoed back.
func (c *compiler) compileProgram(prog *Program) {
	if len(prog.Statements) == 1 {
		if es, ok := prog.Statements[0].(*ExpressionStatement); ok {
			c.compileExpr(es.Expr)
			c.cur().Return()
			return
		}
	}
	for _, stmt := range prog.Statements {
		c.compileStatement(stmt)
	}
	c.pushUndefined()
	c.cur().Return()
}

func (c *compiler) compileStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *ExpressionStatement:
		c.compileExpr(s.Expr)
		c.cur().Pop()
	case *VarStatement:
		c.cur().PushFrame()
		if s.Init != nil {
			c.compileExpr(s.Init)
		} else {
			c.pushUndefined()
		}
		c.cur().SetSlotDirect(c.strLit(s.Name))
		c.cur().Pop()
	case *ReturnStatement:
		if s.Expr != nil {
			c.compileExpr(s.Expr)
		} else {
			c.pushUndefined()
		}
		c.cur().Return()
	case *IfStatement:
		c.compileIfStatement(s)
	case *BlockStatement:
		for _, sub := range s.Statements {
			c.compileStatement(sub)
		}
	}
}

func (c *compiler) compileIfStatement(s *IfStatement) {
	c.compileExpr(s.Cond)
	jmpUnlessAt := c.cur().Here()
	c.cur().JmpUnless(0)
	c.compileStatement(s.Then)
	if s.Alt == nil {
		c.cur().Patch(jmpUnlessAt, c.cur().Here())
		return
	}
	jmpEndAt := c.cur().Here()
	c.cur().Jmp(0)
	c.cur().Patch(jmpUnlessAt, c.cur().Here())
	c.compileStatement(s.Alt)
	c.cur().Patch(jmpEndAt, c.cur().Here())
}

// compileExpr emits instructions that leave exactly one value on the
// current function's stack.
func (c *compiler) compileExpr(expr Expression) {
	switch e := expr.(type) {
	case *NumberLiteral:
		c.cur().PushLiteral(c.numLit(e.Value))
	case *StringLiteral:
		c.cur().PushLiteral(c.strLit(e.Value))
	case *BoolLiteral:
		c.cur().PushLiteral(c.boolLit(e.Value))
	case *NullLiteral:
		c.cur().PushLiteral(c.nullLitIdx())
	case *UndefinedLiteral:
		c.pushUndefined()
	case *Identifier:
		c.cur().PushFrame().GetSlotDirect(c.strLit(e.Name))
	case *ArrayLiteral:
		c.compileArrayLiteral(e)
	case *ObjectLiteral:
		c.compileObjectLiteral(e)
	case *FunctionLiteral:
		c.compileFunctionLiteral(e)
	case *UnaryExpr:
		c.compileExpr(e.Operand)
		switch e.Op {
		case "!":
			c.cur().Not()
		case "-":
			c.cur().Neg()
		case "typeof":
			c.cur().Typeof()
		}
	case *BinaryExpr:
		c.compileBinaryExpr(e)
	case *TernaryExpr:
		c.compileTernaryExpr(e)
	case *AssignExpr:
		c.compileAssignExpr(e)
	case *MemberExpr:
		c.compileExpr(e.Object)
		if e.Computed {
			c.compileExpr(e.Property)
			c.cur().GetSlotIndirect()
		} else {
			c.cur().GetSlotDirect(c.strLit(e.Property.(*StringLiteral).Value))
		}
	case *CallExpr:
		c.compileCallExpr(e)
	}
}

func (c *compiler) compileArrayLiteral(e *ArrayLiteral) {
	c.cur().NewArray()
	for i, elem := range e.Elements {
		c.cur().Dup()
		c.compileExpr(elem)
		c.cur().SetSlotDirect(c.strLit(uintToName(i)))
		c.cur().Pop()
	}
}

func (c *compiler) compileObjectLiteral(e *ObjectLiteral) {
	c.cur().NewObject()
	for _, prop := range e.Properties {
		c.cur().Dup()
		c.compileExpr(prop.Value)
		c.cur().SetSlotDirect(c.strLit(prop.Key))
		c.cur().Pop()
	}
}

func (c *compiler) compileFunctionLiteral(e *FunctionLiteral) {
	name := e.Name
	if name == "" {
		name = "<anonymous>"
	}
	fn := c.b.Func(name, len(e.Params), 32)
	funcID := uint64(fn.ID())

	c.funcStack = append(c.funcStack, fn)
	argumentsLit := c.strLit("arguments")
	for i, param := range e.Params {
		fn.PushFrame()
		fn.PushFrame().GetSlotDirect(argumentsLit).GetSlotDirect(c.strLit(uintToName(i)))
		fn.SetSlotDirect(c.strLit(param))
		fn.Pop()
	}
	for _, stmt := range e.Body.Statements {
		c.compileStatement(stmt)
	}
	c.pushUndefined()
	c.cur().Return()
	c.funcStack = c.funcStack[:len(c.funcStack)-1]

	c.cur().NewFunction(funcID)
}

// compileBinaryExpr maps source operators onto the VM's bi_gt/bi_gte pair:
// there is no bi_lt/bi_lte opcode, so `a < b` compiles as `b > a` with
// operands pushed in reverse, and `!=` as `==` followed by a boolean negation.
func (c *compiler) compileBinaryExpr(e *BinaryExpr) {
	switch e.Op {
	case "+":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Add()
	case "-":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Sub()
	case "*":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Mul()
	case "/":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Div()
	case ">":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Gt()
	case ">=":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Gte()
	case "<":
		c.compileExpr(e.Right)
		c.compileExpr(e.Left)
		c.cur().Gt()
	case "<=":
		c.compileExpr(e.Right)
		c.compileExpr(e.Left)
		c.cur().Gte()
	case "==":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Eq()
	case "!=":
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.cur().Eq()
		c.cur().Not()
	}
}

func (c *compiler) compileTernaryExpr(e *TernaryExpr) {
	c.compileExpr(e.Cond)
	jmpUnlessAt := c.cur().Here()
	c.cur().JmpUnless(0)
	c.compileExpr(e.Then)
	jmpEndAt := c.cur().Here()
	c.cur().Jmp(0)
	c.cur().Patch(jmpUnlessAt, c.cur().Here())
	c.compileExpr(e.Alt)
	c.cur().Patch(jmpEndAt, c.cur().Here())
}

func (c *compiler) compileAssignExpr(e *AssignExpr) {
	switch target := e.Target.(type) {
	case *Identifier:
		c.cur().PushFrame()
		c.compileExpr(e.Value)
		c.cur().SetSlotDirect(c.strLit(target.Name))
	case *MemberExpr:
		c.compileExpr(target.Object)
		if target.Computed {
			c.compileExpr(target.Property)
			c.compileExpr(e.Value)
			c.cur().SetSlotIndirect()
		} else {
			c.compileExpr(e.Value)
			c.cur().SetSlotDirect(c.strLit(target.Property.(*StringLiteral).Value))
		}
	}
}

// compileCallExpr binds `this` to the receiver for a method call
// (`obj.method(...)` / `obj[expr](...)`) and to undefined otherwise, then
// emits [callee, this, args...] the way invoke expects.
func (c *compiler) compileCallExpr(e *CallExpr) {
	if member, ok := e.Callee.(*MemberExpr); ok {
		c.compileExpr(member.Object)
		c.cur().Dup()
		if member.Computed {
			c.compileExpr(member.Property)
			c.cur().GetSlotIndirect()
		} else {
			c.cur().GetSlotDirect(c.strLit(member.Property.(*StringLiteral).Value))
		}
		c.cur().Swap() // stack: [method(callee), receiver(this)]
	} else {
		c.compileExpr(e.Callee)
		c.pushUndefined()
	}
	for _, arg := range e.Args {
		c.compileExpr(arg)
	}
	c.cur().Invoke(uint64(len(e.Args)))
}

func uintToName(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
