// Package asm assembles bytecode.Module values through a fluent builder. It
// is the code-emission backend of internal/microcompile, assembles the
// startup module in internal/startup, and lets tests drive the interpreter
// directly rather than through source text.
package asm

import (
	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/value"
)

// Builder accumulates a module's functions plus a module-wide literal pool
// shared across every function added to it.
type Builder struct {
	functions []bytecode.Function
	literals  []value.Value
}

// New returns an empty Builder.
func New() *Builder { return &Builder{} }

// Literal appends v to the module's literal pool, returning its index.
// Equal literals are not deduplicated — callers that want sharing should
// reuse the returned index themselves.
func (b *Builder) Literal(v value.Value) uint64 {
	b.literals = append(b.literals, v)
	return uint64(len(b.literals) - 1)
}

// Func starts a new function; the returned *Func accumulates its bytecode.
// The first Func added to a Builder becomes the module's entry point.
func (b *Builder) Func(name string, nargs, maxStack int) *Func {
	id := len(b.functions)
	b.functions = append(b.functions, bytecode.Function{Name: name, ID: id, NArgs: nargs, MaxStack: maxStack})
	return &Func{b: b, id: id}
}

// Module finalizes the accumulated functions and literals.
func (b *Builder) Module() *bytecode.Module {
	return &bytecode.Module{Functions: b.functions, Literals: b.literals}
}

// Func accumulates one function's bytecode word stream.
type Func struct {
	b  *Builder
	id int
}

// ID returns the function's index, for new_function/FunctionCode references
// emitted by a different Func in the same Builder.
func (f *Func) ID() int { return f.id }

func (f *Func) emit(words ...uint64) *Func {
	fn := &f.b.functions[f.id]
	fn.Bytecode = append(fn.Bytecode, words...)
	return f
}

func (f *Func) Op(op bytecode.Opcode) *Func              { return f.emit(uint64(op)) }
func (f *Func) OpArg(op bytecode.Opcode, arg uint64) *Func { return f.emit(uint64(op), arg) }

func (f *Func) PushFrame() *Func  { return f.Op(bytecode.OpPushFrame) }
func (f *Func) PushLiteral(idx uint64) *Func { return f.OpArg(bytecode.OpPushLiteral, idx) }
func (f *Func) NewObject() *Func  { return f.Op(bytecode.OpNewObject) }
func (f *Func) NewArray() *Func   { return f.Op(bytecode.OpNewArray) }
func (f *Func) NewFunction(funcID uint64) *Func { return f.OpArg(bytecode.OpNewFunction, funcID) }
func (f *Func) GetSlotDirect(litIdx uint64) *Func { return f.OpArg(bytecode.OpGetSlotDirect, litIdx) }
func (f *Func) GetSlotDirectCheck(litIdx uint64) *Func {
	return f.OpArg(bytecode.OpGetSlotDirectCheck, litIdx)
}
func (f *Func) GetSlotIndirect() *Func { return f.Op(bytecode.OpGetSlotIndirect) }
func (f *Func) SetSlotDirect(litIdx uint64) *Func { return f.OpArg(bytecode.OpSetSlotDirect, litIdx) }
func (f *Func) SetSlotIndirect() *Func { return f.Op(bytecode.OpSetSlotIndirect) }
func (f *Func) Invoke(nargs uint64) *Func { return f.OpArg(bytecode.OpInvoke, nargs) }
func (f *Func) Return() *Func { return f.Op(bytecode.OpReturn) }
func (f *Func) Jmp(target uint64) *Func { return f.OpArg(bytecode.OpJmp, target) }
func (f *Func) JmpUnless(target uint64) *Func { return f.OpArg(bytecode.OpJmpUnless, target) }
func (f *Func) Pop() *Func    { return f.Op(bytecode.OpPop) }
func (f *Func) Dup() *Func    { return f.Op(bytecode.OpDup) }
func (f *Func) TwoDup() *Func { return f.Op(bytecode.OpTwoDup) }
func (f *Func) Over() *Func   { return f.Op(bytecode.OpOver) }
func (f *Func) Over2() *Func  { return f.Op(bytecode.OpOver2) }
func (f *Func) Swap() *Func   { return f.Op(bytecode.OpSwap) }
func (f *Func) Not() *Func    { return f.Op(bytecode.OpUnNot) }
func (f *Func) Neg() *Func    { return f.Op(bytecode.OpUnMinus) }
func (f *Func) Typeof() *Func { return f.Op(bytecode.OpUnTypeof) }
func (f *Func) Eq() *Func     { return f.Op(bytecode.OpBiEq) }
func (f *Func) Gt() *Func     { return f.Op(bytecode.OpBiGt) }
func (f *Func) Gte() *Func    { return f.Op(bytecode.OpBiGte) }
func (f *Func) Add() *Func    { return f.Op(bytecode.OpBiAdd) }
func (f *Func) Sub() *Func    { return f.Op(bytecode.OpBiSub) }
func (f *Func) Mul() *Func    { return f.Op(bytecode.OpBiMul) }
func (f *Func) Div() *Func    { return f.Op(bytecode.OpBiDiv) }

// Here returns the current instruction offset, for backpatching forward
// jumps: record it before emitting a placeholder Jmp/JmpUnless, then
// overwrite the operand once the target is known via Patch.
func (f *Func) Here() uint64 { return uint64(len(f.b.functions[f.id].Bytecode)) }

// Patch overwrites the operand word of the jump instruction that starts at
// word offset at (i.e. the offset Here() returned right before emitting it)
// with target.
func (f *Func) Patch(at, target uint64) {
	f.b.functions[f.id].Bytecode[at+1] = target
}
