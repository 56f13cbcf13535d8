package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/minijs/internal/asm"
	"github.com/kristofer/minijs/internal/value"
)

func TestRunReturnsLiteral(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()
	lit := b.Literal(value.Num(42))
	b.Func("entry", 0, 2).PushLiteral(lit).Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(42), result.NumValue())
}

func TestRunArithmetic(t *testing.T) {
	env, ip := newTestEnv()
	_ = env
	b := asm.New()
	one := b.Literal(value.Num(1))
	two := b.Literal(value.Num(2))
	b.Func("entry", 0, 2).PushLiteral(one).PushLiteral(two).Add().Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.NumValue())
}

// emitGetArg emits push_frame; get_slot_direct "arguments"; get_slot_direct
// idxLit, leaving arguments[idxLit] on the stack — the hand-assembled
// stand-in for reading a named parameter, since no compiler exists here to
// emit that prologue.
func emitGetArg(f *asm.Func, argumentsLit, idxLit uint64) {
	f.PushFrame().GetSlotDirect(argumentsLit).GetSlotDirect(idxLit)
}

func TestRunRecursiveFib(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()

	argumentsLit := b.Literal(value.StrFromGo("arguments"))
	zeroLit := b.Literal(value.StrFromGo("0"))
	undefLit := b.Literal(value.Undefined())
	oneLit := b.Literal(value.Num(1))
	twoLit := b.Literal(value.Num(2))
	tenLit := b.Literal(value.Num(10))

	entry := b.Func("entry", 0, 4) // declared first so it becomes Functions[0], the module entry point
	fibFn := b.Func("fib", 1, 8)
	fibID := uint64(fibFn.ID())

	// if (2 > n) return n;
	fibFn.PushLiteral(twoLit)
	emitGetArg(fibFn, argumentsLit, zeroLit)
	fibFn.Gt()
	jmpUnlessAt := fibFn.Here()
	fibFn.JmpUnless(0) // patched below
	emitGetArg(fibFn, argumentsLit, zeroLit)
	fibFn.Return()
	elseTarget := fibFn.Here()
	fibFn.Patch(jmpUnlessAt, elseTarget)

	// return fib(n-1) + fib(n-2);
	fibFn.NewFunction(fibID).PushLiteral(undefLit)
	emitGetArg(fibFn, argumentsLit, zeroLit)
	fibFn.PushLiteral(oneLit).Sub()
	fibFn.Invoke(1)
	fibFn.NewFunction(fibID).PushLiteral(undefLit)
	emitGetArg(fibFn, argumentsLit, zeroLit)
	fibFn.PushLiteral(twoLit).Sub()
	fibFn.Invoke(1)
	fibFn.Add()
	fibFn.Return()

	entry.NewFunction(fibID).PushLiteral(undefLit).PushLiteral(tenLit).Invoke(1).Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(55), result.NumValue())
}

func TestRunObjectSetGetRoundTrip(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()
	nameLit := b.Literal(value.StrFromGo("name"))
	valLit := b.Literal(value.StrFromGo("alice"))

	entry := b.Func("entry", 0, 4)
	entry.NewObject()
	entry.Dup()
	entry.PushLiteral(valLit)
	entry.SetSlotDirect(nameLit)
	entry.Pop() // discard set_slot's own return value, keep the object dup'd below
	entry.GetSlotDirect(nameLit)
	entry.Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, "alice", result.StrGo())
}

func TestRunArrayLiteralAndIndexAccess(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()
	zeroName := b.Literal(value.StrFromGo("0"))
	tenLit := b.Literal(value.Num(10))

	entry := b.Func("entry", 0, 4)
	entry.NewArray()
	entry.Dup()
	entry.PushLiteral(tenLit)
	entry.SetSlotDirect(zeroName)
	entry.Pop()
	entry.GetSlotDirect(zeroName)
	entry.Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(10), result.NumValue())
}

func TestRunJmpUnlessSkipsOnFalsy(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()
	falseLit := b.Literal(value.Bool(false))
	oneLit := b.Literal(value.Num(1))
	twoLit := b.Literal(value.Num(2))

	entry := b.Func("entry", 0, 4)
	entry.PushLiteral(falseLit)
	jmpAt := entry.Here()
	entry.JmpUnless(0)
	entry.PushLiteral(oneLit)
	entry.Return()
	elseAt := entry.Here()
	entry.Patch(jmpAt, elseAt)
	entry.PushLiteral(twoLit)
	entry.Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(2), result.NumValue())
}

func TestStackOpSemantics(t *testing.T) {
	_, ip := newTestEnv()
	b := asm.New()
	a := b.Literal(value.Num(1))
	bb := b.Literal(value.Num(2))

	entry := b.Func("entry", 0, 8)
	entry.PushLiteral(a).PushLiteral(bb) // ... a b
	entry.TwoDup()                       // ... a b a b
	entry.Pop().Pop()                    // ... a b
	entry.Over()                         // ... a b a
	entry.Pop()                          // ... a b
	entry.Swap()                         // ... b a
	entry.Return()                       // returns a (1)

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	assert.Equal(t, float64(1), result.NumValue())
}

func TestThrownPropagatesThroughInterpretedFrames(t *testing.T) {
	env, ip := newTestEnv()
	env.Globals.Set(env.fd("throwIt"), value.Obj(env.newNativeFunction("throwIt", func(this value.Value, args []value.Value) value.Value {
		return value.Thrown(args[0])
	})))

	b := asm.New()
	undefLit := b.Literal(value.Undefined())
	throwItLit := b.Literal(value.StrFromGo("throwIt"))
	msgLit := b.Literal(value.StrFromGo("boom"))

	entry := b.Func("entry", 0, 4) // declared first so it becomes Functions[0]
	outer := b.Func("outer", 0, 4)
	thrower := b.Func("thrower", 0, 4)

	thrower.PushFrame().GetSlotDirect(throwItLit) // callee: global throwIt, reached via the scope chain
	thrower.PushLiteral(undefLit)                 // this
	thrower.PushLiteral(msgLit)                   // arg0
	thrower.Invoke(1)
	thrower.Return()

	outer.NewFunction(uint64(thrower.ID())).PushLiteral(undefLit).Invoke(0)
	outer.Return()

	entry.NewFunction(uint64(outer.ID())).PushLiteral(undefLit).Invoke(0)
	entry.Return()

	result, err := ip.Run(b.Module())
	require.NoError(t, err)
	require.True(t, result.IsThrown())
	assert.Equal(t, "boom", result.AsThrown().StrGo())
}
