package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/minijs/internal/value"
)

func TestParseIntScenarios(t *testing.T) {
	env, _ := newTestEnv()

	r := env.parseIntImpl(value.Undefined(), []value.Value{value.StrFromGo("10"), value.Num(16)})
	assert.Equal(t, float64(16), r.NumValue())

	r = env.parseIntImpl(value.Undefined(), []value.Value{value.StrFromGo("10"), value.Num(-10)})
	assert.True(t, math.IsNaN(r.NumValue()))

	r = env.parseIntImpl(value.Undefined(), []value.Value{value.StrFromGo("10"), value.StrFromGo("a")})
	assert.Equal(t, float64(10), r.NumValue())

	r = env.parseIntImpl(value.Undefined(), []value.Value{value.StrFromGo("10"), value.Num(math.Inf(1))})
	assert.Equal(t, float64(10), r.NumValue())
}

func TestArrayJoinAndToString(t *testing.T) {
	env, _ := newTestEnv()
	a := env.newArray([]value.Value{value.Num(1), value.Num(2), value.Num(3)})

	toStr := a.Get(env.fd("toString"))
	require.True(t, env.isCallable(toStr))
	assert.Equal(t, "1,2,3", env.interp.CallValue(toStr, value.Obj(a), nil).StrGo())

	joinFn := a.Get(env.fd("join"))
	assert.Equal(t, "1:2:3", env.interp.CallValue(joinFn, value.Obj(a), []value.Value{value.StrFromGo(":")}).StrGo())
	assert.Equal(t, "14243", env.interp.CallValue(joinFn, value.Obj(a), []value.Value{value.Num(4)}).StrGo())
}

func TestArrayPushGrowsLength(t *testing.T) {
	env, _ := newTestEnv()
	a := env.newArray([]value.Value{value.Num(1)})
	pushFn := a.Get(env.fd("push"))
	result := env.interp.CallValue(pushFn, value.Obj(a), []value.Value{value.Num(2), value.Num(3)})
	assert.Equal(t, float64(3), result.NumValue())
	assert.Equal(t, float64(3), a.Get(env.descLength).NumValue())
	assert.Equal(t, float64(3), a.Get(env.fd("2")).NumValue())
}

func TestObjectTryCatchesAndReplacesWithUndefined(t *testing.T) {
	env, _ := newTestEnv()
	thrown := value.StrFromGo("boom")
	body := env.newNativeFunction("body", func(this value.Value, args []value.Value) value.Value {
		return value.Thrown(thrown)
	})
	var caughtWith value.Value
	catch := env.newNativeFunction("catch", func(this value.Value, args []value.Value) value.Value {
		caughtWith = args[0]
		return value.StrFromGo("ignored return value")
	})

	result := env.objectTryImpl(value.Undefined(), []value.Value{value.Obj(body), value.Obj(catch)})
	assert.True(t, result.IsUndefined())
	assert.Equal(t, "boom", caughtWith.StrGo())
}

func TestObjectTryFinallyAcceptedButNotInvoked(t *testing.T) {
	env, _ := newTestEnv()
	invoked := false
	finally := env.newNativeFunction("finally", func(this value.Value, args []value.Value) value.Value {
		invoked = true
		return value.Undefined()
	})
	body := env.newNativeFunction("body", func(this value.Value, args []value.Value) value.Value {
		return value.Num(1)
	})
	result := env.objectTryImpl(value.Undefined(), []value.Value{value.Obj(body), value.Undefined(), value.Obj(finally)})
	assert.Equal(t, float64(1), result.NumValue())
	assert.False(t, invoked)
}

func TestObjectTryPropagatesWithoutCatch(t *testing.T) {
	env, _ := newTestEnv()
	body := env.newNativeFunction("body", func(this value.Value, args []value.Value) value.Value {
		return value.Thrown(value.StrFromGo("uncaught"))
	})
	result := env.objectTryImpl(value.Undefined(), []value.Value{value.Obj(body)})
	require.True(t, result.IsThrown())
	assert.Equal(t, "uncaught", result.AsThrown().StrGo())
}

func TestDefaultValueUsesValueOfThenToString(t *testing.T) {
	env, _ := newTestEnv()
	o := env.newPlainObject()
	o.Set(env.fd("valueOf"), value.Obj(env.newNativeFunction("valueOf", func(this value.Value, args []value.Value) value.Value {
		return value.Num(7)
	})))
	p := env.ToPrimitive(value.Obj(o), "Number")
	assert.Equal(t, float64(7), p.NumValue())
}

func TestFunctionCallRewritesReceiverAndArgs(t *testing.T) {
	env, _ := newTestEnv()
	var gotThis value.Value
	var gotArgs []value.Value
	fn := env.newNativeFunction("f", func(this value.Value, args []value.Value) value.Value {
		gotThis = this
		gotArgs = args
		return value.Undefined()
	})
	callFn := env.FunctionProto.Get(env.fd("call"))
	receiver := value.StrFromGo("receiver")
	env.interp.CallValue(callFn, value.Obj(fn), []value.Value{receiver, value.Num(1), value.Num(2)})
	assert.Equal(t, "receiver", gotThis.StrGo())
	require.Len(t, gotArgs, 2)
	assert.Equal(t, float64(1), gotArgs[0].NumValue())
}

func TestBooleanCallableAndValueOf(t *testing.T) {
	env, _ := newTestEnv()
	booleanCtor := env.Globals.Get(env.fd("Boolean"))
	require.True(t, env.isCallable(booleanCtor))
	assert.False(t, env.interp.CallValue(booleanCtor, value.Undefined(), []value.Value{value.StrFromGo("")}).BoolValue())
	assert.True(t, env.interp.CallValue(booleanCtor, value.Undefined(), []value.Value{value.StrFromGo("abc")}).BoolValue())

	valueOf := env.BooleanProto.Get(env.fd("valueOf"))
	require.True(t, env.isCallable(valueOf))
	assert.True(t, env.interp.CallValue(valueOf, value.Bool(true), nil).BoolValue())
	assert.False(t, env.interp.CallValue(valueOf, value.Bool(false), nil).BoolValue())
}

func TestNumberToStringSpecials(t *testing.T) {
	env, _ := newTestEnv()
	toStr := env.NumberProto.Get(env.fd("toString"))
	assert.Equal(t, "Infinity", env.interp.CallValue(toStr, value.Num(math.Inf(1)), []value.Value{value.Num(16)}).StrGo())
	assert.Equal(t, "NaN", env.interp.CallValue(toStr, value.Num(math.NaN()), []value.Value{value.Num(16)}).StrGo())
}

func TestStringCharAt(t *testing.T) {
	env, _ := newTestEnv()
	charAt := env.StringProto.Get(env.fd("charAt"))
	assert.Equal(t, "", env.interp.CallValue(charAt, value.StrFromGo("abc"), []value.Value{value.Num(4)}).StrGo())
	assert.Equal(t, "b", env.interp.CallValue(charAt, value.StrFromGo("abc"), []value.Value{value.Num(1.2)}).StrGo())
}

func TestMathFloor(t *testing.T) {
	env, _ := newTestEnv()
	floor := env.MathObj.Get(env.fd("floor"))
	assert.Equal(t, float64(-2), env.interp.CallValue(floor, value.Undefined(), []value.Value{value.Num(-1.1)}).NumValue())
	arr := env.newArray([]value.Value{value.Num(1), value.Num(2)})
	assert.True(t, math.IsNaN(env.interp.CallValue(floor, value.Undefined(), []value.Value{value.Obj(arr)}).NumValue()))
}
