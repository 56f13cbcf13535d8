package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/minijs/internal/value"
)

func newTestEnv() (*Environment, *Interp) {
	env := New()
	ip := NewInterp(env)
	return env, ip
}

func TestToBoolean(t *testing.T) {
	env, _ := newTestEnv()
	assert.False(t, env.ToBoolean(value.Undefined()))
	assert.False(t, env.ToBoolean(value.Null()))
	assert.False(t, env.ToBoolean(value.Bool(false)))
	assert.False(t, env.ToBoolean(value.Num(0)))
	assert.False(t, env.ToBoolean(value.Num(math.NaN())))
	assert.False(t, env.ToBoolean(value.StrFromGo("")))
	assert.True(t, env.ToBoolean(value.Num(-1)))
	assert.True(t, env.ToBoolean(value.StrFromGo("0")))
	assert.True(t, env.ToBoolean(value.Obj(env.newPlainObject())))
}

func TestToNumberObjectReducesViaDefaultValue(t *testing.T) {
	env, _ := newTestEnv()
	arr := env.newArray([]value.Value{value.Num(1), value.Num(2)})
	// Object.prototype.valueOf returns `this` (rejected), so it falls
	// through to Array.prototype.toString -> join -> "1,2", which fails
	// ParseFloat and degrades to NaN — matching Math.floor([1,2]).
	assert.True(t, math.IsNaN(env.ToNumber(value.Obj(arr))))
}

func TestToStringPrimitives(t *testing.T) {
	env, _ := newTestEnv()
	assert.Equal(t, "undefined", env.ToString(value.Undefined()))
	assert.Equal(t, "null", env.ToString(value.Null()))
	assert.Equal(t, "true", env.ToString(value.Bool(true)))
	assert.Equal(t, "NaN", env.ToString(value.Num(math.NaN())))
	assert.Equal(t, "Infinity", env.ToString(value.Num(math.Inf(1))))
	assert.Equal(t, "42", env.ToString(value.Num(42)))
}

func TestTypeOf(t *testing.T) {
	env, _ := newTestEnv()
	assert.Equal(t, "undefined", env.TypeOf(value.Undefined()).StrGo())
	assert.Equal(t, "object", env.TypeOf(value.Null()).StrGo())
	assert.Equal(t, "number", env.TypeOf(value.Num(1)).StrGo())
	assert.Equal(t, "boolean", env.TypeOf(value.Bool(true)).StrGo())
	assert.Equal(t, "object", env.TypeOf(value.Obj(env.newPlainObject())).StrGo())
	assert.Equal(t, "object", env.TypeOf(value.Obj(env.newArray(nil))).StrGo())
	assert.Equal(t, "function", env.TypeOf(value.Obj(env.newNativeFunction("f", nil))).StrGo())
}

func TestCompareGtStrings(t *testing.T) {
	env, _ := newTestEnv()
	assert.True(t, env.compareGt(value.StrFromGo("b"), value.StrFromGo("a"), false).BoolValue())
	assert.False(t, env.compareGt(value.StrFromGo("a"), value.StrFromGo("a"), false).BoolValue())
	assert.True(t, env.compareGt(value.StrFromGo("a"), value.StrFromGo("a"), true).BoolValue())
}

func TestCompareGtNaNIsAlwaysFalse(t *testing.T) {
	env, _ := newTestEnv()
	nan := value.Num(math.NaN())
	assert.False(t, env.compareGt(nan, value.Num(1), false).BoolValue())
	assert.False(t, env.compareGt(value.Num(1), nan, true).BoolValue())
}

func TestAddStringConcatenation(t *testing.T) {
	env, _ := newTestEnv()
	r := env.add(value.StrFromGo("a"), value.Num(1))
	assert.Equal(t, "a1", r.StrGo())
}

func TestAddNumeric(t *testing.T) {
	env, _ := newTestEnv()
	r := env.add(value.Num(1), value.Num(2))
	assert.Equal(t, float64(3), r.NumValue())
}

func TestToInt32Collapses(t *testing.T) {
	assert.Equal(t, int32(0), toInt32(math.NaN()))
	assert.Equal(t, int32(0), toInt32(math.Inf(1)))
	assert.Equal(t, int32(-10), toInt32(-10))
}
