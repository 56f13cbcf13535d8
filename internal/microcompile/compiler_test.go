package microcompile_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/minijs/internal/microcompile"
	"github.com/kristofer/minijs/internal/value"
	"github.com/kristofer/minijs/internal/vm"
)

func runTop(t *testing.T, ip *vm.Interp, top *value.Object, source string) value.Value {
	t.Helper()
	mod, err := microcompile.Compile(source)
	require.NoError(t, err)
	result, err := ip.RunInFrame(mod, top)
	require.NoError(t, err)
	return result
}

func TestCompileArithmeticExpressionStatement(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	result := runTop(t, ip, top, "1 + 2;")
	assert.Equal(t, float64(3), result.NumValue())
}

func TestCompileVarPersistsAcrossModules(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	r1 := runTop(t, ip, top, "var x = 4 * 10 + 2;")
	assert.True(t, r1.IsUndefined())

	r2 := runTop(t, ip, top, "x;")
	assert.Equal(t, float64(42), r2.NumValue())
}

func TestCompileRecursiveFibClosureEndToEnd(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	r1 := runTop(t, ip, top, "var fib = function(n) { return (n < 2) ? 1 : fib(n-1) + fib(n-2); };")
	assert.True(t, r1.IsUndefined())

	r2 := runTop(t, ip, top, "fib(10);")
	assert.Equal(t, float64(89), r2.NumValue())
}

func TestCompileStringComparison(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	result := runTop(t, ip, top, "'2' > '10';")
	assert.True(t, result.BoolValue())
}

func TestCompileObjectLiteralIdentityAndReassignment(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	runTop(t, ip, top, `
		var x = {};
		var y = {f: x};
		var z = {f: x};
	`)
	r1 := runTop(t, ip, top, "y.f === z.f;")
	assert.True(t, r1.BoolValue())

	runTop(t, ip, top, "z.f = {};")
	r2 := runTop(t, ip, top, "y.f === z.f;")
	assert.False(t, r2.BoolValue())
}

func TestCompileArrayLiteralAndMethods(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	runTop(t, ip, top, "var a = [1, 2, 3];")
	r1 := runTop(t, ip, top, "a.toString();")
	assert.Equal(t, "1,2,3", r1.StrGo())

	r2 := runTop(t, ip, top, "a.join(':');")
	assert.Equal(t, "1:2:3", r2.StrGo())
}

func TestCompileIfElseAndUnary(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	runTop(t, ip, top, `
		var x = 0;
		if (!false) { x = 10; } else { x = 20; }
	`)
	r := runTop(t, ip, top, "x;")
	assert.Equal(t, float64(10), r.NumValue())
}

func TestCompileTypeofAndMathFloor(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	r := runTop(t, ip, top, "typeof Math.floor(-1.1);")
	assert.Equal(t, "number", r.StrGo())
}

func TestCompileParseError(t *testing.T) {
	_, err := microcompile.Compile("var = ;")
	require.Error(t, err)
}

func TestCompileNaNAndInfinityArithmetic(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	top := value.Create(env.RootMap, env.Globals)

	r := runTop(t, ip, top, "1 / 0;")
	assert.True(t, math.IsInf(r.NumValue(), 1))

	r = runTop(t, ip, top, "0 / 0;")
	assert.True(t, math.IsNaN(r.NumValue()))
}
