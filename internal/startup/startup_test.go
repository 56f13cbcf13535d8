package startup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/startup"
	"github.com/kristofer/minijs/internal/value"
	"github.com/kristofer/minijs/internal/vm"
)

func TestBuildExposesCompileFromSource(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)

	exports, err := startup.Build(ip)
	require.NoError(t, err)

	fn := exports.Get(env.FD("compile_from_source"))
	require.True(t, fn.IsNativeFunction())

	result := fn.AsNative()(value.Undefined(), []value.Value{value.StrFromGo("1 + 2;")})
	require.True(t, result.IsFunctionCode())

	code := result.AsFunctionCode()
	mod, ok := code.Module.(*bytecode.Module)
	require.True(t, ok)

	top := value.Create(env.RootMap, env.Globals)
	out, err := ip.RunInFrame(mod, top)
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.NumValue())
}

func TestBuildRejectsNonStringSource(t *testing.T) {
	env := vm.New()
	ip := vm.NewInterp(env)
	exports, err := startup.Build(ip)
	require.NoError(t, err)

	fn := exports.Get(env.FD("compile_from_source"))
	result := fn.AsNative()(value.Undefined(), []value.Value{value.Num(1)})
	assert.True(t, result.IsThrown())
}
