package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/minijs/internal/driver"
)

func TestEvalPersistsVarsAcrossCalls(t *testing.T) {
	d, err := driver.New()
	require.NoError(t, err)

	r1, err := d.Eval("var x = 4 * 10 + 2;")
	require.NoError(t, err)
	assert.True(t, r1.IsUndefined())

	r2, err := d.Eval("x;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), r2.NumValue())
}

func TestEvalRecursiveFib(t *testing.T) {
	d, err := driver.New()
	require.NoError(t, err)

	_, err = d.Eval("var fib = function(n) { return (n < 2) ? 1 : fib(n-1) + fib(n-2); };")
	require.NoError(t, err)

	r, err := d.Eval("fib(10);")
	require.NoError(t, err)
	assert.Equal(t, float64(89), r.NumValue())
}

func TestEvalSurfacesGuestThrowAsValueNotError(t *testing.T) {
	d, err := driver.New()
	require.NoError(t, err)

	r, err := d.Eval("Object.Throw('boom');")
	require.NoError(t, err)
	assert.True(t, r.IsThrown())
}

func TestEvalSurfacesCompileErrorAsThrownValue(t *testing.T) {
	d, err := driver.New()
	require.NoError(t, err)

	r, err := d.Eval("var = ;")
	require.NoError(t, err)
	assert.True(t, r.IsThrown())
}
