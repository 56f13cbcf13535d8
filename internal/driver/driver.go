// Package driver bootstraps an Environment and a startup Module, then runs
// successive inputs against one persistent top-level frame so that
// `var x = …` in one input stays visible to the next — the behavior a REPL
// depends on.
package driver

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/startup"
	"github.com/kristofer/minijs/internal/value"
	"github.com/kristofer/minijs/internal/vm"
)

// Driver owns one Environment/Interp pair, the startup module's exports,
// and the persistent top-level frame every Eval call runs against.
type Driver struct {
	Env      *vm.Environment
	Interp   *vm.Interp
	exports  *value.Object
	topFrame *value.Object
}

// New builds a Driver with a no-op logger — suitable for tests and for
// embedding where the caller doesn't want runtime diagnostics on stderr.
func New() (*Driver, error) {
	return NewWithLogger(zerolog.Nop())
}

// NewWithLogger builds a Driver whose Environment logs module-load timing
// and missing-library-method warnings through logger.
func NewWithLogger(logger zerolog.Logger) (*Driver, error) {
	env := vm.New()
	env.Log = logger
	ip := vm.NewInterp(env)

	start := time.Now()
	exports, err := startup.Build(ip)
	if err != nil {
		return nil, errors.Wrap(err, "driver: bootstrap startup module")
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("startup module loaded")

	return &Driver{
		Env:      env,
		Interp:   ip,
		exports:  exports,
		topFrame: value.Create(env.RootMap, env.Globals),
	}, nil
}

// Eval compiles source through the startup module's compile_from_source and
// runs the result in the persistent top-level frame. A guest-level compile
// or runtime error comes back as a Thrown value (err is nil); a zero Value
// with a non-nil err means the host itself failed (bad module, I/O, etc).
func (d *Driver) Eval(source string) (value.Value, error) {
	compileFn := d.exports.Get(d.Env.FD("compile_from_source"))
	if !compileFn.IsNativeFunction() {
		return value.Value{}, errors.New("driver: compile_from_source is missing from startup exports")
	}

	result := compileFn.AsNative()(value.Undefined(), []value.Value{value.StrFromGo(source)})
	if result.IsThrown() {
		return result, nil
	}
	if !result.IsFunctionCode() {
		return value.Value{}, errors.New("driver: compile_from_source did not return compiled code")
	}

	code := result.AsFunctionCode()
	mod, ok := code.Module.(*bytecode.Module)
	if !ok || mod == nil {
		return value.Value{}, errors.New("driver: compiled module has an unexpected type")
	}

	out, err := d.Interp.RunInFrame(mod, d.topFrame)
	if err != nil {
		return value.Value{}, errors.Wrap(err, "driver: run")
	}
	return out, nil
}

// EvalFile reads path and evaluates its contents as one input.
func (d *Driver) EvalFile(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, errors.Wrapf(err, "driver: read %s", path)
	}
	return d.Eval(string(data))
}
