// Package startup builds the runtime's startup Module: a small,
// hand-assembled program round-tripped through the module loader's own
// Encode/Decode, whose entry function returns an exports object exposing
// compile_from_source. A real deployment loads this module from the
// bootstrap compiler's own compiled output; here it is assembled
// in-process so the driver has something to boot from without depending
// on an external build step, per the out-of-scope-bootstrap-compiler
// decision.
package startup

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/kristofer/minijs/internal/asm"
	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/microcompile"
	"github.com/kristofer/minijs/internal/value"
	"github.com/kristofer/minijs/internal/vm"
)

const bootstrapCompileName = "__bootstrap_compile_from_source"

// Build registers the host-side compile_from_source native on ip.Env's
// globals, hand-assembles the startup module, round-trips it through
// bytecode.EncodeGzip/Decode, runs its entry function, and returns the
// exports object it produced.
func Build(ip *vm.Interp) (*value.Object, error) {
	env := ip.Env
	env.Globals.Set(env.FD(bootstrapCompileName), value.Native(compileFromSource))

	mod, err := assembleModule(env)
	if err != nil {
		return nil, errors.Wrap(err, "startup: assemble module")
	}

	var buf bytes.Buffer
	if err := bytecode.EncodeGzip(mod, &buf); err != nil {
		return nil, errors.Wrap(err, "startup: encode module")
	}
	decoded, err := bytecode.Decode(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "startup: decode module")
	}

	result, err := ip.Run(decoded)
	if err != nil {
		return nil, errors.Wrap(err, "startup: run entry")
	}
	if result.IsThrown() {
		return nil, errors.Errorf("startup: entry threw %v", result.AsThrown())
	}
	if !result.IsObject() {
		return nil, errors.New("startup: entry did not return an exports object")
	}
	return result.AsObject(), nil
}

// assembleModule hand-assembles: exports = {}; exports.compile_from_source =
// <the native registered on Globals>; return exports. The native itself
// can't live in the literal pool (only plain-data literals round-trip
// through the loader), so the entry function fetches it off the scope
// chain the same way compiled guest code reaches Math or parseInt.
func assembleModule(env *vm.Environment) (*bytecode.Module, error) {
	b := asm.New()
	nativeNameLit := b.Literal(value.StrFromGo(bootstrapCompileName))
	exportNameLit := b.Literal(value.StrFromGo("compile_from_source"))

	entry := b.Func("startup", 0, 4)
	entry.NewObject()
	entry.Dup()
	entry.PushFrame().GetSlotDirect(nativeNameLit)
	entry.SetSlotDirect(exportNameLit)
	entry.Pop()
	entry.Return()

	return b.Module(), nil
}

// compileFromSource is the host-side stand-in for "the bootstrap
// compiler's output, already loaded": it compiles source through
// microcompile, round-trips the result through the loader too (so every
// dynamic compile — not just the one at startup — exercises Encode/Decode),
// and hands back a bare FunctionCode value wrapping the decoded module's
// entry function. The driver runs that function directly against its
// persistent top-level frame; guest code that calls compile_from_source
// itself would need to wrap the result in a function object first, which
// this core's subset of syntax never does.
func compileFromSource(this value.Value, args []value.Value) value.Value {
	if len(args) == 0 || !args[0].IsString() {
		return value.Thrown(value.StrFromGo("compile_from_source: expected a source string"))
	}
	mod, err := microcompile.Compile(args[0].StrGo())
	if err != nil {
		return value.Thrown(value.StrFromGo(err.Error()))
	}

	var buf bytes.Buffer
	if err := bytecode.EncodeGzip(mod, &buf); err != nil {
		return value.Thrown(value.StrFromGo(err.Error()))
	}
	decoded, err := bytecode.Decode(&buf)
	if err != nil {
		return value.Thrown(value.StrFromGo(err.Error()))
	}

	return value.Func(value.FunctionCode{Module: decoded, FuncID: decoded.Entry().ID})
}
