package vm

import (
	"github.com/pkg/errors"

	"github.com/kristofer/minijs/internal/value"
)

// fatalf builds a host-level, non-recoverable error: a malformed bytecode
// stream, an out-of-range operand, a stack underflow. These abort the whole
// Run rather than becoming a guest-visible exception, because by the time
// one fires the interpreter's own invariants have already been violated.
// CallValue, which can only return a Value, hands them back through
// wrapFatal instead.
func fatalf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// makeErrorValue builds a plain object shaped like an error: a name and a
// message field, both ordinary (non-hidden) so guest code can read them the
// way it reads any other property.
func (env *Environment) makeErrorValue(kind, msg string) value.Value {
	o := env.newPlainObject()
	o.Set(env.fd("name"), value.StrFromGo(kind))
	o.Set(env.descMessage, value.StrFromGo(msg))
	return value.Obj(o)
}

// throwTypeError/throwRangeError wrap makeErrorValue in the Thrown carrier,
// for natives and the interpreter's own coercion paths to return directly.
func (env *Environment) throwTypeError(msg string) value.Value {
	return value.Thrown(env.makeErrorValue("TypeError", msg))
}

func (env *Environment) throwRangeError(msg string) value.Value {
	return value.Thrown(env.makeErrorValue("RangeError", msg))
}

// wrapFatal turns a host-level error into a guest-visible Thrown Error
// object, for the rare cases (native re-entering the interpreter via
// CallValue) where a fatal error would otherwise vanish from a function
// that can only return a value.Value.
func (env *Environment) wrapFatal(err error) value.Value {
	return value.Thrown(env.makeErrorValue("Error", err.Error()))
}
