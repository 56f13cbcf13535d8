// Package vm implements the stack-based interpreter together with the
// environment it runs against: the primordial prototypes, coercion rules,
// and native built-ins that give bytecode something to call into.
//
// The two halves live in one package, mirroring how the interpreter's
// dispatch loop and its built-ins are inseparable: a native can re-enter
// the interpreter (DefaultValue calling toString/valueOf, Object.Try
// running a block, Array.prototype.toString delegating to join), and the
// interpreter's invoke opcode needs to know the calling convention the
// environment's natives were built with.
package vm

import (
	"github.com/rs/zerolog"

	"github.com/kristofer/minijs/internal/intern"
	"github.com/kristofer/minijs/internal/value"
)

// Environment is a process-wide (or per-test) singleton bundling the root
// ObjectMap, the primordial prototypes, the canonical boolean singletons,
// and cached FieldDesc constants for hot internal names. It is not
// re-entrant: a single Environment must not be driven by two goroutines.
type Environment struct {
	Interner *intern.Interner
	RootMap  *value.ObjectMap
	Log      zerolog.Logger

	ObjectProto   *value.Object
	ArrayProto    *value.Object
	FunctionProto *value.Object
	StringProto   *value.Object
	NumberProto   *value.Object
	BooleanProto  *value.Object
	MathObj       *value.Object

	// TrueObj/FalseObj absorb any property write made against a Boolean
	// primitive value — the documented, non-standard quirk that set_slot
	// on a boolean mutates one process-wide bag per truth value instead
	// of being a no-op like Number/String.
	TrueObj  *value.Object
	FalseObj *value.Object

	Console *value.Object // holds console.log / console.error
	Globals *value.Object // the persistent top-level frame

	// interp is the back-reference to the interpreter driving this
	// Environment, wired by NewInterp. Built-ins that need to re-enter
	// the interpreter (Object.Try, DefaultValue, Array.prototype.join
	// delegation) go through it.
	interp *Interp

	descType         value.FieldDesc
	descValue        value.FieldDesc
	descParentFrame  value.FieldDesc
	descIsApply      value.FieldDesc
	descDefaultValue value.FieldDesc
	descLength       value.FieldDesc
	descName         value.FieldDesc
	descThis         value.FieldDesc
	descArguments    value.FieldDesc
	descMessage      value.FieldDesc
}

func hidden(in *intern.Interner, name string) value.FieldDesc {
	return value.FieldDesc{Name: in.Intern(name), Hidden: true}
}

func plain(in *intern.Interner, name string) value.FieldDesc {
	return value.FieldDesc{Name: in.Intern(name), Hidden: false}
}

// New builds a fresh Environment: a fresh Interner and ObjectMap root, the
// primordial prototype chain (every plain object ultimately reaches
// ObjectProto), and all core built-ins installed.
func New() *Environment {
	in := intern.New()
	root := value.NewRootMap()

	env := &Environment{
		Interner: in,
		RootMap:  root,
		Log:      zerolog.Nop(),

		descType:         hidden(in, "type"),
		descValue:        hidden(in, "value"),
		descParentFrame:  hidden(in, "parent_frame"),
		descIsApply:      hidden(in, "is_apply"),
		descDefaultValue: hidden(in, "DefaultValue"),
		descLength:       plain(in, "length"),
		descName:         plain(in, "name"),
		descThis:         plain(in, "this"),
		descArguments:    plain(in, "arguments"),
		descMessage:      plain(in, "message"),
	}

	env.ObjectProto = value.New(root)
	env.ArrayProto = value.Create(root, env.ObjectProto)
	env.FunctionProto = value.Create(root, env.ObjectProto)
	env.StringProto = value.Create(root, env.ObjectProto)
	env.NumberProto = value.Create(root, env.ObjectProto)
	env.BooleanProto = value.Create(root, env.ObjectProto)
	env.MathObj = value.Create(root, env.ObjectProto)

	env.ObjectProto.Set(env.descType, value.StrFromGo("object"))
	env.ArrayProto.Set(env.descType, value.StrFromGo("array"))
	env.FunctionProto.Set(env.descType, value.StrFromGo("function"))
	env.StringProto.Set(env.descType, value.StrFromGo("string"))
	env.NumberProto.Set(env.descType, value.StrFromGo("number"))
	env.BooleanProto.Set(env.descType, value.StrFromGo("boolean"))

	env.TrueObj = value.Create(root, env.BooleanProto)
	env.FalseObj = value.Create(root, env.BooleanProto)

	env.Globals = value.New(root) // prototype-less: top-level frames have __proto__ = Null

	env.installBuiltins()
	return env
}

// fd interns name as a plain (non-hidden) FieldDesc. Most user-visible
// property names go through this.
func (env *Environment) fd(name string) value.FieldDesc {
	return plain(env.Interner, name)
}

// FD is fd exported for packages outside vm (startup, driver) that need to
// address a global binding by name without duplicating the interning rule.
func (env *Environment) FD(name string) value.FieldDesc {
	return env.fd(name)
}

func (env *Environment) fdHidden(name string) value.FieldDesc {
	return hidden(env.Interner, name)
}

// newPlainObject allocates an object whose prototype is ObjectProto.
func (env *Environment) newPlainObject() *value.Object {
	return value.Create(env.RootMap, env.ObjectProto)
}

// newArray allocates an array-shaped object (type inherited from
// ArrayProto) pre-populated with elems.
func (env *Environment) newArray(elems []value.Value) *value.Object {
	o := value.Create(env.RootMap, env.ArrayProto)
	for i, v := range elems {
		o.Set(env.fd(uintToName(uint64(i))), v)
	}
	o.Set(env.descLength, value.Num(float64(len(elems))))
	return o
}

// newNativeFunction builds a function-shaped object wrapping fn.
func (env *Environment) newNativeFunction(name string, fn value.NativeFunc) *value.Object {
	o := value.Create(env.RootMap, env.FunctionProto)
	o.Set(env.descValue, value.Native(fn))
	o.Set(env.descName, value.StrFromGo(name))
	return o
}

// newApplyFunction builds a function-shaped object for an apply-like
// native: one whose return value is an Array-shaped re-invocation request
// rather than a normal result.
func (env *Environment) newApplyFunction(name string, fn value.NativeFunc) *value.Object {
	o := env.newNativeFunction(name, fn)
	o.Set(env.descIsApply, value.Bool(true))
	return o
}

func uintToName(n uint64) string {
	// Small, fixed alphabet of decimal digits — array indices never need
	// more than this.
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
