// Package value implements the tagged value union and the prototype-based
// object representation: hidden-class maps (ObjectMap), field descriptors,
// and Object itself.
//
// Values are small, immutable, copyable structs. Objects are mutable
// reference types (always handled through *Object) so that aliasing and
// prototype sharing behave the way JS-style objects are expected to.
package value

import "unicode/utf16"

// Kind tags the variant a Value currently holds.
type Kind byte

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
	// KindFunctionCode and KindNativeFunction are runtime-only: guest code
	// sees them inside the hidden "value" field of a function-shaped
	// Object. Host code can still move a bare one around (the startup
	// module reads a native off Globals and stores it on its exports).
	KindFunctionCode
	KindNativeFunction
	// KindThrown is runtime-only: the propagation carrier for a user
	// exception, produced by Object.Throw and consumed by Object.Try.
	KindThrown
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindFunctionCode:
		return "function-code"
	case KindNativeFunction:
		return "native-function"
	case KindThrown:
		return "thrown"
	default:
		return "unknown"
	}
}

// FunctionCode pairs a compiled function with the module that owns it.
// Module is opaque here (concretely a *bytecode.Module) so that this leaf
// package never needs to import the module/loader package.
type FunctionCode struct {
	Module any
	FuncID int
}

// NativeFunc is the signature every native (host-implemented) function
// must satisfy: given a receiver and argument vector, produce a Value.
// Errors are not a separate return — a native that wants to raise a user
// exception returns a KindThrown Value built with Thrown.
type NativeFunc func(this Value, args []Value) Value

// Value is the tagged union of every JS-visible and runtime-internal value
// this core manipulates.
type Value struct {
	kind    Kind
	num     float64
	boolean bool
	str     []uint16
	obj     *Object
	code    FunctionCode
	native  NativeFunc
	thrown  *Value
}

// Undefined returns the Undefined value.
func Undefined() Value { return Value{kind: KindUndefined} }

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// Num wraps a float64, including NaN and +/-Inf.
func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

// Str wraps a UTF-16 code-unit sequence directly.
func Str(units []uint16) Value { return Value{kind: KindString, str: units} }

// StrFromGo encodes a Go string (UTF-8) into a String value.
func StrFromGo(s string) Value { return Str(utf16.Encode([]rune(s))) }

// Obj wraps an Object reference. A nil *Object is never valid; callers
// must use Null() for the absence of an object.
func Obj(o *Object) Value {
	if o == nil {
		panic("value: Obj called with nil Object")
	}
	return Value{kind: KindObject, obj: o}
}

// Func wraps a FunctionCode.
func Func(code FunctionCode) Value { return Value{kind: KindFunctionCode, code: code} }

// Native wraps a NativeFunc.
func Native(fn NativeFunc) Value { return Value{kind: KindNativeFunction, native: fn} }

// Thrown wraps v as a propagating exception carrier.
func Thrown(v Value) Value {
	boxed := v
	return Value{kind: KindThrown, thrown: &boxed}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBoolean() bool   { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsObject() bool    { return v.kind == KindObject }
func (v Value) IsFunctionCode() bool    { return v.kind == KindFunctionCode }
func (v Value) IsNativeFunction() bool  { return v.kind == KindNativeFunction }
func (v Value) IsThrown() bool          { return v.kind == KindThrown }

// BoolValue panics unless v.IsBoolean(); callers are expected to check Kind
// (or use ToBoolean for coercion) first.
func (v Value) BoolValue() bool { v.mustBe(KindBoolean); return v.boolean }

// NumValue panics unless v.IsNumber().
func (v Value) NumValue() float64 { v.mustBe(KindNumber); return v.num }

// StrUnits panics unless v.IsString().
func (v Value) StrUnits() []uint16 { v.mustBe(KindString); return v.str }

// StrGo decodes v's UTF-16 units into a Go string; panics unless v.IsString().
func (v Value) StrGo() string { return string(utf16.Decode(v.StrUnits())) }

// AsObject panics unless v.IsObject().
func (v Value) AsObject() *Object { v.mustBe(KindObject); return v.obj }

// AsFunctionCode panics unless v.IsFunctionCode().
func (v Value) AsFunctionCode() FunctionCode { v.mustBe(KindFunctionCode); return v.code }

// AsNative panics unless v.IsNativeFunction().
func (v Value) AsNative() NativeFunc { v.mustBe(KindNativeFunction); return v.native }

// AsThrown panics unless v.IsThrown(); returns the boxed payload.
func (v Value) AsThrown() Value { v.mustBe(KindThrown); return *v.thrown }

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic("value: expected " + k.String() + ", got " + v.kind.String())
	}
}

// StrictEquals implements the bi_eq opcode's structural, non-coercing
// equality: numbers/strings/booleans compare by value, Null equals Null,
// Undefined equals Undefined, Objects compare by identity, and any
// cross-tag comparison is false.
func (v Value) StrictEquals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return v.boolean == other.boolean
	case KindNumber:
		return v.num == other.num
	case KindString:
		return string(utf16.Decode(v.str)) == string(utf16.Decode(other.str))
	case KindObject:
		return v.obj == other.obj
	default:
		// FunctionCode/NativeFunction/Thrown never reach bi_eq in practice;
		// report them unequal rather than panicking.
		return false
	}
}
