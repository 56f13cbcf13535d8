package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kristofer/minijs/internal/value"
)

// installBuiltins wires every native the core ships with onto the
// primordial prototypes and the Globals frame. Nothing here is
// self-hosted: a real bootstrap would define most of Array.prototype and
// Function.prototype in guest bytecode once a compiler exists, but this
// core's compiler is out of scope, so the natives below stand in for it.
func (env *Environment) installBuiltins() {
	env.installObjectBuiltins()
	env.installArrayBuiltins()
	env.installFunctionBuiltins()
	env.installBooleanBuiltins()
	env.installNumberBuiltins()
	env.installStringBuiltins()
	env.installMathBuiltins()
	env.installConsole()
	env.installGlobalFunctions()
}

func (env *Environment) setNative(o *value.Object, name string, fn value.NativeFunc) {
	o.Set(env.fd(name), value.Obj(env.newNativeFunction(name, fn)))
}

func (env *Environment) setApplyNative(o *value.Object, name string, fn value.NativeFunc) {
	o.Set(env.fd(name), value.Obj(env.newApplyFunction(name, fn)))
}

// --- Object ---------------------------------------------------------------

func (env *Environment) installObjectBuiltins() {
	env.setNative(env.ObjectProto, "toString", func(this value.Value, args []value.Value) value.Value {
		return value.StrFromGo("[object Object]")
	})
	env.setNative(env.ObjectProto, "valueOf", func(this value.Value, args []value.Value) value.Value {
		return this
	})
	env.setNative(env.ObjectProto, "hasOwnProperty", func(this value.Value, args []value.Value) value.Value {
		if !this.IsObject() || len(args) == 0 {
			return value.Bool(false)
		}
		name := env.ToString(args[0])
		return value.Bool(this.AsObject().ContainsSimple(env.fd(name)))
	})
	env.ObjectProto.Set(env.descDefaultValue, value.Obj(env.newNativeFunction("DefaultValue", env.defaultValueImpl)))

	// The "Object" global is a plain namespace object, not a constructor —
	// guest code reaches Object.create/Try/Throw off it.
	objectNamespace := env.newPlainObject()
	env.setNative(objectNamespace, "create", func(this value.Value, args []value.Value) value.Value {
		if len(args) == 0 || !args[0].IsObject() {
			return value.Obj(value.New(env.RootMap))
		}
		return value.Obj(value.Create(env.RootMap, args[0].AsObject()))
	})
	env.setNative(objectNamespace, "Throw", func(this value.Value, args []value.Value) value.Value {
		var v value.Value = value.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		return value.Thrown(v)
	})
	env.setNative(objectNamespace, "Try", env.objectTryImpl)
	env.Globals.Set(env.fd("Object"), value.Obj(objectNamespace))
}

// defaultValueImpl is the native backing Object.prototype's hidden
// DefaultValue field: it tries valueOf then toString (or the reverse, for
// hint "String"), accepting the first primitive result.
func (env *Environment) defaultValueImpl(this value.Value, args []value.Value) value.Value {
	hint := "Number"
	if len(args) > 0 && args[0].IsString() {
		hint = args[0].StrGo()
	}
	if !this.IsObject() {
		return this
	}
	o := this.AsObject()
	order := [2]string{"valueOf", "toString"}
	if hint == "String" {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		fnVal := o.Get(env.fd(name))
		if !env.isCallable(fnVal) {
			continue
		}
		result := env.interp.CallValue(fnVal, this, nil)
		if result.IsThrown() {
			return result
		}
		if !result.IsObject() {
			return result
		}
	}
	return env.throwTypeError("cannot convert object to a primitive value")
}

// objectTryImpl implements the guest's exception primitive: Object.Try(this,
// body, catch, finally). body runs; if it throws and catch is callable,
// catch(v) runs for its side effects and the Try's result becomes
// Undefined — catch's own return value is discarded. If body throws with no
// catch, the Thrown keeps propagating. finally is accepted (so existing
// call sites compile) but never invoked — finally blocks are parsed, not
// executed, in this core.
func (env *Environment) objectTryImpl(this value.Value, args []value.Value) value.Value {
	var body, catchFn value.Value = value.Undefined(), value.Undefined()
	if len(args) > 0 {
		body = args[0]
	}
	if len(args) > 1 {
		catchFn = args[1]
	}

	result := value.Value{}
	if env.isCallable(body) {
		result = env.interp.CallValue(body, this, nil)
	}
	if result.IsThrown() && env.isCallable(catchFn) {
		caught := env.interp.CallValue(catchFn, this, []value.Value{result.AsThrown()})
		if caught.IsThrown() {
			return caught
		}
		result = value.Undefined()
	}
	return result
}

// --- Array -----------------------------------------------------------------

func (env *Environment) installArrayBuiltins() {
	env.setNative(env.ArrayProto, "toString", func(this value.Value, args []value.Value) value.Value {
		if this.IsObject() {
			joinVal := this.AsObject().Get(env.fd("join"))
			if env.isCallable(joinVal) {
				return env.interp.CallValue(joinVal, this, nil)
			}
		}
		return value.StrFromGo("[object Array]")
	})
	env.setNative(env.ArrayProto, "join", func(this value.Value, args []value.Value) value.Value {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = env.ToString(args[0])
		}
		if !this.IsObject() {
			return value.StrFromGo("")
		}
		o := this.AsObject()
		n := env.arrayLength(o)
		parts := make([]string, 0, n)
		for i := uint64(0); i < n; i++ {
			el := o.Get(env.fd(uintToName(i)))
			if el.IsUndefined() || el.IsNull() {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, env.ToString(el))
		}
		return value.StrFromGo(strings.Join(parts, sep))
	})
	env.setNative(env.ArrayProto, "push", func(this value.Value, args []value.Value) value.Value {
		if !this.IsObject() {
			return value.Num(0)
		}
		o := this.AsObject()
		n := env.arrayLength(o)
		for _, a := range args {
			o.Set(env.fd(uintToName(n)), a)
			n++
		}
		o.Set(env.descLength, value.Num(float64(n)))
		return value.Num(float64(n))
	})
}

// --- Function ---------------------------------------------------------------

func (env *Environment) installFunctionBuiltins() {
	env.setApplyNative(env.FunctionProto, "call", func(this value.Value, args []value.Value) value.Value {
		newThis := value.Undefined()
		if len(args) > 0 {
			newThis = args[0]
		}
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		items := append([]value.Value{this, newThis}, rest...)
		return value.Obj(env.newArray(items))
	})
	env.setApplyNative(env.FunctionProto, "apply", func(this value.Value, args []value.Value) value.Value {
		newThis := value.Undefined()
		if len(args) > 0 {
			newThis = args[0]
		}
		var spread []value.Value
		if len(args) > 1 && args[1].IsObject() {
			arr := args[1].AsObject()
			n := env.arrayLength(arr)
			for i := uint64(0); i < n; i++ {
				spread = append(spread, arr.Get(env.fd(uintToName(i))))
			}
		}
		items := append([]value.Value{this, newThis}, spread...)
		return value.Obj(env.newArray(items))
	})
}

// --- Boolean -----------------------------------------------------------------

func (env *Environment) installBooleanBuiltins() {
	env.setNative(env.BooleanProto, "valueOf", func(this value.Value, args []value.Value) value.Value {
		return this
	})
	env.setNative(env.BooleanProto, "toString", func(this value.Value, args []value.Value) value.Value {
		return value.StrFromGo(env.ToString(this))
	})
	booleanCtor := env.newNativeFunction("Boolean", func(this value.Value, args []value.Value) value.Value {
		var a value.Value = value.Undefined()
		if len(args) > 0 {
			a = args[0]
		}
		return value.Bool(env.ToBoolean(a))
	})
	env.Globals.Set(env.fd("Boolean"), value.Obj(booleanCtor))
}

// --- Number ------------------------------------------------------------------

func (env *Environment) installNumberBuiltins() {
	env.setNative(env.NumberProto, "valueOf", func(this value.Value, args []value.Value) value.Value {
		return this
	})
	env.setNative(env.NumberProto, "toString", func(this value.Value, args []value.Value) value.Value {
		f := env.ToNumber(this)
		if math.IsNaN(f) {
			return value.StrFromGo("NaN")
		}
		if math.IsInf(f, 1) {
			return value.StrFromGo("Infinity")
		}
		if math.IsInf(f, -1) {
			return value.StrFromGo("-Infinity")
		}
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			radix = int(env.ToNumber(args[0]))
		}
		if radix == 10 {
			return value.StrFromGo(formatNumber(f))
		}
		if radix < 2 || radix > 36 {
			return env.throwRangeError("toString radix must be between 2 and 36")
		}
		return value.StrFromGo(strconv.FormatInt(int64(math.Trunc(f)), radix))
	})
}

// --- String ------------------------------------------------------------------

func (env *Environment) installStringBuiltins() {
	env.setNative(env.StringProto, "valueOf", func(this value.Value, args []value.Value) value.Value {
		return this
	})
	env.setNative(env.StringProto, "toString", func(this value.Value, args []value.Value) value.Value {
		return this
	})
	env.setNative(env.StringProto, "charAt", func(this value.Value, args []value.Value) value.Value {
		idx := 0
		if len(args) > 0 {
			idx = int(math.Trunc(env.ToNumber(args[0])))
		}
		if !this.IsString() {
			return value.StrFromGo("")
		}
		units := this.StrUnits()
		if idx < 0 || idx >= len(units) {
			return value.StrFromGo("")
		}
		return value.Str([]uint16{units[idx]})
	})
	env.setNative(env.StringProto, "charCodeAt", func(this value.Value, args []value.Value) value.Value {
		idx := 0
		if len(args) > 0 {
			idx = int(math.Trunc(env.ToNumber(args[0])))
		}
		if !this.IsString() {
			return value.Num(math.NaN())
		}
		units := this.StrUnits()
		if idx < 0 || idx >= len(units) {
			return value.Num(math.NaN())
		}
		return value.Num(float64(units[idx]))
	})
}

// --- Math --------------------------------------------------------------------

func (env *Environment) installMathBuiltins() {
	env.setNative(env.MathObj, "floor", func(this value.Value, args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Num(math.NaN())
		}
		n := env.ToNumber(args[0])
		if math.IsNaN(n) {
			return value.Num(math.NaN())
		}
		return value.Num(math.Floor(n))
	})
	env.Globals.Set(env.fd("Math"), value.Obj(env.MathObj))
}

// --- console -----------------------------------------------------------------

func (env *Environment) installConsole() {
	console := env.newPlainObject()
	logFn := func(this value.Value, args []value.Value) value.Value {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = env.ToString(a)
		}
		fmt.Println(strings.Join(parts, " "))
		return value.Undefined()
	}
	env.setNative(console, "log", logFn)
	env.setNative(console, "error", logFn)
	env.Console = console
	env.Globals.Set(env.fd("console"), value.Obj(console))
}

// --- globals -----------------------------------------------------------------

func (env *Environment) installGlobalFunctions() {
	env.Globals.Set(env.fd("isNaN"), value.Obj(env.newNativeFunction("isNaN", func(this value.Value, args []value.Value) value.Value {
		var a value.Value = value.Undefined()
		if len(args) > 0 {
			a = args[0]
		}
		return value.Bool(math.IsNaN(env.ToNumber(a)))
	})))
	env.Globals.Set(env.fd("isFinite"), value.Obj(env.newNativeFunction("isFinite", func(this value.Value, args []value.Value) value.Value {
		var a value.Value = value.Undefined()
		if len(args) > 0 {
			a = args[0]
		}
		n := env.ToNumber(a)
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0))
	})))
	env.Globals.Set(env.fd("parseInt"), value.Obj(env.newNativeFunction("parseInt", env.parseIntImpl)))
}

func digitVal(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'z':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// parseIntImpl follows the guest's documented parseInt quirks: a radix of 0
// or one that coerces to NaN/Infinity (ToInt32 collapses both to 0) means
// "unspecified" (auto-detect a 0x/0X prefix, else base 10); any other
// out-of-[2,36] radix is an immediate NaN regardless of the digits found.
func (env *Environment) parseIntImpl(this value.Value, args []value.Value) value.Value {
	var strArg value.Value = value.Undefined()
	if len(args) > 0 {
		strArg = args[0]
	}
	s := trimSpaceASCII(env.ToString(strArg))

	sign := 1.0
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	radix := 0
	if len(args) > 1 {
		radix = int(toInt32(env.ToNumber(args[1])))
	}

	switch {
	case radix == 16:
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
		}
	case radix == 0:
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			radix = 16
			s = s[2:]
		} else {
			radix = 10
		}
	}
	if radix < 2 || radix > 36 {
		return value.Num(math.NaN())
	}

	i := 0
	for i < len(s) {
		d := digitVal(s[i])
		if d < 0 || d >= radix {
			break
		}
		i++
	}
	if i == 0 {
		return value.Num(math.NaN())
	}
	n, err := strconv.ParseInt(s[:i], radix, 64)
	if err != nil {
		return value.Num(math.NaN())
	}
	return value.Num(sign * float64(n))
}
