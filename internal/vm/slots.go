package vm

import (
	"math"

	"github.com/kristofer/minijs/internal/value"
)

func (env *Environment) boolSingleton(b bool) *value.Object {
	if b {
		return env.TrueObj
	}
	return env.FalseObj
}

func (env *Environment) isArrayObject(o *value.Object) bool {
	t, ok := o.GetSimple(env.descType)
	if !ok {
		t = o.Get(env.descType)
	}
	return t.IsString() && t.StrGo() == "array"
}

// GetSlot implements get_slot_direct(_check)/get_slot_indirect against any
// Value, not just objects: strings index their UTF-16 units and expose
// length, numbers and booleans fall through to their prototype, and
// dereferencing undefined/null is a TypeError.
func (env *Environment) GetSlot(target value.Value, desc value.FieldDesc) value.Value {
	switch target.Kind() {
	case value.KindObject:
		return target.AsObject().Get(desc)
	case value.KindString:
		if desc == value.ProtoDesc {
			return value.Obj(env.StringProto)
		}
		if desc == env.descLength {
			return value.Num(float64(len(target.StrUnits())))
		}
		if !desc.Hidden {
			if n, ok := env.Interner.ToUint(desc.Name); ok {
				units := target.StrUnits()
				if n < uint64(len(units)) {
					return value.Str([]uint16{units[n]})
				}
				return value.Undefined()
			}
		}
		return env.StringProto.Get(desc)
	case value.KindNumber:
		if desc == value.ProtoDesc {
			return value.Obj(env.NumberProto)
		}
		return env.NumberProto.Get(desc)
	case value.KindBoolean:
		if desc == value.ProtoDesc {
			return value.Obj(env.BooleanProto)
		}
		return env.boolSingleton(target.BoolValue()).Get(desc)
	case value.KindUndefined:
		return env.throwTypeError("cannot read properties of undefined")
	case value.KindNull:
		return env.throwTypeError("cannot read properties of null")
	default:
		return env.throwTypeError("cannot read properties of a non-value")
	}
}

// SetSlot implements set_slot_direct/set_slot_indirect. Writes to Number
// and String silently drop the write, the documented quirk for immutable
// primitives; writes to undefined and null raise a TypeError like GetSlot.
// Writes to
// an array's own "length" field truncate or extend it; writes to a numeric
// index grow length as needed.
func (env *Environment) SetSlot(target value.Value, desc value.FieldDesc, val value.Value) value.Value {
	switch target.Kind() {
	case value.KindObject:
		o := target.AsObject()
		if env.isArrayObject(o) {
			if desc == env.descLength {
				return env.setArrayLength(o, val)
			}
			if !desc.Hidden {
				if n, ok := env.Interner.ToUint(desc.Name); ok {
					return env.setArrayIndex(o, n, desc, val)
				}
			}
		}
		o.Set(desc, val)
		return val
	case value.KindBoolean:
		env.boolSingleton(target.BoolValue()).Set(desc, val)
		return val
	case value.KindNumber, value.KindString:
		return val
	case value.KindUndefined:
		return env.throwTypeError("cannot set properties of undefined")
	case value.KindNull:
		return env.throwTypeError("cannot set properties of null")
	default:
		return env.throwTypeError("cannot set properties of a non-value")
	}
}

func (env *Environment) arrayLength(o *value.Object) uint64 {
	lv := o.Get(env.descLength)
	if lv.IsNumber() {
		return uint64(lv.NumValue())
	}
	return 0
}

func (env *Environment) setArrayLength(o *value.Object, newVal value.Value) value.Value {
	n := env.ToNumber(newVal)
	if math.IsNaN(n) || n < 0 {
		return env.throwRangeError("invalid array length")
	}
	newLen := uint64(n)
	oldLen := env.arrayLength(o)
	// Shrinking does not prune the now out-of-range element fields from the
	// object's map: their slots are overwritten with undefined and the
	// length changes, per the documented truncation behavior.
	for i := newLen; i < oldLen; i++ {
		idxDesc := env.fd(uintToName(i))
		if o.ContainsSimple(idxDesc) {
			o.Set(idxDesc, value.Undefined())
		}
	}
	o.Set(env.descLength, value.Num(float64(newLen)))
	return value.Num(float64(newLen))
}

func (env *Environment) setArrayIndex(o *value.Object, n uint64, desc value.FieldDesc, val value.Value) value.Value {
	if n >= env.arrayLength(o) {
		o.Set(env.descLength, value.Num(float64(n+1)))
	}
	o.Set(desc, val)
	return val
}

func (env *Environment) isCallable(v value.Value) bool {
	if !v.IsObject() {
		return false
	}
	fv, ok := v.AsObject().GetSimple(env.descValue)
	if !ok {
		return false
	}
	return fv.IsNativeFunction() || fv.IsFunctionCode()
}
