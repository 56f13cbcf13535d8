package vm

import (
	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/value"
)

// Interp drives the bytecode dispatch loop against an Environment. One
// Interp is built per Environment via NewInterp and the two stay paired for
// their whole lifetime: natives reach back into the Interp (via
// Environment.interp) whenever they need to re-enter the interpreter.
type Interp struct {
	Env *Environment
}

// NewInterp wires a fresh Interp to env and records the back-reference so
// env's natives can call back into it.
func NewInterp(env *Environment) *Interp {
	ip := &Interp{Env: env}
	env.interp = ip
	return ip
}

// Run executes module's entry function against a freshly built activation
// whose __proto__ is the Environment's Globals frame, and returns whatever
// value the entry function returns (or the Thrown value it propagated).
// Each call gets its own activation — for a Driver's persistent top-level
// frame (where `var x = …` in one module must be visible to the next), use
// RunInFrame instead.
func (ip *Interp) Run(module *bytecode.Module) (value.Value, error) {
	return ip.RunInFrame(module, value.Create(ip.Env.RootMap, ip.Env.Globals))
}

// RunInFrame executes module's entry function with topFrame as its
// activation instead of a fresh one, so that repeated calls sharing the
// same topFrame accumulate top-level variable bindings across modules —
// the persistent top-level frame the Driver runs successive compiled
// modules against.
func (ip *Interp) RunInFrame(module *bytecode.Module, topFrame *value.Object) (value.Value, error) {
	entry := module.Entry()
	topFrame.Set(ip.Env.descThis, value.Undefined())
	topFrame.Set(ip.Env.descArguments, value.Obj(ip.Env.newArray(nil)))
	root := newFrame(nil, topFrame, module, entry)
	return ip.runChain(root)
}

// CallValue is the "interpret a function value" entry point natives use to
// call back into guest code: Object.Try running its block, DefaultValue
// invoking toString/valueOf, Array.prototype.toString delegating to join.
// An interpreted callee here always starts a fresh chain and recurses into
// runChain on the host stack — the cost the design accepts in exchange for
// interpreted-to-interpreted calls (the overwhelmingly common case, driven
// through the main dispatch loop's OpInvoke instead) never growing it.
func (ip *Interp) CallValue(callee, this value.Value, args []value.Value) value.Value {
	result, child, err := ip.dispatchInvoke(nil, callee, this, args)
	if err != nil {
		return ip.Env.wrapFatal(err)
	}
	if child == nil {
		return result
	}
	out, err := ip.runChain(child)
	if err != nil {
		return ip.Env.wrapFatal(err)
	}
	return out
}

// dispatchInvoke resolves one call. It returns exactly one of: a
// synchronous result (native call, already is_apply-rewritten if
// applicable), a child Frame to push onto the chain (interpreted call —
// child.parent is cur, so passing cur=nil yields a new chain root), or a
// fatal error.
func (ip *Interp) dispatchInvoke(cur *Frame, callee, this value.Value, args []value.Value) (value.Value, *Frame, error) {
	if !callee.IsObject() {
		return value.Value{}, nil, fatalf("invoke: callee is not an object")
	}
	o := callee.AsObject()
	fnField, ok := o.GetSimple(ip.Env.descValue)
	if !ok {
		return value.Value{}, nil, fatalf("invoke: callee object has no callable value")
	}
	switch fnField.Kind() {
	case value.KindNativeFunction:
		result := fnField.AsNative()(this, args)
		isApply, _ := o.GetSimple(ip.Env.descIsApply)
		if isApply.IsBoolean() && isApply.BoolValue() && !result.IsThrown() {
			newCallee, newThis, newArgs := unpackApplyRewrite(ip.Env, result)
			if newCallee.IsThrown() {
				return newCallee, nil, nil
			}
			return ip.dispatchInvoke(cur, newCallee, newThis, newArgs)
		}
		return result, nil, nil
	case value.KindFunctionCode:
		code := fnField.AsFunctionCode()
		mod, ok := code.Module.(*bytecode.Module)
		if !ok || mod == nil {
			return value.Value{}, nil, fatalf("invoke: function code has no module")
		}
		fn := mod.Function(code.FuncID)
		if fn == nil {
			return value.Value{}, nil, fatalf("invoke: invalid function id %d", code.FuncID)
		}
		parentVal, _ := o.GetSimple(ip.Env.descParentFrame)
		parent := ip.Env.Globals
		if parentVal.IsObject() {
			parent = parentVal.AsObject()
		}
		activation := value.Create(ip.Env.RootMap, parent)
		activation.Set(ip.Env.descThis, this)
		activation.Set(ip.Env.descArguments, value.Obj(ip.Env.newArray(args)))
		return value.Value{}, newFrame(cur, activation, mod, fn), nil
	default:
		return value.Value{}, nil, fatalf("invoke: callee value is neither native nor function code")
	}
}

// unpackApplyRewrite reads an apply-like native's [callee, this, ...args]
// result array. A malformed shape becomes a TypeError rather than a fatal
// error — it is guest-observable native misuse, not an interpreter bug.
func unpackApplyRewrite(env *Environment, result value.Value) (value.Value, value.Value, []value.Value) {
	if !result.IsObject() {
		return env.throwTypeError("apply-like native must return an array"), value.Value{}, nil
	}
	arr := result.AsObject()
	n := env.arrayLength(arr)
	if n < 2 {
		return env.throwTypeError("apply-like rewrite requires [callee, this, ...args]"), value.Value{}, nil
	}
	callee := arr.Get(env.fd(uintToName(0)))
	this := arr.Get(env.fd(uintToName(1)))
	args := make([]value.Value, 0, n-2)
	for i := uint64(2); i < n; i++ {
		args = append(args, arr.Get(env.fd(uintToName(i))))
	}
	return callee, this, args
}

// doReturn delivers retVal to cur's caller. A Thrown value skips straight
// past any number of intervening frames — the "cleaner redesign" from the
// design notes: every frame uniformly re-throws on the way out, so no
// explicit handler-search sentinel is needed in the chain itself. The Try
// boundary falls out naturally wherever CallValue started a fresh chain.
func (ip *Interp) doReturn(cur *Frame, retVal value.Value) (*Frame, *value.Value) {
	if cur.parent == nil {
		v := retVal
		return nil, &v
	}
	if !retVal.IsThrown() {
		cur.parent.push(retVal)
	}
	if retVal.IsThrown() {
		return ip.doReturn(cur.parent, retVal)
	}
	return cur.parent, nil
}

// finish routes a synchronous opcode result (from get_slot/set_slot/invoke)
// either onto cur's own stack or, if it is a Thrown, straight out through
// doReturn.
func (ip *Interp) finish(cur *Frame, result value.Value) (*Frame, *value.Value) {
	if result.IsThrown() {
		return ip.doReturn(cur, result)
	}
	cur.push(result)
	return cur, nil
}

// runChain is the dispatch loop. It owns one call chain: cur walks forward
// on invoke (pushing a new Frame) and backward on return (via doReturn),
// terminating when doReturn reaches the chain's root frame.
func (ip *Interp) runChain(root *Frame) (value.Value, error) {
	cur := root
	for {
		if cur.pc < 0 || cur.pc >= len(cur.fn.Bytecode) {
			return value.Value{}, fatalf("pc %d out of range in %s (len=%d)", cur.pc, cur.fn.Name, len(cur.fn.Bytecode))
		}
		word := cur.fn.Bytecode[cur.pc]
		op := bytecode.Opcode(word)
		if !op.Valid() {
			return value.Value{}, fatalf("invalid opcode %d at pc=%d in %s", word, cur.pc, cur.fn.Name)
		}
		cur.pc++

		var arg uint64
		if op.HasArg() {
			if cur.pc >= len(cur.fn.Bytecode) {
				return value.Value{}, fatalf("missing operand for %s in %s", op, cur.fn.Name)
			}
			arg = cur.fn.Bytecode[cur.pc]
			cur.pc++
		}

		var err error
		switch op {
		case bytecode.OpPushFrame:
			cur.push(value.Obj(cur.activation))

		case bytecode.OpPushLiteral:
			if int(arg) >= len(cur.module.Literals) {
				return value.Value{}, fatalf("literal index %d out of range in %s", arg, cur.fn.Name)
			}
			cur.push(cur.module.Literals[arg])

		case bytecode.OpNewObject:
			cur.push(value.Obj(ip.Env.newPlainObject()))

		case bytecode.OpNewArray:
			cur.push(value.Obj(ip.Env.newArray(nil)))

		case bytecode.OpNewFunction:
			fnDef := cur.module.Function(int(arg))
			if fnDef == nil {
				return value.Value{}, fatalf("new_function: invalid function id %d", arg)
			}
			fo := value.Create(ip.Env.RootMap, ip.Env.FunctionProto)
			fo.Set(ip.Env.descValue, value.Func(value.FunctionCode{Module: cur.module, FuncID: int(arg)}))
			fo.Set(ip.Env.descParentFrame, value.Obj(cur.activation))
			fo.Set(ip.Env.descName, value.StrFromGo(fnDef.Name))
			fo.Set(ip.Env.descLength, value.Num(float64(fnDef.NArgs)))
			cur.push(value.Obj(fo))

		case bytecode.OpGetSlotDirect, bytecode.OpGetSlotDirectCheck:
			var obj value.Value
			obj, err = cur.pop()
			if err != nil {
				break
			}
			if int(arg) >= len(cur.module.Literals) {
				return value.Value{}, fatalf("literal index %d out of range in %s", arg, cur.fn.Name)
			}
			key := cur.module.Literals[arg]
			if !key.IsString() {
				return value.Value{}, fatalf("get_slot_direct: literal %d is not a string", arg)
			}
			desc := ip.Env.fd(key.StrGo())
			result := ip.Env.GetSlot(obj, desc)
			if op == bytecode.OpGetSlotDirectCheck && !result.IsThrown() && result.IsUndefined() {
				ip.Env.Log.Warn().Str("method", key.StrGo()).Msg("missing library method")
			}
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpGetSlotIndirect:
			var key, obj value.Value
			key, err = cur.pop()
			if err == nil {
				obj, err = cur.pop()
			}
			if err != nil {
				break
			}
			if !key.IsString() {
				return value.Value{}, fatalf("get_slot_indirect: key is not a string")
			}
			desc := ip.Env.fd(key.StrGo())
			result := ip.Env.GetSlot(obj, desc)
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpSetSlotDirect:
			var val, obj value.Value
			val, err = cur.pop()
			if err == nil {
				obj, err = cur.pop()
			}
			if err != nil {
				break
			}
			if int(arg) >= len(cur.module.Literals) {
				return value.Value{}, fatalf("literal index %d out of range in %s", arg, cur.fn.Name)
			}
			key := cur.module.Literals[arg]
			if !key.IsString() {
				return value.Value{}, fatalf("set_slot_direct: literal %d is not a string", arg)
			}
			desc := ip.Env.fd(key.StrGo())
			result := ip.Env.SetSlot(obj, desc, val)
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpSetSlotIndirect:
			var val, key, obj value.Value
			val, err = cur.pop()
			if err == nil {
				key, err = cur.pop()
			}
			if err == nil {
				obj, err = cur.pop()
			}
			if err != nil {
				break
			}
			if !key.IsString() {
				return value.Value{}, fatalf("set_slot_indirect: key is not a string")
			}
			desc := ip.Env.fd(key.StrGo())
			result := ip.Env.SetSlot(obj, desc, val)
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpInvoke:
			n := int(arg)
			args := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i], err = cur.pop()
				if err != nil {
					break
				}
			}
			if err != nil {
				break
			}
			var this, callee value.Value
			this, err = cur.pop()
			if err == nil {
				callee, err = cur.pop()
			}
			if err != nil {
				break
			}
			var result value.Value
			var child *Frame
			result, child, err = ip.dispatchInvoke(cur, callee, this, args)
			if err != nil {
				break
			}
			if child != nil {
				cur = child
				continue
			}
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpReturn:
			var retVal value.Value
			retVal, err = cur.pop()
			if err != nil {
				break
			}
			var final *value.Value
			cur, final = ip.doReturn(cur, retVal)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpJmp:
			cur.pc = int(arg)

		case bytecode.OpJmpUnless:
			var cond value.Value
			cond, err = cur.pop()
			if err != nil {
				break
			}
			if !ip.Env.ToBoolean(cond) {
				cur.pc = int(arg)
			}

		case bytecode.OpPop:
			_, err = cur.pop()

		case bytecode.OpDup:
			var v value.Value
			v, err = cur.top()
			if err == nil {
				cur.push(v)
			}

		case bytecode.OpTwoDup:
			var a, b value.Value
			a, err = cur.peekFromTop(1)
			if err == nil {
				b, err = cur.peekFromTop(0)
			}
			if err == nil {
				cur.push(a)
				cur.push(b)
			}

		case bytecode.OpOver:
			var a value.Value
			a, err = cur.peekFromTop(1)
			if err == nil {
				cur.push(a)
			}

		case bytecode.OpOver2:
			var a value.Value
			a, err = cur.peekFromTop(2)
			if err == nil {
				cur.push(a)
			}

		case bytecode.OpSwap:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(b)
				cur.push(a)
			}

		case bytecode.OpUnNot:
			var v value.Value
			v, err = cur.pop()
			if err == nil {
				cur.push(value.Bool(!ip.Env.ToBoolean(v)))
			}

		case bytecode.OpUnMinus:
			var v value.Value
			v, err = cur.pop()
			if err == nil {
				cur.push(value.Num(-ip.Env.ToNumber(v)))
			}

		case bytecode.OpUnTypeof:
			var v value.Value
			v, err = cur.pop()
			if err == nil {
				cur.push(ip.Env.TypeOf(v))
			}

		case bytecode.OpBiEq:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(value.Bool(a.StrictEquals(b)))
			}

		case bytecode.OpBiGt, bytecode.OpBiGte:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(ip.Env.compareGt(a, b, op == bytecode.OpBiGte))
			}

		case bytecode.OpBiAdd:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err != nil {
				break
			}
			result := ip.Env.add(a, b)
			var final *value.Value
			cur, final = ip.finish(cur, result)
			if final != nil {
				return *final, nil
			}

		case bytecode.OpBiSub:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(value.Num(ip.Env.ToNumber(a) - ip.Env.ToNumber(b)))
			}

		case bytecode.OpBiMul:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(value.Num(ip.Env.ToNumber(a) * ip.Env.ToNumber(b)))
			}

		case bytecode.OpBiDiv:
			var a, b value.Value
			b, err = cur.pop()
			if err == nil {
				a, err = cur.pop()
			}
			if err == nil {
				cur.push(value.Num(ip.Env.ToNumber(a) / ip.Env.ToNumber(b)))
			}
		}

		if err != nil {
			return value.Value{}, err
		}
	}
}
