// Package bytecode defines the module binary format, the Function/Module
// types bytecode describes, and the opcode table the interpreter and any
// compiler (host-side or otherwise) must agree on.
package bytecode

// Opcode is the numeric operation code the interpreter dispatches on. The
// numbering here is part of the on-disk contract: it must match whatever
// produced the bytecode stream a Module was decoded from.
type Opcode uint

const (
	OpPushFrame Opcode = iota
	OpPushLiteral
	OpNewObject
	OpNewArray
	OpNewFunction
	OpGetSlotDirect
	OpGetSlotDirectCheck
	OpGetSlotIndirect
	OpSetSlotDirect
	OpSetSlotIndirect
	OpInvoke
	OpReturn
	OpJmp
	OpJmpUnless
	OpPop
	OpDup
	OpTwoDup
	OpOver
	OpOver2
	OpSwap
	OpUnNot
	OpUnMinus
	OpUnTypeof
	OpBiEq
	OpBiGt
	OpBiGte
	OpBiAdd
	OpBiSub
	OpBiMul
	OpBiDiv

	opcodeCount
)

// HasArg reports whether op is followed by a single uint operand in the
// instruction stream.
func (op Opcode) HasArg() bool {
	switch op {
	case OpPushLiteral, OpNewFunction, OpGetSlotDirect, OpGetSlotDirectCheck,
		OpSetSlotDirect, OpInvoke, OpJmp, OpJmpUnless:
		return true
	default:
		return false
	}
}

// Valid reports whether op is a recognized opcode.
func (op Opcode) Valid() bool { return op < opcodeCount }

// String names the opcode the way the format spells it, for disassembly
// and error messages.
func (op Opcode) String() string {
	switch op {
	case OpPushFrame:
		return "push_frame"
	case OpPushLiteral:
		return "push_literal"
	case OpNewObject:
		return "new_object"
	case OpNewArray:
		return "new_array"
	case OpNewFunction:
		return "new_function"
	case OpGetSlotDirect:
		return "get_slot_direct"
	case OpGetSlotDirectCheck:
		return "get_slot_direct_check"
	case OpGetSlotIndirect:
		return "get_slot_indirect"
	case OpSetSlotDirect:
		return "set_slot_direct"
	case OpSetSlotIndirect:
		return "set_slot_indirect"
	case OpInvoke:
		return "invoke"
	case OpReturn:
		return "return"
	case OpJmp:
		return "jmp"
	case OpJmpUnless:
		return "jmp_unless"
	case OpPop:
		return "pop"
	case OpDup:
		return "dup"
	case OpTwoDup:
		return "2dup"
	case OpOver:
		return "over"
	case OpOver2:
		return "over2"
	case OpSwap:
		return "swap"
	case OpUnNot:
		return "un_not"
	case OpUnMinus:
		return "un_minus"
	case OpUnTypeof:
		return "un_typeof"
	case OpBiEq:
		return "bi_eq"
	case OpBiGt:
		return "bi_gt"
	case OpBiGte:
		return "bi_gte"
	case OpBiAdd:
		return "bi_add"
	case OpBiSub:
		return "bi_sub"
	case OpBiMul:
		return "bi_mul"
	case OpBiDiv:
		return "bi_div"
	default:
		return "unknown"
	}
}
