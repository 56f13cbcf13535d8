package bytecode

import "github.com/kristofer/minijs/internal/value"

// Module owns a set of Functions (indexed by Functions[i].ID == i) and a
// literal pool inlined constants reference by opcode operand. Function 0
// is always the module's entry point.
type Module struct {
	Functions []Function
	Literals  []value.Value
}

// Entry returns the module's entry-point function (function 0).
func (m *Module) Entry() *Function {
	if len(m.Functions) == 0 {
		panic("bytecode: module has no functions")
	}
	return &m.Functions[0]
}

// Function returns the function with the given ID, or nil if out of range.
func (m *Module) Function(id int) *Function {
	if id < 0 || id >= len(m.Functions) {
		return nil
	}
	return &m.Functions[id]
}
