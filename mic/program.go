package mic

import (
	"iter"
)

// Opcode is one assembled source line and the control word it produced.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      int      // Micro-address of the control word.
	Words     []string // Statements of the source line.
	Micro     Micro    // Control word.
	LinkLabel string   // Label resolved into the next address at link time.
	PairLabel string   // Taken target of an if/else pair, checked at link time.
}

// Microprogram is an assembled listing.
type Microprogram struct {
	Opcodes []Opcode
}

// Debug returns the opcode assembled at micro-address addr, or nil.
func (prog *Microprogram) Debug(addr uint16) *Opcode {
	for n, op := range prog.Opcodes {
		if op.Addr == int(addr) {
			return &prog.Opcodes[n]
		}
	}

	return nil
}

// Binary returns the control store image of the listing. Unassembled
// micro-addresses hold zero.
func (prog *Microprogram) Binary() (store *ControlStore) {
	store = &ControlStore{}
	for addr, mi := range prog.Codes() {
		store[addr] = mi
	}

	return
}

// Codes iterates over the micro-addresses and control words in source order.
func (prog *Microprogram) Codes() iter.Seq2[uint16, Micro] {
	return func(yield func(addr uint16, mi Micro) bool) {
		for _, op := range prog.Opcodes {
			if !yield(uint16(op.Addr), op.Micro) {
				return
			}
		}
	}
}
