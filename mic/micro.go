package mic

import (
	"fmt"
	"strings"
)

// Micro is a single control word. Only the low MICRO_BITS bits are significant.
type Micro uint64

const (
	MICRO_BITS = 36                           // Significant bits of a control word.
	MICRO_MASK = Micro((1 << MICRO_BITS) - 1) // Mask of the significant bits.
)

// Field positions within a control word.
const (
	microBShift     = 0
	microBMask      = 0xf
	microMemShift   = 4
	microMemMask    = 0x7
	microCShift     = 7
	microCMask      = 0x1ff
	microAluShift   = 16
	microAluMask    = 0x3f
	microShiftShift = 22
	microShiftMask  = 0x3
	microJumpShift  = 24
	microJumpMask   = 0x7
	microNextShift  = 27
	microNextMask   = 0x1ff
)

// BusB selects the register driven onto the B bus.
type BusB int

//go:generate go tool stringer -type=BusB -trimprefix=B_
const (
	B_MDR  = BusB(0) // MDR
	B_PC   = BusB(1) // PC
	B_MBR  = BusB(2) // MBR, sign extended
	B_MBRU = BusB(3) // MBR, zero extended
	B_SP   = BusB(4) // SP
	B_LV   = BusB(5) // LV
	B_CPP  = BusB(6) // CPP
	B_TOS  = BusB(7) // TOS
	B_OPC  = BusB(8) // OPC
)

// MemOps is the set of memory operations of a cycle.
type MemOps uint8

const (
	MEM_FETCH = MemOps(1 << 0) // MBR <- memory[PC]
	MEM_READ  = MemOps(1 << 1) // MDR <- word at MAR
	MEM_WRITE = MemOps(1 << 2) // word at MAR <- MDR
)

// CMask is the set of registers written from the C bus.
type CMask uint16

const (
	C_MAR = CMask(1 << 0)
	C_MDR = CMask(1 << 1)
	C_PC  = CMask(1 << 2)
	C_SP  = CMask(1 << 3)
	C_LV  = CMask(1 << 4)
	C_CPP = CMask(1 << 5)
	C_TOS = CMask(1 << 6)
	C_OPC = CMask(1 << 7)
	C_H   = CMask(1 << 8)
)

// cTargets maps C mask bits, least significant first, to registers.
var cTargets = [...]Register{
	REG_MAR, REG_MDR, REG_PC, REG_SP, REG_LV, REG_CPP, REG_TOS, REG_OPC, REG_H,
}

// ShiftOp is the shifter function applied to the ALU output.
type ShiftOp uint8

const (
	SHIFT_NONE = ShiftOp(0) // no shift
	SHIFT_SLL8 = ShiftOp(1) // << 8
	SHIFT_SRL1 = ShiftOp(2) // >> 1, logical
)

// JumpBits selects the contributions ORed into the next micro-address.
type JumpBits uint8

const (
	JUMP_N   = JumpBits(1 << 0) // FlagN into bit 8
	JUMP_Z   = JumpBits(1 << 1) // FlagZ into bit 8
	JUMP_MBR = JumpBits(1 << 2) // MBR into the low bits
)

// Fields is a decoded control word.
type Fields struct {
	B     BusB
	Mem   MemOps
	C     CMask
	Alu   AluOp
	Shift ShiftOp
	Jump  JumpBits
	Next  uint16
}

// MakeMicro assembles a control word from its fields. Each field is
// truncated to its width.
func MakeMicro(next uint16, jump JumpBits, shift ShiftOp, alu AluOp, c CMask, mem MemOps, b BusB) Micro {
	return (Micro(next)&microNextMask)<<microNextShift |
		(Micro(jump)&microJumpMask)<<microJumpShift |
		(Micro(shift)&microShiftMask)<<microShiftShift |
		(Micro(alu)&microAluMask)<<microAluShift |
		(Micro(c)&microCMask)<<microCShift |
		(Micro(mem)&microMemMask)<<microMemShift |
		(Micro(b)&microBMask)<<microBShift
}

// Decode splits a control word into its fields. Every value decodes.
func Decode(mi Micro) Fields {
	return Fields{
		B:     mi.B(),
		Mem:   mi.Mem(),
		C:     mi.C(),
		Alu:   mi.Alu(),
		Shift: mi.Shift(),
		Jump:  mi.Jump(),
		Next:  mi.Next(),
	}
}

// Micro encodes the fields back into a control word.
func (fl Fields) Micro() Micro {
	return MakeMicro(fl.Next, fl.Jump, fl.Shift, fl.Alu, fl.C, fl.Mem, fl.B)
}

// B returns the bus B selector, bits 3..0.
func (mi Micro) B() BusB {
	return BusB((mi >> microBShift) & microBMask)
}

// Mem returns the memory operations, bits 6..4.
func (mi Micro) Mem() MemOps {
	return MemOps((mi >> microMemShift) & microMemMask)
}

// C returns the C bus write mask, bits 15..7.
func (mi Micro) C() CMask {
	return CMask((mi >> microCShift) & microCMask)
}

// Alu returns the ALU function, bits 21..16.
func (mi Micro) Alu() AluOp {
	return AluOp((mi >> microAluShift) & microAluMask)
}

// Shift returns the shifter function, bits 23..22.
func (mi Micro) Shift() ShiftOp {
	return ShiftOp((mi >> microShiftShift) & microShiftMask)
}

// Jump returns the jump bits, bits 26..24.
func (mi Micro) Jump() JumpBits {
	return JumpBits((mi >> microJumpShift) & microJumpMask)
}

// Next returns the next micro-address, bits 35..27.
func (mi Micro) Next() uint16 {
	return uint16((mi >> microNextShift) & microNextMask)
}

// String disassembles the control word.
func (mi Micro) String() string {
	return Decode(mi).String()
}

// String disassembles the fields into micro-assembler syntax.
func (fl Fields) String() string {
	var stmts []string

	expr, ok := fl.Alu.Expr(fl.B)
	if ok || fl.C != 0 || fl.Shift != SHIFT_NONE {
		if !ok {
			expr = "0"
		}
		switch fl.Shift {
		case SHIFT_SLL8:
			expr += " << 8"
		case SHIFT_SRL1:
			expr += " >> 1"
		}
		var dsts []string
		for bit, reg := range cTargets {
			if fl.C&(1<<bit) != 0 {
				dsts = append(dsts, reg.String())
			}
		}
		dsts = append(dsts, expr)
		stmts = append(stmts, strings.Join(dsts, " = "))
	}

	if fl.Mem&MEM_FETCH != 0 {
		stmts = append(stmts, "fetch")
	}
	if fl.Mem&MEM_READ != 0 {
		stmts = append(stmts, "rd")
	}
	if fl.Mem&MEM_WRITE != 0 {
		stmts = append(stmts, "wr")
	}
	if fl.Jump&JUMP_N != 0 {
		stmts = append(stmts, "jamn")
	}
	if fl.Jump&JUMP_Z != 0 {
		stmts = append(stmts, "jamz")
	}

	switch {
	case fl.Jump&JUMP_MBR == 0:
		stmts = append(stmts, fmt.Sprintf("goto 0x%03x", fl.Next))
	case fl.Next == 0:
		stmts = append(stmts, "goto (MBR)")
	default:
		stmts = append(stmts, fmt.Sprintf("goto (MBR OR 0x%03x)", fl.Next))
	}

	return strings.Join(stmts, "; ")
}
