package mic

import (
	"fmt"
)

// AluOp is the 6-bit ALU function code.
type AluOp uint8

const (
	ALU_ZERO       = AluOp(0)  // 0, as every undefined function code
	ALU_H_AND_B    = AluOp(12) // H AND B
	ALU_ONE        = AluOp(17) // 1
	ALU_MINUS_ONE  = AluOp(18) // -1
	ALU_B          = AluOp(20) // B
	ALU_H          = AluOp(24) // H
	ALU_NOT_H      = AluOp(26) // NOT H
	ALU_H_OR_B     = AluOp(28) // H OR B
	ALU_NOT_B      = AluOp(44) // NOT B
	ALU_B_PLUS_1   = AluOp(53) // B + 1
	ALU_B_MINUS_1  = AluOp(54) // B - 1
	ALU_H_PLUS_1   = AluOp(57) // H + 1
	ALU_NEG_H      = AluOp(59) // -H
	ALU_H_PLUS_B   = AluOp(60) // H + B
	ALU_H_PLUS_B_1 = AluOp(61) // H + B + 1
	ALU_B_MINUS_H  = AluOp(63) // B - H
)

// aluExpr is the assembler text of each defined function. %[1]v is bus B.
var aluExpr = map[AluOp]string{
	ALU_H_AND_B:    "H AND %[1]v",
	ALU_ONE:        "1",
	ALU_MINUS_ONE:  "-1",
	ALU_B:          "%[1]v",
	ALU_H:          "H",
	ALU_NOT_H:      "NOT H",
	ALU_H_OR_B:     "H OR %[1]v",
	ALU_NOT_B:      "NOT %[1]v",
	ALU_B_PLUS_1:   "%[1]v + 1",
	ALU_B_MINUS_1:  "%[1]v - 1",
	ALU_H_PLUS_1:   "H + 1",
	ALU_NEG_H:      "-H",
	ALU_H_PLUS_B:   "H + %[1]v",
	ALU_H_PLUS_B_1: "H + %[1]v + 1",
	ALU_B_MINUS_H:  "%[1]v - H",
}

// Defined returns true for the function codes with a defined result.
func (op AluOp) Defined() bool {
	_, ok := aluExpr[op]
	return ok
}

// ReadsB returns true if the function uses the B bus.
func (op AluOp) ReadsB() bool {
	switch op {
	case ALU_H_AND_B, ALU_B, ALU_H_OR_B, ALU_NOT_B, ALU_B_PLUS_1, ALU_B_MINUS_1,
		ALU_H_PLUS_B, ALU_H_PLUS_B_1, ALU_B_MINUS_H:
		return true
	}
	return false
}

// Expr returns the assembler expression of the function with b on the B bus.
func (op AluOp) Expr(b BusB) (expr string, ok bool) {
	format, ok := aluExpr[op]
	if !ok || !op.ReadsB() {
		expr = format
		return
	}
	expr = fmt.Sprintf(format, b)
	return
}

// String returns the expression with a generic B operand.
func (op AluOp) String() string {
	format, ok := aluExpr[op]
	if !ok {
		return fmt.Sprintf("AluOp(%d)", uint8(op))
	}
	if !op.ReadsB() {
		return format
	}
	return fmt.Sprintf(format, "B")
}

// Alu computes the function op of H and the B bus. Undefined codes yield 0.
func Alu(op AluOp, h, b uint32) (result uint32) {
	switch op {
	case ALU_H_AND_B:
		result = h & b
	case ALU_ONE:
		result = 1
	case ALU_MINUS_ONE:
		result = 0xffffffff
	case ALU_B:
		result = b
	case ALU_H:
		result = h
	case ALU_NOT_H:
		result = ^h
	case ALU_H_OR_B:
		result = h | b
	case ALU_NOT_B:
		result = ^b
	case ALU_B_PLUS_1:
		result = b + 1
	case ALU_B_MINUS_1:
		result = b - 1
	case ALU_H_PLUS_1:
		result = h + 1
	case ALU_NEG_H:
		result = -h
	case ALU_H_PLUS_B:
		result = h + b
	case ALU_H_PLUS_B_1:
		result = h + b + 1
	case ALU_B_MINUS_H:
		result = b - h
	default:
		result = 0
	}

	return
}

// Flags computes the status flags of an unshifted ALU result.
//
// N is set when the result is zero and Z when it is not. Microprograms
// written for this machine depend on exactly this encoding.
func Flags(result uint32) (n, z bool) {
	n = result == 0
	z = result != 0
	return
}

// Shift applies the shifter function to value. Code 3 does not shift.
func Shift(op ShiftOp, value uint32) uint32 {
	switch op {
	case SHIFT_SLL8:
		return value << 8
	case SHIFT_SRL1:
		return value >> 1
	default:
		return value
	}
}
