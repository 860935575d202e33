package mic

// Register names one of the datapath registers.
type Register int

//go:generate go tool stringer -type=Register -trimprefix=REG_
const (
	REG_MAR = Register(iota)
	REG_MDR
	REG_PC
	REG_MBR
	REG_SP
	REG_LV
	REG_CPP
	REG_TOS
	REG_OPC
	REG_H
	REG_COUNT
)

// Registers is the register file. All registers are 32 bits wide; MBR only
// ever holds a byte fetched from memory.
type Registers [REG_COUNT]uint32

// Get returns the value of a register.
func (regs *Registers) Get(reg Register) uint32 {
	return regs[reg]
}

// Set assigns the value of a register.
func (regs *Registers) Set(reg Register, value uint32) {
	regs[reg] = value
}

// Reset zeros every register.
func (regs *Registers) Reset() {
	clear(regs[:])
}
