package mic

import (
	"fmt"
	"log"
)

const (
	CONTROL_STORE_SIZE = 512   // Control words in the control store.
	MPC_MASK           = 0x1ff // Mask of a micro-address.
)

// ControlStore holds the microprogram, indexed by micro-address.
type ControlStore [CONTROL_STORE_SIZE]Micro

// Datapath is the simulation context of the microarchitecture.
type Datapath struct {
	Verbose bool // Set to enable verbose logging.

	Registers Registers // Register file.
	Mir       Micro     // Control word of the current cycle.
	Mpc       uint16    // Micro-address of the next cycle.
	Fields    Fields    // Decoded Mir.
	BusB      uint32    // B bus of the current cycle.
	BusC      uint32    // C bus of the current cycle.
	FlagN     bool      // Set when the last ALU result was zero.
	FlagZ     bool      // Set when the last ALU result was not zero.

	Cycles uint64 // Completed cycles since reset.

	Store  *ControlStore // Microprogram.
	Memory *Memory       // Main memory.
}

// State is a copy of the observable datapath state.
type State struct {
	Registers Registers
	Mir       Micro
	Mpc       uint16
	Next      Micro // Control word at Mpc.
	BusB      uint32
	BusC      uint32
	FlagN     bool
	FlagZ     bool
	Cycles    uint64
}

// NewDatapath creates a datapath running store against memory. A nil
// store is replaced by an empty one.
func NewDatapath(store *ControlStore, memory *Memory) (dp *Datapath) {
	if store == nil {
		store = &ControlStore{}
	}

	dp = &Datapath{
		Store:  store,
		Memory: memory,
	}

	return
}

// Reset clears the registers, buses, flags and micro-address. The control
// store and memory are left alone.
func (dp *Datapath) Reset() {
	if dp.Verbose {
		log.Printf("mic: reset")
	}

	dp.Registers.Reset()
	dp.Mir = 0
	dp.Mpc = 0
	dp.Fields = Fields{}
	dp.BusB = 0
	dp.BusC = 0
	dp.FlagN = false
	dp.FlagZ = false
	dp.Cycles = 0
}

// Tick runs one cycle: fetch, decode, B bus, ALU and shifter, C bus,
// memory, jump. A memory fault abandons the cycle before the jump stage.
func (dp *Datapath) Tick() (err error) {
	dp.fetch()
	dp.decode()
	dp.selectB()
	dp.alu()
	dp.writeC()

	err = dp.memory()
	if err != nil {
		return
	}

	dp.jump()
	dp.Cycles++

	return
}

// fetch loads Mir from the control store.
func (dp *Datapath) fetch() {
	dp.Mir = dp.Store[dp.Mpc&MPC_MASK]

	if dp.Verbose {
		log.Printf("mic: %03x: %v", dp.Mpc, dp.Mir)
	}
}

// decode splits Mir and seeds Mpc with the next address field.
func (dp *Datapath) decode() {
	dp.Fields = Decode(dp.Mir)
	dp.Mpc = dp.Fields.Next
}

func (dp *Datapath) selectB() {
	dp.BusB = SelectB(&dp.Registers, dp.Fields.B)
}

// alu computes the C bus. Flags see the result before the shifter.
func (dp *Datapath) alu() {
	result := Alu(dp.Fields.Alu, dp.Registers[REG_H], dp.BusB)
	dp.FlagN, dp.FlagZ = Flags(result)
	dp.BusC = Shift(dp.Fields.Shift, result)
}

func (dp *Datapath) writeC() {
	WriteC(&dp.Registers, dp.Fields.C, dp.BusC)

	if dp.Verbose && dp.Fields.C != 0 {
		log.Printf("mic: %v <- 0x%08x", dp.Fields.C.Targets(), dp.BusC)
	}
}

// memory runs the enabled memory operations against the registers as left
// by the C bus.
func (dp *Datapath) memory() (err error) {
	ops := dp.Fields.Mem
	mar := dp.Registers[REG_MAR]

	if ops&MEM_FETCH != 0 {
		var value uint8
		value, err = dp.Memory.Byte(dp.Registers[REG_PC])
		if err != nil {
			return
		}
		dp.Registers[REG_MBR] = uint32(value)
	}

	if ops&MEM_READ != 0 {
		var value uint32
		value, err = dp.Memory.Word(mar)
		if err != nil {
			return
		}
		dp.Registers[REG_MDR] = value
	}

	if ops&MEM_WRITE != 0 {
		err = dp.Memory.SetWord(mar, dp.Registers[REG_MDR])
		if err != nil {
			return
		}
	}

	return
}

func (dp *Datapath) jump() {
	dp.Mpc = NextAddress(dp.Mpc, dp.Fields.Jump, dp.FlagN, dp.FlagZ, dp.Registers[REG_MBR])
}

// State returns a copy of the observable state.
func (dp *Datapath) State() State {
	return State{
		Registers: dp.Registers,
		Mir:       dp.Mir,
		Mpc:       dp.Mpc,
		Next:      dp.Store[dp.Mpc&MPC_MASK],
		BusB:      dp.BusB,
		BusC:      dp.BusC,
		FlagN:     dp.FlagN,
		FlagZ:     dp.FlagZ,
		Cycles:    dp.Cycles,
	}
}

// String returns the current datapath state as a string.
func (dp *Datapath) String() string {
	return dp.State().String()
}

// String returns the register block, micro-address and control word.
func (st State) String() (text string) {
	regs := &st.Registers
	text += fmt.Sprintf("PC: 0x%08X | SP: 0x%08X | LV: 0x%08X | TOS: 0x%08X\n",
		regs[REG_PC], regs[REG_SP], regs[REG_LV], regs[REG_TOS])
	text += fmt.Sprintf("MAR: 0x%08X | MDR: 0x%08X | MBR: 0x%02X | CPP: 0x%08X | OPC: 0x%08X | H: 0x%08X\n",
		regs[REG_MAR], regs[REG_MDR], regs[REG_MBR], regs[REG_CPP], regs[REG_OPC], regs[REG_H])
	text += fmt.Sprintf("MPC: 0x%03X | MIR: 0x%09X\n", st.Mpc, uint64(st.Mir))
	return
}
