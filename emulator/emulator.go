package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/olimendsz/mic1/internal"
	"github.com/olimendsz/mic1/loader"
	"github.com/olimendsz/mic1/mic"
)

// NO_HALT disables the halt micro-address.
const NO_HALT = -1

var _emulator_defines = map[string]string{
	"CONTROL_STORE_SIZE": fmt.Sprintf("%v", mic.CONTROL_STORE_SIZE),
	"PROGRAM_START":      fmt.Sprintf("%#x", loader.PROGRAM_START),
	"INIT_SIZE":          fmt.Sprintf("%v", loader.INIT_SIZE),
}

var _register_defines = map[string]mic.CMask{
	"C_MAR": mic.C_MAR,
	"C_MDR": mic.C_MDR,
	"C_PC":  mic.C_PC,
	"C_SP":  mic.C_SP,
	"C_LV":  mic.C_LV,
	"C_CPP": mic.C_CPP,
	"C_TOS": mic.C_TOS,
	"C_OPC": mic.C_OPC,
	"C_H":   mic.C_H,
}

var _control_defines = map[string]uint8{
	"MEM_FETCH": uint8(mic.MEM_FETCH),
	"MEM_READ":  uint8(mic.MEM_READ),
	"MEM_WRITE": uint8(mic.MEM_WRITE),
	"JUMP_N":    uint8(mic.JUMP_N),
	"JUMP_Z":    uint8(mic.JUMP_Z),
	"JUMP_MBR":  uint8(mic.JUMP_MBR),
}

// Observer is called with the state each cycle starts from. An error stops
// the run.
type Observer interface {
	Observe(state mic.State) error
}

// Emulator state. Datapath plus run control.
type Emulator struct {
	Verbose       bool              // If set, enables verbose logging.
	*mic.Datapath                   // Reference to the datapath simulation.
	Program       *mic.Microprogram // Source listing of the control store, if any.

	HaltAddress int      // Micro-address that ends the run, or NO_HALT.
	MaxCycles   uint64   // Cycle bound of a run, or 0 for none.
	Observer    Observer // Called before every cycle, if set.
}

// NewEmulator creates a new emulator with an empty control store and
// memSize bytes of memory.
func NewEmulator(memSize int) (emu *Emulator) {
	emu = &Emulator{
		Datapath:    mic.NewDatapath(nil, mic.NewMemory(memSize)),
		Program:     &mic.Microprogram{},
		HaltAddress: NO_HALT,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	memory := map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%v", emu.Memory.Size()),
	}

	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		maps.All(memory),
		hexDefines(_register_defines),
		hexDefines(_control_defines),
	)
}

func hexDefines[V mic.CMask | uint8](defines map[string]V) iter.Seq2[string, string] {
	return func(yield func(name string, value string) bool) {
		for name, value := range internal.IterSorted(defines) {
			if !yield(name, fmt.Sprintf("%#x", uint64(value))) {
				return
			}
		}
	}
}

// SetProgram installs an assembled listing and its control store.
func (emu *Emulator) SetProgram(prog *mic.Microprogram) {
	emu.Program = prog
	emu.Datapath.Store = prog.Binary()
}

// Reset the datapath. The control store and memory are kept.
func (emu *Emulator) Reset() {
	emu.Datapath.Verbose = emu.Verbose
	emu.Datapath.Reset()
}

// LineNo returns the source line of the next micro-address, or 0.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	op := emu.Program.Debug(emu.Mpc)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// Tick performs a single cycle of the emulator. done is set when the
// cycle moved to the halt address, or the cycle limit was reached.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set datapath verbosity
	emu.Datapath.Verbose = emu.Verbose

	mpc := emu.Mpc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Mpc: mpc, LineNo: lineno, Err: err}
		}
	}()

	if emu.MaxCycles != 0 && emu.Cycles >= emu.MaxCycles {
		done = true
		err = ErrCycleLimit
		return
	}

	if emu.Observer != nil {
		err = emu.Observer.Observe(emu.State())
		if err != nil {
			return
		}
	}

	err = emu.Datapath.Tick()
	if err != nil {
		return
	}

	if emu.HaltAddress != NO_HALT && int(emu.Mpc) == emu.HaltAddress {
		if emu.Verbose {
			log.Printf("emulator: halt at 0x%03x after %d cycles", emu.Mpc, emu.Cycles)
		}
		done = true
	}

	return
}

// Run ticks until done, an error, or ctx is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}
