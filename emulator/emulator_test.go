package emulator

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olimendsz/mic1/loader"
	"github.com/olimendsz/mic1/mic"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Datapath)
	assert.Equal(4096, emu.Memory.Size())
	assert.Equal(NO_HALT, emu.HaltAddress)
	assert.Equal(0, emu.LineNo())
}

func doAssemble(emu *Emulator, program []string, t *testing.T) {
	asm := &mic.Assembler{}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	emu.SetProgram(prog)
	emu.Reset()
}

// recorder keeps every observed state.
type recorder struct {
	states []mic.State
	quit   int
}

var errQuit = errors.New("quit")

func (rec *recorder) Observe(state mic.State) error {
	rec.states = append(rec.states, state)
	if rec.quit != 0 && len(rec.states) == rec.quit {
		return errQuit
	}
	return nil
}

func TestEmulatorHalt(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	doAssemble(emu, []string{
		"        H = 1",
		"        H = H + 1; goto Done",
		".org 0x1ff",
		"Done:   goto Done",
	}, t)
	emu.HaltAddress = 0x1ff

	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(2, emu.LineNo())

	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint16(0x1ff), emu.Mpc)
	assert.Equal(uint32(2), emu.Registers.Get(mic.REG_H))
	assert.Equal(uint64(2), emu.Cycles)
}

func TestEmulatorCycleLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	doAssemble(emu, []string{
		"Loop:   OPC = OPC + 1; goto Loop",
	}, t)
	emu.MaxCycles = 10

	err := emu.Run(context.Background())
	assert.ErrorIs(err, ErrCycleLimit)
	assert.Equal(uint64(10), emu.Cycles)
	assert.Equal(uint32(10), emu.Registers.Get(mic.REG_OPC))

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(1, runtime.LineNo)
		assert.Equal(uint16(0), runtime.Mpc)
	}

	// Reset keeps the control store.
	emu.Reset()
	assert.Equal(uint64(0), emu.Cycles)
	assert.Equal(uint32(0), emu.Registers.Get(mic.REG_OPC))
	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint32(1), emu.Registers.Get(mic.REG_OPC))
}

func TestEmulatorCancel(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	doAssemble(emu, []string{
		"Loop:   goto Loop",
	}, t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(uint64(0), emu.Cycles)

	// Cancel from the observer, mid run.
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	emu.Observer = observerFunc(func(state mic.State) error {
		if state.Cycles == 100 {
			cancel()
		}
		return nil
	})

	err = emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(uint64(101), emu.Cycles)
}

type observerFunc func(state mic.State) error

func (fn observerFunc) Observe(state mic.State) error {
	return fn(state)
}

func TestEmulatorObserver(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	doAssemble(emu, []string{
		"        TOS = 1",
		"        TOS = TOS + 1",
		"        TOS = TOS + 1; goto 0x1ff",
	}, t)
	emu.HaltAddress = 0x1ff

	rec := &recorder{}
	emu.Observer = rec

	err := emu.Run(context.Background())
	assert.NoError(err)

	// Each cycle is observed before it runs.
	if assert.Len(rec.states, 3) {
		for n, state := range rec.states {
			assert.Equal(uint64(n), state.Cycles)
			assert.Equal(uint16(n), state.Mpc)
			assert.Equal(uint32(n), state.Registers.Get(mic.REG_TOS))
		}
	}
	assert.Equal(uint32(3), emu.Registers.Get(mic.REG_TOS))

	// An observer error stops the run before the cycle.
	emu.Reset()
	rec = &recorder{quit: 2}
	emu.Observer = rec

	err = emu.Run(context.Background())
	assert.ErrorIs(err, errQuit)
	assert.Equal(uint64(1), emu.Cycles)
}

func TestEmulatorFault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	doAssemble(emu, []string{
		"        H = $(MEMORY_SIZE // 4096)",
		"        MAR = -1; rd",
	}, t)

	err := emu.Run(context.Background())
	assert.ErrorIs(err, &mic.MemoryAccessFault{})

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(2, runtime.LineNo)
		assert.Equal(uint16(1), runtime.Mpc)
	}
	assert.Equal(uint64(1), emu.Cycles)
}

func TestEmulatorProgram(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)

	prog := &loader.Program{Body: []byte{0x10, 0x20}}
	assert.NoError(prog.Load(emu.Memory))

	// Fetch the first program byte and dispatch on it.
	doAssemble(emu, []string{
		"        fetch; goto (MBR)",
		".org 0x10",
		"        H = MBRU; goto $(CONTROL_STORE_SIZE - 1)",
	}, t)
	emu.HaltAddress = 0x1ff
	emu.Registers.Set(mic.REG_PC, loader.PROGRAM_START)

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(uint32(0x10), emu.Registers.Get(mic.REG_H))
	assert.Equal(uint32(loader.PROGRAM_START), emu.Registers.Get(mic.REG_PC))
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(4096)
	defines := maps.Collect(emu.Defines())

	assert.Equal("512", defines["CONTROL_STORE_SIZE"])
	assert.Equal("0x401", defines["PROGRAM_START"])
	assert.Equal("20", defines["INIT_SIZE"])
	assert.Equal("4096", defines["MEMORY_SIZE"])
	assert.Equal("0x1", defines["C_MAR"])
	assert.Equal("0x100", defines["C_H"])
	assert.Equal("0x4", defines["MEM_WRITE"])
	assert.Equal("0x4", defines["JUMP_MBR"])
	assert.Len(defines, 19)
}
