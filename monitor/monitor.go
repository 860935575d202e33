// Package monitor traces and single-steps a running emulator.
package monitor

import (
	"errors"
	"io"
	"strings"

	"github.com/olimendsz/mic1/emulator"
	"github.com/olimendsz/mic1/mic"
	"github.com/olimendsz/mic1/translate"
)

var f = translate.From

var (
	// ErrQuit is returned when the user quits while stepping.
	ErrQuit = errors.New(f("quit"))
)

// KEY_QUIT stops the run while stepping.
const KEY_QUIT = 'q'

// Monitor prints the state of every cycle, and optionally waits for a key
// press before letting it run.
type Monitor struct {
	Output  io.Writer         // Trace output, or nil for none.
	Input   io.Reader         // Key presses while stepping.
	Step    bool              // If set, wait for a key before every cycle.
	Program *mic.Microprogram // Source listing, if any.
}

var _ emulator.Observer = (*Monitor)(nil)

// Observe reports the state a cycle starts from.
func (mon *Monitor) Observe(state mic.State) (err error) {
	if mon.Output != nil {
		err = mon.report(state)
		if err != nil {
			return
		}
	}

	if mon.Step {
		err = mon.wait()
	}

	return
}

// report writes the register block, the control word about to run and its
// source line.
func (mon *Monitor) report(state mic.State) (err error) {
	_, err = io.WriteString(mon.Output, state.String())
	if err != nil {
		return
	}

	mpc := state.Mpc & mic.MPC_MASK
	_, err = translate.Fprintf(mon.Output, "cycle %d: %03x: %v\n", state.Cycles, mpc, state.Next)
	if err != nil {
		return
	}

	if mon.Program != nil {
		op := mon.Program.Debug(mpc)
		if op != nil {
			_, err = translate.Fprintf(mon.Output, "line %d: %v\n", op.LineNo, strings.Join(op.Words, "; "))
			if err != nil {
				return
			}
		}
	}

	_, err = io.WriteString(mon.Output, "\n")
	return
}

// wait blocks for a key press. End of input ends stepping.
func (mon *Monitor) wait() (err error) {
	if mon.Input == nil {
		mon.Step = false
		return
	}

	var key [1]byte
	_, err = io.ReadFull(mon.Input, key[:])
	if errors.Is(err, io.EOF) {
		mon.Step = false
		err = nil
		return
	}
	if err != nil {
		return
	}

	if key[0] == KEY_QUIT {
		err = ErrQuit
	}

	return
}
