package emulator

import (
	"errors"

	"github.com/olimendsz/mic1/translate"
)

var f = translate.From

var (
	// Run control errors
	ErrCycleLimit = errors.New(f("cycle limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Mpc    uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("mpc 0x%03x %v", err.Mpc, err.Err)
	}
	return f("mpc 0x%03x line %d %v", err.Mpc, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
