package monitor

import (
	"io"

	"github.com/pkg/term"
)

// TTY_DEVICE is the controlling terminal.
const TTY_DEVICE = "/dev/tty"

// terminal restores the terminal mode on Close.
type terminal struct {
	*term.Term
}

func (tty *terminal) Close() (err error) {
	err = tty.Term.Restore()
	if err != nil {
		tty.Term.Close()
		return
	}

	err = tty.Term.Close()
	return
}

// OpenTerminal opens the controlling terminal in cbreak mode, so that
// every key press is read as soon as it is typed.
func OpenTerminal() (tty io.ReadCloser, err error) {
	t, err := term.Open(TTY_DEVICE, term.CBreakMode)
	if err != nil {
		return
	}

	tty = &terminal{Term: t}
	return
}
