package mic

import (
	"errors"

	"github.com/olimendsz/mic1/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrAddressRange       = errors.New(f("micro-address out of range"))
	ErrAddressDuplicate   = errors.New(f("micro-address assembled twice"))
	ErrStatementInvalid   = errors.New(f("statement invalid"))
	ErrStatementDuplicate = errors.New(f("statement duplicated"))
	ErrExpressionInvalid  = errors.New(f("expression invalid"))
	ErrBusConflict        = errors.New(f("more than one B bus source"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrTargetMissing      = errors.New(f("target missing"))
	ErrJumpPair           = errors.New(f("conditional targets not 0x100 apart"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err *ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}

// MemoryAccessFault reports an access outside of the main memory.
type MemoryAccessFault struct {
	Op       string // fetch, read, write, load or dump
	Address  uint64 // Byte address of the access.
	Size     int    // Bytes accessed.
	Capacity int    // Size of the memory.
}

func (err *MemoryAccessFault) Error() string {
	return f("memory %v fault at 0x%08x (%d bytes, capacity %d)", err.Op, err.Address, err.Size, err.Capacity)
}

func (err *MemoryAccessFault) Is(target error) (ok bool) {
	_, ok = target.(*MemoryAccessFault)
	return
}
