package loader

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/olimendsz/mic1/mic"
)

const (
	PROGRAM_START = 0x0401 // Byte address of the program body.
	INIT_SIZE     = 20     // Bytes of the initialization block.
	SIZE_SIZE     = 4      // Bytes of the size header.
)

// Program is a program image: an initialization block copied to address
// 0 and a body copied to PROGRAM_START.
type Program struct {
	Init [INIT_SIZE]byte
	Body []byte
}

// ReadProgram reads a program image. The image starts with a little-endian
// 32-bit size that counts the initialization block and the body.
func ReadProgram(input io.Reader) (prog *Program, err error) {
	var header [SIZE_SIZE]byte
	_, err = io.ReadFull(input, header[:])
	if err != nil {
		err = truncated(err)
		return
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size < INIT_SIZE {
		err = ErrProgramSize
		return
	}

	p := &Program{}
	_, err = io.ReadFull(input, p.Init[:])
	if err != nil {
		err = truncated(err)
		return
	}

	// Read the body without trusting size for the allocation.
	body, err := io.ReadAll(io.LimitReader(input, int64(size-INIT_SIZE)))
	if err != nil {
		return
	}
	if len(body) != int(size-INIT_SIZE) {
		err = ErrProgramTruncated
		return
	}
	p.Body = body

	prog = p
	return
}

// truncated maps end of file conditions to ErrProgramTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrProgramTruncated
	}
	return err
}

// Size returns the value of the image size header.
func (prog *Program) Size() int {
	return INIT_SIZE + len(prog.Body)
}

// Load copies the program into memory.
func (prog *Program) Load(mem *mic.Memory) (err error) {
	err = mem.Load(0, prog.Init[:])
	if err != nil {
		return
	}

	err = mem.Load(PROGRAM_START, prog.Body)
	return
}

// WriteTo writes the program as an image.
func (prog *Program) WriteTo(output io.Writer) (n int64, err error) {
	data := make([]byte, 0, SIZE_SIZE+prog.Size())
	data = binary.LittleEndian.AppendUint32(data, uint32(prog.Size()))
	data = append(data, prog.Init[:]...)
	data = append(data, prog.Body...)

	count, err := output.Write(data)
	n = int64(count)
	return
}
