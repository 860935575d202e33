package mic

import (
	"encoding/binary"
)

const (
	DEFAULT_MEMORY_SIZE = 100_000_000 // Bytes of main memory.
	WORD_SIZE           = 4           // Bytes per word.
)

// Memory is the byte addressable main memory. Its capacity is fixed when
// it is created; every access beyond it is a MemoryAccessFault.
type Memory struct {
	Data []byte
}

// NewMemory creates a zeroed memory of size bytes.
func NewMemory(size int) (mem *Memory) {
	mem = &Memory{
		Data: make([]byte, size),
	}

	return
}

// Size returns the capacity of the memory in bytes.
func (mem *Memory) Size() int {
	return len(mem.Data)
}

// Reset zeros the memory.
func (mem *Memory) Reset() {
	clear(mem.Data)
}

// check validates a size byte access at addr.
func (mem *Memory) check(op string, addr uint64, size int) (err error) {
	if addr+uint64(size) > uint64(len(mem.Data)) {
		err = &MemoryAccessFault{
			Op:       op,
			Address:  addr,
			Size:     size,
			Capacity: len(mem.Data),
		}
	}
	return
}

// Byte returns the byte at addr.
func (mem *Memory) Byte(addr uint32) (value uint8, err error) {
	err = mem.check("fetch", uint64(addr), 1)
	if err != nil {
		return
	}

	value = mem.Data[addr]
	return
}

// Word returns the word at word address addr, that is byte address addr*4.
func (mem *Memory) Word(addr uint32) (value uint32, err error) {
	offset := uint64(addr) * WORD_SIZE
	err = mem.check("read", offset, WORD_SIZE)
	if err != nil {
		return
	}

	value = binary.LittleEndian.Uint32(mem.Data[offset:])
	return
}

// SetWord stores value at word address addr, that is byte address addr*4.
func (mem *Memory) SetWord(addr uint32, value uint32) (err error) {
	offset := uint64(addr) * WORD_SIZE
	err = mem.check("write", offset, WORD_SIZE)
	if err != nil {
		return
	}

	binary.LittleEndian.PutUint32(mem.Data[offset:], value)
	return
}

// Load copies data into memory starting at byte address offset.
func (mem *Memory) Load(offset uint64, data []byte) (err error) {
	err = mem.check("load", offset, len(data))
	if err != nil {
		return
	}

	copy(mem.Data[offset:], data)
	return
}

// Slice returns size bytes starting at byte address offset.
func (mem *Memory) Slice(offset uint64, size int) (data []byte, err error) {
	err = mem.check("dump", offset, size)
	if err != nil {
		return
	}

	data = mem.Data[offset : offset+uint64(size)]
	return
}
