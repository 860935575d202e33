package loader

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/olimendsz/mic1/mic"
)

// MICRO_SIZE is the size in bytes of a control word in a control store image.
const MICRO_SIZE = 8

// ReadControlStore reads a control store image: up to CONTROL_STORE_SIZE
// little-endian 8-byte words in address order.
//
// A short image leaves the remaining entries zero, a trailing partial word
// is dropped, and anything after the last entry is never read.
func ReadControlStore(input io.Reader) (store *mic.ControlStore, err error) {
	store = &mic.ControlStore{}

	var word [MICRO_SIZE]byte
	for addr := range mic.CONTROL_STORE_SIZE {
		_, err = io.ReadFull(input, word[:])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
			break
		}
		if err != nil {
			store = nil
			return
		}
		store[addr] = mic.Micro(binary.LittleEndian.Uint64(word[:]))
	}

	return
}

// WriteControlStore writes every entry of store as a control store image.
func WriteControlStore(output io.Writer, store *mic.ControlStore) (err error) {
	data := make([]byte, 0, mic.CONTROL_STORE_SIZE*MICRO_SIZE)
	for _, mi := range store {
		data = binary.LittleEndian.AppendUint64(data, uint64(mi))
	}

	_, err = output.Write(data)
	return
}
