package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"testing/iotest"

	"github.com/stretchr/testify/assert"

	"github.com/olimendsz/mic1/mic"
)

func TestReadControlStore(t *testing.T) {
	assert := assert.New(t)

	data := binary.LittleEndian.AppendUint64(nil, 0x1_2345_6789)
	data = binary.LittleEndian.AppendUint64(data, 0xf_ffff_ffff)
	// Trailing partial word.
	data = append(data, 1, 2, 3)

	store, err := ReadControlStore(bytes.NewReader(data))
	assert.NoError(err)
	assert.Equal(mic.Micro(0x1_2345_6789), store[0])
	assert.Equal(mic.Micro(0xf_ffff_ffff), store[1])
	for addr := 2; addr < mic.CONTROL_STORE_SIZE; addr++ {
		assert.Equal(mic.Micro(0), store[addr])
	}

	// Empty image.
	store, err = ReadControlStore(bytes.NewReader(nil))
	assert.NoError(err)
	assert.Equal(&mic.ControlStore{}, store)
}

func TestReadControlStoreOversize(t *testing.T) {
	assert := assert.New(t)

	var data []byte
	for addr := range mic.CONTROL_STORE_SIZE + 3 {
		data = binary.LittleEndian.AppendUint64(data, uint64(addr+1))
	}

	input := bytes.NewReader(data)
	store, err := ReadControlStore(input)
	assert.NoError(err)
	assert.Equal(mic.Micro(1), store[0])
	assert.Equal(mic.Micro(mic.CONTROL_STORE_SIZE), store[mic.CONTROL_STORE_SIZE-1])
	assert.Equal(3*MICRO_SIZE, input.Len())
}

func TestReadControlStoreError(t *testing.T) {
	assert := assert.New(t)

	broken := errors.New("broken")
	store, err := ReadControlStore(iotest.ErrReader(broken))
	assert.ErrorIs(err, broken)
	assert.Nil(store)
}

func TestWriteControlStore(t *testing.T) {
	assert := assert.New(t)

	store := &mic.ControlStore{}
	store[0] = mic.MakeMicro(0x005, 0, 0, mic.ALU_ONE, mic.C_PC, 0, 0)
	store[511] = mic.MICRO_MASK

	buff := &bytes.Buffer{}
	assert.NoError(WriteControlStore(buff, store))
	assert.Equal(mic.CONTROL_STORE_SIZE*MICRO_SIZE, buff.Len())

	again, err := ReadControlStore(buff)
	assert.NoError(err)
	assert.Equal(store, again)
}

func image(size uint32, rest ...byte) []byte {
	return append(binary.LittleEndian.AppendUint32(nil, size), rest...)
}

func TestReadProgram(t *testing.T) {
	assert := assert.New(t)

	prefix := make([]byte, INIT_SIZE)
	prefix[0] = 0xaa
	prefix[INIT_SIZE-1] = 0xbb

	prog, err := ReadProgram(bytes.NewReader(image(24, append(prefix, 1, 2, 3, 4, 5, 6)...)))
	assert.NoError(err)
	assert.Equal(byte(0xaa), prog.Init[0])
	assert.Equal(byte(0xbb), prog.Init[INIT_SIZE-1])
	assert.Equal([]byte{1, 2, 3, 4}, prog.Body)
	assert.Equal(24, prog.Size())

	mem := mic.NewMemory(4096)
	assert.NoError(prog.Load(mem))

	data, err := mem.Slice(0, INIT_SIZE)
	assert.NoError(err)
	assert.Equal(prefix, data)

	data, err = mem.Slice(PROGRAM_START-1, 6)
	assert.NoError(err)
	assert.Equal([]byte{0, 1, 2, 3, 4, 0}, data)
}

func TestReadProgramErrors(t *testing.T) {
	assert := assert.New(t)

	prefix := make([]byte, INIT_SIZE)

	table := [](struct {
		name string
		data []byte
		err  error
	}){
		{"empty", nil, ErrProgramTruncated},
		{"header", []byte{24, 0}, ErrProgramTruncated},
		{"size", image(19), ErrProgramSize},
		{"init", image(24, 1, 2, 3), ErrProgramTruncated},
		{"body", image(24, append(prefix, 1, 2)...), ErrProgramTruncated},
		{"huge", image(0xffffffff, prefix...), ErrProgramTruncated},
	}

	for _, entry := range table {
		prog, err := ReadProgram(bytes.NewReader(entry.data))
		assert.ErrorIs(err, entry.err, entry.name)
		assert.Nil(prog, entry.name)
	}

	// An image with no body is valid.
	prog, err := ReadProgram(bytes.NewReader(image(INIT_SIZE, prefix...)))
	assert.NoError(err)
	assert.Empty(prog.Body)
}

func TestProgramLoadFault(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{Body: make([]byte, 16)}
	err := prog.Load(mic.NewMemory(PROGRAM_START + 8))

	var fault *mic.MemoryAccessFault
	if assert.True(errors.As(err, &fault)) {
		assert.Equal(uint64(PROGRAM_START), fault.Address)
		assert.Equal(16, fault.Size)
	}
}

func TestProgramWriteTo(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{Body: []byte("hello")}
	prog.Init[3] = 7

	buff := &bytes.Buffer{}
	n, err := prog.WriteTo(buff)
	assert.NoError(err)
	assert.Equal(int64(SIZE_SIZE+INIT_SIZE+5), n)
	assert.Equal(uint32(25), binary.LittleEndian.Uint32(buff.Bytes()))

	again, err := ReadProgram(buff)
	assert.NoError(err)
	assert.Equal(prog, again)
}

func TestOpen(t *testing.T) {
	assert := assert.New(t)

	filesys := fstest.MapFS{
		"microprog.rom": &fstest.MapFile{Data: binary.LittleEndian.AppendUint64(nil, 0x42)},
		"prog.ijvm":     &fstest.MapFile{Data: image(21, append(make([]byte, INIT_SIZE), 9)...)},
		"short.ijvm":    &fstest.MapFile{Data: image(30)},
	}

	store, err := OpenControlStore(filesys, "microprog.rom")
	assert.NoError(err)
	assert.Equal(mic.Micro(0x42), store[0])

	prog, err := OpenProgram(filesys, "prog.ijvm")
	assert.NoError(err)
	assert.Equal([]byte{9}, prog.Body)

	_, err = OpenProgram(filesys, "short.ijvm")
	assert.ErrorIs(err, ErrProgramTruncated)

	_, err = OpenControlStore(filesys, "missing.rom")
	assert.ErrorIs(err, os.ErrNotExist)

	_, err = OpenProgram(filesys, "missing.ijvm")
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestSaveControlStore(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	store := &mic.ControlStore{}
	store[1] = 0x1234

	assert.NoError(SaveControlStore(DirFS(dir), "out.rom", store))

	again, err := OpenControlStore(os.DirFS(dir), "out.rom")
	assert.NoError(err)
	assert.Equal(store, again)

	info, err := os.Stat(filepath.Join(dir, "out.rom"))
	assert.NoError(err)
	assert.Equal(int64(mic.CONTROL_STORE_SIZE*MICRO_SIZE), info.Size())

	err = SaveControlStore(DirFS(dir), "../escape.rom", store)
	assert.ErrorIs(err, os.ErrInvalid)
}
