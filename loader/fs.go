package loader

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/olimendsz/mic1/mic"
)

// CreateFS is a file system that can create files.
type CreateFS interface {
	// Create creates or truncates a file for writing.
	Create(name string) (file io.WriteCloser, err error)
}

// DirFS is a CreateFS rooted at a host directory.
type DirFS string

// Create creates the named file below the directory.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
		return
	}

	return os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
}

// OpenControlStore reads the named control store image from filesys.
func OpenControlStore(filesys fs.FS, name string) (store *mic.ControlStore, err error) {
	file, err := filesys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	return ReadControlStore(file)
}

// SaveControlStore writes store as the named control store image.
func SaveControlStore(filesys CreateFS, name string, store *mic.ControlStore) (err error) {
	file, err := filesys.Create(name)
	if err != nil {
		return
	}

	err = WriteControlStore(file, store)
	if err != nil {
		file.Close()
		return
	}

	err = file.Close()
	return
}

// OpenProgram reads the named program image from filesys.
func OpenProgram(filesys fs.FS, name string) (prog *Program, err error) {
	file, err := filesys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	return ReadProgram(file)
}
