package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/olimendsz/mic1/emulator"
	"github.com/olimendsz/mic1/loader"
	"github.com/olimendsz/mic1/mic"
	"github.com/olimendsz/mic1/monitor"
	"github.com/olimendsz/mic1/translate"
)

// hostPath splits a host path into its directory and a name within it.
func hostPath(path string) (dir string, name string) {
	dir, name = filepath.Split(filepath.Clean(path))
	if len(dir) == 0 {
		dir = "."
	}
	return
}

// hostFile returns the file system holding a host path, and its name there.
func hostFile(path string) (filesys fs.FS, name string) {
	dir, name := hostPath(path)
	filesys = os.DirFS(dir)
	return
}

var (
	errSaveCompile = errors.New(f("-s requires -c"))
	errUsage       = errors.New(f("usage: mic1 [flags] program"))
	errHalt        = errors.New(f("-halt out of range"))
	errMemSize     = errors.New(f("-mem must be positive"))
)

var f = translate.From

// checkFlags validates the command line before anything is loaded.
func checkFlags(compile bool, save bool, nargs int, halt int, memSize int) (err error) {
	switch {
	case save && !compile:
		err = errSaveCompile
	case save && nargs != 0, !save && nargs != 1:
		err = errUsage
	case halt < emulator.NO_HALT || halt >= mic.CONTROL_STORE_SIZE:
		err = errHalt
	case memSize <= 0:
		err = errMemSize
	}
	return
}

func main() {
	var rom string
	var compile string
	var save bool
	var cycles uint64
	var halt int
	var memSize int
	var trace bool
	var step bool
	var verbose bool

	flag.StringVar(&rom, "m", "microprog.rom", "Control store image")
	flag.StringVar(&compile, "c", "", ".mal microprogram to assemble")
	flag.BoolVar(&save, "s", false, "Save the assembled control store to -m, do not execute")
	flag.Uint64Var(&cycles, "n", 0, "Maximum cycles to run (0 for no limit)")
	flag.IntVar(&halt, "halt", emulator.NO_HALT, "Halt micro-address (-1 for none)")
	flag.IntVar(&memSize, "mem", mic.DEFAULT_MEMORY_SIZE, "Memory size in bytes")
	flag.BoolVar(&trace, "t", false, "Trace the state of every cycle")
	flag.BoolVar(&step, "step", false, "Wait for a key press before every cycle ('q' quits)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	err := checkFlags(len(compile) != 0, save, flag.NArg(), halt, memSize)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	emu := emulator.NewEmulator(memSize)
	emu.Verbose = verbose
	emu.HaltAddress = halt
	emu.MaxCycles = cycles

	if len(compile) != 0 {
		// Assemble a new microprogram.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &mic.Assembler{Verbose: verbose}
		for name, value := range emu.Defines() {
			asm.Predefine(name, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if save {
			dir, name := hostPath(rom)
			err = loader.SaveControlStore(loader.DirFS(dir), name, prog.Binary())
			if err != nil {
				log.Fatalf("%v: %v", rom, err)
			}
			return
		}

		emu.SetProgram(prog)
	} else {
		filesys, name := hostFile(rom)
		store, err := loader.OpenControlStore(filesys, name)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		emu.Datapath.Store = store
	}

	image := flag.Arg(0)
	filesys, name := hostFile(image)
	prog, err := loader.OpenProgram(filesys, name)
	if err != nil {
		log.Fatalf("%v: %v", image, err)
	}
	err = prog.Load(emu.Memory)
	if err != nil {
		log.Fatalf("%v: %v", image, err)
	}

	mon := &monitor.Monitor{
		Program: emu.Program,
		Step:    step,
	}
	if trace || step {
		mon.Output = os.Stdout
	}
	var tty io.ReadCloser
	if step {
		tty, err = monitor.OpenTerminal()
		if err != nil {
			log.Printf("%v: %v", monitor.TTY_DEVICE, err)
			tty = io.NopCloser(os.Stdin)
		}
		mon.Input = tty
	}
	if mon.Output != nil || mon.Step {
		emu.Observer = mon
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	emu.Reset()
	err = emu.Run(ctx)

	stop()
	if tty != nil {
		tty.Close()
	}

	_, _ = io.WriteString(os.Stdout, emu.String())
	_, _ = translate.Fprintf(os.Stdout, "%d cycles\n", emu.Cycles)

	switch {
	case err == nil, errors.Is(err, monitor.ErrQuit), errors.Is(err, context.Canceled):
	case errors.Is(err, emulator.ErrCycleLimit):
		log.Printf("%v", err)
	default:
		log.Fatalf("%v: %v", image, err)
	}
}
