// Command drawer assembles and runs drawing-machine programs.
//
// Assemble a source file and save the binary:
//
//	drawer -c spiral.asm -s -o spiral.bin
//
// Run a binary (or assemble-and-run with -c) and write the canvas as a
// PPM image:
//
//	drawer -o spiral.ppm spiral.bin
package main

import (
	"flag"
	"io"
	"os"

	"github.com/retroenv/retrogolib/log"

	"github.com/twe4ked/drawer/emulator"
	"github.com/twe4ked/drawer/framebuffer"
	"github.com/twe4ked/drawer/vm"
)

func main() {
	var compile string
	var save bool
	var output string
	var verbose bool
	var quiet bool

	flag.StringVar(&compile, "c", "", "assembly source file to compile")
	flag.BoolVar(&save, "s", false, "save the assembled binary, do not execute")
	flag.StringVar(&output, "o", "-", "output file: the binary with -s, a PPM image otherwise")
	flag.BoolVar(&verbose, "v", false, "verbose mode")
	flag.BoolVar(&quiet, "q", false, "log errors only")

	flag.Parse()

	logger := newLogger(verbose, quiet)

	prog := loadProgram(logger, compile)

	if save {
		writeOutput(logger, output, prog.Bytes())
		return
	}

	emu := emulator.NewEmulator(prog, logger)
	emu.Verbose = verbose
	emu.Start()

	canvas := framebuffer.New(prog.Width, prog.Height, logger)
	for pixel := range emu.Pixels() {
		canvas.Plot(pixel)
	}

	writePPM(logger, output, canvas)

	if err := emu.Err(); err != nil {
		logger.Error("run failed", log.Err(err))
		os.Exit(1)
	}
}

// newLogger creates a logger with appropriate settings.
func newLogger(verbose, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if verbose {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// loadProgram assembles the -c source if given, otherwise decodes a
// binary from the positional argument or stdin.
func loadProgram(logger *log.Logger, compile string) (prog *vm.Program) {
	var err error

	if len(compile) != 0 {
		if flag.NArg() != 0 {
			logger.Fatal("unknown arguments", log.String("args", flag.Args()[0]))
		}

		var inf *os.File
		inf, err = os.Open(compile)
		if err != nil {
			logger.Fatal(err.Error())
		}
		defer inf.Close()

		asm := &vm.Assembler{}
		prog, err = asm.Parse(inf)
		if err != nil {
			logger.Fatal(err.Error(), log.String("file", compile))
		}
		return
	}

	input := "-"
	switch flag.NArg() {
	case 0:
	case 1:
		input = flag.Arg(0)
	default:
		logger.Fatal("unknown arguments", log.String("args", flag.Args()[1]))
	}

	var buffer []byte
	if input == "-" {
		buffer, err = io.ReadAll(os.Stdin)
	} else {
		buffer, err = os.ReadFile(input)
	}
	if err != nil {
		logger.Fatal(err.Error(), log.String("file", input))
	}

	prog, err = vm.Decode(buffer)
	if err != nil {
		logger.Fatal(err.Error(), log.String("file", input))
	}

	return
}

func writeOutput(logger *log.Logger, output string, data []byte) {
	if output == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			logger.Fatal(err.Error())
		}
		return
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		logger.Fatal(err.Error(), log.String("file", output))
	}
}

func writePPM(logger *log.Logger, output string, canvas *framebuffer.Buffer) {
	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			logger.Fatal(err.Error(), log.String("file", output))
		}
		defer ouf.Close()
	}

	if err := canvas.WritePPM(ouf); err != nil {
		logger.Fatal(err.Error(), log.String("file", output))
	}
}
