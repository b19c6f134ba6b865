// Package emulator runs a drawing program on a dedicated worker
// goroutine and streams its pixel events to a consumer, preserving order.
package emulator

import (
	"github.com/retroenv/retrogolib/log"

	"github.com/twe4ked/drawer/internal"
	"github.com/twe4ked/drawer/vm"
)

// Emulator owns a decoded program and the machine executing it. The
// worker goroutine has exclusive ownership of the machine state; the only
// communication with the consumer is the pixel stream and, after it
// closes, Err. There is no cancellation path: a program without HLT runs
// until the process exits.
type Emulator struct {
	Verbose bool        // If set, enables per-instruction tracing.
	Program *vm.Program // The program to execute.

	logger *log.Logger
	queue  *internal.Queue[vm.Pixel]
	err    error
}

// NewEmulator creates an emulator for a decoded program.
func NewEmulator(prog *vm.Program, logger *log.Logger) (emu *Emulator) {
	emu = &Emulator{
		Program: prog,
		logger:  logger,
		queue:   internal.NewQueue[vm.Pixel](),
	}

	return
}

// Start launches the fetch-execute loop on its own goroutine.
func (emu *Emulator) Start() {
	go emu.run()
}

// Pixels is the ordered event stream. It is closed once the program
// halts or faults; a closed channel means no more pixels.
func (emu *Emulator) Pixels() <-chan vm.Pixel {
	return emu.queue.Out()
}

// Drain returns every currently available pixel event without blocking,
// in production order. open is false once the stream has ended and the
// backlog is empty.
func (emu *Emulator) Drain() (pixels []vm.Pixel, open bool) {
	open = true
	for {
		select {
		case pixel, ok := <-emu.queue.Out():
			if !ok {
				open = false
				return
			}
			pixels = append(pixels, pixel)
		default:
			return
		}
	}
}

// Err reports the run-time fault that ended the run, if any. Valid only
// after the pixel stream has closed.
func (emu *Emulator) Err() error {
	return emu.err
}

// run is the worker loop. A run-time fault terminates only this
// goroutine; the consumer sees the stream close either way.
func (emu *Emulator) run() {
	in := emu.queue.In()
	defer close(in)

	machine := vm.New(emu.logger)
	machine.Verbose = emu.Verbose

	for !machine.Terminated {
		pixel, err := machine.Step(emu.Program.Instructions)
		if err != nil {
			emu.err = &ErrRuntime{Pc: machine.Pc, Err: err}
			emu.logger.Error("program faulted",
				log.Int("pc", machine.Pc),
				log.Err(err))
			return
		}
		if pixel != nil {
			in <- *pixel
		}
	}
}
