package emulator

import (
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/log"
	"github.com/stretchr/testify/assert"

	"github.com/twe4ked/drawer/vm"
)

func assemble(t *testing.T, lines ...string) *vm.Program {
	t.Helper()

	source := "WIDTH 100\nHEIGHT 100\n" + strings.Join(lines, "\n")

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		t.Fatal(err)
	}

	return prog
}

func TestEmulatorPixelStream(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"STO B 3",
		"DRW",
		"loop: FWD",
		"DEC B",
		"JNZ B loop",
		"HLT",
	)

	emu := NewEmulator(prog, log.NewTestLogger(t))
	emu.Start()

	var pixels []vm.Pixel
	for pixel := range emu.Pixels() {
		pixels = append(pixels, pixel)
	}

	assert.NoError(emu.Err())
	assert.Equal([]vm.Pixel{
		{X: 1, Y: 0, Color: vm.White},
		{X: 2, Y: 0, Color: vm.White},
		{X: 3, Y: 0, Color: vm.White},
	}, pixels)
}

func TestEmulatorDrain(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"DRW",
		"FWD",
		"FWD",
		"HLT",
	)

	emu := NewEmulator(prog, log.NewTestLogger(t))
	emu.Start()

	// Batched, non-blocking consumption, as a render loop would do it.
	var pixels []vm.Pixel
	for {
		batch, open := emu.Drain()
		pixels = append(pixels, batch...)
		if !open {
			break
		}
	}

	assert.Equal([]vm.Pixel{
		{X: 1, Y: 0, Color: vm.White},
		{X: 2, Y: 0, Color: vm.White},
	}, pixels)
}

func TestEmulatorFault(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"STO A 1",
		"DIV A 0",
		"HLT",
	)

	emu := NewEmulator(prog, log.NewTestLogger(t))
	emu.Start()

	for range emu.Pixels() {
	}

	err := emu.Err()
	assert.ErrorIs(err, vm.ErrDivideByZero)

	var re *ErrRuntime
	if assert.ErrorAs(err, &re) {
		assert.Equal(1, re.Pc)
	}
}

func TestEmulatorUnboundedBacklog(t *testing.T) {
	assert := assert.New(t)

	// The producer must never block, even with no consumer draining:
	// the whole run completes before the first receive.
	prog := assemble(t,
		"STO B 5000",
		"DRW",
		"loop: FWD",
		"DEC B",
		"JNZ B loop",
		"HLT",
	)

	emu := NewEmulator(prog, log.NewTestLogger(t))
	emu.Start()

	var count int
	last := vm.Pixel{}
	for pixel := range emu.Pixels() {
		count++
		last = pixel
	}

	assert.NoError(emu.Err())
	assert.Equal(5000, count)
	assert.Equal(vm.Pixel{X: 5000, Y: 0, Color: vm.White}, last)
}
