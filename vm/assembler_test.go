package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"WIDTH 128",
		"HEIGHT 64",
		"# set up the heading and draw one step",
		"STO A 90",
		"DRW",
		"loop:",
		"FWD",
		"DEC A",
		"JNZ A loop",
		"HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint16(128), prog.Width)
	assert.Equal(uint16(64), prog.Height)

	expected := []Instruction{
		{Op: OpStore, Reg: RegA, Val: Imm(90)},
		{Op: OpDraw},
		{Op: OpForward},
		{Op: OpDec, Reg: RegA},
		{Op: OpJnz, Reg: RegA, Addr: 2},
		{Op: OpHalt},
	}
	assert.Equal(expected, prog.Instructions)
}

func TestAssemblerOperandForms(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"WIDTH 10",
		"HEIGHT 10",
		"STO B 1000",
		"STO S B",
		"ADD S S",
		"SUB B 1",
		"MUL S 2",
		"DIV B S",
		"JEQ B 0 done:",
		"JNE S B done",
		"JGT B S done",
		"JLT B 5 done",
		"done: HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Instruction{
		{Op: OpStore, Reg: RegB, Val: Imm(1000)},
		{Op: OpStore, Reg: RegS, Val: Reg(RegB)},
		{Op: OpAdd, Reg: RegS, Val: Reg(RegS)},
		{Op: OpSub, Reg: RegB, Val: Imm(1)},
		{Op: OpMul, Reg: RegS, Val: Imm(2)},
		{Op: OpDiv, Reg: RegB, Val: Reg(RegS)},
		{Op: OpJeq, Reg: RegB, Val: Imm(0), Addr: 10},
		{Op: OpJne, Reg: RegS, Val: Reg(RegB), Addr: 10},
		{Op: OpJgt, Reg: RegB, Val: Reg(RegS), Addr: 10},
		{Op: OpJlt, Reg: RegB, Val: Imm(5), Addr: 10},
		{Op: OpHalt},
	}
	assert.Equal(expected, prog.Instructions)
}

func TestAssemblerDeterministic(t *testing.T) {
	assert := assert.New(t)

	program := strings.Join([]string{
		"WIDTH 100",
		"HEIGHT 100",
		"STO A 45",
		"DRW",
		"again: FWD",
		"JNZ A again ; comment",
		"HLT",
	}, "\n")

	asm := &Assembler{}
	first, err := asm.Parse(strings.NewReader(program))
	assert.NoError(err)

	second, err := asm.Parse(strings.NewReader(program))
	assert.NoError(err)

	assert.Equal(first.Bytes(), second.Bytes())
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"WIDTH 10",
		"HEIGHT 10",
		".equ TURN 90",
		".equ POS X",
		"STO A TURN",
		"STO POS $(TURN + TURN)",
		"ADD A $(2 * TURN)",
		"HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Instruction{
		{Op: OpStore, Reg: RegA, Val: Imm(90)},
		{Op: OpStore, Reg: RegX, Val: Imm(180)},
		{Op: OpAdd, Reg: RegA, Val: Imm(180)},
		{Op: OpHalt},
	}
	assert.Equal(expected, prog.Instructions)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("STEPS", "7")

	program := []string{
		"WIDTH 10",
		"HEIGHT 10",
		"STO B STEPS",
		"HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal([]Instruction{
		{Op: OpStore, Reg: RegB, Val: Imm(7)},
		{Op: OpHalt},
	}, prog.Instructions)
}

func TestAssemblerComments(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"WIDTH 10",
		"HEIGHT 10",
		"# a full-line comment",
		"; another one",
		"DRW # trailing comment",
		"HLT ; trailing comment",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal([]Instruction{{Op: OpDraw}, {Op: OpHalt}}, prog.Instructions)
}

func TestAssemblerMissingDirectives(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader("HEIGHT 10\nHLT\n"))
	assert.ErrorIs(err, ErrWidthMissing)

	_, err = asm.Parse(strings.NewReader("WIDTH 10\nHLT\n"))
	assert.ErrorIs(err, ErrHeightMissing)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors; every program carries the mandatory
	// directives so the failure under test is the one reported.
	table := [](struct {
		prog string
		line int
	}){
		{"WIDTH 10\nHEIGHT 10\ndup:\ndup:\n", 4},
		{"WIDTH 10\nHEIGHT 10\nNOP\n", 3},
		{"WIDTH 10\nHEIGHT 10\nINC Q\n", 3},
		{"WIDTH 10\nHEIGHT 10\nINC\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A nothing\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A 65536\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A -1\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A 1 extra\n", 3},
		{"WIDTH 10\nHEIGHT 10\nDRW extra\n", 3},
		{"WIDTH 10\nHEIGHT 10\nJNZ A nowhere\n", 3},
		{"WIDTH 10\nHEIGHT 10\nJNZ A\n", 3},
		{"WIDTH 10\nHEIGHT 10\nJEQ A 1 loop extra\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A $(bogus)\n", 3},
		{"WIDTH 10\nHEIGHT 10\nSTO A $(\"str\")\n", 3},
		{"WIDTH 10\nHEIGHT 10\n.equ\n", 3},
		{"WIDTH 10\nHEIGHT 10\n.equ N\n", 3},
		{"WIDTH 10\nHEIGHT 10\n.equ N 1\n.equ N 2\n", 4},
		{"WIDTH\nHEIGHT 10\n", 1},
		{"WIDTH ten\nHEIGHT 10\n", 1},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
	}
}
