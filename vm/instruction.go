package vm

import (
	"encoding/binary"
	"fmt"
)

// Opcode is the 7-bit operation selector in the low bits of an
// instruction's first byte. Bit 7 of that byte is not part of the opcode;
// it selects the register form of the value operand.
type Opcode byte

const (
	OpDraw    = Opcode(0x01) // DRW
	OpForward = Opcode(0x02) // FWD
	OpStore   = Opcode(0x03) // STO
	OpInc     = Opcode(0x04) // INC
	OpAdd     = Opcode(0x05) // ADD
	OpDec     = Opcode(0x06) // DEC
	OpJnz     = Opcode(0x07) // JNZ
	OpHalt    = Opcode(0x08) // HLT
	OpMul     = Opcode(0x09) // MUL
	OpJgt     = Opcode(0x0a) // JGT
	OpSub     = Opcode(0x0b) // SUB
	OpJeq     = Opcode(0x0c) // JEQ
	OpJne     = Opcode(0x0d) // JNE
	OpJlt     = Opcode(0x0e) // JLT
	OpDiv     = Opcode(0x0f) // DIV
)

// valueFormBit flags that the value operand is a register reference
// rather than a 16-bit immediate.
const valueFormBit = byte(0x80)

// shape describes the operand layout of an opcode.
type shape struct {
	mnemonic string
	hasReg   bool // one register-id byte
	hasVal   bool // immediate (2 bytes LE) or register (1 byte), per bit 7
	hasAddr  bool // jump target, 2 bytes LE, instruction index
}

var opcodeShapes = map[Opcode]shape{
	OpDraw:    {mnemonic: "DRW"},
	OpForward: {mnemonic: "FWD"},
	OpStore:   {mnemonic: "STO", hasReg: true, hasVal: true},
	OpInc:     {mnemonic: "INC", hasReg: true},
	OpAdd:     {mnemonic: "ADD", hasReg: true, hasVal: true},
	OpDec:     {mnemonic: "DEC", hasReg: true},
	OpJnz:     {mnemonic: "JNZ", hasReg: true, hasAddr: true},
	OpHalt:    {mnemonic: "HLT"},
	OpMul:     {mnemonic: "MUL", hasReg: true, hasVal: true},
	OpJgt:     {mnemonic: "JGT", hasReg: true, hasVal: true, hasAddr: true},
	OpSub:     {mnemonic: "SUB", hasReg: true, hasVal: true},
	OpJeq:     {mnemonic: "JEQ", hasReg: true, hasVal: true, hasAddr: true},
	OpJne:     {mnemonic: "JNE", hasReg: true, hasVal: true, hasAddr: true},
	OpJlt:     {mnemonic: "JLT", hasReg: true, hasVal: true, hasAddr: true},
	OpDiv:     {mnemonic: "DIV", hasReg: true, hasVal: true},
}

// mnemonicMap maps assembly mnemonics back to opcodes.
var mnemonicMap = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeShapes))
	for op, sh := range opcodeShapes {
		m[sh.mnemonic] = op
	}
	return m
}()

func (op Opcode) String() string {
	sh, ok := opcodeShapes[op]
	if !ok {
		return fmt.Sprintf("Opcode(%#02x)", byte(op))
	}
	return sh.mnemonic
}

// ParseOpcode resolves an assembly mnemonic.
func ParseOpcode(word string) (op Opcode, ok bool) {
	op, ok = mnemonicMap[word]
	return
}

// Value is the second operand of arithmetic, store, and compare
// instructions: either a 16-bit unsigned immediate or a register
// reference read at use time. The high-bit encoding in the opcode byte is
// a serialization detail; in memory the two forms are an explicit sum.
type Value struct {
	reg   Register
	imm   uint16
	isReg bool
}

// Imm makes an immediate value operand.
func Imm(v uint16) Value {
	return Value{imm: v}
}

// Reg makes a register-reference value operand.
func Reg(reg Register) Value {
	return Value{reg: reg, isReg: true}
}

func (v Value) String() string {
	if v.isReg {
		return v.reg.String()
	}
	return fmt.Sprintf("%d", v.imm)
}

// Instruction is one decoded operation. Fields not used by the opcode's
// operand shape are zero. Instructions are immutable once decoded; the
// executing Vm only ever reads them.
type Instruction struct {
	Op   Opcode
	Reg  Register
	Val  Value
	Addr uint16 // jump target, an instruction index
}

func (in Instruction) String() (out string) {
	sh := opcodeShapes[in.Op]
	out = sh.mnemonic
	if sh.hasReg {
		out += " " + in.Reg.String()
	}
	if sh.hasVal {
		out += " " + in.Val.String()
	}
	if sh.hasAddr {
		out += fmt.Sprintf(" @%d", in.Addr)
	}
	return
}

// appendTo encodes the instruction onto buf per the binary format.
func (in Instruction) appendTo(buf []byte) []byte {
	sh := opcodeShapes[in.Op]

	head := byte(in.Op)
	if sh.hasVal && in.Val.isReg {
		head |= valueFormBit
	}
	buf = append(buf, head)

	if sh.hasReg {
		buf = append(buf, byte(in.Reg))
	}
	if sh.hasVal {
		if in.Val.isReg {
			buf = append(buf, byte(in.Val.reg))
		} else {
			buf = binary.LittleEndian.AppendUint16(buf, in.Val.imm)
		}
	}
	if sh.hasAddr {
		buf = binary.LittleEndian.AppendUint16(buf, in.Addr)
	}

	return buf
}

// parseNext decodes one instruction from the start of buffer, returning
// the number of bytes consumed.
func parseNext(buffer []byte) (n int, in Instruction, err error) {
	readByte := func() (b byte, err error) {
		if n >= len(buffer) {
			err = ErrTruncated
			return
		}
		b = buffer[n]
		n++
		return
	}
	readUint16 := func() (v uint16, err error) {
		if n+2 > len(buffer) {
			err = ErrTruncated
			return
		}
		v = binary.LittleEndian.Uint16(buffer[n:])
		n += 2
		return
	}

	head, err := readByte()
	if err != nil {
		return
	}

	op := Opcode(head &^ valueFormBit)
	sh, ok := opcodeShapes[op]
	if !ok {
		err = ErrOpcodeByte(head)
		return
	}
	in.Op = op

	if sh.hasReg {
		var b byte
		b, err = readByte()
		if err != nil {
			return
		}
		in.Reg, err = registerOf(b)
		if err != nil {
			return
		}
	}
	if sh.hasVal {
		if head&valueFormBit != 0 {
			var b byte
			b, err = readByte()
			if err != nil {
				return
			}
			var reg Register
			reg, err = registerOf(b)
			if err != nil {
				return
			}
			in.Val = Reg(reg)
		} else {
			var v uint16
			v, err = readUint16()
			if err != nil {
				return
			}
			in.Val = Imm(v)
		}
	}
	if sh.hasAddr {
		in.Addr, err = readUint16()
		if err != nil {
			return
		}
	}

	return
}
