package vm

import (
	"encoding/binary"
)

// Version is the single supported binary format version.
const Version = byte(0x01)

// headerSize is the fixed prefix: version byte plus two u16 canvas
// dimensions, little-endian.
const headerSize = 5

// Program is a decoded (or freshly assembled) drawing program: the canvas
// dimensions from the header and the instruction sequence.
type Program struct {
	Width  uint16
	Height uint16

	Instructions []Instruction
}

// Bytes encodes the program into the binary format: 5-byte header
// followed by the concatenated instructions in order.
func (prog *Program) Bytes() (buf []byte) {
	buf = append(buf, Version)
	buf = binary.LittleEndian.AppendUint16(buf, prog.Width)
	buf = binary.LittleEndian.AppendUint16(buf, prog.Height)

	for _, in := range prog.Instructions {
		buf = in.appendTo(buf)
	}

	return
}

// Decode parses a complete binary program, header included. Any malformed
// input is fatal; a partially decoded program is never returned.
func Decode(buffer []byte) (prog *Program, err error) {
	if len(buffer) < headerSize {
		err = ErrTruncated
		return
	}
	if buffer[0] != Version {
		err = ErrVersion(buffer[0])
		return
	}

	prog = &Program{
		Width:  binary.LittleEndian.Uint16(buffer[1:]),
		Height: binary.LittleEndian.Uint16(buffer[3:]),
	}

	for i := headerSize; i < len(buffer); {
		var n int
		var in Instruction
		n, in, err = parseNext(buffer[i:])
		if err != nil {
			prog = nil
			return
		}
		i += n
		prog.Instructions = append(prog.Instructions, in)
	}

	return
}
