package vm

// Register identifies one of the 16 machine registers. The id space is
// flat: 0x0-0x7 are the integer bank (A-H), 0x8-0xF the float bank (S-Z).
type Register byte

const (
	RegA = Register(0x0) // heading angle, degrees
	RegB = Register(0x1)
	RegC = Register(0x2)
	RegD = Register(0x3)
	RegE = Register(0x4)
	RegF = Register(0x5)
	RegG = Register(0x6)
	RegH = Register(0x7)
	RegS = Register(0x8)
	RegT = Register(0x9)
	RegU = Register(0xa)
	RegV = Register(0xb)
	RegW = Register(0xc)
	RegX = Register(0xd) // pen position X
	RegY = Register(0xe) // pen position Y
	RegZ = Register(0xf)
)

// registerMap maps assembly register names to ids.
var registerMap = map[string]Register{
	"A": RegA, "B": RegB, "C": RegC, "D": RegD,
	"E": RegE, "F": RegF, "G": RegG, "H": RegH,
	"S": RegS, "T": RegT, "U": RegU, "V": RegV,
	"W": RegW, "X": RegX, "Y": RegY, "Z": RegZ,
}

var registerNames = [16]string{
	"A", "B", "C", "D", "E", "F", "G", "H",
	"S", "T", "U", "V", "W", "X", "Y", "Z",
}

// IsInt reports whether the register belongs to the integer bank.
func (reg Register) IsInt() bool {
	return reg <= RegH
}

// Index is the register's position within its own bank.
func (reg Register) Index() int {
	return int(reg & 0x7)
}

func (reg Register) String() string {
	if int(reg) < len(registerNames) {
		return registerNames[reg]
	}
	return "?"
}

// ParseRegister resolves an assembly register name.
func ParseRegister(word string) (reg Register, ok bool) {
	reg, ok = registerMap[word]
	return
}

// registerOf validates a raw register byte from the instruction stream.
func registerOf(b byte) (reg Register, err error) {
	if b > byte(RegZ) {
		err = ErrRegisterByte(b)
		return
	}
	reg = Register(b)
	return
}
