package vm

import (
	"math"

	"github.com/retroenv/retrogolib/log"
)

// White is the fixed color attached to every pixel event.
const White = uint32(0xffffff)

// epsilon is the tolerance for float equality in conditional jumps. It is
// the IEEE double machine epsilon; DIV/MUL chains on the float bank could
// otherwise never hit an exact-equality branch that an integer program
// would expect to take. Greater-than and less-than stay exact.
const epsilon = 0x1p-52

// Pixel is one drawing event: an origin-centered position (float
// positions truncated toward zero) and a 24-bit RGB color.
type Pixel struct {
	X     int
	Y     int
	Color uint32
}

// Vm executes a decoded program. State is owned exclusively by the Vm;
// the program is a read-only view. The zero position is the origin, all
// registers start at zero, and the pen starts up.
type Vm struct {
	Verbose bool // Set to enable per-instruction tracing.

	Pc         int        // Index of the next instruction to execute.
	PenDown    bool       // Toggled by DRW; gates pixel events.
	Terminated bool       // Set by HLT.
	IntReg     [8]uint16  // Integer bank, registers A-H.
	FloatReg   [8]float64 // Float bank, registers S-Z.

	logger *log.Logger
}

// New creates a Vm in its initial state.
func New(logger *log.Logger) (vm *Vm) {
	vm = &Vm{
		logger: logger,
	}

	return
}

// Step fetches the instruction at the program counter, executes it, and
// advances the counter (taken jumps set it directly instead). A pixel
// event is returned only for FWD with the pen down. Step must not be
// called again once Terminated is set.
func (vm *Vm) Step(program []Instruction) (pixel *Pixel, err error) {
	if vm.Terminated {
		err = ErrHalted
		return
	}
	if vm.Pc < 0 || vm.Pc >= len(program) {
		err = ErrAddress{Pc: vm.Pc, Len: len(program)}
		return
	}

	in := program[vm.Pc]

	if vm.Verbose {
		vm.logger.Debug("step", log.Int("pc", vm.Pc), log.String("instruction", in.String()))
	}

	switch in.Op {
	case OpDraw:
		vm.PenDown = !vm.PenDown
	case OpForward:
		// The position always advances, pen up or down.
		angle := float64(vm.IntReg[RegA.Index()] % 360)
		radians := angle * math.Pi / 180
		vm.FloatReg[RegX.Index()] += math.Cos(radians)
		vm.FloatReg[RegY.Index()] += math.Sin(radians)
		if vm.PenDown {
			pixel = &Pixel{
				X:     int(vm.FloatReg[RegX.Index()]),
				Y:     int(vm.FloatReg[RegY.Index()]),
				Color: White,
			}
		}
	case OpHalt:
		vm.Terminated = true
	case OpStore:
		vm.store(in.Reg, in.Val)
	case OpInc:
		err = vm.arith(OpInc, in.Reg, Imm(1))
	case OpDec:
		err = vm.arith(OpDec, in.Reg, Imm(1))
	case OpAdd, OpSub, OpMul, OpDiv:
		err = vm.arith(in.Op, in.Reg, in.Val)
	case OpJnz, OpJeq, OpJne, OpJgt, OpJlt:
		if vm.predicate(in) {
			// The target is validated on the next fetch.
			vm.Pc = int(in.Addr)
			return
		}
	}
	if err != nil {
		return
	}

	vm.Pc++

	return
}

// store writes a value into a register, coerced to the destination bank.
func (vm *Vm) store(reg Register, val Value) {
	if reg.IsInt() {
		vm.IntReg[reg.Index()] = vm.intValue(val)
	} else {
		vm.FloatReg[reg.Index()] = vm.floatValue(val)
	}
}

// arith applies op to a destination register, dispatching on its bank.
// The integer bank wraps modulo 2^16 with a warning; the float bank is
// plain IEEE arithmetic, inf and NaN included.
func (vm *Vm) arith(op Opcode, reg Register, val Value) (err error) {
	if reg.IsInt() {
		cur := vm.IntReg[reg.Index()]
		operand := vm.intValue(val)

		var wide uint32
		switch op {
		case OpAdd, OpInc:
			wide = uint32(cur) + uint32(operand)
		case OpSub, OpDec:
			wide = uint32(cur) - uint32(operand)
		case OpMul:
			wide = uint32(cur) * uint32(operand)
		case OpDiv:
			if operand == 0 {
				err = ErrDivideByZero
				return
			}
			wide = uint32(cur / operand)
		}

		if wide > math.MaxUint16 {
			// Native wraparound semantics; not an error.
			vm.logger.Warn("register wrapped",
				log.String("register", reg.String()),
				log.String("op", op.String()))
		}
		vm.IntReg[reg.Index()] = uint16(wide)

		return
	}

	cur := vm.FloatReg[reg.Index()]
	operand := vm.floatValue(val)

	switch op {
	case OpAdd, OpInc:
		cur += operand
	case OpSub, OpDec:
		cur -= operand
	case OpMul:
		cur *= operand
	case OpDiv:
		cur /= operand
	}
	vm.FloatReg[reg.Index()] = cur

	return
}

// predicate evaluates a conditional jump. Integer registers compare
// exactly; float registers use the epsilon tolerance for EQ/NE and exact
// ordering for GT/LT.
func (vm *Vm) predicate(in Instruction) bool {
	if in.Reg.IsInt() {
		a := vm.IntReg[in.Reg.Index()]

		if in.Op == OpJnz {
			return a != 0
		}

		b := vm.intValue(in.Val)
		switch in.Op {
		case OpJeq:
			return a == b
		case OpJne:
			return a != b
		case OpJgt:
			return a > b
		case OpJlt:
			return a < b
		}

		return false
	}

	a := vm.FloatReg[in.Reg.Index()]

	if in.Op == OpJnz {
		return math.Abs(a) > epsilon
	}

	b := vm.floatValue(in.Val)
	switch in.Op {
	case OpJeq:
		return math.Abs(a-b) < epsilon
	case OpJne:
		return math.Abs(a-b) > epsilon
	case OpJgt:
		return a > b
	case OpJlt:
		return a < b
	}

	return false
}

// intValue reads a value operand for an integer-bank destination. Float
// sources truncate toward zero, saturating at the bank's range; NaN reads
// as zero. An unguarded conversion is implementation-defined out of range.
func (vm *Vm) intValue(val Value) uint16 {
	if !val.isReg {
		return val.imm
	}
	if val.reg.IsInt() {
		return vm.IntReg[val.reg.Index()]
	}

	fv := vm.FloatReg[val.reg.Index()]
	switch {
	case math.IsNaN(fv) || fv < 0:
		return 0
	case fv > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(fv)
}

// floatValue reads a value operand for a float-bank destination.
func (vm *Vm) floatValue(val Value) float64 {
	if !val.isReg {
		return float64(val.imm)
	}
	if val.reg.IsInt() {
		return float64(vm.IntReg[val.reg.Index()])
	}
	return vm.FloatReg[val.reg.Index()]
}
