package vm

import (
	"errors"

	"github.com/twe4ked/drawer/translate"
)

var f = translate.From

var (
	// Decode errors
	ErrTruncated = errors.New(f("truncated instruction"))

	// Assembler errors
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrWidthMissing    = errors.New(f("WIDTH directive missing"))
	ErrHeightMissing   = errors.New(f("HEIGHT directive missing"))
	ErrDirectiveValue  = errors.New(f("directive value missing"))
	ErrRegisterMissing = errors.New(f("register missing"))
	ErrValueMissing    = errors.New(f("value missing"))
	ErrLabelArgMissing = errors.New(f("label missing"))
	ErrExtraArgs       = errors.New(f("excessive arguments"))

	// Run-time errors
	ErrDivideByZero = errors.New(f("integer division by zero"))
	ErrHalted       = errors.New(f("stepped after halt"))
)

// ErrVersion is an unsupported binary format version.
type ErrVersion byte

func (ev ErrVersion) Error() string {
	return f("unsupported program version %#02x", byte(ev))
}

// ErrOpcodeByte is an opcode byte that matches no defined opcode after
// masking the value-form bit.
type ErrOpcodeByte byte

func (eo ErrOpcodeByte) Error() string {
	return f("invalid instruction %#02x", byte(eo))
}

func (eo ErrOpcodeByte) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcodeByte)
	return
}

// ErrRegisterByte is a register id byte outside 0x0-0xF.
type ErrRegisterByte byte

func (er ErrRegisterByte) Error() string {
	return f("invalid register %#02x", byte(er))
}

func (er ErrRegisterByte) Is(err error) (ok bool) {
	_, ok = err.(ErrRegisterByte)
	return
}

// ErrMnemonicInvalid is a token that is neither a mnemonic, a directive,
// nor a label declaration.
type ErrMnemonicInvalid string

func (em ErrMnemonicInvalid) Error() string {
	return f("'%v' is not an instruction", string(em))
}

// ErrRegisterInvalid is an operand that does not name a register.
type ErrRegisterInvalid string

func (er ErrRegisterInvalid) Error() string {
	return f("'%v' is not a register", string(er))
}

// ErrParseNumber is an operand that is neither a register name nor an
// unsigned 16-bit integer.
type ErrParseNumber string

func (ep ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(ep))
}

// ErrParseExpression is a malformed $() compile-time expression.
type ErrParseExpression string

func (ep ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(ep))
}

// ErrLabelMissing is a branch target with no matching label declaration.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax wraps an assembly error with its source line context.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrAddress is a program counter or jump target outside the program.
type ErrAddress struct {
	Pc  int
	Len int
}

func (ea ErrAddress) Error() string {
	return f("address %d outside program of %d instructions", ea.Pc, ea.Len)
}

func (ea ErrAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrAddress)
	return
}
