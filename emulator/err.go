package emulator

import (
	"github.com/twe4ked/drawer/translate"
)

var f = translate.From

// ErrRuntime wraps a fault with the program counter where it happened.
type ErrRuntime struct {
	Pc  int
	Err error
}

func (err ErrRuntime) Error() string {
	return f("pc %d: %v", err.Pc, err.Err)
}

func (err ErrRuntime) Unwrap() error {
	return err.Err
}
